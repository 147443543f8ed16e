package tool

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/toolmesh/logging"
)

// Config carries caller supplied contextual values that are passed through to
// tools unmodified at invocation time. All fields are optional; the executor
// builds a per-invocation Context from a Config (or from nothing).
type Config struct {
	// Store is a shared mutable state bag visible to every invocation that
	// receives the same Config. Tools read and write it through the Context.
	Store map[string]any
	// StreamWriter, when set, lets tools emit incremental output.
	StreamWriter io.Writer
	// Extra holds arbitrary additional values for custom tool implementations.
	Extra map[string]any
}

// Context provides a constrained, auditable surface for tool implementations.
// It carries the invocation identifier, cancellation context, logger and the
// caller supplied Config values. A fresh Context is created per invocation
// attempt; the underlying Store is shared across attempts by design.
type Context struct {
	ctx          context.Context
	invocationID string
	logger       logging.Logger

	mu           sync.RWMutex
	store        map[string]any
	streamWriter io.Writer
	extra        map[string]any
}

// ContextOptions configures construction of a tool Context.
type ContextOptions struct {
	// InvocationID correlates the context with one execution attempt.
	// A random UUID is generated if empty.
	InvocationID string
	// Logger used by the tool implementation. Defaults to NoOpLogger.
	Logger logging.Logger
	// Config supplies the shared store, stream writer and extra values.
	Config *Config
}

// NewContext constructs a tool context bound to a parent context.Context.
func NewContext(ctx context.Context, optFns ...func(o *ContextOptions)) *Context {
	opts := ContextOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.InvocationID == "" {
		opts.InvocationID = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tc := &Context{
		ctx:          ctx,
		invocationID: opts.InvocationID,
		logger:       opts.Logger,
	}
	if opts.Config != nil {
		tc.store = opts.Config.Store
		tc.streamWriter = opts.Config.StreamWriter
		tc.extra = opts.Config.Extra
	}
	return tc
}

// Context returns the context associated with the tool invocation. Tools that
// perform blocking work should observe its cancellation; the executor cannot
// stop an invocation that ignores it.
func (tc *Context) Context() context.Context { return tc.ctx }

// InvocationID returns the identifier correlating this invocation attempt
// with its recorded execution result.
func (tc *Context) InvocationID() string { return tc.invocationID }

// Logger returns the logger associated with the tool invocation.
func (tc *Context) Logger() logging.Logger { return tc.logger }

// GetState retrieves the state value associated with the given key.
func (tc *Context) GetState(k string) (any, bool) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	if tc.store == nil {
		return nil, false
	}
	v, ok := tc.store[k]
	return v, ok
}

// SetState records a state mutation in the shared store. The mutation is
// visible to subsequent invocations sharing the same Config.
func (tc *Context) SetState(k string, v any) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.store == nil {
		tc.store = map[string]any{}
	}
	tc.store[k] = v
}

// StateKeys returns the keys currently present in the shared store.
func (tc *Context) StateKeys() []string {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	keys := make([]string, 0, len(tc.store))
	for k := range tc.store {
		keys = append(keys, k)
	}
	return keys
}

// Extra returns an arbitrary caller supplied value by key.
func (tc *Context) Extra(k string) (any, bool) {
	if tc.extra == nil {
		return nil, false
	}
	v, ok := tc.extra[k]
	return v, ok
}

// Stream writes incremental output to the configured stream writer.
// It is a no-op returning an error when no writer is configured.
func (tc *Context) Stream(text string) error {
	if tc.streamWriter == nil {
		return fmt.Errorf("stream writer not configured")
	}

	_, err := io.WriteString(tc.streamWriter, text)
	return err
}

// HasStream reports whether a stream writer is configured.
func (tc *Context) HasStream() bool { return tc.streamWriter != nil }

// Validate performs a structural sanity check of the context.
func (tc *Context) Validate() error {
	if tc.ctx == nil || tc.invocationID == "" {
		return fmt.Errorf("invalid tool Context")
	}

	return nil
}
