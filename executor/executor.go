package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/toolmesh/logging"
	"github.com/hupe1980/toolmesh/tool"
)

// DefaultHistorySize bounds the execution history when no size is configured.
const DefaultHistorySize = 100

// ExecutionResult is the recorded outcome of one tool invocation attempt.
// Exactly one of Result or Error is meaningful, selected by Success.
// Results are immutable once created and appended to history per attempt.
type ExecutionResult struct {
	// ID uniquely identifies this attempt.
	ID string `json:"id"`
	// ToolName is the name of the invoked tool.
	ToolName string `json:"tool_name"`
	// Args holds the arguments the tool was invoked with.
	Args map[string]any `json:"args"`
	// Success reports whether the attempt completed without error.
	Success bool `json:"success"`
	// Result carries the tool's return value on success.
	Result any `json:"result,omitempty"`
	// Error carries the failure message on failure.
	Error string `json:"error,omitempty"`
	// Attempt is the zero-based attempt number (0 = first try).
	Attempt int `json:"attempt"`
	// StartTime is when the attempt began.
	StartTime time.Time `json:"start_time"`
	// Duration is the wall time the attempt took (or waited, on timeout).
	Duration time.Duration `json:"duration"`
}

// ExecutionTimeMs returns the attempt duration in milliseconds.
func (r ExecutionResult) ExecutionTimeMs() int64 { return r.Duration.Milliseconds() }

// ExecOptions configures a single ExecuteTool call or every item of a batch.
// The zero value means: no timeout, no retries, unbounded parallelism.
type ExecOptions struct {
	// Timeout bounds each attempt. Each retry gets a fresh window; there is
	// no cumulative budget across attempts. Zero means no timeout.
	Timeout time.Duration
	// Retries is the count of additional attempts after the first failure.
	Retries int
	// RetryDelay is waited before each retry attempt.
	RetryDelay time.Duration
	// MaxParallel caps batch concurrency by partitioning the input into
	// consecutive chunks of this size; each chunk is fully awaited before
	// the next starts. Zero or negative means unbounded.
	MaxParallel int
	// StopOnError aborts a sequential batch after the first failed item.
	StopOnError bool
	// OnProgress, when set, receives a formatted notice after each failed
	// item of a sequential batch.
	OnProgress func(notice string)
	// Config overrides the executor's default tool configuration.
	Config *tool.Config
}

// WithTimeout bounds each invocation attempt.
func WithTimeout(d time.Duration) func(o *ExecOptions) {
	return func(o *ExecOptions) { o.Timeout = d }
}

// WithRetries sets the number of additional attempts after the first failure.
func WithRetries(n int) func(o *ExecOptions) {
	return func(o *ExecOptions) { o.Retries = n }
}

// WithRetryDelay sets the delay waited before each retry.
func WithRetryDelay(d time.Duration) func(o *ExecOptions) {
	return func(o *ExecOptions) { o.RetryDelay = d }
}

// WithMaxParallel caps batch concurrency via chunking.
func WithMaxParallel(n int) func(o *ExecOptions) {
	return func(o *ExecOptions) { o.MaxParallel = n }
}

// WithStopOnError aborts a sequential batch after the first failure.
func WithStopOnError() func(o *ExecOptions) {
	return func(o *ExecOptions) { o.StopOnError = true }
}

// WithProgress installs a callback receiving failure notices during
// sequential execution.
func WithProgress(fn func(notice string)) func(o *ExecOptions) {
	return func(o *ExecOptions) { o.OnProgress = fn }
}

// WithConfig overrides the executor's default tool configuration for one call.
func WithConfig(cfg *tool.Config) func(o *ExecOptions) {
	return func(o *ExecOptions) { o.Config = cfg }
}

// Options configures construction of an Executor.
type Options struct {
	// Registry resolves tool names for ExecuteCall. Optional; name-based
	// execution fails with a structured result when nil.
	Registry *tool.Registry
	// HistorySize bounds the execution history (default DefaultHistorySize).
	HistorySize int
	// Config is the default tool configuration passed to invocations.
	Config *tool.Config
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Executor invokes tools with bounded wait, retry-on-failure and outcome
// recording. Executor instances are fully independent: each owns its history
// and size bound. All methods are safe for concurrent use.
type Executor struct {
	registry    *tool.Registry
	historySize int
	cfg         *tool.Config
	logger      logging.Logger

	mu      sync.Mutex
	history []ExecutionResult
}

// New creates an Executor. Malformed option values are normalized rather than
// rejected (HistorySize <= 0 falls back to DefaultHistorySize).
func New(optFns ...func(o *Options)) *Executor {
	opts := Options{
		HistorySize: DefaultHistorySize,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Executor{
		registry:    opts.Registry,
		historySize: opts.HistorySize,
		cfg:         opts.Config,
		logger:      opts.Logger,
	}
}

// Registry returns the registry backing name-based execution (may be nil).
func (e *Executor) Registry() *tool.Registry { return e.registry }

// ExecuteTool invokes a single tool subject to the given options.
//
// The attempt loop runs from 0 to Retries inclusive. Every attempt appends
// its own history entry; only the final attempt's result is returned, so
// callers needing full forensic detail must inspect the history. Each retry
// waits RetryDelay first (interruptible by ctx) and gets a fresh timeout
// window. Failures never escape as Go errors.
func (e *Executor) ExecuteTool(ctx context.Context, t tool.Tool, args map[string]any, optFns ...func(o *ExecOptions)) ExecutionResult {
	opts := buildExecOptions(optFns)

	var res ExecutionResult
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			e.logger.Warn("executor.tool.retry", "tool", t.Name(), "attempt", attempt, "max_retries", opts.Retries)
			if !e.waitRetryDelay(ctx, opts.RetryDelay) {
				break // ctx cancelled during delay; last recorded result stands
			}
		}

		res = e.attempt(ctx, t, args, opts, attempt)
		e.record(res)

		e.logger.Info(
			"executor.tool.executed",
			"tool", res.ToolName,
			"attempt", attempt,
			"duration_ms", res.Duration.Milliseconds(),
			"success", res.Success,
		)

		if res.Success {
			break
		}
	}

	return res
}

// ExecuteCall resolves name through the registry and executes the tool.
// An absent tool yields a failed result with a descriptive message; it never
// returns an error.
func (e *Executor) ExecuteCall(ctx context.Context, name string, args map[string]any, optFns ...func(o *ExecOptions)) ExecutionResult {
	entry, ok := e.lookup(name)
	if !ok {
		res := ExecutionResult{
			ID:        uuid.NewString(),
			ToolName:  name,
			Args:      args,
			Success:   false,
			Error:     fmt.Sprintf("tool %s not found in registry", name),
			StartTime: time.Now(),
		}
		e.record(res)

		e.logger.Warn("executor.tool.not_found", "tool", name)

		return res
	}

	return e.ExecuteTool(ctx, entry.Tool, args, optFns...)
}

func (e *Executor) lookup(name string) (tool.Entry, bool) {
	if e.registry == nil {
		return tool.Entry{}, false
	}
	return e.registry.Get(name)
}

// attempt runs one invocation attempt, racing it against the timeout timer
// when one is configured. A losing invocation is abandoned, not cancelled:
// the attempt's goroutine keeps running if the tool ignores ctx, and any of
// its side effects may still occur after the executor has moved on.
func (e *Executor) attempt(ctx context.Context, t tool.Tool, args map[string]any, opts *ExecOptions, attempt int) ExecutionResult {
	start := time.Now()
	invocationID := uuid.NewString()

	attemptCtx := ctx
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		// Best-effort cancellation signal for cooperative tools.
		attemptCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	toolCtx := tool.NewContext(attemptCtx, func(o *tool.ContextOptions) {
		o.InvocationID = invocationID
		o.Logger = e.logger
		o.Config = e.resolveConfig(opts)
	})

	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		var (
			result any
			err    error
		)
		func() { // panic safety
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic recovered: %v", r)
				}
			}()
			result, err = t.Call(toolCtx, args)
		}()
		done <- outcome{result: result, err: err}
	}()

	var out outcome
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()

		select {
		case out = <-done:
		case <-timer.C:
			out = outcome{err: tool.NewToolError(
				t.Name(),
				fmt.Sprintf("timed out after %dms", opts.Timeout.Milliseconds()),
				tool.CodeTimeout,
			)}
		case <-ctx.Done():
			out = outcome{err: ctx.Err()}
		}
	} else {
		select {
		case out = <-done:
		case <-ctx.Done():
			out = outcome{err: ctx.Err()}
		}
	}

	// Cooperative tools may surface the deadline as a ctx error before the
	// timer fires; normalize so the message always names the window.
	if opts.Timeout > 0 && errors.Is(out.err, context.DeadlineExceeded) {
		out.err = tool.NewToolError(
			t.Name(),
			fmt.Sprintf("timed out after %dms", opts.Timeout.Milliseconds()),
			tool.CodeTimeout,
		)
	}

	res := ExecutionResult{
		ID:        invocationID,
		ToolName:  t.Name(),
		Args:      args,
		Attempt:   attempt,
		StartTime: start,
		Duration:  time.Since(start),
	}
	if out.err != nil {
		res.Error = out.err.Error()
	} else {
		res.Success = true
		res.Result = out.result
	}
	return res
}

func (e *Executor) resolveConfig(opts *ExecOptions) *tool.Config {
	if opts.Config != nil {
		return opts.Config
	}
	return e.cfg
}

// waitRetryDelay blocks for the configured delay, reporting false when the
// context is cancelled first.
func (e *Executor) waitRetryDelay(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// buildExecOptions applies option funcs and normalizes malformed values.
func buildExecOptions(optFns []func(o *ExecOptions)) *ExecOptions {
	opts := &ExecOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.MaxParallel < 0 {
		opts.MaxParallel = 0
	}
	return opts
}
