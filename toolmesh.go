// Package toolmesh provides a high-level façade over the tool registry and
// executor enabling rapid construction of tool-calling systems. Most
// applications interact with this package by:
//  1. Creating a Toolmesh via New() (optionally overriding the logger,
//     history bound or default tool configuration)
//  2. Registering one or more tools (function adapters or custom Tool
//     implementations)
//  3. Executing tool calls by name or by reference, singly or in batches
//
// The façade delegates bookkeeping to tool.Registry and executor.Executor
// while keeping setup and usage ergonomics concise. All defaults are safe for
// local development and testing; production deployments typically supply a
// structured logger. Callers requiring isolation construct their own instance;
// Default() exists purely for composition-point convenience and is created
// once for the process lifetime.
package toolmesh

import (
	"context"
	"sync"

	"github.com/hupe1980/toolmesh/executor"
	"github.com/hupe1980/toolmesh/logging"
	"github.com/hupe1980/toolmesh/tool"
)

// Options configures the Toolmesh instance.
type Options struct {
	// HistorySize bounds the executor's retained history
	// (default executor.DefaultHistorySize).
	HistorySize int

	// Config is the default tool configuration (shared store, stream writer,
	// extra values) passed through to invocations.
	Config *tool.Config

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Toolmesh is the high-level façade aggregating the registry and executor.
type Toolmesh struct {
	opts     Options
	registry *tool.Registry
	executor *executor.Executor
}

// New creates a new Toolmesh instance with optional overrides.
func New(optFns ...func(o *Options)) *Toolmesh {
	opts := Options{
		HistorySize: executor.DefaultHistorySize,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	registry := tool.NewRegistry(func(o *tool.RegistryOptions) {
		o.Logger = opts.Logger
	})

	exec := executor.New(func(o *executor.Options) {
		o.Registry = registry
		o.HistorySize = opts.HistorySize
		o.Config = opts.Config
		o.Logger = opts.Logger
	})

	return &Toolmesh{opts: opts, registry: registry, executor: exec}
}

var (
	defaultMesh *Toolmesh
	defaultOnce sync.Once
)

// Default returns the process-wide Toolmesh instance, created on first use
// and never re-initialized. It is a convenience for simple applications;
// anything needing isolation (tests, multi-tenant services) should call New.
func Default() *Toolmesh {
	defaultOnce.Do(func() { defaultMesh = New() })
	return defaultMesh
}

// Registry exposes the underlying tool registry.
func (m *Toolmesh) Registry() *tool.Registry { return m.registry }

// Executor exposes the underlying executor.
func (m *Toolmesh) Executor() *executor.Executor { return m.executor }

// RegisterTool adds a tool to the registry, overwriting any prior entry with
// the same name.
func (m *Toolmesh) RegisterTool(t tool.Tool, optFns ...func(o *tool.RegisterOptions)) {
	m.registry.Register(t, optFns...)
}

// ExecuteCall executes a registered tool by name.
func (m *Toolmesh) ExecuteCall(ctx context.Context, name string, args map[string]any, optFns ...func(o *executor.ExecOptions)) executor.ExecutionResult {
	return m.executor.ExecuteCall(ctx, name, args, optFns...)
}

// ExecuteTools executes a batch of calls (parallel or chunked; see
// executor.Executor.ExecuteTools).
func (m *Toolmesh) ExecuteTools(ctx context.Context, calls []executor.Call, optFns ...func(o *executor.ExecOptions)) []executor.ExecutionResult {
	return m.executor.ExecuteTools(ctx, calls, optFns...)
}

// Statistics returns aggregate execution statistics over the retained history.
func (m *Toolmesh) Statistics() executor.Statistics {
	return m.executor.Statistics()
}
