package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/toolmesh/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool() tool.Tool {
	return tool.NewFunctionTool("echo", "Echo the text argument back unchanged", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
		"required": []string{"text"},
	}, func(_ *tool.Context, args map[string]any) (any, error) {
		return args["text"], nil
	})
}

func failingTool(name string) tool.Tool {
	return tool.NewFunctionTool(name, "Always fails", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ *tool.Context, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})
}

// slowTool deliberately ignores ctx cancellation so timeout abandonment
// (rather than cooperative cancellation) is what gets exercised.
func slowTool(name string, d time.Duration) tool.Tool {
	return tool.NewFunctionTool(name, "Sleeps before returning", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ *tool.Context, _ map[string]any) (any, error) {
		time.Sleep(d)
		return "done", nil
	})
}

func panickingTool(name string) tool.Tool {
	return tool.NewFunctionTool(name, "Panics", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ *tool.Context, _ map[string]any) (any, error) {
		panic("kaboom")
	})
}

// -------------------- Single Execution --------------------

func TestExecuteTool_Success(t *testing.T) {
	e := New()

	res := e.ExecuteTool(context.Background(), echoTool(), map[string]any{"text": "hi"})

	assert.True(t, res.Success)
	assert.Equal(t, "hi", res.Result)
	assert.Equal(t, "echo", res.ToolName)
	assert.Equal(t, map[string]any{"text": "hi"}, res.Args)
	assert.Empty(t, res.Error)
	assert.GreaterOrEqual(t, res.ExecutionTimeMs(), int64(0))
	assert.NotEmpty(t, res.ID)
	assert.Len(t, e.History(), 1)
}

func TestExecuteTool_FailureNeverEscapes(t *testing.T) {
	e := New()

	res := e.ExecuteTool(context.Background(), failingTool("fail"), map[string]any{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "boom")
	assert.Nil(t, res.Result)
}

func TestExecuteTool_ValidationFailureIsOrdinaryFailure(t *testing.T) {
	e := New()

	// Schema requires "text"; omit it so FunctionTool rejects the call.
	res := e.ExecuteTool(context.Background(), echoTool(), map[string]any{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "validation")
	assert.Len(t, e.History(), 1)
}

func TestExecuteTool_PanicRecovered(t *testing.T) {
	e := New()

	res := e.ExecuteTool(context.Background(), panickingTool("panicky"), map[string]any{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "panic recovered")
}

// -------------------- Retry Semantics --------------------

func TestExecuteTool_RetriesRecordEveryAttempt(t *testing.T) {
	e := New()

	res := e.ExecuteTool(context.Background(), failingTool("fail"), map[string]any{}, WithRetries(2))

	// Initial attempt + 2 retries = 3 history entries; last one returned.
	history := e.History()
	require.Len(t, history, 3)
	for i, h := range history {
		assert.False(t, h.Success)
		assert.Equal(t, i, h.Attempt)
	}
	assert.Equal(t, 2, res.Attempt)
	assert.False(t, res.Success)
}

func TestExecuteTool_RetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	flaky := tool.NewFunctionTool("flaky", "Fails twice then succeeds", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ *tool.Context, _ map[string]any) (any, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("transient")
		}
		return "recovered", nil
	})

	e := New()
	res := e.ExecuteTool(context.Background(), flaky, map[string]any{}, WithRetries(5))

	assert.True(t, res.Success)
	assert.Equal(t, "recovered", res.Result)
	assert.Equal(t, 2, res.Attempt)
	// Two failures + one success recorded; no further attempts after success.
	assert.Len(t, e.History(), 3)
	assert.Equal(t, 3, attempts)
}

func TestExecuteTool_RetryDelayIsWaited(t *testing.T) {
	e := New()

	start := time.Now()
	e.ExecuteTool(context.Background(), failingTool("fail"), map[string]any{},
		WithRetries(2), WithRetryDelay(30*time.Millisecond))
	elapsed := time.Since(start)

	// Two retries, each preceded by a 30ms delay.
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestExecuteTool_NegativeRetriesNormalized(t *testing.T) {
	e := New()

	e.ExecuteTool(context.Background(), failingTool("fail"), map[string]any{}, WithRetries(-5))

	assert.Len(t, e.History(), 1)
}

// -------------------- Timeout Semantics --------------------

func TestExecuteTool_TimeoutReturnsEarly(t *testing.T) {
	e := New()

	start := time.Now()
	res := e.ExecuteTool(context.Background(), slowTool("slow", 200*time.Millisecond), map[string]any{},
		WithTimeout(50*time.Millisecond))
	elapsed := time.Since(start)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "timed out after 50ms")
	assert.Less(t, elapsed, 150*time.Millisecond)
}

func TestExecuteTool_TimeoutPerAttempt(t *testing.T) {
	e := New()

	// Each retry gets a fresh window; both attempts should time out.
	e.ExecuteTool(context.Background(), slowTool("slow", 200*time.Millisecond), map[string]any{},
		WithTimeout(30*time.Millisecond), WithRetries(1))

	history := e.History()
	require.Len(t, history, 2)
	for _, h := range history {
		assert.False(t, h.Success)
		assert.Contains(t, h.Error, "timed out after 30ms")
	}
}

func TestExecuteTool_CompletesWithinTimeout(t *testing.T) {
	e := New()

	res := e.ExecuteTool(context.Background(), echoTool(), map[string]any{"text": "fast"},
		WithTimeout(time.Second))

	assert.True(t, res.Success)
	assert.Equal(t, "fast", res.Result)
}

func TestExecuteTool_ContextCancellationStopsRetries(t *testing.T) {
	e := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := e.ExecuteTool(ctx, failingTool("fail"), map[string]any{},
		WithRetries(3), WithRetryDelay(50*time.Millisecond))

	assert.False(t, res.Success)
	// First attempt recorded; cancellation during the delay stops the rest.
	assert.Len(t, e.History(), 1)
}

// -------------------- Registry-Backed Execution --------------------

func TestExecuteCall_ResolvesThroughRegistry(t *testing.T) {
	r := tool.NewRegistry()
	r.Register(echoTool())
	e := New(func(o *Options) { o.Registry = r })

	res := e.ExecuteCall(context.Background(), "echo", map[string]any{"text": "hi"})

	assert.True(t, res.Success)
	assert.Equal(t, "hi", res.Result)
}

func TestExecuteCall_NotFound(t *testing.T) {
	r := tool.NewRegistry()
	e := New(func(o *Options) { o.Registry = r })

	res := e.ExecuteCall(context.Background(), "missing", map[string]any{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "tool missing not found in registry")
	assert.Len(t, e.History(), 1)
}

func TestExecuteCall_NoRegistryConfigured(t *testing.T) {
	e := New()

	res := e.ExecuteCall(context.Background(), "anything", map[string]any{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not found in registry")
}

// -------------------- Config Propagation --------------------

func TestExecuteTool_SharedStoreAcrossCalls(t *testing.T) {
	counter := tool.NewFunctionTool("counter", "Increments a shared counter", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(tc *tool.Context, _ map[string]any) (any, error) {
		n := 0
		if v, ok := tc.GetState("n"); ok {
			n = v.(int)
		}
		n++
		tc.SetState("n", n)
		return n, nil
	})

	cfg := &tool.Config{Store: map[string]any{}}
	e := New(func(o *Options) { o.Config = cfg })

	first := e.ExecuteTool(context.Background(), counter, map[string]any{})
	second := e.ExecuteTool(context.Background(), counter, map[string]any{})

	assert.Equal(t, 1, first.Result)
	assert.Equal(t, 2, second.Result)
}

func TestExecuteTool_PerCallConfigOverride(t *testing.T) {
	probe := tool.NewFunctionTool("probe", "Reads a value from extras", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(tc *tool.Context, _ map[string]any) (any, error) {
		v, _ := tc.Extra("tenant")
		return v, nil
	})

	e := New(func(o *Options) { o.Config = &tool.Config{Extra: map[string]any{"tenant": "default"}} })

	res := e.ExecuteTool(context.Background(), probe, map[string]any{},
		WithConfig(&tool.Config{Extra: map[string]any{"tenant": "acme"}}))

	assert.Equal(t, "acme", res.Result)
}
