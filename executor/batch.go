package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/toolmesh/tool"
)

// Call pairs a tool with the arguments it should be invoked with. Tool takes
// precedence over Name; Name alone requires the executor's registry.
type Call struct {
	// Tool is the implementation to invoke.
	Tool tool.Tool
	// Name resolves the tool through the registry when Tool is nil.
	Name string
	// Args holds the invocation arguments.
	Args map[string]any
}

// ExecuteTools executes a batch of calls.
//
// By default every invocation launches immediately and runs in parallel.
// With MaxParallel > 0 the input is partitioned into consecutive chunks of
// that size and each chunk is fully awaited before the next starts; a slow
// item therefore blocks the start of the next chunk even if other slots are
// free. This is a deliberate simplicity trade-off over a sliding-window
// scheduler.
//
// The returned slice is indexed by input position. History entries are
// appended in completion order, which is unspecified across a chunk. A failed
// item never aborts its siblings.
func (e *Executor) ExecuteTools(ctx context.Context, calls []Call, optFns ...func(o *ExecOptions)) []ExecutionResult {
	n := len(calls)
	if n == 0 {
		return nil
	}

	opts := buildExecOptions(optFns)

	// Fast path: single call, execute inline.
	if n == 1 {
		return []ExecutionResult{e.executeItem(ctx, calls[0], optFns)}
	}

	results := make([]ExecutionResult, n)

	batchStart := time.Now()
	mode := "parallel"
	if opts.MaxParallel > 0 && opts.MaxParallel < n {
		mode = "chunked"
		chunk := opts.MaxParallel
		for start := 0; start < n; start += chunk {
			end := start + chunk
			if end > n {
				end = n
			}
			e.runChunk(ctx, calls, results, start, end, optFns)
		}
	} else {
		e.runChunk(ctx, calls, results, 0, n, optFns)
	}

	e.logger.Debug(
		"executor.batch.complete",
		"mode", mode,
		"count", n,
		"max_parallel", opts.MaxParallel,
		"failures", countFailures(results),
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return results
}

// runChunk launches calls[start:end] concurrently and awaits all of them.
func (e *Executor) runChunk(ctx context.Context, calls []Call, results []ExecutionResult, start, end int, optFns []func(o *ExecOptions)) {
	var wg sync.WaitGroup
	for i := start; i < end; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = e.executeItem(ctx, calls[idx], optFns)
		}(i)
	}
	wg.Wait()
}

// ExecuteToolsSequential runs calls one at a time in input order.
//
// After each failed item the optional OnProgress callback receives a
// formatted failure notice. With StopOnError the partial result set gathered
// so far is returned immediately and remaining items never execute.
func (e *Executor) ExecuteToolsSequential(ctx context.Context, calls []Call, optFns ...func(o *ExecOptions)) []ExecutionResult {
	opts := buildExecOptions(optFns)

	results := make([]ExecutionResult, 0, len(calls))
	for i, call := range calls {
		res := e.executeItem(ctx, call, optFns)
		results = append(results, res)

		if !res.Success {
			if opts.OnProgress != nil {
				opts.OnProgress(fmt.Sprintf("tool %s failed (item %d of %d): %s", res.ToolName, i+1, len(calls), res.Error))
			}
			if opts.StopOnError {
				e.logger.Warn("executor.sequential.aborted", "tool", res.ToolName, "completed", len(results), "total", len(calls))
				break
			}
		}
	}

	return results
}

// executeItem dispatches one batch item through the single-call path, so
// per-item timeout, retry and history semantics are identical to ExecuteTool.
func (e *Executor) executeItem(ctx context.Context, call Call, optFns []func(o *ExecOptions)) ExecutionResult {
	if call.Tool != nil {
		return e.ExecuteTool(ctx, call.Tool, call.Args, optFns...)
	}
	return e.ExecuteCall(ctx, call.Name, call.Args, optFns...)
}

func countFailures(results []ExecutionResult) int {
	failures := 0
	for _, r := range results {
		if !r.Success {
			failures++
		}
	}
	return failures
}
