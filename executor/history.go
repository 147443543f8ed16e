package executor

import (
	"fmt"
	"strings"
	"time"
)

// ToolStats summarizes the retained history for a single tool.
type ToolStats struct {
	// Count is the number of retained attempts for the tool.
	Count int `json:"count"`
	// SuccessRate is successes divided by Count (0 when Count is 0).
	SuccessRate float64 `json:"success_rate"`
	// AverageTime is the mean attempt duration.
	AverageTime time.Duration `json:"average_time"`
}

// Statistics aggregates the retained execution history. Entries evicted from
// the bounded history are permanently excluded.
type Statistics struct {
	TotalExecutions int                  `json:"total_executions"`
	SuccessCount    int                  `json:"success_count"`
	FailureCount    int                  `json:"failure_count"`
	AverageTime     time.Duration        `json:"average_time"`
	ByTool          map[string]ToolStats `json:"by_tool"`
}

// record appends a result and trims the oldest entries once the bound is
// exceeded (FIFO eviction).
func (e *Executor) record(res ExecutionResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = append(e.history, res)
	if excess := len(e.history) - e.historySize; excess > 0 {
		e.history = append(e.history[:0:0], e.history[excess:]...)
	}
}

// History returns a copy of the retained execution history, oldest first.
func (e *Executor) History() []ExecutionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]ExecutionResult, len(e.history))
	copy(out, e.history)
	return out
}

// ToolHistory returns the retained entries for one tool, order preserved.
func (e *Executor) ToolHistory(name string) []ExecutionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []ExecutionResult
	for _, r := range e.history {
		if r.ToolName == name {
			out = append(out, r)
		}
	}
	return out
}

// ClearHistory discards all retained entries.
func (e *Executor) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = nil
}

// Statistics computes totals, mean execution time and a per-tool breakdown
// over the retained history.
func (e *Executor) Statistics() Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := Statistics{ByTool: map[string]ToolStats{}}

	type acc struct {
		count     int
		successes int
		total     time.Duration
	}
	perTool := map[string]*acc{}

	var total time.Duration
	for _, r := range e.history {
		stats.TotalExecutions++
		if r.Success {
			stats.SuccessCount++
		} else {
			stats.FailureCount++
		}
		total += r.Duration

		a, ok := perTool[r.ToolName]
		if !ok {
			a = &acc{}
			perTool[r.ToolName] = a
		}
		a.count++
		if r.Success {
			a.successes++
		}
		a.total += r.Duration
	}

	if stats.TotalExecutions > 0 {
		stats.AverageTime = total / time.Duration(stats.TotalExecutions)
	}

	for name, a := range perTool {
		stats.ByTool[name] = ToolStats{
			Count:       a.count,
			SuccessRate: float64(a.successes) / float64(a.count),
			AverageTime: a.total / time.Duration(a.count),
		}
	}

	return stats
}

// FormatResult renders a single result as a human-readable multi-line report.
// Purely presentational; no side effects.
func FormatResult(r ExecutionResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Tool: %s\n", r.ToolName)
	if r.Success {
		b.WriteString("Status: success\n")
		fmt.Fprintf(&b, "Result: %v\n", r.Result)
	} else {
		b.WriteString("Status: failed\n")
		fmt.Fprintf(&b, "Error: %s\n", r.Error)
	}
	fmt.Fprintf(&b, "Duration: %dms", r.Duration.Milliseconds())
	if r.Attempt > 0 {
		fmt.Fprintf(&b, "\nAttempt: %d", r.Attempt+1)
	}

	return b.String()
}

// FormatResults renders a result list as a numbered multi-line report with a
// summary header.
func FormatResults(results []ExecutionResult) string {
	successes := 0
	for _, r := range results {
		if r.Success {
			successes++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Executed %d tools (%d succeeded, %d failed)\n", len(results), successes, len(results)-successes)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, indent(FormatResult(r)))
	}

	return strings.TrimRight(b.String(), "\n")
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n   ")
}
