// Package executor runs tool invocations with per-attempt timeout enforcement,
// retry with delay, bounded-concurrency batch execution and a bounded history
// of outcomes from which aggregate statistics are derived.
//
// Failure handling follows one rule: a tool's failure never escapes as a Go
// error from ExecuteTool, ExecuteTools or ExecuteToolsSequential. Every
// attempt (including each retry) is converted into an ExecutionResult and
// appended to history; callers inspect the returned result for the final
// outcome and the history for forensic detail.
package executor
