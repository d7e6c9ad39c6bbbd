// Package execs is the only package permitted to spawn external processes.
//
// Its central type is [Bridge], which wraps a process-spawning capability and
// converts every possible failure into data: a [Result] carrying the stdout
// and stderr of the invocation. Execute never returns an error and never
// panics, so callers can treat command execution as infallible and inspect
// stderr for diagnostics.
package execs
