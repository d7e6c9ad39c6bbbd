// Package extension tracks the install status of the CLI extension required
// before manifests may be applied.
//
// The [Manager] is a small lifecycle state machine: Unchecked, Checking,
// Installed, NotInstalled, and Installing. Every collaborator failure is
// converted into the status error field, never surfaced as a fault.
// Overlapping check/install operations are rejected with
// [ErrOperationInFlight] instead of being allowed to interleave.
package extension
