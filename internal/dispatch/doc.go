// Package dispatch routes named tasks to a remote executor or to the local
// task registry. Remote calls are bounded by a context deadline; any
// transport failure, including the deadline firing, falls back to running
// the task locally. Dispatch never returns an error: every outcome is
// reported in a Result.
package dispatch
