package run

import "context"

// AbortCoordinator translates the inbound cancellation signal into gate
// checks. It holds no timers: it is a predicate over the request context
// plus a local terminal flag that prevents a late abort from re-triggering
// work after the run has already finished.
//
// A run is owned by a single goroutine, so the coordinator needs no locking;
// the fan-out inside the fetcher uses the context directly.
type AbortCoordinator struct {
	ctx      context.Context
	observed bool
	terminal bool
}

// NewAbortCoordinator binds a coordinator to the request's context.
func NewAbortCoordinator(ctx context.Context) *AbortCoordinator {
	return &AbortCoordinator{ctx: ctx}
}

// Aborted reports whether cancellation has been requested or the run has
// already reached a terminal state. Once true it never resets.
func (a *AbortCoordinator) Aborted() bool {
	if a.observed {
		return true
	}
	if a.terminal || a.ctx.Err() != nil {
		a.observed = true
	}
	return a.observed
}

// MarkTerminal records that the run has emitted its terminal event. Gate
// checks after this point report aborted, stopping any further work.
func (a *AbortCoordinator) MarkTerminal() {
	a.terminal = true
}
