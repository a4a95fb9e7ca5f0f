package run

// SideEffectGuard is the one-shot gate around the Gmail draft-create call.
// It guarantees the mutating call executes at most once per run and never
// after an abort has been observed. Created at run start, consumed exactly
// once on the success path.
type SideEffectGuard struct {
	abort    *AbortCoordinator
	consumed bool
}

// NewSideEffectGuard binds the guard to the run's abort coordinator.
func NewSideEffectGuard(abort *AbortCoordinator) *SideEffectGuard {
	return &SideEffectGuard{abort: abort}
}

// Consumed reports whether the guarded call has been attempted.
func (g *SideEffectGuard) Consumed() bool { return g.consumed }

// Execute runs the side-effecting call behind the gate. The abort check
// happens immediately before invocation, after every earlier awaited call
// has returned, so a cancellation that fired during draft generation still
// prevents the save. The guard is consumed by the attempt itself: a failed
// save is never retried within the run.
func (g *SideEffectGuard) Execute(fn func() (string, error)) (string, error) {
	if g.abort.Aborted() {
		return "", Errf(CodeRequestAborted, "request aborted before draft save")
	}
	if g.consumed {
		return "", Errf(CodeDraftSaveFailed, "draft save already attempted for this run")
	}
	g.consumed = true
	id, err := fn()
	if err != nil {
		return "", WrapErr(CodeDraftSaveFailed, err, "failed to save draft")
	}
	return id, nil
}
