// Package run implements the per-request run lifecycle: the state machine
// that drives a single SSE response from RUN_STARTED to exactly one terminal
// event.
//
// A run is one HTTP request. The Controller composes the pieces:
//
//   - Fetcher retrieves message details under a concurrency cap while
//     preserving listing order.
//   - The pipeline analyzes fetched messages sequentially, tolerating and
//     counting per-item failures.
//   - The AbortCoordinator turns the request's cancellation signal into gate
//     checks at loop boundaries and before side-effecting calls.
//   - The Emitter enforces the stream protocol: at most one RUN_FINISHED or
//     RUN_ERROR per run, nothing after it, and balanced text framing.
//   - The SideEffectGuard makes the Gmail draft-create call at-most-once and
//     never after an observed abort.
//
// Digest runs (insight and narrative) treat abort as advisory: the item loop
// stops, whatever was gathered is formatted, and the run finishes normally.
// Draft-reply runs treat abort as fatal: once validation has passed, an
// observed abort terminates the run with a request_aborted error and the
// draft is never saved.
package run
