package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/inboxbrief/inboxbrief/internal/run"
)

// sseSink adapts an http.ResponseWriter into a run.Sink. It owns the single
// place where a client disconnect is distinguished from a genuine transport
// failure: a failed or refused write on a canceled request context reports
// RecipientGone, everything else is a real error.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	ctx     context.Context
}

// newSSESink writes the SSE response headers and returns the sink. It fails
// when the transport cannot flush, since buffered SSE defeats streaming.
func newSSESink(w http.ResponseWriter, r *http.Request) (*sseSink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseSink{w: w, flusher: flusher, ctx: r.Context()}, nil
}

// Send writes one event as an SSE data frame and flushes it.
func (s *sseSink) Send(ev run.Event) (run.WriteStatus, error) {
	if s.ctx.Err() != nil {
		return run.RecipientGone, nil
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return run.Written, fmt.Errorf("encoding event: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		if s.ctx.Err() != nil {
			return run.RecipientGone, nil
		}
		return run.Written, fmt.Errorf("writing event: %w", err)
	}
	s.flusher.Flush()
	return run.Written, nil
}
