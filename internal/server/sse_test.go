package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxbrief/inboxbrief/internal/run"
)

func TestSSESinkWritesFrames(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/agent", nil)

	sink, err := newSSESink(rec, req)
	require.NoError(t, err)

	status, err := sink.Send(run.Event{Type: run.EventRunStarted, RunID: "r1", ThreadID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, run.Written, status)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	body := rec.Body.String()
	assert.Contains(t, body, `data: {"type":"RUN_STARTED"`)
	assert.Contains(t, body, "\n\n")
	assert.True(t, rec.Flushed)
}

func TestSSESinkClassifiesDisconnect(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/agent", nil).WithContext(ctx)

	sink, err := newSSESink(rec, req)
	require.NoError(t, err)
	cancel()

	status, err := sink.Send(run.Event{Type: run.EventRunFinished})
	require.NoError(t, err)
	assert.Equal(t, run.RecipientGone, status, "canceled request is a disconnect, not a failure")
}

type noFlushWriter struct {
	http.ResponseWriter
}

func TestSSESinkRequiresFlusher(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/agent", nil)

	_, err := newSSESink(noFlushWriter{rec}, req)
	assert.Error(t, err)
}
