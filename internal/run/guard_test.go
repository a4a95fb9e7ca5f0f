package run

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSink records every event it is asked to write. It can simulate a
// client that disconnects after a given number of writes, or a transport
// that fails outright.
type captureSink struct {
	events    []Event
	goneAfter int   // report RecipientGone once this many events were written; <0 disables
	failWith  error // returned for write attempts at index >= failAfter when set
	failAfter int   // first failing write attempt; zero fails every write
}

func newCaptureSink() *captureSink {
	return &captureSink{goneAfter: -1}
}

func (s *captureSink) Send(ev Event) (WriteStatus, error) {
	if s.failWith != nil && len(s.events) >= s.failAfter {
		s.events = append(s.events, ev)
		return Written, s.failWith
	}
	if s.goneAfter >= 0 && len(s.events) >= s.goneAfter {
		return RecipientGone, nil
	}
	s.events = append(s.events, ev)
	return Written, nil
}

func (s *captureSink) types() []EventType {
	types := make([]EventType, len(s.events))
	for i, ev := range s.events {
		types[i] = ev.Type
	}
	return types
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEmitter(sink Sink) (*Emitter, *AbortCoordinator) {
	abort := NewAbortCoordinator(context.Background())
	rc := NewRunContext("run-1", "thread-1")
	return NewEmitter(sink, rc, abort, testLogger()), abort
}

func TestEmitterHappyPath(t *testing.T) {
	sink := newCaptureSink()
	em, _ := testEmitter(sink)

	require.NoError(t, em.RunStarted(nil))
	_, err := em.StartText()
	require.NoError(t, err)
	require.NoError(t, em.Content("hello"))
	em.FinishIfNeeded(nil)

	assert.Equal(t, []EventType{
		EventRunStarted,
		EventTextMessageStart,
		EventTextMessageContent,
		EventTextMessageEnd,
		EventRunFinished,
	}, sink.types())
	assert.True(t, em.TerminalEmitted())
}

func TestEmitterExactlyOneTerminal(t *testing.T) {
	sink := newCaptureSink()
	em, _ := testEmitter(sink)

	em.FinishIfNeeded(nil)
	em.FinishIfNeeded(nil)
	em.ErrorIfNeeded("late failure", CodeRunFailed)

	terminal := 0
	for _, ev := range sink.events {
		if ev.IsTerminal() {
			terminal++
		}
	}
	assert.Equal(t, 1, terminal)
	assert.Equal(t, EventRunFinished, sink.events[len(sink.events)-1].Type)
}

func TestEmitterNothingAfterTerminal(t *testing.T) {
	sink := newCaptureSink()
	em, _ := testEmitter(sink)

	em.ErrorIfNeeded("boom", CodeRunFailed)
	require.NoError(t, em.RunStarted(nil))
	require.NoError(t, em.Content("stray"))
	em.FinishIfNeeded(nil)

	assert.Equal(t, []EventType{EventRunError}, sink.types())
}

func TestEmitterBalancedTextFramingOnErrorPath(t *testing.T) {
	sink := newCaptureSink()
	em, _ := testEmitter(sink)

	_, err := em.StartText()
	require.NoError(t, err)
	require.NoError(t, em.Content("partial"))
	em.ErrorIfNeeded("boom", CodeGmailFetchFailed)

	assert.Equal(t, []EventType{
		EventTextMessageStart,
		EventTextMessageContent,
		EventTextMessageEnd,
		EventRunError,
	}, sink.types())
}

func TestEmitterNoEndWithoutStart(t *testing.T) {
	sink := newCaptureSink()
	em, _ := testEmitter(sink)

	em.FinishIfNeeded(nil)

	assert.Equal(t, []EventType{EventRunFinished}, sink.types())
}

func TestEmitterRecipientGoneSilencesRun(t *testing.T) {
	sink := newCaptureSink()
	sink.goneAfter = 1
	em, abort := testEmitter(sink)

	require.NoError(t, em.RunStarted(nil))
	_, err := em.StartText()
	require.NoError(t, err)

	assert.True(t, em.RecipientGone())
	assert.True(t, abort.Aborted(), "gone recipient aborts remaining work")

	em.ErrorIfNeeded("should not surface", CodeRunFailed)
	em.FinishIfNeeded(nil)

	assert.Equal(t, []EventType{EventRunStarted}, sink.types())
	assert.False(t, em.TerminalEmitted())
}

func TestEmitterTransportFailureSurfaces(t *testing.T) {
	sink := newCaptureSink()
	sink.failWith = errors.New("pipe burst")
	em, _ := testEmitter(sink)

	err := em.RunStarted(nil)
	assert.Error(t, err)
	assert.False(t, em.RecipientGone(), "write failure is not a disconnect")
}

func TestEmitterTerminalCarriesRunContext(t *testing.T) {
	sink := newCaptureSink()
	em, _ := testEmitter(sink)

	em.FinishIfNeeded(DigestResult{ItemsSeen: 2, ItemsProcessed: 1, ItemsFailed: 1})

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, "thread-1", ev.ThreadID)
	assert.NotNil(t, ev.Result)
}
