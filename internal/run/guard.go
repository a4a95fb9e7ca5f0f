package run

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/inboxbrief/inboxbrief/internal/logging"
)

// Emitter is the terminal event guard. Every stream event of a run flows
// through it, which makes "exactly one terminal event, and nothing after it"
// mechanically enforceable instead of a call-site convention.
//
// The guard additionally balances text framing: if TEXT_MESSAGE_START was
// written, TEXT_MESSAGE_END is written before the terminal event, even on
// the error path.
type Emitter struct {
	sink   Sink
	rc     RunContext
	abort  *AbortCoordinator
	logger *slog.Logger

	messageID       string
	textStarted     bool
	textEnded       bool
	terminalEmitted bool
	recipientGone   bool
}

// NewEmitter wires a guard to the run's sink and abort coordinator.
func NewEmitter(sink Sink, rc RunContext, abort *AbortCoordinator, logger *slog.Logger) *Emitter {
	return &Emitter{sink: sink, rc: rc, abort: abort, logger: logger}
}

// RecipientGone reports whether the client disconnected mid-stream. A gone
// recipient silences all further output; the run outcome is logged as
// aborted and no RUN_ERROR is emitted, since nobody is left to receive it.
func (e *Emitter) RecipientGone() bool { return e.recipientGone }

// TerminalEmitted reports whether RUN_FINISHED or RUN_ERROR has been sent.
func (e *Emitter) TerminalEmitted() bool { return e.terminalEmitted }

// send is the single write path. It refuses to write after the terminal
// event or after the recipient is known to be gone, and classifies the
// sink's verdict.
func (e *Emitter) send(ev Event) error {
	if e.terminalEmitted || e.recipientGone {
		return nil
	}
	status, err := e.sink.Send(ev)
	if err != nil {
		e.logger.Warn("stream write failed",
			slog.String(logging.KeyRunID, e.rc.RunID),
			slog.String("event", string(ev.Type)),
			logging.Err(err))
		return err
	}
	if status == RecipientGone {
		e.recipientGone = true
		e.abort.MarkTerminal()
		return nil
	}
	if ev.IsTerminal() {
		e.terminalEmitted = true
		e.abort.MarkTerminal()
	}
	return nil
}

// RunStarted emits RUN_STARTED, optionally echoing the effective input.
func (e *Emitter) RunStarted(input json.RawMessage) error {
	return e.send(runStartedEvent(e.rc, input))
}

// StartText opens the run's text message and returns its id. textStarted is
// recorded only when the start frame was actually written, so a failed
// enqueue never leaves the guard owing an end frame.
func (e *Emitter) StartText() (string, error) {
	id := uuid.NewString()
	if err := e.send(textStartEvent(id)); err != nil {
		return "", err
	}
	if !e.terminalEmitted && !e.recipientGone {
		e.messageID = id
		e.textStarted = true
	}
	return id, nil
}

// Content emits a TEXT_MESSAGE_CONTENT delta for the open text message.
func (e *Emitter) Content(delta string) error {
	if !e.textStarted || e.textEnded {
		return nil
	}
	return e.send(textContentEvent(e.messageID, delta))
}

// endTextIfNeeded closes the text message exactly once, if it was opened.
func (e *Emitter) endTextIfNeeded() {
	if !e.textStarted || e.textEnded {
		return
	}
	e.textEnded = true
	_ = e.send(textEndEvent(e.messageID))
}

// FinishIfNeeded emits RUN_FINISHED unless a terminal event was already
// sent. Idempotent: a second call is a silent no-op.
func (e *Emitter) FinishIfNeeded(result any) {
	if e.terminalEmitted || e.recipientGone {
		return
	}
	e.endTextIfNeeded()
	_ = e.send(runFinishedEvent(e.rc, result))
}

// ErrorIfNeeded emits RUN_ERROR unless a terminal event was already sent.
// Idempotent, and a silent no-op when the recipient is gone.
func (e *Emitter) ErrorIfNeeded(message string, code Code) {
	if e.terminalEmitted || e.recipientGone {
		return
	}
	e.endTextIfNeeded()
	_ = e.send(runErrorEvent(message, code))
}
