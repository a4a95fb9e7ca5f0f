package run

import "encoding/json"

// EventType identifies a stream event on the wire.
type EventType string

// Stream event types, emitted in strict causal order within a run.
const (
	EventRunStarted         EventType = "RUN_STARTED"
	EventTextMessageStart   EventType = "TEXT_MESSAGE_START"
	EventTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"
	EventTextMessageEnd     EventType = "TEXT_MESSAGE_END"
	EventRunFinished        EventType = "RUN_FINISHED"
	EventRunError           EventType = "RUN_ERROR"
)

// assistantRole is the fixed role carried by TEXT_MESSAGE_START.
const assistantRole = "assistant"

// Event is a single SSE frame payload. Only the fields relevant to the
// event's type are populated; everything else is omitted from the JSON.
// Events are write-once and must not be reordered by consumers.
type Event struct {
	Type EventType `json:"type"`

	// Run lifecycle fields (RUN_STARTED, RUN_FINISHED).
	ThreadID string          `json:"threadId,omitempty"`
	RunID    string          `json:"runId,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`
	Result   any             `json:"result,omitempty"`

	// Text message fields (TEXT_MESSAGE_*).
	MessageID string `json:"messageId,omitempty"`
	Role      string `json:"role,omitempty"`
	Delta     string `json:"delta,omitempty"`

	// Error fields (RUN_ERROR).
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// IsTerminal reports whether the event ends its run.
func (e Event) IsTerminal() bool {
	return e.Type == EventRunFinished || e.Type == EventRunError
}

func runStartedEvent(rc RunContext, input json.RawMessage) Event {
	return Event{Type: EventRunStarted, ThreadID: rc.ThreadID, RunID: rc.RunID, Input: input}
}

func textStartEvent(messageID string) Event {
	return Event{Type: EventTextMessageStart, MessageID: messageID, Role: assistantRole}
}

func textContentEvent(messageID, delta string) Event {
	return Event{Type: EventTextMessageContent, MessageID: messageID, Delta: delta}
}

func textEndEvent(messageID string) Event {
	return Event{Type: EventTextMessageEnd, MessageID: messageID}
}

func runFinishedEvent(rc RunContext, result any) Event {
	return Event{Type: EventRunFinished, ThreadID: rc.ThreadID, RunID: rc.RunID, Result: result}
}

func runErrorEvent(message string, code Code) Event {
	return Event{Type: EventRunError, Message: message, Code: string(code)}
}

// WriteStatus is the two-valued outcome of handing an event to a Sink.
// The transport adapter classifies client disconnects once, at the boundary,
// so the controller never string-matches transport errors.
type WriteStatus int

const (
	// Written means the event was accepted by the transport.
	Written WriteStatus = iota

	// RecipientGone means the client is no longer connected. The run must
	// stop producing output silently; this is not a transport failure.
	RecipientGone
)

// Sink accepts stream events in emission order. Send returns RecipientGone
// when the client has disconnected, or a non-nil error for a genuine
// transport failure. Implementations must preserve enqueue order.
type Sink interface {
	Send(ev Event) (WriteStatus, error)
}
