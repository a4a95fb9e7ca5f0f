package run

import (
	"strings"

	"github.com/google/uuid"
)

// RunContext identifies one run on the wire. It is created once per request
// and never mutated afterwards.
type RunContext struct {
	RunID    string
	ThreadID string
}

// NewRunContext builds a RunContext from caller-supplied identifiers.
// Values are trimmed; blank values are replaced with generated UUIDs so a
// run always has stable, non-empty identifiers.
func NewRunContext(runID, threadID string) RunContext {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		runID = uuid.NewString()
	}
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		threadID = uuid.NewString()
	}
	return RunContext{RunID: runID, ThreadID: threadID}
}

// Outcome aggregates counters over one run. It is mutated only by the
// controller's own stages and read once at run end, for logging and for the
// terminal result payload of narrative and draft-reply runs.
type Outcome struct {
	ItemsSeen      int
	ItemsProcessed int
	ItemsFailed    int
	Aborted        bool
}

// DigestResult is the RUN_FINISHED result payload for narrative runs.
type DigestResult struct {
	ItemsSeen      int  `json:"itemsSeen"`
	ItemsProcessed int  `json:"itemsProcessed"`
	ItemsFailed    int  `json:"itemsFailed"`
	Aborted        bool `json:"aborted"`
}

// DraftResult is the RUN_FINISHED result payload for draft-reply runs.
type DraftResult struct {
	DraftID   string `json:"draftId"`
	MessageID string `json:"messageId"`
}

func (o Outcome) digestResult() DigestResult {
	return DigestResult{
		ItemsSeen:      o.ItemsSeen,
		ItemsProcessed: o.ItemsProcessed,
		ItemsFailed:    o.ItemsFailed,
		Aborted:        o.Aborted,
	}
}
