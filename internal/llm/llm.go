package llm

import (
	"context"

	"github.com/inboxbrief/inboxbrief/internal/gmail"
)

// Category classifies what kind of attention an email calls for.
type Category string

const (
	CategoryActionRequired Category = "action_required"
	CategoryQuestion       Category = "question"
	CategoryScheduling     Category = "scheduling"
	CategoryFYI            Category = "fyi"
	CategoryNewsletter     Category = "newsletter"
	CategoryOther          Category = "other"
)

// Urgency grades how soon an email needs a response.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// Insight is the structured analysis of a single email.
type Insight struct {
	Category        Category `json:"category"`
	Urgency         Urgency  `json:"urgency"`
	Summary         string   `json:"summary"`
	SuggestedAction string   `json:"suggestedAction,omitempty"`
}

// Draft is a generated reply body for a thread.
type Draft struct {
	Body string `json:"body"`
}

// AnalyzedMessage pairs an email with its insight. Insight is nil when
// analysis failed for that message and the digest degrades gracefully.
type AnalyzedMessage struct {
	Message *gmail.Message
	Insight *Insight
}

// Analyzer produces insights, reply drafts and narrative summaries.
// Implementations must be safe for concurrent use.
type Analyzer interface {
	// AnalyzeMessage classifies a single email and summarizes it.
	AnalyzeMessage(ctx context.Context, msg *gmail.Message) (*Insight, error)

	// DraftReply writes a reply to the last message of the given thread,
	// using the earlier messages as conversational context. The thread is
	// ordered oldest first and must not be empty.
	DraftReply(ctx context.Context, thread []*gmail.Message) (*Draft, error)

	// Narrate turns a structured inbox overview into flowing prose.
	Narrate(ctx context.Context, overview string) (string, error)
}
