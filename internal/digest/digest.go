package digest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/inboxbrief/inboxbrief/internal/llm"
)

// EmptyNotice is returned when there is nothing unread to report on.
const EmptyNotice = "No unread emails. You're all caught up."

// urgencyRank orders urgencies most pressing first. Unknown values rank last.
func urgencyRank(u llm.Urgency) int {
	switch u {
	case llm.UrgencyHigh:
		return 0
	case llm.UrgencyMedium:
		return 1
	case llm.UrgencyLow:
		return 2
	default:
		return 3
	}
}

// categoryRank breaks urgency ties: things asking for a response come before
// things that only inform. Unknown values rank last.
func categoryRank(c llm.Category) int {
	switch c {
	case llm.CategoryActionRequired:
		return 0
	case llm.CategoryQuestion:
		return 1
	case llm.CategoryScheduling:
		return 2
	case llm.CategoryFYI:
		return 3
	case llm.CategoryNewsletter:
		return 4
	case llm.CategoryOther:
		return 5
	default:
		return 6
	}
}

// Rank sorts analyzed messages by priority, highest first. Messages whose
// analysis failed (nil insight) sink to the bottom. The sort is stable, so
// equal-priority messages keep their inbox order.
func Rank(items []llm.AnalyzedMessage) []llm.AnalyzedMessage {
	ranked := make([]llm.AnalyzedMessage, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Insight, ranked[j].Insight
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		if ur := urgencyRank(a.Urgency) - urgencyRank(b.Urgency); ur != 0 {
			return ur < 0
		}
		return categoryRank(a.Category) < categoryRank(b.Category)
	})
	return ranked
}

func urgencyLabel(u llm.Urgency) string {
	switch u {
	case llm.UrgencyHigh:
		return "High"
	case llm.UrgencyMedium:
		return "Medium"
	default:
		return "Low"
	}
}

func categoryLabel(c llm.Category) string {
	switch c {
	case llm.CategoryActionRequired:
		return "Action required"
	case llm.CategoryQuestion:
		return "Question"
	case llm.CategoryScheduling:
		return "Scheduling"
	case llm.CategoryFYI:
		return "FYI"
	case llm.CategoryNewsletter:
		return "Newsletter"
	default:
		return "Other"
	}
}

// RenderMarkdown produces the digest shown to the user. Items are expected
// to be ranked already. Messages without an insight are listed at the end
// under a degraded section so nothing silently disappears.
func RenderMarkdown(items []llm.AnalyzedMessage) string {
	if len(items) == 0 {
		return EmptyNotice
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Inbox Digest (%d unread)\n", len(items)))

	var failed []llm.AnalyzedMessage
	n := 0
	for _, item := range items {
		if item.Insight == nil {
			failed = append(failed, item)
			continue
		}
		n++
		in := item.Insight
		b.WriteString(fmt.Sprintf("\n## %d. %s\n", n, headline(item)))
		b.WriteString(fmt.Sprintf("- **From:** %s\n", item.Message.From))
		b.WriteString(fmt.Sprintf("- **Urgency:** %s | **Category:** %s\n", urgencyLabel(in.Urgency), categoryLabel(in.Category)))
		b.WriteString(fmt.Sprintf("- %s\n", in.Summary))
		if in.SuggestedAction != "" {
			b.WriteString(fmt.Sprintf("- **Suggested:** %s\n", in.SuggestedAction))
		}
	}

	if len(failed) > 0 {
		b.WriteString(fmt.Sprintf("\n## Not analyzed (%d)\n", len(failed)))
		b.WriteString("Analysis failed for these messages; check them manually.\n")
		for _, item := range failed {
			b.WriteString(fmt.Sprintf("- %s (from %s)\n", headline(item), item.Message.From))
		}
	}

	return b.String()
}

// RenderOverview produces the plain structured summary fed to the narrator.
// It carries the same ranking but no Markdown decoration.
func RenderOverview(items []llm.AnalyzedMessage) string {
	if len(items) == 0 {
		return EmptyNotice
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d unread emails, most urgent first:\n", len(items)))
	for i, item := range items {
		if item.Insight == nil {
			b.WriteString(fmt.Sprintf("%d. [not analyzed] %s from %s\n", i+1, headline(item), item.Message.From))
			continue
		}
		in := item.Insight
		b.WriteString(fmt.Sprintf("%d. [%s/%s] from %s: %s", i+1, urgencyLabel(in.Urgency), categoryLabel(in.Category), item.Message.From, in.Summary))
		if in.SuggestedAction != "" {
			b.WriteString(fmt.Sprintf(" (suggested: %s)", in.SuggestedAction))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func headline(item llm.AnalyzedMessage) string {
	if s := strings.TrimSpace(item.Message.Subject); s != "" {
		return s
	}
	return "(no subject)"
}
