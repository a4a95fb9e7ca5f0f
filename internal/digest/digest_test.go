package digest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxbrief/inboxbrief/internal/gmail"
	"github.com/inboxbrief/inboxbrief/internal/llm"
)

func analyzed(id, subject, from string, urgency llm.Urgency, category llm.Category) llm.AnalyzedMessage {
	return llm.AnalyzedMessage{
		Message: &gmail.Message{ID: id, Subject: subject, From: from},
		Insight: &llm.Insight{Urgency: urgency, Category: category, Summary: "summary of " + id},
	}
}

func TestRankOrdersByUrgencyThenCategory(t *testing.T) {
	items := []llm.AnalyzedMessage{
		analyzed("a", "Newsletter", "news@example.com", llm.UrgencyLow, llm.CategoryNewsletter),
		analyzed("b", "Need sign-off", "boss@example.com", llm.UrgencyHigh, llm.CategoryActionRequired),
		analyzed("c", "Lunch?", "pal@example.com", llm.UrgencyMedium, llm.CategoryScheduling),
		analyzed("d", "Quick question", "peer@example.com", llm.UrgencyHigh, llm.CategoryQuestion),
	}

	ranked := Rank(items)

	ids := make([]string, len(ranked))
	for i, item := range ranked {
		ids[i] = item.Message.ID
	}
	assert.Equal(t, []string{"b", "d", "c", "a"}, ids)
}

func TestRankIsStableAndNonDestructive(t *testing.T) {
	items := []llm.AnalyzedMessage{
		analyzed("first", "One", "a@example.com", llm.UrgencyHigh, llm.CategoryQuestion),
		analyzed("second", "Two", "b@example.com", llm.UrgencyHigh, llm.CategoryQuestion),
	}

	ranked := Rank(items)

	assert.Equal(t, "first", ranked[0].Message.ID, "equal priority keeps inbox order")
	assert.Equal(t, "second", ranked[1].Message.ID)
	assert.Equal(t, "first", items[0].Message.ID, "input slice unchanged")
}

func TestRankSinksFailedAnalyses(t *testing.T) {
	items := []llm.AnalyzedMessage{
		{Message: &gmail.Message{ID: "broken", Subject: "???"}},
		analyzed("ok", "Fine", "a@example.com", llm.UrgencyLow, llm.CategoryFYI),
	}

	ranked := Rank(items)

	assert.Equal(t, "ok", ranked[0].Message.ID)
	assert.Nil(t, ranked[1].Insight)
}

func TestRenderMarkdown(t *testing.T) {
	items := Rank([]llm.AnalyzedMessage{
		analyzed("a", "Need sign-off", "boss@example.com", llm.UrgencyHigh, llm.CategoryActionRequired),
		{Message: &gmail.Message{ID: "broken", Subject: "Mystery", From: "x@example.com"}},
	})

	out := RenderMarkdown(items)

	assert.Contains(t, out, "# Inbox Digest (2 unread)")
	assert.Contains(t, out, "## 1. Need sign-off")
	assert.Contains(t, out, "**Urgency:** High | **Category:** Action required")
	assert.Contains(t, out, "## Not analyzed (1)")
	assert.Contains(t, out, "Mystery (from x@example.com)")
	require.True(t, strings.Index(out, "Need sign-off") < strings.Index(out, "Mystery"))
}

func TestRenderMarkdownEmpty(t *testing.T) {
	assert.Equal(t, EmptyNotice, RenderMarkdown(nil))
}

func TestRenderMarkdownNoSubject(t *testing.T) {
	items := []llm.AnalyzedMessage{
		analyzed("a", "  ", "a@example.com", llm.UrgencyLow, llm.CategoryFYI),
	}
	assert.Contains(t, RenderMarkdown(items), "(no subject)")
}

func TestRenderOverview(t *testing.T) {
	items := []llm.AnalyzedMessage{
		analyzed("a", "Need sign-off", "boss@example.com", llm.UrgencyHigh, llm.CategoryActionRequired),
	}
	items[0].Insight.SuggestedAction = "Reply today"

	out := RenderOverview(items)

	assert.Contains(t, out, "1 unread emails, most urgent first:")
	assert.Contains(t, out, "[High/Action required] from boss@example.com: summary of a")
	assert.Contains(t, out, "(suggested: Reply today)")
	assert.NotContains(t, out, "#", "overview carries no markdown")
}
