package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxbrief/inboxbrief/internal/gmail"
)

func TestParseInsight(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *Insight
		wantErr bool
	}{
		{
			name: "plain JSON",
			raw:  `{"category":"action_required","urgency":"high","summary":"Boss needs the report.","suggestedAction":"Send the report"}`,
			want: &Insight{
				Category:        CategoryActionRequired,
				Urgency:         UrgencyHigh,
				Summary:         "Boss needs the report.",
				SuggestedAction: "Send the report",
			},
		},
		{
			name: "markdown fenced",
			raw:  "```json\n{\"category\":\"fyi\",\"urgency\":\"low\",\"summary\":\"Build passed.\"}\n```",
			want: &Insight{
				Category: CategoryFYI,
				Urgency:  UrgencyLow,
				Summary:  "Build passed.",
			},
		},
		{
			name: "surrounding prose",
			raw:  `Here is the analysis: {"category":"question","urgency":"medium","summary":"Asks about availability."} Hope that helps!`,
			want: &Insight{
				Category: CategoryQuestion,
				Urgency:  UrgencyMedium,
				Summary:  "Asks about availability.",
			},
		},
		{
			name: "unknown values normalized",
			raw:  `{"category":"SPAM","urgency":"critical","summary":"Lottery winnings."}`,
			want: &Insight{
				Category: CategoryOther,
				Urgency:  UrgencyLow,
				Summary:  "Lottery winnings.",
			},
		},
		{
			name:    "no JSON object",
			raw:     "I could not analyze this email.",
			wantErr: true,
		},
		{
			name:    "missing summary",
			raw:     `{"category":"fyi","urgency":"low","summary":"  "}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseInsight(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMessageTruncatesBody(t *testing.T) {
	msg := &gmail.Message{
		From:    "alice@example.com",
		To:      "bob@example.com",
		Subject: "Quarterly numbers",
		Body:    strings.Repeat("x", maxBodyChars+100),
	}

	out := formatMessage(msg)
	assert.Contains(t, out, "Subject: Quarterly numbers")
	assert.Contains(t, out, "[truncated]")
	assert.Less(t, len(out), maxBodyChars+300)
}

func TestFormatMessageFallsBackToSnippet(t *testing.T) {
	msg := &gmail.Message{
		From:    "alice@example.com",
		Subject: "Ping",
		Snippet: "are you around?",
	}

	out := formatMessage(msg)
	assert.Contains(t, out, "are you around?")
}

func TestNewOpenAIDefaults(t *testing.T) {
	a := NewOpenAI("test-key", nil)
	assert.NotNil(t, a.client)
	assert.NotZero(t, a.opts.MaxCompletionTokens)

	custom := NewOpenAI("test-key", nil, func(o *Options) {
		o.Model = "gpt-4o"
		o.Temperature = 0
	})
	assert.Equal(t, "gpt-4o", custom.opts.Model)
	assert.Zero(t, custom.opts.Temperature)
}
