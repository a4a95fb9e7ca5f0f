package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func wireMessage(headers map[string]string, body string) *gmail.Message {
	var hs []*gmail.MessagePartHeader
	for k, v := range headers {
		hs = append(hs, &gmail.MessagePartHeader{Name: k, Value: v})
	}
	return &gmail.Message{
		Id:       "m1",
		ThreadId: "t1",
		Snippet:  "snippet",
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers:  hs,
			Body:     &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte(body))},
		},
	}
}

func TestParseMessage(t *testing.T) {
	m := parseMessage(wireMessage(map[string]string{
		"Subject":    "Quarterly numbers",
		"From":       "alice@example.com",
		"To":         "me@example.com",
		"Message-ID": "<abc@example.com>",
		"References": "<prior@example.com>",
	}, "please review by Friday"))

	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "t1", m.ThreadID)
	assert.Equal(t, "Quarterly numbers", m.Subject)
	assert.Equal(t, "alice@example.com", m.From)
	assert.Equal(t, "please review by Friday", m.Body)
	assert.Equal(t, "<abc@example.com>", m.RFCMessageID)
	assert.Equal(t, "<prior@example.com>", m.References)
}

func TestPlainTextBodyNestedMultipart(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte("<b>hi</b>"))}},
			{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte("hi there"))}},
				},
			},
		},
	}
	assert.Equal(t, "hi there", plainTextBody(payload))
}

func TestPlainTextBodyMissing(t *testing.T) {
	assert.Equal(t, "", plainTextBody(nil))
	assert.Equal(t, "", plainTextBody(&gmail.MessagePart{MimeType: "text/html"}))
}

func TestHeaderValueCaseInsensitive(t *testing.T) {
	m := wireMessage(map[string]string{"subject": "lower"}, "")
	assert.Equal(t, "lower", HeaderValue(m, "Subject"))
	assert.Equal(t, "", HeaderValue(&gmail.Message{}, "Subject"))
}

func TestEncodeRFC2047(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		encoded bool
	}{
		{name: "plain ascii untouched", input: "Re: meeting notes", encoded: false},
		{name: "umlauts encoded", input: "Grüße aus München", encoded: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encodeRFC2047(tt.input)
			if tt.encoded {
				assert.True(t, strings.HasPrefix(got, "=?UTF-8?"), "expected encoded-word, got %q", got)
			} else {
				assert.Equal(t, tt.input, got)
			}
		})
	}
}

func TestBuildReplyRaw(t *testing.T) {
	original := &Message{
		ID:           "m1",
		ThreadID:     "t1",
		Subject:      "Quarterly numbers",
		From:         "alice@example.com",
		RFCMessageID: "<abc@example.com>",
		References:   "<prior@example.com>",
	}

	raw := buildReplyRaw(original, "Thanks, will do.")
	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)
	text := string(decoded)

	assert.Contains(t, text, "To: alice@example.com\r\n")
	assert.Contains(t, text, "Subject: Re: Quarterly numbers\r\n")
	assert.Contains(t, text, "In-Reply-To: <abc@example.com>\r\n")
	assert.Contains(t, text, "References: <prior@example.com> <abc@example.com>\r\n")
	assert.True(t, strings.HasSuffix(text, "\r\n\r\nThanks, will do."))
}

func TestBuildReplyRawExistingRePrefix(t *testing.T) {
	original := &Message{
		ID:      "m1",
		Subject: "Re: already a reply",
		From:    "bob@example.com",
	}

	raw := buildReplyRaw(original, "ok")
	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)

	assert.Contains(t, string(decoded), "Subject: Re: already a reply\r\n")
	assert.NotContains(t, string(decoded), "Re: Re:")
}
