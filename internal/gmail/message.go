package gmail

import (
	"encoding/base64"
	"mime"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// Message is the parsed representation of one Gmail message, carrying only
// what the analysis and draft stages need.
type Message struct {
	ID       string
	ThreadID string
	Subject  string
	From     string
	To       string
	Date     string
	Snippet  string
	Body     string

	// Threading headers, needed to build RFC 2822 reply drafts.
	RFCMessageID string
	References   string
}

// HeaderValue extracts a header value from a Gmail wire message.
func HeaderValue(m *gmail.Message, header string) string {
	mpart := m.Payload
	if mpart == nil {
		return ""
	}
	for _, mph := range mpart.Headers {
		if strings.EqualFold(mph.Name, header) {
			return mph.Value
		}
	}
	return ""
}

// parseMessage converts a full-format Gmail wire message into a Message.
func parseMessage(m *gmail.Message) *Message {
	return &Message{
		ID:           m.Id,
		ThreadID:     m.ThreadId,
		Subject:      HeaderValue(m, "Subject"),
		From:         HeaderValue(m, "From"),
		To:           HeaderValue(m, "To"),
		Date:         HeaderValue(m, "Date"),
		Snippet:      m.Snippet,
		Body:         plainTextBody(m.Payload),
		RFCMessageID: HeaderValue(m, "Message-ID"),
		References:   HeaderValue(m, "References"),
	}
}

// plainTextBody walks the MIME tree for the first text/plain part and
// decodes its base64url data. Multipart containers are searched depth-first;
// a message with no text part yields an empty body, not an error.
func plainTextBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if strings.HasPrefix(part.MimeType, "text/plain") && part.Body != nil && part.Body.Data != "" {
		decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(part.Body.Data, "="))
		if err != nil {
			return ""
		}
		return string(decoded)
	}
	for _, p := range part.Parts {
		if body := plainTextBody(p); body != "" {
			return body
		}
	}
	return ""
}

// encodeRFC2047 encodes a string for use in email headers according to
// RFC 2047. Necessary for non-ASCII characters (like German umlauts) in
// subjects.
func encodeRFC2047(s string) string {
	needsEncoding := false
	for _, r := range s {
		if r > 127 {
			needsEncoding = true
			break
		}
	}
	if !needsEncoding {
		return s
	}
	return mime.BEncoding.Encode("UTF-8", s)
}

// buildReplyRaw assembles an RFC 2822 reply to original with the given body
// and returns it base64url-encoded for the Gmail API's Raw field. Threading
// headers (In-Reply-To, References) are carried over so the draft lands in
// the original conversation.
func buildReplyRaw(original *Message, body string) string {
	replySubject := original.Subject
	if !strings.HasPrefix(strings.ToLower(replySubject), "re:") {
		replySubject = "Re: " + replySubject
	}

	references := original.References
	if original.RFCMessageID != "" {
		if references != "" {
			references += " " + original.RFCMessageID
		} else {
			references = original.RFCMessageID
		}
	}

	var b strings.Builder
	b.WriteString("To: ")
	b.WriteString(original.From)
	b.WriteString("\r\n")
	b.WriteString("Subject: ")
	b.WriteString(encodeRFC2047(replySubject))
	b.WriteString("\r\n")
	if original.RFCMessageID != "" {
		b.WriteString("In-Reply-To: ")
		b.WriteString(original.RFCMessageID)
		b.WriteString("\r\n")
	}
	if references != "" {
		b.WriteString("References: ")
		b.WriteString(references)
		b.WriteString("\r\n")
	}
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}
