package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/inboxbrief/inboxbrief/internal/gmail"
	"github.com/inboxbrief/inboxbrief/internal/instrumentation"
)

// maxBodyChars caps how much of an email body is sent per prompt. Long
// newsletters blow past context windows without adding signal.
const maxBodyChars = 4000

const analyzeSystemPrompt = `You are an email triage assistant. Given one email, respond with a single JSON object and nothing else:
{"category":"action_required|question|scheduling|fyi|newsletter|other","urgency":"high|medium|low","summary":"<one sentence>","suggestedAction":"<short imperative, or empty string>"}`

const draftSystemPrompt = `You are drafting an email reply on behalf of the recipient of the last message in the thread below. Write only the reply body: plain text, matching the tone of the thread, no subject line, no signature placeholders.`

const narrateSystemPrompt = `You are a personal email briefing assistant. Rewrite the structured inbox overview below as two or three short paragraphs of flowing prose, most urgent items first. Do not use bullet points or headings.`

// Options configure the OpenAI analyzer. Fields mirror a subset of Chat
// Completion parameters.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// OpenAI implements Analyzer using the OpenAI Chat Completions API.
type OpenAI struct {
	client  *openai.Client
	opts    Options
	metrics *instrumentation.Metrics
}

// NewOpenAI creates an analyzer using the given API key. An empty key falls
// back to the client's environment-based configuration.
func NewOpenAI(apiKey string, metrics *instrumentation.Metrics, optFns ...func(o *Options)) *OpenAI {
	var client openai.Client
	if apiKey != "" {
		client = openai.NewClient(option.WithAPIKey(apiKey))
	} else {
		client = openai.NewClient()
	}
	return NewOpenAIFromClient(&client, metrics, optFns...)
}

// NewOpenAIFromClient creates an analyzer from an existing client.
func NewOpenAIFromClient(client *openai.Client, metrics *instrumentation.Metrics, optFns ...func(o *Options)) *OpenAI {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.3,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &OpenAI{client: client, opts: opts, metrics: metrics}
}

// AnalyzeMessage classifies and summarizes a single email.
func (a *OpenAI) AnalyzeMessage(ctx context.Context, msg *gmail.Message) (*Insight, error) {
	raw, err := a.complete(ctx, instrumentation.OperationAnalyze, analyzeSystemPrompt, formatMessage(msg))
	if err != nil {
		return nil, err
	}
	insight, err := parseInsight(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing analysis response: %w", err)
	}
	return insight, nil
}

// DraftReply writes a reply to the newest message of the thread.
func (a *OpenAI) DraftReply(ctx context.Context, thread []*gmail.Message) (*Draft, error) {
	if len(thread) == 0 {
		return nil, fmt.Errorf("empty thread")
	}
	var b strings.Builder
	for i, msg := range thread {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(formatMessage(msg))
	}
	body, err := a.complete(ctx, instrumentation.OperationDraft, draftSystemPrompt, b.String())
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("model returned an empty reply")
	}
	return &Draft{Body: body}, nil
}

// Narrate turns a structured overview into prose.
func (a *OpenAI) Narrate(ctx context.Context, overview string) (string, error) {
	text, err := a.complete(ctx, instrumentation.OperationNarrate, narrateSystemPrompt, overview)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// complete issues one non-streaming chat completion and returns the text of
// the first choice.
func (a *OpenAI) complete(ctx context.Context, operation, system, user string) (string, error) {
	ctx, span := instrumentation.StartCollaboratorSpan(ctx, "openai", operation)
	defer span.End()

	start := time.Now()
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:               a.opts.Model,
		Temperature:         openai.Float(a.opts.Temperature),
		MaxCompletionTokens: openai.Int(a.opts.MaxCompletionTokens),
	})
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	if a.metrics != nil {
		a.metrics.RecordLLMCall(ctx, operation, status, time.Since(start))
	}
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		instrumentation.SetSpanError(span, fmt.Errorf("no choices returned"))
		return "", fmt.Errorf("no choices returned")
	}
	instrumentation.SetSpanSuccess(span)
	return resp.Choices[0].Message.Content, nil
}

// formatMessage renders an email for a prompt, truncating oversized bodies.
func formatMessage(msg *gmail.Message) string {
	body := msg.Body
	if body == "" {
		body = msg.Snippet
	}
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars] + "\n[truncated]"
	}
	return fmt.Sprintf("From: %s\nTo: %s\nDate: %s\nSubject: %s\n\n%s",
		msg.From, msg.To, msg.Date, msg.Subject, body)
}

// parseInsight decodes the model's JSON answer, tolerating surrounding prose
// and markdown fences, and normalizes out-of-vocabulary values.
func parseInsight(raw string) (*Insight, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}
	var insight Insight
	if err := json.Unmarshal([]byte(raw[start:end+1]), &insight); err != nil {
		return nil, err
	}
	insight.Category = normalizeCategory(insight.Category)
	insight.Urgency = normalizeUrgency(insight.Urgency)
	insight.Summary = strings.TrimSpace(insight.Summary)
	insight.SuggestedAction = strings.TrimSpace(insight.SuggestedAction)
	if insight.Summary == "" {
		return nil, fmt.Errorf("response missing summary")
	}
	return &insight, nil
}

func normalizeCategory(c Category) Category {
	switch Category(strings.ToLower(strings.TrimSpace(string(c)))) {
	case CategoryActionRequired:
		return CategoryActionRequired
	case CategoryQuestion:
		return CategoryQuestion
	case CategoryScheduling:
		return CategoryScheduling
	case CategoryFYI:
		return CategoryFYI
	case CategoryNewsletter:
		return CategoryNewsletter
	default:
		return CategoryOther
	}
}

func normalizeUrgency(u Urgency) Urgency {
	switch Urgency(strings.ToLower(strings.TrimSpace(string(u)))) {
	case UrgencyHigh:
		return UrgencyHigh
	case UrgencyMedium:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
