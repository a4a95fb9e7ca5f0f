package run

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/inboxbrief/inboxbrief/internal/digest"
	"github.com/inboxbrief/inboxbrief/internal/gmail"
	"github.com/inboxbrief/inboxbrief/internal/instrumentation"
	"github.com/inboxbrief/inboxbrief/internal/llm"
	"github.com/inboxbrief/inboxbrief/internal/logging"
)

// Shape selects the run variant. Digest shapes tolerate per-item failure and
// mid-run aborts; the draft-reply shape treats an observed abort as fatal
// because it ends in a Gmail mutation.
type Shape string

const (
	ShapeAgent      Shape = "agent"
	ShapeNarrative  Shape = "narrative"
	ShapeDraftReply Shape = "draft_reply"
)

const (
	// DefaultMaxItems bounds how many unread messages one digest run fetches.
	DefaultMaxItems = 10

	// DefaultQuery selects the messages a digest run considers.
	DefaultQuery = "is:unread in:inbox"

	// maxItemsCeiling caps caller-supplied maxItems values.
	maxItemsCeiling = 50
)

// Source is the email collaborator consumed by the controller.
// *gmail.Client implements it.
type Source interface {
	ListUnread(ctx context.Context, query string, max int64) ([]string, error)
	GetMessage(ctx context.Context, id string) (*gmail.Message, error)
	GetThread(ctx context.Context, threadID string) ([]*gmail.Message, error)
	CreateReplyDraft(ctx context.Context, original *gmail.Message, body string) (string, error)
}

// Config tunes per-run limits. Zero values fall back to defaults. Account
// only feeds the optional detailed metrics label, never logs.
type Config struct {
	FetchConcurrency int
	MaxItems         int
	Query            string
	Account          string
}

// Controller drives one request from RUN_STARTED to exactly one terminal
// event. It is stateless across runs and safe for concurrent use; all
// per-run state lives in a RunState owned by the calling goroutine.
type Controller struct {
	source   Source
	analyzer llm.Analyzer
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	cfg      Config
}

// NewController wires the controller to its collaborators.
func NewController(source Source, analyzer llm.Analyzer, logger *slog.Logger, metrics *instrumentation.Metrics, cfg Config) *Controller {
	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = DefaultFetchConcurrency
	}
	if cfg.MaxItems < 1 {
		cfg.MaxItems = DefaultMaxItems
	}
	if cfg.Query == "" {
		cfg.Query = DefaultQuery
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{source: source, analyzer: analyzer, logger: logger, metrics: metrics, cfg: cfg}
}

// RunState carries everything one run owns: identity, gates, the emitter and
// the outcome counters. It is created by begin, threaded through the stages,
// and read once at run end.
type RunState struct {
	ctx     context.Context
	span    trace.Span
	rc      RunContext
	shape   Shape
	abort   *AbortCoordinator
	emitter *Emitter
	logger  *slog.Logger
	outcome Outcome
	start   time.Time
}

func (c *Controller) begin(ctx context.Context, shape Shape, sink Sink, requestID, runID, threadID string) *RunState {
	rc := NewRunContext(runID, threadID)
	ctx, span := instrumentation.StartRunSpan(ctx, string(shape), rc.RunID)
	logger := logging.WithShape(logging.WithRun(c.logger, rc.RunID, rc.ThreadID), string(shape))
	if requestID != "" {
		logger = logger.With(slog.String(logging.KeyRequestID, requestID))
	}
	if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
		logger = logger.With(slog.String(logging.KeyTraceID, traceID))
	}
	abort := NewAbortCoordinator(ctx)
	st := &RunState{
		ctx:     ctx,
		span:    span,
		rc:      rc,
		shape:   shape,
		abort:   abort,
		emitter: NewEmitter(sink, rc, abort, logger),
		logger:  logger,
		start:   time.Now(),
	}
	st.logger.Info("run started")
	return st
}

// complete ends the run on the success path. A gone recipient downgrades the
// outcome to aborted in logs and metrics; the emitter already suppresses the
// terminal event in that case.
func (c *Controller) complete(st *RunState, result any) {
	st.outcome.Aborted = st.outcome.Aborted || st.emitter.RecipientGone()
	st.emitter.FinishIfNeeded(result)
	instrumentation.SetSpanSuccess(st.span)

	status := logging.StatusSuccess
	if st.emitter.RecipientGone() {
		status = logging.StatusAborted
	}
	c.metrics.RecordRunWithAccount(st.ctx, string(st.shape), status, c.cfg.Account, time.Since(st.start), st.outcome.ItemsProcessed, st.outcome.ItemsFailed)
	st.logger.Info("run completed",
		logging.Status(status),
		logging.Duration(time.Since(st.start)),
		slog.Int(logging.KeyItemsSeen, st.outcome.ItemsSeen),
		slog.Int(logging.KeyItemsProcessed, st.outcome.ItemsProcessed),
		slog.Int(logging.KeyItemsFailed, st.outcome.ItemsFailed),
		slog.Bool(logging.KeyAborted, st.outcome.Aborted))
}

// fail ends the run on the error path with a classified RUN_ERROR. In the
// draft-reply shape an observed abort takes precedence over whatever error
// the interrupted collaborator returned.
func (c *Controller) fail(st *RunState, err error) {
	re := Classify(err)
	if st.shape == ShapeDraftReply && re.Code != CodeRequestAborted && st.abort.Aborted() && !st.emitter.RecipientGone() {
		re = WrapErr(CodeRequestAborted, err, "request aborted")
	}
	st.outcome.Aborted = st.outcome.Aborted || st.abort.Aborted()
	st.emitter.ErrorIfNeeded(re.Message, re.Code)
	instrumentation.SetSpanError(st.span, re)

	c.metrics.RecordRunWithAccount(st.ctx, string(st.shape), logging.StatusError, c.cfg.Account, time.Since(st.start), st.outcome.ItemsProcessed, st.outcome.ItemsFailed)
	st.logger.Error("run failed",
		logging.Status(logging.StatusError),
		logging.Code(string(re.Code)),
		logging.Err(re),
		logging.Duration(time.Since(st.start)),
		slog.Int(logging.KeyItemsSeen, st.outcome.ItemsSeen),
		slog.Int(logging.KeyItemsProcessed, st.outcome.ItemsProcessed),
		slog.Int(logging.KeyItemsFailed, st.outcome.ItemsFailed),
		slog.Bool(logging.KeyAborted, st.outcome.Aborted))
}

// digestRequest is the optional JSON body of the digest endpoints. A
// malformed body means "use defaults", never an error.
type digestRequest struct {
	Query    string `json:"query"`
	MaxItems int    `json:"maxItems"`
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
}

func (c *Controller) parseDigestRequest(body []byte) digestRequest {
	var req digestRequest
	if len(body) > 0 {
		_ = json.Unmarshal(body, &req)
	}
	if strings.TrimSpace(req.Query) == "" {
		req.Query = c.cfg.Query
	}
	if req.MaxItems < 1 || req.MaxItems > maxItemsCeiling {
		req.MaxItems = c.cfg.MaxItems
	}
	return req
}

// draftRequest is the required JSON body of the draft-reply endpoint.
type draftRequest struct {
	MessageID string `json:"messageId"`
	ThreadID  string `json:"threadId"`
	RunID     string `json:"runId"`
}

// RunDigest executes a digest run: fetch unread messages, analyze each one
// tolerantly, rank, render, stream. shape must be ShapeAgent or
// ShapeNarrative; the narrative shape additionally rewrites the digest as
// prose and carries the outcome counters in the RUN_FINISHED result.
func (c *Controller) RunDigest(ctx context.Context, shape Shape, sink Sink, body []byte, requestID string) {
	req := c.parseDigestRequest(body)
	st := c.begin(ctx, shape, sink, requestID, req.RunID, req.ThreadID)
	defer st.span.End()

	var input json.RawMessage
	if shape == ShapeAgent {
		input, _ = json.Marshal(struct {
			Query    string `json:"query"`
			MaxItems int    `json:"maxItems"`
		}{req.Query, req.MaxItems})
	}
	if err := st.emitter.RunStarted(input); err != nil {
		c.fail(st, WrapErr(CodeRunFailed, err, "failed to open stream"))
		return
	}

	fetcher := Fetcher[*gmail.Message]{
		List: func(ctx context.Context) ([]string, error) {
			return c.source.ListUnread(ctx, req.Query, int64(req.MaxItems))
		},
		Get: func(ctx context.Context, id string) (*gmail.Message, error) {
			c.metrics.AddInflightFetches(ctx, 1)
			defer c.metrics.AddInflightFetches(ctx, -1)
			return c.source.GetMessage(ctx, id)
		},
		Limit: c.cfg.FetchConcurrency,
	}
	msgs, err := fetcher.Fetch(st.ctx)
	if err != nil {
		c.fail(st, WrapErr(CodeGmailFetchFailed, err, "failed to fetch unread messages"))
		return
	}
	st.outcome.ItemsSeen = len(msgs)

	analyzed, stats := Analyze(st.ctx, st.abort, msgs, func(ctx context.Context, m *gmail.Message) (*llm.Insight, error) {
		return c.analyzer.AnalyzeMessage(ctx, m)
	})
	st.outcome.ItemsProcessed = stats.Processed
	st.outcome.ItemsFailed = stats.Failed
	st.outcome.Aborted = stats.Aborted
	if stats.Failed > 0 {
		st.logger.Warn("analysis failed for some messages",
			logging.Operation(instrumentation.OperationAnalyze),
			logging.Code(string(CodeInsightExtractFailed)),
			slog.Int(logging.KeyItemsFailed, stats.Failed),
			logging.Err(stats.LastErr))
	}

	items := make([]llm.AnalyzedMessage, 0, len(analyzed))
	for _, a := range analyzed {
		items = append(items, llm.AnalyzedMessage{Message: a.Item, Insight: a.Result})
	}
	ranked := digest.Rank(items)

	text := digest.RenderMarkdown(ranked)
	if shape == ShapeNarrative && len(ranked) > 0 && !st.abort.Aborted() {
		prose, err := c.analyzer.Narrate(st.ctx, digest.RenderOverview(ranked))
		if err != nil {
			st.logger.Warn("narration failed, falling back to structured digest",
				logging.Operation(instrumentation.OperationNarrate),
				logging.Err(err))
		} else {
			text = prose
		}
	}

	if _, err := st.emitter.StartText(); err != nil {
		c.fail(st, WrapErr(CodeRunFailed, err, "failed to stream digest"))
		return
	}
	if err := st.emitter.Content(text); err != nil {
		c.fail(st, WrapErr(CodeRunFailed, err, "failed to stream digest"))
		return
	}

	var result any
	if shape == ShapeNarrative {
		result = st.outcome.digestResult()
	}
	c.complete(st, result)
}

// RunDraftReply executes a draft-reply run: validate, fetch context,
// generate a reply, save it as a Gmail draft behind the side-effect guard.
// An abort observed at or after validation fails the run with
// request_aborted and the save is never invoked.
func (c *Controller) RunDraftReply(ctx context.Context, sink Sink, body []byte, requestID string) {
	var req draftRequest
	parseErr := json.Unmarshal(body, &req)

	st := c.begin(ctx, ShapeDraftReply, sink, requestID, req.RunID, req.ThreadID)
	defer st.span.End()

	if err := st.emitter.RunStarted(nil); err != nil {
		c.fail(st, WrapErr(CodeRunFailed, err, "failed to open stream"))
		return
	}

	if parseErr != nil || strings.TrimSpace(req.MessageID) == "" {
		c.fail(st, Errf(CodeInvalidRequest, "draft-reply requires a messageId"))
		return
	}
	if st.abort.Aborted() {
		c.fail(st, Errf(CodeRequestAborted, "request aborted"))
		return
	}

	original, err := c.source.GetMessage(st.ctx, strings.TrimSpace(req.MessageID))
	if err != nil {
		c.fail(st, WrapErr(CodeContextFetchFailed, err, "failed to fetch message context"))
		return
	}
	st.outcome.ItemsSeen = 1
	if st.abort.Aborted() {
		c.fail(st, Errf(CodeRequestAborted, "request aborted"))
		return
	}

	thread := []*gmail.Message{original}
	if original.ThreadID != "" {
		msgs, err := c.source.GetThread(st.ctx, original.ThreadID)
		switch {
		case err != nil:
			st.logger.Warn("thread context unavailable, using single message",
				logging.Operation(instrumentation.OperationGetThread),
				logging.Code(string(CodeContextDegraded)),
				logging.Err(err))
		case len(msgs) > 0:
			thread = msgs
		}
	}
	if st.abort.Aborted() {
		c.fail(st, Errf(CodeRequestAborted, "request aborted"))
		return
	}

	draft, err := c.analyzer.DraftReply(st.ctx, thread)
	if err != nil {
		c.fail(st, WrapErr(CodeDraftGenerationFailed, err, "failed to generate reply draft"))
		return
	}

	guard := NewSideEffectGuard(st.abort)
	draftID, err := guard.Execute(func() (string, error) {
		return c.source.CreateReplyDraft(st.ctx, original, draft.Body)
	})
	if err != nil {
		c.fail(st, err)
		return
	}
	st.outcome.ItemsProcessed = 1
	st.logger.Info("draft saved",
		slog.String(logging.KeyDraftID, draftID),
		logging.UserHash(original.From))

	if _, err := st.emitter.StartText(); err != nil {
		c.fail(st, WrapErr(CodeRunFailed, err, "failed to stream draft"))
		return
	}
	if err := st.emitter.Content(draft.Body); err != nil {
		c.fail(st, WrapErr(CodeRunFailed, err, "failed to stream draft"))
		return
	}
	c.complete(st, DraftResult{DraftID: draftID, MessageID: original.ID})
}
