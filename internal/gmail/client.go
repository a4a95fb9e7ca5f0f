package gmail

import (
	"context"
	"fmt"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/inboxbrief/inboxbrief/internal/google"
	"github.com/inboxbrief/inboxbrief/internal/instrumentation"
)

// maxListPageSize is the Gmail API's maximum page size for message listing.
const maxListPageSize = 100

// Client wraps the Gmail Users service for one account.
type Client struct {
	svc     *gmail.UsersService
	account string
	metrics *instrumentation.Metrics
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// HasTokenForAccount checks if a valid OAuth token exists for the specified account.
func HasTokenForAccount(account string) bool {
	return google.HasTokenForAccount(account)
}

// NewClientForAccount creates a new Gmail client with OAuth2 authentication
// for a specific account. Metrics may be nil; operations are then unrecorded.
func NewClientForAccount(ctx context.Context, account string, metrics *instrumentation.Metrics) (*Client, error) {
	httpClient, err := google.HTTPClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found for account %s: %w", account, err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		svc:     svc.Users,
		account: account,
		metrics: metrics,
	}, nil
}

// traceOp opens a collaborator span for one API operation. The returned
// finish func sets the span status, ends it, and records the operation
// metric; call it with the operation's final error.
func (c *Client) traceOp(ctx context.Context, operation string) (context.Context, func(err error)) {
	ctx, span := instrumentation.StartCollaboratorSpan(ctx, "gmail", operation)
	start := time.Now()
	return ctx, func(err error) {
		if err != nil {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		span.End()
		c.record(ctx, operation, start, err)
	}
}

// record reports one API operation to the metrics recorder.
func (c *Client) record(ctx context.Context, operation string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGmailOperation(ctx, operation, status, time.Since(start))
}

// ListUnread lists message ids matching the query, oldest page first, making
// multiple API calls if necessary until max ids are collected.
func (c *Client) ListUnread(ctx context.Context, query string, max int64) (ids []string, err error) {
	ctx, done := c.traceOp(ctx, instrumentation.OperationList)
	defer func() { done(err) }()

	pageToken := ""
	for {
		remaining := max - int64(len(ids))
		if remaining <= 0 {
			break
		}
		pageSize := remaining
		if pageSize > maxListPageSize {
			pageSize = maxListPageSize
		}

		req := c.svc.Messages.List("me").Q(query).MaxResults(pageSize).Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		res, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}

		for _, m := range res.Messages {
			ids = append(ids, m.Id)
		}

		if res.NextPageToken == "" || int64(len(ids)) >= max {
			break
		}
		pageToken = res.NextPageToken
	}

	if int64(len(ids)) > max {
		ids = ids[:max]
	}
	return ids, nil
}

// GetMessage fetches one message in full format and parses it.
func (c *Client) GetMessage(ctx context.Context, id string) (msg *Message, err error) {
	ctx, done := c.traceOp(ctx, instrumentation.OperationGet)
	defer func() { done(err) }()

	m, err := c.svc.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return parseMessage(m), nil
}

// GetThread fetches all messages of a thread in full format, in the order
// the API returns them (oldest first).
func (c *Client) GetThread(ctx context.Context, threadID string) (msgs []*Message, err error) {
	ctx, done := c.traceOp(ctx, instrumentation.OperationGetThread)
	defer func() { done(err) }()

	t, err := c.svc.Threads.Get("me", threadID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get thread %s: %w", threadID, err)
	}
	msgs = make([]*Message, 0, len(t.Messages))
	for _, m := range t.Messages {
		msgs = append(msgs, parseMessage(m))
	}
	return msgs, nil
}

// CreateReplyDraft creates a Gmail draft replying to original with the given
// body and returns the draft id. This is the only mutating call the service
// makes against the user's mailbox.
func (c *Client) CreateReplyDraft(ctx context.Context, original *Message, body string) (draftID string, err error) {
	ctx, done := c.traceOp(ctx, instrumentation.OperationCreateDraft)
	defer func() { done(err) }()

	if original == nil || original.ID == "" {
		return "", fmt.Errorf("original message is required")
	}
	if original.From == "" {
		return "", fmt.Errorf("original message has no From header")
	}
	if body == "" {
		return "", fmt.Errorf("draft body is required")
	}

	draft := &gmail.Draft{
		Message: &gmail.Message{
			Raw:      buildReplyRaw(original, body),
			ThreadId: original.ThreadID,
		},
	}
	created, err := c.svc.Drafts.Create("me", draft).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create draft: %w", err)
	}
	return created.Id, nil
}
