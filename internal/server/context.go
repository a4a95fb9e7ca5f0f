package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/inboxbrief/inboxbrief/internal/gmail"
	"github.com/inboxbrief/inboxbrief/internal/google"
	"github.com/inboxbrief/inboxbrief/internal/instrumentation"
	"github.com/inboxbrief/inboxbrief/internal/logging"
)

// ServerContext holds the long-lived dependencies of the HTTP server.
type ServerContext struct {
	ctx          context.Context
	cancel       context.CancelFunc
	metrics      *instrumentation.Metrics
	gmailClients map[string]*gmail.Client // account name -> client
	mu           sync.RWMutex
	shutdown     bool
}

// NewServerContext creates a new server context. The default account's Gmail
// client is created eagerly when a token is available; other accounts are
// initialized lazily on first use.
func NewServerContext(ctx context.Context, metrics *instrumentation.Metrics) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:          shutdownCtx,
		cancel:       cancel,
		metrics:      metrics,
		gmailClients: make(map[string]*gmail.Client),
	}

	if gmail.HasTokenForAccount(google.DefaultAccount) {
		client, err := gmail.NewClientForAccount(shutdownCtx, google.DefaultAccount, metrics)
		if err != nil {
			// Will be re-attempted on first use
			slog.Warn("failed to create Gmail client for default account", logging.Err(err))
		} else {
			sc.gmailClients[google.DefaultAccount] = client
		}
	}

	return sc
}

// Context returns the server's shutdown-scoped context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// GmailClientForAccount returns the Gmail client for a specific account,
// creating and caching it on first use. Returns nil if the account has no
// token. The cache is keyed by account identity and never evicts; a client
// created for one account is never handed to another.
func (sc *ServerContext) GmailClientForAccount(account string) *gmail.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.gmailClients[account]; ok {
		return client
	}

	if !gmail.HasTokenForAccount(account) {
		return nil
	}

	client, err := gmail.NewClientForAccount(sc.ctx, account, sc.metrics)
	if err != nil {
		slog.Warn("failed to create Gmail client", slog.String(logging.KeyAccount, account), logging.Err(err))
		return nil
	}

	sc.gmailClients[account] = client
	return client
}

// GmailClient returns the Gmail client for the default account.
func (sc *ServerContext) GmailClient() *gmail.Client {
	return sc.GmailClientForAccount(google.DefaultAccount)
}

// SetGmailClientForAccount sets the Gmail client for a specific account.
func (sc *ServerContext) SetGmailClientForAccount(account string, client *gmail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gmailClients[account] = client
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
