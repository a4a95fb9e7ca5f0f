// Package server provides the HTTP surface of inboxbrief: the SSE run
// endpoints (POST /agent, /narrative, /draft-reply), health probes for
// Kubernetes, and a dedicated Prometheus metrics server.
//
// ServerContext manages Gmail API clients with lazy initialization and
// caching, keyed by account. The SSE sink is the single place where a client
// disconnect is classified, so the run controller never inspects transport
// errors.
package server
