package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"time"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyRunID          = "run_id"
	KeyThreadID       = "thread_id"
	KeyRequestID      = "request_id"
	KeyTraceID        = "trace_id"
	KeyDraftID        = "draft_id"
	KeyShape          = "shape"
	KeyOperation      = "operation"
	KeyAccount        = "account"
	KeyUserHash       = "user_hash"
	KeyDuration       = "duration"
	KeyStatus         = "status"
	KeyCode           = "code"
	KeyError          = "error"
	KeyItemsSeen      = "items_seen"
	KeyItemsProcessed = "items_processed"
	KeyItemsFailed    = "items_failed"
	KeyAborted        = "aborted"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusAborted = "aborted"
)

// Setup builds the process-wide JSON logger and installs it as the slog
// default. Debug mode lowers the level threshold.
func Setup(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// WithRun returns a logger carrying the run and thread identifiers.
func WithRun(logger *slog.Logger, runID, threadID string) *slog.Logger {
	return logger.With(slog.String(KeyRunID, runID), slog.String(KeyThreadID, threadID))
}

// WithShape returns a logger with the run shape attribute set.
func WithShape(logger *slog.Logger, shape string) *slog.Logger {
	return logger.With(slog.String(KeyShape, shape))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Code returns a slog attribute for a failure taxonomy code.
func Code(code string) slog.Attr {
	return slog.String(KeyCode, code)
}

// Duration returns a slog attribute for an elapsed duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Err returns a slog attribute for an error. If err is nil, it returns an
// empty group that slog omits, so Err(maybeNilErr) is always safe.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a hashed representation of an email address for
// logging. This allows correlation of log entries without exposing PII.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the anonymized user email.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}
