package run

import (
	"errors"
	"fmt"
)

// Code is a machine-readable classification for a run failure or warning.
type Code string

// Failure taxonomy. Every terminal failure surfaces as one RUN_ERROR event
// carrying one of these codes. Warning codes never fail a run; they only
// appear in logs.
const (
	// CodeInvalidRequest marks malformed or missing required input.
	// Draft-reply requires a caller-supplied message id; digest runs treat
	// malformed bodies as "use defaults" and never produce this code.
	CodeInvalidRequest Code = "invalid_request"

	// CodeGmailFetchFailed marks a failed unread listing or detail fetch.
	CodeGmailFetchFailed Code = "gmail_fetch_failed"

	// CodeContextFetchFailed marks a failed fetch of the draft-reply
	// context message.
	CodeContextFetchFailed Code = "context_fetch_failed"

	// CodeDraftGenerationFailed marks a failed reply-generation call.
	CodeDraftGenerationFailed Code = "draft_generation_failed"

	// CodeDraftSaveFailed marks a failed Gmail draft-create call.
	CodeDraftSaveFailed Code = "draft_save_failed"

	// CodeRequestAborted marks a cancellation observed at or after
	// validation in a draft-reply run. The draft is never saved.
	CodeRequestAborted Code = "request_aborted"

	// CodeRunFailed is the catch-all for unclassified failures.
	CodeRunFailed Code = "run_failed"

	// CodeInsightExtractFailed is a warning: a single message's analysis
	// failed during a digest run. Logged with a failure count, never fatal.
	CodeInsightExtractFailed Code = "insight_extract_failed"

	// CodeContextDegraded is a warning: thread context retrieval failed and
	// the run fell back to single-message context.
	CodeContextDegraded Code = "context_degraded"
)

// Error is a classified run failure. Stages wrap collaborator errors with a
// taxonomy code; the controller unwraps the outermost classification at the
// terminal boundary.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Errf builds a classified error without a cause.
func Errf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapErr classifies an underlying error.
func WrapErr(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Classify resolves any error to a taxonomy entry. Unclassified errors
// become run_failed.
func Classify(err error) *Error {
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	return &Error{Code: CodeRunFailed, Message: "run failed", Err: err}
}
