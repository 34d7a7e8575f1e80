// Package errs defines the domain error taxonomy shared by the review and
// GitHub services and mapped to HTTP statuses by the server.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the domain failure categories.
type Kind string

const (
	// KindInvalidInput indicates a request that failed shape validation.
	KindInvalidInput Kind = "invalid_input"
	// KindPayloadTooLarge indicates submitted code above the size cap.
	KindPayloadTooLarge Kind = "payload_too_large"
	// KindRateLimited indicates the client exceeded the request window.
	KindRateLimited Kind = "rate_limited"
	// KindAuthConfig indicates missing or invalid provider credentials.
	KindAuthConfig Kind = "auth_config"
	// KindUpstreamThrottled indicates the provider rejected us for quota.
	KindUpstreamThrottled Kind = "upstream_throttled"
	// KindModelUnavailable indicates the configured model was not found.
	KindModelUnavailable Kind = "model_unavailable"
	// KindUpstream is the generic provider failure, including unparsable output.
	KindUpstream Kind = "upstream"
	// KindEmptyFixResult indicates the model returned no usable fixed code.
	KindEmptyFixResult Kind = "empty_fix_result"
	// KindUnauthorized indicates an expired or invalid GitHub token.
	KindUnauthorized Kind = "unauthorized"
	// KindBranchConflict indicates a branch name collision on creation.
	KindBranchConflict Kind = "branch_conflict"
	// KindOAuthExchangeFailed indicates the code-for-token exchange failed.
	KindOAuthExchangeFailed Kind = "oauth_exchange_failed"
)

// Error carries a kind, a user-facing message, and the wrapped cause.
// The cause is for logs only and is never serialized to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E constructs a domain error with the given kind and user-facing message.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs a domain error that retains the original cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindUpstream when err carries no kind.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUpstream
}

// MessageOf returns the user-facing message of err, falling back to a fixed
// string so internal detail never leaks to clients.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return "An unexpected error occurred."
}

// Is reports whether err is a domain error of the given kind.
func Is(err error, kind Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}
