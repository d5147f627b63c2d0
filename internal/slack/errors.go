package slack

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated indicates a missing or rejected bearer credential.
var ErrNotAuthenticated = errors.New("slack: not authenticated")

// TransportError indicates a non-success HTTP status from the Slack API.
type TransportError struct {
	Status int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("slack: http status %d", e.Status)
}

// APIError indicates an ok:false envelope. Code carries the error string
// returned by the API verbatim.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack: %s failed: %s", e.Method, e.Code)
}

// authErrorCodes are the envelope codes that mean the credential itself was
// rejected.
var authErrorCodes = map[string]bool{
	"not_authed":       true,
	"invalid_auth":     true,
	"token_revoked":    true,
	"token_expired":    true,
	"account_inactive": true,
}

// IsAuthError reports whether err represents an authentication failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNotAuthenticated)
}
