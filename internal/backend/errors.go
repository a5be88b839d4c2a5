package backend

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrUnauthorized is the uniform signal that the session is no longer
// accepted upstream.  Callers sign out and send the browser to the entry
// route; the call is never retried.
var ErrUnauthorized = errors.New("unauthorized")

// ErrLocked is returned by sign-in when the account is locked.
var ErrLocked = errors.New("account locked")

// APIError is a non-2xx answer from an upstream service.  Message is the
// server's own message, empty when it sent none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream status %d", e.Status)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
}

// Is lets errors.Is match 401 and 423 answers against the sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrLocked:
		return e.Status == http.StatusLocked
	}
	return false
}

// ServerMessage returns the upstream message carried by err, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
