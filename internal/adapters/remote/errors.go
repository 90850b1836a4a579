package remote

import (
	"errors"
	"fmt"
)

// Sentinel kinds callers branch on with errors.Is.
var (
	// ErrNoRows signals that a singleton lookup matched nothing. Only this
	// condition triggers the lazy-create repair in the metrics store; any
	// other failure must not.
	ErrNoRows = errors.New("no rows returned")

	// ErrUserExists signals a sign-up against an already-registered email.
	ErrUserExists = errors.New("user already registered")

	// ErrNoSession signals an identity operation issued without a session.
	ErrNoSession = errors.New("no active session")
)

// APIError carries the backend's status and human-readable message for a
// failed call. Auth flows surface Message to the user verbatim.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote: %s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("remote: %s (status %d)", e.Message, e.Status)
}
