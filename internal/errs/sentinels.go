// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across API/store layers.
var (
	// ErrNoToken indicates no persisted token exists. This is the expected
	// state for a first-time visitor and must never surface as a user error.
	ErrNoToken = errors.New("no persisted token")

	// ErrRefreshInFlight indicates a refresh was skipped because one is
	// already running. The skip has no side effects.
	ErrRefreshInFlight = errors.New("refresh already in flight")

	// ErrDuplicateName indicates the advisory client-side duplicate-name
	// check rejected an add before any server call.
	ErrDuplicateName = errors.New("contact name already exists")

	// ErrTransport indicates no response was received (connectivity failure).
	ErrTransport = errors.New("no response from server")
)

// ServerError is a non-2xx response from the remote API.
type ServerError struct {
	Status  int
	Message string // server-provided message, may be empty
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server rejected request (status %d)", e.Status)
	}
	return fmt.Sprintf("server rejected request (status %d): %s", e.Status, e.Message)
}
