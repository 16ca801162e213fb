package grr

import (
	"errors"
	"fmt"
)

var (
	// ErrAccessForbidden is returned when the caller has no valid approval for the resource.
	ErrAccessForbidden = errors.New("access forbidden")
	ErrNotFound        = errors.New("resource not found")
)

// APIError is any other non 2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("grr api: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("grr api: unexpected status %d: %s", e.StatusCode, e.Message)
}
