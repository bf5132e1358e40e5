package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyReply is recorded when a model answers with no text.
	ErrEmptyReply = errors.New("empty reply from model")

	// ErrNoCode is recorded when a reply contains nothing executable.
	ErrNoCode = errors.New("no code in reply")

	// ErrNoModels is recorded when a models endpoint lists nothing usable.
	ErrNoModels = errors.New("no models in response")
)

// StatusError is a non-2xx response from the proxy.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("endpoint %s returned HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("endpoint %s returned HTTP %d: %s", e.URL, e.Status, e.Body)
}
