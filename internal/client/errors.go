package client

import (
	"errors"
	"fmt"
)

var ErrUnexpectedResponse = errors.New("unexpected response")

// APIError is a non-2xx answer from the rover.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rover returned %d: %s", e.StatusCode, e.Message)
}
