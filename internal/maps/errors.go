package maps

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned by every call when no key is configured.
	ErrMissingAPIKey = errors.New("maps: missing API key")

	// ErrEmptyResponse is returned when the service answered with no body.
	ErrEmptyResponse = errors.New("maps: empty response")
)

// RequestError means the request never produced an HTTP response.
type RequestError struct {
	Service string
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("maps: %s request failed: %v", e.Service, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx transport status.
type HTTPError struct {
	Service string
	Code    int
	Body    string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("maps: %s returned HTTP %d", e.Service, e.Code)
	}
	return fmt.Sprintf("maps: %s returned HTTP %d: %s", e.Service, e.Code, e.Body)
}

// StatusError is a well-formed response whose status is not a success.
type StatusError struct {
	Service string
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("maps: %s status %s", e.Service, e.Status)
	}
	return fmt.Sprintf("maps: %s status %s - %s", e.Service, e.Status, e.Message)
}

// IsZeroResults reports whether err is a ZERO_RESULTS status.
func IsZeroResults(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == StatusZeroResults
}
