package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")
	// ErrSourceFailure is returned when a catalog source request fails
	ErrSourceFailure = errors.New("catalog source request failed")
	// ErrMalformedPayload is returned when a source response cannot be decoded
	ErrMalformedPayload = errors.New("malformed source payload")
	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
	// ErrStorageUnavailable is returned when no product repository is configured
	ErrStorageUnavailable = errors.New("product storage unavailable")
)

// StatusError reports a non-2xx response from a catalog source.
type StatusError struct {
	Source string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Source, e.Code)
}

// Unwrap lets callers match any StatusError against ErrSourceFailure.
func (e *StatusError) Unwrap() error {
	return ErrSourceFailure
}

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsThrottled reports whether err is a rate-limit or overload response
// that is worth retrying against the same endpoint.
func IsThrottled(err error) bool {
	switch StatusCode(err) {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	return false
}
