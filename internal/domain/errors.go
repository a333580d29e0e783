package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoMorePages is returned when a fetch is attempted with the terminal cursor.
var ErrNoMorePages = errors.New("no more pages")

// NetworkError reports a transport failure or a non-2xx response.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: unexpected status: %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NotFoundError reports that the upstream API has no record for ID.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("creature %d not found", e.ID)
}

// StorageCorruptionError reports a persisted record that could not be decoded.
type StorageCorruptionError struct {
	Key string
	Err error
}

func (e *StorageCorruptionError) Error() string {
	return fmt.Sprintf("corrupted storage record %q: %v", e.Key, e.Err)
}

func (e *StorageCorruptionError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsRetryable reports whether a failed fetch is worth retrying. Transport
// failures and 5xx/429 responses are, everything else is not.
func IsRetryable(err error) bool {
	if err == nil || IsNotFound(err) || errors.Is(err, ErrNoMorePages) || errors.Is(err, context.Canceled) {
		return false
	}
	var ne *NetworkError
	if !errors.As(err, &ne) {
		return false
	}
	if ne.StatusCode == 0 {
		return true
	}
	return ne.StatusCode >= 500 || ne.StatusCode == 429
}
