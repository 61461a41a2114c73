// Package failure classifies errors crossing component boundaries.
package failure

import "errors"

// ErrNotFound reports a definitive negative lookup: a pool that is not a
// pool, an order that does not exist. It is never retried.
var ErrNotFound = errors.New("not found")

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }

func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as a transport failure the calling worker may retry.
// A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	var already *retryableError
	if errors.As(err, &already) {
		return err
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err, or any error it wraps, was marked Retryable.
func IsRetryable(err error) bool {
	var target *retryableError
	return errors.As(err, &target)
}
