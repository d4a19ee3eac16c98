// Package completion wraps the remote completion port with the pipeline's
// error taxonomy and a retrying, rate-limited client.
package completion

import (
	"errors"
	"fmt"
)

// ErrContextOverflow marks the distinguished context-length-exceeded
// condition. It is never retried as-is; callers resolve it by splitting
// their input and re-submitting each half.
var ErrContextOverflow = errors.New("context length exceeded")

// TransientError covers network failures, 429/502/503/504 and
// model-reported rate-limit or server errors. Worth retrying.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError covers everything else: malformed requests, auth and
// content-policy failures. Retrying cannot help.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return fmt.Sprintf("permanent: %v", e.Err) }
func (e *PermanentError) Unwrap() error { return e.Err }

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

func IsContextOverflow(err error) bool {
	return errors.Is(err, ErrContextOverflow)
}
