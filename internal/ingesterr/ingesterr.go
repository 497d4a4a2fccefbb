// Package ingesterr defines the failure taxonomy used across the ingestion
// pipeline: every remote call a pipeline step makes is classified into one of
// four kinds so callers can decide whether to retry, drop the message, or
// exit the worker.
package ingesterr

import (
	"errors"
	"fmt"
)

// Kind discriminates the severity/handling of a pipeline failure.
type Kind int

const (
	// Transient failures (network errors, timeouts, 5xx) are retried by the
	// caller (C3 retries internally) or by broker redelivery.
	Transient Kind = iota
	// PermanentClient failures (4xx, schema violations) are not retried; the
	// offending message is dropped and a CardUploadFailed event emitted.
	PermanentClient
	// Integrity failures indicate the two stores disagree in a way that
	// cannot be resolved inline; the message is logged and dropped.
	Integrity
	// Fatal failures are configuration or bootstrap errors; the worker exits.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case PermanentClient:
		return "permanent_client"
	case Integrity:
		return "integrity"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a Kind and the operation name that produced it. Returns
// nil if err is nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of err, defaulting to PermanentClient for errors
// that were never classified (the safest default: don't retry blindly).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return PermanentClient
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	return KindOf(err) == Transient
}
