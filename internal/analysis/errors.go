package analysis

import (
	"errors"
	"fmt"
)

// FailureKind classifies why an analysis call produced no usable result.
// Retry and fallback policy is a pure function of this kind.
type FailureKind string

const (
	FailureTimeout   FailureKind = "timeout"
	FailureService   FailureKind = "service_error"
	FailureMalformed FailureKind = "malformed_reply"
	FailureTransport FailureKind = "transport_error"
)

type Error struct {
	Kind FailureKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("analysis %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain. Unclassified errors
// report as transport failures.
func KindOf(err error) FailureKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return FailureTransport
}

// ParseError reports that a reply could not be decoded into the expected
// shape. The parser returns it instead of panicking; callers decide
// fallback policy.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse analysis reply: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse analysis reply: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
