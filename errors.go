package main

import (
	"errors"
	"fmt"
)

// ErrorKind classifies harness errors.
type ErrorKind string

const (
	KindSuiteNotFound      ErrorKind = "suite_not_found"
	KindSuiteUnreadable    ErrorKind = "suite_unreadable"
	KindMalformedEncoding  ErrorKind = "malformed_encoding"
	KindProcessFailure     ErrorKind = "process_failure"
	KindTimeout            ErrorKind = "timeout"
	KindUnsupportedCommand ErrorKind = "unsupported_command"
	KindUnsupportedAction  ErrorKind = "unsupported_action"
	KindNoModule           ErrorKind = "no_module"
)

// ErrSuiteNotFound matches any HarnessError of kind KindSuiteNotFound.
var ErrSuiteNotFound = errors.New("suite not found")

// HarnessError is an error raised while loading or replaying a suite.
type HarnessError struct {
	Kind    ErrorKind
	Suite   string
	Message string
	Cause   error
}

func (e *HarnessError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Suite != "" {
		msg = fmt.Sprintf("%s: %s", e.Suite, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *HarnessError) Unwrap() error {
	return e.Cause
}

func (e *HarnessError) Is(target error) bool {
	return target == ErrSuiteNotFound && e.Kind == KindSuiteNotFound
}
