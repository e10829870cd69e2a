package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

// UpstreamError wraps a failed call to the remote data store. It is never
// converted into a success response and never retried here.
type UpstreamError struct {
	Op  string // e.g. "GET users"
	Err error
}

func NewUpstreamError(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}

func (err UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", err.Op, err.Err)
}

func (err UpstreamError) Unwrap() error { return err.Err }

func IsUpstream(err error) bool {
	_, ok := errors.Cause(err).(*UpstreamError)
	return ok
}

// PartialError reports an operation that half-succeeded: the primary write
// landed but a dependent write did not. Callers must not report it as either
// full success or full failure; the primary row is not rolled back.
type PartialError struct {
	Message string
	Err     error
}

func NewPartialError(msg string, err error) error {
	return &PartialError{Message: msg, Err: err}
}

func (err PartialError) Error() string {
	return fmt.Sprintf("%s: %v", err.Message, err.Err)
}

func (err PartialError) Unwrap() error { return err.Err }

func IsPartial(err error) bool {
	_, ok := errors.Cause(err).(*PartialError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
