package models

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes assembly errors.
type ErrorCode string

const (
	// CodeFileNotFound indicates the start file or a referenced fragment is missing.
	CodeFileNotFound ErrorCode = "FILE_NOT_FOUND"

	// CodeOutputExists indicates the output path exists and overwrite is not allowed.
	CodeOutputExists ErrorCode = "OUTPUT_EXISTS"

	// CodeUndefinedVariable indicates a pyvar directive names an unbound variable.
	CodeUndefinedVariable ErrorCode = "UNDEFINED_VARIABLE"

	// CodeUnrecognizedDirective indicates an hpp_ directive kind outside the known set.
	CodeUnrecognizedDirective ErrorCode = "UNRECOGNIZED_DIRECTIVE"

	// CodeMalformedDirective indicates a directive that could not be tokenized,
	// e.g. an unknown flag or a missing argument.
	CodeMalformedDirective ErrorCode = "MALFORMED_DIRECTIVE"

	// CodeUnserializableValue indicates a bound variable could not be
	// serialized, even after the fallback serializer ran.
	CodeUnserializableValue ErrorCode = "UNSERIALIZABLE_VALUE"

	// CodeExpansionLimit indicates the recursion depth limit was exceeded.
	CodeExpansionLimit ErrorCode = "EXPANSION_LIMIT"

	// CodeIO indicates any other filesystem failure.
	CodeIO ErrorCode = "IO_ERROR"
)

// Sentinels for errors.Is. Matching is by Code only.
var (
	ErrFileNotFound          = &Error{Code: CodeFileNotFound}
	ErrOutputExists          = &Error{Code: CodeOutputExists}
	ErrUndefinedVariable     = &Error{Code: CodeUndefinedVariable}
	ErrUnrecognizedDirective = &Error{Code: CodeUnrecognizedDirective}
	ErrMalformedDirective    = &Error{Code: CodeMalformedDirective}
	ErrUnserializableValue   = &Error{Code: CodeUnserializableValue}
	ErrExpansionLimit        = &Error{Code: CodeExpansionLimit}
	ErrIO                    = &Error{Code: CodeIO}
)

// Error represents a failure detected while assembling a document.
//
// Every error is fatal to the run. Error carries structured fields for
// diagnostics; the CLI prints Code and Message and the ledger stores Code.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the resolved file path involved, if any.
	Path string

	// Directive is the matched directive text involved, if any.
	Directive string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Directive != "" {
		msg = fmt.Sprintf("%s (directive %q)", msg, e.Directive)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates an Error with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithPath sets Path and returns the same error.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithDirective sets Directive and returns the same error.
func (e *Error) WithDirective(span string) *Error {
	e.Directive = span
	return e
}

// Wrap sets the underlying cause and returns the same error.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// CodeOf extracts the error code from err.
// Returns an empty code if err is nil or not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode returns true if err (or anything it wraps) is an *Error with code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
