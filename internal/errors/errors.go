// Package errors defines the error taxonomy for the trade analysis pipeline.
//
// Stages fail fast: an error carries the stage name and the violated
// precondition so a failure report reads "wide reshape: empty input after
// filtering" rather than a bare message. Missing values are not errors and
// never appear here; they are carried as explicit cell states through the
// reshape packages.
package errors

import (
	"fmt"
)

// Code classifies a pipeline error.
type Code string

const (
	// CodeMalformedInput marks unusable input: a required column is absent
	// or a required numeric field does not parse.
	CodeMalformedInput Code = "MALFORMED_INPUT"
	// CodeEmptyResult marks a stage that produced zero rows.
	CodeEmptyResult Code = "EMPTY_RESULT"
	// CodeDegenerateLabels marks a training set with a single class.
	CodeDegenerateLabels Code = "DEGENERATE_LABELS"
	// CodeInvalidConfig marks configuration that fails validation.
	CodeInvalidConfig Code = "INVALID_CONFIG"
)

// PipelineError is a stage-tagged, coded error. It implements error and
// supports errors.Is matching by code via Is.
type PipelineError struct {
	Code    Code
	Stage   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Stage == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a PipelineError with the same code, so
// callers can match on sentinel values regardless of stage or message.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel values for errors.Is matching.
var (
	ErrMalformedInput   = &PipelineError{Code: CodeMalformedInput, Message: "malformed input"}
	ErrEmptyResult      = &PipelineError{Code: CodeEmptyResult, Message: "empty result"}
	ErrDegenerateLabels = &PipelineError{Code: CodeDegenerateLabels, Message: "degenerate labels"}
	ErrInvalidConfig    = &PipelineError{Code: CodeInvalidConfig, Message: "invalid configuration"}
)

// NewMalformedInput creates a malformed-input error for the given stage.
func NewMalformedInput(stage, format string, args ...interface{}) *PipelineError {
	return &PipelineError{
		Code:    CodeMalformedInput,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewEmptyResult creates an empty-result error naming the offending stage.
func NewEmptyResult(stage, format string, args ...interface{}) *PipelineError {
	return &PipelineError{
		Code:    CodeEmptyResult,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewDegenerateLabels creates a single-class-training error.
func NewDegenerateLabels(stage, format string, args ...interface{}) *PipelineError {
	return &PipelineError{
		Code:    CodeDegenerateLabels,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewInvalidConfig creates a configuration validation error.
func NewInvalidConfig(format string, args ...interface{}) *PipelineError {
	return &PipelineError{
		Code:    CodeInvalidConfig,
		Stage:   "config",
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a cause to a pipeline error built from an existing one.
func Wrap(err *PipelineError, cause error) *PipelineError {
	return &PipelineError{
		Code:    err.Code,
		Stage:   err.Stage,
		Message: err.Message,
		Err:     cause,
	}
}
