// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed errors for the agent prompt converter.
// Every failure that crosses a package boundary is a *PromptError carrying a code
// that the CLI maps to hints and exit statuses.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies converter errors for reporting and exit statuses.
type ErrorCode string

const (
	// CodeInternal indicates an internal error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates invalid flags, configuration or arguments.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeMarkerNotFound indicates the document lacks the agent prompts marker.
	CodeMarkerNotFound ErrorCode = "MARKER_NOT_FOUND"

	// CodeSourceUnavailable indicates the input document could not be read.
	CodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"

	// CodeUnrecognizedBlock indicates a block without a recognizable title.
	CodeUnrecognizedBlock ErrorCode = "UNRECOGNIZED_BLOCK"

	// CodeSinkFailure indicates records could not be written.
	CodeSinkFailure ErrorCode = "SINK_FAILURE"

	// CodeStoreError indicates a run history store error.
	CodeStoreError ErrorCode = "STORE_ERROR"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"
)

// Sentinels usable with errors.Is; matching compares codes only.
var (
	ErrMarkerNotFound    = New(CodeMarkerNotFound, "agent prompts marker not found", nil)
	ErrSourceUnavailable = New(CodeSourceUnavailable, "source unavailable", nil)
	ErrUnrecognizedBlock = New(CodeUnrecognizedBlock, "unrecognized block", nil)
)

// PromptError is a typed error with context for logs and CLI output.
// It implements the error interface and can be unwrapped with errors.As().
type PromptError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Recoverable bool
}

// Error implements the error interface.
func (e *PromptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *PromptError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *PromptError with the same code.
func (e *PromptError) Is(target error) bool {
	t, ok := target.(*PromptError)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *PromptError) MarshalJSON() ([]byte, error) {
	out := struct {
		Code        string                 `json:"code"`
		Message     string                 `json:"message"`
		Err         string                 `json:"error,omitempty"`
		Context     map[string]interface{} `json:"context,omitempty"`
		Recoverable bool                   `json:"recoverable"`
	}{
		Code:        string(e.Code),
		Message:     e.Message,
		Context:     e.Context,
		Recoverable: e.Recoverable,
	}
	if e.Err != nil {
		out.Err = e.Err.Error()
	}
	return json.Marshal(out)
}

// New creates a new PromptError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *PromptError {
	return &PromptError{
		Code:    code,
		Message: msg,
		Err:     cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *PromptError) WithContext(key string, value interface{}) *PromptError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithRecoverable sets whether the run can continue after the error.
func (e *PromptError) WithRecoverable(recoverable bool) *PromptError {
	e.Recoverable = recoverable
	return e
}

// AsPromptError returns err as a PromptError, wrapping foreign errors as internal.
func AsPromptError(err error) *PromptError {
	if err == nil {
		return nil
	}
	var pe *PromptError
	if asPromptError(err, &pe) {
		return pe
	}
	return New(CodeInternal, "wrapped error", err)
}

// CodeOf returns the code of the first PromptError in the chain, or CodeInternal.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return AsPromptError(err).Code
}

// ExitCode maps error codes to process exit statuses.
func ExitCode(code ErrorCode) int {
	switch code {
	case "":
		return 0
	case CodeInvalidInput:
		return 2
	case CodeSourceUnavailable, CodeNotFound:
		return 3
	case CodeMarkerNotFound:
		return 4
	case CodeSinkFailure, CodeStoreError:
		return 5
	default:
		return 1
	}
}

func asPromptError(err error, target **PromptError) bool {
	for err != nil {
		if pe, ok := err.(*PromptError); ok {
			*target = pe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
