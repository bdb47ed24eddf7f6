// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jllopis/agentprompts/pkg/errors"
)

// CLIError wraps PromptError with CLI-specific formatting and hints.
type CLIError struct {
	*errors.PromptError
	Hint string
}

// NewCLIError creates a new CLI error.
func NewCLIError(pe *errors.PromptError, hint string) *CLIError {
	return &CLIError{
		PromptError: pe,
		Hint:        hint,
	}
}

// Error returns the formatted error message with hints.
func (e *CLIError) Error() string {
	if e.PromptError == nil {
		return "unknown error"
	}

	msg := e.PromptError.Error()
	if e.Hint != "" {
		msg += "\n  Hint: " + e.Hint
	}
	return msg
}

// Unwrap exposes the PromptError so errors.Is matches its code.
func (e *CLIError) Unwrap() error {
	if e.PromptError == nil {
		return nil
	}
	return e.PromptError
}

// PrintError prints the error with appropriate formatting.
func (e *CLIError) PrintError(w io.Writer, asJSON bool) {
	if e.PromptError == nil {
		fmt.Fprintln(w, "Error: unknown error")
		return
	}
	message := e.Message
	if e.Err != nil {
		message += ": " + e.Err.Error()
	}

	if asJSON {
		payload := map[string]any{
			"error": map[string]any{
				"code":    e.Code,
				"message": message,
				"hint":    e.Hint,
				"context": e.Context,
			},
		}
		data, _ := json.Marshal(payload)
		fmt.Fprintln(w, string(data))
		return
	}

	fmt.Fprintf(w, "Error [%s]: %s\n", e.Code, message)
	if e.Hint != "" {
		fmt.Fprintf(w, "  Hint: %s\n", e.Hint)
	}
}

// NewInvalidArgumentError creates an invalid argument error with CLI hints.
func NewInvalidArgumentError(arg, reason string) *CLIError {
	pe := errors.New(errors.CodeInvalidInput, fmt.Sprintf("invalid argument: %s", reason), nil).
		WithRecoverable(false)
	if arg != "" {
		pe = pe.WithContext("argument", arg)
	}
	return NewCLIError(pe, "run 'agentprompts --help' for usage information")
}

// NewConfigError creates a configuration error with CLI hints.
func NewConfigError(err error, configPath string) *CLIError {
	pe := errors.New(errors.CodeInvalidInput, "configuration error", err).
		WithContext("config_path", configPath).
		WithRecoverable(false)

	hint := "check AGENTPROMPTS_* variables and --set overrides"
	if configPath != "" {
		hint = fmt.Sprintf("check %s for syntax errors", configPath)
	}
	return NewCLIError(pe, hint)
}

// NewNotFoundError creates a not found error with CLI hints.
func NewNotFoundError(resource, name, hint string) *CLIError {
	pe := errors.New(errors.CodeNotFound, fmt.Sprintf("%s '%s' not found", resource, name), nil).
		WithContext("resource", resource).
		WithContext("name", name).
		WithRecoverable(false)
	return NewCLIError(pe, hint)
}

// hintFor suggests a fix for errors raised by the conversion pipeline.
func hintFor(code errors.ErrorCode) string {
	switch code {
	case errors.CodeMarkerNotFound:
		return "the document needs a '## Agent System Prompts' heading before the agent blocks"
	case errors.CodeSourceUnavailable:
		return "check --input or input.path; use '-' to read stdin"
	case errors.CodeSinkFailure:
		return "check that the output directory exists and is writable"
	case errors.CodeStoreError:
		return "check store.path or run with --no-store"
	case errors.CodeInvalidInput:
		return "run 'agentprompts --help' for usage information"
	default:
		return ""
	}
}
