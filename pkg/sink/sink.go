// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package sink persists converted agent records.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jllopis/agentprompts/pkg/errors"
	"github.com/jllopis/agentprompts/pkg/prompts"
	"github.com/jllopis/agentprompts/pkg/resilience"
)

// StdoutPath selects the configured stdout writer instead of a file.
const StdoutPath = "-"

// Supported formats.
const (
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatSQLite = "sqlite"
)

// Sink writes the ordered record collection and reports how many were written.
type Sink interface {
	Write(ctx context.Context, records []prompts.AgentRecord) (int, error)
	// Location describes where records end up.
	Location() string
}

// New returns the sink for format writing to path; stdout receives "-" output.
func New(format, path string, stdout io.Writer) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		return &JSONSink{Path: path, Stdout: stdout}, nil
	case FormatYAML:
		return &YAMLSink{Path: path, Stdout: stdout}, nil
	case FormatSQLite:
		if path == StdoutPath {
			return nil, errors.New(errors.CodeInvalidInput, "sqlite output needs a file path", nil)
		}
		return &SQLiteSink{Path: path}, nil
	default:
		return nil, errors.New(errors.CodeInvalidInput, fmt.Sprintf("unsupported output format %q", format), nil).
			WithContext("format", format)
	}
}

// JSONSink writes records as an indented JSON array.
type JSONSink struct {
	Path   string
	Stdout io.Writer
}

func (s *JSONSink) Write(ctx context.Context, records []prompts.AgentRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	data, err := EncodeJSON(records)
	if err != nil {
		return 0, failure(s.Path, err)
	}
	if err := writeOutput(s.Path, s.Stdout, data); err != nil {
		return 0, failure(s.Path, err)
	}
	return len(records), nil
}

func (s *JSONSink) Location() string { return location(s.Path) }

// EncodeJSON renders records with two-space indentation and no HTML escaping.
// A nil or empty collection encodes as [].
func EncodeJSON(records []prompts.AgentRecord) ([]byte, error) {
	if records == nil {
		records = []prompts.AgentRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// YAMLSink writes records as a YAML sequence with the same keys as JSON.
type YAMLSink struct {
	Path   string
	Stdout io.Writer
}

func (s *YAMLSink) Write(ctx context.Context, records []prompts.AgentRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if records == nil {
		records = []prompts.AgentRecord{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return 0, failure(s.Path, err)
	}
	if err := enc.Close(); err != nil {
		return 0, failure(s.Path, err)
	}
	if err := writeOutput(s.Path, s.Stdout, buf.Bytes()); err != nil {
		return 0, failure(s.Path, err)
	}
	return len(records), nil
}

func (s *YAMLSink) Location() string { return location(s.Path) }

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == StdoutPath {
		if stdout == nil {
			stdout = os.Stdout
		}
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func location(path string) string {
	if path == StdoutPath {
		return "stdout"
	}
	return path
}

func failure(path string, err error) error {
	return errors.New(errors.CodeSinkFailure, "write records", err).
		WithContext("path", path).
		WithRecoverable(resilience.Transient(err))
}
