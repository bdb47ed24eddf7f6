// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package source supplies the raw agent prompts document.
package source

import (
	"context"
	"io"
	"os"

	"github.com/jllopis/agentprompts/pkg/errors"
)

// StdinPath selects standard input as the document.
const StdinPath = "-"

// Source supplies the whole document as one string.
type Source interface {
	Read(ctx context.Context) (string, error)
	// Name identifies the source in logs and run history.
	Name() string
}

// File reads the document from a path, or from Stdin when the path is "-".
type File struct {
	Path  string
	Stdin io.Reader
}

// NewFile returns a File source reading path. Stdin defaults to os.Stdin.
func NewFile(path string) *File {
	return &File{Path: path, Stdin: os.Stdin}
}

// Read returns the document contents.
func (f *File) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var (
		data []byte
		err  error
	)
	if f.Path == StdinPath {
		if f.Stdin == nil {
			return "", unavailable(f.Path, io.ErrUnexpectedEOF)
		}
		data, err = io.ReadAll(f.Stdin)
	} else {
		data, err = os.ReadFile(f.Path)
	}
	if err != nil {
		return "", unavailable(f.Path, err)
	}
	return string(data), nil
}

func (f *File) Name() string {
	if f.Path == StdinPath {
		return "stdin"
	}
	return f.Path
}

// String is an in-memory document.
type String struct {
	Label    string
	Document string
}

func (s String) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Document, nil
}

func (s String) Name() string {
	if s.Label == "" {
		return "memory"
	}
	return s.Label
}

func unavailable(path string, err error) error {
	return errors.New(errors.CodeSourceUnavailable, "input document unavailable", err).
		WithContext("path", path)
}
