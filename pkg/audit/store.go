// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package audit keeps a history of conversion runs.
package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run describes one conversion.
type Run struct {
	ID         string    `json:"id"`
	Input      string    `json:"input"`
	Output     string    `json:"output,omitempty"`
	Format     string    `json:"format,omitempty"`
	Blocks     int       `json:"blocks"`
	Records    int       `json:"records"`
	Skipped    int       `json:"skipped"`
	Status     string    `json:"status"`
	ErrorCode  string    `json:"error_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration reports how long the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Store persists conversion runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	List(ctx context.Context, filter Filter) ([]Run, error)
}

// Filter limits run queries. Results are newest first.
type Filter struct {
	Input  string
	Status string
	Limit  int
}

// MemoryStore keeps runs in memory.
type MemoryStore struct {
	mu   sync.Mutex
	runs []Run
}

// NewMemoryStore returns an in-memory run store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record appends a run.
func (s *MemoryStore) Record(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

// List returns filtered runs, newest first.
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Run, error) {
	s.mu.Lock()
	runs := make([]Run, len(s.runs))
	copy(runs, s.runs)
	s.mu.Unlock()

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	out := make([]Run, 0, len(runs))
	for _, run := range runs {
		if filter.Input != "" && run.Input != filter.Input {
			continue
		}
		if filter.Status != "" && run.Status != filter.Status {
			continue
		}
		out = append(out, run)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// normalizeTime ensures timestamps are in UTC.
func normalizeTime(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return value.UTC()
}
