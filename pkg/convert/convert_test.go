// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package convert

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jllopis/agentprompts/pkg/audit"
	"github.com/jllopis/agentprompts/pkg/errors"
	"github.com/jllopis/agentprompts/pkg/prompts"
	"github.com/jllopis/agentprompts/pkg/resilience"
	"github.com/jllopis/agentprompts/pkg/sink"
	"github.com/jllopis/agentprompts/pkg/source"
)

const document = `Preamble.

## Agent System Prompts

### 1. Planner
Plans work.

**Constraints:**
- Stay small

---

Not a block.

---

### 2. Coder
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return rec, tp
}

func TestRunWritesRecordsAndHistory(t *testing.T) {
	var out bytes.Buffer
	snk, err := sink.New(sink.FormatJSON, sink.StdoutPath, &out)
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	store := audit.NewMemoryStore()
	spans, tp := newRecorder(t)

	c := New(source.String{Label: "doc.md", Document: document}, snk,
		WithStore(store),
		WithFormat(sink.FormatJSON),
		WithLogger(quietLogger()),
		WithTracer(tp.Tracer("test")),
	)
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Written != 2 || summary.Blocks != 3 || summary.Skipped != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Output != "stdout" || summary.Input != "doc.md" {
		t.Fatalf("unexpected locations %+v", summary)
	}

	var records []prompts.AgentRecord
	if err := json.Unmarshal(out.Bytes(), &records); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(records) != 2 || records[0].Slug != "planner" || records[1].Slug != "coder" {
		t.Fatalf("unexpected records %+v", records)
	}
	if records[0].CustomInstructions != "- Stay small" {
		t.Fatalf("unexpected instructions %q", records[0].CustomInstructions)
	}

	runs, _ := store.List(context.Background(), audit.Filter{})
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Status != audit.StatusSucceeded || runs[0].Records != 2 || runs[0].Skipped != 1 {
		t.Fatalf("unexpected run %+v", runs[0])
	}
	if runs[0].ID != summary.RunID {
		t.Fatalf("run id mismatch %s != %s", runs[0].ID, summary.RunID)
	}

	ended := spans.Ended()
	if len(ended) != 2 {
		t.Fatalf("expected parse and convert spans, got %d", len(ended))
	}
	for _, s := range ended {
		if s.Status().Code == codes.Error {
			t.Fatalf("unexpected error status on %s", s.Name())
		}
	}
}

func TestRunMissingMarker(t *testing.T) {
	var out bytes.Buffer
	snk, _ := sink.New(sink.FormatJSON, sink.StdoutPath, &out)
	store := audit.NewMemoryStore()
	spans, tp := newRecorder(t)

	c := New(source.String{Document: "### 1. Orphan"}, snk,
		WithStore(store),
		WithLogger(quietLogger()),
		WithTracer(tp.Tracer("test")),
	)
	summary, err := c.Run(context.Background())
	if !stderrors.Is(err, errors.ErrMarkerNotFound) {
		t.Fatalf("expected marker not found, got %v", err)
	}
	if summary.Written != 0 {
		t.Fatalf("expected nothing written, got %d", summary.Written)
	}
	if out.Len() != 0 {
		t.Fatalf("sink must not be called, got %q", out.String())
	}

	runs, _ := store.List(context.Background(), audit.Filter{Status: audit.StatusFailed})
	if len(runs) != 1 || runs[0].ErrorCode != string(errors.CodeMarkerNotFound) {
		t.Fatalf("expected failed run, got %+v", runs)
	}

	var convertSpan sdktrace.ReadOnlySpan
	for _, s := range spans.Ended() {
		if s.Name() == "agentprompts.convert" {
			convertSpan = s
		}
	}
	if convertSpan == nil || convertSpan.Status().Code != codes.Error {
		t.Fatalf("expected errored convert span")
	}
}

func TestRunSourceUnavailable(t *testing.T) {
	snk, _ := sink.New(sink.FormatJSON, filepath.Join(t.TempDir(), "out.json"), nil)
	c := New(source.NewFile(filepath.Join(t.TempDir(), "missing.txt")), snk, WithLogger(quietLogger()))

	_, err := c.Run(context.Background())
	if !stderrors.Is(err, errors.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
}

func TestRunSinkFailure(t *testing.T) {
	snk, _ := sink.New(sink.FormatJSON, filepath.Join(t.TempDir(), "no-dir", "out.json"), nil)
	store := audit.NewMemoryStore()
	c := New(source.String{Document: document}, snk, WithStore(store), WithLogger(quietLogger()))

	_, err := c.Run(context.Background())
	if errors.CodeOf(err) != errors.CodeSinkFailure {
		t.Fatalf("expected sink failure, got %v", err)
	}
	runs, _ := store.List(context.Background(), audit.Filter{})
	if len(runs) != 1 || runs[0].Status != audit.StatusFailed {
		t.Fatalf("expected failed run recorded, got %+v", runs)
	}
}

func TestRunRequiresSourceAndSink(t *testing.T) {
	c := New(nil, nil, WithLogger(quietLogger()))
	if _, err := c.Run(context.Background()); err == nil {
		t.Fatalf("expected error without source and sink")
	}
}

func TestConvertInMemory(t *testing.T) {
	c := New(nil, nil, WithLogger(quietLogger()))
	res, err := c.Convert(context.Background(), document)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records))
	}
}

type flakySink struct {
	failures int
	calls    int
}

func (s *flakySink) Write(_ context.Context, records []prompts.AgentRecord) (int, error) {
	s.calls++
	if s.calls <= s.failures {
		return 0, errors.New(errors.CodeSinkFailure, "database is locked", nil).WithRecoverable(true)
	}
	return len(records), nil
}

func (s *flakySink) Location() string { return "flaky" }

func TestRunRetriesTransientSinkFailures(t *testing.T) {
	snk := &flakySink{failures: 2}
	rc := resilience.DefaultRetryConfig().WithInitialDelay(time.Millisecond).WithMaxDelay(time.Millisecond)
	c := New(source.String{Document: document}, snk, WithRetry(rc), WithLogger(quietLogger()))

	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if snk.calls != 3 || summary.Written != 2 {
		t.Fatalf("expected 3 calls and 2 records, got %d calls, %d written", snk.calls, summary.Written)
	}
}

func TestRunWithoutRetryFailsFast(t *testing.T) {
	snk := &flakySink{failures: 1}
	c := New(source.String{Document: document}, snk, WithLogger(quietLogger()))

	if _, err := c.Run(context.Background()); errors.CodeOf(err) != errors.CodeSinkFailure {
		t.Fatalf("expected sink failure, got %v", err)
	}
	if snk.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", snk.calls)
	}
}
