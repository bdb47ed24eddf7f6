// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package convert runs the read, parse, write pipeline for agent prompt documents.
package convert

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/agentprompts/pkg/audit"
	"github.com/jllopis/agentprompts/pkg/errors"
	"github.com/jllopis/agentprompts/pkg/prompts"
	"github.com/jllopis/agentprompts/pkg/resilience"
	"github.com/jllopis/agentprompts/pkg/sink"
	"github.com/jllopis/agentprompts/pkg/source"
	"github.com/jllopis/agentprompts/pkg/telemetry"
)

const tracerName = "agentprompts/convert"

// Summary describes a finished run.
type Summary struct {
	RunID    string                `json:"run_id"`
	Input    string                `json:"input"`
	Output   string                `json:"output,omitempty"`
	Blocks   int                   `json:"blocks"`
	Skipped  int                   `json:"skipped"`
	Written  int                   `json:"written"`
	Records  []prompts.AgentRecord `json:"-"`
	Duration time.Duration         `json:"duration"`
}

// Converter reads a document, extracts records and hands them to a sink.
type Converter struct {
	source  source.Source
	sink    sink.Sink
	format  string
	store   audit.Store
	metrics *telemetry.ConversionMetrics
	logger  *slog.Logger
	tracer  trace.Tracer
	trigger string
	retry   resilience.RetryConfig
	now     func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

// WithStore records every run in store.
func WithStore(store audit.Store) Option {
	return func(c *Converter) { c.store = store }
}

// WithMetrics records run counters.
func WithMetrics(m *telemetry.ConversionMetrics) Option {
	return func(c *Converter) { c.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer overrides the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Converter) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithFormat labels runs with the output format.
func WithFormat(format string) Option {
	return func(c *Converter) { c.format = format }
}

// WithTrigger labels spans with what started the run (cli, watch, mcp).
func WithTrigger(trigger string) Option {
	return func(c *Converter) { c.trigger = trigger }
}

// WithRetry retries sink and store writes that fail transiently.
func WithRetry(rc resilience.RetryConfig) Option {
	return func(c *Converter) { c.retry = rc }
}

// New creates a Converter. src and snk may be nil when only Convert is used.
func New(src source.Source, snk sink.Sink, opts ...Option) *Converter {
	c := &Converter{
		source:  src,
		sink:    snk,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
		trigger: "cli",
		retry:   resilience.NoRetry(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert parses a document held in memory.
func (c *Converter) Convert(ctx context.Context, document string) (prompts.Result, error) {
	ctx, span := c.tracer.Start(ctx, "agentprompts.parse",
		trace.WithAttributes(attribute.Int(telemetry.AttrInputBytes, len(document))))
	defer span.End()

	res, err := prompts.Parse(document)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	for _, idx := range res.Skipped {
		c.logger.DebugContext(ctx, "skipping unrecognized block",
			"index", idx,
			"code", errors.CodeUnrecognizedBlock,
		)
	}
	span.SetAttributes(telemetry.RunAttributes(res.Blocks, len(res.Records), len(res.Skipped))...)
	return res, nil
}

// Run executes one full conversion: read, parse, write, record.
// MarkerNotFound and SourceUnavailable abort the run before anything is written.
func (c *Converter) Run(ctx context.Context) (Summary, error) {
	started := c.now()
	run := audit.Run{
		ID:        audit.NewRunID(),
		Format:    c.format,
		StartedAt: started,
	}
	if c.source != nil {
		run.Input = c.source.Name()
	}
	if c.sink != nil {
		run.Output = c.sink.Location()
	}
	summary := Summary{RunID: run.ID, Input: run.Input, Output: run.Output}

	ctx, span := c.tracer.Start(ctx, "agentprompts.convert",
		trace.WithAttributes(
			attribute.String(telemetry.AttrRunID, run.ID),
			attribute.String(telemetry.AttrInputPath, run.Input),
			attribute.String(telemetry.AttrTrigger, c.trigger),
		))
	defer span.End()
	span.SetAttributes(telemetry.OutputAttributes(run.Output, run.Format)...)

	fail := func(err error, component string) (Summary, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.RecordError(ctx, err, component)

		run.Status = audit.StatusFailed
		run.ErrorCode = string(errors.CodeOf(err))
		run.Error = err.Error()
		run.FinishedAt = c.now()
		c.record(ctx, run)

		summary.Duration = run.Duration()
		c.logger.ErrorContext(ctx, "conversion failed",
			"run_id", run.ID,
			"component", component,
			"error", err,
		)
		return summary, err
	}

	if c.source == nil || c.sink == nil {
		return fail(errors.New(errors.CodeInternal, "converter needs a source and a sink", nil), "convert")
	}

	document, err := c.source.Read(ctx)
	if err != nil {
		return fail(err, "source")
	}

	res, err := c.Convert(ctx, document)
	if err != nil {
		return fail(err, "parser")
	}
	summary.Blocks = res.Blocks
	summary.Skipped = len(res.Skipped)
	summary.Records = res.Records

	var written int
	err = c.retry.Do(ctx, func() error {
		var werr error
		written, werr = c.sink.Write(ctx, res.Records)
		return werr
	})
	if err != nil {
		return fail(err, "sink")
	}
	summary.Written = written

	run.Status = audit.StatusSucceeded
	run.Blocks = res.Blocks
	run.Records = written
	run.Skipped = len(res.Skipped)
	run.FinishedAt = c.now()
	c.record(ctx, run)
	summary.Duration = run.Duration()

	c.metrics.RecordRun(ctx, telemetry.RunStats{
		Blocks:   res.Blocks,
		Records:  written,
		Skipped:  len(res.Skipped),
		Format:   c.format,
		Duration: summary.Duration,
	})
	c.logger.InfoContext(ctx, "conversion finished",
		"run_id", run.ID,
		"input", run.Input,
		"output", run.Output,
		"blocks", res.Blocks,
		"records", written,
		"skipped", len(res.Skipped),
	)
	return summary, nil
}

func (c *Converter) record(ctx context.Context, run audit.Run) {
	if c.store == nil {
		return
	}
	err := c.retry.Do(ctx, func() error { return c.store.Record(ctx, run) })
	if err != nil {
		c.logger.WarnContext(ctx, "record run history failed", "run_id", run.ID, "error", err)
	}
}
