// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/agentprompts/pkg/errors"
)

// MeterName is the instrumentation scope of conversion metrics.
const MeterName = "agentprompts/convert"

// ConversionMetrics counts runs, blocks, records and errors.
// A nil *ConversionMetrics is valid and records nothing.
type ConversionMetrics struct {
	runCounter     metric.Int64Counter
	blockCounter   metric.Int64Counter
	recordCounter  metric.Int64Counter
	skippedCounter metric.Int64Counter
	errorCounter   metric.Int64Counter
	runDuration    metric.Float64Histogram
}

// RunStats summarizes one conversion for RecordRun.
type RunStats struct {
	Blocks   int
	Records  int
	Skipped  int
	Format   string
	Duration time.Duration
}

// NewConversionMetrics creates the instruments on meter, or on the global
// meter provider when meter is nil.
func NewConversionMetrics(meter metric.Meter) (*ConversionMetrics, error) {
	if meter == nil {
		meter = otel.Meter(MeterName)
	}

	runCounter, err := meter.Int64Counter(
		"agentprompts.runs.total",
		metric.WithDescription("Conversion runs by outcome"),
	)
	if err != nil {
		return nil, err
	}
	blockCounter, err := meter.Int64Counter(
		"agentprompts.blocks.total",
		metric.WithDescription("Non-empty blocks found after the marker"),
	)
	if err != nil {
		return nil, err
	}
	recordCounter, err := meter.Int64Counter(
		"agentprompts.records.total",
		metric.WithDescription("Agent records emitted"),
	)
	if err != nil {
		return nil, err
	}
	skippedCounter, err := meter.Int64Counter(
		"agentprompts.blocks.skipped",
		metric.WithDescription("Blocks without a recognizable title"),
	)
	if err != nil {
		return nil, err
	}
	errorCounter, err := meter.Int64Counter(
		"agentprompts.errors.total",
		metric.WithDescription("Failed runs by error code and component"),
	)
	if err != nil {
		return nil, err
	}
	runDuration, err := meter.Float64Histogram(
		"agentprompts.run.duration",
		metric.WithDescription("Conversion run duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &ConversionMetrics{
		runCounter:     runCounter,
		blockCounter:   blockCounter,
		recordCounter:  recordCounter,
		skippedCounter: skippedCounter,
		errorCounter:   errorCounter,
		runDuration:    runDuration,
	}, nil
}

// RecordRun records a successful conversion.
func (m *ConversionMetrics) RecordRun(ctx context.Context, stats RunStats) {
	if m == nil {
		return
	}
	format := attribute.String(AttrOutputFormat, stats.Format)
	m.runCounter.Add(ctx, 1, metric.WithAttributes(format, attribute.String("outcome", "succeeded")))
	m.blockCounter.Add(ctx, int64(stats.Blocks))
	m.recordCounter.Add(ctx, int64(stats.Records), metric.WithAttributes(format))
	m.skippedCounter.Add(ctx, int64(stats.Skipped))
	m.runDuration.Record(ctx, float64(stats.Duration)/float64(time.Millisecond), metric.WithAttributes(format))
}

// RecordError records a failed conversion by error code and component.
func (m *ConversionMetrics) RecordError(ctx context.Context, err error, component string) {
	if m == nil || err == nil {
		return
	}
	code := string(errors.CodeOf(err))
	m.runCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
	m.errorCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrErrorCode, code),
			attribute.String(AttrComponent, component),
		),
	)
}
