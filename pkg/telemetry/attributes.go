// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides logging, tracing and metrics for conversion runs.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys used on conversion spans and metrics.
const (
	AttrRunID        = "agentprompts.run.id"
	AttrInputPath    = "agentprompts.input.path"
	AttrInputBytes   = "agentprompts.input.bytes"
	AttrOutputPath   = "agentprompts.output.path"
	AttrOutputFormat = "agentprompts.output.format"
	AttrBlocksCount  = "agentprompts.blocks.count"
	AttrRecordsCount = "agentprompts.records.count"
	AttrSkippedCount = "agentprompts.blocks.skipped"
	AttrErrorCode    = "error.code"
	AttrComponent    = "component"
	AttrTrigger      = "agentprompts.trigger" // cli, watch, mcp
)

// RunAttributes returns the span attributes describing a finished parse.
func RunAttributes(blocks, records, skipped int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrBlocksCount, blocks),
		attribute.Int(AttrRecordsCount, records),
		attribute.Int(AttrSkippedCount, skipped),
	}
}

// OutputAttributes describes the sink of a run.
func OutputAttributes(path, format string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrOutputPath, path),
		attribute.String(AttrOutputFormat, format),
	}
}
