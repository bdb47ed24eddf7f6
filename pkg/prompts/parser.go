// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package prompts converts an "Agent System Prompts" document into agent records.
//
// A document is split into blocks after the "## Agent System Prompts" marker,
// each block separated by "---". Every block that carries a
// "### <n>. <title>" header becomes one AgentRecord; blocks without one are
// skipped. The package is pure: no I/O, no shared mutable state.
package prompts

// Result is the outcome of parsing a whole document.
type Result struct {
	Records []AgentRecord
	// Blocks is the number of non-empty blocks found after the marker.
	Blocks int
	// Skipped holds the zero-based indexes of blocks that produced no record.
	Skipped []int
}

// Parse segments document and extracts one record per recognizable block,
// preserving document order. It fails only when the marker is missing.
func Parse(document string) (Result, error) {
	blocks, err := Segment(document)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Records: make([]AgentRecord, 0, len(blocks)),
		Blocks:  len(blocks),
	}
	for i, block := range blocks {
		rec, ok := Extract(block)
		if !ok {
			res.Skipped = append(res.Skipped, i)
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// ParseBlocks returns the field-level view of every block, including the
// unrecognized ones (reported with ok == false in Inspection.Recognized).
func ParseBlocks(document string) ([]Inspection, error) {
	blocks, err := Segment(document)
	if err != nil {
		return nil, err
	}
	out := make([]Inspection, 0, len(blocks))
	for i, raw := range blocks {
		b, ok := ParseBlock(raw)
		out = append(out, Inspection{Index: i, Recognized: ok, Block: b})
	}
	return out, nil
}

// Inspection describes how one block was interpreted.
type Inspection struct {
	Index      int   `json:"index"`
	Recognized bool  `json:"recognized"`
	Block      Block `json:"block"`
}
