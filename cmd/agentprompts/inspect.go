// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jllopis/agentprompts/pkg/prompts"
	"github.com/jllopis/agentprompts/pkg/source"
)

type inspectSections struct {
	CoreDirectives     bool `json:"core_directives"`
	CompletionCriteria bool `json:"completion_criteria"`
	Constraints        bool `json:"constraints"`
	Protocols          bool `json:"protocols"`
}

type inspectResult struct {
	Index      int             `json:"index"`
	Recognized bool            `json:"recognized"`
	Slug       string          `json:"slug,omitempty"`
	Name       string          `json:"name,omitempty"`
	Sections   inspectSections `json:"sections"`
}

func newInspectCmd(a *app) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show how each block of a document is interpreted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), a, firstNonEmpty(input, a.cfg.Input.Path))
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input document path, '-' for stdin (default input.path)")
	return cmd
}

func runInspect(ctx context.Context, a *app, input string) error {
	src := source.NewFile(input)
	src.Stdin = a.stdin
	document, err := src.Read(ctx)
	if err != nil {
		return err
	}
	inspections, err := prompts.ParseBlocks(document)
	if err != nil {
		return err
	}
	results := buildInspectResults(inspections)

	if a.jsonOutput {
		return printJSON(a.stdout, results)
	}
	writer := newTabWriter(a.stdout)
	writeRow(writer, "BLOCK", "SLUG", "NAME", "DIRECTIVES", "CRITERIA", "CONSTRAINTS", "PROTOCOLS")
	for _, r := range results {
		if !r.Recognized {
			writeRow(writer, strconv.Itoa(r.Index), "", "(unrecognized)", "", "", "", "")
			continue
		}
		writeRow(writer,
			strconv.Itoa(r.Index),
			r.Slug,
			truncateMessage(r.Name, 40),
			yesNo(r.Sections.CoreDirectives),
			yesNo(r.Sections.CompletionCriteria),
			yesNo(r.Sections.Constraints),
			yesNo(r.Sections.Protocols),
		)
	}
	return writer.Flush()
}

func buildInspectResults(inspections []prompts.Inspection) []inspectResult {
	results := make([]inspectResult, 0, len(inspections))
	for _, in := range inspections {
		r := inspectResult{Index: in.Index, Recognized: in.Recognized}
		if in.Recognized {
			r.Slug = in.Block.Slug()
			r.Name = in.Block.Title
			r.Sections = inspectSections{
				CoreDirectives:     in.Block.Sections.CoreDirectives != "",
				CompletionCriteria: in.Block.Sections.CompletionCriteria != "",
				Constraints:        in.Block.Sections.Constraints != "",
				Protocols:          in.Block.Sections.Protocols != "",
			}
		}
		results = append(results, r)
	}
	return results
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
