// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jllopis/agentprompts/pkg/audit"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit  int
		status string
		input  string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded conversion runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return NewInvalidArgumentError("--limit", "must be zero or positive")
			}
			switch status {
			case "", audit.StatusSucceeded, audit.StatusFailed:
			default:
				return NewInvalidArgumentError("--status", "must be succeeded or failed")
			}
			return runHistory(cmd.Context(), a, audit.Filter{Input: input, Status: status, Limit: limit})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 lists all)")
	cmd.Flags().StringVar(&status, "status", "", "Only runs with this status: succeeded, failed")
	cmd.Flags().StringVar(&input, "input", "", "Only runs for this input")
	return cmd
}

func runHistory(ctx context.Context, a *app, filter audit.Filter) error {
	path := a.cfg.Store.Path
	if _, err := os.Stat(path); err != nil {
		return NewNotFoundError("run history", path, "enable store.enabled and run a conversion first")
	}
	store, err := audit.OpenSQLiteStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(ctx, filter)
	if err != nil {
		return err
	}
	if a.jsonOutput {
		if runs == nil {
			runs = []audit.Run{}
		}
		return printJSON(a.stdout, runs)
	}

	writer := newTabWriter(a.stdout)
	writeRow(writer, "RUN", "STARTED", "STATUS", "INPUT", "OUTPUT", "RECORDS", "SKIPPED", "DURATION", "ERROR")
	for _, run := range runs {
		writeRow(writer,
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Status,
			run.Input,
			run.Output,
			strconv.Itoa(run.Records),
			strconv.Itoa(run.Skipped),
			run.Duration().Round(time.Millisecond).String(),
			truncateMessage(run.ErrorCode, 24),
		)
	}
	return writer.Flush()
}
