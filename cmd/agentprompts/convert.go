// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jllopis/agentprompts/pkg/audit"
	"github.com/jllopis/agentprompts/pkg/convert"
	"github.com/jllopis/agentprompts/pkg/resilience"
	"github.com/jllopis/agentprompts/pkg/sink"
	"github.com/jllopis/agentprompts/pkg/source"
	"github.com/jllopis/agentprompts/pkg/telemetry"
)

type convertOptions struct {
	input   string
	output  string
	format  string
	watch   bool
	noStore bool
}

func bindConvertFlags(cmd *cobra.Command, o *convertOptions) {
	flags := cmd.Flags()
	flags.StringVarP(&o.input, "input", "i", "", "Input document path, '-' for stdin (default input.path)")
	flags.StringVarP(&o.output, "output", "o", "", "Output path, '-' for stdout (default output.path)")
	flags.StringVarP(&o.format, "format", "f", "", "Output format: json, yaml, sqlite (default output.format)")
	flags.BoolVarP(&o.watch, "watch", "w", false, "Convert again whenever the input changes")
	flags.BoolVar(&o.noStore, "no-store", false, "Do not record the run in the history store")
}

func newConvertCmd(a *app) *cobra.Command {
	var opts convertOptions
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert an agent prompt document into agent records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), a, opts)
		},
	}
	bindConvertFlags(cmd, &opts)
	return cmd
}

func runConvert(ctx context.Context, a *app, opts convertOptions) error {
	input := firstNonEmpty(opts.input, a.cfg.Input.Path)
	output := firstNonEmpty(opts.output, a.cfg.Output.Path)
	format := firstNonEmpty(opts.format, a.cfg.Output.Format)
	if opts.watch && input == source.StdinPath {
		return NewInvalidArgumentError("--watch", "cannot watch stdin")
	}

	snk, err := sink.New(format, output, a.stdout)
	if err != nil {
		return err
	}
	src := source.NewFile(input)
	src.Stdin = a.stdin

	shutdown, err := a.initTelemetry()
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			a.logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	metrics, err := telemetry.NewConversionMetrics(nil)
	if err != nil {
		return err
	}
	trigger := "cli"
	if opts.watch {
		trigger = "watch"
	}
	convOpts := []convert.Option{
		convert.WithFormat(format),
		convert.WithLogger(a.logger),
		convert.WithMetrics(metrics),
		convert.WithTrigger(trigger),
		convert.WithRetry(resilience.DefaultRetryConfig().
			WithMaxAttempts(a.cfg.Retry.Attempts).
			WithInitialDelay(a.cfg.Retry.InitialDelay).
			WithMaxDelay(a.cfg.Retry.MaxDelay)),
	}
	if a.cfg.Store.Enabled && !opts.noStore {
		store, err := audit.OpenSQLiteStore(a.cfg.Store.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		convOpts = append(convOpts, convert.WithStore(store))
	}
	converter := convert.New(src, snk, convOpts...)

	// Status lines must not end up inside records written to stdout.
	status := a.stdout
	if output == sink.StdoutPath {
		status = a.stderr
	}

	if !opts.watch {
		summary, err := converter.Run(ctx)
		if err != nil {
			return err
		}
		return a.printSummary(status, summary)
	}
	return a.watch(ctx, input, converter, status)
}

func (a *app) watch(ctx context.Context, input string, converter *convert.Converter, status io.Writer) error {
	runOnce := func(ctx context.Context) {
		summary, err := converter.Run(ctx)
		if err != nil {
			toCLIError(err).PrintError(a.stderr, a.jsonOutput)
			return
		}
		if err := a.printSummary(status, summary); err != nil {
			a.logger.Warn("print summary failed", "error", err)
		}
	}

	watcher := source.NewWatcher(input,
		source.WithWatchInterval(a.cfg.Watch.Interval),
		source.WithWatchLogger(a.logger),
	)
	watcher.OnChange(runOnce)

	runOnce(ctx)
	watcher.Start(ctx)
	a.logger.Info("watching input document", "path", input, "interval", a.cfg.Watch.Interval)

	<-ctx.Done()
	watcher.Stop()
	return nil
}

func (a *app) printSummary(w io.Writer, summary convert.Summary) error {
	if a.jsonOutput {
		return printJSON(w, summary)
	}
	if _, err := fmt.Fprintf(w, "Successfully converted %d agent prompts.\n", summary.Written); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Output saved to %s\n", summary.Output)
	return err
}

func (a *app) initTelemetry() (telemetry.ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }
	tc := a.cfg.Telemetry
	if !tc.Enabled {
		return noop, nil
	}
	shutdown, err := telemetry.InitWithConfig(tc.ServiceName, version, telemetry.Config{
		Exporter:     tc.Exporter,
		OTLPEndpoint: tc.Endpoint,
		OTLPInsecure: tc.Insecure,
		Output:       a.stderr,
	})
	if err != nil {
		a.logger.Warn("telemetry disabled", "error", err)
		return noop, nil
	}
	return shutdown, nil
}
