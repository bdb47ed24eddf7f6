// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jllopis/agentprompts/pkg/config"
	"github.com/jllopis/agentprompts/pkg/errors"
	"github.com/jllopis/agentprompts/pkg/telemetry"
)

// app carries global flags and the resolved configuration for every command.
type app struct {
	configPath string
	profile    string
	envFile    string
	sets       []string
	logLevel   string
	jsonOutput bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	var defaults convertOptions

	root := &cobra.Command{
		Use:   "agentprompts",
		Short: "Convert agent prompt documents into agent records",
		Long: `agentprompts extracts the agent definitions listed under the
"## Agent System Prompts" heading of a document and writes them as records.

Commands:
  agentprompts            Convert using input.path and output.path (default)
  agentprompts convert    Convert a document, optionally watching it for changes
  agentprompts inspect    Show which blocks are recognized and which sections they carry
  agentprompts history    List recorded conversion runs
  agentprompts mcp        Serve the converter as an MCP tool on stdio`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), a, defaults)
		},
	}
	bindConvertFlags(root, &defaults)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML configuration file")
	flags.StringVar(&a.profile, "profile", "", "Configuration profile overlay (config.<profile>.yaml)")
	flags.StringVar(&a.envFile, "env-file", "", "Load environment variables from this file (default .env when present)")
	flags.StringArrayVar(&a.sets, "set", nil, "Override a configuration key (key=value, repeatable)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&a.jsonOutput, "json", false, "Print results and errors as JSON")

	root.AddCommand(
		newConvertCmd(a),
		newInspectCmd(a),
		newHistoryCmd(a),
		newMCPCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup resolves configuration and installs the logger.
func (a *app) setup() error {
	overrides, err := config.ParseOverrides(a.sets)
	if err != nil {
		return NewInvalidArgumentError("--set", err.Error())
	}
	if a.logLevel != "" {
		if _, err := telemetry.ParseLevel(a.logLevel); err != nil {
			return NewInvalidArgumentError("--log-level", err.Error())
		}
		overrides["log.level"] = a.logLevel
	}

	cfg, err := config.LoadWithOptions(config.Options{
		Path:      a.configPath,
		Profile:   a.profile,
		EnvFile:   a.envFile,
		Overrides: overrides,
	})
	if err != nil {
		return NewConfigError(err, a.configPath)
	}
	a.cfg = cfg
	a.logger = telemetry.ConfigureSlog(a.stderr, cfg.Log.Level, cfg.Log.Format)
	return nil
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	cliErr := toCLIError(err)
	cliErr.PrintError(stderr, a.jsonOutput)
	return errors.ExitCode(cliErr.Code)
}

// toCLIError attaches a hint to err. Errors that carry no PromptError come
// from flag parsing and are reported as invalid input.
func toCLIError(err error) *CLIError {
	var cliErr *CLIError
	if stderrors.As(err, &cliErr) {
		return cliErr
	}
	var pe *errors.PromptError
	if !stderrors.As(err, &pe) {
		return NewInvalidArgumentError("", err.Error())
	}
	return NewCLIError(pe, hintFor(pe.Code))
}
