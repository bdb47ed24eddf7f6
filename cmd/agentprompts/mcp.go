// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/jllopis/agentprompts/pkg/convert"
	agentmcp "github.com/jllopis/agentprompts/pkg/mcp"
	"github.com/jllopis/agentprompts/pkg/telemetry"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the " + agentmcp.ToolName + " tool over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics, err := telemetry.NewConversionMetrics(nil)
			if err != nil {
				return err
			}
			converter := convert.New(nil, nil,
				convert.WithLogger(a.logger),
				convert.WithMetrics(metrics),
				convert.WithTrigger("mcp"),
			)
			server := agentmcp.NewServer("agentprompts", version, converter, a.logger)
			a.logger.Info("serving MCP on stdio", "tool", agentmcp.ToolName)
			return server.ServeStdio()
		},
	}
}
