// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the prompt converter as an MCP tool.
package mcp

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jllopis/agentprompts/pkg/convert"
	"github.com/jllopis/agentprompts/pkg/errors"
	"github.com/jllopis/agentprompts/pkg/sink"
)

// ToolName is the name of the conversion tool.
const ToolName = "convert_agent_prompts"

// Server wraps the mcp-go server and serves the conversion tool.
type Server struct {
	mcpServer *server.MCPServer
	converter *convert.Converter
	logger    *slog.Logger
}

// NewServer creates an MCP server with the conversion tool registered.
func NewServer(name, version string, converter *convert.Converter, logger *slog.Logger) *Server {
	if converter == nil {
		converter = convert.New(nil, nil, convert.WithTrigger("mcp"))
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcpServer: server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
		converter: converter,
		logger:    logger,
	}

	tool := mcp.NewTool(ToolName,
		mcp.WithDescription("Convert an agent prompt document into agent records (JSON array)."),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("Full document text containing the '## Agent System Prompts' section"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleConvert)
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleConvert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	document, ok := args["document"].(string)
	if !ok {
		return mcp.NewToolResultError("argument 'document' must be a string"), nil
	}

	res, err := s.converter.Convert(ctx, document)
	if err != nil {
		s.logger.WarnContext(ctx, "mcp conversion failed", "error", err)
		if stderrors.Is(err, errors.ErrMarkerNotFound) {
			return mcp.NewToolResultError(errors.AsPromptError(err).Message), nil
		}
		return nil, err
	}

	payload, err := sink.EncodeJSON(res.Records)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "mcp conversion finished",
		"blocks", res.Blocks,
		"records", len(res.Records),
		"skipped", len(res.Skipped),
	)
	return mcp.NewToolResultText(string(payload)), nil
}
