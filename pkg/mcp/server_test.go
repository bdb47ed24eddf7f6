// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/agentprompts/pkg/prompts"
)

const document = "## Agent System Prompts\n\n### 1. Reviewer\nReviews code.\n\n**Protocols:**\n- Be kind\n"

func newTestServer() *Server {
	return NewServer("agentprompts-test", "0.0.0", nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func callRequest(args map[string]interface{}) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = ToolName
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var parts []string
	for _, item := range result.Content {
		switch content := item.(type) {
		case mcpgo.TextContent:
			parts = append(parts, content.Text)
		case *mcpgo.TextContent:
			parts = append(parts, content.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestHandleConvert(t *testing.T) {
	s := newTestServer()
	result, err := s.handleConvert(context.Background(), callRequest(map[string]interface{}{"document": document}))
	if err != nil {
		t.Fatalf("handleConvert: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", textOf(t, result))
	}

	var records []prompts.AgentRecord
	if err := json.Unmarshal([]byte(textOf(t, result)), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].Slug != "reviewer" || records[0].CustomInstructions != "- Be kind" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestHandleConvertMissingMarker(t *testing.T) {
	s := newTestServer()
	result, err := s.handleConvert(context.Background(), callRequest(map[string]interface{}{"document": "nothing here"}))
	if err != nil {
		t.Fatalf("handleConvert: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error")
	}
	if !strings.Contains(textOf(t, result), "marker not found") {
		t.Fatalf("unexpected message %q", textOf(t, result))
	}
}

func TestHandleConvertRequiresDocument(t *testing.T) {
	s := newTestServer()
	result, err := s.handleConvert(context.Background(), callRequest(map[string]interface{}{"document": 42}))
	if err != nil {
		t.Fatalf("handleConvert: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for non-string document")
	}
}

func TestServer_InProcess_ListToolsAndCall(t *testing.T) {
	s := newTestServer()
	c, err := client.NewInProcessClient(s.MCPServer())
	if err != nil {
		t.Fatalf("NewInProcessClient: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	initRequest := mcpgo.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcpgo.Implementation{Name: "agentprompts-test", Version: "0.0.0"}
	if _, err := c.Initialize(ctx, initRequest); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	tools, err := c.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools.Tools) != 1 || tools.Tools[0].Name != ToolName {
		t.Fatalf("expected tool %q, got %+v", ToolName, tools.Tools)
	}

	result, err := c.CallTool(ctx, callRequest(map[string]interface{}{"document": document}))
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result == nil || result.IsError {
		t.Fatalf("expected successful tool result, got %+v", result)
	}
	if !strings.Contains(textOf(t, result), `"slug": "reviewer"`) {
		t.Fatalf("unexpected payload %q", textOf(t, result))
	}
}
