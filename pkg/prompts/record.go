// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package prompts

const (
	// Marker starts the region of the document that holds agent blocks.
	Marker = "## Agent System Prompts"
	// Separator splits the region into blocks. Any occurrence counts, not only whole lines.
	Separator = "---"
	// Source is the fixed source tag of every record.
	Source = "global"
)

// Section names, in the order their bodies are joined into custom instructions.
const (
	SectionCoreDirectives     = "Core Directives"
	SectionCompletionCriteria = "Task Completion Criteria"
	SectionConstraints        = "Constraints"
	SectionProtocols          = "Protocols"
)

var groups = [...]string{"read", "edit", "browser", "command", "mcp"}

// Groups returns the capability tags assigned to every record.
// The returned slice is a fresh copy.
func Groups() []string {
	out := make([]string, len(groups))
	copy(out, groups[:])
	return out
}

// AgentRecord is one converted agent definition. Field order matches the
// serialized form expected by downstream consumers.
type AgentRecord struct {
	Slug               string   `json:"slug" yaml:"slug"`
	Name               string   `json:"name" yaml:"name"`
	RoleDefinition     string   `json:"roleDefinition" yaml:"roleDefinition"`
	CustomInstructions string   `json:"customInstructions" yaml:"customInstructions"`
	Groups             []string `json:"groups" yaml:"groups"`
	Source             string   `json:"source" yaml:"source"`
}
