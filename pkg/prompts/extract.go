// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package prompts

import (
	"regexp"
	"strings"
)

var (
	// titlePattern captures the title up to the first line break and everything after it.
	titlePattern = regexp.MustCompile(`(?s)### \d+\. (.*?)\n(.*)`)
	// titleLinePattern recovers a title when the header is the last line of the block.
	titleLinePattern = regexp.MustCompile(`### \d+\. (.*)`)
	// sectionHeaderPattern ends a description.
	sectionHeaderPattern = regexp.MustCompile(`\n\n\*\*(?:` + strings.Join([]string{
		regexp.QuoteMeta(SectionCoreDirectives),
		regexp.QuoteMeta(SectionCompletionCriteria),
		regexp.QuoteMeta(SectionConstraints),
		regexp.QuoteMeta(SectionProtocols),
	}, "|") + `):\*\*`)

	coreDirectivesPattern     = sectionPattern(SectionCoreDirectives)
	constraintsPattern        = sectionPattern(SectionConstraints)
	protocolsPattern          = sectionPattern(SectionProtocols)
	completionCriteriaPattern = regexp.MustCompile(`(?s)\*\*` + regexp.QuoteMeta(SectionCompletionCriteria) +
		":\\*\\*\n```yaml\n(.*?)\n```")
)

// sectionEnd is the blank-line-separated bold header that closes a section body.
const sectionEnd = "\n\n**"

func sectionPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)\*\*` + regexp.QuoteMeta(name) + `:\*\*\n(.*)`)
}

// Sections holds the four labeled parts of a block. Absent sections are empty.
type Sections struct {
	CoreDirectives     string `json:"coreDirectives"`
	CompletionCriteria string `json:"completionCriteria"`
	Constraints        string `json:"constraints"`
	Protocols          string `json:"protocols"`
}

// Instructions joins the non-empty section bodies with one blank line between them.
func (s Sections) Instructions() string {
	parts := make([]string, 0, 4)
	for _, part := range []string{s.CoreDirectives, s.CompletionCriteria, s.Constraints, s.Protocols} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Block is the field-level view of one agent block.
type Block struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Sections    Sections `json:"sections"`
}

// ParseBlock extracts title, description and sections from a raw block.
// ok is false when no "### <n>. <title>" header with a non-empty title exists.
func ParseBlock(block string) (Block, bool) {
	title, description, ok := parseTitle(block)
	if !ok {
		return Block{}, false
	}
	return Block{
		Title:       title,
		Description: description,
		Sections: Sections{
			CoreDirectives:     captureSection(coreDirectivesPattern, block),
			CompletionCriteria: captureFenced(completionCriteriaPattern, block),
			Constraints:        captureSection(constraintsPattern, block),
			Protocols:          captureSection(protocolsPattern, block),
		},
	}, true
}

// Slug derives the record identifier from the block title.
func (b Block) Slug() string {
	return Slugify(b.Title)
}

// Record assembles the AgentRecord for the block.
func (b Block) Record() AgentRecord {
	return AgentRecord{
		Slug:               b.Slug(),
		Name:               b.Title,
		RoleDefinition:     strings.TrimSpace("Role: " + b.Title + "\n" + b.Description),
		CustomInstructions: b.Sections.Instructions(),
		Groups:             Groups(),
		Source:             Source,
	}
}

// Extract converts a raw block into an AgentRecord.
// It reports false for blocks without a recognizable title; those are skipped.
func Extract(block string) (AgentRecord, bool) {
	b, ok := ParseBlock(block)
	if !ok {
		return AgentRecord{}, false
	}
	return b.Record(), true
}

// Slugify cuts the title at the first '(', lowercases it and keeps only [a-z0-9].
func Slugify(title string) string {
	if i := strings.IndexByte(title, '('); i >= 0 {
		title = title[:i]
	}
	title = strings.ToLower(strings.TrimSpace(title))

	var sb strings.Builder
	sb.Grow(len(title))
	for i := 0; i < len(title); i++ {
		c := title[i]
		if ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func parseTitle(block string) (string, string, bool) {
	var title, description string
	if m := titlePattern.FindStringSubmatch(block); m != nil {
		title = m[1]
		rest := m[2]
		if loc := sectionHeaderPattern.FindStringIndex(rest); loc != nil {
			rest = rest[:loc[0]]
		}
		description = strings.TrimSpace(rest)
	} else if m := titleLinePattern.FindStringSubmatch(block); m != nil {
		title = m[1]
	} else {
		return "", "", false
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", false
	}
	return title, description, true
}

func captureSection(pattern *regexp.Regexp, block string) string {
	m := pattern.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	body := m[1]
	if i := strings.Index(body, sectionEnd); i >= 0 {
		body = body[:i]
	}
	return strings.TrimSpace(body)
}

func captureFenced(pattern *regexp.Regexp, block string) string {
	m := pattern.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
