// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jllopis/agentprompts/pkg/audit"
	"github.com/jllopis/agentprompts/pkg/prompts"
)

const sampleDocument = `# Team

## Agent System Prompts

### 1. Planner (Lead)
Plans the work.

**Core Directives:**
- Break work down

---

Notes without a title.

---

### 2. Coder
Writes code.

**Protocols:**
- Open small pull requests
`

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, ctx context.Context, stdin string, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(ctx, args, strings.NewReader(stdin), &stdout, &stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeDocument(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "agentPrompt.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func readRecords(t *testing.T, path string) []prompts.AgentRecord {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var records []prompts.AgentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return records
}

func TestConvertWritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	input := writeDocument(t, dir, sampleDocument)
	output := filepath.Join(dir, "output.json")

	res := runCLI(t, context.Background(), "", "convert", "--input", input, "--output", output)
	if res.code != 0 {
		t.Fatalf("exit %d, stderr: %s", res.code, res.stderr)
	}
	want := "Successfully converted 2 agent prompts.\nOutput saved to " + output + "\n"
	if res.stdout != want {
		t.Fatalf("unexpected stdout %q", res.stdout)
	}

	records := readRecords(t, output)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Slug != "planner" || records[0].Name != "Planner (Lead)" {
		t.Fatalf("unexpected first record %+v", records[0])
	}
	if records[1].CustomInstructions != "- Open small pull requests" {
		t.Fatalf("unexpected instructions %q", records[1].CustomInstructions)
	}
}

func TestDefaultCommandUsesConfiguration(t *testing.T) {
	dir := t.TempDir()
	input := writeDocument(t, dir, sampleDocument)
	output := filepath.Join(dir, "agents.json")

	res := runCLI(t, context.Background(), "",
		"--set", "input.path="+input,
		"--set", "output.path="+output,
	)
	if res.code != 0 {
		t.Fatalf("exit %d, stderr: %s", res.code, res.stderr)
	}
	if len(readRecords(t, output)) != 2 {
		t.Fatalf("expected 2 records in %s", output)
	}
}

func TestConvertStdinToStdout(t *testing.T) {
	res := runCLI(t, context.Background(), sampleDocument,
		"convert", "--input", "-", "--output", "-", "--format", "yaml")
	if res.code != 0 {
		t.Fatalf("exit %d, stderr: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "slug: planner") || !strings.Contains(res.stdout, "slug: coder") {
		t.Fatalf("expected YAML records on stdout, got %q", res.stdout)
	}
	if strings.Contains(res.stdout, "Successfully converted") {
		t.Fatalf("status line leaked into stdout")
	}
	if !strings.Contains(res.stderr, "Successfully converted 2 agent prompts.") {
		t.Fatalf("expected status on stderr, got %q", res.stderr)
	}
}

func TestConvertMissingMarker(t *testing.T) {
	dir := t.TempDir()
	input := writeDocument(t, dir, "### 1. Orphan\nNo marker here.\n")
	output := filepath.Join(dir, "output.json")

	res := runCLI(t, context.Background(), "", "convert", "--input", input, "--output", output)
	if res.code != 4 {
		t.Fatalf("expected exit 4, got %d", res.code)
	}
	if !strings.Contains(res.stderr, "Error [MARKER_NOT_FOUND]") || !strings.Contains(res.stderr, "Hint:") {
		t.Fatalf("unexpected stderr %q", res.stderr)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("output must not be written, stat err: %v", err)
	}
}

func TestConvertJSONErrorOutput(t *testing.T) {
	dir := t.TempDir()
	res := runCLI(t, context.Background(), "",
		"--json", "convert", "--input", filepath.Join(dir, "missing.txt"))
	if res.code != 3 {
		t.Fatalf("expected exit 3, got %d", res.code)
	}

	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Hint    string `json:"hint"`
		} `json:"error"`
	}
	found := false
	for _, line := range strings.Split(res.stderr, "\n") {
		if !strings.HasPrefix(line, `{"error"`) {
			continue
		}
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			t.Fatalf("decode error line: %v", err)
		}
		found = true
	}
	if !found {
		t.Fatalf("no JSON error in stderr %q", res.stderr)
	}
	if payload.Error.Code != "SOURCE_UNAVAILABLE" || payload.Error.Hint == "" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestInvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown format", args: []string{"convert", "--format", "xml", "--output", "out.xml"}},
		{name: "unknown flag", args: []string{"convert", "--nope"}},
		{name: "bad set", args: []string{"--set", "novalue", "version"}},
		{name: "bad log level", args: []string{"--log-level", "loud", "version"}},
		{name: "watch stdin", args: []string{"convert", "--watch", "--input", "-"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, context.Background(), "", tt.args...)
			if res.code != 2 {
				t.Fatalf("expected exit 2, got %d (stderr %q)", res.code, res.stderr)
			}
		})
	}
}

func TestHistoryRecordsRuns(t *testing.T) {
	dir := t.TempDir()
	input := writeDocument(t, dir, sampleDocument)
	db := filepath.Join(dir, "history.db")
	store := []string{"--set", "store.enabled=true", "--set", "store.path=" + db}

	args := append(append([]string{}, store...), "convert", "--input", input, "--output", filepath.Join(dir, "out.json"))
	if res := runCLI(t, context.Background(), "", args...); res.code != 0 {
		t.Fatalf("convert exit %d: %s", res.code, res.stderr)
	}
	args = append(append([]string{}, store...), "convert", "--input", filepath.Join(dir, "missing.txt"))
	if res := runCLI(t, context.Background(), "", args...); res.code != 3 {
		t.Fatalf("expected failing convert, got %d", res.code)
	}

	args = append(append([]string{"--json"}, store...), "history")
	res := runCLI(t, context.Background(), "", args...)
	if res.code != 0 {
		t.Fatalf("history exit %d: %s", res.code, res.stderr)
	}
	var runs []audit.Run
	if err := json.Unmarshal([]byte(res.stdout), &runs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	statuses := map[string]bool{}
	for _, run := range runs {
		statuses[run.Status] = true
	}
	if !statuses[audit.StatusSucceeded] || !statuses[audit.StatusFailed] {
		t.Fatalf("expected one succeeded and one failed run, got %+v", runs)
	}

	args = append(append([]string{}, store...), "history", "--status", "failed")
	res = runCLI(t, context.Background(), "", args...)
	if res.code != 0 || !strings.Contains(res.stdout, "SOURCE_UNAVAILABLE") {
		t.Fatalf("unexpected history table (exit %d): %q", res.code, res.stdout)
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	res := runCLI(t, context.Background(), "",
		"--set", "store.path="+filepath.Join(t.TempDir(), "none.db"), "history")
	if res.code != 3 {
		t.Fatalf("expected exit 3, got %d", res.code)
	}
}

func TestInspectJSON(t *testing.T) {
	res := runCLI(t, context.Background(), sampleDocument, "--json", "inspect", "--input", "-")
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	var results []inspectResult
	if err := json.Unmarshal([]byte(res.stdout), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(results))
	}
	if !results[0].Sections.CoreDirectives || results[0].Sections.Protocols {
		t.Fatalf("unexpected sections for planner %+v", results[0].Sections)
	}
	if results[1].Recognized {
		t.Fatalf("expected block 1 to be unrecognized")
	}
	if results[2].Slug != "coder" || !results[2].Sections.Protocols {
		t.Fatalf("unexpected coder result %+v", results[2])
	}
}

func TestInspectTable(t *testing.T) {
	res := runCLI(t, context.Background(), sampleDocument, "inspect", "--input", "-")
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "(unrecognized)") || !strings.Contains(res.stdout, "planner") {
		t.Fatalf("unexpected table %q", res.stdout)
	}
}

func TestConvertWatchRunsUntilCancelled(t *testing.T) {
	dir := t.TempDir()
	input := writeDocument(t, dir, sampleDocument)
	output := filepath.Join(dir, "output.json")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	res := runCLI(t, ctx, "",
		"--set", "watch.interval=50ms",
		"convert", "--watch", "--input", input, "--output", output)
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "Successfully converted 2 agent prompts.") {
		t.Fatalf("expected initial conversion, got %q", res.stdout)
	}
	if len(readRecords(t, output)) != 2 {
		t.Fatalf("expected records in %s", output)
	}
}

func TestVersion(t *testing.T) {
	res := runCLI(t, context.Background(), "", "version")
	if res.code != 0 || !strings.HasPrefix(res.stdout, "agentprompts "+version) {
		t.Fatalf("unexpected version output (exit %d): %q", res.code, res.stdout)
	}
}
