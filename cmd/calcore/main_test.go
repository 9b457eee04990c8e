package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const cliEvents = `
events:
  - id: standup
    title: Standup
    date: 2025-03-10
    start: "09:00"
    end: "10:00"
    recurrence:
      frequency: weekly
      days_of_week: [1, 3, 5]
      end_type: after
      end_value: 5
  - id: review
    title: Review
    date: 2025-03-10
    start: "09:30"
    end: "10:30"
`

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	dir := t.TempDir()
	eventsPath := filepath.Join(dir, "events.yaml")
	if err := os.WriteFile(eventsPath, []byte(cliEvents), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{
		"--config", filepath.Join(dir, "calcore.yaml"),
		"--events", eventsPath,
		"--today", "2025-03-10",
	}, args...))

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("calcore %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestExpandCommand(t *testing.T) {
	out := runCLI(t, "expand", "--from", "2025-03-10", "--to", "2025-03-14")

	for _, want := range []string{"standup_2025-03-10", "standup_2025-03-12", "standup_2025-03-14", "review"} {
		if !strings.Contains(out, want) {
			t.Errorf("expand output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "standup_2025-03-17") {
		t.Errorf("expand output contains instance outside the window:\n%s", out)
	}
}

func TestLayoutCommand(t *testing.T) {
	out := runCLI(t, "layout", "--date", "2025-03-10", "--days", "1")

	if !strings.Contains(out, "conflict group, 2 columns") {
		t.Errorf("expected a two-column conflict group:\n%s", out)
	}
	if !strings.Contains(out, "[1/2] 09:00-10:00 Standup") || !strings.Contains(out, "[2/2] 09:30-10:30 Review") {
		t.Errorf("unexpected column assignment:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "calcore ") {
		t.Errorf("unexpected version output %q", out.String())
	}
}

func TestCommandErrorPrintedOnce(t *testing.T) {
	dir := t.TempDir()
	defer func() { expandFrom = "" }()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{
		"--config", filepath.Join(dir, "calcore.yaml"),
		"--events", filepath.Join(dir, "events.yaml"),
		"expand", "--from", "yesterday",
	})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected an error for a malformed --from")
	}
	if strings.Contains(out.String(), "Error:") {
		t.Errorf("command error should be left to the caller, got:\n%s", out.String())
	}
}
