package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		result := test.level.String()
		if result != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, result, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo},
	}

	for _, test := range tests {
		result := test.level.SlogLevel()
		if result != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, result, test.expected)
		}
	}
}

func TestInitForCLI(t *testing.T) {
	var buf bytes.Buffer

	InitForCLI(LevelInfo, &buf)

	if defaultLogger == nil {
		t.Error("Expected defaultLogger to be set after InitForCLI")
	}

	Info("test-subsystem", "test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Error("Expected log message to appear in output")
	}
	if !strings.Contains(output, "test-subsystem") {
		t.Error("Expected subsystem to appear in output")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Debug("test", "debug message")
	Info("test", "info message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be filtered out at INFO level")
	}
	if !strings.Contains(output, "info message") {
		t.Error("Info message should appear at INFO level")
	}
}

func TestErrorIncludesErrAttribute(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Error("test", errTest, "operation failed")

	output := buf.String()
	if !strings.Contains(output, "operation failed") {
		t.Error("expected message in output")
	}
	if !strings.Contains(output, errTest.Error()) {
		t.Error("expected error text in output")
	}
}

func TestAuditFormatsKeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Audit(AuditEvent{
		Action:   "start_harvest",
		Outcome:  "accepted",
		Pipeline: "example-source",
	})

	output := buf.String()
	for _, want := range []string{"[AUDIT]", "action=start_harvest", "outcome=accepted", "pipeline=example-source"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got %q", want, output)
		}
	}
}

func TestQueryFiltersByLevelAndSubsystem(t *testing.T) {
	ResetRingForTest()
	InitForCLI(LevelDebug, &bytes.Buffer{})

	Debug("pipelineA", "debug noise")
	Info("pipelineA", "pipelineA info")
	Warn("pipelineB", "pipelineB warning")

	results := Query(time.Time{}, LevelInfo, nil)
	if len(results) != 2 {
		t.Fatalf("expected 2 entries at LevelInfo+, got %d", len(results))
	}

	results = Query(time.Time{}, LevelDebug, []string{"pipelineB"})
	if len(results) != 1 || results[0].Subsystem != "pipelineB" {
		t.Fatalf("expected exactly the pipelineB entry, got %+v", results)
	}
}

func TestQueryFiltersBySince(t *testing.T) {
	ResetRingForTest()
	InitForCLI(LevelDebug, &bytes.Buffer{})

	Info("test", "before cutoff")
	cutoff := time.Now()
	Info("test", "after cutoff")

	results := Query(cutoff, LevelDebug, nil)
	if len(results) != 1 || results[0].Message != "after cutoff" {
		t.Fatalf("expected only the entry after cutoff, got %+v", results)
	}
}

var errTest = simpleError("boom")

type simpleError string

func (e simpleError) Error() string { return string(e) }
