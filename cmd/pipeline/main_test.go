package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"reelforge/use_cases"
)

func TestLogRunIncomplete(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logRunIncomplete(logger, &use_cases.PartialStageError{
		Stage:   "voice",
		Missing: 2,
		Total:   5,
		RunDir:  "/tmp/run",
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["stage"] != "voice" {
		t.Errorf("stage = %v, want voice", entry["stage"])
	}
	if entry["missing"] != float64(2) {
		t.Errorf("missing = %v, want 2", entry["missing"])
	}
	if entry["total"] != float64(5) {
		t.Errorf("total = %v, want 5", entry["total"])
	}
	if entry["run_dir"] != "/tmp/run" {
		t.Errorf("run_dir = %v, want /tmp/run", entry["run_dir"])
	}
}
