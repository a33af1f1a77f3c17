package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		config      *Config
		expectError bool
	}{
		{name: "default", config: DefaultConfig()},
		{name: "debug json with caller", config: &Config{Level: DebugLevel, Format: JSONFormat, Output: StderrOutput, CallerInfo: true}},
		{
			name:        "bad level",
			config:      &Config{Level: "loud", Format: TextFormat, Output: StderrOutput},
			expectError: true,
		},
		{
			name:        "bad format",
			config:      &Config{Level: InfoLevel, Format: "xml", Output: StderrOutput},
			expectError: true,
		},
		{
			name:        "file output without path",
			config:      &Config{Level: InfoLevel, Format: TextFormat, Output: FileOutput},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWithFieldsAccumulate(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, InfoLevel, JSONFormat)

	log.WithComponent("matcher").WithField("mode", "fir-links-sid").Info("classified")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "matcher" {
		t.Errorf("expected component field, got %v", entry["component"])
	}
	if entry["mode"] != "fir-links-sid" {
		t.Errorf("expected mode field, got %v", entry["mode"])
	}
	if entry["msg"] != "classified" {
		t.Errorf("expected msg 'classified', got %v", entry["msg"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, WarnLevel, TextFormat)

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn line should be written: %q", out)
	}
}

func TestStageTracker(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, DebugLevel, TextFormat)

	tracker := NewStageTracker(log, "run")
	tracker.Begin("extract")
	tracker.Begin("match")
	tracker.Complete(Fields{"rows": 3})

	stages := tracker.Stages()
	if len(stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(stages))
	}
	if stages[0].Name != "extract" || stages[1].Name != "match" {
		t.Errorf("unexpected stage order: %+v", stages)
	}
	if !strings.Contains(buf.String(), "Operation completed") {
		t.Errorf("expected completion line, got %q", buf.String())
	}
}

func TestStageTrackerFail(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, DebugLevel, TextFormat)

	tracker := NewStageTracker(log, "run")
	tracker.Begin("extract")
	tracker.Fail(errors.New("missing column"))

	out := buf.String()
	if !strings.Contains(out, "Operation failed") || !strings.Contains(out, "stage=extract") {
		t.Errorf("expected failure line naming the stage, got %q", out)
	}
}
