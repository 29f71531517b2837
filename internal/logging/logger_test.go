package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.Info().Str("table", "dim_blocks").Msg("Reading raw table")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["table"] != "dim_blocks" {
		t.Errorf("Expected table field 'dim_blocks', got %v", entry["table"])
	}
	if entry["level"] != "info" {
		t.Errorf("Expected level 'info', got %v", entry["level"])
	}
}

func TestNewLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered at warn level, got %q", buf.String())
	}

	log.Warn().Msg("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected warn message in output, got %q", buf.String())
	}
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "loud", Format: "json", Output: &buf})

	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected info level fallback, got %q", buf.String())
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Output: &buf})

	log.Info().Str("path", "data/raw/x.csv").Msg("Reading")
	if !strings.Contains(buf.String(), "path=data/raw/x.csv") {
		t.Errorf("Expected console key=value output, got %q", buf.String())
	}
}

func TestInitOnlyOnce(t *testing.T) {
	Reset()
	defer Reset()

	var first, second bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &first})
	Init(Config{Level: "info", Format: "json", Output: &second})

	Info().Msg("hello")
	if first.Len() == 0 {
		t.Error("Expected first Init configuration to be used")
	}
	if second.Len() != 0 {
		t.Error("Expected second Init call to be ignored")
	}
}

func TestResetAllowsInit(t *testing.T) {
	Reset()
	defer Reset()

	var first, second bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &first})
	Reset()
	Init(Config{Level: "info", Format: "json", Output: &second})

	Info().Msg("hello")
	if first.Len() != 0 || second.Len() == 0 {
		t.Errorf("Expected logger from Init after Reset, got first=%q second=%q",
			first.String(), second.String())
	}
}
