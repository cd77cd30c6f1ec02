package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerTagsService(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "docuscan-api", "info")

	logger.Info("started", "port", "8080")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v", err)
	}
	if line["service"] != "docuscan-api" {
		t.Fatalf("expected the service attribute, got %v", line)
	}
	if line["msg"] != "started" || line["port"] != "8080" {
		t.Fatalf("unexpected line: %v", line)
	}
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "docuscan-worker", "warn")

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info must be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn line missing: %s", out)
	}
}

func TestLoggerUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "docuscan-api", "verbose")

	logger.Info("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("unknown level must fall back to info: %s", buf.String())
	}
}
