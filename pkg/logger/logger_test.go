package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, file, err := New(Options{Level: "warn", Format: "json", Name: "api", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if file != nil {
		t.Fatalf("no file expected with Output set")
	}

	l.Info("dropped")
	l.Warn("kept", "contact_id", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if rec["msg"] != "kept" || rec["app"] != "api" || rec["contact_id"] != float64(7) {
		t.Fatalf("record = %v", rec)
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatalf("New(level=loud) expected error")
	}
	if _, _, err := New(Options{Format: "xml", Output: &bytes.Buffer{}}); err == nil {
		t.Fatalf("New(format=xml) expected error")
	}
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cli.log")
	if _, err := Init(Options{File: path}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Log("scrape started for %d contacts", 3)
	LogError(errors.New("boom"), "refresh failed")
	CloseLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "scrape started for 3 contacts") || !strings.Contains(out, "error=boom") {
		t.Fatalf("log file = %q", out)
	}
}
