package cliutil

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogRecordInfersLevel(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected string
	}{
		{name: "errorToken", message: "[ERROR] failed to launch", expected: "error"},
		{name: "warnToken", message: "WARN process needs attention", expected: "warn"},
		{name: "infoToken", message: "info: process exited", expected: "info"},
		{name: "noTokenDefaults", message: "process launched", expected: "info"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			record := NewLogRecord("run-1", SourceSystem, "", tc.message)
			if record.Level != tc.expected {
				t.Fatalf("expected level %q, got %q", tc.expected, record.Level)
			}
		})
	}
}

func TestNewLogRecordKeepsProvidedLevel(t *testing.T) {
	record := NewLogRecord("run-1", SourceStdout, "debug", "custom level")
	if record.Level != "debug" {
		t.Fatalf("expected level %q, got %q", "debug", record.Level)
	}
	if record.Source != SourceStdout {
		t.Fatalf("expected source %q, got %q", SourceStdout, record.Source)
	}
	if record.Run != "run-1" {
		t.Fatalf("expected run %q, got %q", "run-1", record.Run)
	}
}

func TestNewLogRecordRedactsSecrets(t *testing.T) {
	record := NewLogRecord("run-1", SourceSystem, "", `launching with ${API_TOKEN} AWS_SECRET_ACCESS_KEY="super-secret"`)

	if strings.Contains(record.Message, "${API_TOKEN}") {
		t.Fatalf("expected template placeholder to be redacted, got %q", record.Message)
	}
	if strings.Contains(record.Message, "super-secret") {
		t.Fatalf("expected secret value to be redacted, got %q", record.Message)
	}
	if !strings.Contains(record.Message, `AWS_SECRET_ACCESS_KEY="[redacted]"`) {
		t.Fatalf("expected known secret key redacted, got %q", record.Message)
	}
}

func TestEncodeLogRecordRoundTrips(t *testing.T) {
	var out bytes.Buffer
	var errBuf bytes.Buffer

	EncodeLogRecord(json.NewEncoder(&out), &errBuf, NewLogRecord("run-2", SourceStderr, "warn", "slow start"))

	if errBuf.Len() != 0 {
		t.Fatalf("unexpected stderr output: %s", errBuf.String())
	}

	var record LogRecord
	if err := json.Unmarshal(out.Bytes(), &record); err != nil {
		t.Fatalf("failed to unmarshal log record: %v", err)
	}
	if record.Message != "slow start" || record.Level != "warn" || record.Run != "run-2" {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.Timestamp.IsZero() {
		t.Fatalf("expected a timestamp on the encoded record")
	}
}
