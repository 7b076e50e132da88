package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// Sources attached to log records emitted during a supervised run.
const (
	SourceSystem = "system"
	SourceStdout = "stdout"
	SourceStderr = "stderr"
)

// LogRecord represents a structured log event ready for JSON encoding.
type LogRecord struct {
	Timestamp time.Time `json:"ts"`
	Run       string    `json:"run"`
	Level     string    `json:"level"`
	Message   string    `json:"msg"`
	Source    string    `json:"source"`
}

// NewLogRecord builds a structured record for the given run. Secrets in the
// message are redacted and a level is inferred when none is provided.
func NewLogRecord(run, source, level, message string) LogRecord {
	if level == "" {
		if inferred := inferLogLevel(message); inferred != "" {
			level = inferred
		} else {
			level = "info"
		}
	}
	if source == "" {
		source = SourceSystem
	}
	return LogRecord{
		Timestamp: time.Now(),
		Run:       run,
		Level:     level,
		Message:   RedactSecrets(message),
		Source:    source,
	}
}

var levelTokenPattern = regexp.MustCompile(`(?i)\b(error|warn|info)\b`)

func inferLogLevel(message string) string {
	matches := levelTokenPattern.FindStringSubmatch(message)
	if len(matches) < 2 {
		return ""
	}
	switch strings.ToLower(matches[1]) {
	case "error":
		return "error"
	case "warn":
		return "warn"
	case "info":
		return "info"
	default:
		return ""
	}
}

// EncodeLogRecord encodes a record to JSON, reporting errors to stderr if needed.
func EncodeLogRecord(enc *json.Encoder, stderr io.Writer, record LogRecord) {
	if enc == nil {
		return
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if err := enc.Encode(&record); err != nil {
		fmt.Fprintf(stderr, "error: encode log: %v\n", err)
	}
}
