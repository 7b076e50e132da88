package config

import (
	"strings"
	"testing"
	"time"
)

func taskDoc(task *TaskSpec) *File {
	return &File{Tasks: map[string]*TaskSpec{"job": task}}
}

func TestValidateRequiresCommand(t *testing.T) {
	err := Validate(taskDoc(&TaskSpec{}))
	if err == nil || !strings.Contains(err.Error(), "requires a command") {
		t.Fatalf("expected a command error, got %v", err)
	}
}

func TestValidateRejectsTimeoutWithCheck(t *testing.T) {
	task := &TaskSpec{
		Command: "sleep 10",
		Timeout: Duration{Duration: time.Second},
		Check:   &CheckSpec{File: "out.log"},
	}
	err := Validate(taskDoc(task))
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Fatalf("expected a mutual exclusion error, got %v", err)
	}
}

func TestValidateCheckSources(t *testing.T) {
	none := &TaskSpec{Command: "sleep 10", Check: &CheckSpec{}}
	if err := Validate(taskDoc(none)); err == nil || !strings.Contains(err.Error(), "requires one of") {
		t.Fatalf("expected a missing source error, got %v", err)
	}

	both := &TaskSpec{
		Command: "sleep 10",
		Check: &CheckSpec{
			File: "out.log",
			TCP:  &TCPCheckSpec{Address: "localhost:9000"},
		},
	}
	if err := Validate(taskDoc(both)); err == nil || !strings.Contains(err.Error(), "multiple check sources") {
		t.Fatalf("expected a multiple source error, got %v", err)
	}
}

func TestValidateCheckDetails(t *testing.T) {
	httpMissing := &TaskSpec{Command: "srv", Check: &CheckSpec{HTTP: &HTTPCheckSpec{}}}
	if err := Validate(taskDoc(httpMissing)); err == nil || !strings.Contains(err.Error(), "requires a url") {
		t.Fatalf("expected a url error, got %v", err)
	}

	tcpMissing := &TaskSpec{Command: "srv", Check: &CheckSpec{TCP: &TCPCheckSpec{}}}
	if err := Validate(taskDoc(tcpMissing)); err == nil || !strings.Contains(err.Error(), "requires an address") {
		t.Fatalf("expected an address error, got %v", err)
	}
}

func TestValidateDefaults(t *testing.T) {
	doc := &File{Defaults: Defaults{KillAttempts: -1}}
	if err := Validate(doc); err == nil || !strings.Contains(err.Error(), "killAttempts") {
		t.Fatalf("expected a killAttempts error, got %v", err)
	}

	if err := Validate(nil); err == nil {
		t.Fatalf("expected an error for a nil document")
	}
}

func TestDurationIsSet(t *testing.T) {
	var d Duration
	if d.IsSet() {
		t.Fatalf("zero duration should not be set")
	}
	if err := d.UnmarshalText([]byte("")); err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if !d.IsSet() {
		t.Fatalf("explicit empty duration should be set")
	}
	if err := d.UnmarshalText([]byte("150ms")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Duration != 150*time.Millisecond {
		t.Fatalf("unexpected duration %v", d.Duration)
	}
	if err := d.UnmarshalText([]byte("nonsense")); err == nil {
		t.Fatalf("expected an error for an invalid duration")
	}
}
