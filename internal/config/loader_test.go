package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadValidManifest(t *testing.T) {
	dir := t.TempDir()
	workdir := filepath.Join(dir, "job")
	if err := os.Mkdir(workdir, 0o755); err != nil {
		t.Fatalf("mkdir workdir: %v", err)
	}

	t.Setenv("BUILD_TOKEN", "alpha")

	path := filepath.Join(dir, "leash.yaml")
	manifest := []byte(`version: "1"
defaults:
  gracePeriod: 3s
  interval: 2s
  killAttempts: 5
  capture: true
tasks:
  build:
    command: make release
    workdir: ./job
    timeout: 30m
    env:
      TOKEN: ${BUILD_TOKEN}
  transcode:
    command: ffmpeg -i in.ts out.mp4
    check:
      interval: 1m
      file: out.mp4
`)
	if err := os.WriteFile(path, manifest, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	build := doc.Tasks["build"]
	if build == nil {
		t.Fatalf("build task missing")
	}
	if got, want := build.Workdir, workdir; got != want {
		t.Fatalf("unexpected workdir: got %q want %q", got, want)
	}
	if got, want := build.Timeout.Duration, 30*time.Minute; got != want {
		t.Fatalf("unexpected timeout: got %v want %v", got, want)
	}
	if got, want := build.Env["TOKEN"], "alpha"; got != want {
		t.Fatalf("env not expanded: got %q want %q", got, want)
	}

	transcode := doc.Tasks["transcode"]
	if transcode == nil || transcode.Check == nil {
		t.Fatalf("transcode check missing")
	}
	if got, want := transcode.Check.Interval.Duration, time.Minute; got != want {
		t.Fatalf("unexpected interval: got %v want %v", got, want)
	}
	if transcode.Check.File != "out.mp4" {
		t.Fatalf("unexpected check file %q", transcode.Check.File)
	}

	if got, want := doc.Defaults.GracePeriod.Duration, 3*time.Second; got != want {
		t.Fatalf("unexpected default grace period: got %v want %v", got, want)
	}
	if doc.Defaults.Capture == nil || !*doc.Defaults.Capture {
		t.Fatalf("default capture not parsed")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leash.yaml")
	manifest := []byte(`version: "1"
tasks:
  job:
    command: sleep 5
    timeouts: 10s
`)
	if err := os.WriteFile(path, manifest, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "decode") {
		t.Fatalf("expected a decode error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
