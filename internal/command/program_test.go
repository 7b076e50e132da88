package command

import (
	"errors"
	"os"
	"path/filepath"
	stdruntime "runtime"
	"slices"
	"strings"
	"testing"
)

func TestParseHonorsQuoting(t *testing.T) {
	prog, err := Parse(`grep "hello world" 'a b.txt'`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"grep", "hello world", "a b.txt"}
	if !slices.Equal(prog.Args, want) {
		t.Fatalf("unexpected args %v, want %v", prog.Args, want)
	}
	if prog.Executable() != "grep" {
		t.Fatalf("unexpected executable %q", prog.Executable())
	}
	if !slices.Equal(prog.Arguments(), want[1:]) {
		t.Fatalf("unexpected arguments %v", prog.Arguments())
	}
}

func TestParseRejectsEmptyCommand(t *testing.T) {
	var verr *ValidationError
	if _, err := Parse("   "); !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestFromArgsCopiesArguments(t *testing.T) {
	args := []string{"sleep", "10"}
	prog, err := FromArgs(args)
	if err != nil {
		t.Fatalf("from args: %v", err)
	}
	args[1] = "mutated"
	if prog.Args[1] != "10" {
		t.Fatalf("program aliased the caller's slice")
	}
	if _, err := FromArgs(nil); err == nil {
		t.Fatalf("expected an error for an empty argument vector")
	}
}

func TestSetEnvMergesOverInherited(t *testing.T) {
	t.Setenv("LEASH_INHERITED_VAR", "from-parent")

	prog, err := Parse("env")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	prog.SetEnv(map[string]string{"LEASH_EXTRA_VAR": "injected"}, false)

	if !slices.Contains(prog.Env, "LEASH_INHERITED_VAR=from-parent") {
		t.Fatalf("inherited variable missing from %d merged entries", len(prog.Env))
	}
	if !slices.Contains(prog.Env, "LEASH_EXTRA_VAR=injected") {
		t.Fatalf("override missing from merged environment")
	}
}

func TestSetEnvReplaceDropsInherited(t *testing.T) {
	t.Setenv("LEASH_INHERITED_VAR", "from-parent")

	prog, err := Parse("env")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	prog.SetEnv(map[string]string{"ONLY": "this"}, true)

	if want := []string{"ONLY=this"}; !slices.Equal(prog.Env, want) {
		t.Fatalf("unexpected environment %v, want %v", prog.Env, want)
	}
}

func TestValidateRejectsMetacharacters(t *testing.T) {
	prog, err := Parse("echo hi; rm -rf /tmp/x")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = prog.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if !strings.Contains(verr.Reason, "metacharacter") {
		t.Fatalf("unexpected reason %q", verr.Reason)
	}
}

func TestValidateMissingExecutable(t *testing.T) {
	prog, err := Parse("definitely-not-a-real-binary-name --flag")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := prog.Validate(); err == nil {
		t.Fatalf("expected a validation error for a missing executable")
	}
}

func TestValidateRequiresExecutePermission(t *testing.T) {
	if stdruntime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "script")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	prog, err := FromArgs([]string{path})
	if err != nil {
		t.Fatalf("from args: %v", err)
	}
	_, err = prog.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if !strings.Contains(verr.Reason, "permission denied") {
		t.Fatalf("unexpected reason %q", verr.Reason)
	}
}

func TestValidateResolvesBareNames(t *testing.T) {
	if stdruntime.GOOS == "windows" {
		t.Skip("resolution test relies on sh being on PATH")
	}
	prog, err := Parse("sh -c true")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	path, err := prog.Validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Fatalf("expected an absolute resolved path, got %q", path)
	}
}
