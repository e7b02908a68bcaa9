package linter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRegistryGetKnown(t *testing.T) {
	r := NewRegistry()
	s, err := r.Get("golangci-lint")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.Command != "golangci-lint" {
		t.Fatalf("unexpected command: %q", s.Command)
	}
	if len(s.Args) == 0 || s.Args[0] != "run" {
		t.Fatalf("unexpected args: %v", s.Args)
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("clippy")
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	names := r.Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestExitOK(t *testing.T) {
	s := Spec{OKExitCodes: []int{1}}
	if !s.ExitOK(0) {
		t.Fatalf("exit 0 must always be OK")
	}
	if !s.ExitOK(1) {
		t.Fatalf("listed exit code rejected")
	}
	if s.ExitOK(3) {
		t.Fatalf("unlisted exit code accepted")
	}
}

func TestResolveOverride(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-lint")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	path, err := Resolve(Spec{Name: "fake", Command: "fake-lint"}, bin)
	if err != nil {
		t.Fatalf("Resolve with override: %v", err)
	}
	if path != bin {
		t.Fatalf("override ignored: %q", path)
	}
}

func TestResolveMissingOverride(t *testing.T) {
	_, err := Resolve(Spec{Name: "fake", Command: "fake-lint"}, "/nonexistent/fake-lint")
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestResolveMissingFromPath(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := Resolve(Spec{Name: "fake", Command: "definitely-not-a-real-linter"}, "")
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestResolveDirectoryOverrideRejected(t *testing.T) {
	_, err := Resolve(Spec{Name: "fake", Command: "fake-lint"}, t.TempDir())
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("directory override must fail, got %v", err)
	}
}
