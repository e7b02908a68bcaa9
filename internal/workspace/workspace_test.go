package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("package x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestMirrorWritesBufferAndLinksSiblings(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "main.go", "util.go", "notes.txt")

	ws, err := Mirror(dir, filepath.Join(dir, "main.go"), []byte("package main // edited\n"), Options{Extensions: []string{".go"}})
	if err != nil {
		t.Fatalf("Mirror: %v", err)
	}
	defer ws.Cleanup()

	got, err := os.ReadFile(ws.Target)
	if err != nil {
		t.Fatalf("read mirrored target: %v", err)
	}
	if string(got) != "package main // edited\n" {
		t.Fatalf("target does not hold buffer content: %q", got)
	}
	if _, err := os.Stat(filepath.Join(ws.Dir, "util.go")); err != nil {
		t.Fatalf("sibling not mirrored: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ws.Dir, "notes.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("non-matching extension mirrored")
	}
	if !strings.HasPrefix(filepath.Base(ws.Dir), DefaultPrefix) {
		t.Fatalf("workspace name %q missing prefix", ws.Dir)
	}
}

func TestMirrorFileCap(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.go", "b.go", "c.go")

	_, err := Mirror(dir, filepath.Join(dir, "a.go"), nil, Options{MaxFiles: 2, Extensions: []string{".go"}})
	if !errors.Is(err, ErrTooManyFiles) {
		t.Fatalf("expected ErrTooManyFiles, got %v", err)
	}
	// ничего не должно остаться после отказа
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.IsDir() {
			t.Fatalf("leftover directory %q after rejected mirror", e.Name())
		}
	}
}

func TestCleanupIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "main.go")

	ws, err := Mirror(dir, filepath.Join(dir, "main.go"), []byte("x"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.Cleanup(); err != nil {
		t.Fatalf("first cleanup: %v", err)
	}
	if err := ws.Cleanup(); err != nil {
		t.Fatalf("second cleanup: %v", err)
	}
	if _, err := os.Stat(ws.Dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("workspace survived cleanup")
	}
}

func TestOverlappingMirrorsDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "main.go")
	target := filepath.Join(dir, "main.go")

	a, err := Mirror(dir, target, []byte("a"), Options{Extensions: []string{".go"}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Mirror(dir, target, []byte("b"), Options{Extensions: []string{".go"}})
	if err != nil {
		t.Fatal(err)
	}
	if a.Dir == b.Dir {
		t.Fatalf("overlapping passes share workspace %q", a.Dir)
	}
	if err := a.Cleanup(); err != nil {
		t.Fatal(err)
	}
	// чистка первого не должна трогать второй
	if got, err := os.ReadFile(b.Target); err != nil || string(got) != "b" {
		t.Fatalf("second workspace damaged: %q, %v", got, err)
	}
	if err := b.Cleanup(); err != nil {
		t.Fatal(err)
	}
}

func TestRelMapsBackToOrigin(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "main.go")

	ws, err := Mirror(dir, filepath.Join(dir, "main.go"), []byte("x"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Cleanup()

	if got := ws.Rel(filepath.Join(ws.Dir, "main.go")); got != filepath.Join(dir, "main.go") {
		t.Fatalf("absolute mirror path not translated: %q", got)
	}
	if got := ws.Rel("main.go"); got != filepath.Join(dir, "main.go") {
		t.Fatalf("relative path not translated: %q", got)
	}
	outside := filepath.Join(string(filepath.Separator), "usr", "lib", "x.go")
	if got := ws.Rel(outside); got != outside {
		t.Fatalf("outside path mangled: %q", got)
	}
}

func TestMirrorUnnamedSiblings(t *testing.T) {
	dir := t.TempDir()
	// target file does not yet exist on disk — buffer only
	ws, err := Mirror(dir, filepath.Join(dir, "fresh.go"), []byte("package fresh\n"), Options{Extensions: []string{".go"}})
	if err != nil {
		t.Fatalf("Mirror of unsaved-on-disk file: %v", err)
	}
	defer ws.Cleanup()
	if got, err := os.ReadFile(ws.Target); err != nil || string(got) != "package fresh\n" {
		t.Fatalf("buffer not written: %q, %v", got, err)
	}
}
