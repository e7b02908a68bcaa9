package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) record(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recorder) waitForAny(t *testing.T, timeout time.Duration) []string {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if got := r.snapshot(); len(got) > 0 {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no change callback within %v", timeout)
	return nil
}

func startWatcher(t *testing.T, dir string, rec *recorder) {
	t.Helper()
	w, err := New(dir, rec.record, Options{
		Extensions: []string{".go"},
		Debounce:   20 * time.Millisecond,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)
	// даём fsnotify время на регистрацию
	time.Sleep(50 * time.Millisecond)
}

func TestWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "main.go")
	if err := os.WriteFile(target, []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	startWatcher(t, dir, rec)

	if err := os.WriteFile(target, []byte("package main // edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := rec.waitForAny(t, 2*time.Second)
	if got[0] != target {
		t.Fatalf("unexpected path: %q", got[0])
	}
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, dir, rec)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("unexpected callbacks: %v", got)
	}
}

func TestWatcherIgnoresMirrorWorkspaces(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, dir, rec)

	wsDir := filepath.Join(dir, ".glint-12345")
	if err := os.Mkdir(wsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(wsDir, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("mirror workspace events leaked: %v", got)
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "main.go")
	rec := &recorder{}
	startWatcher(t, dir, rec)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte("package main\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	rec.waitForAny(t, 2*time.Second)
	time.Sleep(100 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("burst not debounced: %d callbacks", len(got))
	}
}
