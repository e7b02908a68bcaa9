package lsp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"glint/internal/cache"
	"glint/internal/diag"
	"glint/internal/linter"
	"glint/internal/runner"
)

// syncBuffer lets the test read output while the server writes it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func notify(t *testing.T, s *Server, method string, params any) {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.handleMessage(&rpcMessage{JSONRPC: "2.0", Method: method, Params: raw}); err != nil {
		t.Fatalf("%s: %v", method, err)
	}
}

func waitFor(t *testing.T, out *syncBuffer, substr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), substr) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q in output:\n%s", substr, out.String())
}

func newTestServer(out *syncBuffer, lint LintFunc, results *cache.Memory) *Server {
	return NewServer(strings.NewReader(""), out, ServerOptions{
		Debounce: 5 * time.Millisecond,
		Lint:     lint,
		ToolName: "fake",
		Cache:    results,
	})
}

func TestServerPublishesDiagnostics(t *testing.T) {
	var out syncBuffer
	lint := func(ctx context.Context, req runner.Request) (runner.Result, error) {
		return runner.Result{Diagnostics: []diag.Diagnostic{
			diag.New("fake", req.Path, 10, 2, diag.SevError, "unused variable x"),
		}}, nil
	}
	s := newTestServer(&out, lint, nil)

	notify(t, s, "textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: "file:///tmp/proj/main.go", Version: 1, Text: "package main\n"},
	})
	waitFor(t, &out, "publishDiagnostics")
	output := out.String()
	// 1-based → 0-based
	if !strings.Contains(output, `"line":9`) || !strings.Contains(output, `"character":1`) {
		t.Fatalf("position not converted to 0-based:\n%s", output)
	}
	if !strings.Contains(output, `"severity":1`) {
		t.Fatalf("severity not mapped:\n%s", output)
	}
	if !strings.Contains(output, `"source":"glint"`) {
		t.Fatalf("source missing:\n%s", output)
	}
}

func TestServerDebounceCollapsesEdits(t *testing.T) {
	var out syncBuffer
	var calls atomic.Int32
	lint := func(ctx context.Context, req runner.Request) (runner.Result, error) {
		calls.Add(1)
		return runner.Result{}, nil
	}
	s := newTestServer(&out, lint, nil)

	notify(t, s, "textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: "file:///tmp/proj/main.go", Version: 1, Text: "a"},
	})
	for i := 2; i <= 6; i++ {
		notify(t, s, "textDocument/didChange", didChangeTextDocumentParams{
			TextDocument:   versionedTextDocumentIdentifier{URI: "file:///tmp/proj/main.go", Version: i},
			ContentChanges: []textDocumentContentChangeEvent{{Text: fmt.Sprintf("edit %d", i)}},
		})
	}
	waitFor(t, &out, "publishDiagnostics")
	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("debounce failed: %d lint calls", got)
	}
}

func TestServerToolMissingWarnsOnce(t *testing.T) {
	var out syncBuffer
	var calls atomic.Int32
	lint := func(ctx context.Context, req runner.Request) (runner.Result, error) {
		calls.Add(1)
		return runner.Result{}, fmt.Errorf("%w: golangci-lint", linter.ErrToolNotFound)
	}
	s := newTestServer(&out, lint, nil)

	notify(t, s, "textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: "file:///tmp/proj/main.go", Version: 1, Text: "a"},
	})
	waitFor(t, &out, "window/showMessage")

	notify(t, s, "textDocument/didChange", didChangeTextDocumentParams{
		TextDocument:   versionedTextDocumentIdentifier{URI: "file:///tmp/proj/main.go", Version: 2},
		ContentChanges: []textDocumentContentChangeEvent{{Text: "b"}},
	})
	time.Sleep(100 * time.Millisecond)
	if got := strings.Count(out.String(), "window/showMessage"); got != 1 {
		t.Fatalf("warning shown %d times, want once", got)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("passes after warning must be skipped, got %d calls", got)
	}

	// смена конфигурации снимает предупреждение — проход запускается снова
	notify(t, s, "workspace/didChangeConfiguration", didChangeConfigurationParams{
		Settings: json.RawMessage(`{"glint":{"tool":"staticcheck"}}`),
	})
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && calls.Load() < 2 {
		time.Sleep(5 * time.Millisecond)
	}
	if calls.Load() < 2 {
		t.Fatalf("configuration change did not re-enable passes")
	}
}

func TestServerConfigurationSwitchesTool(t *testing.T) {
	var out syncBuffer
	var mu sync.Mutex
	var seen []runner.Request
	lint := func(ctx context.Context, req runner.Request) (runner.Result, error) {
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()
		return runner.Result{}, nil
	}
	s := newTestServer(&out, lint, nil)

	notify(t, s, "textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: "file:///tmp/proj/main.go", Version: 1, Text: "a"},
	})
	waitFor(t, &out, "publishDiagnostics")

	notify(t, s, "workspace/didChangeConfiguration", didChangeConfigurationParams{
		Settings: json.RawMessage(`{"glint":{"tool":"staticcheck","command":"/opt/bin/staticcheck"}}`),
	})
	notify(t, s, "textDocument/didChange", didChangeTextDocumentParams{
		TextDocument:   versionedTextDocumentIdentifier{URI: "file:///tmp/proj/main.go", Version: 2},
		ContentChanges: []textDocumentContentChangeEvent{{Text: "b"}},
	})
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) < 2 {
		t.Fatalf("lint not re-run after configuration change: %d calls", len(seen))
	}
	// до смены настроек проход шёл с инструментом из запуска
	if seen[0].Tool != "fake" || seen[0].Command != "" {
		t.Fatalf("initial request unexpected: %+v", seen[0])
	}
	last := seen[len(seen)-1]
	if last.Tool != "staticcheck" || last.Command != "/opt/bin/staticcheck" {
		t.Fatalf("new settings not applied to pass: tool=%q command=%q", last.Tool, last.Command)
	}
}

func TestServerMemoizesByContent(t *testing.T) {
	var out syncBuffer
	var calls atomic.Int32
	lint := func(ctx context.Context, req runner.Request) (runner.Result, error) {
		calls.Add(1)
		return runner.Result{Diagnostics: []diag.Diagnostic{
			diag.New("fake", req.Path, 1, 1, diag.SevWarning, "w"),
		}}, nil
	}
	results, err := cache.NewMemory(8, nil)
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(&out, lint, results)

	notify(t, s, "textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: "file:///tmp/proj/main.go", Version: 1, Text: "same"},
	})
	waitFor(t, &out, "publishDiagnostics")

	// то же содержимое — инструмент не вызывается повторно
	notify(t, s, "textDocument/didChange", didChangeTextDocumentParams{
		TextDocument:   versionedTextDocumentIdentifier{URI: "file:///tmp/proj/main.go", Version: 2},
		ContentChanges: []textDocumentContentChangeEvent{{Text: "same"}},
	})
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && strings.Count(out.String(), "publishDiagnostics") < 2 {
		time.Sleep(5 * time.Millisecond)
	}
	if got := strings.Count(out.String(), "publishDiagnostics"); got < 2 {
		t.Fatalf("cache hit must still publish, got %d publishes", got)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("unchanged buffer re-invoked the tool: %d calls", got)
	}
}

func TestServerDidCloseClearsDiagnostics(t *testing.T) {
	var out syncBuffer
	lint := func(ctx context.Context, req runner.Request) (runner.Result, error) {
		return runner.Result{Diagnostics: []diag.Diagnostic{
			diag.New("fake", req.Path, 1, 1, diag.SevError, "e"),
		}}, nil
	}
	s := newTestServer(&out, lint, nil)

	notify(t, s, "textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: "file:///tmp/proj/main.go", Version: 1, Text: "a"},
	})
	waitFor(t, &out, `"message":"e"`)

	notify(t, s, "textDocument/didClose", didCloseTextDocumentParams{
		TextDocument: textDocumentIdentifier{URI: "file:///tmp/proj/main.go"},
	})
	waitFor(t, &out, `"diagnostics":[]`)
}

func TestServerExitWithoutShutdown(t *testing.T) {
	var out syncBuffer
	s := newTestServer(&out, nil, nil)
	err := s.handleMessage(&rpcMessage{JSONRPC: "2.0", Method: "exit"})
	if err != ErrExitWithoutShutdown {
		t.Fatalf("expected ErrExitWithoutShutdown, got %v", err)
	}
}

func TestServerInitializeCapabilities(t *testing.T) {
	var out syncBuffer
	s := newTestServer(&out, nil, nil)
	id := json.RawMessage(`1`)
	if err := s.handleMessage(&rpcMessage{JSONRPC: "2.0", ID: id, Method: "initialize", Params: json.RawMessage(`{"rootUri":"file:///tmp/proj"}`)}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	output := out.String()
	if !strings.Contains(output, `"openClose":true`) {
		t.Fatalf("text sync capability missing:\n%s", output)
	}
	if !strings.Contains(output, `"includeText":true`) {
		t.Fatalf("save-with-text capability missing:\n%s", output)
	}
}
