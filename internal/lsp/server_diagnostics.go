package lsp

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"glint/internal/cache"
	"glint/internal/diag"
	"glint/internal/linter"
	"glint/internal/runner"
)

// scheduleLint debounces rapid edits into one pass. Each schedule bumps the
// sequence; a pass publishes only while it is still the latest, so stale
// results from overlapping passes are discarded (last result wins).
func (s *Server) scheduleLint() {
	s.mu.Lock()
	seq := atomic.AddUint64(&s.lintSeq, 1)
	atomic.StoreUint64(&s.latestSeq, seq)
	if s.lintCancel != nil {
		s.lintCancel()
	}
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	delay := s.debounce
	s.debounceTimer = time.AfterFunc(delay, func() {
		s.runLint(seq)
	})
	s.mu.Unlock()
}

func (s *Server) runLint(seq uint64) {
	if seq == 0 || !s.isLatestSeq(seq) {
		return
	}
	s.mu.Lock()
	if len(s.openDocs) == 0 || s.lint == nil {
		s.mu.Unlock()
		s.clearPublishedDiagnostics()
		return
	}
	uri := s.lastTouched
	if uri == "" {
		for open := range s.openDocs {
			uri = open
			break
		}
	}
	text, ok := s.openDocs[uri]
	if !ok {
		s.mu.Unlock()
		return
	}
	warned := s.toolWarned
	mode := s.mode
	toolName := s.toolName
	toolArgs := s.toolArgs
	toolCommand := s.toolCommand
	base := s.baseCtx
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithCancel(base)
	s.lintCancel = cancel
	s.mu.Unlock()

	path := uriToPath(uri)
	if path == "" {
		return
	}

	var key cache.Key
	if s.results != nil {
		keyArgs := toolArgs
		if toolCommand != "" {
			// смена исполняемого файла — другая эффективная команда
			keyArgs = append([]string{toolCommand}, toolArgs...)
		}
		key = cache.NewKey(toolName, keyArgs, []byte(text))
		if entry, hit := s.results.Get(key); hit {
			if s.isLatestSeq(seq) {
				s.publish(uri, entry.Diagnostics)
			}
			return
		}
	}

	if warned {
		// инструмент не найден, предупреждение уже показано —
		// молча пропускаем до смены конфигурации
		return
	}

	res, err := s.lint(ctx, runner.Request{
		Path:    path,
		Buffer:  []byte(text),
		Mode:    mode,
		Tool:    toolName,
		Command: toolCommand,
	})
	canceled := ctx.Err() != nil
	if canceled || !s.isLatestSeq(seq) {
		return
	}
	if err != nil {
		if errors.Is(err, linter.ErrToolNotFound) {
			s.warnToolMissing(err)
			return
		}
		// ToolInvocation/Timeout: surface once, publish nothing new;
		// хост перезапустит проход на следующем событии
		s.logf("lint pass failed: %v", err)
		s.publish(uri, nil)
		return
	}
	if res.Skipped != "" {
		s.logf("lint pass skipped: %s", res.Skipped)
		return
	}
	if s.results != nil {
		s.results.Put(key, cache.Entry{Diagnostics: res.Diagnostics, Dropped: res.Dropped})
	}
	s.publish(uri, res.Diagnostics)
}

// publish converts 1-based runner positions to 0-based LSP positions and
// sends them for uri.
func (s *Server) publish(uri string, diags []diag.Diagnostic) {
	list := make([]lspDiagnostic, 0, len(diags))
	for _, d := range diags {
		if len(list) >= s.maxDiagnostics {
			break
		}
		line := maxZero(d.Line - 1)
		col := maxZero(d.Col - 1)
		pos := position{Line: line, Character: col}
		list = append(list, lspDiagnostic{
			Range:    lspRange{Start: pos, End: pos},
			Severity: lspSeverity(d.Severity),
			Code:     d.Rule,
			Source:   "glint",
			Message:  d.Message,
		})
	}

	s.mu.Lock()
	if len(list) > 0 {
		s.published[uri] = struct{}{}
	} else {
		delete(s.published, uri)
	}
	s.mu.Unlock()

	if err := s.sendPublish(uri, list); err != nil {
		s.logf("failed to publish diagnostics: %v", err)
	}
}

// warnToolMissing shows the one-time user-visible warning. Later passes are
// skipped quietly until the configuration changes.
func (s *Server) warnToolMissing(err error) {
	s.mu.Lock()
	if s.toolWarned {
		s.mu.Unlock()
		return
	}
	s.toolWarned = true
	s.mu.Unlock()
	if sendErr := s.sendShowMessage(messageTypeWarning, err.Error()); sendErr != nil {
		s.logf("failed to send warning: %v", sendErr)
	}
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	uris := make([]string, 0, len(s.published))
	for uri := range s.published {
		uris = append(uris, uri)
	}
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	for _, uri := range uris {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}

func lspSeverity(s diag.Severity) int {
	switch s {
	case diag.SevError:
		return 1
	case diag.SevWarning:
		return 2
	default:
		return 3
	}
}
