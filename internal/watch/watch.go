// Package watch re-lints files when they change on disk. It is a host in
// the same sense the LSP server is one: it decides when to re-trigger a
// pass, the runner stays oblivious.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// OnChange receives the path of a changed file after debouncing.
type OnChange func(ctx context.Context, path string)

// Options configures a Watcher.
type Options struct {
	// Extensions limits events to matching files (e.g. [".go"]).
	Extensions []string
	// Debounce collapses bursts of events per file; default 500ms.
	Debounce time.Duration
	// WorkspacePrefix names mirror directories to ignore; default ".glint-".
	WorkspacePrefix string
	Logger          *slog.Logger
}

// Watcher follows a directory tree and invokes a callback per changed file.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onChange OnChange
	opts     Options
	log      *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher rooted at dir. Hidden directories, vendor trees and
// glint's own mirror workspaces are skipped.
func New(dir string, onChange OnChange, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.WorkspacePrefix == "" {
		opts.WorkspacePrefix = ".glint-"
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	w := &Watcher{
		fsw:      fsw,
		onChange: onChange,
		opts:     opts,
		log:      log,
		pending:  make(map[string]*time.Timer),
	}
	if err := w.addTree(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if w.skipPath(event.Name) {
		return
	}
	if event.Op&fsnotify.Create != 0 {
		// новые подкаталоги подхватываем на лету
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warn("failed to watch new directory",
					slog.String("path", event.Name),
					slog.String("error", err.Error()))
			}
			return
		}
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if !w.matchExt(event.Name) {
		return
	}
	w.debounce(ctx, event.Name)
}

// debounce schedules the callback once per quiet period per file.
func (w *Watcher) debounce(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.onChange(ctx, path)
	})
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) skipDir(name string) bool {
	if strings.HasPrefix(name, w.opts.WorkspacePrefix) {
		return true
	}
	if strings.HasPrefix(name, ".") {
		return true
	}
	return name == "vendor" || name == "node_modules" || name == "testdata"
}

func (w *Watcher) skipPath(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, w.opts.WorkspacePrefix) {
			return true
		}
	}
	return false
}

func (w *Watcher) matchExt(path string) bool {
	if len(w.opts.Extensions) == 0 {
		return true
	}
	for _, ext := range w.opts.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
