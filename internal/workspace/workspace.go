// Package workspace materializes unsaved buffer content where an external
// tool can read it.
//
// A mirror is a uniquely named temporary directory created inside the
// target's own directory (module resolution in the wrapped tools walks up
// from the working directory, so the mirror must live under the project).
// Sibling sources are hard-linked in, the edited file is written from the
// live buffer, and the whole directory is removed when the pass ends —
// success or failure.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultMaxFiles bounds how many sibling files a mirror may carry before
// live linting is skipped. Matches the editor-plugin heuristic this tool
// descends from: above it, mirroring costs more than the lint is worth.
const DefaultMaxFiles = 40

// DefaultPrefix names mirror directories. Users are expected to add
// `.glint-*` to their editor's watcher exclusions.
const DefaultPrefix = ".glint-"

// ErrTooManyFiles reports that the target directory exceeds the mirror cap.
var ErrTooManyFiles = errors.New("too many files for live lint")

// Options tunes mirror creation.
type Options struct {
	// Prefix for the temporary directory name; empty means DefaultPrefix.
	Prefix string
	// MaxFiles caps mirrored siblings; 0 means DefaultMaxFiles, -1 unbounded.
	MaxFiles int
	// Extensions limits which sibling files are mirrored (e.g. [".go"]).
	// Empty mirrors every regular file.
	Extensions []string
}

// Workspace is one live mirror. Cleanup is safe to call more than once.
type Workspace struct {
	// Dir is the temporary directory the tool runs in.
	Dir string
	// Origin is the directory the mirror was built from.
	Origin string
	// Target is the mirrored path of the edited file inside Dir.
	Target string

	cleanupOnce sync.Once
	cleanupErr  error
}

// Mirror builds a workspace for target (a file inside dir) with the unsaved
// buffer contents. Sibling files matching opts.Extensions are hard-linked;
// the target itself is written from buffer. Hard links fall back to copies
// on filesystems that refuse them.
func Mirror(dir, target string, buffer []byte, opts Options) (*Workspace, error) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	maxFiles := opts.MaxFiles
	if maxFiles == 0 {
		maxFiles = DefaultMaxFiles
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read target directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !e.Type().IsRegular() {
			continue
		}
		if !matchExt(e.Name(), opts.Extensions) {
			continue
		}
		names = append(names, e.Name())
	}
	if maxFiles > 0 && len(names) > maxFiles {
		return nil, fmt.Errorf("%w: %d files in %s", ErrTooManyFiles, len(names), dir)
	}

	// MkdirTemp гарантирует уникальное имя — параллельные проходы не
	// сталкиваются на одной директории.
	tmp, err := os.MkdirTemp(dir, prefix)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	ws := &Workspace{Dir: tmp, Origin: dir}

	base := filepath.Base(target)
	for _, name := range names {
		dst := filepath.Join(tmp, name)
		if name == base {
			continue
		}
		src := filepath.Join(dir, name)
		if err := os.Link(src, dst); err != nil {
			if copyErr := copyFile(src, dst); copyErr != nil {
				ws.Cleanup()
				return nil, fmt.Errorf("mirror %s: %w", name, copyErr)
			}
		}
	}

	// Редактируемый файл всегда пишется из живого буфера, даже если он
	// ещё не существует на диске рядом с соседями.
	ws.Target = filepath.Join(tmp, base)
	if err := os.WriteFile(ws.Target, buffer, 0o644); err != nil {
		ws.Cleanup()
		return nil, fmt.Errorf("write buffer: %w", err)
	}
	return ws, nil
}

// Cleanup removes the mirror directory. Idempotent; later calls return the
// first result.
func (w *Workspace) Cleanup() error {
	if w == nil {
		return nil
	}
	w.cleanupOnce.Do(func() {
		w.cleanupErr = os.RemoveAll(w.Dir)
	})
	return w.cleanupErr
}

// Rel translates a path the tool reported inside the mirror back to the
// origin directory. Paths outside the mirror are returned unchanged.
func (w *Workspace) Rel(path string) string {
	if w == nil || path == "" {
		return path
	}
	if rel, err := filepath.Rel(w.Dir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.Join(w.Origin, rel)
	}
	// инструменты обычно печатают пути относительно cwd (= mirror)
	if !filepath.IsAbs(path) {
		return filepath.Join(w.Origin, path)
	}
	return path
}

func matchExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
