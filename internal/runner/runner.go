// Package runner orchestrates one lint pass: resolve the tool, materialize
// the buffer, invoke the subprocess, parse its output, clean up.
//
// A pass is synchronous and blocking. Overlapping passes are allowed — each
// owns its workspace and nothing is shared between them. The runner never
// retries; hosts re-trigger on their own schedule (save, edit, watch event).
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"glint/internal/config"
	"glint/internal/diag"
	"glint/internal/linter"
	"glint/internal/observ"
	"glint/internal/parse"
	"glint/internal/workspace"
)

// fallbackTimeout bounds invocation when neither config nor the tool spec
// set one.
const fallbackTimeout = 30 * time.Second

// WorkdirMode selects how the pass materializes the target.
type WorkdirMode uint8

const (
	// ModeMirror lints the live buffer through a temporary workspace.
	ModeMirror WorkdirMode = iota
	// ModeInPlace lints the saved file with cwd = its directory.
	ModeInPlace
)

// ParseWorkdirMode converts a config/flag value to a WorkdirMode.
func ParseWorkdirMode(s string) (WorkdirMode, error) {
	switch s {
	case "", "mirror":
		return ModeMirror, nil
	case "in-place":
		return ModeInPlace, nil
	}
	return ModeMirror, fmt.Errorf("unknown workspace mode %q (must be mirror or in-place)", s)
}

// Request describes one lint pass.
type Request struct {
	// Path is the target file as the host knows it.
	Path string
	// Buffer holds unsaved content; nil means read Path from disk.
	Buffer []byte
	// Mode selects mirror or in-place linting.
	Mode WorkdirMode
	// Tool selects a registry tool for this pass; empty keeps the
	// configured one. Set by the LSP host on configuration changes.
	Tool string
	// Command overrides the resolved executable path for this pass.
	Command string
	// Fix runs the tool's fix invocation, rewriting what it can repair.
	Fix bool
}

// PassInfo correlates a pass across logs, events and timings.
type PassInfo struct {
	ID       string
	Tool     string
	Duration time.Duration
	Timing   observ.Report
}

// Result is the outcome of one pass.
type Result struct {
	Diagnostics []diag.Diagnostic
	// Dropped counts matched-but-malformed output lines.
	Dropped int
	// Skipped is non-empty when the pass was skipped (file cap, unsaved
	// buffer) rather than run.
	Skipped string
	// Err records the pass failure when collected via LintMany.
	Err  error
	Pass PassInfo
}

// Runner executes lint passes against one configured tool.
type Runner struct {
	registry *linter.Registry
	cfg      config.Config
	log      *slog.Logger
	events   chan<- Event
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithRegistry replaces the built-in tool registry.
func WithRegistry(reg *linter.Registry) Option {
	return func(r *Runner) { r.registry = reg }
}

// WithEvents attaches a progress sink. The runner never closes the channel.
func WithEvents(events chan<- Event) Option {
	return func(r *Runner) { r.events = events }
}

// New creates a Runner for cfg.
func New(cfg config.Config, opts ...Option) *Runner {
	r := &Runner{
		registry: linter.NewRegistry(),
		cfg:      cfg,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Spec returns the effective tool spec after config overrides.
func (r *Runner) Spec() (linter.Spec, error) { return r.specFor("") }

// specFor resolves name (empty means the configured tool) and applies the
// config overrides on top of the registry entry.
func (r *Runner) specFor(name string) (linter.Spec, error) {
	if name == "" {
		name = r.cfg.Tool.Name
	}
	spec, err := r.registry.Get(name)
	if err != nil {
		return linter.Spec{}, err
	}
	if len(r.cfg.Tool.OKExitCodes) > 0 {
		spec.OKExitCodes = r.cfg.Tool.OKExitCodes
	}
	if r.cfg.Tool.Pattern != "" {
		spec.Pattern = r.cfg.Tool.Pattern
	}
	if t := r.cfg.Tool.Timeout(); t > 0 {
		spec.Timeout = t
	}
	return spec, nil
}

// Lint runs one pass. The order is fixed: resolve before workspace before
// subprocess, so a missing tool never creates a workspace, and the
// workspace never outlives the pass.
func (r *Runner) Lint(ctx context.Context, req Request) (Result, error) {
	timer := observ.NewTimer()
	start := time.Now()
	res := Result{Pass: PassInfo{ID: uuid.NewString(), Tool: r.cfg.Tool.Name}}
	if req.Tool != "" {
		res.Pass.Tool = req.Tool
	}
	finish := func() {
		res.Pass.Duration = time.Since(start)
		res.Pass.Timing = timer.Report()
	}

	r.emit(Event{File: req.Path, Stage: StageResolve, Status: StatusWorking})
	endPhase := timer.Begin("resolve")
	spec, err := r.specFor(req.Tool)
	if err != nil {
		finish()
		r.emit(Event{File: req.Path, Stage: StageResolve, Status: StatusError})
		return res, err
	}
	if req.Fix && len(spec.FixArgs) == 0 {
		finish()
		r.emit(Event{File: req.Path, Stage: StageResolve, Status: StatusError})
		return res, fmt.Errorf("%w: %s", ErrFixUnsupported, spec.Name)
	}
	override := req.Command
	if override == "" && (req.Tool == "" || req.Tool == r.cfg.Tool.Name) {
		// путь из манифеста относится только к настроенному инструменту
		override = r.cfg.Tool.Command
	}
	exe, err := linter.Resolve(spec, override)
	if err != nil {
		finish()
		r.emit(Event{File: req.Path, Stage: StageResolve, Status: StatusError})
		return res, err
	}
	endPhase(exe)

	if strings.TrimSpace(req.Path) == "" {
		finish()
		r.emit(Event{File: req.Path, Stage: StageResolve, Status: StatusSkipped})
		return res, ErrUnsavedFile
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		finish()
		return res, fmt.Errorf("resolve target path: %w", err)
	}
	dir := filepath.Dir(abs)
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		finish()
		r.emit(Event{File: req.Path, Stage: StageResolve, Status: StatusSkipped})
		return res, fmt.Errorf("%w: %s", ErrUnsavedFile, req.Path)
	}

	cwd := dir
	var ws *workspace.Workspace
	if req.Mode == ModeMirror {
		buffer := req.Buffer
		if buffer == nil {
			buffer, err = os.ReadFile(abs)
			if err != nil {
				finish()
				return res, fmt.Errorf("read target: %w", err)
			}
		}
		r.emit(Event{File: req.Path, Stage: StageMirror, Status: StatusWorking})
		endPhase = timer.Begin("mirror")
		ws, err = workspace.Mirror(dir, abs, buffer, workspace.Options{
			Prefix:     r.cfg.Workspace.Prefix,
			MaxFiles:   r.cfg.Workspace.MaxFiles,
			Extensions: spec.Extensions,
		})
		if err != nil {
			finish()
			if errors.Is(err, workspace.ErrTooManyFiles) {
				r.log.Info("live lint skipped",
					slog.String("pass_id", res.Pass.ID),
					slog.String("path", req.Path),
					slog.String("reason", err.Error()))
				res.Skipped = err.Error()
				r.emit(Event{File: req.Path, Stage: StageMirror, Status: StatusSkipped})
				return res, nil
			}
			r.emit(Event{File: req.Path, Stage: StageMirror, Status: StatusError})
			return res, err
		}
		// Единственная гарантия инварианта: workspace удаляется при любом
		// исходе прохода, включая таймаут и панику ниже по стеку.
		defer ws.Cleanup()
		cwd = ws.Dir
		endPhase(ws.Dir)
	}

	baseArgs := spec.Args
	if req.Fix {
		baseArgs = spec.FixArgs
	}
	args := make([]string, 0, len(baseArgs)+len(r.cfg.Tool.ExtraArgs))
	args = append(args, baseArgs...)
	args = append(args, r.cfg.Tool.ExtraArgs...)

	env := r.cfg.Tool.Env
	if r.cfg.Tool.SearchPath != "" && spec.SearchPathVar != "" {
		if _, explicit := env[spec.SearchPathVar]; !explicit {
			// Явная запись в [tool.env] имеет приоритет над search_path
			merged := make(map[string]string, len(env)+1)
			for k, v := range env {
				merged[k] = v
			}
			merged[spec.SearchPathVar] = r.cfg.Tool.SearchPath
			env = merged
		}
	}

	r.emit(Event{File: req.Path, Stage: StageInvoke, Status: StatusWorking})
	endPhase = timer.Begin("invoke")
	stdout, stderr, exitCode, err := r.invoke(ctx, exe, args, cwd, env, spec.Timeout)
	endPhase(fmt.Sprintf("exit %d", exitCode))
	if err != nil {
		finish()
		r.emit(Event{File: req.Path, Stage: StageInvoke, Status: StatusError})
		return res, err
	}
	if !spec.ExitOK(exitCode) {
		finish()
		r.emit(Event{File: req.Path, Stage: StageInvoke, Status: StatusError})
		return res, fmt.Errorf("%w: %s exited %d: %s", ErrToolInvocation, spec.Name, exitCode, excerpt(stderr))
	}

	r.emit(Event{File: req.Path, Stage: StageParse, Status: StatusWorking})
	endPhase = timer.Begin("parse")
	parser, err := parse.NewParser(spec.Name, spec.Pattern)
	if err != nil {
		finish()
		r.emit(Event{File: req.Path, Stage: StageParse, Status: StatusError})
		return res, fmt.Errorf("compile output pattern: %w", err)
	}
	// инструменты этого семейства пишут находки в оба потока
	diags, dropped := parser.ParseOutput(stdout + "\n" + stderr)
	res.Dropped = dropped
	res.Diagnostics = r.mapPaths(diags, req, abs, dir, ws)
	endPhase(fmt.Sprintf("%d diagnostics", len(res.Diagnostics)))

	finish()
	r.emit(Event{File: req.Path, Stage: StageParse, Status: StatusDone})
	r.log.Info("lint pass complete",
		slog.String("pass_id", res.Pass.ID),
		slog.String("tool", spec.Name),
		slog.String("path", req.Path),
		slog.Int("diagnostics", len(res.Diagnostics)),
		slog.Int("dropped", dropped),
		slog.Duration("duration", res.Pass.Duration))
	return res, nil
}

// mapPaths filters and translates tool-reported paths back to the caller's
// view. Mirror passes keep only the target's own findings, the way the
// editor plugin this descends from filtered on `basename(file):`.
func (r *Runner) mapPaths(diags []diag.Diagnostic, req Request, abs, dir string, ws *workspace.Workspace) []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(diags))
	for _, d := range diags {
		if req.Mode == ModeMirror {
			// из координат зеркала обратно в координаты оригинала;
			// чужие файлы (соседи, попавшие в зеркало) отбрасываем
			if ws.Rel(d.File) != abs {
				continue
			}
			d.File = req.Path
		} else {
			if d.File == "" {
				d.File = req.Path
			} else if !filepath.IsAbs(d.File) {
				d.File = filepath.Join(dir, d.File)
			}
		}
		out = append(out, d)
	}
	return out
}

// invoke runs the subprocess with a hard timeout, capturing both streams.
// Exit codes are returned for the caller to classify; err is reserved for
// timeouts and failures to run at all.
func (r *Runner) invoke(ctx context.Context, exe string, args []string, cwd string, env map[string]string, timeout time.Duration) (stdout, stderr string, exitCode int, err error) {
	if timeout <= 0 {
		timeout = fallbackTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, exe, args...)
	cmd.Dir = cwd
	cmd.Env = mergeEnv(os.Environ(), env)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }

	runErr := cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	if cctx.Err() == context.DeadlineExceeded {
		return stdout, stderr, 0, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return stdout, stderr, exitErr.ExitCode(), nil
		}
		return stdout, stderr, 0, fmt.Errorf("%w: %v", ErrToolInvocation, runErr)
	}
	return stdout, stderr, 0, nil
}

// mergeEnv overlays overrides on base, replacing matching keys.
func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))
	for _, kv := range base {
		key, _, ok := strings.Cut(kv, "=")
		if ok {
			if value, hit := overrides[key]; hit {
				out = append(out, key+"="+value)
				seen[key] = true
				continue
			}
		}
		out = append(out, kv)
	}
	for key, value := range overrides {
		if !seen[key] {
			out = append(out, key+"="+value)
		}
	}
	return out
}

// excerpt keeps the first informative stderr line for error messages.
func excerpt(stderr string) string {
	for line := range strings.SplitSeq(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 200 {
			line = line[:200] + "..."
		}
		return line
	}
	return "(no stderr)"
}
