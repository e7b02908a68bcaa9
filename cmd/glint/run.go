package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"glint/internal/config"
	"glint/internal/diag"
	"glint/internal/diagfmt"
	"glint/internal/runner"
)

var (
	runFormat  string
	runMode    string
	runTool    string
	runJobs    int
	runUI      bool
	runTimings bool
	runFix     bool
)

func init() {
	runCmd.Flags().StringVar(&runFormat, "format", "", "output format (pretty|json|short)")
	runCmd.Flags().StringVar(&runMode, "mode", "", "workspace mode (mirror|in-place)")
	runCmd.Flags().StringVar(&runTool, "tool", "", "lint tool to run (overrides manifest)")
	runCmd.Flags().IntVar(&runJobs, "jobs", 0, "parallel lint passes (0 = NumCPU)")
	runCmd.Flags().BoolVar(&runUI, "ui", false, "show interactive progress")
	runCmd.Flags().BoolVar(&runTimings, "timings", false, "show per-pass timing information")
	runCmd.Flags().BoolVar(&runFix, "fix", false, "let the tool rewrite fixable findings (forces in-place mode)")
}

var runCmd = &cobra.Command{
	Use:          "run [paths...]",
	Short:        "Lint files once and print the findings",
	Long:         `Run the configured lint tool against the given files or directories and print parsed diagnostics. Directories are expanded to files the tool understands. With no arguments the current directory is linted.`,
	SilenceUsage: true,
	RunE:         runLint,
}

func runLint(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	cfg, err := loadConfig(paths)
	if err != nil {
		return err
	}
	// Флаги перекрывают манифест
	if runTool != "" {
		cfg.Tool.Name = runTool
	}
	if runMode != "" {
		cfg.Workspace.Mode = runMode
	}
	format := cfg.Output.Format
	if runFormat != "" {
		format = runFormat
	}
	switch format {
	case "", "pretty", "json", "short":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, json or short)", format)
	}

	mode, err := runner.ParseWorkdirMode(cfg.Workspace.Mode)
	if err != nil {
		return err
	}
	if runFix {
		// Правки в зеркале пропали бы вместе с ним
		mode = runner.ModeInPlace
	}

	logger := buildLogger(cmd)
	opts := []runner.Option{runner.WithLogger(logger)}
	var events chan runner.Event
	useUI := runUI && isTerminal(os.Stdout)
	if useUI {
		events = make(chan runner.Event, 256)
		opts = append(opts, runner.WithEvents(events))
	}
	r := runner.New(cfg, opts...)

	spec, err := r.Spec()
	if err != nil {
		return err
	}

	reqs, err := expandTargets(paths, spec.Extensions, mode)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		return fmt.Errorf("no lintable files under %s", strings.Join(paths, ", "))
	}
	if runFix {
		for i := range reqs {
			reqs[i].Fix = true
		}
	}
	runner.SortRequests(reqs)

	ctx := cmd.Context()
	var results []runner.Result
	if useUI {
		results, err = runLintWithUI(ctx, "glint "+spec.Name, reqs, r, events)
	} else {
		results, err = r.LintMany(ctx, reqs, runJobs)
	}
	if err != nil {
		return err
	}

	maxDiagnostics, _ := cmd.Flags().GetInt("max-diagnostics")
	bag := diag.NewBag(maxDiagnostics)
	failed := false
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "glint: %v\n", res.Err)
			failed = true
			continue
		}
		if res.Skipped != "" {
			logger.Warn("pass skipped", "reason", res.Skipped)
			continue
		}
		for _, d := range res.Diagnostics {
			bag.Add(d)
		}
	}
	bag.Sort()
	bag.Dedup()

	if err := renderBag(cmd, bag, cfg, format); err != nil {
		return err
	}

	if runTimings {
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			printTimings(results)
		}
	}

	if failed || bag.HasErrors() {
		// Находки уже напечатаны; код выхода без сообщения
		cmd.SilenceErrors = true
		return errors.New("lint findings")
	}
	return nil
}

func renderBag(cmd *cobra.Command, bag *diag.Bag, cfg config.Config, format string) error {
	pathMode := diagfmt.ParsePathMode(cfg.Output.Paths)
	baseDir, _ := os.Getwd()
	switch format {
	case "json":
		return diagfmt.JSON(cmd.OutOrStdout(), bag, diagfmt.JSONOpts{
			PathMode: pathMode,
			BaseDir:  baseDir,
		})
	case "short":
		diagfmt.Short(cmd.OutOrStdout(), bag)
	default:
		width := 0
		if isTerminal(os.Stdout) {
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
				width = w
			}
		}
		diagfmt.Pretty(cmd.OutOrStdout(), bag, diagfmt.PrettyOpts{
			Color:    resolveColor(cmd, cfg),
			PathMode: pathMode,
			BaseDir:  baseDir,
			Width:    width,
		})
	}
	return nil
}

// expandTargets turns files and directories into lint requests. Explicitly
// named files are linted regardless of extension; directory walks keep only
// files the tool understands.
func expandTargets(paths []string, extensions []string, mode runner.WorkdirMode) ([]runner.Request, error) {
	seen := make(map[string]struct{})
	var reqs []runner.Request
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		reqs = append(reqs, runner.Request{Path: path, Mode: mode})
	}
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if path != p && skipWalkDir(name) {
					return filepath.SkipDir
				}
				return nil
			}
			if matchesExt(name, extensions) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return reqs, nil
}

func skipWalkDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "vendor", "node_modules", "testdata":
		return true
	}
	return false
}

func matchesExt(name string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func printTimings(results []runner.Result) {
	for _, res := range results {
		if res.Err != nil || res.Skipped != "" {
			continue
		}
		fmt.Fprintf(os.Stderr, "pass %s (%s) %s", res.Pass.ID, res.Pass.Tool, res.Pass.Timing.Summary())
	}
}
