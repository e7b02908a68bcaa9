package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"glint/internal/diag"
	"glint/internal/runner"
	"glint/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:          "watch [dir]",
	Short:        "Re-lint files as they change",
	Long:         `Watch a directory tree and run the configured lint tool on every changed file, printing findings as they arrive. Stop with Ctrl-C.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	cfg, err := loadConfig([]string{dir})
	if err != nil {
		return err
	}
	logger := buildLogger(cmd)
	r := runner.New(cfg, runner.WithLogger(logger))

	spec, err := r.Spec()
	if err != nil {
		return err
	}
	mode, err := runner.ParseWorkdirMode(cfg.Workspace.Mode)
	if err != nil {
		return err
	}

	maxDiagnostics, _ := cmd.Flags().GetInt("max-diagnostics")
	quiet, _ := cmd.Flags().GetBool("quiet")

	onChange := func(ctx context.Context, path string) {
		res, lintErr := r.Lint(ctx, runner.Request{Path: path, Mode: mode})
		if lintErr != nil {
			logger.Error("lint pass failed", "file", path, "err", lintErr)
			return
		}
		if res.Skipped != "" {
			logger.Warn("pass skipped", "file", path, "reason", res.Skipped)
			return
		}
		bag := diag.NewBag(maxDiagnostics)
		for _, d := range res.Diagnostics {
			bag.Add(d)
		}
		bag.Sort()
		bag.Dedup()
		if bag.Len() == 0 {
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: clean\n", path)
			}
			return
		}
		if renderErr := renderBag(cmd, bag, cfg, cfg.Output.Format); renderErr != nil {
			logger.Error("render failed", "err", renderErr)
		}
	}

	w, err := watch.New(dir, onChange, watch.Options{
		Extensions:      spec.Extensions,
		WorkspacePrefix: cfg.Workspace.Prefix,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "watching %s with %s\n", dir, spec.Name)
	}
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
