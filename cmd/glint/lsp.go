package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"glint/internal/cache"
	"glint/internal/config"
	"glint/internal/lsp"
	"glint/internal/runner"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the glint language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func runLSP(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	logger := buildLogger(cmd)
	r := runner.New(cfg, runner.WithLogger(logger))

	mode, err := runner.ParseWorkdirMode(cfg.Workspace.Mode)
	if err != nil {
		return err
	}

	// Кэш в памяти держим всегда; диск подключается из манифеста
	var disk *cache.Disk
	if cfg.Cache.Enabled {
		disk, err = cache.OpenDisk("glint", cfg.Cache.Dir)
		if err != nil {
			logger.Warn("disk cache unavailable", "err", err)
			disk = nil
		}
	}
	memo, err := cache.NewMemory(256, disk)
	if err != nil {
		return err
	}

	// Ключ кэша должен меняться вместе с эффективной командой
	toolName := cfg.Tool.Name
	var toolArgs []string
	if spec, specErr := r.Spec(); specErr == nil {
		toolName = spec.Name
		toolArgs = append(append(toolArgs, spec.Args...), cfg.Tool.ExtraArgs...)
	}

	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Debounce:       time.Duration(cfg.LSP.DebounceMS) * time.Millisecond,
		Lint:           r.Lint,
		Mode:           mode,
		MaxDiagnostics: cfg.LSP.MaxDiagnostics,
		Cache:          memo,
		ToolName:       toolName,
		ToolArgs:       toolArgs,
		ToolCommand:    cfg.Tool.Command,
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
