package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"glint/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default glint.toml manifest",
	Long: `Initialize glint for a project by writing a commented glint.toml manifest.
If [path] is omitted, the current directory is used. Refuses to overwrite an
existing manifest.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	// Resolve target directory
	var target string
	if len(args) == 0 || args[0] == "." {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = wd
	} else {
		arg := args[0]
		if !filepath.IsAbs(arg) {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			target = filepath.Join(wd, arg)
		} else {
			target = arg
		}
	}

	if st, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
		} else {
			return err
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	manifestPath := filepath.Join(target, config.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("already initialized: %s exists", manifestPath)
	}

	if err := os.WriteFile(manifestPath, []byte(defaultManifest()), os.FileMode(0o600)); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err2 := filepath.Rel(wd, target); err2 == nil {
			rel = r
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized glint in %s\n", rel)
	fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", config.ManifestName)
	return nil
}

// defaultManifest returns a commented glint.toml mirroring the built-in
// defaults, with the common knobs present but switched off.
func defaultManifest() string {
	return `# glint manifest

[tool]
name = "golangci-lint"
# command = "/opt/tools/golangci-lint"   # override the resolved executable
# extra_args = ["--enable", "gocritic"]
# timeout_sec = 30
# search_path = "/home/me/go"            # fills the tool's GOPATH
# [tool.env]
# GOFLAGS = "-mod=vendor"

[workspace]
# mode = "mirror"        # mirror (lint unsaved buffers) or in-place
# max_files = 40         # sibling cap for mirrored workspaces, -1 unbounded

[output]
# format = "pretty"      # pretty|json|short
# color = "auto"         # auto|on|off
# paths = "auto"         # auto|absolute|relative|basename

[lsp]
# debounce_ms = 300
# max_diagnostics = 100

[cache]
# enabled = true         # persist lint results across language server restarts
# dir = ""               # defaults to the user cache directory
`
}
