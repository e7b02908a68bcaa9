package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"glint/internal/config"
	"glint/internal/observ"
)

// buildLogger wires the persistent log flags into a slog.Logger. Logging
// always goes to stderr so stdout stays clean for results and JSON-RPC.
func buildLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		level = "error"
	}
	return observ.NewLogger(observ.LogOptions{Level: level, Format: format})
}

// resolveColor decides colorization from the flag (taking precedence) and the
// manifest, falling back to a terminal check for "auto".
func resolveColor(cmd *cobra.Command, cfg config.Config) bool {
	mode, _ := cmd.Flags().GetString("color")
	if mode == "auto" && cfg.Output.Color != "" {
		mode = cfg.Output.Color
	}
	switch mode {
	case "on", "always":
		return true
	case "off", "never":
		return false
	}
	return isTerminal(os.Stdout)
}

// loadConfig resolves the manifest starting from the first target path.
func loadConfig(paths []string) (config.Config, error) {
	start := "."
	if len(paths) > 0 {
		start = paths[0]
		if st, err := os.Stat(start); err != nil || !st.IsDir() {
			start = filepath.Dir(start)
		}
	}
	return config.Load(start)
}
