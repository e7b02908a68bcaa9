package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"glint/internal/config"
	"glint/internal/linter"
)

var toolsCmd = &cobra.Command{
	Use:          "tools",
	Short:        "List known lint tools and whether they are installed",
	SilenceUsage: true,
	RunE:         runTools,
}

func runTools(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		// Манифест не нужен чтобы просто перечислить инструменты
		cfg = config.Default()
	}

	useColor := resolveColor(cmd, cfg)
	found := color.New(color.FgGreen, color.Bold)
	missing := color.New(color.FgRed)
	if !useColor {
		found.DisableColor()
		missing.DisableColor()
	}

	registry := linter.NewRegistry()
	detected := registry.Detect()
	names := registry.Names()
	sort.Strings(names)

	for _, name := range names {
		marker := missing.Sprint("not found")
		if detected[name] {
			marker = found.Sprint("installed")
		}
		active := ""
		if name == cfg.Tool.Name {
			active = "  (configured)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s%s\n", name, marker, active)
	}
	return nil
}
