// Package config loads glint settings from a glint.toml manifest discovered
// by walking up from the lint target, merged over built-in defaults.
//
// Settings are always passed around as an explicit struct. Nothing in glint
// reads configuration from ambient process state; environment only enters
// through the [tool.env] table and the search-path variable.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file looked up from the target directory upward.
const ManifestName = "glint.toml"

// Config is the full settings tree.
type Config struct {
	Tool      ToolConfig      `toml:"tool"`
	Workspace WorkspaceConfig `toml:"workspace"`
	Output    OutputConfig    `toml:"output"`
	LSP       LSPConfig       `toml:"lsp"`
	Cache     CacheConfig     `toml:"cache"`
}

// ToolConfig selects and adjusts the wrapped analyzer.
type ToolConfig struct {
	// Name picks a registry entry; default "golangci-lint".
	Name string `toml:"name"`
	// Command overrides the resolved executable path.
	Command string `toml:"command"`
	// ExtraArgs are appended after the registry args.
	ExtraArgs []string `toml:"extra_args"`
	// OKExitCodes replaces the registry's findings-present exit codes.
	OKExitCodes []int `toml:"ok_exit_codes"`
	// TimeoutSec bounds one invocation; 0 keeps the registry default.
	TimeoutSec int `toml:"timeout_sec"`
	// Pattern overrides the output regexp.
	Pattern string `toml:"pattern"`
	// SearchPath fills the tool's search-path variable (GOPATH for the
	// built-in tools) when set.
	SearchPath string `toml:"search_path"`
	// Env sets environment overrides for the subprocess.
	Env map[string]string `toml:"env"`
}

// WorkspaceConfig tunes live-buffer mirroring.
type WorkspaceConfig struct {
	// Mode is "mirror" (unsaved buffer via temp dir) or "in-place".
	Mode string `toml:"mode"`
	// MaxFiles caps mirrored siblings; 0 keeps the default, -1 unbounded.
	MaxFiles int `toml:"max_files"`
	// Prefix names the temporary directories.
	Prefix string `toml:"prefix"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	Format string `toml:"format"` // pretty|json|short
	Color  string `toml:"color"`  // auto|on|off
	Paths  string `toml:"paths"`  // auto|absolute|relative|basename
}

// LSPConfig controls the language server host.
type LSPConfig struct {
	DebounceMS     int `toml:"debounce_ms"`
	MaxDiagnostics int `toml:"max_diagnostics"`
}

// CacheConfig controls result memoization in the LSP host.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Tool:      ToolConfig{Name: "golangci-lint"},
		Workspace: WorkspaceConfig{Mode: "mirror"},
		Output:    OutputConfig{Format: "pretty", Color: "auto", Paths: "auto"},
		LSP:       LSPConfig{DebounceMS: 300, MaxDiagnostics: 100},
	}
}

// Timeout returns the configured invocation timeout, or 0 when unset.
func (t ToolConfig) Timeout() time.Duration {
	if t.TimeoutSec <= 0 {
		return 0
	}
	return time.Duration(t.TimeoutSec) * time.Second
}

// Find walks up from startDir to locate a glint.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load discovers and decodes the manifest for startDir. A missing manifest
// is not an error: the defaults come back unchanged.
func Load(startDir string) (Config, error) {
	cfg := Default()
	path, ok, err := Find(startDir)
	if err != nil {
		return cfg, err
	}
	if !ok {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.Tool.Name == "" {
		cfg.Tool.Name = Default().Tool.Name
	}
	return cfg, nil
}
