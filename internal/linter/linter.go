// Package linter is the catalog of wrapped external analyzers: what binary
// to run, with which arguments, which exit codes still mean "lint findings
// present", and which output pattern to parse.
package linter

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"time"
)

// ErrToolNotFound reports that the analyzer executable could not be
// resolved. It is raised before any workspace or subprocess work starts.
var ErrToolNotFound = errors.New("lint tool not found")

// ErrUnknownTool reports a tool name missing from the registry.
var ErrUnknownTool = errors.New("unknown lint tool")

// Spec describes one external analyzer.
type Spec struct {
	// Name identifies the tool in configs, logs and diagnostics.
	Name string
	// Command is the executable to resolve (basename or absolute path).
	Command string
	// Args is the fixed argument prefix before any per-project extras.
	Args []string
	// FixArgs, if set, is the argument prefix for --fix style runs.
	FixArgs []string
	// OKExitCodes lists exit codes that mean "ran fine, findings present".
	// Zero is always OK and need not be listed.
	OKExitCodes []int
	// Pattern overrides the default output pattern; empty uses the default.
	Pattern string
	// SearchPathVar names the env variable the tool resolves modules with.
	SearchPathVar string
	// Extensions are file suffixes the tool understands.
	Extensions []string
	// Timeout bounds one invocation.
	Timeout time.Duration
}

// ExitOK reports whether code means a successful run for this tool.
func (s Spec) ExitOK(code int) bool {
	if code == 0 {
		return true
	}
	for _, ok := range s.OKExitCodes {
		if code == ok {
			return true
		}
	}
	return false
}

// Registry holds the known tool specs keyed by name.
type Registry struct {
	specs map[string]Spec
}

// NewRegistry returns a registry preloaded with the built-in tools.
func NewRegistry() *Registry {
	r := &Registry{specs: make(map[string]Spec)}
	for _, s := range builtins() {
		r.specs[s.Name] = s
	}
	return r
}

// Get returns the spec for name.
func (r *Registry) Get(name string) (Spec, error) {
	s, ok := r.specs[name]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return s, nil
}

// Put registers or replaces a spec.
func (r *Registry) Put(s Spec) {
	r.specs[s.Name] = s
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve locates the tool executable. An explicit override wins; otherwise
// the command is searched on PATH. The returned path is what the runner
// execs. Failure is ErrToolNotFound and happens before any other pass work.
func Resolve(s Spec, override string) (string, error) {
	if override != "" {
		info, err := os.Stat(override)
		if err != nil || info.IsDir() {
			return "", fmt.Errorf("%w: %q", ErrToolNotFound, override)
		}
		return override, nil
	}
	path, err := exec.LookPath(s.Command)
	if err != nil {
		return "", fmt.Errorf("%w: %q not on PATH", ErrToolNotFound, s.Command)
	}
	return path, nil
}

// Detect probes PATH for every registered tool.
func (r *Registry) Detect() map[string]bool {
	out := make(map[string]bool, len(r.specs))
	for name, s := range r.specs {
		_, err := exec.LookPath(s.Command)
		out[name] = err == nil
	}
	return out
}

func builtins() []Spec {
	return []Spec{
		{
			Name:    "golangci-lint",
			Command: "golangci-lint",
			Args:    []string{"run", "--fast", "--enable", "typecheck"},
			FixArgs: []string{"run", "--fast", "--fix"},
			// golangci-lint exits 1 when issues were found
			OKExitCodes:   []int{1},
			SearchPathVar: "GOPATH",
			Extensions:    []string{".go"},
			Timeout:       30 * time.Second,
		},
		{
			Name:          "go-vet",
			Command:       "go",
			Args:          []string{"vet"},
			OKExitCodes:   []int{1, 2},
			SearchPathVar: "GOPATH",
			Extensions:    []string{".go"},
			Timeout:       30 * time.Second,
		},
		{
			Name:          "staticcheck",
			Command:       "staticcheck",
			Args:          []string{},
			OKExitCodes:   []int{1},
			SearchPathVar: "GOPATH",
			Extensions:    []string{".go"},
			Timeout:       60 * time.Second,
		},
		{
			Name:    "revive",
			Command: "revive",
			Args:    []string{"-formatter", "default"},
			// revive прощает findings нулевым кодом, отдельных OK-кодов нет
			SearchPathVar: "GOPATH",
			Extensions:    []string{".go"},
			Timeout:       30 * time.Second,
		},
	}
}
