package diagfmt

import "path/filepath"

// formatPath renders one diagnostic path according to mode.
func formatPath(path string, mode PathMode, baseDir string) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
	case PathModeRelative:
		base := baseDir
		if base == "" {
			base = "."
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return path
		}
		absBase, err := filepath.Abs(base)
		if err != nil {
			return path
		}
		if rel, err := filepath.Rel(absBase, abs); err == nil {
			return rel
		}
	case PathModeBasename:
		return filepath.Base(path)
	}
	return path
}
