package diag

import "strings"

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseSeverity maps a tool-reported severity word to a Severity.
// Unknown words default to error: the wrapped linters report findings
// without a severity prefix far more often than with one, and a finding
// is an error unless the tool says otherwise.
func ParseSeverity(word string) Severity {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "info", "note", "hint":
		return SevInfo
	case "warning", "warn":
		return SevWarning
	default:
		return SevError
	}
}
