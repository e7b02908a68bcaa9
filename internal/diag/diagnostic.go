package diag

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Diagnostic is one finding reported by an external tool.
//
// Line is 1-based. Col is 1-based when the tool reported a column and 0 when
// it did not; consumers must treat 0 as "column unknown", not column zero.
type Diagnostic struct {
	Tool     string
	File     string
	Line     int
	Col      int
	Severity Severity
	Message  string
	Rule     string
}

// New builds a Diagnostic from parsed tool output. The message is
// NFC-normalized so dedup keys stay stable across tools that emit
// decomposed Unicode.
func New(tool, file string, line, col int, sev Severity, message string) Diagnostic {
	return Diagnostic{
		Tool:     tool,
		File:     file,
		Line:     line,
		Col:      col,
		Severity: sev,
		Message:  norm.NFC.String(message),
	}
}

// Pos returns the location as path:line or path:line:col.
func (d Diagnostic) Pos() string {
	if d.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Col)
	}
	return fmt.Sprintf("%s:%d", d.File, d.Line)
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos(), d.Severity, d.Message)
}
