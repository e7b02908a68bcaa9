package diagfmt

import (
	"encoding/json"
	"io"

	"fortio.org/safecast"

	"glint/internal/diag"
)

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Tool     string `json:"tool,omitempty"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	File     string `json:"file"`
	Line     uint32 `json:"line"`
	Col      uint32 `json:"col,omitempty"`
	Rule     string `json:"rule,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, opts JSONOpts) (DiagnosticsOutput, error) {
	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}

	diagnostics := make([]DiagnosticJSON, 0, maxItems)
	for i := range maxItems {
		d := items[i]
		line, err := safecast.Conv[uint32](d.Line)
		if err != nil {
			return DiagnosticsOutput{}, err
		}
		col, err := safecast.Conv[uint32](d.Col)
		if err != nil {
			return DiagnosticsOutput{}, err
		}
		diagnostics = append(diagnostics, DiagnosticJSON{
			Tool:     d.Tool,
			Severity: d.Severity.String(),
			Message:  d.Message,
			File:     formatPath(d.File, opts.PathMode, opts.BaseDir),
			Line:     line,
			Col:      col,
			Rule:     d.Rule,
		})
	}
	return DiagnosticsOutput{Diagnostics: diagnostics, Count: bag.Len()}, nil
}

// JSON сериализует диагностики в стабильный JSON (ожидается bag.Sort()
// заранее).
func JSON(w io.Writer, bag *diag.Bag, opts JSONOpts) error {
	out, err := BuildDiagnosticsOutput(bag, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
