package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"glint/internal/diag"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	posColor     = color.New(color.Bold)
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV>: <Message>
// Цвет включается опцией.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	for _, d := range bag.Items() {
		pos := formatPath(d.File, opts.PathMode, opts.BaseDir) + fmt.Sprintf(":%d", d.Line)
		if d.Col > 0 {
			pos += fmt.Sprintf(":%d", d.Col)
		}
		sev := d.Severity.String()
		if opts.Color {
			// ширина не ограничивается при цвете: ANSI-последовательности
			// ломают подсчёт ширины
			fmt.Fprintf(w, "%s: %s: %s\n", posColor.Sprint(pos), severityColor(d.Severity).Sprint(sev), d.Message)
			continue
		}
		line := fmt.Sprintf("%s: %s: %s", pos, sev, d.Message)
		if opts.Width > 0 && runewidth.StringWidth(line) > opts.Width {
			line = runewidth.Truncate(line, opts.Width, "...")
		}
		fmt.Fprintln(w, line)
	}
}

// Short prints the bare `path:line:col: message` echo format, the same
// shape the wrapped tools emit.
func Short(w io.Writer, bag *diag.Bag) {
	for _, d := range bag.Items() {
		fmt.Fprintf(w, "%s: %s\n", d.Pos(), d.Message)
	}
}

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}
