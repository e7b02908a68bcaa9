package lsp

import (
	"strings"
	"unicode/utf8"
)

// applyChanges folds incremental didChange events into the overlay text.
// A change without a range replaces the whole document.
func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		start := clamp(offsetForPosition(text, change.Range.Start), 0, len(text))
		end := clamp(offsetForPosition(text, change.Range.End), start, len(text))
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// offsetForPosition converts an LSP position (UTF-16 columns) to a byte
// offset in text. Positions past the end of a line or the document clamp.
func offsetForPosition(text string, pos position) int {
	if pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	i := 0
	for l := 0; l < pos.Line; l++ {
		nl := strings.IndexByte(text[i:], '\n')
		if nl < 0 {
			return len(text)
		}
		i += nl + 1
	}
	units := 0
	for i < len(text) && text[i] != '\n' && units < pos.Character {
		r, size := utf8.DecodeRuneInString(text[i:])
		need := 1
		if r > 0xFFFF {
			// суррогатная пара
			need = 2
		}
		if units+need > pos.Character {
			break
		}
		units += need
		i += size
	}
	return i
}
