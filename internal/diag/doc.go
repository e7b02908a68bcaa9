// Package diag defines the diagnostic model shared by every part of glint:
// the runner produces diagnostics from external tool output, the formatters
// render them, and the LSP server publishes them to the editor.
//
// A Diagnostic is a flat record: tool name, file, 1-based line, optional
// column (0 means "unknown"), severity, and the message exactly as the tool
// printed it. There is no span structure because line-oriented lint output
// never carries an end position.
//
// Bag is a bounded, sortable collection of diagnostics. One Bag corresponds
// to one lint pass; passes never share a Bag.
package diag
