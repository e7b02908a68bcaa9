// Package parse turns line-oriented linter output into diagnostics.
//
// The consumed format is `<path>:<line>[:<col>]: <message>` — the common
// denominator of golangci-lint, go vet, staticcheck and revive. Lines that
// do not match (banners, summaries, progress noise) are skipped; a matching
// line whose numeric fields do not convert is dropped alone and counted.
package parse

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"glint/internal/diag"
)

// DefaultPattern accepts `path:line:col: message` with an optional column.
const DefaultPattern = `^(?P<path>[^:]+):(?P<line>\d+)(?::(?P<col>\d+))?:\s*(?P<message>.*)$`

// Parser extracts diagnostics from tool output using one compiled pattern.
type Parser struct {
	tool string
	re   *regexp.Regexp
	path int
	line int
	col  int
	msg  int
}

// NewParser compiles pattern for the named tool. An empty pattern selects
// DefaultPattern. The pattern must define `line` and `message` groups;
// `path` and `col` are optional.
func NewParser(tool, pattern string) (*Parser, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	p := &Parser{tool: tool, re: re, path: -1, line: -1, col: -1, msg: -1}
	for i, name := range re.SubexpNames() {
		switch name {
		case "path":
			p.path = i
		case "line":
			p.line = i
		case "col":
			p.col = i
		case "message":
			p.msg = i
		}
	}
	return p, nil
}

// ParseLine matches one output line. The second result is false when the
// line is not a diagnostic (no match, or required fields unparseable).
func (p *Parser) ParseLine(line string) (diag.Diagnostic, bool) {
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return diag.Diagnostic{}, false
	}
	lineNo, err := strconv.Atoi(group(m, p.line))
	if err != nil || lineNo <= 0 {
		return diag.Diagnostic{}, false
	}
	col := 0
	if raw := group(m, p.col); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return diag.Diagnostic{}, false
		}
		col = parsed
	}
	message := group(m, p.msg)
	sev, message := splitSeverity(message)
	return diag.New(p.tool, group(m, p.path), lineNo, col, sev, message), true
}

// ParseOutput applies ParseLine over every line of text and reports the
// diagnostics plus the count of matched-but-malformed lines it dropped.
func (p *Parser) ParseOutput(text string) ([]diag.Diagnostic, int) {
	var diags []diag.Diagnostic
	dropped := 0
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		d, ok := p.ParseLine(line)
		if !ok {
			if p.re.MatchString(line) {
				dropped++
			}
			continue
		}
		diags = append(diags, d)
	}
	return diags, dropped
}

// splitSeverity peels a leading `warning:`/`info:` prefix off the message.
// No prefix means error — tools in this family print bare findings as errors.
func splitSeverity(message string) (diag.Severity, string) {
	head, rest, ok := strings.Cut(message, ":")
	if !ok {
		return diag.SevError, message
	}
	switch strings.ToLower(strings.TrimSpace(head)) {
	case "warning", "warn":
		return diag.SevWarning, strings.TrimSpace(rest)
	case "info", "note", "hint":
		return diag.SevInfo, strings.TrimSpace(rest)
	}
	return diag.SevError, message
}

func group(m []string, idx int) string {
	if idx < 0 || idx >= len(m) {
		return ""
	}
	return m[idx]
}
