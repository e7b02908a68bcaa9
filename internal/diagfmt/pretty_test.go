package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"glint/internal/diag"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	bag.Add(diag.New("golangci-lint", "main.go", 10, 2, diag.SevError, "unused variable x"))
	bag.Add(diag.New("golangci-lint", "util.go", 3, 0, diag.SevWarning, "shadowed variable"))
	bag.Sort()
	return bag
}

func TestPrettyPlain(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{})
	out := buf.String()

	if !strings.Contains(out, "main.go:10:2: ERROR: unused variable x") {
		t.Fatalf("missing error line:\n%s", out)
	}
	// колонка 0 не печатается
	if !strings.Contains(out, "util.go:3: WARNING: shadowed variable") {
		t.Fatalf("missing warning line:\n%s", out)
	}
	if strings.Contains(out, "util.go:3:0") {
		t.Fatalf("zero column leaked into output:\n%s", out)
	}
}

func TestPrettyWidthTruncation(t *testing.T) {
	bag := diag.NewBag(1)
	bag.Add(diag.New("vet", "main.go", 1, 1, diag.SevError, strings.Repeat("long message ", 20)))

	var buf bytes.Buffer
	Pretty(&buf, bag, PrettyOpts{Width: 40})
	line := strings.TrimRight(buf.String(), "\n")
	if len(line) > 40 {
		t.Fatalf("line not truncated: %d chars", len(line))
	}
	if !strings.HasSuffix(line, "...") {
		t.Fatalf("missing ellipsis: %q", line)
	}
}

func TestPrettyBasenameMode(t *testing.T) {
	bag := diag.NewBag(1)
	bag.Add(diag.New("vet", "/home/x/project/main.go", 1, 1, diag.SevError, "m"))

	var buf bytes.Buffer
	Pretty(&buf, bag, PrettyOpts{PathMode: PathModeBasename})
	if !strings.HasPrefix(buf.String(), "main.go:1:1:") {
		t.Fatalf("basename mode not applied: %q", buf.String())
	}
}

func TestShort(t *testing.T) {
	var buf bytes.Buffer
	Short(&buf, sampleBag())
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "main.go:10:2: unused variable x" {
		t.Fatalf("unexpected short line: %q", lines[0])
	}
}
