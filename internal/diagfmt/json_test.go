package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"glint/internal/diag"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleBag(), JSONOpts{}); err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("unexpected counts: %d items, count=%d", len(out.Diagnostics), out.Count)
	}
	first := out.Diagnostics[0]
	if first.File != "main.go" || first.Line != 10 || first.Col != 2 {
		t.Fatalf("unexpected first diagnostic: %+v", first)
	}
	if first.Severity != "ERROR" {
		t.Fatalf("unexpected severity: %q", first.Severity)
	}
}

func TestJSONMaxTruncatesOutputNotCount(t *testing.T) {
	out, err := BuildDiagnosticsOutput(sampleBag(), JSONOpts{Max: 1})
	if err != nil {
		t.Fatalf("BuildDiagnosticsOutput: %v", err)
	}
	if len(out.Diagnostics) != 1 {
		t.Fatalf("Max not applied: %d", len(out.Diagnostics))
	}
	if out.Count != 2 {
		t.Fatalf("Count must reflect the bag, got %d", out.Count)
	}
}

func TestJSONOmitsZeroColumn(t *testing.T) {
	bag := diag.NewBag(1)
	bag.Add(diag.New("vet", "a.go", 5, 0, diag.SevError, "m"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, JSONOpts{}); err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(buf.Bytes(), []byte(`"col"`)) {
		t.Fatalf("zero column serialized: %s", buf.String())
	}
}
