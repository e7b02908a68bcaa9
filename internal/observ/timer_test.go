package observ

import (
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	timer := NewTimer()
	end := timer.Begin("resolve")
	end("/usr/bin/tool")
	end = timer.Begin("invoke")
	end("exit 0")

	report := timer.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(report.Phases))
	}
	if report.Phases[0].Name != "resolve" || report.Phases[0].Note != "/usr/bin/tool" {
		t.Fatalf("wrong first phase: %+v", report.Phases[0])
	}
	if report.TotalMS < 0 {
		t.Fatalf("negative total: %f", report.TotalMS)
	}
}

func TestReportSummaryListsPhases(t *testing.T) {
	timer := NewTimer()
	timer.Begin("parse")("3 diagnostics")
	out := timer.Report().Summary()
	if !strings.Contains(out, "parse") || !strings.Contains(out, "3 diagnostics") {
		t.Fatalf("summary missing phase: %q", out)
	}
	if !strings.Contains(out, "total") {
		t.Fatalf("summary missing total: %q", out)
	}
}

func TestEmptyTimerReport(t *testing.T) {
	if report := NewTimer().Report(); len(report.Phases) != 0 || report.TotalMS != 0 {
		t.Fatalf("empty timer produced phases: %+v", report)
	}
}
