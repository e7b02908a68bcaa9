package observ

import (
	"fmt"
	"time"
)

type phase struct {
	name  string
	start time.Time
	dur   time.Duration
	note  string
}

// Timer tracks the stages of a single lint pass (resolve, mirror, invoke,
// parse). Not safe for concurrent use: one timer belongs to one pass.
type Timer struct {
	phases []phase
}

func NewTimer() *Timer { return &Timer{phases: make([]phase, 0, 4)} }

// Begin starts a phase and returns the function that ends it. The note is
// attached when the phase ends (resolved path, exit code, counts).
func (t *Timer) Begin(name string) func(note string) {
	idx := len(t.phases)
	t.phases = append(t.phases, phase{name: name, start: time.Now()})
	return func(note string) {
		p := &t.phases[idx]
		p.dur = time.Since(p.start)
		p.note = note
	}
}

// PhaseReport представляет сжатую информацию о фазе для сериализации.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report описывает агрегированные данные таймера.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report формирует срез фаз и общую длительность в миллисекундах. Фазы,
// не завершённые к этому моменту, учитываются с нулевой длительностью.
func (t *Timer) Report() Report {
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{Phases: make([]PhaseReport, len(t.phases))}
	var total time.Duration
	for i, p := range t.phases {
		total += p.dur
		report.Phases[i] = PhaseReport{
			Name:       p.name,
			DurationMS: float64(p.dur) / float64(time.Millisecond),
			Note:       p.note,
		}
	}
	report.TotalMS = float64(total) / float64(time.Millisecond)
	return report
}

// Summary returns a human-readable listing of all tracked phases.
func (r Report) Summary() string {
	out := "timings:\n"
	for _, p := range r.Phases {
		out += fmt.Sprintf("  %-20s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			out += "  // " + p.Note
		}
		out += "\n"
	}
	out += fmt.Sprintf("  %-20s %7.2f ms\n", "total", r.TotalMS)
	return out
}
