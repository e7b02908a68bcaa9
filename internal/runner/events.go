package runner

// Stage identifies one phase of a lint pass for progress reporting.
type Stage uint8

const (
	StageResolve Stage = iota
	StageMirror
	StageInvoke
	StageParse
)

func (s Stage) String() string {
	switch s {
	case StageResolve:
		return "resolve"
	case StageMirror:
		return "mirror"
	case StageInvoke:
		return "invoke"
	case StageParse:
		return "parse"
	}
	return "unknown"
}

// Status describes what a pass is doing with its current stage.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
	StatusSkipped
)

// Event is emitted to an optional sink as a pass moves through its stages.
// File is empty for run-wide events.
type Event struct {
	File   string
	Stage  Stage
	Status Status
}

func (r *Runner) emit(ev Event) {
	if r.events == nil {
		return
	}
	r.events <- ev
}
