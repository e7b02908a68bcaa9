package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"glint/internal/runner"
	"glint/internal/ui"
)

type lintOutcome struct {
	results []runner.Result
	err     error
}

// runLintWithUI drives the lint passes behind a bubbletea progress view.
// The passes run in a goroutine feeding stage events to the model; the
// outcome is handed over once the channel closes.
func runLintWithUI(ctx context.Context, title string, reqs []runner.Request, r *runner.Runner, events chan runner.Event) ([]runner.Result, error) {
	files := make([]string, len(reqs))
	for i, req := range reqs {
		files[i] = req.Path
	}

	lintCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomeCh := make(chan lintOutcome, 1)
	go func() {
		results, err := r.LintMany(lintCtx, reqs, runJobs)
		outcomeCh <- lintOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := awaitOutcome(cancel, events, outcomeCh)
	if uiErr != nil && outcome.err == nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}

// awaitOutcome collects the lint outcome after the progress view has exited
// for any reason. Quitting the view early leaves nobody reading events, so
// the passes are cancelled and the channel drained until the lint goroutine
// closes it — otherwise a full event buffer would block the run forever.
func awaitOutcome(cancel context.CancelFunc, events <-chan runner.Event, outcomeCh <-chan lintOutcome) lintOutcome {
	cancel()
	for range events {
	}
	return <-outcomeCh
}
