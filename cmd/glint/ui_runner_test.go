package main

import (
	"testing"
	"time"

	"glint/internal/runner"
)

func TestAwaitOutcomeUnblocksFullEventBuffer(t *testing.T) {
	// Продьюсер блокируется на полном канале — как проходы после
	// досрочного выхода из прогресс-вью
	events := make(chan runner.Event, 1)
	outcomeCh := make(chan lintOutcome, 1)
	canceled := make(chan struct{})

	go func() {
		for i := 0; i < 300; i++ {
			events <- runner.Event{File: "main.go", Stage: runner.StageInvoke}
		}
		outcomeCh <- lintOutcome{}
		close(events)
	}()

	done := make(chan lintOutcome, 1)
	go func() {
		done <- awaitOutcome(func() { close(canceled) }, events, outcomeCh)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("awaitOutcome did not drain blocked events")
	}
	select {
	case <-canceled:
	default:
		t.Fatalf("lint context was not cancelled")
	}
}
