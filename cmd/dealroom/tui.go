package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/ShayCichocki/dealroom/internal/orchestrator"
	"github.com/ShayCichocki/dealroom/internal/state"
	"github.com/ShayCichocki/dealroom/internal/tui"
)

// runWithTUI runs a negotiation behind the live transcript viewer. The
// viewer stays open after the negotiation ends until the user quits.
func runWithTUI(ctx context.Context, orch *orchestrator.Orchestrator, req orchestrator.StartRequest, db *state.DB, maxTurns int) (retErr error) {
	// Suppress log output while TUI is active (it corrupts the display)
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("PANIC in runWithTUI: %v", r)
		}
	}()

	program, _ := tui.NewProgram(req.SessionID, maxTurns)
	req.OnMessage, req.OnProgress = tui.Callbacks(program)

	id, err := orch.Start(ctx, req)
	if err != nil {
		return fmt.Errorf("start negotiation %s: %w", id, err)
	}

	go func() {
		orch.Wait()
		summary, ok, err := outcome(db, id)
		if err != nil {
			summary, ok = err.Error(), false
		}
		program.Send(tui.SessionDoneMsg{Success: ok, Message: summary})
	}()

	tuiDone := make(chan error, 1)
	go func() {
		_, err := program.Run()
		tuiDone <- err
	}()

	var tuiErr error
	select {
	case tuiErr = <-tuiDone:
	case <-ctx.Done():
		program.Quit()
		tuiErr = <-tuiDone
	}

	// Closing the viewer early stops the negotiation.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := orch.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stop negotiation: %w", err)
	}
	return tuiErr
}
