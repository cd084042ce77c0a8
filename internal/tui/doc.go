// Package tui provides the live negotiation viewer for dealroom.
//
// The viewer is a bubbletea program fed by the orchestrator's callbacks:
//
//	program, app := tui.NewProgram("neg-1a2b3c4d", 10)
//	onMessage, onProgress := tui.Callbacks(program)
//	orch.Start(ctx, orchestrator.StartRequest{OnMessage: onMessage, OnProgress: onProgress, ...})
//	program.Run()
//
// Messages are appended to a scrollable transcript and progress drives the
// status line. The program never talks to the orchestrator directly.
package tui
