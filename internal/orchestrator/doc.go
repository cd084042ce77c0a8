// Package orchestrator runs multi-party trade negotiations.
//
// The orchestrator package provides functionality for:
//   - Session lifecycle: creating the durable record and moving it through
//     created, in_progress, and completed or failed
//   - Turn protocol: strict round-robin over the team agents followed by the
//     commissioner, stopping on the consensus keyword or the turn limit
//   - Streaming: every message is persisted, then delivered to the caller's
//     message and progress callbacks through a per-session event channel
//   - Extraction: turning the finished transcript into a TradeDecision via
//     the decision parser, a one-shot extractor agent, or a synthesized fallback
//
// Example usage:
//
//	orch := orchestrator.New(orchestrator.Config{
//		Repository: db,
//		Rosters:    rosters,
//		Agents:     orchestrator.RuntimeFactory(baseAgentConfig),
//	})
//	id, err := orch.Start(ctx, orchestrator.StartRequest{
//		InitiatingTeamID: 1,
//		TargetTeamIDs:    []int{2},
//		OnMessage:        func(m models.Message) error { fmt.Println(m.Content); return nil },
//	})
//	orch.Wait()
package orchestrator
