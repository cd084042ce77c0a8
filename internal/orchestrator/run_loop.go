package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ShayCichocki/dealroom/internal/state"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

// run drives one negotiation to a terminal status. The registry entry and
// the event channel are released on every path.
func (o *Orchestrator) run(n *negotiation) {
	defer o.wg.Done()
	defer n.emitter.Close()
	defer n.emitter.reportDrops(o.config.Logger, n.session.ID)
	defer o.registry.Unregister(n.session.ID)
	defer func() {
		if p := recover(); p != nil {
			o.fail(n, fmt.Errorf("panic in turn loop: %v", p))
		}
	}()

	ctx := o.baseCtx
	o.emitProgress(n, 0, ProgressStarted)

	consensus, err := o.runTurns(ctx, n)
	if err != nil {
		o.fail(n, err)
		return
	}

	turns := len(n.transcript)
	o.emitProgress(n, turns, ProgressExtracting)
	d := o.extract(ctx, n)

	result := &models.NegotiationResult{
		SessionID:        n.session.ID,
		ConsensusReached: d.ConsensusReached,
		Decision:         d,
		Notes:            d.CommissionerNotes,
		TotalTurns:       turns,
	}
	if consensus != nil {
		result.FinalConsensus = consensus.Content
	}
	if err := o.config.Repository.SaveResult(result); err != nil {
		o.fail(n, fmt.Errorf("save result: %w", err))
		return
	}

	if err := o.config.Repository.UpdateSessionStatus(n.session.ID, state.StatusUpdate{
		Status:      models.SessionCompleted,
		CurrentTurn: &turns,
	}); err != nil {
		o.fail(n, fmt.Errorf("complete session: %w", err))
		return
	}

	o.emitProgress(n, turns, ProgressCompleted)
	log.Printf("[orchestrator] session %s completed after %d turns (consensus=%t approved=%t)",
		n.session.ID, turns, d.ConsensusReached, d.Approved)
	o.config.Logger.Session(n.session.ID, "completed: turns=%d consensus=%t approved=%t reasons=%v",
		turns, d.ConsensusReached, d.Approved, d.RejectionReasons)
}

// runTurns runs the round-robin until the consensus keyword appears or the
// turn limit is reached. It returns the message that carried the keyword,
// if any. Errors are infrastructure failures and end the session.
func (o *Orchestrator) runTurns(ctx context.Context, n *negotiation) (*models.Message, error) {
	maxTurns := n.session.MaxTurns
	for turn := 1; turn <= maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("negotiation stopped before turn %d: %w", turn, err)
		}

		p := n.speakerFor(turn)
		o.config.Logger.Session(n.session.ID, "turn %d: %s speaking", turn, p.name)
		reply := p.speaker.GenerateReply(ctx, n.historyFor(p.name), o.config.MaxToolRounds)

		msg := models.Message{
			SessionID:  n.session.ID,
			TurnNumber: turn,
			Speaker:    p.name,
			Content:    reply.Content,
			Timestamp:  time.Now(),
			Metadata:   messageMetadata(p, reply.Backend, reply.Failed),
		}
		if err := o.config.Repository.AppendMessage(&msg); err != nil {
			return nil, fmt.Errorf("persist turn %d: %w", turn, err)
		}
		n.transcript = append(n.transcript, msg)

		current := turn
		if err := o.config.Repository.UpdateSessionStatus(n.session.ID, state.StatusUpdate{
			Status:      models.SessionInProgress,
			CurrentTurn: &current,
		}); err != nil {
			return nil, fmt.Errorf("record turn %d: %w", turn, err)
		}

		streamed := msg
		n.emitter.Emit(NegotiationEvent{
			Type:      EventMessage,
			SessionID: n.session.ID,
			Message:   &streamed,
			Timestamp: msg.Timestamp,
		})
		o.emitProgress(n, turn, ProgressTurn)

		if o.hasConsensus(msg.Content) {
			log.Printf("[orchestrator] session %s: consensus keyword at turn %d", n.session.ID, turn)
			o.emitProgress(n, turn, ProgressConsensus)
			return &n.transcript[len(n.transcript)-1], nil
		}
	}
	return nil, nil
}

func messageMetadata(p participant, backend string, failed bool) map[string]any {
	meta := map[string]any{"role": string(p.role)}
	if p.teamID != 0 {
		meta["team_id"] = p.teamID
	}
	if backend != "" {
		meta["backend"] = backend
	}
	if failed {
		meta["backend_error"] = true
	}
	return meta
}

// hasConsensus reports whether content contains the consensus keyword,
// ignoring case.
func (o *Orchestrator) hasConsensus(content string) bool {
	return strings.Contains(strings.ToLower(content), strings.ToLower(o.config.ConsensusKeyword))
}

// fail records an infrastructure failure on the session.
func (o *Orchestrator) fail(n *negotiation, err error) {
	log.Printf("[orchestrator] session %s failed: %v", n.session.ID, err)
	o.config.Logger.Session(n.session.ID, "failed: %v", err)
	o.markFailed(n.session.ID, err)
	o.emitProgress(n, len(n.transcript), ProgressFailed)
}

func (o *Orchestrator) emitProgress(n *negotiation, turn int, tag ProgressTag) {
	n.emitter.Emit(NegotiationEvent{
		Type:      EventProgress,
		SessionID: n.session.ID,
		Progress: Progress{
			SessionID: n.session.ID,
			Turn:      turn,
			Total:     n.session.MaxTurns,
			Tag:       tag,
		},
		Timestamp: time.Now(),
	})
}
