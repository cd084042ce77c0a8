package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ShayCichocki/dealroom/internal/decision"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

var errNoDecision = errors.New("no trade decision found")

// extractionStrategy is one way of turning a finished transcript into a
// decision. Strategies are tried in order and the first success wins.
type extractionStrategy struct {
	name string
	run  func(ctx context.Context, n *negotiation) (*models.TradeDecision, error)
}

func (o *Orchestrator) extractionChain() []extractionStrategy {
	return []extractionStrategy{
		{name: "transcript scan", run: o.scanTranscript},
		{name: "extractor agent", run: o.runExtractor},
	}
}

// extract always returns a decision. When every strategy fails the result is
// a synthesized rejection naming each failure.
func (o *Orchestrator) extract(ctx context.Context, n *negotiation) *models.TradeDecision {
	var failures []string
	for _, s := range o.extractionChain() {
		d, err := s.run(ctx, n)
		if err == nil {
			o.config.Logger.Session(n.session.ID, "decision extracted by %s", s.name)
			d.Normalize()
			return d
		}
		log.Printf("[orchestrator] session %s: %s: %v", n.session.ID, s.name, err)
		failures = append(failures, fmt.Sprintf("%s: %v", s.name, err))
	}
	return decision.Fallback("Decision extraction failed (" + strings.Join(failures, "; ") + ")")
}

// LastDecision returns the decision payload of the latest message that
// carries one, with its turn number. Later decisions supersede earlier ones.
func LastDecision(messages []models.Message) (*decision.Payload, int) {
	var found *decision.Payload
	turn := 0
	for _, m := range messages {
		if p := decision.Parse(m.Content); p != nil && p.Kind == decision.KindTradeDecision {
			found, turn = p, m.TurnNumber
		}
	}
	return found, turn
}

func (o *Orchestrator) scanTranscript(_ context.Context, n *negotiation) (*models.TradeDecision, error) {
	p, turn := LastDecision(n.transcript)
	if p == nil {
		return nil, fmt.Errorf("%w in transcript", errNoDecision)
	}
	if !p.Valid() {
		return nil, fmt.Errorf("decision at turn %d is invalid: %v", turn, p.ValidationErr)
	}
	return p.Decision, nil
}

func (o *Orchestrator) runExtractor(ctx context.Context, n *negotiation) (*models.TradeDecision, error) {
	extractor := o.config.Agents(AgentSpec{
		Name:    extractorName,
		Role:    RoleExtractor,
		Persona: extractorPersona(n.teams),
	})
	history := []models.ChatMessage{{Role: models.ChatRoleUser, Content: transcriptText(n.transcript)}}

	reply := extractor.GenerateReply(ctx, history, 1)
	if reply.Failed {
		return nil, errors.New(reply.Content)
	}
	p := decision.Parse(reply.Content)
	if p == nil || p.Kind != decision.KindTradeDecision {
		return nil, fmt.Errorf("%w in extractor reply", errNoDecision)
	}
	if !p.Valid() {
		return nil, fmt.Errorf("extractor decision is invalid: %v", p.ValidationErr)
	}
	return p.Decision, nil
}

func transcriptText(messages []models.Message) string {
	var b strings.Builder
	b.WriteString("Negotiation transcript:\n\n")
	for _, m := range messages {
		fmt.Fprintf(&b, "[Turn %d] %s: %s\n\n", m.TurnNumber, m.Speaker, m.Content)
	}
	return b.String()
}
