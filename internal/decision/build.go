package decision

import (
	"encoding/json"
	"fmt"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

// Fallback builds the synthesized decision used when no usable decision exists.
// Both flags are false and reason is recorded as the sole rejection reason.
func Fallback(reason string) *models.TradeDecision {
	if reason == "" {
		reason = UndeterminedReason
	}
	return &models.TradeDecision{
		Approved:         false,
		ConsensusReached: false,
		TradedPlayersOut: []models.TradedPlayer{},
		TradedPlayersIn:  []models.TradedPlayer{},
		RejectionReasons: []string{reason},
	}
}

// Encode renders a decision as a fenced JSON block that Parse accepts.
func Encode(d *models.TradeDecision) (string, error) {
	c := *d
	c.Normalize()
	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode decision: %w", err)
	}
	return "```json\n" + string(raw) + "\n```", nil
}
