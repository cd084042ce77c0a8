package models

import (
	"errors"
	"fmt"
)

// TradedPlayer identifies a player moving between teams in a trade.
type TradedPlayer struct {
	PlayerID int    `json:"player_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Position string `json:"position,omitempty"`
	Salary   int64  `json:"salary,omitempty"`
}

// TradeDecision is the structured outcome of a negotiation.
type TradeDecision struct {
	// Approved is true when the commissioner signed off on the trade.
	Approved bool `json:"approved"`
	// OfferingTeamID is the team sending TradedPlayersOut.
	OfferingTeamID int `json:"offering_team_id"`
	// ReceivingTeamID is the team sending TradedPlayersIn.
	ReceivingTeamID int `json:"receiving_team_id"`
	// TradedPlayersOut leave the offering team.
	TradedPlayersOut []TradedPlayer `json:"traded_players_out"`
	// TradedPlayersIn arrive at the offering team.
	TradedPlayersIn []TradedPlayer `json:"traded_players_in"`
	// ConsensusReached is true when all parties agreed.
	ConsensusReached bool `json:"consensus_reached"`
	// RejectionReasons explains a non-approved outcome. Empty when approved.
	RejectionReasons []string `json:"rejection_reasons"`
	// CommissionerNotes is free text from the commissioner.
	CommissionerNotes string `json:"commissioner_notes"`
}

// ErrInvalidDecision is wrapped by all TradeDecision validation failures.
var ErrInvalidDecision = errors.New("invalid trade decision")

// Normalize replaces nil slices with empty ones so encoded decisions are stable.
func (d *TradeDecision) Normalize() {
	if d.TradedPlayersOut == nil {
		d.TradedPlayersOut = []TradedPlayer{}
	}
	if d.TradedPlayersIn == nil {
		d.TradedPlayersIn = []TradedPlayer{}
	}
	if d.RejectionReasons == nil {
		d.RejectionReasons = []string{}
	}
}

// Validate checks the decision against the decision schema.
func (d *TradeDecision) Validate() error {
	if d.OfferingTeamID < 0 {
		return fmt.Errorf("%w: offering_team_id must be non-negative, got %d", ErrInvalidDecision, d.OfferingTeamID)
	}
	if d.ReceivingTeamID < 0 {
		return fmt.Errorf("%w: receiving_team_id must be non-negative, got %d", ErrInvalidDecision, d.ReceivingTeamID)
	}
	if d.OfferingTeamID != 0 && d.OfferingTeamID == d.ReceivingTeamID {
		return fmt.Errorf("%w: offering and receiving team are both %d", ErrInvalidDecision, d.OfferingTeamID)
	}
	for i, p := range d.TradedPlayersOut {
		if err := validatePlayer(p); err != nil {
			return fmt.Errorf("%w: traded_players_out[%d]: %v", ErrInvalidDecision, i, err)
		}
	}
	for i, p := range d.TradedPlayersIn {
		if err := validatePlayer(p); err != nil {
			return fmt.Errorf("%w: traded_players_in[%d]: %v", ErrInvalidDecision, i, err)
		}
	}
	if d.Approved && len(d.RejectionReasons) > 0 {
		return fmt.Errorf("%w: approved decision carries rejection reasons", ErrInvalidDecision)
	}
	return nil
}

func validatePlayer(p TradedPlayer) error {
	if p.PlayerID == 0 && p.Name == "" {
		return errors.New("player needs a player_id or a name")
	}
	if p.PlayerID < 0 {
		return fmt.Errorf("player_id must be non-negative, got %d", p.PlayerID)
	}
	if p.Salary < 0 {
		return fmt.Errorf("salary must be non-negative, got %d", p.Salary)
	}
	return nil
}
