package models

import (
	"errors"
	"testing"
)

func TestTradeDecision_Validate(t *testing.T) {
	tests := []struct {
		name    string
		d       TradeDecision
		wantErr bool
	}{
		{
			name: "approved trade",
			d: TradeDecision{
				Approved: true, OfferingTeamID: 1, ReceivingTeamID: 2,
				TradedPlayersOut: []TradedPlayer{{Name: "Ada Guard"}},
				TradedPlayersIn:  []TradedPlayer{{PlayerID: 21}},
			},
		},
		{
			name: "unknown teams are allowed",
			d:    TradeDecision{RejectionReasons: []string{"No deal"}},
		},
		{
			name:    "negative team id",
			d:       TradeDecision{OfferingTeamID: -1},
			wantErr: true,
		},
		{
			name:    "same team on both sides",
			d:       TradeDecision{OfferingTeamID: 3, ReceivingTeamID: 3},
			wantErr: true,
		},
		{
			name:    "anonymous player",
			d:       TradeDecision{TradedPlayersIn: []TradedPlayer{{Position: "C"}}},
			wantErr: true,
		},
		{
			name:    "negative salary",
			d:       TradeDecision{TradedPlayersOut: []TradedPlayer{{Name: "A", Salary: -5}}},
			wantErr: true,
		},
		{
			name:    "approved with rejection reasons",
			d:       TradeDecision{Approved: true, RejectionReasons: []string{"too expensive"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDecision) {
				t.Errorf("error should wrap ErrInvalidDecision: %v", err)
			}
		})
	}
}

func TestTradeDecision_Normalize(t *testing.T) {
	var d TradeDecision
	d.Normalize()
	if d.TradedPlayersOut == nil || d.TradedPlayersIn == nil || d.RejectionReasons == nil {
		t.Errorf("Normalize left nil slices: %+v", d)
	}

	d = TradeDecision{RejectionReasons: []string{"kept"}}
	d.Normalize()
	if len(d.RejectionReasons) != 1 {
		t.Error("Normalize must not drop existing values")
	}
}
