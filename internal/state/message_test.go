package state

import (
	"errors"
	"testing"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

func TestAppendAndListMessages(t *testing.T) {
	db := setupTestDB(t)
	db.CreateSession(newSession("neg-1"))

	speakers := []string{"Hawks", "Rams", "Commissioner"}
	for i, speaker := range speakers {
		m := &models.Message{SessionID: "neg-1", TurnNumber: i + 1, Speaker: speaker, Content: "turn"}
		if i == 0 {
			m.Metadata = map[string]any{"backend": "anthropic"}
		}
		if err := db.AppendMessage(m); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	msgs, err := db.ListMessages("neg-1")
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	for i, m := range msgs {
		if m.TurnNumber != i+1 || m.Speaker != speakers[i] {
			t.Errorf("msgs[%d] = turn %d %q", i, m.TurnNumber, m.Speaker)
		}
		if m.Timestamp.IsZero() {
			t.Errorf("msgs[%d] has no timestamp", i)
		}
	}
	if msgs[0].Metadata["backend"] != "anthropic" {
		t.Errorf("metadata = %v", msgs[0].Metadata)
	}
	if msgs[1].Metadata != nil {
		t.Errorf("metadata should be nil when unset, got %v", msgs[1].Metadata)
	}
}

func TestAppendMessage_DuplicateTurn(t *testing.T) {
	db := setupTestDB(t)
	db.CreateSession(newSession("neg-1"))

	m := &models.Message{SessionID: "neg-1", TurnNumber: 1, Speaker: "Hawks", Content: "a"}
	if err := db.AppendMessage(m); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}
	if err := db.AppendMessage(&models.Message{SessionID: "neg-1", TurnNumber: 1, Speaker: "Rams", Content: "b"}); err == nil {
		t.Error("expected error appending duplicate turn")
	}
}

func TestAppendMessage_UnknownSession(t *testing.T) {
	db := setupTestDB(t)
	err := db.AppendMessage(&models.Message{SessionID: "missing", TurnNumber: 1, Speaker: "Hawks", Content: "a"})
	if err == nil {
		t.Error("expected foreign key error")
	}
}

func TestSaveAndGetResult(t *testing.T) {
	db := setupTestDB(t)
	db.CreateSession(newSession("neg-1"))

	decision := &models.TradeDecision{
		Approved:         true,
		OfferingTeamID:   1,
		ReceivingTeamID:  2,
		TradedPlayersOut: []models.TradedPlayer{{Name: "Ada Guard"}},
		ConsensusReached: true,
	}
	result := &models.NegotiationResult{
		SessionID:        "neg-1",
		ConsensusReached: true,
		Decision:         decision,
		Notes:            "fair deal",
		TotalTurns:       6,
		FinalConsensus:   "CONSENSUS REACHED",
	}
	if err := db.SaveResult(result); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	got, err := db.GetResult("neg-1")
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if got == nil || got.Decision == nil {
		t.Fatalf("result = %+v", got)
	}
	if !got.ConsensusReached || got.TotalTurns != 6 || got.Notes != "fair deal" || got.FinalConsensus != "CONSENSUS REACHED" {
		t.Errorf("result = %+v", got)
	}
	if !got.Decision.Approved || got.Decision.TradedPlayersOut[0].Name != "Ada Guard" {
		t.Errorf("decision = %+v", got.Decision)
	}
	if got.Decision.TradedPlayersIn == nil || got.Decision.RejectionReasons == nil {
		t.Error("decoded decision should be normalized")
	}

	if err := db.SaveResult(result); !errors.Is(err, ErrResultExists) {
		t.Errorf("second SaveResult err = %v, want ErrResultExists", err)
	}
}

func TestGetResult_NotFound(t *testing.T) {
	db := setupTestDB(t)
	got, err := db.GetResult("missing")
	if err != nil || got != nil {
		t.Errorf("GetResult = %+v, %v; want nil, nil", got, err)
	}
}

func TestSaveResult_WithoutDecision(t *testing.T) {
	db := setupTestDB(t)
	db.CreateSession(newSession("neg-1"))

	if err := db.SaveResult(&models.NegotiationResult{SessionID: "neg-1", TotalTurns: 3}); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}
	got, _ := db.GetResult("neg-1")
	if got.Decision != nil {
		t.Errorf("Decision = %+v, want nil", got.Decision)
	}
}
