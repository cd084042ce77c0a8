package orchestrator

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

func TestDerivePreferences(t *testing.T) {
	rules := models.LeagueRules{
		SalaryCap:         100_000_000,
		BudgetFloor:       1_000_000,
		BudgetCeiling:     20_000_000,
		PositionThreshold: 1,
	}

	tests := []struct {
		name          string
		players       []models.Player
		wantPositions []string
		wantMax       int64
		wantRelief    bool
	}{
		{
			name:          "empty roster",
			wantPositions: []string{"PG", "SG", "SF", "PF", "C"},
			wantMax:       20_000_000,
		},
		{
			name: "dual positions count twice",
			players: []models.Player{
				{Name: "A", Position: "PG/SG", Salary: 30_000_000},
				{Name: "B", Position: "SF", Salary: 30_000_000},
			},
			wantPositions: []string{"PF", "C"},
			wantMax:       10_000_000,
		},
		{
			name: "tight cap hits the floor",
			players: []models.Player{
				{Name: "A", Position: "PG", Salary: 98_000_000},
			},
			wantPositions: []string{"SG", "SF", "PF", "C"},
			wantMax:       1_000_000,
		},
		{
			name: "over the cap wants relief",
			players: []models.Player{
				{Name: "A", Position: "PG", Salary: 60_000_000},
				{Name: "B", Position: "SG", Salary: 50_000_000},
				{Name: "C", Position: "SF", Salary: 1},
				{Name: "D", Position: "PF", Salary: 1},
				{Name: "E", Position: "C", Salary: 1},
			},
			wantPositions: []string{},
			wantMax:       1_000_000,
			wantRelief:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			team := &models.Team{ID: 7, Name: "Owls", Players: tt.players}
			got := DerivePreferences(team, rules)

			if !reflect.DeepEqual(got.DesiredPositions, tt.wantPositions) {
				t.Errorf("DesiredPositions = %v, want %v", got.DesiredPositions, tt.wantPositions)
			}
			if got.MinSalary != rules.BudgetFloor {
				t.Errorf("MinSalary = %d, want floor", got.MinSalary)
			}
			if got.MaxSalary != tt.wantMax {
				t.Errorf("MaxSalary = %d, want %d", got.MaxSalary, tt.wantMax)
			}
			if got.CapRelief != tt.wantRelief {
				t.Errorf("CapRelief = %t, want %t", got.CapRelief, tt.wantRelief)
			}
			if again := DerivePreferences(team, rules); !reflect.DeepEqual(again, got) {
				t.Error("DerivePreferences should be deterministic")
			}
		})
	}
}

func TestDerivePreferences_Notes(t *testing.T) {
	team := &models.Team{Players: []models.Player{{Name: "A", Position: "C", Salary: 2_500_000}}}
	got := DerivePreferences(team, models.DefaultLeagueRules())
	if !strings.Contains(got.Notes, "1-player roster with $2,500,000 payroll") {
		t.Errorf("Notes = %q", got.Notes)
	}
}

func TestFormatPreferences(t *testing.T) {
	if got := formatPreferences(models.TradePreferences{}); got != "- No specific requirements\n" {
		t.Errorf("empty preferences = %q", got)
	}

	got := formatPreferences(models.TradePreferences{
		DesiredPositions: []string{"C", "PF"},
		MinSalary:        1_000_000,
		MaxSalary:        5_000_000,
		TargetPlayers:    []string{"Cal Big"},
		ImproveDefense:   true,
	})
	for _, want := range []string{
		"- Positions: C, PF",
		"between $1,000,000 and $5,000,000",
		"- Targets: Cal Big",
		"- Improve defense",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
}

func TestTeamNames(t *testing.T) {
	teams := []*models.Team{{Name: "Hawks"}, {Name: "Rams"}, {Name: "Bulls"}}
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "Hawks"},
		{2, "Hawks and Rams"},
		{3, "Hawks, Rams and Bulls"},
	}
	for _, tt := range tests {
		if got := teamNames(teams[:tt.n]); got != tt.want {
			t.Errorf("teamNames(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
