package models

// Positions lists the roster positions every team must cover.
var Positions = []string{"PG", "SG", "SF", "PF", "C"}

// Player is one roster entry.
type Player struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Position string `json:"position" yaml:"position"`
	Salary   int64  `json:"salary" yaml:"salary"`
	Age      int    `json:"age,omitempty" yaml:"age,omitempty"`
	Rating   int    `json:"rating,omitempty" yaml:"rating,omitempty"`
}

// Team is a roster snapshot.
type Team struct {
	ID      int      `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Manager string   `json:"manager,omitempty" yaml:"manager,omitempty"`
	Players []Player `json:"players" yaml:"players"`
}

// TotalSalary sums the salaries of every rostered player.
func (t *Team) TotalSalary() int64 {
	var total int64
	for _, p := range t.Players {
		total += p.Salary
	}
	return total
}

// PositionCounts counts rostered players per position.
// Dual positions such as "PG/SG" count toward each listed position.
func (t *Team) PositionCounts() map[string]int {
	counts := make(map[string]int, len(Positions))
	for _, pos := range Positions {
		counts[pos] = 0
	}
	for _, p := range t.Players {
		for _, pos := range splitPositions(p.Position) {
			if _, ok := counts[pos]; ok {
				counts[pos]++
			}
		}
	}
	return counts
}

// FindPlayer returns the rostered player with the given name, or nil.
func (t *Team) FindPlayer(name string) *Player {
	for i := range t.Players {
		if equalFold(t.Players[i].Name, name) {
			return &t.Players[i]
		}
	}
	return nil
}

// TradePreferences configures what a team is looking for in a negotiation.
type TradePreferences struct {
	DesiredPositions []string `json:"desired_positions"`
	MinSalary        int64    `json:"min_salary"`
	MaxSalary        int64    `json:"max_salary"`
	TargetPlayers    []string `json:"target_players,omitempty"`
	AvailablePlayers []string `json:"available_players,omitempty"`
	ImproveDefense   bool     `json:"improve_defense"`
	ImproveOffense   bool     `json:"improve_offense"`
	AcquireYouth     bool     `json:"acquire_youth"`
	CapRelief        bool     `json:"cap_relief"`
	Notes            string   `json:"notes,omitempty"`
}

// LeagueRules holds the league constants used in derived preferences and
// trade analysis. They are informational; the engine does not enforce them.
type LeagueRules struct {
	SalaryCap         int64 `json:"salary_cap"`
	RosterMin         int   `json:"roster_min"`
	RosterMax         int   `json:"roster_max"`
	BudgetFloor       int64 `json:"budget_floor"`
	BudgetCeiling     int64 `json:"budget_ceiling"`
	PositionThreshold int   `json:"position_threshold"`
}

// DefaultLeagueRules returns the rules used when none are configured.
func DefaultLeagueRules() LeagueRules {
	return LeagueRules{
		SalaryCap:         140_588_000,
		RosterMin:         13,
		RosterMax:         15,
		BudgetFloor:       1_000_000,
		BudgetCeiling:     35_000_000,
		PositionThreshold: 2,
	}
}
