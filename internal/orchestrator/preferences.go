package orchestrator

import (
	"fmt"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

// DerivePreferences builds trade preferences for a team from its roster.
// Positions with fewer players than the league threshold become desired, and
// the budget window runs from the league floor to a quarter of the remaining
// cap room, bounded by the floor and the ceiling. The result depends only on
// the roster snapshot and the rules.
func DerivePreferences(team *models.Team, rules models.LeagueRules) models.TradePreferences {
	counts := team.PositionCounts()
	desired := []string{}
	for _, pos := range models.Positions {
		if counts[pos] < rules.PositionThreshold {
			desired = append(desired, pos)
		}
	}

	payroll := team.TotalSalary()
	headroom := rules.SalaryCap - payroll

	maxSalary := headroom / 4
	if maxSalary < rules.BudgetFloor {
		maxSalary = rules.BudgetFloor
	}
	if maxSalary > rules.BudgetCeiling {
		maxSalary = rules.BudgetCeiling
	}

	return models.TradePreferences{
		DesiredPositions: desired,
		MinSalary:        rules.BudgetFloor,
		MaxSalary:        maxSalary,
		CapRelief:        headroom < 0,
		Notes: fmt.Sprintf("Derived from a %d-player roster with $%s payroll and $%s cap room.",
			len(team.Players), models.FormatMoney(payroll), models.FormatMoney(headroom)),
	}
}
