package orchestrator

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/dealroom/internal/decision"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

const (
	commissionerName = "Commissioner"
	extractorName    = "Extractor"
)

func teamPersona(team *models.Team, prefs models.TradePreferences, initiating bool, rules models.LeagueRules) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the general manager of %s (team %d) in a basketball league trade negotiation.\n", team.Name, team.ID)
	if initiating {
		b.WriteString("Your team started this negotiation. Make concrete proposals naming specific players.\n")
	} else {
		b.WriteString("Another team approached you. Protect your roster, but accept offers that improve your team.\n")
	}
	b.WriteString("\n## Your roster\n")
	for _, p := range team.Players {
		fmt.Fprintf(&b, "- %s (%s) $%s\n", p.Name, p.Position, models.FormatMoney(p.Salary))
	}
	fmt.Fprintf(&b, "Payroll: $%s\n", models.FormatMoney(team.TotalSalary()))

	b.WriteString("\n## Your goals\n")
	b.WriteString(formatPreferences(prefs))

	fmt.Fprintf(&b, "\n## League rules\nSalary cap $%s. Rosters must hold %d to %d players.\n",
		models.FormatMoney(rules.SalaryCap), rules.RosterMin, rules.RosterMax)

	b.WriteString("\nKeep each reply short: respond to the last offer, then state your position. " +
		"Use the tools to check rosters and evaluate trades before agreeing to numbers. " +
		"The commissioner rules on the final deal.")
	return b.String()
}

func commissionerPersona(teams []*models.Team, rules models.LeagueRules, keyword string) string {
	var b strings.Builder
	b.WriteString("You are the league commissioner moderating a trade negotiation between ")
	b.WriteString(teamNames(teams))
	b.WriteString(".\n\nKeep the teams focused, point out salary-cap or roster-size problems, and rule on the final deal.\n")
	fmt.Fprintf(&b, "Salary cap $%s. Rosters must hold %d to %d players.\n",
		models.FormatMoney(rules.SalaryCap), rules.RosterMin, rules.RosterMax)

	b.WriteString("\nWhen the teams agree, or it is clear they cannot, issue your ruling as a JSON block of this form:\n\n")
	b.WriteString(decisionTemplate(teams))
	if keyword != "" {
		fmt.Fprintf(&b, "\n\nOnly when you issue the ruling, end your message with %s on its own line.", keyword)
	}
	return b.String()
}

func extractorPersona(teams []*models.Team) string {
	var b strings.Builder
	b.WriteString("You read trade negotiation transcripts and report the final outcome. ")
	b.WriteString("Reply with exactly one JSON code block and nothing else, using this form:\n\n")
	b.WriteString(decisionTemplate(teams))
	b.WriteString("\n\nSet approved and consensus_reached to false and list rejection_reasons if the teams did not agree.")
	return b.String()
}

// decisionTemplate renders an example decision between the first two teams.
func decisionTemplate(teams []*models.Team) string {
	example := &models.TradeDecision{
		Approved:          true,
		ConsensusReached:  true,
		TradedPlayersOut:  []models.TradedPlayer{{Name: "Player leaving the offering team"}},
		TradedPlayersIn:   []models.TradedPlayer{{Name: "Player joining the offering team"}},
		CommissionerNotes: "Why the ruling was made",
	}
	if len(teams) > 1 {
		example.OfferingTeamID = teams[0].ID
		example.ReceivingTeamID = teams[1].ID
	}
	encoded, err := decision.Encode(example)
	if err != nil {
		return ""
	}
	return encoded
}

// kickoffBrief is the unpersisted opening context every agent sees first.
func kickoffBrief(sessionID string, teams []*models.Team, prefs models.TradePreferences) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Negotiation %s: %s wants to make a trade with %s.\n",
		sessionID, teams[0].Name, teamNames(teams[1:]))
	fmt.Fprintf(&b, "\n%s is looking for:\n", teams[0].Name)
	b.WriteString(formatPreferences(prefs))
	b.WriteString("\nSpeakers take turns in a fixed order. Begin.")
	return b.String()
}

func formatPreferences(prefs models.TradePreferences) string {
	var b strings.Builder
	if len(prefs.DesiredPositions) > 0 {
		fmt.Fprintf(&b, "- Positions: %s\n", strings.Join(prefs.DesiredPositions, ", "))
	}
	if prefs.MaxSalary > 0 {
		fmt.Fprintf(&b, "- Incoming salary between $%s and $%s\n",
			models.FormatMoney(prefs.MinSalary), models.FormatMoney(prefs.MaxSalary))
	}
	if len(prefs.TargetPlayers) > 0 {
		fmt.Fprintf(&b, "- Targets: %s\n", strings.Join(prefs.TargetPlayers, ", "))
	}
	if len(prefs.AvailablePlayers) > 0 {
		fmt.Fprintf(&b, "- Willing to move: %s\n", strings.Join(prefs.AvailablePlayers, ", "))
	}
	flags := []struct {
		on   bool
		text string
	}{
		{prefs.ImproveDefense, "Improve defense"},
		{prefs.ImproveOffense, "Improve offense"},
		{prefs.AcquireYouth, "Get younger"},
		{prefs.CapRelief, "Shed salary"},
	}
	for _, f := range flags {
		if f.on {
			fmt.Fprintf(&b, "- %s\n", f.text)
		}
	}
	if prefs.Notes != "" {
		fmt.Fprintf(&b, "- %s\n", prefs.Notes)
	}
	if b.Len() == 0 {
		return "- No specific requirements\n"
	}
	return b.String()
}

func teamNames(teams []*models.Team) string {
	names := make([]string, len(teams))
	for i, t := range teams {
		names[i] = t.Name
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
