package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ShayCichocki/dealroom/internal/roster"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

// ToolExecutor executes tool calls requested by the model. Execute never
// fails: every problem is reported as the returned text.
type ToolExecutor struct {
	rosters roster.Source
	rules   models.LeagueRules
}

// NewToolExecutor creates a tool executor backed by the given roster source.
func NewToolExecutor(rosters roster.Source, rules models.LeagueRules) *ToolExecutor {
	return &ToolExecutor{rosters: rosters, rules: rules}
}

// Execute runs a tool by name with the given JSON arguments.
func (e *ToolExecutor) Execute(ctx context.Context, name string, input json.RawMessage) string {
	switch name {
	case ToolGetTeamRoster:
		return e.execRoster(ctx, input)
	case ToolGetTeamNeeds:
		return e.execNeeds(ctx, input)
	case ToolEvaluateTrade:
		return e.execEvaluate(ctx, input)
	default:
		return fmt.Sprintf("Error: unknown tool: %s", name)
	}
}

type teamParams struct {
	TeamID int `json:"team_id"`
}

func (e *ToolExecutor) execRoster(ctx context.Context, input json.RawMessage) string {
	var params teamParams
	if err := json.Unmarshal(input, &params); err != nil {
		return fmt.Sprintf("Error: invalid parameters: %v", err)
	}
	team, err := e.team(ctx, params.TeamID)
	if err != nil {
		return "Error: " + err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (team %d) roster, %d players:\n", team.Name, team.ID, len(team.Players))
	for _, p := range sortedPlayers(team.Players) {
		fmt.Fprintf(&b, "- %s [%s] $%s", p.Name, p.Position, models.FormatMoney(p.Salary))
		if p.Age > 0 {
			fmt.Fprintf(&b, ", age %d", p.Age)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Total payroll: $%s", models.FormatMoney(team.TotalSalary()))
	return b.String()
}

func (e *ToolExecutor) execNeeds(ctx context.Context, input json.RawMessage) string {
	var params teamParams
	if err := json.Unmarshal(input, &params); err != nil {
		return fmt.Sprintf("Error: invalid parameters: %v", err)
	}
	team, err := e.team(ctx, params.TeamID)
	if err != nil {
		return "Error: " + err.Error()
	}

	counts := team.PositionCounts()
	var b strings.Builder
	fmt.Fprintf(&b, "%s (team %d) needs:\n", team.Name, team.ID)
	for _, pos := range models.Positions {
		marker := ""
		if counts[pos] < e.rules.PositionThreshold {
			marker = " (thin)"
		}
		fmt.Fprintf(&b, "- %s: %d%s\n", pos, counts[pos], marker)
	}
	payroll := team.TotalSalary()
	fmt.Fprintf(&b, "Payroll: $%s of $%s cap, room $%s\n",
		models.FormatMoney(payroll), models.FormatMoney(e.rules.SalaryCap), models.FormatMoney(e.rules.SalaryCap-payroll))
	fmt.Fprintf(&b, "Roster size: %d (league range %d-%d)", len(team.Players), e.rules.RosterMin, e.rules.RosterMax)
	return b.String()
}

type tradeParams struct {
	OfferingTeamID  int      `json:"offering_team_id"`
	ReceivingTeamID int      `json:"receiving_team_id"`
	PlayersOut      []string `json:"players_out"`
	PlayersIn       []string `json:"players_in"`
}

// execEvaluate returns a salary-matching analysis wrapped in verbatim markers.
func (e *ToolExecutor) execEvaluate(ctx context.Context, input json.RawMessage) string {
	var params tradeParams
	if err := json.Unmarshal(input, &params); err != nil {
		return fmt.Sprintf("Error: invalid parameters: %v", err)
	}
	if params.OfferingTeamID == params.ReceivingTeamID {
		return "Error: offering and receiving team must differ"
	}
	offering, err := e.team(ctx, params.OfferingTeamID)
	if err != nil {
		return "Error: " + err.Error()
	}
	receiving, err := e.team(ctx, params.ReceivingTeamID)
	if err != nil {
		return "Error: " + err.Error()
	}

	out, missingOut := pickPlayers(offering, params.PlayersOut)
	in, missingIn := pickPlayers(receiving, params.PlayersIn)
	if len(missingOut) > 0 || len(missingIn) > 0 {
		var problems []string
		if len(missingOut) > 0 {
			problems = append(problems, fmt.Sprintf("not on %s: %s", offering.Name, strings.Join(missingOut, ", ")))
		}
		if len(missingIn) > 0 {
			problems = append(problems, fmt.Sprintf("not on %s: %s", receiving.Name, strings.Join(missingIn, ", ")))
		}
		return "Error: unknown players (" + strings.Join(problems, "; ") + ")"
	}

	outSalary := sumSalary(out)
	inSalary := sumSalary(in)

	var b strings.Builder
	b.WriteString(VerbatimStart + "\n")
	fmt.Fprintf(&b, "Trade analysis: %s <-> %s\n", offering.Name, receiving.Name)
	fmt.Fprintf(&b, "%s sends: %s ($%s)\n", offering.Name, playerList(out), models.FormatMoney(outSalary))
	fmt.Fprintf(&b, "%s sends: %s ($%s)\n", receiving.Name, playerList(in), models.FormatMoney(inSalary))
	b.WriteString(salaryLine(offering, outSalary, inSalary, e.rules))
	b.WriteString(salaryLine(receiving, inSalary, outSalary, e.rules))
	fmt.Fprintf(&b, "Roster sizes after trade: %s %d, %s %d\n",
		offering.Name, len(offering.Players)-len(out)+len(in),
		receiving.Name, len(receiving.Players)-len(in)+len(out))
	b.WriteString(VerbatimEnd)
	return b.String()
}

// salaryLine applies the 125% + $100k matching rule for teams over the cap.
func salaryLine(team *models.Team, sent, received int64, rules models.LeagueRules) string {
	payrollAfter := team.TotalSalary() - sent + received
	if payrollAfter <= rules.SalaryCap {
		return fmt.Sprintf("%s: payroll after $%s, under the cap\n", team.Name, models.FormatMoney(payrollAfter))
	}
	limit := sent*125/100 + 100_000
	verdict := "salaries match"
	if received > limit {
		verdict = fmt.Sprintf("FAILS salary matching (max incoming $%s)", models.FormatMoney(limit))
	}
	return fmt.Sprintf("%s: payroll after $%s, over the cap, %s\n", team.Name, models.FormatMoney(payrollAfter), verdict)
}

func (e *ToolExecutor) team(ctx context.Context, id int) (*models.Team, error) {
	if e.rosters == nil {
		return nil, errors.New("roster data unavailable")
	}
	team, err := e.rosters.Team(ctx, id)
	if err != nil {
		return nil, err
	}
	return team, nil
}

func pickPlayers(team *models.Team, names []string) ([]models.Player, []string) {
	var found []models.Player
	var missing []string
	for _, name := range names {
		if p := team.FindPlayer(name); p != nil {
			found = append(found, *p)
		} else {
			missing = append(missing, name)
		}
	}
	return found, missing
}

func sortedPlayers(players []models.Player) []models.Player {
	out := append([]models.Player(nil), players...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Salary > out[j].Salary })
	return out
}

func sumSalary(players []models.Player) int64 {
	var total int64
	for _, p := range players {
		total += p.Salary
	}
	return total
}

func playerList(players []models.Player) string {
	if len(players) == 0 {
		return "nothing"
	}
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}
