package api

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

// Markers delimit tool output that must reach the user unmodified.
const (
	VerbatimStart = "<<<TRADE_ANALYSIS>>>"
	VerbatimEnd   = "<<<END_TRADE_ANALYSIS>>>"
)

// Tool names understood by ToolExecutor.
const (
	ToolGetTeamRoster = "get_team_roster"
	ToolGetTeamNeeds  = "get_team_needs"
	ToolEvaluateTrade = "evaluate_trade"
)

// ToolDefinitions returns the tools available to negotiation agents.
func ToolDefinitions() []models.ToolSpec {
	return []models.ToolSpec{
		{
			Name:        ToolGetTeamRoster,
			Description: "Get the current roster of a team, including each player's position and salary.",
			Parameters: map[string]any{
				"team_id": map[string]any{
					"type":        "integer",
					"description": "The id of the team",
				},
			},
			Required: []string{"team_id"},
		},
		{
			Name:        ToolGetTeamNeeds,
			Description: "Summarize a team's positional depth, payroll and remaining salary-cap room.",
			Parameters: map[string]any{
				"team_id": map[string]any{
					"type":        "integer",
					"description": "The id of the team",
				},
			},
			Required: []string{"team_id"},
		},
		{
			Name: ToolEvaluateTrade,
			Description: "Evaluate a proposed trade between two teams: salary matching, roster sizes " +
				"and positional impact. The analysis must be shown to the user exactly as returned.",
			Parameters: map[string]any{
				"offering_team_id": map[string]any{
					"type":        "integer",
					"description": "Team sending players_out",
				},
				"receiving_team_id": map[string]any{
					"type":        "integer",
					"description": "Team sending players_in",
				},
				"players_out": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Names of players leaving the offering team",
				},
				"players_in": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Names of players arriving at the offering team",
				},
			},
			Required: []string{"offering_team_id", "receiving_team_id", "players_out", "players_in"},
		},
	}
}

// AnthropicTools converts tool specs to the Messages API tool format.
func AnthropicTools(specs []models.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		properties := spec.Parameters
		if properties == nil {
			properties = map[string]any{}
		}
		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        spec.Name,
				Description: anthropic.String(spec.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   spec.Required,
				},
			},
		})
	}
	return tools
}
