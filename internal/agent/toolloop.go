package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/ShayCichocki/dealroom/internal/api"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

// toolLoop drives the primary backend until it answers without tool calls or
// the round budget is spent.
func (r *Runtime) toolLoop(ctx context.Context, history []models.ChatMessage, maxRounds int) (string, error) {
	messages := append([]models.ChatMessage(nil), history...)
	var marked []string

	for round := 1; ; round++ {
		resp, err := r.cfg.Primary.Complete(ctx, r.request(messages, r.cfg.Tools))
		if err != nil {
			return "", err
		}

		if !resp.HasToolCalls() {
			return enforceVerbatim(resp.Content, marked), nil
		}

		if round >= maxRounds {
			log.Printf("[agent] %s: tool budget of %d rounds exhausted", r.cfg.Name, maxRounds)
			return PartialAnalysisMessage, nil
		}

		messages = append(messages, models.ChatMessage{
			Role:      models.ChatRoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			result := r.executeTool(ctx, call)
			if isMarked(result) {
				marked = append(marked, result)
			}
			messages = append(messages, models.ChatMessage{
				Role:       models.ChatRoleTool,
				Name:       call.Name,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}
}

func (r *Runtime) executeTool(ctx context.Context, call models.ToolCall) string {
	if r.cfg.Executor == nil {
		return NoExecutorResult
	}
	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	if !json.Valid(args) {
		return fmt.Sprintf("Error: malformed arguments for tool %s", call.Name)
	}
	log.Printf("[agent] %s: executing tool %s", r.cfg.Name, call.Name)
	return r.cfg.Executor.Execute(ctx, call.Name, args)
}

func isMarked(text string) bool {
	return strings.Contains(text, api.VerbatimStart) && strings.Contains(text, api.VerbatimEnd)
}

// enforceVerbatim returns the marked tool output in place of the model's text
// when the model dropped or paraphrased it.
func enforceVerbatim(content string, marked []string) string {
	if len(marked) == 0 {
		return content
	}
	if strings.Count(content, api.VerbatimStart) >= len(marked) &&
		strings.Count(content, api.VerbatimEnd) >= len(marked) {
		return content
	}
	return strings.Join(marked, "\n\n")
}
