package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

const defaultMaxTokens = 4096

// AnthropicBackend is the primary reasoning backend. It supports tool calls.
type AnthropicBackend struct {
	client *Client
}

// NewAnthropicBackend wraps a Client as a Backend.
func NewAnthropicBackend(client *Client) *AnthropicBackend {
	return &AnthropicBackend{client: client}
}

// Name returns the backend name.
func (b *AnthropicBackend) Name() string {
	if b.client.IsBedrock() {
		return "anthropic (bedrock)"
	}
	return "anthropic"
}

// Tracker returns the token tracker shared by every call on this backend.
func (b *AnthropicBackend) Tracker() *TokenTracker {
	return b.client.Tracker()
}

// Complete sends one Messages API call.
func (b *AnthropicBackend) Complete(ctx context.Context, request Request) (*Response, error) {
	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     b.client.Model(),
		MaxTokens: int64(maxTokens),
		Messages:  toAnthropicMessages(request.Messages),
	}
	if request.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: request.System}}
	}
	if request.Temperature != nil {
		params.Temperature = anthropic.Float(*request.Temperature)
	}
	if len(request.Tools) > 0 {
		params.Tools = AnthropicTools(request.Tools)
	}

	resp, err := b.client.sdk().Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{
				Backend:    b.Name(),
				StatusCode: apiErr.StatusCode,
				Message:    apiErr.Error(),
			}
		}
		return nil, fmt.Errorf("%s: API call failed: %w", b.Name(), err)
	}

	b.client.Tracker().Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	out := &Response{
		Usage: Usage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens},
	}
	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Content += variant.Text
		case anthropic.ToolUseBlock:
			out.ToolCalls = append(out.ToolCalls, models.ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: json.RawMessage(variant.Input),
			})
		}
	}
	return out, nil
}

// toAnthropicMessages converts chat history into alternating user/assistant
// turns. Consecutive entries with the same role are merged into one turn and
// tool results travel as user-side tool_result blocks.
func toAnthropicMessages(history []models.ChatMessage) []anthropic.MessageParam {
	var (
		out   []anthropic.MessageParam
		role  anthropic.MessageParamRole
		batch []anthropic.ContentBlockParamUnion
	)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if role == anthropic.MessageParamRoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(batch...))
		} else {
			out = append(out, anthropic.NewUserMessage(batch...))
		}
		batch = nil
	}

	for _, msg := range history {
		var next anthropic.MessageParamRole
		var blocks []anthropic.ContentBlockParamUnion

		switch msg.Role {
		case models.ChatRoleSystem:
			// System text is carried in the request's System field.
			continue
		case models.ChatRoleAssistant:
			next = anthropic.MessageParamRoleAssistant
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, toolInput(call.Arguments), call.Name))
			}
		case models.ChatRoleTool:
			next = anthropic.MessageParamRoleUser
			blocks = append(blocks, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))
		default:
			next = anthropic.MessageParamRoleUser
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
		}
		if len(blocks) == 0 {
			continue
		}

		if next != role {
			flush()
			role = next
		}
		batch = append(batch, blocks...)
	}
	flush()

	// The Messages API requires the first turn to come from the user.
	if len(out) > 0 && out[0].Role == anthropic.MessageParamRoleAssistant {
		opener := anthropic.NewUserMessage(anthropic.NewTextBlock("Continue the negotiation."))
		out = append([]anthropic.MessageParam{opener}, out...)
	}
	if len(out) == 0 {
		out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock("Begin the negotiation.")))
	}
	return out
}

// toolInput returns a value the SDK can marshal as the tool_use input object.
func toolInput(raw json.RawMessage) any {
	if len(raw) == 0 || !json.Valid(raw) {
		return map[string]any{}
	}
	return raw
}
