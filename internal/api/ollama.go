package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

// OllamaBackend is the secondary, local reasoning backend. It speaks the
// Ollama /api/chat wire format and does not support tools.
type OllamaBackend struct {
	httpClient *http.Client
	endpoint   string
	model      string
}

// NewOllamaBackend creates a local backend. A nil httpClient uses http.DefaultClient.
func NewOllamaBackend(httpClient *http.Client, endpoint, model string) *OllamaBackend {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaBackend{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(endpoint, "/"),
		model:      model,
	}
}

// Name returns the backend name.
func (b *OllamaBackend) Name() string {
	return "ollama"
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int64         `json:"prompt_eval_count"`
	EvalCount       int64         `json:"eval_count"`
}

// Complete sends a non-streaming chat request.
func (b *OllamaBackend) Complete(ctx context.Context, request Request) (*Response, error) {
	wire := b.buildRequest(request)
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshaling request: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: creating request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	httpResponse, err := b.httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("ollama: sending request: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		return nil, readOllamaError(httpResponse)
	}

	var wireResp ollamaResponse
	if err := json.NewDecoder(httpResponse.Body).Decode(&wireResp); err != nil {
		return nil, fmt.Errorf("ollama: decoding response: %w", err)
	}
	if strings.TrimSpace(wireResp.Message.Content) == "" {
		return nil, fmt.Errorf("ollama: empty response from model %q", b.model)
	}

	return &Response{
		Content: wireResp.Message.Content,
		Usage: Usage{
			InputTokens:  wireResp.PromptEvalCount,
			OutputTokens: wireResp.EvalCount,
		},
	}, nil
}

func (b *OllamaBackend) buildRequest(request Request) ollamaRequest {
	wire := ollamaRequest{Model: b.model}
	if request.Temperature != nil || request.MaxTokens > 0 {
		wire.Options = &ollamaOptions{Temperature: request.Temperature, NumPredict: request.MaxTokens}
	}
	if request.System != "" {
		wire.Messages = append(wire.Messages, ollamaMessage{Role: "system", Content: request.System})
	}
	for _, msg := range request.Messages {
		switch msg.Role {
		case models.ChatRoleSystem, models.ChatRoleUser, models.ChatRoleAssistant:
			if msg.Content == "" {
				continue
			}
			wire.Messages = append(wire.Messages, ollamaMessage{Role: string(msg.Role), Content: msg.Content})
		case models.ChatRoleTool:
			wire.Messages = append(wire.Messages, ollamaMessage{Role: "tool", Content: msg.Content})
		}
	}
	return wire
}

// readOllamaError parses {"error":"..."} bodies and falls back to raw text.
func readOllamaError(httpResponse *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(httpResponse.Body, 4096))

	var wireError struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &wireError) == nil && wireError.Error != "" {
		message = wireError.Error
	}
	return &ProviderError{
		Backend:    "ollama",
		StatusCode: httpResponse.StatusCode,
		Message:    message,
	}
}
