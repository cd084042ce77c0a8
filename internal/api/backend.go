package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

// Backend is a reasoning backend. Implementations translate between the
// common chat types and each vendor's wire format.
type Backend interface {
	// Name identifies the backend in logs and error replies.
	Name() string
	// Complete sends a request and blocks until the full response is available.
	Complete(ctx context.Context, request Request) (*Response, error)
}

// Request is a single completion request.
type Request struct {
	// System is the persona / system prompt.
	System string
	// Messages is the conversation so far, oldest first.
	Messages []models.ChatMessage
	// Tools lists the tools the model may call. Backends without tool support ignore it.
	Tools []models.ToolSpec
	// Temperature controls sampling. Nil keeps the backend default.
	Temperature *float64
	// MaxTokens bounds the response length. Zero uses the backend default.
	MaxTokens int
}

// Response is either plain content or a set of tool-call requests.
type Response struct {
	Content   string
	ToolCalls []models.ToolCall
	Usage     Usage
}

// HasToolCalls reports whether the model requested tools.
func (r *Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// Usage reports token consumption for one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// ErrInvalidCredential matches any ProviderError with HTTP 401.
var ErrInvalidCredential = errors.New("invalid backend credential")

// ProviderError is returned when a backend responds with a non-success status.
type ProviderError struct {
	// Backend names the backend that failed.
	Backend string
	// StatusCode is the HTTP status code.
	StatusCode int
	// Message is the human-readable error description.
	Message string
}

func (err *ProviderError) Error() string {
	if err.StatusCode == 401 {
		return fmt.Sprintf("%s: HTTP 401: invalid credential: %s", err.Backend, err.Message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", err.Backend, err.StatusCode, err.Message)
}

// Is lets errors.Is(err, ErrInvalidCredential) match 401 responses.
func (err *ProviderError) Is(target error) bool {
	return target == ErrInvalidCredential && err.StatusCode == 401
}

// IsRateLimited returns true if the error is a rate limit response (HTTP 429).
func (err *ProviderError) IsRateLimited() bool {
	return err.StatusCode == 429
}
