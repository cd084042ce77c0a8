package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/dealroom/internal/api"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

const (
	primaryFallbackName = "anthropic"
	localFallbackName   = "local"
)

var (
	errNoPrimaryCredential = errors.New("no API credential configured")
	errNoLocalEndpoint     = errors.New("no endpoint configured")
)

// strategy is one backend attempt in the fallback chain. Strategies are tried
// in order and the first success wins.
type strategy struct {
	name    string
	timeout time.Duration
	run     func(ctx context.Context, history []models.ChatMessage) (string, error)
}

func (s strategy) attempt(ctx context.Context, history []models.ChatMessage) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.run(ctx, history)
}

// strategies orders the backends for one call. The local backend goes first
// only when there is no primary credential. Unconfigured backends still get
// an entry so the error reply names every backend that could not answer.
func (r *Runtime) strategies(maxToolRounds int) []strategy {
	var chain []strategy

	if r.cfg.Primary == nil && r.cfg.Local != nil {
		local := r.cfg.Local
		chain = append(chain, strategy{
			name:    local.Name(),
			timeout: r.cfg.LocalTimeout,
			run: func(ctx context.Context, history []models.ChatMessage) (string, error) {
				return r.complete(ctx, local, history)
			},
		})
	}

	if r.cfg.Primary == nil && r.cfg.Local == nil {
		chain = append(chain, strategy{
			name: localFallbackName,
			run: func(context.Context, []models.ChatMessage) (string, error) {
				return "", errNoLocalEndpoint
			},
		})
	}

	if r.cfg.Primary == nil {
		chain = append(chain, strategy{
			name: primaryFallbackName,
			run: func(context.Context, []models.ChatMessage) (string, error) {
				return "", errNoPrimaryCredential
			},
		})
		return chain
	}

	chain = append(chain, strategy{
		name:    r.cfg.Primary.Name(),
		timeout: r.cfg.PrimaryTimeout,
		run: func(ctx context.Context, history []models.ChatMessage) (string, error) {
			return r.toolLoop(ctx, history, maxToolRounds)
		},
	})
	return chain
}

// complete makes a single tool-less call.
func (r *Runtime) complete(ctx context.Context, backend api.Backend, history []models.ChatMessage) (string, error) {
	resp, err := backend.Complete(ctx, r.request(history, nil))
	if err != nil {
		return "", err
	}
	if resp.Content == "" {
		return "", fmt.Errorf("%s: empty response", backend.Name())
	}
	return resp.Content, nil
}

func (r *Runtime) request(messages []models.ChatMessage, tools []models.ToolSpec) api.Request {
	return api.Request{
		System:      r.cfg.Persona,
		Messages:    messages,
		Tools:       tools,
		Temperature: r.cfg.Temperature,
		MaxTokens:   r.cfg.MaxTokens,
	}
}
