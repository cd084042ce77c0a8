package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ShayCichocki/dealroom/internal/api"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

const (
	// DefaultMaxToolRounds bounds the tool loop when the caller passes zero.
	DefaultMaxToolRounds = 5
	// DefaultLocalTimeout is the per-call timeout for the local backend.
	DefaultLocalTimeout = 15 * time.Second
	// DefaultPrimaryTimeout is the per-call timeout for the primary backend.
	DefaultPrimaryTimeout = 2 * time.Minute

	// NoExecutorResult is the tool result when no executor is configured.
	NoExecutorResult = "no tool executor configured"

	// PartialAnalysisMessage replaces the reply when the tool budget runs out.
	PartialAnalysisMessage = "I need more data to finish this analysis. I used my full tool-call " +
		"budget before reaching a conclusion, so treat what I have said so far as a partial " +
		"analysis and ask me a narrower question to continue."
)

// ToolExecutor runs tool calls requested by the primary backend. Execute must
// not fail; problems are reported in the returned text.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args json.RawMessage) string
}

// Config configures a Runtime.
type Config struct {
	// Name is the speaker identity used in logs and error replies.
	Name string
	// Persona is the fixed system prompt prepended to every call.
	Persona string

	// Primary is the tool-capable backend. Nil means no credential is configured.
	Primary api.Backend
	// Local is the secondary backend. Nil means no local endpoint is configured.
	Local api.Backend

	PrimaryTimeout time.Duration
	LocalTimeout   time.Duration

	// Tools are offered to the primary backend.
	Tools    []models.ToolSpec
	Executor ToolExecutor

	Temperature *float64
	MaxTokens   int
}

// Reply is the result of one GenerateReply call.
type Reply struct {
	Content string
	Role    models.ChatRole
	// Backend names the backend that produced Content, empty on failure.
	Backend string
	// Failed is set when Content is a synthesized error message.
	Failed bool
}

// Runtime wraps one persona and its reasoning backends.
type Runtime struct {
	cfg Config
}

// NewRuntime creates an agent runtime.
func NewRuntime(cfg Config) *Runtime {
	if cfg.PrimaryTimeout <= 0 {
		cfg.PrimaryTimeout = DefaultPrimaryTimeout
	}
	if cfg.LocalTimeout <= 0 {
		cfg.LocalTimeout = DefaultLocalTimeout
	}
	return &Runtime{cfg: cfg}
}

// Name returns the agent's speaker identity.
func (r *Runtime) Name() string {
	return r.cfg.Name
}

// GenerateReply produces the agent's next message for the given history.
// It always returns a well-formed reply; backend failures are reported in
// the reply content.
func (r *Runtime) GenerateReply(ctx context.Context, history []models.ChatMessage, maxToolRounds int) (reply Reply) {
	if maxToolRounds <= 0 {
		maxToolRounds = DefaultMaxToolRounds
	}

	defer func() {
		if p := recover(); p != nil {
			log.Printf("[agent] %s: recovered from panic: %v", r.cfg.Name, p)
			reply = r.errorReply([]attemptFailure{{backend: "runtime", err: fmt.Errorf("panic: %v", p)}})
		}
	}()

	var failures []attemptFailure
	for _, s := range r.strategies(maxToolRounds) {
		content, err := s.attempt(ctx, history)
		if err == nil {
			return Reply{Content: content, Role: models.ChatRoleAssistant, Backend: s.name}
		}
		log.Printf("[agent] %s: %s failed: %v", r.cfg.Name, s.name, err)
		failures = append(failures, attemptFailure{backend: s.name, err: err})
	}
	return r.errorReply(failures)
}

type attemptFailure struct {
	backend string
	err     error
}

func (r *Runtime) errorReply(failures []attemptFailure) Reply {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		var perr *api.ProviderError
		if errors.As(f.err, &perr) && perr.IsRateLimited() {
			parts = append(parts, fmt.Sprintf("%s (rate limited, try again shortly): %v", f.backend, f.err))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", f.backend, f.err))
	}
	content := fmt.Sprintf("[%s could not respond: all reasoning backends failed. %s]",
		r.cfg.Name, strings.Join(parts, "; "))
	return Reply{Content: content, Role: models.ChatRoleAssistant, Failed: true}
}
