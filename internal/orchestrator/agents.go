package orchestrator

import (
	"context"

	"github.com/ShayCichocki/dealroom/internal/agent"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

// Speaker produces one participant's messages.
type Speaker interface {
	Name() string
	GenerateReply(ctx context.Context, history []models.ChatMessage, maxToolRounds int) agent.Reply
}

// AgentRole distinguishes the kinds of agents a negotiation creates.
type AgentRole string

const (
	RoleTeam         AgentRole = "team"
	RoleCommissioner AgentRole = "commissioner"
	RoleExtractor    AgentRole = "extractor"
)

// AgentSpec describes an agent the orchestrator needs.
type AgentSpec struct {
	Name    string
	Role    AgentRole
	Persona string
	// Tools reports whether the agent may call tools.
	Tools bool
}

// AgentFactory creates a Speaker for a spec.
type AgentFactory func(spec AgentSpec) Speaker

// RuntimeFactory returns an AgentFactory that builds agent runtimes from a
// shared base configuration. Agents without tools get neither tool
// definitions nor an executor.
func RuntimeFactory(base agent.Config) AgentFactory {
	return func(spec AgentSpec) Speaker {
		cfg := base
		cfg.Name = spec.Name
		cfg.Persona = spec.Persona
		if !spec.Tools {
			cfg.Tools = nil
			cfg.Executor = nil
		}
		return agent.NewRuntime(cfg)
	}
}
