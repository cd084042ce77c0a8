package orchestrator

import (
	"fmt"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

// participant is one speaker in the round-robin.
type participant struct {
	name    string
	role    AgentRole
	teamID  int
	speaker Speaker
}

// negotiation is the live handle for one running session. Only the session's
// turn loop goroutine touches transcript.
type negotiation struct {
	session      *models.Session
	teams        []*models.Team
	participants []participant
	kickoff      string
	transcript   []models.Message
	emitter      *EventEmitter
}

func (o *Orchestrator) newNegotiation(session *models.Session, teams []*models.Team, req StartRequest) *negotiation {
	n := &negotiation{
		session: session,
		teams:   teams,
		kickoff: kickoffBrief(session.ID, teams, req.Preferences),
	}

	used := make(map[string]bool)
	for i, team := range teams {
		prefs := req.Preferences
		if i > 0 {
			prefs = DerivePreferences(team, o.config.League)
		}
		name := uniqueName(team.Name, team.ID, used)
		n.participants = append(n.participants, participant{
			name:   name,
			role:   RoleTeam,
			teamID: team.ID,
			speaker: o.config.Agents(AgentSpec{
				Name:    name,
				Role:    RoleTeam,
				Persona: teamPersona(team, prefs, i == 0, o.config.League),
				Tools:   true,
			}),
		})
	}

	name := uniqueName(commissionerName, 0, used)
	n.participants = append(n.participants, participant{
		name: name,
		role: RoleCommissioner,
		speaker: o.config.Agents(AgentSpec{
			Name:    name,
			Role:    RoleCommissioner,
			Persona: commissionerPersona(teams, o.config.League, o.config.ConsensusKeyword),
			Tools:   true,
		}),
	})

	// Two events per turn plus lifecycle progress must never be dropped.
	buffer := 2*session.MaxTurns + 8
	if buffer < o.config.EventBuffer {
		buffer = o.config.EventBuffer
	}
	n.emitter = NewEventEmitter(buffer)
	return n
}

// uniqueName keeps speaker names distinct so each agent can tell its own
// messages apart in the shared transcript.
func uniqueName(name string, teamID int, used map[string]bool) string {
	if name == "" {
		name = fmt.Sprintf("Team %d", teamID)
	}
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s (%d)", name, i)
	}
	used[candidate] = true
	return candidate
}

// historyFor renders the transcript from one participant's point of view:
// its own turns are assistant messages, everyone else's are attributed user
// messages. The kickoff brief always comes first.
func (n *negotiation) historyFor(name string) []models.ChatMessage {
	history := make([]models.ChatMessage, 0, len(n.transcript)+1)
	history = append(history, models.ChatMessage{Role: models.ChatRoleUser, Content: n.kickoff})
	for _, m := range n.transcript {
		if m.Speaker == name {
			history = append(history, models.ChatMessage{Role: models.ChatRoleAssistant, Content: m.Content})
			continue
		}
		history = append(history, models.ChatMessage{
			Role:    models.ChatRoleUser,
			Name:    m.Speaker,
			Content: m.Speaker + ": " + m.Content,
		})
	}
	return history
}

// speakerFor returns the participant for a 1-based turn number.
func (n *negotiation) speakerFor(turn int) participant {
	return n.participants[(turn-1)%len(n.participants)]
}
