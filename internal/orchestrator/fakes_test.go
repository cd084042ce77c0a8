package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ShayCichocki/dealroom/internal/agent"
	"github.com/ShayCichocki/dealroom/internal/roster"
	"github.com/ShayCichocki/dealroom/internal/state"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

// fakeRepo is an in-memory state.Repository with failure injection.
type fakeRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	messages map[string][]models.Message
	results  map[string]*models.NegotiationResult

	// failAppendAt makes AppendMessage fail for that turn number.
	failAppendAt int
	failCreate   error
}

var _ state.Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sessions: make(map[string]*models.Session),
		messages: make(map[string][]models.Message),
		results:  make(map[string]*models.NegotiationResult),
	}
}

func (r *fakeRepo) CreateSession(s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	if _, ok := r.sessions[s.ID]; ok {
		return fmt.Errorf("session %s exists", s.ID)
	}
	c := *s
	r.sessions[s.ID] = &c
	return nil
}

func (r *fakeRepo) GetSession(id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (r *fakeRepo) UpdateSessionStatus(id string, update state.StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return state.ErrSessionNotFound
	}
	if s.Status != update.Status && !s.Status.CanTransition(update.Status) {
		return state.ErrInvalidTransition
	}
	s.Status = update.Status
	if update.ErrorMessage != "" {
		s.ErrorMessage = update.ErrorMessage
	}
	if update.CurrentTurn != nil {
		s.CurrentTurn = *update.CurrentTurn
	}
	return nil
}

func (r *fakeRepo) ListSessions(limit int) ([]models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Session
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) AppendMessage(m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAppendAt != 0 && m.TurnNumber == r.failAppendAt {
		return errors.New("disk I/O error")
	}
	r.messages[m.SessionID] = append(r.messages[m.SessionID], *m)
	return nil
}

func (r *fakeRepo) ListMessages(sessionID string) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Message(nil), r.messages[sessionID]...), nil
}

func (r *fakeRepo) SaveResult(res *models.NegotiationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.results[res.SessionID]; ok {
		return state.ErrResultExists
	}
	c := *res
	r.results[res.SessionID] = &c
	return nil
}

func (r *fakeRepo) GetResult(sessionID string) (*models.NegotiationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results[sessionID], nil
}

// scriptedSpeaker replies with queued lines, then a default line.
type scriptedSpeaker struct {
	name    string
	mu      sync.Mutex
	lines   []string
	calls   int
	history [][]models.ChatMessage
	// release, when set, blocks each reply until it is closed or ctx ends.
	release chan struct{}
}

func (s *scriptedSpeaker) Name() string { return s.name }

func (s *scriptedSpeaker) GenerateReply(ctx context.Context, history []models.ChatMessage, _ int) agent.Reply {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return agent.Reply{Content: "[canceled]", Role: models.ChatRoleAssistant, Failed: true}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, history)
	s.calls++
	if len(s.lines) > 0 {
		line := s.lines[0]
		s.lines = s.lines[1:]
		return agent.Reply{Content: line, Role: models.ChatRoleAssistant, Backend: "scripted"}
	}
	return agent.Reply{Content: fmt.Sprintf("%s reply %d", s.name, s.calls), Role: models.ChatRoleAssistant, Backend: "scripted"}
}

// scriptFactory hands out scripted speakers by name and remembers them.
type scriptFactory struct {
	mu       sync.Mutex
	scripts  map[string][]string
	release  chan struct{}
	speakers map[string]*scriptedSpeaker
	specs    []AgentSpec
}

func newScriptFactory(scripts map[string][]string) *scriptFactory {
	return &scriptFactory{scripts: scripts, speakers: make(map[string]*scriptedSpeaker)}
}

func (f *scriptFactory) build(spec AgentSpec) Speaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, spec)
	s := &scriptedSpeaker{name: spec.Name, lines: append([]string(nil), f.scripts[spec.Name]...)}
	if spec.Role != RoleExtractor {
		s.release = f.release
	}
	f.speakers[spec.Name] = s
	return s
}

func (f *scriptFactory) speaker(name string) *scriptedSpeaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speakers[name]
}

func testRosters() *roster.MemorySource {
	return roster.NewMemorySource(
		models.Team{ID: 1, Name: "Hawks", Players: []models.Player{
			{ID: 11, Name: "Ada Guard", Position: "PG", Salary: 20_000_000},
			{ID: 12, Name: "Ben Wing", Position: "SF", Salary: 10_000_000},
		}},
		models.Team{ID: 2, Name: "Rams", Players: []models.Player{
			{ID: 21, Name: "Cal Big", Position: "C", Salary: 22_000_000},
			{ID: 22, Name: "Dee Big", Position: "PF/C", Salary: 8_000_000},
		}},
		models.Team{ID: 3, Name: "Bulls", Players: []models.Player{
			{ID: 31, Name: "Eli Shooter", Position: "SG", Salary: 15_000_000},
		}},
	)
}

func newTestOrchestrator(repo *fakeRepo, factory *scriptFactory, maxTurns int) *Orchestrator {
	return New(Config{
		Repository: repo,
		Rosters:    testRosters(),
		Agents:     factory.build,
		MaxTurns:   maxTurns,
		NewSessionID: func() string {
			return "neg-test"
		},
	})
}
