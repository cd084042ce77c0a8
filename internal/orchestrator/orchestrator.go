package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/dealroom/internal/roster"
	"github.com/ShayCichocki/dealroom/internal/state"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

const (
	// DefaultMaxTurns is the turn limit when none is configured.
	DefaultMaxTurns = 10
	// DefaultConsensusKeyword ends a negotiation early when a message contains it.
	DefaultConsensusKeyword = "NEGOTIATION_COMPLETE"
	// DefaultEventBuffer is the minimum per-session event buffer.
	DefaultEventBuffer = 64
)

var (
	// ErrNoTargets is returned when a negotiation names no counterparty.
	ErrNoTargets = errors.New("at least one target team is required")
	// ErrDuplicateTeam is returned when a team id appears more than once.
	ErrDuplicateTeam = errors.New("team listed more than once")
	// ErrSessionActive is returned when starting a session id that is already running.
	ErrSessionActive = errors.New("session is already active")
	// ErrShutdown is returned by Start after Shutdown.
	ErrShutdown = errors.New("orchestrator has been shut down")
)

// Config contains configuration options for the Orchestrator.
type Config struct {
	// Repository persists sessions, transcripts and results.
	Repository state.Repository
	// Rosters resolves team ids to roster snapshots.
	Rosters roster.Source
	// Agents builds one Speaker per participant, plus the extractor.
	Agents AgentFactory
	// League holds the constants used in derived preferences and prompts.
	League models.LeagueRules
	// MaxTurns is the turn limit. If 0, DefaultMaxTurns is used.
	MaxTurns int
	// ConsensusKeyword ends the turn loop early, matched case-insensitively.
	// If empty, DefaultConsensusKeyword is used.
	ConsensusKeyword string
	// MaxToolRounds bounds each agent's tool loop. If 0, the agent default applies.
	MaxToolRounds int
	// EventBuffer is the minimum size of each session's event channel.
	EventBuffer int
	// Logger receives per-session debug output. If nil, nothing is written.
	Logger *DebugLogger
	// NewSessionID generates ids for requests that carry none.
	NewSessionID func() string
}

// Orchestrator runs negotiations. Each negotiation's turn loop runs in its
// own goroutine; sessions share nothing but the Repository.
type Orchestrator struct {
	config   Config
	registry *SessionRegistry

	// baseCtx outlives Start's caller and is canceled by Shutdown.
	baseCtx context.Context
	cancel  context.CancelFunc

	// mu protects stopped and orders wg.Add against Shutdown.
	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// New creates an Orchestrator with the given configuration.
func New(cfg Config) *Orchestrator {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.ConsensusKeyword == "" {
		cfg.ConsensusKeyword = DefaultConsensusKeyword
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultEventBuffer
	}
	if cfg.League == (models.LeagueRules{}) {
		cfg.League = models.DefaultLeagueRules()
	}
	if cfg.Logger == nil {
		cfg.Logger = NopLogger()
	}
	if cfg.NewSessionID == nil {
		cfg.NewSessionID = func() string { return uuid.New().String()[:8] }
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		config:   cfg,
		registry: NewSessionRegistry(),
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// StartRequest describes a negotiation to start.
type StartRequest struct {
	// SessionID identifies the negotiation. If empty, one is generated.
	SessionID string
	UserID    string
	// InitiatingTeamID is the team proposing the trade. It speaks first.
	InitiatingTeamID int
	// TargetTeamIDs are the counterparties in speaking order.
	TargetTeamIDs []int
	// Preferences are the initiating team's goals. Target team preferences
	// are derived from their rosters.
	Preferences models.TradePreferences
	// OnProgress and OnMessage are optional observers.
	OnProgress ProgressCallback
	OnMessage  MessageCallback
}

func (r StartRequest) validate() error {
	if len(r.TargetTeamIDs) == 0 {
		return ErrNoTargets
	}
	seen := map[int]bool{r.InitiatingTeamID: true}
	for _, id := range r.TargetTeamIDs {
		if seen[id] {
			return fmt.Errorf("team %d: %w", id, ErrDuplicateTeam)
		}
		seen[id] = true
	}
	return nil
}

// Start creates the session record, resolves every team and schedules the
// turn loop. It returns as soon as the loop is running; a nil error is the
// success flag. On error the durable record, if one was created, is left
// failed and the returned id can be used to inspect it.
func (o *Orchestrator) Start(ctx context.Context, req StartRequest) (string, error) {
	if o.isStopped() {
		return "", ErrShutdown
	}
	if o.config.Repository == nil || o.config.Rosters == nil || o.config.Agents == nil {
		return "", errors.New("orchestrator is missing a repository, roster source or agent factory")
	}
	if err := req.validate(); err != nil {
		return "", fmt.Errorf("invalid request: %w", err)
	}

	id := req.SessionID
	if id == "" {
		id = o.config.NewSessionID()
	}
	if o.registry.Get(id) != nil {
		return id, fmt.Errorf("start %s: %w", id, ErrSessionActive)
	}

	session := &models.Session{
		ID:               id,
		UserID:           req.UserID,
		InitiatingTeamID: req.InitiatingTeamID,
		TargetTeamIDs:    append([]int(nil), req.TargetTeamIDs...),
		Status:           models.SessionCreated,
		MaxTurns:         o.config.MaxTurns,
		StartedAt:        time.Now(),
	}
	if err := o.config.Repository.CreateSession(session); err != nil {
		return id, fmt.Errorf("create session: %w", err)
	}
	if err := o.config.Repository.UpdateSessionStatus(id, state.StatusUpdate{Status: models.SessionInProgress}); err != nil {
		return id, fmt.Errorf("start session: %w", err)
	}
	session.Status = models.SessionInProgress

	teams, err := o.resolveTeams(ctx, session.TeamIDs())
	if err != nil {
		err = fmt.Errorf("resolve teams: %w", err)
		o.markFailed(id, err)
		return id, err
	}

	n := o.newNegotiation(session, teams, req)

	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		o.markFailed(id, ErrShutdown)
		return id, ErrShutdown
	}
	if !o.registry.Register(n) {
		return id, fmt.Errorf("start %s: %w", id, ErrSessionActive)
	}

	d := &dispatcher{
		sessionID:  id,
		onMessage:  req.OnMessage,
		onProgress: req.OnProgress,
		logger:     o.config.Logger,
	}
	o.wg.Add(2)
	go func() {
		defer o.wg.Done()
		d.run(n.emitter.Events())
	}()
	go o.run(n)

	log.Printf("[orchestrator] session %s started: %s", id, teamNames(teams))
	o.config.Logger.Session(id, "started with %d participants, max %d turns", len(n.participants), o.config.MaxTurns)
	return id, nil
}

func (o *Orchestrator) resolveTeams(ctx context.Context, ids []int) ([]*models.Team, error) {
	teams := make([]*models.Team, 0, len(ids))
	for _, id := range ids {
		team, err := o.config.Rosters.Team(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("team %d: %w", id, err)
		}
		teams = append(teams, team)
	}
	return teams, nil
}

// markFailed records a setup failure. Errors are logged only; the caller is
// already returning the original error.
func (o *Orchestrator) markFailed(id string, cause error) {
	err := o.config.Repository.UpdateSessionStatus(id, state.StatusUpdate{
		Status:       models.SessionFailed,
		ErrorMessage: cause.Error(),
	})
	if err != nil {
		log.Printf("[orchestrator] session %s: could not record failure: %v", id, err)
	}
}

// Wait blocks until every started negotiation has finished and all of its
// callbacks have run.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// IsActive reports whether a negotiation is currently running.
func (o *Orchestrator) IsActive(sessionID string) bool {
	return o.registry.Get(sessionID) != nil
}

// ActiveSessions returns the ids of running negotiations.
func (o *Orchestrator) ActiveSessions() []string {
	return o.registry.IDs()
}

// Shutdown stops accepting negotiations, cancels running ones at their next
// turn boundary and waits for them to finish or for ctx to expire.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.stopped = true
	o.mu.Unlock()
	if n := o.registry.Count(); n > 0 {
		log.Printf("[orchestrator] shutting down, stopping %d active sessions", n)
	}
	o.cancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown: %w", ctx.Err())
	}
}

func (o *Orchestrator) isStopped() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.stopped
}
