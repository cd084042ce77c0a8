// Package roster provides team roster snapshots to the negotiation engine.
package roster

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

// ErrTeamNotFound is returned when a team id cannot be resolved.
var ErrTeamNotFound = errors.New("team not found")

// Source resolves team ids to roster snapshots.
type Source interface {
	Team(ctx context.Context, id int) (*models.Team, error)
}

// MemorySource is an in-memory Source.
type MemorySource struct {
	mu    sync.RWMutex
	teams map[int]models.Team
}

// NewMemorySource creates a MemorySource holding the given teams.
func NewMemorySource(teams ...models.Team) *MemorySource {
	s := &MemorySource{teams: make(map[int]models.Team, len(teams))}
	for _, t := range teams {
		s.teams[t.ID] = t
	}
	return s
}

// Team returns a copy of the team's roster.
func (s *MemorySource) Team(_ context.Context, id int) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %d: %w", id, ErrTeamNotFound)
	}
	return cloneTeam(t), nil
}

// Replace swaps in a new set of teams.
func (s *MemorySource) Replace(teams []models.Team) {
	next := make(map[int]models.Team, len(teams))
	for _, t := range teams {
		next[t.ID] = t
	}
	s.mu.Lock()
	s.teams = next
	s.mu.Unlock()
}

// Teams returns every team sorted by id.
func (s *MemorySource) Teams() []models.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, *cloneTeam(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneTeam(t models.Team) *models.Team {
	c := t
	c.Players = append([]models.Player(nil), t.Players...)
	return &c
}

var _ Source = (*MemorySource)(nil)
