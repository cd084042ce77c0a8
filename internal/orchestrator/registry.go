package orchestrator

import (
	"sort"
	"sync"
)

// SessionRegistry tracks the negotiations an Orchestrator is currently
// running. Entries exist only between Start and the end of the turn loop.
type SessionRegistry struct {
	sessions map[string]*negotiation
	mu       sync.RWMutex
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*negotiation)}
}

// Register adds a negotiation. It returns false if the id is already active.
func (r *SessionRegistry) Register(n *negotiation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[n.session.ID]; exists {
		return false
	}
	r.sessions[n.session.ID] = n
	return true
}

// Unregister removes a negotiation.
func (r *SessionRegistry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Get returns the live negotiation for an id, or nil.
func (r *SessionRegistry) Get(sessionID string) *negotiation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[sessionID]
}

// IDs returns the active session ids in sorted order.
func (r *SessionRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of active negotiations.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
