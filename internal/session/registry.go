package session

import (
	"fmt"
	"sync"

	"github.com/ekaraca/hazirlik/internal/model"
	"github.com/ekaraca/hazirlik/internal/progress"
)

// Registry hands out one live Manager per attempt owner and kind. A
// user has at most one active attempt of each kind; starting a new one
// replaces the old manager outright. Anonymous visitors are told apart
// by a per-client ID so they never share a manager.
type Registry struct {
	mu       sync.Mutex
	fetcher  Fetcher
	progress progress.Store
	live     map[string]*Manager
}

// NewRegistry creates a registry over the shared fetcher and store.
func NewRegistry(fetcher Fetcher, store progress.Store) *Registry {
	return &Registry{
		fetcher:  fetcher,
		progress: store,
		live:     make(map[string]*Manager),
	}
}

// managerKey identifies one attempt owner. Authenticated users pass an
// empty clientID so the same manager serves all their devices;
// anonymous users pass their per-client ID with userID zero.
func managerKey(userID int64, clientID string, kind model.SessionKind) string {
	return fmt.Sprintf("%d/%s/%s", userID, clientID, kind)
}

// Manager returns the live manager for the owner, creating one when
// absent. A freshly created manager holds no session until the caller
// starts or resumes one.
func (r *Registry) Manager(userID int64, clientID string, kind model.SessionKind) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := managerKey(userID, clientID, kind)
	if m, ok := r.live[key]; ok {
		return m
	}
	m := NewManager(userID, r.fetcher, r.progress)
	r.live[key] = m
	return m
}

// Drop forgets the live manager for an owner. Durable progress is left
// untouched; use Manager.Abandon to discard that too.
func (r *Registry) Drop(userID int64, clientID string, kind model.SessionKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, managerKey(userID, clientID, kind))
}

// FlushAll checkpoints every live attempt synchronously. Called on
// shutdown so debounced tick writes are not lost.
func (r *Registry) FlushAll() {
	r.mu.Lock()
	managers := make([]*Manager, 0, len(r.live))
	for _, m := range r.live {
		managers = append(managers, m)
	}
	r.mu.Unlock()

	for _, m := range managers {
		m.Flush()
	}
}
