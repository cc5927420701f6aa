package journeyctx

import (
	"sync"

	"wander/kv"
)

// Manager hands out one Session per user, created on first use and kept for
// the life of the process.
type Manager struct {
	kv      kv.Store
	catalog Catalog

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(store kv.Store, catalog Catalog) *Manager {
	return &Manager{
		kv:       store,
		catalog:  catalog,
		sessions: make(map[string]*Session),
	}
}

// Session returns the user's session, creating it on demand.
func (m *Manager) Session(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s := NewSession(userID, m.kv, m.catalog)
	m.sessions[userID] = s
	return s
}
