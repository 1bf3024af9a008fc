package session

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/kornell/internal/apperr"
	"github.com/starford/kornell/internal/gateway"
)

// Manager owns the open editor windows. Sessions share the file gateway
// and options but no document state.
type Manager struct {
	files gateway.Files
	opts  Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty manager.
func NewManager(files gateway.Files, opts Options) *Manager {
	return &Manager{files: files, opts: opts, sessions: make(map[string]*Session)}
}

// Create opens a new window with an empty document.
func (m *Manager) Create() *Session {
	s := New(uuid.NewString(), m.files, m.opts)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s
}

// Get looks up a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrUnknownSession, id)
	}
	return s, nil
}

// Close removes the session. Unsaved changes are dropped.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", apperr.ErrUnknownSession, id)
	}
	s.Close()
	return nil
}

// IDs returns the open session IDs in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
