package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gridrts/gridpath/nav/coordinator"
	"github.com/gridrts/gridpath/nav/grid"
	"github.com/gridrts/gridpath/nav/mapfile"
	"github.com/gridrts/gridpath/nav/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
)

// Manager handles coordination session lifecycle.
type Manager struct {
	sessions    map[string]*service.Session
	voc         grid.Vocabulary
	persistence SessionPersistence
	mu          sync.RWMutex
}

// NewManager creates a new session manager.
func NewManager(voc grid.Vocabulary) *Manager {
	return &Manager{
		sessions: make(map[string]*service.Session),
		voc:      voc,
	}
}

// NewManagerWithPersistence creates a session manager that persists sessions.
func NewManagerWithPersistence(persistence SessionPersistence, voc grid.Vocabulary) *Manager {
	return &Manager{
		sessions:    make(map[string]*service.Session),
		voc:         voc,
		persistence: persistence,
	}
}

// Create creates a new session over a fresh grid built from the map document.
// An empty ID generates one.
func (m *Manager) Create(id, mapID string, doc *mapfile.Document) (*service.Session, error) {
	if id == "" {
		id = m.generateSessionID()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[strings.ToLower(id)]; exists {
		return nil, ErrSessionAlreadyExists
	}

	g, err := doc.Grid()
	if err != nil {
		return nil, fmt.Errorf("failed to build grid: %w", err)
	}

	sess := &service.Session{
		ID:             id,
		MapID:          mapID,
		Doc:            doc,
		Grid:           g,
		Coord:          coordinator.New(g, m.voc),
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[strings.ToLower(id)] = sess

	if m.persistence != nil {
		if err := m.persistence.Save(sess); err != nil {
			fmt.Printf("Warning: Failed to persist session %s: %v\n", id, err)
		}
	}

	return sess, nil
}

// Get retrieves a session by ID (case-insensitive), falling back to
// persistence when the session is not in memory.
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	sess, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()

	if exists {
		return sess, nil
	}

	if m.persistence != nil && m.persistence.Exists(id) {
		sess, err := m.persistence.Load(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted session: %w", err)
		}

		m.mu.Lock()
		m.sessions[strings.ToLower(id)] = sess
		m.mu.Unlock()
		return sess, nil
	}

	return nil, ErrSessionNotFound
}

// List returns all sessions currently in memory.
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

// Delete removes a session from memory and persistence.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	_, inMemory := m.sessions[lowerID]
	delete(m.sessions, lowerID)

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteFromMemory removes a session from memory only, leaving any persisted
// file alone. Used by the filesystem sync routine.
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	if _, exists := m.sessions[lowerID]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, lowerID)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session.
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}
	sess.LastAccessedAt = time.Now()
	return nil
}

// Save persists a specific session.
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	sess, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()

	if !exists {
		return ErrSessionNotFound
	}
	return m.persistence.Save(sess)
}

// LoadPersistedSessions loads all persisted sessions into memory on startup.
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	loaded := 0
	for _, id := range ids {
		sess, err := m.persistence.Load(id)
		if err != nil {
			fmt.Printf("Warning: Failed to load persisted session %s: %v\n", id, err)
			continue
		}
		m.mu.Lock()
		m.sessions[strings.ToLower(sess.ID)] = sess
		m.mu.Unlock()
		loaded++
	}

	if loaded > 0 {
		fmt.Printf("Loaded %d persisted session(s)\n", loaded)
	}
	return nil
}

// CleanupExpiredSessions removes sessions not accessed within maxAge and
// returns how many were removed.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for key, sess := range m.sessions {
		if sess.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, key)
			if m.persistence != nil && m.persistence.Exists(sess.ID) {
				if err := m.persistence.Delete(sess.ID); err != nil {
					fmt.Printf("Warning: Failed to delete expired session %s: %v\n", sess.ID, err)
				}
			}
			removed++
		}
	}
	return removed
}

// generateSessionID creates a short random hex session ID.
func (m *Manager) generateSessionID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("s%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
