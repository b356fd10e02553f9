package session

import (
	"time"

	"github.com/gridrts/gridpath/nav/coordinator"
	"github.com/gridrts/gridpath/nav/grid"
	"github.com/gridrts/gridpath/nav/service"
)

// SessionPersistence defines the interface for persisting sessions to storage.
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the JSON shape of a session snapshot on disk. The
// grid cells are stored flat so a snapshot survives edits to the source map.
type PersistedSessionData struct {
	ID             string               `json:"id"`
	MapID          string               `json:"map_id"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
	Planned        bool                 `json:"planned"`
	Tick           int                  `json:"tick"`
	Width          int                  `json:"width"`
	Height         int                  `json:"height"`
	Cells          []float64            `json:"cells"`
	Agents         []*coordinator.Agent `json:"agents"`
	Goals          []grid.Point         `json:"goals"`
}
