package service

import (
	"context"
	"time"

	"github.com/gridrts/gridpath/nav/coordinator"
	"github.com/gridrts/gridpath/nav/grid"
	"github.com/gridrts/gridpath/nav/mapfile"
)

// PlanService defines all coordination-run operations exposed to transports.
type PlanService interface {
	// Session management
	CreateSession(ctx context.Context, mapID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Run operations
	Plan(ctx context.Context, sessionID string) (*PlanResult, error)
	Step(ctx context.Context, sessionID string, ticks int) (*StepResult, error)
	Reset(ctx context.Context, sessionID string) (*RunState, error)

	// Run state
	GetRunState(ctx context.Context, sessionID string) (*RunState, error)
	ExportMap(ctx context.Context, sessionID string) (*mapfile.Document, error)

	// Maps
	ListMaps(ctx context.Context) ([]*mapfile.MapInfo, error)
	LoadMap(ctx context.Context, mapID string) (*mapfile.Document, error)
	SaveMap(ctx context.Context, mapID string, doc *mapfile.Document) error
}

// SessionManager defines session storage operations.
type SessionManager interface {
	Create(id, mapID string, doc *mapfile.Document) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// MapManager handles named map loading.
type MapManager interface {
	LoadMap(name string) (*mapfile.Document, error)
	ListMaps() ([]*mapfile.MapInfo, error)
	GetDefault() *mapfile.Document
	SaveMap(name string, doc *mapfile.Document) error
}

// Session represents one active coordination run. Doc keeps the pristine map
// the session was created from; Grid is the working copy that planning marks
// and the writer exports.
type Session struct {
	ID             string
	MapID          string
	Doc            *mapfile.Document
	Grid           *grid.Grid
	Coord          *coordinator.Coordinator
	Planned        bool
	Tick           int
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
