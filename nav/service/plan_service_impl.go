package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/gridrts/gridpath/nav/coordinator"
	"github.com/gridrts/gridpath/nav/grid"
	"github.com/gridrts/gridpath/nav/mapfile"
	"github.com/gridrts/gridpath/nav/sim"
)

// ErrAlreadyPlanned is returned when Plan is called twice without a reset.
// Re-running discovery over a marked grid would misread path marks as agent
// starts, so the service guards against it at this level.
var ErrAlreadyPlanned = errors.New("session already planned; reset it first")

// planServiceImpl implements the PlanService interface.
type planServiceImpl struct {
	sessions SessionManager
	maps     MapManager
	voc      grid.Vocabulary
	mu       sync.RWMutex
}

// NewPlanService creates a new plan service instance.
func NewPlanService(sessions SessionManager, maps MapManager, voc grid.Vocabulary) PlanService {
	return &planServiceImpl{
		sessions: sessions,
		maps:     maps,
		voc:      voc,
	}
}

// CreateSession creates a new coordination session from a named map.
func (s *planServiceImpl) CreateSession(ctx context.Context, mapID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc *mapfile.Document
	if mapID != "" {
		var err error
		doc, err = s.maps.LoadMap(mapID)
		if err != nil {
			if errors.Is(err, mapfile.ErrMapNotFound) {
				infos, listErr := s.maps.ListMaps()
				if listErr == nil && len(infos) > 0 {
					var ids []string
					for _, info := range infos {
						ids = append(ids, info.MapID)
					}
					return nil, fmt.Errorf("map '%s' not found. Available maps: %v", mapID, ids)
				}
			}
			return nil, fmt.Errorf("failed to load map %s: %w", mapID, err)
		}
	} else {
		doc = s.maps.GetDefault()
		mapID = "default"
	}

	sess, err := s.sessions.Create("", mapID, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information.
func (s *planServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions.
func (s *planServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session.
func (s *planServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Delete(sessionID)
}

// Plan runs the full coordination pipeline on the session's grid: discover
// starts and goals, assign goals, plan paths, mark them on the grid.
func (s *planServiceImpl) Plan(ctx context.Context, sessionID string) (*PlanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	if sess.Planned {
		return nil, ErrAlreadyPlanned
	}

	sess.Coord.DiscoverStartsAndGoals()
	sess.Coord.AssignGoals()
	sess.Coord.PlanPaths()
	if err := sess.Coord.MarkPaths(); err != nil {
		return nil, fmt.Errorf("failed to mark paths: %w", err)
	}
	sess.Planned = true

	result := &PlanResult{
		AgentCount: len(sess.Coord.Agents()),
		GoalCount:  len(sess.Coord.Goals()),
		Agents:     agentInfos(sess.Coord.Agents()),
		RunState:   s.runState(sess),
	}
	for _, agent := range sess.Coord.Agents() {
		if agent.HasGoal {
			result.Assigned++
		}
		if len(agent.Path) > 0 {
			result.Routed++
		}
	}

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: failed to persist session %s after planning: %v", sessionID, err)
	}
	return result, nil
}

// Step advances the session's agents by up to the requested number of ticks,
// stopping early once every agent has arrived.
func (s *planServiceImpl) Step(ctx context.Context, sessionID string, ticks int) (*StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	if ticks < 1 {
		ticks = 1
	}
	if ticks > sim.DefaultMaxTicks {
		ticks = sim.DefaultMaxTicks
	}

	runner := sim.NewRunner(sess.Coord, ticks)
	report, err := runner.Run(ctx)
	if err != nil {
		return nil, err
	}
	sess.Tick += report.Ticks

	result := &StepResult{
		TicksExecuted: report.Ticks,
		Tick:          sess.Tick,
		AllArrived:    report.AllArrived,
		Livelocked:    report.Livelocked,
		Agents:        agentInfos(sess.Coord.Agents()),
		RunState:      s.runState(sess),
	}

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: failed to persist session %s after stepping: %v", sessionID, err)
	}
	return result, nil
}

// Reset rebuilds the session's grid and coordinator from the pristine map
// document it was created from.
func (s *planServiceImpl) Reset(ctx context.Context, sessionID string) (*RunState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	g, err := sess.Doc.Grid()
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild grid: %w", err)
	}
	sess.Grid = g
	sess.Coord = coordinator.New(g, s.voc)
	sess.Planned = false
	sess.Tick = 0

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: failed to persist session %s after reset: %v", sessionID, err)
	}
	return s.runState(sess), nil
}

// GetRunState retrieves the current run state.
func (s *planServiceImpl) GetRunState(ctx context.Context, sessionID string) (*RunState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return s.runState(sess), nil
}

// ExportMap renders the session's current grid back into the legacy map
// format, preserving the original tileset and canvas metadata.
func (s *planServiceImpl) ExportMap(ctx context.Context, sessionID string) (*mapfile.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	out := &mapfile.Document{
		Layers:   append([]mapfile.Layer(nil), sess.Doc.Layers...),
		Tilesets: sess.Doc.Tilesets,
		Canvas:   sess.Doc.Canvas,
	}
	out.SetGrid(sess.Grid)
	return out, nil
}

// ListMaps returns available maps.
func (s *planServiceImpl) ListMaps(ctx context.Context) ([]*mapfile.MapInfo, error) {
	return s.maps.ListMaps()
}

// LoadMap loads a specific map document.
func (s *planServiceImpl) LoadMap(ctx context.Context, mapID string) (*mapfile.Document, error) {
	return s.maps.LoadMap(mapID)
}

// SaveMap saves a map document to the map directory.
func (s *planServiceImpl) SaveMap(ctx context.Context, mapID string, doc *mapfile.Document) error {
	return s.maps.SaveMap(mapID, doc)
}

func (s *planServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		MapID:          sess.MapID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		RunState:       s.runState(sess),
	}
}

func (s *planServiceImpl) runState(sess *Session) *RunState {
	return &RunState{
		MapID:      sess.MapID,
		Width:      sess.Grid.Width(),
		Height:     sess.Grid.Height(),
		Cells:      sess.Grid.Cells(),
		Agents:     agentInfos(sess.Coord.Agents()),
		Goals:      sess.Coord.Goals(),
		Tick:       sess.Tick,
		Planned:    sess.Planned,
		AllArrived: sess.Coord.AllArrived(),
	}
}

func agentInfos(agents []*coordinator.Agent) []AgentInfo {
	infos := make([]AgentInfo, 0, len(agents))
	for _, agent := range agents {
		info := AgentInfo{
			ID:         agent.ID,
			Marker:     agent.Marker,
			Pos:        agent.Pos,
			PathLength: len(agent.Path),
			PathIndex:  agent.PathIndex,
			Arrived:    agent.Arrived(),
		}
		if agent.HasGoal {
			goal := agent.Goal
			info.Goal = &goal
		}
		infos = append(infos, info)
	}
	return infos
}
