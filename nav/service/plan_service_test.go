package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gridrts/gridpath/nav/coordinator"
	"github.com/gridrts/gridpath/nav/grid"
	"github.com/gridrts/gridpath/nav/mapfile"
)

// memSessionManager is an in-memory SessionManager for tests.
type memSessionManager struct {
	sessions map[string]*Session
	saves    int
	nextID   int
}

func newMemSessionManager() *memSessionManager {
	return &memSessionManager{sessions: make(map[string]*Session)}
}

func (m *memSessionManager) Create(id, mapID string, doc *mapfile.Document) (*Session, error) {
	if id == "" {
		m.nextID++
		id = fmt.Sprintf("s%d", m.nextID)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}
	g, err := doc.Grid()
	if err != nil {
		return nil, err
	}
	sess := &Session{
		ID:             id,
		MapID:          mapID,
		Doc:            doc,
		Grid:           g,
		Coord:          coordinator.New(g, grid.DefaultVocabulary()),
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = sess
	return sess, nil
}

func (m *memSessionManager) Get(id string) (*Session, error) {
	sess, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("session not found")
	}
	return sess, nil
}

func (m *memSessionManager) List() []*Session {
	out := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess)
	}
	return out
}

func (m *memSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	delete(m.sessions, id)
	return nil
}

func (m *memSessionManager) UpdateLastAccessed(id string) error {
	sess, exists := m.sessions[id]
	if !exists {
		return errors.New("session not found")
	}
	sess.LastAccessedAt = time.Now()
	return nil
}

func (m *memSessionManager) Save(id string) error {
	m.saves++
	return nil
}

// memMapManager is an in-memory MapManager for tests.
type memMapManager struct {
	docs map[string]*mapfile.Document
	def  *mapfile.Document
}

func (m *memMapManager) LoadMap(name string) (*mapfile.Document, error) {
	doc, exists := m.docs[name]
	if !exists {
		return nil, mapfile.ErrMapNotFound
	}
	return doc, nil
}

func (m *memMapManager) ListMaps() ([]*mapfile.MapInfo, error) {
	var infos []*mapfile.MapInfo
	for name := range m.docs {
		infos = append(infos, &mapfile.MapInfo{MapID: name, Filename: name + ".json"})
	}
	return infos, nil
}

func (m *memMapManager) GetDefault() *mapfile.Document { return m.def }

func (m *memMapManager) SaveMap(name string, doc *mapfile.Document) error {
	if _, err := doc.Grid(); err != nil {
		return err
	}
	m.docs[name] = doc
	return nil
}

// corridorDoc is a 4x4 map with one agent heading for one goal along the top
// row.
func corridorDoc() *mapfile.Document {
	data := make([]float64, 16)
	data[0] = 0.5
	data[3] = 8.1
	return &mapfile.Document{
		Layers: []mapfile.Layer{{Name: "world", Data: data}},
		Canvas: &mapfile.Canvas{Width: 128, Height: 128},
	}
}

func newTestService() (PlanService, *memSessionManager, *memMapManager) {
	sessions := newMemSessionManager()
	maps := &memMapManager{
		docs: map[string]*mapfile.Document{"corridor": corridorDoc()},
		def:  corridorDoc(),
	}
	return NewPlanService(sessions, maps, grid.DefaultVocabulary()), sessions, maps
}

func TestCreateSession(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "corridor")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if info.MapID != "corridor" || info.ID == "" {
		t.Errorf("info = %+v", info)
	}
	if info.RunState == nil || info.RunState.Width != 4 {
		t.Errorf("run state = %+v", info.RunState)
	}
}

func TestCreateSession_DefaultMap(t *testing.T) {
	svc, _, _ := newTestService()

	info, err := svc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if info.MapID != "default" {
		t.Errorf("MapID = %q, want default", info.MapID)
	}
}

func TestCreateSession_UnknownMapListsAlternatives(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateSession(context.Background(), "atlantis")
	if err == nil {
		t.Fatal("expected error for unknown map")
	}
	if want := "Available maps"; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not mention %q", err, want)
	}
}

func TestPlan(t *testing.T) {
	svc, sessions, _ := newTestService()
	ctx := context.Background()
	info, err := svc.CreateSession(ctx, "corridor")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	result, err := svc.Plan(ctx, info.ID)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if result.AgentCount != 1 || result.GoalCount != 1 {
		t.Errorf("counts = %d agents, %d goals", result.AgentCount, result.GoalCount)
	}
	if result.Assigned != 1 || result.Routed != 1 {
		t.Errorf("assigned=%d routed=%d, want 1/1", result.Assigned, result.Routed)
	}
	if !result.RunState.Planned {
		t.Error("run state not marked planned")
	}
	// Path marks are on the grid: the whole top row except the goal carries
	// the agent's marker.
	cells := result.RunState.Cells
	for col := 0; col < 3; col++ {
		if cells[col] != 0.5 {
			t.Errorf("cell (0,%d) = %g, want path mark 0.5", col, cells[col])
		}
	}
	if cells[3] != 8.1 {
		t.Errorf("goal cell = %g, want 8.1", cells[3])
	}
	if sessions.saves == 0 {
		t.Error("planning never persisted the session")
	}

	if _, err := svc.Plan(ctx, info.ID); !errors.Is(err, ErrAlreadyPlanned) {
		t.Errorf("second Plan err = %v, want ErrAlreadyPlanned", err)
	}
}

func TestStep(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	info, err := svc.CreateSession(ctx, "corridor")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := svc.Plan(ctx, info.ID); err != nil {
		t.Fatalf("Plan: %v", err)
	}

	result, err := svc.Step(ctx, info.ID, 2)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if result.TicksExecuted != 2 || result.Tick != 2 {
		t.Errorf("executed=%d tick=%d, want 2/2", result.TicksExecuted, result.Tick)
	}
	if result.AllArrived {
		t.Error("arrived after 2 of 3 required ticks")
	}

	// Zero and negative tick counts clamp to one.
	result, err = svc.Step(ctx, info.ID, 0)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if result.TicksExecuted != 1 || result.Tick != 3 {
		t.Errorf("executed=%d tick=%d, want 1/3", result.TicksExecuted, result.Tick)
	}
	if !result.AllArrived {
		t.Error("agent should have arrived after 3 total ticks")
	}
	if result.Agents[0].Pos != (grid.Point{Row: 0, Col: 3}) {
		t.Errorf("agent pos = %v, want (0,3)", result.Agents[0].Pos)
	}

	// Stepping an arrived session executes nothing further.
	result, err = svc.Step(ctx, info.ID, 5)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if result.TicksExecuted != 0 || result.Tick != 3 {
		t.Errorf("executed=%d tick=%d after arrival, want 0/3", result.TicksExecuted, result.Tick)
	}
}

func TestReset(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	info, err := svc.CreateSession(ctx, "corridor")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := svc.Plan(ctx, info.ID); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if _, err := svc.Step(ctx, info.ID, 3); err != nil {
		t.Fatalf("Step: %v", err)
	}

	state, err := svc.Reset(ctx, info.ID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if state.Planned || state.Tick != 0 {
		t.Errorf("reset state planned=%v tick=%d", state.Planned, state.Tick)
	}
	if len(state.Agents) != 0 {
		t.Errorf("reset state still has %d agents", len(state.Agents))
	}
	// The grid is pristine again: marker back at the origin, no path marks.
	if state.Cells[0] != 0.5 || state.Cells[1] != 0 || state.Cells[3] != 8.1 {
		t.Errorf("reset cells = %v", state.Cells[:4])
	}

	// A fresh plan works after the reset.
	if _, err := svc.Plan(ctx, info.ID); err != nil {
		t.Errorf("Plan after Reset: %v", err)
	}
}

func TestGetRunState(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	info, err := svc.CreateSession(ctx, "corridor")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	state, err := svc.GetRunState(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetRunState: %v", err)
	}
	if state.Width != 4 || state.Height != 4 || len(state.Cells) != 16 {
		t.Errorf("state geometry = %+v", state)
	}
	if state.Planned || state.Tick != 0 {
		t.Errorf("fresh state planned=%v tick=%d", state.Planned, state.Tick)
	}

	if _, err := svc.Plan(ctx, info.ID); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	state, err = svc.GetRunState(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetRunState: %v", err)
	}
	agent := state.Agents[0]
	if agent.Goal == nil || *agent.Goal != (grid.Point{Row: 0, Col: 3}) {
		t.Errorf("agent goal = %v, want (0,3)", agent.Goal)
	}
	if agent.PathLength != 4 || agent.Arrived {
		t.Errorf("agent = %+v", agent)
	}
}

func TestExportMap(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	info, err := svc.CreateSession(ctx, "corridor")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := svc.Plan(ctx, info.ID); err != nil {
		t.Fatalf("Plan: %v", err)
	}

	doc, err := svc.ExportMap(ctx, info.ID)
	if err != nil {
		t.Fatalf("ExportMap: %v", err)
	}
	if doc.Layers[0].Data[1] != 0.5 {
		t.Errorf("exported data[1] = %g, want path mark 0.5", doc.Layers[0].Data[1])
	}
	if doc.Canvas == nil || doc.Canvas.Width != 128 {
		t.Error("export dropped canvas metadata")
	}

	// The session's source document keeps its pristine cells.
	sessDoc, err := svc.LoadMap(ctx, "corridor")
	if err != nil {
		t.Fatalf("LoadMap: %v", err)
	}
	if sessDoc.Layers[0].Data[1] != 0 {
		t.Error("export mutated the source map document")
	}
}

func TestSessionLifecycleOperations(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	info, err := svc.CreateSession(ctx, "corridor")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := svc.GetSession(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.ID != info.ID {
		t.Errorf("GetSession ID = %s, want %s", got.ID, info.ID)
	}

	list, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("listed %d sessions, want 1", len(list))
	}

	if err := svc.DeleteSession(ctx, info.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := svc.GetSession(ctx, info.ID); err == nil {
		t.Error("session retrievable after delete")
	}
}

func TestMapOperations(t *testing.T) {
	svc, _, maps := newTestService()
	ctx := context.Background()

	infos, err := svc.ListMaps(ctx)
	if err != nil {
		t.Fatalf("ListMaps: %v", err)
	}
	if len(infos) != 1 || infos[0].MapID != "corridor" {
		t.Errorf("ListMaps = %+v", infos)
	}

	if err := svc.SaveMap(ctx, "copy", corridorDoc()); err != nil {
		t.Fatalf("SaveMap: %v", err)
	}
	if _, exists := maps.docs["copy"]; !exists {
		t.Error("SaveMap did not store the document")
	}
	if _, err := svc.LoadMap(ctx, "copy"); err != nil {
		t.Errorf("LoadMap(copy): %v", err)
	}
}
