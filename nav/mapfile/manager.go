package mapfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gridrts/gridpath/nav/grid"
)

var (
	ErrMapNotFound = errors.New("map not found")
	ErrInvalidMap  = errors.New("invalid map")
)

// MapInfo summarizes one loadable map for listings.
type MapInfo struct {
	Filename string `json:"filename"`
	MapID    string `json:"map_id"` // identifier to use for session creation
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Agents   int    `json:"agents"`
	Goals    int    `json:"goals"`
	Blocked  int    `json:"blocked"`
}

// Manager loads and caches named map documents from a directory.
type Manager struct {
	mapDir     string
	voc        grid.Vocabulary
	defaultDoc *Document
	maps       map[string]*Document
	mu         sync.RWMutex
}

// NewManager creates a map manager over the given directory.
func NewManager(mapDir string, voc grid.Vocabulary) (*Manager, error) {
	if _, err := os.Stat(mapDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("map directory does not exist: %s", mapDir)
	}

	m := &Manager{
		mapDir: mapDir,
		voc:    voc,
		maps:   make(map[string]*Document),
	}
	m.loadDefaultMap()
	return m, nil
}

// LoadMap loads a map document by name, caching it for later calls.
func (m *Manager) LoadMap(name string) (*Document, error) {
	m.mu.RLock()
	if doc, exists := m.maps[name]; exists {
		m.mu.RUnlock()
		return doc, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if doc, exists := m.maps[name]; exists {
		return doc, nil
	}

	filename := name
	if !strings.HasSuffix(filename, ".json") {
		filename = name + ".json"
	}

	doc, err := Load(filepath.Join(m.mapDir, filename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrMapNotFound
		}
		return nil, err
	}

	// A map must translate to a grid before it is usable.
	if _, err := doc.Grid(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}

	m.maps[name] = doc
	return doc, nil
}

// ListMaps returns information about all loadable maps in the directory.
// Files that fail to parse or translate to a grid are skipped.
func (m *Manager) ListMaps() ([]*MapInfo, error) {
	entries, err := os.ReadDir(m.mapDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read map directory: %w", err)
	}

	var infos []*MapInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		doc, err := m.LoadMap(name)
		if err != nil {
			continue
		}
		info := m.describe(entry.Name(), name, doc)
		infos = append(infos, info)
	}
	return infos, nil
}

// GetDefault returns the default map document.
func (m *Manager) GetDefault() *Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultDoc
}

// SaveMap validates and writes a map document into the directory.
func (m *Manager) SaveMap(name string, doc *Document) error {
	if _, err := doc.Grid(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}

	filename := name
	if !strings.HasSuffix(filename, ".json") {
		filename = name + ".json"
	}

	if err := doc.Save(filepath.Join(m.mapDir, filename)); err != nil {
		return err
	}

	m.mu.Lock()
	m.maps[name] = doc
	m.mu.Unlock()
	return nil
}

// RefreshCache drops all cached maps and reloads the default.
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.maps = make(map[string]*Document)
	m.mu.Unlock()
	m.loadDefaultMap()
}

func (m *Manager) loadDefaultMap() {
	doc, err := m.LoadMap("classic")
	if err == nil {
		m.mu.Lock()
		m.defaultDoc = doc
		m.mu.Unlock()
		return
	}

	// Fall back to the first loadable map, then to the built-in demo.
	infos, listErr := m.ListMaps()
	if listErr == nil && len(infos) > 0 {
		if doc, err := m.LoadMap(infos[0].MapID); err == nil {
			m.mu.Lock()
			m.defaultDoc = doc
			m.mu.Unlock()
			return
		}
	}

	m.mu.Lock()
	m.defaultDoc = minimalDocument()
	m.mu.Unlock()
}

func (m *Manager) describe(filename, id string, doc *Document) *MapInfo {
	info := &MapInfo{Filename: filename, MapID: id}
	g, err := doc.Grid()
	if err != nil {
		return info
	}
	info.Width = g.Width()
	info.Height = g.Height()
	for _, marker := range m.voc.StartMarkers {
		info.Agents += len(g.FindAll(marker))
	}
	for _, marker := range m.voc.GoalMarkers {
		info.Goals += len(g.FindAll(marker))
	}
	info.Blocked = len(g.FindAll(m.voc.Blocked))
	return info
}

// minimalDocument builds a 5x5 demo map: one agent at the top-left corner,
// one goal at the top-right, and a single blocked cell between them forcing a
// two-cell detour.
func minimalDocument() *Document {
	data := make([]float64, 25)
	data[0] = 0.5 // agent start
	data[2] = 3   // blocked
	data[4] = 8.1 // goal
	return &Document{
		Layers: []Layer{{Name: "world", Data: data}},
		Canvas: &Canvas{Width: 160, Height: 160},
	}
}
