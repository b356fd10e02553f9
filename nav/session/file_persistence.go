package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridrts/gridpath/nav/coordinator"
	"github.com/gridrts/gridpath/nav/grid"
	"github.com/gridrts/gridpath/nav/service"
)

// FilePersistence implements SessionPersistence using file system storage.
type FilePersistence struct {
	sessionsDir string
	mapManager  service.MapManager
	voc         grid.Vocabulary
}

// NewFilePersistence creates a new file-based session persistence layer.
func NewFilePersistence(sessionsDir string, mapManager service.MapManager, voc grid.Vocabulary) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FilePersistence{
		sessionsDir: sessionsDir,
		mapManager:  mapManager,
		voc:         voc,
	}, nil
}

// Save persists a session to a JSON file.
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	data := PersistedSessionData{
		ID:             session.ID,
		MapID:          session.MapID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Planned:        session.Planned,
		Tick:           session.Tick,
		Width:          session.Grid.Width(),
		Height:         session.Grid.Height(),
		Cells:          session.Grid.Cells(),
		Agents:         session.Coord.Agents(),
		Goals:          session.Coord.Goals(),
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	filePath := fp.getFilePath(session.ID)
	if err := os.WriteFile(filePath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load retrieves a session from a JSON file and rebuilds its grid and
// coordinator state.
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	filePath := fp.getFilePath(id)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, ErrSessionNotFound
	}

	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	g, err := grid.New(data.Width, data.Height, data.Cells)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild grid: %w", err)
	}

	coord := coordinator.New(g, fp.voc)
	coord.Restore(data.Agents, data.Goals)

	// The pristine map document is needed for resets. Fall back to the
	// current default map when the original map is gone.
	doc, err := fp.mapManager.LoadMap(data.MapID)
	if err != nil {
		doc = fp.mapManager.GetDefault()
		if doc == nil {
			return nil, fmt.Errorf("failed to load map '%s': %w", data.MapID, err)
		}
	}

	session := &service.Session{
		ID:             data.ID,
		MapID:          data.MapID,
		Doc:            doc,
		Grid:           g,
		Coord:          coord,
		Planned:        data.Planned,
		Tick:           data.Tick,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}

	return session, nil
}

// Delete removes a session file.
func (fp *FilePersistence) Delete(id string) error {
	filePath := fp.getFilePath(id)

	if !fp.Exists(id) {
		return ErrSessionNotFound
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	return nil
}

// ListAll returns all persisted session IDs.
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			sessionIDs = append(sessionIDs, strings.TrimSuffix(name, ".json"))
		}
	}

	return sessionIDs, nil
}

// Exists checks if a session file exists.
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.sessionsDir, fmt.Sprintf("%s.json", id))
}
