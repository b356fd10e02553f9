package mapfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gridrts/gridpath/nav/grid"
)

func writeMap(t *testing.T, dir, name string, data []float64) {
	t.Helper()
	doc := &Document{Layers: []Layer{{Name: "world", Data: data}}}
	if err := doc.Save(filepath.Join(dir, name)); err != nil {
		t.Fatalf("writing map %s: %v", name, err)
	}
}

func testMapData() []float64 {
	data := make([]float64, 16)
	data[0] = 0.5
	data[5] = 3
	data[15] = 8.1
	return data
}

func TestNewManager_MissingDir(t *testing.T) {
	if _, err := NewManager(filepath.Join(t.TempDir(), "nope"), grid.DefaultVocabulary()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestLoadMap(t *testing.T) {
	dir := t.TempDir()
	writeMap(t, dir, "arena.json", testMapData())
	m, err := NewManager(dir, grid.DefaultVocabulary())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	doc, err := m.LoadMap("arena")
	if err != nil {
		t.Fatalf("LoadMap: %v", err)
	}
	if len(doc.Layers[0].Data) != 16 {
		t.Errorf("data length = %d, want 16", len(doc.Layers[0].Data))
	}

	// Second load comes from cache and must return the same document.
	again, err := m.LoadMap("arena")
	if err != nil {
		t.Fatalf("cached LoadMap: %v", err)
	}
	if again != doc {
		t.Error("cached load returned a different document")
	}

	// Explicit .json suffix also works.
	if _, err := m.LoadMap("arena.json"); err != nil {
		t.Errorf("LoadMap with suffix: %v", err)
	}
}

func TestLoadMap_NotFound(t *testing.T) {
	m, err := NewManager(t.TempDir(), grid.DefaultVocabulary())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := m.LoadMap("ghost"); !errors.Is(err, ErrMapNotFound) {
		t.Errorf("err = %v, want ErrMapNotFound", err)
	}
}

func TestLoadMap_InvalidGrid(t *testing.T) {
	dir := t.TempDir()
	writeMap(t, dir, "broken.json", []float64{0, 0, 0}) // not a perfect square
	m, err := NewManager(dir, grid.DefaultVocabulary())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := m.LoadMap("broken"); !errors.Is(err, ErrInvalidMap) {
		t.Errorf("err = %v, want ErrInvalidMap", err)
	}
}

func TestListMaps_SkipsUnloadable(t *testing.T) {
	dir := t.TempDir()
	writeMap(t, dir, "good.json", testMapData())
	writeMap(t, dir, "bad.json", []float64{0, 0, 0})
	if err := os.WriteFile(filepath.Join(dir, "junk.json"), []byte("nope"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := NewManager(dir, grid.DefaultVocabulary())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	infos, err := m.ListMaps()
	if err != nil {
		t.Fatalf("ListMaps: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("listed %d maps, want 1: %+v", len(infos), infos)
	}
	info := infos[0]
	if info.MapID != "good" || info.Filename != "good.json" {
		t.Errorf("info identity = %+v", info)
	}
	if info.Width != 4 || info.Height != 4 {
		t.Errorf("info size = %dx%d, want 4x4", info.Width, info.Height)
	}
	if info.Agents != 1 || info.Goals != 1 || info.Blocked != 1 {
		t.Errorf("info counts = %+v, want 1 agent, 1 goal, 1 blocked", info)
	}
}

func TestGetDefault_PrefersClassic(t *testing.T) {
	dir := t.TempDir()
	classic := testMapData()
	writeMap(t, dir, "classic.json", classic)
	writeMap(t, dir, "other.json", make([]float64, 9))

	m, err := NewManager(dir, grid.DefaultVocabulary())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	doc := m.GetDefault()
	if doc == nil {
		t.Fatal("GetDefault returned nil")
	}
	if len(doc.Layers[0].Data) != len(classic) {
		t.Errorf("default map has %d cells, want classic's %d", len(doc.Layers[0].Data), len(classic))
	}
}

func TestGetDefault_FallsBackToBuiltin(t *testing.T) {
	m, err := NewManager(t.TempDir(), grid.DefaultVocabulary())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	doc := m.GetDefault()
	if doc == nil {
		t.Fatal("GetDefault returned nil on an empty directory")
	}
	g, err := doc.Grid()
	if err != nil {
		t.Fatalf("built-in default does not translate to a grid: %v", err)
	}
	if g.Width() != 5 || g.Height() != 5 {
		t.Errorf("built-in default is %dx%d, want 5x5", g.Width(), g.Height())
	}
	voc := grid.DefaultVocabulary()
	if len(g.FindAll(voc.StartMarkers[0])) != 1 || len(g.FindAll(voc.GoalMarkers[0])) != 1 {
		t.Error("built-in default is missing its agent or goal marker")
	}
}

func TestSaveMap(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, grid.DefaultVocabulary())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	doc := &Document{Layers: []Layer{{Name: "world", Data: testMapData()}}}
	if err := m.SaveMap("saved", doc); err != nil {
		t.Fatalf("SaveMap: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
		t.Errorf("saved file missing: %v", err)
	}
	loaded, err := m.LoadMap("saved")
	if err != nil {
		t.Fatalf("LoadMap after save: %v", err)
	}
	if loaded != doc {
		t.Error("SaveMap did not cache the document")
	}

	bad := &Document{Layers: []Layer{{Name: "world", Data: []float64{0, 0}}}}
	if err := m.SaveMap("bad", bad); !errors.Is(err, ErrInvalidMap) {
		t.Errorf("SaveMap(bad) err = %v, want ErrInvalidMap", err)
	}
}

func TestRefreshCache(t *testing.T) {
	dir := t.TempDir()
	writeMap(t, dir, "arena.json", testMapData())
	m, err := NewManager(dir, grid.DefaultVocabulary())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	first, err := m.LoadMap("arena")
	if err != nil {
		t.Fatalf("LoadMap: %v", err)
	}

	m.RefreshCache()
	second, err := m.LoadMap("arena")
	if err != nil {
		t.Fatalf("LoadMap after refresh: %v", err)
	}
	if first == second {
		t.Error("RefreshCache kept the old cached document")
	}
}
