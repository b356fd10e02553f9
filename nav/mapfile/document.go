package mapfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/gridrts/gridpath/nav/grid"
)

var (
	// ErrNoLayerData is returned when the document carries no layers or the
	// first layer has an empty data array.
	ErrNoLayerData = errors.New("map has no layer data")
	// ErrNotSquare is returned when the data length is not a perfect square.
	// The legacy format does not declare dimensions; the side length is
	// inferred, so only square maps are representable.
	ErrNotSquare = errors.New("grid data length is not a perfect square")
)

// Document mirrors the legacy Tiled-style map JSON. The grid values live in
// layers[0].data as a flat row-major float array; the remaining fields are
// renderer metadata carried through untouched so a marked map round-trips.
type Document struct {
	Layers   []Layer   `json:"layers"`
	Tilesets []Tileset `json:"tilesets,omitempty"`
	Canvas   *Canvas   `json:"canvas,omitempty"`
}

// Layer is one named tile layer.
type Layer struct {
	Name    string    `json:"name"`
	Tileset string    `json:"tileset,omitempty"`
	Data    []float64 `json:"data"`
}

// Tileset describes the tile art a renderer would use. The planner never
// reads it.
type Tileset struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	ImageWidth  int    `json:"imagewidth,omitempty"`
	ImageHeight int    `json:"imageheight,omitempty"`
	TileWidth   int    `json:"tilewidth,omitempty"`
	TileHeight  int    `json:"tileheight,omitempty"`
}

// Canvas holds the render surface size.
type Canvas struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Parse decodes a map document from JSON.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse map: %w", err)
	}
	return &doc, nil
}

// Load reads and decodes a map document from a file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}
	return Parse(data)
}

// Grid builds a grid from the first layer's data array. The side length is
// inferred as the integer square root of the data length; a length that is
// not a perfect square is rejected before the core ever sees it.
func (d *Document) Grid() (*grid.Grid, error) {
	if len(d.Layers) == 0 || len(d.Layers[0].Data) == 0 {
		return nil, ErrNoLayerData
	}
	data := d.Layers[0].Data
	dim := int(math.Sqrt(float64(len(data))))
	if dim*dim != len(data) {
		return nil, fmt.Errorf("%w: %d values", ErrNotSquare, len(data))
	}
	cells := make([]float64, len(data))
	copy(cells, data)
	return grid.New(dim, dim, cells)
}

// SetGrid writes the grid's cells back into the first layer, creating the
// layer if the document was empty. Tileset and canvas metadata are kept.
func (d *Document) SetGrid(g *grid.Grid) {
	if len(d.Layers) == 0 {
		d.Layers = []Layer{{Name: "world"}}
	}
	d.Layers[0].Data = g.Cells()
}

// Encode renders the document as indented JSON.
func (d *Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal map: %w", err)
	}
	return data, nil
}

// Save writes the document to a file as indented JSON.
func (d *Document) Save(path string) error {
	data, err := d.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write map file: %w", err)
	}
	return nil
}
