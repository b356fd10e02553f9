package grid

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned when a cell access falls outside the grid extent.
var ErrOutOfBounds = errors.New("cell coordinates out of range")

// Point identifies a single cell by row and column (0-based).
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Manhattan returns the Manhattan distance between two points.
func Manhattan(a, b Point) int {
	dr := a.Row - b.Row
	if dr < 0 {
		dr = -dr
	}
	dc := a.Col - b.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// Grid holds a rectangular map as a flat row-major slice of cell values.
// A single Grid instance is shared by reference across the planner and the
// coordinator for the duration of one planning run.
type Grid struct {
	width  int
	height int
	cells  []float64
}

// New creates a grid from a row-major cell slice. The cell count must match
// width*height exactly; anything else is an ingestion failure, not a panic.
func New(width, height int, cells []float64) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions %dx%d", width, height)
	}
	if len(cells) != width*height {
		return nil, fmt.Errorf("grid data length %d does not match %dx%d", len(cells), width, height)
	}
	return &Grid{width: width, height: height, cells: cells}, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// InBounds reports whether (row, col) lies inside the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.height && col >= 0 && col < g.width
}

// Get returns the value stored at (row, col).
func (g *Grid) Get(row, col int) (float64, error) {
	if !g.InBounds(row, col) {
		return 0, fmt.Errorf("%w: (%d,%d) in %dx%d grid", ErrOutOfBounds, row, col, g.width, g.height)
	}
	return g.cells[row*g.width+col], nil
}

// Set overwrites the value stored at (row, col).
func (g *Grid) Set(row, col int, value float64) error {
	if !g.InBounds(row, col) {
		return fmt.Errorf("%w: (%d,%d) in %dx%d grid", ErrOutOfBounds, row, col, g.width, g.height)
	}
	g.cells[row*g.width+col] = value
	return nil
}

// FindAll returns every cell whose value matches target within DefaultTolerance,
// in row-major order. The order is load-bearing: discovery order determines
// agent identity assignment.
func (g *Grid) FindAll(target float64) []Point {
	return g.FindAllWithin(target, DefaultTolerance)
}

// FindAllWithin is FindAll with an explicit comparison tolerance.
func (g *Grid) FindAllWithin(target, tolerance float64) []Point {
	var hits []Point
	for row := 0; row < g.height; row++ {
		for col := 0; col < g.width; col++ {
			if approxEqual(g.cells[row*g.width+col], target, tolerance) {
				hits = append(hits, Point{Row: row, Col: col})
			}
		}
	}
	return hits
}

// Cells returns a copy of the flat row-major cell values for serialization.
func (g *Grid) Cells() []float64 {
	out := make([]float64, len(g.cells))
	copy(out, g.cells)
	return out
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	return &Grid{width: g.width, height: g.height, cells: g.Cells()}
}
