package planner

import (
	"container/heap"
	"math"

	"github.com/gridrts/gridpath/nav/grid"
)

// directions holds the fixed neighbor expansion order: right, down, left, up.
// The order influences which of several equal-length optimal paths is
// returned, so it must not change between runs.
var directions = [4][2]int{
	{0, 1},  // right
	{1, 0},  // down
	{0, -1}, // left
	{-1, 0}, // up
}

// Search runs A* over the 4-connected grid from start to goal and returns the
// path including both endpoints, in traversal order. It returns nil when no
// path exists, including when start or goal is out of bounds or blocked.
//
// Every traversable step costs 1 and the heuristic is Manhattan distance,
// which is admissible and consistent here, so the first time the goal is
// popped from the frontier the path is optimal.
func Search(g *grid.Grid, voc grid.Vocabulary, start, goal grid.Point) []grid.Point {
	if !g.InBounds(start.Row, start.Col) || !g.InBounds(goal.Row, goal.Col) {
		return nil
	}
	if cellBlocked(g, voc, start) || cellBlocked(g, voc, goal) {
		return nil
	}

	width := g.Width()
	height := g.Height()
	index := func(p grid.Point) int { return p.Row*width + p.Col }

	// Best known cost from start, per flattened cell index.
	gCosts := make([]float64, width*height)
	for i := range gCosts {
		gCosts[i] = math.Inf(1)
	}
	gCosts[index(start)] = 0

	// Predecessor per flattened index, for path reconstruction only.
	cameFrom := make(map[int]int)

	open := make(frontier, 0, 64)
	heap.Init(&open)
	seq := 0
	heap.Push(&open, &node{
		row:   start.Row,
		col:   start.Col,
		gCost: 0,
		fCost: float64(grid.Manhattan(start, goal)),
		seq:   seq,
	})

	found := false
	for open.Len() > 0 {
		current := heap.Pop(&open).(*node)

		// Lazy goal test: the first pop of the goal yields an optimal path.
		if current.row == goal.Row && current.col == goal.Col {
			found = true
			break
		}

		for _, dir := range directions {
			next := grid.Point{Row: current.row + dir[0], Col: current.col + dir[1]}
			if !g.InBounds(next.Row, next.Col) {
				continue
			}
			if cellBlocked(g, voc, next) {
				continue
			}

			newG := gCosts[current.row*width+current.col] + 1
			if newG < gCosts[index(next)] {
				gCosts[index(next)] = newG
				cameFrom[index(next)] = current.row*width + current.col
				seq++
				heap.Push(&open, &node{
					row:   next.Row,
					col:   next.Col,
					gCost: newG,
					fCost: newG + float64(grid.Manhattan(next, goal)),
					seq:   seq,
				})
			}
		}
	}

	if !found {
		return nil
	}
	return reconstruct(cameFrom, width, start, goal)
}

// reconstruct walks the predecessor map backward from goal to start and
// reverses the result so it reads start to goal.
func reconstruct(cameFrom map[int]int, width int, start, goal grid.Point) []grid.Point {
	path := []grid.Point{}
	current := goal.Row*width + goal.Col
	for {
		prev, ok := cameFrom[current]
		if !ok {
			break
		}
		path = append(path, grid.Point{Row: current / width, Col: current % width})
		current = prev
	}
	path = append(path, start)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func cellBlocked(g *grid.Grid, voc grid.Vocabulary, p grid.Point) bool {
	v, err := g.Get(p.Row, p.Col)
	if err != nil {
		return true
	}
	return voc.IsBlocked(v)
}
