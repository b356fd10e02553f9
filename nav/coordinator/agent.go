package coordinator

import "github.com/gridrts/gridpath/nav/grid"

// Agent is one mobile unit discovered on the grid. Identity is assigned in
// discovery order and the marker value doubles as the agent's path mark when
// routes are written back to the grid.
type Agent struct {
	ID        int          `json:"id"`
	Marker    float64      `json:"marker"`
	Pos       grid.Point   `json:"pos"`
	Goal      grid.Point   `json:"goal"`
	HasGoal   bool         `json:"has_goal"`
	Path      []grid.Point `json:"path,omitempty"`
	PathIndex int          `json:"path_index"`
}

// Arrived reports whether the agent is done moving: either it never got a
// path, or its cursor sits on the final path cell.
func (a *Agent) Arrived() bool {
	return len(a.Path) == 0 || a.PathIndex >= len(a.Path)-1
}
