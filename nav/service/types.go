package service

import (
	"time"

	"github.com/gridrts/gridpath/nav/grid"
)

// SessionInfo provides information about a coordination session.
type SessionInfo struct {
	ID             string    `json:"id"`
	MapID          string    `json:"map_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	RunState       *RunState `json:"run_state"`
}

// AgentInfo is the transport view of one agent.
type AgentInfo struct {
	ID         int         `json:"id"`
	Marker     float64     `json:"marker"`
	Pos        grid.Point  `json:"pos"`
	Goal       *grid.Point `json:"goal,omitempty"`
	PathLength int         `json:"path_length"`
	PathIndex  int         `json:"path_index"`
	Arrived    bool        `json:"arrived"`
}

// RunState is the complete serializable state of a run: the (possibly
// path-marked) grid plus the live agent set.
type RunState struct {
	MapID      string       `json:"map_id"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Cells      []float64    `json:"cells"`
	Agents     []AgentInfo  `json:"agents"`
	Goals      []grid.Point `json:"goals,omitempty"`
	Tick       int          `json:"tick"`
	Planned    bool         `json:"planned"`
	AllArrived bool         `json:"all_arrived"`
}

// PlanResult summarizes one planning pass (discover, assign, plan, mark).
type PlanResult struct {
	AgentCount int         `json:"agent_count"`
	GoalCount  int         `json:"goal_count"`
	Assigned   int         `json:"assigned"`
	Routed     int         `json:"routed"` // agents that actually got a path
	Agents     []AgentInfo `json:"agents"`
	RunState   *RunState   `json:"run_state"`
}

// StepResult reports the outcome of advancing a session by some ticks.
type StepResult struct {
	TicksExecuted int         `json:"ticks_executed"`
	Tick          int         `json:"tick"` // cumulative tick counter
	AllArrived    bool        `json:"all_arrived"`
	Livelocked    bool        `json:"livelocked"`
	Agents        []AgentInfo `json:"agents"`
	RunState      *RunState   `json:"run_state"`
}
