package coordinator

import (
	"fmt"
	"strings"

	"github.com/gridrts/gridpath/nav/grid"
	"github.com/gridrts/gridpath/nav/planner"
)

// Coordinator owns the agent set for one planning run over a shared grid.
// The intended call order is DiscoverStartsAndGoals, AssignGoals, PlanPaths,
// MarkPaths, then repeated Step calls from an external driver. Calling out of
// order is not prevented; it just yields degenerate results (planning before
// assignment plans nothing, since no agent has a goal).
type Coordinator struct {
	grid   *grid.Grid
	voc    grid.Vocabulary
	agents []*Agent
	goals  []grid.Point
}

// New creates a coordinator over the given grid and vocabulary.
func New(g *grid.Grid, voc grid.Vocabulary) *Coordinator {
	return &Coordinator{grid: g, voc: voc}
}

// Agents returns the discovered agent set in identity order.
func (c *Coordinator) Agents() []*Agent { return c.agents }

// Goals returns the discovered goal cells in discovery order.
func (c *Coordinator) Goals() []grid.Point { return c.goals }

// Grid returns the shared grid this coordinator operates on.
func (c *Coordinator) Grid() *grid.Grid { return c.grid }

// DiscoverStartsAndGoals scans the grid for agent start markers and goal
// markers. One agent is created per start marker hit, with identities
// assigned sequentially across the vocabulary's declared marker order, so an
// agent's identity is a pure function of discovery order. Goals are collected
// into a flat list preserving per-marker and row-major order. The grid is
// not mutated.
func (c *Coordinator) DiscoverStartsAndGoals() {
	c.agents = nil
	c.goals = nil

	id := 0
	for _, marker := range c.voc.StartMarkers {
		for _, pos := range c.grid.FindAllWithin(marker, c.voc.Tolerance) {
			c.agents = append(c.agents, &Agent{
				ID:     id,
				Marker: marker,
				Pos:    pos,
			})
			id++
		}
	}
	for _, marker := range c.voc.GoalMarkers {
		c.goals = append(c.goals, c.grid.FindAllWithin(marker, c.voc.Tolerance)...)
	}
}

// AssignGoals gives each agent a goal. When the agent count equals the goal
// count, goal[i] goes to agent[i] by index, guaranteeing a bijection.
// Otherwise each agent independently takes the goal nearest by Manhattan
// distance, ties broken by earliest goal index. Goals are not exclusively
// claimed in that mode, so several agents may share one. With no goals at
// all, every agent stays unassigned and permanently idle for this run.
func (c *Coordinator) AssignGoals() {
	if len(c.agents) == 0 || len(c.goals) == 0 {
		return
	}

	if len(c.agents) == len(c.goals) {
		for i, agent := range c.agents {
			agent.Goal = c.goals[i]
			agent.HasGoal = true
		}
		return
	}

	for _, agent := range c.agents {
		best := -1
		bestDist := 0
		for i, goal := range c.goals {
			dist := grid.Manhattan(agent.Pos, goal)
			if best < 0 || dist < bestDist {
				best = i
				bestDist = dist
			}
		}
		agent.Goal = c.goals[best]
		agent.HasGoal = true
	}
}

// PlanPaths runs the planner for every agent with an assigned goal. An empty
// search result means the goal is unreachable and the agent stays pathless.
func (c *Coordinator) PlanPaths() {
	for _, agent := range c.agents {
		if !agent.HasGoal {
			continue
		}
		agent.Path = planner.Search(c.grid, c.voc, agent.Pos, agent.Goal)
		agent.PathIndex = 0
	}
}

// MarkPaths overwrites each agent's path cells with the agent's own marker,
// except the final goal cell, which keeps its value so the goal marker stays
// visible after marking. When agents share cells the last writer wins, in
// agent iteration order.
func (c *Coordinator) MarkPaths() error {
	for _, agent := range c.agents {
		if len(agent.Path) == 0 {
			continue
		}
		for _, cell := range agent.Path[:len(agent.Path)-1] {
			if err := c.grid.Set(cell.Row, cell.Col, agent.Marker); err != nil {
				return fmt.Errorf("marking path for agent %d: %w", agent.ID, err)
			}
		}
	}
	return nil
}

// Step advances every traveling agent by one cell if its next path cell is
// free, and leaves it in place for this tick otherwise (wait policy, no
// replanning). Occupancy is checked against live positions in agent iteration
// order, so later agents in the same tick see earlier agents' already-applied
// moves. That asymmetry matches the reference behavior and is kept on
// purpose; it can livelock two mutually blocking agents, which the external
// driver detects with a tick ceiling.
func (c *Coordinator) Step() {
	for _, agent := range c.agents {
		if agent.Arrived() {
			continue
		}
		next := agent.Path[agent.PathIndex+1]
		if c.occupied(next) {
			continue
		}
		agent.Pos = next
		agent.PathIndex++
	}
}

// AllArrived reports whether every agent has either no path or a cursor on
// the final path cell. It is the external stepping loop's termination test.
func (c *Coordinator) AllArrived() bool {
	for _, agent := range c.agents {
		if !agent.Arrived() {
			return false
		}
	}
	return true
}

// Restore replaces the coordinator's agent and goal state, used when a
// persisted run is loaded back over a reconstructed grid.
func (c *Coordinator) Restore(agents []*Agent, goals []grid.Point) {
	c.agents = agents
	c.goals = goals
}

// Report renders a one-line-per-agent state dump for diagnostics.
func (c *Coordinator) Report() string {
	var b strings.Builder
	for _, agent := range c.agents {
		fmt.Fprintf(&b, "agent %d marker=%g at (%d,%d)", agent.ID, agent.Marker, agent.Pos.Row, agent.Pos.Col)
		if agent.HasGoal {
			fmt.Fprintf(&b, " => goal (%d,%d)", agent.Goal.Row, agent.Goal.Col)
		} else {
			b.WriteString(" => no goal")
		}
		if len(agent.Path) > 0 {
			fmt.Fprintf(&b, " [path %d/%d]", agent.PathIndex, len(agent.Path)-1)
		} else {
			b.WriteString(" [no path]")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (c *Coordinator) occupied(p grid.Point) bool {
	for _, agent := range c.agents {
		if agent.Pos == p {
			return true
		}
	}
	return false
}
