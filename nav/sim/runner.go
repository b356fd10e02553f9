package sim

import (
	"context"

	"github.com/gridrts/gridpath/nav/coordinator"
)

// DefaultMaxTicks bounds a run when the caller does not choose a ceiling.
const DefaultMaxTicks = 500

// Observer is called after each executed tick with the live agent set.
type Observer func(tick int, agents []*coordinator.Agent)

// Report summarizes one stepping run.
type Report struct {
	Ticks      int  `json:"ticks"`
	AllArrived bool `json:"all_arrived"`
	Livelocked bool `json:"livelocked"`
}

// Runner drives a coordinator's stepping loop with a tick ceiling. The
// ceiling is the livelock detector: agents that perpetually block each other
// never arrive, so the run ends with Livelocked set instead of spinning.
type Runner struct {
	coord    *coordinator.Coordinator
	maxTicks int
	observer Observer
}

// NewRunner creates a runner over the coordinator. maxTicks values below 1
// fall back to DefaultMaxTicks.
func NewRunner(coord *coordinator.Coordinator, maxTicks int) *Runner {
	if maxTicks < 1 {
		maxTicks = DefaultMaxTicks
	}
	return &Runner{coord: coord, maxTicks: maxTicks}
}

// OnTick registers an observer invoked after every executed tick.
func (r *Runner) OnTick(obs Observer) { r.observer = obs }

// Run steps the coordinator until every agent has arrived, the tick ceiling
// is hit, or the context is canceled.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	if r.coord.AllArrived() {
		return Report{Ticks: 0, AllArrived: true}, nil
	}

	for tick := 1; tick <= r.maxTicks; tick++ {
		select {
		case <-ctx.Done():
			return Report{Ticks: tick - 1, AllArrived: r.coord.AllArrived()}, ctx.Err()
		default:
		}

		r.coord.Step()
		if r.observer != nil {
			r.observer(tick, r.coord.Agents())
		}
		if r.coord.AllArrived() {
			return Report{Ticks: tick, AllArrived: true}, nil
		}
	}

	return Report{Ticks: r.maxTicks, Livelocked: true}, nil
}
