// Package sim provides the external stepping driver for a coordination run:
// a synchronous loop around Coordinator.Step bounded by a tick ceiling, with
// an observer hook for transports that want per-tick state.
package sim
