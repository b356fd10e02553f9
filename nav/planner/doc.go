// Package planner implements A* shortest-path search over a 4-connected grid
// with uniform movement cost.
//
// The frontier is a container/heap priority queue ordered by f = g + h with
// insertion-order tie-breaking, so repeated searches on an unchanged grid
// return the identical path. "No path" is an ordinary outcome reported as an
// empty result, never an error.
package planner
