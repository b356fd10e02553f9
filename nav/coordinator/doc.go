// Package coordinator discovers agents and goals embedded in a grid, assigns
// each agent a goal, plans a path per agent, writes the routes back onto the
// grid, and simulates synchronized discrete stepping with occupancy-based
// collision avoidance.
//
// Collision handling is a pure wait policy: a blocked agent skips its move
// for one tick. There is no replanning, no priority scheme, and no deadlock
// detection; the external stepping loop bounds the tick count instead.
package coordinator
