// Package grid provides the flat row-major grid shared by the planner and the
// multi-agent coordinator, plus the vocabulary of reserved cell values used by
// the legacy map format.
//
// The grid itself is a dumb data model: bounds-checked accessors and a
// deterministic row-major value scan. All interpretation of cell values
// (blocked terrain, agent start markers, goal markers) goes through a
// Vocabulary so the reserved constants live in one configurable place and all
// comparisons use an explicit floating-point tolerance.
package grid
