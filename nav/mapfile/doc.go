// Package mapfile reads and writes the legacy Tiled-style map format and
// manages a directory of named maps.
//
// The format stores the grid as a flat numeric array in layers[0].data with
// no declared dimensions; the side length is inferred, so only square maps
// are representable on disk. Everything besides the data array is renderer
// metadata that round-trips untouched.
package mapfile
