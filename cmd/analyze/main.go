// Command analyze prints quick, human-readable heuristics about map files
// in the project's maps directory. It summarizes dimensions, marker counts,
// blocked-cell density, and highlights agent starts whose nearest goal is
// unreachable through the blocked cells.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gridrts/gridpath/nav/grid"
	"github.com/gridrts/gridpath/nav/mapfile"
	"github.com/gridrts/gridpath/nav/planner"
)

func main() {
	mapDir := flag.String("map-dir", "maps", "directory containing map files")
	flag.Parse()

	entries, err := os.ReadDir(*mapDir)
	if err != nil {
		fmt.Printf("Error reading map directory: %v\n", err)
		os.Exit(1)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Printf("No map files found in %s\n", *mapDir)
		return
	}

	for _, name := range names {
		fmt.Printf("\n=== Analyzing %s ===\n", name)
		analyzeMap(filepath.Join(*mapDir, name))
	}
}

func analyzeMap(path string) {
	doc, err := mapfile.Load(path)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		return
	}

	g, err := doc.Grid()
	if err != nil {
		fmt.Printf("Error building grid: %v\n", err)
		return
	}

	voc := grid.DefaultVocabulary()

	var starts, goals []grid.Point
	for _, marker := range voc.StartMarkers {
		starts = append(starts, g.FindAllWithin(marker, voc.Tolerance)...)
	}
	for _, marker := range voc.GoalMarkers {
		goals = append(goals, g.FindAllWithin(marker, voc.Tolerance)...)
	}
	blocked := g.FindAllWithin(voc.Blocked, voc.Tolerance)

	total := g.Width() * g.Height()
	fmt.Printf("Grid Size: %d x %d\n", g.Width(), g.Height())
	fmt.Printf("Agent Starts: %d\n", len(starts))
	fmt.Printf("Goals: %d\n", len(goals))
	fmt.Printf("Blocked Cells: %d (%.1f%%)\n", len(blocked), 100*float64(len(blocked))/float64(total))

	if len(starts) == 0 || len(goals) == 0 {
		fmt.Println("Nothing to route: map needs at least one start and one goal")
		return
	}

	// Nearest goal per start by Manhattan distance, then a real search to
	// verify the blocked cells do not wall it off.
	unreachable := 0
	for _, start := range starts {
		nearest := goals[0]
		nearestDist := grid.Manhattan(start, goals[0])
		for _, goal := range goals[1:] {
			if dist := grid.Manhattan(start, goal); dist < nearestDist {
				nearest = goal
				nearestDist = dist
			}
		}

		path := planner.Search(g, voc, start, nearest)
		if len(path) == 0 {
			unreachable++
			fmt.Printf("WARNING: start (%d,%d) cannot reach its nearest goal (%d,%d), distance %d\n",
				start.Row, start.Col, nearest.Row, nearest.Col, nearestDist)
			continue
		}
		detour := len(path) - 1 - nearestDist
		if detour > 0 {
			fmt.Printf("start (%d,%d) -> goal (%d,%d): %d steps (%d over Manhattan)\n",
				start.Row, start.Col, nearest.Row, nearest.Col, len(path)-1, detour)
		} else {
			fmt.Printf("start (%d,%d) -> goal (%d,%d): %d steps (direct)\n",
				start.Row, start.Col, nearest.Row, nearest.Col, len(path)-1)
		}
	}

	if unreachable == 0 {
		fmt.Println("All starts can reach their nearest goal")
	}
}
