// Command validate provides a small CLI that validates map JSON files in the
// ../maps directory. It checks:
//   - JSON structure and the presence of layer data
//   - Grid consistency (data length must be a perfect square)
//   - Presence of at least one agent start and one goal marker
//   - Blocked-cell density sanity
//   - Connectivity: every agent start can reach its nearest goal through
//     the blocked cells, verified with the real planner
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridrts/gridpath/nav/grid"
	"github.com/gridrts/gridpath/nav/mapfile"
	"github.com/gridrts/gridpath/nav/planner"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateMap loads and validates a single map JSON file. It performs
// structural checks, marker counting, and reachability analysis.
func validateMap(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	doc, err := mapfile.Load(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to load file: %v", err))
		return result
	}

	g, err := doc.Grid()
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid grid data: %v", err))
		return result
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

	if len(starts) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Must have at least 1 agent start marker")
	}

	if len(goals) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Must have at least 1 goal marker")
	}

	total := g.Width() * g.Height()
	if len(blocked) == total {
		result.Valid = false
		result.Errors = append(result.Errors, "Every cell is blocked")
	}

	// Start markers on blocked cells cannot happen (a cell holds one value),
	// but shared start and goal counts are worth flagging.
	if len(starts) != len(goals) && len(goals) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Note: %d starts vs %d goals; goals will be shared by nearest-distance assignment", len(starts), len(goals)))
	}

	// Connectivity validation with the real planner
	if result.Valid {
		reachability := validateReachability(g, voc, starts, goals)
		if !reachability.Valid {
			result.Valid = false
		}
		result.Errors = append(result.Errors, reachability.Errors...)
	}

	// Add informational data
	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d", g.Width(), g.Height()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Agent starts: %d", len(starts)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Goals: %d", len(goals)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Blocked cells: %d/%d", len(blocked), total))
	}

	return result
}

// validateReachability checks that every start can reach its nearest goal by
// running the planner itself, so the validation agrees exactly with what a
// planning pass would do.
func validateReachability(g *grid.Grid, voc grid.Vocabulary, starts, goals []grid.Point) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	if len(starts) == 0 || len(goals) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Cannot validate reachability without starts and goals")
		return result
	}

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

		if path := planner.Search(g, voc, start, nearest); len(path) == 0 {
			unreachable++
			result.Errors = append(result.Errors, fmt.Sprintf("Unreachable: start (%d,%d) cannot reach goal (%d,%d)", start.Row, start.Col, nearest.Row, nearest.Col))
		}
	}

	if unreachable > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Connectivity failure: %d/%d starts cannot reach their nearest goal", unreachable, len(starts)))
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Connectivity: all %d starts reach their nearest goal", len(starts)))
	}

	return result
}

// main scans ../maps for *.json files and validates each one, printing a
// concise report and exiting with non-zero status if any are invalid.
func main() {
	mapDir := "../maps"
	files, err := filepath.Glob(filepath.Join(mapDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding map files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateMap(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All maps are valid!")
	} else {
		fmt.Println("❌ Some maps have errors")
		os.Exit(1)
	}
}
