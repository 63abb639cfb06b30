// Command validate checks maze configuration JSON files in a directory
// (default ../configs). It checks:
//   - JSON structure, with unknown fields rejected
//   - Grid shape and allowed values
//   - Start, goal and heading against the grid
//   - Connectivity: start and goal share an open region
//   - Solvability: a forward/right/left path exists from the start heading
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Messages holds informational lines; otherwise it
// accumulates the problems that were found.
type ValidationResult struct {
	File     string
	Valid    bool
	Messages []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Messages = append(r.Messages, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single maze file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:     filepath.Base(filePath),
		Valid:    true,
		Messages: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.MazeConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateMazeConfig(&config); err != nil {
		result.fail("%v", err)
		return result
	}

	grid, err := engine.NewGridFromConfig(&config)
	if err != nil {
		result.fail("%v", err)
		return result
	}
	if len(grid.OpenCells()) == 0 {
		result.fail("Maze has no open cells")
		return result
	}
	start, heading, goal := config.Defaults(grid)

	if config.Start == nil {
		result.Messages = append(result.Messages, fmt.Sprintf("No start given, defaulting to %s", start))
	}
	if config.Goal == nil {
		result.Messages = append(result.Messages, fmt.Sprintf("No goal given, defaulting to %s", goal))
	}

	validateSolvability(&result, grid, start, heading, goal)

	if result.Valid {
		result.info("Name: %s", config.Name)
		result.info("Grid: %dx%d, %d open cells, %d regions", grid.Rows(), grid.Cols(), len(grid.OpenCells()), engine.Components(grid))
		result.info("Start: %s facing %s", start, heading)
		result.info("Goal: %s", goal)
	}

	return result
}

// validateSolvability checks connectivity first, then runs the search from
// the configured heading. It also reports which other start headings solve
// the maze, since a dead-end start can depend on it.
func validateSolvability(result *ValidationResult, grid *engine.Grid, start engine.Cell, heading engine.Heading, goal engine.Cell) {
	if !engine.Reachable(grid, start, goal) {
		result.fail("Connectivity failure: goal %s is not in the same open region as start %s", goal, start)
		return
	}

	eng, err := engine.NewEngine(grid)
	if err != nil {
		result.fail("%v", err)
		return
	}

	solvable := []string{}
	cost := -1
	for _, h := range engine.Headings {
		res, err := eng.Search(start, h, goal)
		if errors.Is(err, engine.ErrNoPathFound) {
			continue
		}
		if err != nil {
			result.fail("Search failed facing %s: %v", h, err)
			return
		}
		solvable = append(solvable, h.String())
		if h == heading {
			cost = res.Cost
		}
	}

	if cost < 0 {
		result.fail("Unsolvable: goal %s cannot be reached from %s facing %s without reversing", goal, start, heading)
		if len(solvable) > 0 {
			result.Messages = append(result.Messages, fmt.Sprintf("Solvable when facing: %s", strings.Join(solvable, ", ")))
		}
		return
	}

	result.info("Solvable: cost %d", cost)
	result.info("Solvable facing: %s", strings.Join(solvable, ", "))
}

// main validates every *.json file in the directory given as the first
// argument, printing a concise report and exiting non-zero if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding maze files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No maze files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, msg := range result.Messages {
				fmt.Println("  " + msg)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, msg := range result.Messages {
				fmt.Println("  ❌ " + msg)
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All mazes are valid!")
	} else {
		fmt.Println("❌ Some mazes have errors")
		os.Exit(1)
	}
}
