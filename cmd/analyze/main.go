// Command analyze prints search statistics for every maze file in a
// directory (default configs). For each maze it reports the grid shape and
// open regions, the work done by each heuristic on the default request, and
// the optimal cost from the start cell under every initial heading.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
)

// Analysis is the summary printed for one maze.
type Analysis struct {
	File     string
	Name     string
	Rows     int
	Cols     int
	Open     int
	Regions  int
	States   int
	Start    engine.Cell
	Heading  engine.Heading
	Goal     engine.Cell
	Distance int

	Heuristics []HeuristicRun
	Headings   []HeadingRun
}

// HeuristicRun records one search of the default request.
type HeuristicRun struct {
	Name    string
	Found   bool
	Cost    int
	Stats   engine.Stats
	Elapsed time.Duration
}

// HeadingRun records the optimal cost from the start cell facing Heading.
type HeadingRun struct {
	Heading engine.Heading
	Found   bool
	Cost    int
}

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No maze files found in %s\n", configDir)
		os.Exit(1)
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		analysis, err := analyzeMaze(file)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analysis)
	}
}

func analyzeMaze(path string) (*Analysis, error) {
	config, err := engine.LoadMazeConfig(path)
	if err != nil {
		return nil, err
	}
	grid, err := engine.NewGridFromConfig(config)
	if err != nil {
		return nil, err
	}
	start, heading, goal := config.Defaults(grid)

	a := &Analysis{
		File:     filepath.Base(path),
		Name:     config.Name,
		Rows:     grid.Rows(),
		Cols:     grid.Cols(),
		Open:     len(grid.OpenCells()),
		Regions:  engine.Components(grid),
		States:   grid.StateCount(),
		Start:    start,
		Heading:  heading,
		Goal:     goal,
		Distance: engine.ManhattanDistance(start, goal),
	}

	for _, name := range engine.HeuristicNames() {
		h, err := engine.HeuristicByName(name)
		if err != nil {
			return nil, err
		}
		eng, err := engine.NewEngine(grid, engine.WithHeuristic(h))
		if err != nil {
			return nil, err
		}
		run := HeuristicRun{Name: name}
		began := time.Now()
		res, err := eng.Search(start, heading, goal)
		run.Elapsed = time.Since(began)
		switch {
		case err == nil:
			run.Found = true
			run.Cost = res.Cost
			run.Stats = res.Stats
		case !errors.Is(err, engine.ErrNoPathFound):
			return nil, err
		}
		a.Heuristics = append(a.Heuristics, run)
	}

	eng, err := engine.NewEngine(grid)
	if err != nil {
		return nil, err
	}
	for _, h := range engine.Headings {
		run := HeadingRun{Heading: h}
		res, err := eng.Search(start, h, goal)
		switch {
		case err == nil:
			run.Found = true
			run.Cost = res.Cost
		case !errors.Is(err, engine.ErrNoPathFound):
			return nil, err
		}
		a.Headings = append(a.Headings, run)
	}

	return a, nil
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Grid: %dx%d, %d open cells, %d regions\n", a.Rows, a.Cols, a.Open, a.Regions)
	fmt.Fprintf(w, "Search space: %d states\n", a.States)
	fmt.Fprintf(w, "Request: %s facing %s -> %s (manhattan distance %d)\n", a.Start, a.Heading, a.Goal, a.Distance)

	fmt.Fprintln(w, "\nHeuristics:")
	for _, run := range a.Heuristics {
		if !run.Found {
			fmt.Fprintf(w, "  %-10s no path\n", run.Name)
			continue
		}
		fmt.Fprintf(w, "  %-10s cost %d, expanded %d/%d, pushed %d, stale %d (%s)\n",
			run.Name, run.Cost, run.Stats.Expanded, a.States, run.Stats.Pushed, run.Stats.Stale, run.Elapsed.Round(time.Microsecond))
	}

	fmt.Fprintln(w, "\nCost by initial heading:")
	for _, run := range a.Headings {
		if !run.Found {
			fmt.Fprintf(w, "  %-6s unreachable\n", run.Heading)
			continue
		}
		fmt.Fprintf(w, "  %-6s %d\n", run.Heading, run.Cost)
	}

	if a.Regions > 1 {
		fmt.Fprintf(w, "\n⚠️  %d disconnected regions\n", a.Regions)
	}
}
