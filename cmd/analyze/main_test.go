package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
)

const classicMaze = `{
	"name": "Classic",
	"layout": ["01000", "01010", "00010", "11010", "00000"],
	"start": {"row": 4, "col": 4},
	"heading": "north",
	"goal": {"row": 0, "col": 0}
}`

func writeMaze(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "maze.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write maze: %v", err)
	}
	return path
}

func TestAnalyzeMaze_Classic(t *testing.T) {
	a, err := analyzeMaze(writeMaze(t, classicMaze))
	if err != nil {
		t.Fatalf("analyzeMaze failed: %v", err)
	}

	if a.Rows != 5 || a.Cols != 5 || a.Open != 18 || a.Regions != 1 {
		t.Errorf("Unexpected shape: %+v", a)
	}
	if a.Distance != 8 {
		t.Errorf("Expected manhattan distance 8, got %d", a.Distance)
	}
	if a.States != 100 {
		t.Errorf("Expected 100 search states, got %d", a.States)
	}

	if len(a.Heuristics) != len(engine.HeuristicNames()) {
		t.Fatalf("Expected one run per heuristic, got %d", len(a.Heuristics))
	}
	for _, run := range a.Heuristics {
		if !run.Found || run.Cost != 8 {
			t.Errorf("Heuristic %s: expected cost 8, got found=%v cost=%d", run.Name, run.Found, run.Cost)
		}
		if run.Stats.Expanded == 0 || run.Stats.Expanded > a.States {
			t.Errorf("Heuristic %s: expected 1..%d expansions, got %d", run.Name, a.States, run.Stats.Expanded)
		}
	}

	if len(a.Headings) != engine.NumHeadings {
		t.Fatalf("Expected %d heading runs, got %d", engine.NumHeadings, len(a.Headings))
	}
	for _, run := range a.Headings {
		if !run.Found {
			t.Errorf("Expected a path facing %s", run.Heading)
		}
		if run.Heading == engine.North && run.Cost != 8 {
			t.Errorf("Expected cost 8 facing north, got %d", run.Cost)
		}
	}
}

func TestAnalyzeMaze_UnreachableHeading(t *testing.T) {
	a, err := analyzeMaze(writeMaze(t, `{"name": "Corridor", "layout": ["000"], "start": {"row": 0, "col": 1}, "heading": "east", "goal": {"row": 0, "col": 0}}`))
	if err != nil {
		t.Fatalf("analyzeMaze failed: %v", err)
	}
	for _, run := range a.Heuristics {
		if run.Found {
			t.Errorf("Heuristic %s: expected no path", run.Name)
		}
	}
	for _, run := range a.Headings {
		want := run.Heading != engine.East
		if run.Found != want {
			t.Errorf("Facing %s: expected found=%v", run.Heading, want)
		}
	}

	var buf bytes.Buffer
	printAnalysis(&buf, a)
	out := buf.String()
	if !strings.Contains(out, "no path") || !strings.Contains(out, "east   unreachable") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestAnalyzeMaze_Errors(t *testing.T) {
	if _, err := analyzeMaze(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := analyzeMaze(writeMaze(t, `{"name": "Bad", "layout": ["0x0"]}`)); err == nil {
		t.Error("Expected error for invalid layout")
	}
}

func TestPrintAnalysis(t *testing.T) {
	a, err := analyzeMaze(writeMaze(t, `{"name": "Split", "layout": ["010", "010", "010"], "start": {"row": 0, "col": 0}, "goal": {"row": 2, "col": 0}}`))
	if err != nil {
		t.Fatalf("analyzeMaze failed: %v", err)
	}

	var buf bytes.Buffer
	printAnalysis(&buf, a)
	out := buf.String()
	for _, want := range []string{
		"Name: Split",
		"Grid: 3x3, 6 open cells, 2 regions",
		"Search space: 36 states",
		"Request: (0,0) facing west -> (2,0) (manhattan distance 2)",
		"Heuristics:",
		"Cost by initial heading:",
		"2 disconnected regions",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}
