package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeMaze(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write maze: %v", err)
	}
	return path
}

func hasMessage(messages []string, substr string) bool {
	for _, msg := range messages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	path := writeMaze(t, "classic.json", `{
		"name": "Classic",
		"layout": ["01000", "01010", "00010", "11010", "00000"],
		"start": {"row": 4, "col": 4},
		"heading": "north",
		"goal": {"row": 0, "col": 0}
	}`)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Messages)
	}
	if result.File != "classic.json" {
		t.Errorf("Expected base file name, got %s", result.File)
	}
	for _, want := range []string{"Name: Classic", "Grid: 5x5, 18 open cells, 1 regions", "Solvable: cost 8", "(4,4) facing north"} {
		if !hasMessage(result.Messages, want) {
			t.Errorf("Expected message %q, got %v", want, result.Messages)
		}
	}
}

func TestValidateConfig_Defaults(t *testing.T) {
	path := writeMaze(t, "open.json", `{"name": "Open", "layout": ["...", "...", "..."]}`)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, got %v", result.Messages)
	}
	if !hasMessage(result.Messages, "No start given, defaulting to (0,0)") {
		t.Errorf("Expected default start message, got %v", result.Messages)
	}
	if !hasMessage(result.Messages, "No goal given, defaulting to (2,2)") {
		t.Errorf("Expected default goal message, got %v", result.Messages)
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "malformed json",
			content: `{"name": "Broken", "layout": [`,
			want:    "Invalid JSON",
		},
		{
			name:    "unknown field",
			content: `{"name": "Typo", "layuot": ["000"]}`,
			want:    "Invalid JSON",
		},
		{
			name:    "missing name",
			content: `{"layout": ["000"]}`,
			want:    "name is required",
		},
		{
			name:    "ragged layout",
			content: `{"name": "Ragged", "layout": ["000", "00"]}`,
			want:    "config validation",
		},
		{
			name:    "start on wall",
			content: `{"name": "Wall", "layout": ["010"], "start": {"row": 0, "col": 1}}`,
			want:    "invalid start cell",
		},
		{
			name:    "unknown heuristic",
			content: `{"name": "Heur", "layout": ["000"], "heuristic": "chebyshev"}`,
			want:    "config validation",
		},
		{
			name:    "all walls",
			content: `{"name": "Solid", "layout": ["111", "111"]}`,
			want:    "no open cells",
		},
		{
			name:    "disconnected",
			content: `{"name": "Split", "layout": ["010", "010", "010"], "start": {"row": 0, "col": 0}, "goal": {"row": 0, "col": 2}}`,
			want:    "Connectivity failure",
		},
		{
			name:    "dead end heading",
			content: `{"name": "Corridor", "layout": ["000"], "start": {"row": 0, "col": 1}, "heading": "east", "goal": {"row": 0, "col": 0}}`,
			want:    "Unsolvable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateConfig(writeMaze(t, "maze.json", tt.content))
			if result.Valid {
				t.Fatalf("Expected invalid config, got messages %v", result.Messages)
			}
			if !hasMessage(result.Messages, tt.want) {
				t.Errorf("Expected message containing %q, got %v", tt.want, result.Messages)
			}
		})
	}
}

func TestValidateConfig_ReportsSolvableHeadings(t *testing.T) {
	path := writeMaze(t, "corridor.json", `{"name": "Corridor", "layout": ["000"], "start": {"row": 0, "col": 1}, "heading": "east", "goal": {"row": 0, "col": 0}}`)

	result := validateConfig(path)
	if result.Valid {
		t.Fatal("Expected dead-end start to be invalid")
	}
	if !hasMessage(result.Messages, "Solvable when facing: north, south, west") {
		t.Errorf("Expected alternative heading hint, got %v", result.Messages)
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig(filepath.Join(t.TempDir(), "nope.json"))
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
	if !hasMessage(result.Messages, "Failed to read file") {
		t.Errorf("Unexpected messages %v", result.Messages)
	}
}
