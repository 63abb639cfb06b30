package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MazeConfig describes a maze and its default solve request. Exactly one of
// Layout and Grid must be set.
type MazeConfig struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Layout      []string `json:"layout,omitempty"`
	Grid        [][]int  `json:"grid,omitempty"`
	Start       *Cell    `json:"start,omitempty"`
	Heading     *Heading `json:"heading,omitempty"`
	Goal        *Cell    `json:"goal,omitempty"`
	Heuristic   string   `json:"heuristic,omitempty"`
}

// ValidateMazeConfig validates a maze configuration for correctness
func ValidateMazeConfig(config *MazeConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if strings.TrimSpace(config.Name) == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if len(config.Layout) > 0 && len(config.Grid) > 0 {
		return fmt.Errorf("config validation: set either layout or grid, not both")
	}
	grid, err := NewGridFromConfig(config)
	if err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if config.Start != nil {
		if !grid.InBounds(*config.Start) {
			return fmt.Errorf("config validation: %w: %s is out of bounds", ErrInvalidStart, *config.Start)
		}
		if !grid.IsOpen(*config.Start) {
			return fmt.Errorf("config validation: %w: %s is blocked", ErrInvalidStart, *config.Start)
		}
	}
	if config.Goal != nil {
		if !grid.InBounds(*config.Goal) {
			return fmt.Errorf("config validation: %w: %s is out of bounds", ErrInvalidGoal, *config.Goal)
		}
		if !grid.IsOpen(*config.Goal) {
			return fmt.Errorf("config validation: %w: %s is blocked", ErrInvalidGoal, *config.Goal)
		}
	}
	if config.Heading != nil && !config.Heading.Valid() {
		return fmt.Errorf("config validation: %w: %d", ErrInvalidHeading, int(*config.Heading))
	}
	if _, err := HeuristicByName(config.Heuristic); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	return nil
}

// NewGridFromConfig builds the grid described by config.
func NewGridFromConfig(config *MazeConfig) (*Grid, error) {
	if len(config.Layout) > 0 {
		return ParseLayout(config.Layout)
	}
	if len(config.Grid) > 0 {
		return NewGrid(config.Grid)
	}
	return nil, fmt.Errorf("%w: layout or grid is required", ErrInvalidGrid)
}

// LoadMazeConfig loads and validates a maze configuration from a JSON file
func LoadMazeConfig(filename string) (*MazeConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config MazeConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(filename), err)
	}

	if err := ValidateMazeConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Defaults returns the request the config falls back to when a caller omits
// start, heading or goal. Without explicit values the start is the first open
// cell facing West and the goal is the last open cell.
func (config *MazeConfig) Defaults(grid *Grid) (start Cell, heading Heading, goal Cell) {
	open := grid.OpenCells()
	heading = West
	if len(open) > 0 {
		start = open[0]
		goal = open[len(open)-1]
	}
	if config.Start != nil {
		start = *config.Start
	}
	if config.Heading != nil {
		heading = *config.Heading
	}
	if config.Goal != nil {
		goal = *config.Goal
	}
	return start, heading, goal
}

// DefaultMazeConfig returns the built-in maze used when no configuration
// directory is available.
func DefaultMazeConfig() *MazeConfig {
	start := Cell{Row: 4, Col: 4}
	goal := Cell{Row: 0, Col: 0}
	heading := North
	return &MazeConfig{
		Name:        "Classic",
		Description: "5x5 maze that forces a detour through the middle column",
		Layout: []string{
			"01000",
			"01010",
			"00010",
			"11010",
			"00000",
		},
		Start:     &start,
		Heading:   &heading,
		Goal:      &goal,
		Heuristic: DefaultHeuristic,
	}
}
