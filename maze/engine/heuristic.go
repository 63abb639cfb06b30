package engine

import (
	"fmt"
	"math"
	"strings"
)

// Heuristic estimates the remaining cost from a cell to the goal. It must
// never overestimate. Heuristics ignore heading.
type Heuristic func(from, goal Cell) float64

// Manhattan is the tightest admissible bound for 4-directional unit moves.
func Manhattan(from, goal Cell) float64 {
	return float64(ManhattanDistance(from, goal))
}

// Euclidean is the straight-line distance. Admissible but looser than Manhattan.
func Euclidean(from, goal Cell) float64 {
	dr := float64(from.Row - goal.Row)
	dc := float64(from.Col - goal.Col)
	return math.Sqrt(dr*dr + dc*dc)
}

// Zero turns the search into uniform-cost search.
func Zero(_, _ Cell) float64 {
	return 0
}

// DefaultHeuristic is the name used when none is configured.
const DefaultHeuristic = "manhattan"

var heuristics = map[string]Heuristic{
	"manhattan": Manhattan,
	"euclidean": Euclidean,
	"zero":      Zero,
}

// HeuristicNames lists the names HeuristicByName accepts.
func HeuristicNames() []string {
	return []string{"manhattan", "euclidean", "zero"}
}

// HeuristicByName resolves a heuristic by name. An empty name selects the default.
func HeuristicByName(name string) (Heuristic, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultHeuristic
	}
	h, ok := heuristics[name]
	if !ok {
		return nil, fmt.Errorf("unknown heuristic %q (available: %s)", name, strings.Join(HeuristicNames(), ", "))
	}
	return h, nil
}
