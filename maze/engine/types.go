package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGrid    = errors.New("invalid grid")
	ErrInvalidStart   = errors.New("invalid start cell")
	ErrInvalidGoal    = errors.New("invalid goal cell")
	ErrInvalidHeading = errors.New("invalid heading")
	ErrNoPathFound    = errors.New("no path found")
)

const (
	// Validation constants
	MinGridSize = 1
	MaxGridSize = 256

	// MoveCost is the cost of every accepted transition.
	MoveCost = 1
)

// Cell represents a grid coordinate
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Step returns the neighbouring cell one unit along heading h.
func (c Cell) Step(h Heading) Cell {
	d := headingDeltas[h]
	return Cell{Row: c.Row + d.Row, Col: c.Col + d.Col}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// State is the unit of search: a cell plus the heading the mover faces there.
type State struct {
	Cell    Cell    `json:"cell"`
	Heading Heading `json:"heading"`
}

func (s State) String() string {
	return fmt.Sprintf("%s facing %s", s.Cell, s.Heading)
}

// Successor is a state reachable from another state by one legal move.
type Successor struct {
	State State
	Move  MoveKind
}

// Stats summarizes the work done by one search.
type Stats struct {
	Expanded int `json:"expanded"`
	Pushed   int `json:"pushed"`
	Stale    int `json:"stale"`
}

// Result is a minimum-cost path from start to goal.
type Result struct {
	Path   []Cell     `json:"path"`
	States []State    `json:"states"`
	Moves  []MoveKind `json:"moves"` // Moves[i] leads from States[i] to States[i+1]
	Cost   int        `json:"cost"`
	Stats  Stats      `json:"stats"`
}

// TraceEvent reports a single frontier pop.
type TraceEvent struct {
	Step    int     `json:"step"`
	Cell    Cell    `json:"cell"`
	Heading Heading `json:"heading"`
	G       int     `json:"g"`
	H       float64 `json:"h"`
	F       float64 `json:"f"`
	Stale   bool    `json:"stale,omitempty"` // popped entry was already closed and got discarded
}

// TraceFunc receives one TraceEvent per frontier pop. It must not mutate
// engine state.
type TraceFunc func(TraceEvent)
