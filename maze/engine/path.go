package engine

import (
	"slices"
	"strconv"
)

// reconstruct walks parent links from the terminal state back to the start
// and returns them start-first.
func (s *search) reconstruct() *Result {
	var states []State
	var moves []MoveKind

	current := s.terminal
	for {
		rec := s.records[current]
		states = append(states, current)
		if rec.root {
			break
		}
		moves = append(moves, rec.move)
		current = rec.parent
	}
	slices.Reverse(states)
	slices.Reverse(moves)

	path := make([]Cell, len(states))
	for i, st := range states {
		path[i] = st.Cell
	}

	return &Result{
		Path:   path,
		States: states,
		Moves:  moves,
		Cost:   s.records[s.terminal].g,
		Stats:  s.stats,
	}
}

// ValidatePath checks that states form a legal move sequence on grid: every
// state is open, each step is one unit along the new heading, and no step
// reverses the previous heading.
func ValidatePath(grid *Grid, states []State) error {
	for i, st := range states {
		if !st.Heading.Valid() {
			return ErrInvalidHeading
		}
		if !grid.IsOpen(st.Cell) {
			return &PathError{Index: i, Reason: "cell " + st.Cell.String() + " is not walkable"}
		}
		if i == 0 {
			continue
		}
		prev := states[i-1]
		if _, ok := MoveBetween(prev.Heading, st.Heading); !ok {
			return &PathError{Index: i, Reason: "reverses heading " + prev.Heading.String()}
		}
		if prev.Cell.Step(st.Heading) != st.Cell {
			return &PathError{Index: i, Reason: "is not one step from " + prev.Cell.String() + " facing " + st.Heading.String()}
		}
	}
	return nil
}

// PathError describes the first illegal step of a path.
type PathError struct {
	Index  int
	Reason string
}

func (e *PathError) Error() string {
	return "invalid path at step " + strconv.Itoa(e.Index) + ": " + e.Reason
}
