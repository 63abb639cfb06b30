package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Heading is one of the four cardinal directions. The cyclic order makes
// (h+1)%4 a right turn and (h+3)%4 a left turn.
type Heading int

const (
	North Heading = iota
	East
	South
	West
)

// NumHeadings is the number of distinct headings per cell.
const NumHeadings = 4

var headingDeltas = [NumHeadings]Cell{
	North: {Row: -1, Col: 0},
	East:  {Row: 0, Col: 1},
	South: {Row: 1, Col: 0},
	West:  {Row: 0, Col: -1},
}

var headingNames = [NumHeadings]string{"north", "east", "south", "west"}

var headingAliases = map[string]Heading{
	"north": North, "n": North, "up": North, "0": North,
	"east": East, "e": East, "right": East, "1": East,
	"south": South, "s": South, "down": South, "2": South,
	"west": West, "w": West, "left": West, "3": West,
}

// Headings lists every heading in cyclic order.
var Headings = [NumHeadings]Heading{North, East, South, West}

// Valid reports whether h is one of the four headings.
func (h Heading) Valid() bool {
	return h >= North && h <= West
}

// Right returns the heading after a right turn.
func (h Heading) Right() Heading {
	return (h + 1) % NumHeadings
}

// Left returns the heading after a left turn.
func (h Heading) Left() Heading {
	return (h + NumHeadings - 1) % NumHeadings
}

// Reverse returns the opposite heading. The mover can never take it.
func (h Heading) Reverse() Heading {
	return (h + 2) % NumHeadings
}

// Delta returns the unit displacement of h.
func (h Heading) Delta() (dRow, dCol int) {
	d := headingDeltas[h]
	return d.Row, d.Col
}

func (h Heading) String() string {
	if !h.Valid() {
		return "Heading(" + strconv.Itoa(int(h)) + ")"
	}
	return headingNames[h]
}

// MarshalText encodes the heading as its lower-case name.
func (h Heading) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHeading, int(h))
	}
	return []byte(headingNames[h]), nil
}

// UnmarshalText accepts anything ParseHeading accepts.
func (h *Heading) UnmarshalText(text []byte) error {
	parsed, err := ParseHeading(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// UnmarshalJSON accepts a heading name or its number 0..3.
func (h *Heading) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if !Heading(n).Valid() {
			return fmt.Errorf("%w: %d (use 0-3)", ErrInvalidHeading, n)
		}
		*h = Heading(n)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidHeading, data)
	}
	return h.UnmarshalText([]byte(name))
}

// ParseHeading parses a heading name ("north", "n", "up"), or its digit 0..3.
func ParseHeading(s string) (Heading, error) {
	h, ok := headingAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q (use north, east, south, west or 0-3)", ErrInvalidHeading, s)
	}
	return h, nil
}

// MoveKind is one of the three legal actions.
type MoveKind int

const (
	Forward MoveKind = iota
	TurnRight
	TurnLeft
)

var moveNames = [...]string{"forward", "right", "left"}

func (m MoveKind) String() string {
	if m < Forward || m > TurnLeft {
		return "MoveKind(" + strconv.Itoa(int(m)) + ")"
	}
	return moveNames[m]
}

// MarshalText encodes the move as "forward", "right" or "left".
func (m MoveKind) MarshalText() ([]byte, error) {
	if m < Forward || m > TurnLeft {
		return nil, fmt.Errorf("invalid move kind %d", int(m))
	}
	return []byte(moveNames[m]), nil
}

// UnmarshalText decodes "forward", "right" or "left" (also F, R, L).
func (m *MoveKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "forward", "f":
		*m = Forward
	case "right", "r":
		*m = TurnRight
	case "left", "l":
		*m = TurnLeft
	default:
		return fmt.Errorf("invalid move kind %q", string(text))
	}
	return nil
}

// Apply returns the heading after taking move m while facing h.
func (m MoveKind) Apply(h Heading) Heading {
	switch m {
	case TurnRight:
		return h.Right()
	case TurnLeft:
		return h.Left()
	default:
		return h
	}
}

// candidateMoves is the fixed expansion order.
var candidateMoves = [...]MoveKind{Forward, TurnRight, TurnLeft}

// Successors returns the states reachable from s in one move. A candidate is
// kept only when its destination cell is open. Reversing is never a candidate.
func Successors(grid *Grid, s State) []Successor {
	out := make([]Successor, 0, len(candidateMoves))
	for _, move := range candidateMoves {
		heading := move.Apply(s.Heading)
		next := s.Cell.Step(heading)
		if !grid.IsOpen(next) {
			continue
		}
		out = append(out, Successor{
			State: State{Cell: next, Heading: heading},
			Move:  move,
		})
	}
	return out
}

// MoveBetween reports which move turns heading from into heading to, if any.
func MoveBetween(from, to Heading) (MoveKind, bool) {
	for _, move := range candidateMoves {
		if move.Apply(from) == to {
			return move, true
		}
	}
	return 0, false
}
