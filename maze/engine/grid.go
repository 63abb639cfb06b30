package engine

import (
	"fmt"
	"strings"
)

// Cell status values in a walkability matrix.
const (
	Walkable = 0
	Blocked  = 1
)

// Grid is an immutable walkability lookup over a rows x cols index space.
type Grid struct {
	rows    int
	cols    int
	blocked []bool
}

// NewGrid builds a grid from a rectangular matrix of 0 (walkable) and 1 (blocked).
// The input is copied.
func NewGrid(matrix [][]int) (*Grid, error) {
	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return nil, fmt.Errorf("%w: matrix is empty", ErrInvalidGrid)
	}
	rows, cols := len(matrix), len(matrix[0])
	if err := checkDimensions(rows, cols); err != nil {
		return nil, err
	}

	g := &Grid{rows: rows, cols: cols, blocked: make([]bool, rows*cols)}
	for r, row := range matrix {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrInvalidGrid, r, len(row), cols)
		}
		for c, v := range row {
			switch v {
			case Walkable:
			case Blocked:
				g.blocked[r*cols+c] = true
			default:
				return nil, fmt.Errorf("%w: value %d at (%d,%d), expected 0 or 1", ErrInvalidGrid, v, r, c)
			}
		}
	}
	return g, nil
}

// ParseLayout builds a grid from text rows. '0', '.' and ' ' are walkable;
// '1' and '#' are blocked.
func ParseLayout(layout []string) (*Grid, error) {
	if len(layout) == 0 || len(layout[0]) == 0 {
		return nil, fmt.Errorf("%w: layout is empty", ErrInvalidGrid)
	}
	rows, cols := len(layout), len(layout[0])
	if err := checkDimensions(rows, cols); err != nil {
		return nil, err
	}

	g := &Grid{rows: rows, cols: cols, blocked: make([]bool, rows*cols)}
	for r, row := range layout {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d characters, expected %d", ErrInvalidGrid, r, len(row), cols)
		}
		for c := 0; c < len(row); c++ {
			switch row[c] {
			case '0', '.', ' ':
			case '1', '#':
				g.blocked[r*cols+c] = true
			default:
				return nil, fmt.Errorf("%w: invalid character '%c' at (%d,%d)", ErrInvalidGrid, row[c], r, c)
			}
		}
	}
	return g, nil
}

func checkDimensions(rows, cols int) error {
	if rows < MinGridSize || rows > MaxGridSize || cols < MinGridSize || cols > MaxGridSize {
		return fmt.Errorf("%w: dimensions %dx%d outside %d..%d", ErrInvalidGrid, rows, cols, MinGridSize, MaxGridSize)
	}
	return nil
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether c lies inside the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Col >= 0 && c.Col < g.cols
}

// IsOpen reports whether c is in bounds and walkable.
func (g *Grid) IsOpen(c Cell) bool {
	return g.InBounds(c) && !g.blocked[c.Row*g.cols+c.Col]
}

// StateCount is the size of the augmented state space.
func (g *Grid) StateCount() int {
	return g.rows * g.cols * NumHeadings
}

// OpenCells returns every walkable cell in row-major order.
func (g *Grid) OpenCells() []Cell {
	var cells []Cell
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if !g.blocked[r*g.cols+c] {
				cells = append(cells, Cell{Row: r, Col: c})
			}
		}
	}
	return cells
}

// Matrix returns a copy of the grid as a 0/1 matrix.
func (g *Grid) Matrix() [][]int {
	m := make([][]int, g.rows)
	for r := range m {
		m[r] = make([]int, g.cols)
		for c := range m[r] {
			if g.blocked[r*g.cols+c] {
				m[r][c] = Blocked
			}
		}
	}
	return m
}

// Layout returns the grid as '0'/'1' text rows.
func (g *Grid) Layout() []string {
	layout := make([]string, g.rows)
	var sb strings.Builder
	for r := 0; r < g.rows; r++ {
		sb.Reset()
		for c := 0; c < g.cols; c++ {
			if g.blocked[r*g.cols+c] {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		layout[r] = sb.String()
	}
	return layout
}
