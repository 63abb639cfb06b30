// Package render draws grids and solved paths as plain text.
package render

import (
	"strings"

	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
)

// Cell glyphs.
const (
	Wall  = '#'
	Open  = '.'
	Start = 'S'
	Goal  = 'G'
	Trail = '*'
)

var arrows = [engine.NumHeadings]byte{
	engine.North: '^',
	engine.East:  '>',
	engine.South: 'v',
	engine.West:  '<',
}

// Overlay is drawn on top of the grid. States take precedence over Path when
// both are set, since they carry the heading for each cell.
type Overlay struct {
	Path   []engine.Cell
	States []engine.State
	Start  *engine.Cell
	Goal   *engine.Cell
}

// Arrow returns the glyph for a heading.
func Arrow(h engine.Heading) byte {
	if !h.Valid() {
		return '?'
	}
	return arrows[h]
}

// Text renders grid with the overlay, one line per row. Cells outside the
// grid are ignored.
func Text(grid *engine.Grid, overlay Overlay) string {
	canvas := make([][]byte, grid.Rows())
	for r := range canvas {
		canvas[r] = make([]byte, grid.Cols())
		for c := range canvas[r] {
			if grid.IsOpen(engine.Cell{Row: r, Col: c}) {
				canvas[r][c] = Open
			} else {
				canvas[r][c] = Wall
			}
		}
	}

	put := func(cell engine.Cell, glyph byte) {
		if grid.InBounds(cell) {
			canvas[cell.Row][cell.Col] = glyph
		}
	}

	if len(overlay.States) > 0 {
		for _, st := range overlay.States {
			put(st.Cell, Arrow(st.Heading))
		}
	} else {
		for _, cell := range overlay.Path {
			put(cell, Trail)
		}
	}
	if overlay.Start != nil {
		put(*overlay.Start, Start)
	}
	if overlay.Goal != nil {
		put(*overlay.Goal, Goal)
	}

	var sb strings.Builder
	for r, row := range canvas {
		if r > 0 {
			sb.WriteByte('\n')
		}
		sb.Write(row)
	}
	return sb.String()
}

// Result renders a solved path from start to goal.
func Result(grid *engine.Grid, result *engine.Result) string {
	if result == nil || len(result.States) == 0 {
		return Text(grid, Overlay{})
	}
	start := result.States[0].Cell
	goal := result.States[len(result.States)-1].Cell
	return Text(grid, Overlay{States: result.States, Start: &start, Goal: &goal})
}

// Legend describes the glyphs used by Text.
func Legend() string {
	return "# wall, . open, S start, G goal, ^ > v < path heading, * path cell"
}
