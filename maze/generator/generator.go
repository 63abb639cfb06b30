// Package generator carves random mazes with a randomized depth-first search.
//
// The grid starts fully blocked. Carving jumps two cells at a time and opens
// the wall cell in between, so corridors are one cell wide and separated by
// walls. Loops can be added afterwards by knocking out extra walls, which
// gives the heading-constrained solver room to turn around.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
)

var ErrInvalidSize = errors.New("invalid maze size")

// Options controls a single generation run.
type Options struct {
	// Seed makes output reproducible. Zero picks a time-based seed.
	Seed int64
	// Start is the first carved cell. Nil picks a random cell.
	Start *engine.Cell
	// Loops is the number of extra interior walls to remove after carving.
	Loops int
}

type carveStep struct {
	next engine.Cell
	wall engine.Cell
}

// Generator produces mazes from a seeded random source. It is not safe for
// concurrent use.
type Generator struct {
	rng  *rand.Rand
	seed int64
}

// New creates a generator. A zero seed is replaced by the current time.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), seed: seed}
}

// Seed returns the seed the generator was created with.
func (g *Generator) Seed() int64 {
	return g.seed
}

// Generate carves a rows x cols maze.
func Generate(rows, cols int, opts Options) (*engine.Grid, error) {
	return New(opts.Seed).Generate(rows, cols, opts)
}

// Generate carves a rows x cols maze using the generator's random source.
// opts.Seed is ignored.
func (g *Generator) Generate(rows, cols int, opts Options) (*engine.Grid, error) {
	matrix, err := g.carve(rows, cols, opts)
	if err != nil {
		return nil, err
	}
	return engine.NewGrid(matrix)
}

func (g *Generator) carve(rows, cols int, opts Options) ([][]int, error) {
	if rows < engine.MinGridSize || rows > engine.MaxGridSize || cols < engine.MinGridSize || cols > engine.MaxGridSize {
		return nil, fmt.Errorf("%w: %dx%d outside %d..%d", ErrInvalidSize, rows, cols, engine.MinGridSize, engine.MaxGridSize)
	}

	matrix := make([][]int, rows)
	for r := range matrix {
		matrix[r] = make([]int, cols)
		for c := range matrix[r] {
			matrix[r][c] = engine.Blocked
		}
	}

	start := engine.Cell{Row: g.rng.Intn(rows), Col: g.rng.Intn(cols)}
	if opts.Start != nil {
		start = *opts.Start
		if start.Row < 0 || start.Row >= rows || start.Col < 0 || start.Col >= cols {
			return nil, fmt.Errorf("%w: start %s outside %dx%d", engine.ErrInvalidStart, start, rows, cols)
		}
	}

	visited := make(map[engine.Cell]bool)
	visited[start] = true
	matrix[start.Row][start.Col] = engine.Walkable
	stack := []engine.Cell{start}

	for len(stack) > 0 {
		current := stack[len(stack)-1]

		var options []carveStep
		for _, h := range engine.Headings {
			dr, dc := h.Delta()
			next := engine.Cell{Row: current.Row + 2*dr, Col: current.Col + 2*dc}
			if next.Row < 0 || next.Row >= rows || next.Col < 0 || next.Col >= cols || visited[next] {
				continue
			}
			options = append(options, carveStep{
				next: next,
				wall: engine.Cell{Row: current.Row + dr, Col: current.Col + dc},
			})
		}

		if len(options) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		step := options[g.rng.Intn(len(options))]
		matrix[step.wall.Row][step.wall.Col] = engine.Walkable
		matrix[step.next.Row][step.next.Col] = engine.Walkable
		visited[step.next] = true
		stack = append(stack, step.next)
	}

	g.addLoops(matrix, opts.Loops)
	return matrix, nil
}

// addLoops opens walls that sit between two open cells in a straight line,
// joining two corridors without widening either.
func (g *Generator) addLoops(matrix [][]int, loops int) {
	if loops <= 0 {
		return
	}
	rows, cols := len(matrix), len(matrix[0])
	open := func(r, c int) bool {
		return r >= 0 && r < rows && c >= 0 && c < cols && matrix[r][c] == engine.Walkable
	}

	var candidates []engine.Cell
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if matrix[r][c] != engine.Blocked {
				continue
			}
			vertical := open(r-1, c) && open(r+1, c) && !open(r, c-1) && !open(r, c+1)
			horizontal := open(r, c-1) && open(r, c+1) && !open(r-1, c) && !open(r+1, c)
			if vertical || horizontal {
				candidates = append(candidates, engine.Cell{Row: r, Col: c})
			}
		}
	}

	g.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if loops > len(candidates) {
		loops = len(candidates)
	}
	for _, c := range candidates[:loops] {
		matrix[c.Row][c.Col] = engine.Walkable
	}
}

// GenerateConfig carves a maze and wraps it in a MazeConfig with a random
// start, heading and goal. Start and goal differ whenever the maze has more
// than one open cell.
func (g *Generator) GenerateConfig(name string, rows, cols int, opts Options) (*engine.MazeConfig, error) {
	grid, err := g.Generate(rows, cols, opts)
	if err != nil {
		return nil, err
	}

	open := grid.OpenCells()
	start := open[g.rng.Intn(len(open))]
	if opts.Start != nil {
		start = *opts.Start
	}
	goal := start
	if len(open) > 1 {
		for goal == start {
			goal = open[g.rng.Intn(len(open))]
		}
	}
	heading := engine.Headings[g.rng.Intn(engine.NumHeadings)]

	if name == "" {
		name = fmt.Sprintf("generated-%dx%d", rows, cols)
	}
	return &engine.MazeConfig{
		Name:        name,
		Description: fmt.Sprintf("Randomized depth-first maze (seed %d, loops %d)", g.seed, opts.Loops),
		Layout:      grid.Layout(),
		Start:       &start,
		Heading:     &heading,
		Goal:        &goal,
		Heuristic:   engine.DefaultHeuristic,
	}, nil
}
