package engine

import "github.com/zyedidia/generic/mapset"

// ManhattanDistance calculates the Manhattan distance between two cells
func ManhattanDistance(from, to Cell) int {
	dr := from.Row - to.Row
	if dr < 0 {
		dr = -dr
	}
	dc := from.Col - to.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// Reachable reports whether b can be reached from a through 4-neighbour open
// cells, ignoring heading.
func Reachable(grid *Grid, a, b Cell) bool {
	if !grid.IsOpen(a) || !grid.IsOpen(b) {
		return false
	}
	return floodFill(grid, a).Has(b)
}

// ReachableCells returns every open cell connected to from, ignoring heading.
func ReachableCells(grid *Grid, from Cell) []Cell {
	if !grid.IsOpen(from) {
		return nil
	}
	var cells []Cell
	seen := floodFill(grid, from)
	seen.Each(func(c Cell) {
		cells = append(cells, c)
	})
	return cells
}

// Components counts the connected open regions of the grid.
func Components(grid *Grid) int {
	assigned := mapset.New[Cell]()
	count := 0
	for _, c := range grid.OpenCells() {
		if assigned.Has(c) {
			continue
		}
		count++
		region := floodFill(grid, c)
		region.Each(func(rc Cell) {
			assigned.Put(rc)
		})
	}
	return count
}

func floodFill(grid *Grid, from Cell) mapset.Set[Cell] {
	visited := mapset.New[Cell]()
	visited.Put(from)
	queue := []Cell{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, h := range Headings {
			next := current.Step(h)
			if grid.IsOpen(next) && !visited.Has(next) {
				visited.Put(next)
				queue = append(queue, next)
			}
		}
	}
	return visited
}
