// Package engine provides the core search logic for the maze solver.
//
// The engine package implements shortest-path search for a mover that can
// never reverse direction:
//   - Grid: an immutable walkability lookup over a rows x cols index space
//   - Heading and transition model: 4 cardinal headings, 3 legal actions
//   - Heuristics: admissible, heading-agnostic lower bounds (Manhattan, Euclidean)
//   - Engine: best-first search over the augmented (cell, heading) state space
//   - Path reconstruction from the engine's parent links
//
// Core Types:
//
// A State is a (Cell, Heading) pair. Two states on the same cell with different
// headings are distinct search nodes because their successor sets differ. Every
// move is Forward, TurnRight or TurnLeft followed by one step, and costs 1.
//
// Usage:
//
//	grid, err := engine.ParseLayout([]string{
//		"01000",
//		"01010",
//		"00010",
//		"11010",
//		"00000",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng, err := engine.NewEngine(grid, engine.WithHeuristic(engine.Manhattan))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := eng.Search(engine.Cell{Row: 4, Col: 4}, engine.North, engine.Cell{})
//	if errors.Is(err, engine.ErrNoPathFound) {
//		// unreachable under the movement constraints
//	}
//
// Concurrency:
//
// An Engine is read-only after construction. Each Search call owns its frontier,
// cost records and closed set, so independent searches may run in parallel on
// the same Engine without coordination. Search has no suspension points and is
// not cancellable; callers needing a deadline wrap the call themselves.
package engine
