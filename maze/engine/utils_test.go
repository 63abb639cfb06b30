package engine

import "testing"

func TestManhattanDistance(t *testing.T) {
	tests := []struct {
		a, b Cell
		want int
	}{
		{Cell{0, 0}, Cell{0, 0}, 0},
		{Cell{4, 4}, Cell{0, 0}, 8},
		{Cell{1, 3}, Cell{3, 1}, 4},
	}
	for _, tt := range tests {
		if got := ManhattanDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("ManhattanDistance(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestReachableAndComponents(t *testing.T) {
	grid, err := ParseLayout([]string{
		"0010",
		"0010",
		"1111",
		"0100",
	})
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}

	if !Reachable(grid, Cell{0, 0}, Cell{1, 1}) {
		t.Error("Expected (0,0) to reach (1,1)")
	}
	if Reachable(grid, Cell{0, 0}, Cell{0, 3}) {
		t.Error("Expected (0,0) not to reach (0,3)")
	}
	if Reachable(grid, Cell{0, 0}, Cell{0, 2}) {
		t.Error("Expected blocked target to be unreachable")
	}
	if n := Components(grid); n != 4 {
		t.Errorf("Expected 4 components, got %d", n)
	}
	if cells := ReachableCells(grid, Cell{3, 2}); len(cells) != 2 {
		t.Errorf("Expected 2 reachable cells, got %v", cells)
	}
	if cells := ReachableCells(grid, Cell{2, 0}); cells != nil {
		t.Errorf("Expected nil for blocked origin, got %v", cells)
	}
}
