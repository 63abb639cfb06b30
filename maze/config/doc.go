// Package config provides maze configuration management.
//
// Mazes are stored as JSON files in a configs directory. The file name
// without extension is the maze id used to create sessions. Each file holds
// a layout (rows of '0'/'1', or '.'/'#') or a numeric grid, plus an optional
// default start, heading, goal and heuristic:
//
//	{
//	  "name": "Classic",
//	  "layout": ["01000", "01010", "00010", "11010", "00000"],
//	  "start": {"row": 4, "col": 4},
//	  "heading": "north",
//	  "goal": {"row": 0, "col": 0}
//	}
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	maze, err := manager.LoadConfig("classic")
//	mazes, err := manager.ListConfigs()
//
// The default maze is classic.json when present, else the first valid file,
// else a built-in 5x5 maze.
package config
