// Command mazesolve solves, generates and renders mazes from the terminal.
//
//	mazesolve solve --maze configs/classic.json --heading east
//	mazesolve generate --rows 15 --cols 21 --seed 7 --out configs/big.json
//	mazesolve render --maze configs/classic.json
//
// The maze file can also be given through MAZE_FILE. Without one the built-in
// classic maze is used.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
	"github.com/wricardo/mcp-training/mazesolver/maze/generator"
	"github.com/wricardo/mcp-training/mazesolver/maze/render"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func mazeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "maze",
		Aliases: []string{"m"},
		Usage:   "maze JSON file (defaults to the built-in classic maze)",
		Sources: cli.EnvVars("MAZE_FILE"),
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "mazesolve",
		Usage: "orientation-constrained maze solver",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetLevel(log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "solve",
				Usage: "find the cheapest forward/right/left path",
				Flags: []cli.Flag{
					mazeFlag(),
					&cli.IntFlag{Name: "start-row", Usage: "start row"},
					&cli.IntFlag{Name: "start-col", Usage: "start column"},
					&cli.StringFlag{Name: "heading", Usage: "initial heading (north, east, south, west)"},
					&cli.IntFlag{Name: "goal-row", Usage: "goal row"},
					&cli.IntFlag{Name: "goal-col", Usage: "goal column"},
					&cli.StringFlag{Name: "heuristic", Usage: "manhattan, euclidean or zero"},
					&cli.BoolFlag{Name: "trace", Usage: "print every frontier pop"},
					&cli.BoolFlag{Name: "json", Usage: "print the result as JSON"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runSolve(cmd, out)
				},
			},
			{
				Name:  "generate",
				Usage: "carve a random maze",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "maze name"},
					&cli.IntFlag{Name: "rows", Value: 11, Usage: "number of rows"},
					&cli.IntFlag{Name: "cols", Value: 11, Usage: "number of columns"},
					&cli.Int64Flag{Name: "seed", Usage: "random seed (0 picks one)"},
					&cli.IntFlag{Name: "loops", Usage: "extra walls to knock out"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the maze JSON to this file"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runGenerate(cmd, out)
				},
			},
			{
				Name:  "render",
				Usage: "draw a maze with its start and goal",
				Flags: []cli.Flag{mazeFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					config, grid, err := loadMaze(cmd.String("maze"))
					if err != nil {
						return err
					}
					start, _, goal := config.Defaults(grid)
					fmt.Fprintf(out, "%s (%dx%d)\n", config.Name, grid.Rows(), grid.Cols())
					fmt.Fprintln(out, render.Text(grid, render.Overlay{Start: &start, Goal: &goal}))
					fmt.Fprintln(out, render.Legend())
					return nil
				},
			},
		},
	}
}

func loadMaze(path string) (*engine.MazeConfig, *engine.Grid, error) {
	config := engine.DefaultMazeConfig()
	if path != "" {
		var err error
		if config, err = engine.LoadMazeConfig(path); err != nil {
			return nil, nil, err
		}
	}
	grid, err := engine.NewGridFromConfig(config)
	if err != nil {
		return nil, nil, err
	}
	log.WithFields(log.Fields{"maze": config.Name, "rows": grid.Rows(), "cols": grid.Cols()}).Debug("Loaded maze")
	return config, grid, nil
}

// cellFlags reads a row/col flag pair. Both or neither must be set.
func cellFlags(cmd *cli.Command, prefix string, fallback engine.Cell) (engine.Cell, error) {
	rowSet, colSet := cmd.IsSet(prefix+"-row"), cmd.IsSet(prefix+"-col")
	if rowSet != colSet {
		return engine.Cell{}, fmt.Errorf("--%s-row and --%s-col must be given together", prefix, prefix)
	}
	if !rowSet {
		return fallback, nil
	}
	return engine.Cell{Row: cmd.Int(prefix + "-row"), Col: cmd.Int(prefix + "-col")}, nil
}

func runSolve(cmd *cli.Command, out io.Writer) error {
	config, grid, err := loadMaze(cmd.String("maze"))
	if err != nil {
		return err
	}
	start, heading, goal := config.Defaults(grid)

	if start, err = cellFlags(cmd, "start", start); err != nil {
		return err
	}
	if goal, err = cellFlags(cmd, "goal", goal); err != nil {
		return err
	}
	if name := cmd.String("heading"); name != "" {
		if heading, err = engine.ParseHeading(name); err != nil {
			return err
		}
	}

	heuristicName := config.Heuristic
	if cmd.IsSet("heuristic") {
		heuristicName = cmd.String("heuristic")
	}
	heuristic, err := engine.HeuristicByName(heuristicName)
	if err != nil {
		return err
	}

	opts := []engine.Option{engine.WithHeuristic(heuristic)}
	if cmd.Bool("trace") {
		opts = append(opts, engine.WithTrace(func(ev engine.TraceEvent) {
			stale := ""
			if ev.Stale {
				stale = " (stale)"
			}
			fmt.Fprintf(out, "pop %d: %s facing %s g=%d f=%.2f%s\n", ev.Step, ev.Cell, ev.Heading, ev.G, ev.F, stale)
		}))
	}
	eng, err := engine.NewEngine(grid, opts...)
	if err != nil {
		return err
	}
	if err := eng.Validate(start, heading, goal); err != nil {
		return err
	}

	result, err := eng.Search(start, heading, goal)
	if errors.Is(err, engine.ErrNoPathFound) {
		reason := "no_path"
		if !engine.Reachable(grid, start, goal) {
			reason = "disconnected"
		}
		fmt.Fprintf(out, "No path from %s facing %s to %s (%s)\n", start, heading, goal, reason)
		return err
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	moves := make([]string, len(result.Moves))
	for i, m := range result.Moves {
		moves[i] = m.String()
	}
	fmt.Fprintln(out, render.Result(grid, result))
	fmt.Fprintf(out, "Cost: %d\n", result.Cost)
	fmt.Fprintf(out, "Moves: %s\n", strings.Join(moves, ", "))
	fmt.Fprintf(out, "Expanded: %d, stale pops: %d\n", result.Stats.Expanded, result.Stats.Stale)
	return nil
}

func runGenerate(cmd *cli.Command, out io.Writer) error {
	gen := generator.New(cmd.Int64("seed"))
	config, err := gen.GenerateConfig(cmd.String("name"), cmd.Int("rows"), cmd.Int("cols"), generator.Options{
		Loops: cmd.Int("loops"),
	})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	path := cmd.String("out")
	if path == "" {
		fmt.Fprintln(out, string(data))
		return nil
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write maze: %w", err)
	}
	log.WithFields(log.Fields{"path": path, "seed": gen.Seed()}).Info("Generated maze")
	fmt.Fprintf(out, "Wrote %s (seed %d)\n", path, gen.Seed())
	return nil
}
