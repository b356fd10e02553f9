// Command gridpath plans and simulates multi-agent routes on map files
// without a server. The plan subcommand runs one full planning pass and
// writes the path-marked map; simulate additionally steps the agents until
// they arrive or a tick ceiling is hit.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gridrts/gridpath/nav/coordinator"
	"github.com/gridrts/gridpath/nav/grid"
	"github.com/gridrts/gridpath/nav/mapfile"
	"github.com/gridrts/gridpath/nav/sim"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "gridpath",
		Usage: "multi-agent grid path planner",
		Commands: []*cli.Command{
			planCommand(),
			simulateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "discover agents, assign goals, plan and mark paths on a map file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "input map file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output map file (defaults to overwriting the input)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			input := cmd.String("input")
			output := cmd.String("output")
			if output == "" {
				output = input
			}

			doc, coord, err := loadAndPlan(input)
			if err != nil {
				return err
			}

			fmt.Print(coord.Report())

			doc.SetGrid(coord.Grid())
			if err := doc.Save(output); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Printf("Marked map written to %s\n", output)
			return nil
		},
	}
}

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "plan a map and step agents until all arrive or ticks run out",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "input map file",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "max-ticks",
				Usage: "tick ceiling before declaring a livelock",
				Value: sim.DefaultMaxTicks,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "print agent positions every tick",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, coord, err := loadAndPlan(cmd.String("input"))
			if err != nil {
				return err
			}

			fmt.Print(coord.Report())

			runner := sim.NewRunner(coord, cmd.Int("max-ticks"))
			if cmd.Bool("verbose") {
				runner.OnTick(func(tick int, agents []*coordinator.Agent) {
					for _, a := range agents {
						fmt.Printf("tick %d: agent %d at (%d,%d)\n", tick, a.ID, a.Pos.Row, a.Pos.Col)
					}
				})
			}

			report, err := runner.Run(ctx)
			if err != nil {
				return err
			}

			switch {
			case report.AllArrived:
				fmt.Printf("All agents arrived after %d tick(s)\n", report.Ticks)
			case report.Livelocked:
				fmt.Printf("Livelock: agents still traveling after %d tick(s)\n", report.Ticks)
			}
			return nil
		},
	}
}

// loadAndPlan reads a map file and runs one full planning pass over it.
func loadAndPlan(path string) (*mapfile.Document, *coordinator.Coordinator, error) {
	doc, err := mapfile.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	g, err := doc.Grid()
	if err != nil {
		return nil, nil, fmt.Errorf("building grid from %s: %w", path, err)
	}

	coord := coordinator.New(g, grid.DefaultVocabulary())
	coord.DiscoverStartsAndGoals()
	coord.AssignGoals()
	coord.PlanPaths()
	if err := coord.MarkPaths(); err != nil {
		return nil, nil, fmt.Errorf("marking paths: %w", err)
	}

	return doc, coord, nil
}
