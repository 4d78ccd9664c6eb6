package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/mapcolor/internal/coloring"
)

type solveFlags struct {
	file     string
	colors   int
	maxSteps int
	asJSON   bool
}

func newSolveCmd() *cobra.Command {
	var flags solveFlags

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Color a graph file and print the search trace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSolve(cmd, &flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.file, "file", "f", "", "graph file (.json, .yaml or .yml)")
	f.IntVar(&flags.colors, "colors", 0, "number of colors (overrides num_colors in the file)")
	f.IntVar(&flags.maxSteps, "max-steps", 0, "stop after this many trace steps (0 = unlimited)")
	f.BoolVar(&flags.asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSolve(cmd *cobra.Command, flags *solveFlags) error {
	req, err := coloring.LoadRequest(flags.file)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("colors") {
		req.NumColors = flags.colors
	}

	res, err := coloring.Solve(*req, coloring.WithContext(cmd.Context()), coloring.WithMaxSteps(flags.maxSteps))
	if err != nil {
		return fmt.Errorf("search stopped after %d steps: %w", len(res.Steps), err)
	}

	out := cmd.OutOrStdout()
	if flags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		if err := printTrace(out, res.Steps); err != nil {
			return err
		}
		printColoring(out, req.Nodes, coloring.Replay(res.Steps))
	}

	if !res.Success {
		return fmt.Errorf("%w with %d colors (%d steps)", errUncolorable, req.NumColors, len(res.Steps))
	}
	if !flags.asJSON {
		fmt.Fprintf(out, "colorable with %d colors (%d steps)\n", req.NumColors, len(res.Steps))
	}
	return nil
}

func printTrace(w io.Writer, steps []coloring.Step) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tACTION\tNODE\tCOLOR\tDESCRIPTION")
	for _, s := range steps {
		color := "-"
		if s.Color != nil {
			color = fmt.Sprint(*s.Color)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.StepID, s.Action, s.Node, color, s.Description)
	}
	return tw.Flush()
}

// printColoring lists node colors in input order, skipping repeats.
func printColoring(w io.Writer, nodes []string, colors map[string]int) {
	if len(colors) == 0 {
		return
	}
	seen := make(map[string]bool, len(nodes))
	fmt.Fprint(w, "coloring:")
	for _, n := range nodes {
		if seen[n] {
			continue
		}
		seen[n] = true
		if c, ok := colors[n]; ok {
			fmt.Fprintf(w, " %s=%d", n, c)
		}
	}
	fmt.Fprintln(w)
}
