package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/mapcolor/internal/coloring"
)

type replayFlags struct {
	file  string
	graph string
}

func newReplayCmd() *cobra.Command {
	var flags replayFlags

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Print the coloring a saved trace ends in",
		Long: "replay reads a result written by 'colorctl solve --json' or returned by\n" +
			"POST /solve and folds its steps into the final node colors. With --graph\n" +
			"the coloring is also checked against the graph's edges.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReplay(cmd, &flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.file, "file", "f", "", "trace file (JSON result)")
	f.StringVarP(&flags.graph, "graph", "g", "", "graph file to validate the coloring against")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runReplay(cmd *cobra.Command, flags *replayFlags) error {
	data, err := os.ReadFile(flags.file)
	if err != nil {
		return fmt.Errorf("read trace: %w", err)
	}
	var res coloring.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return fmt.Errorf("parse trace %s: %w", flags.file, err)
	}

	colors := coloring.Replay(res.Steps)
	nodes := make([]string, 0, len(colors))
	for n := range colors {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d steps, success=%t\n", len(res.Steps), res.Success)
	for _, n := range nodes {
		fmt.Fprintf(out, "%s\t%d\n", n, colors[n])
	}

	if flags.graph == "" {
		return nil
	}
	req, err := coloring.LoadRequest(flags.graph)
	if err != nil {
		return err
	}
	if err := coloring.Validate(coloring.BuildAdjacency(req.Nodes, req.Edges), colors); err != nil {
		return err
	}
	fmt.Fprintln(out, "coloring is valid")
	return nil
}
