// colorctl runs the coloring search from the command line.
//
// Usage:
//
//	colorctl solve -f graph.yaml [--colors N] [--max-steps N] [--json]
//	colorctl replay -f trace.json [-g graph.yaml]
//	colorctl version
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/mapcolor/internal/version"
)

// errUncolorable makes the process exit 1 after a completed, failed search.
var errUncolorable = errors.New("graph is not colorable")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "colorctl",
		Short: "Color graphs by backtracking and inspect the search trace",
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}

	root.AddCommand(newSolveCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the colorctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "colorctl %s\n", version.Version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
