package coloring

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidColoring indicates two adjacent nodes share a color.
	ErrInvalidColoring = errors.New("coloring: adjacent nodes share a color")

	// ErrIncompleteColoring indicates a node has no color.
	ErrIncompleteColoring = errors.New("coloring: node left uncolored")
)

// Replay applies the assign and backtrack steps of a trace in order and
// returns the assignment the trace ends in. For a successful search this is
// the solution.
func Replay(steps []Step) map[string]int {
	colors := make(map[string]int)
	for _, s := range steps {
		switch s.Action {
		case ActionAssign:
			colors[s.Node] = s.ColorValue()
		case ActionBacktrack:
			delete(colors, s.Node)
		case ActionCheck, ActionConflict:
			// no state change
		}
	}
	return colors
}

// Validate checks that every node in adj is colored and that no two
// neighbors share a color. Nodes are checked in sorted order so the reported
// error is stable.
func Validate(adj Adjacency, colors map[string]int) error {
	nodes := make([]string, 0, len(adj))
	for n := range adj {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	for _, n := range nodes {
		c, ok := colors[n]
		if !ok || c < 1 {
			return fmt.Errorf("%w: %s", ErrIncompleteColoring, n)
		}
		for _, m := range adj[n] {
			if colors[m] == c {
				return fmt.Errorf("%w: %s and %s both have color %d", ErrInvalidColoring, n, m, c)
			}
		}
	}
	return nil
}
