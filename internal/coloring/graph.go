// Package coloring solves K-coloring of undirected graphs by chronological
// backtracking and records every decision the search makes as an ordered trace.
//
// The search is deliberately naive: nodes are visited in the order the caller
// supplied, colors are tried in increasing order 1..K, and the only pruning is
// rejecting a color already held by an assigned neighbor. Given the same input
// the trace is identical on every run.
//
// Each call to Solve allocates its own adjacency, assignment and trace, so
// concurrent calls share no state.
package coloring

// Edge is an undirected connection between two nodes.
type Edge struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Request is the input to a search.
type Request struct {
	Nodes     []string `json:"nodes" yaml:"nodes"`
	Edges     []Edge   `json:"edges" yaml:"edges"`
	NumColors int      `json:"num_colors" yaml:"num_colors"`
}

// Adjacency maps each node to its neighbors in edge insertion order.
type Adjacency map[string][]string

// BuildAdjacency builds the symmetric neighbor map for nodes.
// Duplicate node ids collapse into one entry. Edges that reference a node
// outside nodes are dropped.
func BuildAdjacency(nodes []string, edges []Edge) Adjacency {
	adj := make(Adjacency, len(nodes))
	for _, n := range nodes {
		adj[n] = []string{}
	}

	for _, e := range edges {
		if _, ok := adj[e.Source]; !ok {
			continue
		}
		if _, ok := adj[e.Target]; !ok {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}

	return adj
}

// Neighbors returns the neighbors of node, or nil if node is unknown.
func (a Adjacency) Neighbors(node string) []string {
	return a[node]
}
