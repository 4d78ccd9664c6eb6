package solver

import (
	"github.com/AaronLay10/mapcolor/internal/coloring"
)

// EdgeRequest is the wire form of an edge. Both endpoints must be present;
// like node ids they are opaque, so the empty string is a valid id.
type EdgeRequest struct {
	Source *string `json:"source" validate:"required"`
	Target *string `json:"target" validate:"required"`
}

// SolveRequest is the wire form of a coloring request shared by the HTTP and
// MQTT transports. An empty node or edge list is allowed; a missing one is not.
type SolveRequest struct {
	Nodes     []string      `json:"nodes" validate:"required"`
	Edges     []EdgeRequest `json:"edges" validate:"required,dive"`
	NumColors *int          `json:"num_colors" validate:"required"`
}

// Graph converts the request into engine input.
func (r *SolveRequest) Graph() coloring.Request {
	edges := make([]coloring.Edge, len(r.Edges))
	for i, e := range r.Edges {
		edges[i] = coloring.Edge{Source: *e.Source, Target: *e.Target}
	}

	var k int
	if r.NumColors != nil {
		k = *r.NumColors
	}

	return coloring.Request{
		Nodes:     r.Nodes,
		Edges:     edges,
		NumColors: k,
	}
}
