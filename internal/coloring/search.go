package coloring

import (
	"context"
	"errors"
	"fmt"
)

// ErrStepLimitExceeded is returned when a search would record more steps than
// allowed by WithMaxSteps.
var ErrStepLimitExceeded = errors.New("coloring: step limit exceeded")

// Option configures a search.
type Option func(*options)

type options struct {
	ctx      context.Context
	maxSteps int
}

func defaultOptions() options {
	return options{
		ctx:      context.Background(),
		maxSteps: 0,
	}
}

// WithContext lets the caller cancel a running search. The context is checked
// before every color trial. A nil context is ignored.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithMaxSteps caps the trace length. A search that would record step
// number limit+1 stops with ErrStepLimitExceeded. limit <= 0 means no cap.
func WithMaxSteps(limit int) Option {
	return func(o *options) {
		o.maxSteps = limit
	}
}

// trace is the append-only step log owned by a single search.
type trace struct {
	steps    []Step
	maxSteps int
}

// add stamps the next step id on s and appends it.
func (t *trace) add(s Step) error {
	if t.maxSteps > 0 && len(t.steps) >= t.maxSteps {
		return ErrStepLimitExceeded
	}
	s.StepID = len(t.steps)
	t.steps = append(t.steps, s)
	return nil
}

// search holds the mutable state of one Solve call.
type search struct {
	ctx       context.Context
	nodes     []string
	adj       Adjacency
	numColors int
	assigned  map[string]int // node -> color; absent means unassigned
	trace     *trace
}

// Solve colors req.Nodes with at most req.NumColors colors and returns the
// verdict together with the trace of every check, conflict, assignment and
// backtrack performed.
//
// Without options Solve never fails. With WithMaxSteps or WithContext it may
// stop early; it then returns the partial trace, Success=false, and the
// reason as error.
func Solve(req Request, opts ...Option) (Result, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	s := &search{
		ctx:       o.ctx,
		nodes:     req.Nodes,
		adj:       BuildAdjacency(req.Nodes, req.Edges),
		numColors: req.NumColors,
		assigned:  make(map[string]int, len(req.Nodes)),
		trace:     &trace{steps: make([]Step, 0), maxSteps: o.maxSteps},
	}

	ok, err := s.colorFrom(0)
	if err != nil {
		return Result{Success: false, Steps: s.trace.steps}, err
	}
	return Result{Success: ok, Steps: s.trace.steps}, nil
}

// colorFrom tries every color on nodes[idx] and recurses into the rest.
func (s *search) colorFrom(idx int) (bool, error) {
	if idx == len(s.nodes) {
		return true, nil
	}

	node := s.nodes[idx]
	for color := 1; color <= s.numColors; color++ {
		if err := s.ctx.Err(); err != nil {
			return false, fmt.Errorf("coloring: search aborted: %w", err)
		}

		if err := s.trace.add(checkStep(node, color)); err != nil {
			return false, err
		}

		if neighbor, found := s.conflict(node, color); found {
			if err := s.trace.add(conflictStep(node, color, neighbor)); err != nil {
				return false, err
			}
			continue
		}

		ok, err := s.assign(idx, node, color)
		if err != nil || ok {
			return ok, err
		}
	}

	return false, nil
}

// conflict returns the first neighbor of node, in adjacency order, that
// already holds color.
func (s *search) conflict(node string, color int) (string, bool) {
	for _, neighbor := range s.adj.Neighbors(node) {
		if c, ok := s.assigned[neighbor]; ok && c == color {
			return neighbor, true
		}
	}
	return "", false
}

// assign commits color to node and descends. When the subtree fails the
// assignment is cleared and a backtrack step recorded before returning.
func (s *search) assign(idx int, node string, color int) (bool, error) {
	s.assigned[node] = color
	if err := s.trace.add(assignStep(node, color)); err != nil {
		return false, err
	}

	ok, err := s.colorFrom(idx + 1)
	if err != nil || ok {
		return ok, err
	}

	delete(s.assigned, node)
	if err := s.trace.add(backtrackStep(node)); err != nil {
		return false, err
	}
	return false, nil
}
