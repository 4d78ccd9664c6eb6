package coloring

import "fmt"

// Action identifies what a trace step records.
type Action string

const (
	ActionCheck     Action = "check"
	ActionConflict  Action = "conflict"
	ActionAssign    Action = "assign"
	ActionBacktrack Action = "backtrack"
)

// Step is one entry in the search trace.
//
// Steps are only built by the per-action constructors below: Color is nil
// exactly for backtrack steps and ConflictWith is set exactly for conflict
// steps. StepID is stamped when the step is appended to a trace.
type Step struct {
	StepID       int     `json:"step_id"`
	Node         string  `json:"node"`
	Color        *int    `json:"color"`
	Action       Action  `json:"action"`
	Description  string  `json:"description"`
	ConflictWith *string `json:"conflict_with"`
}

// Result is the outcome of a search: the verdict and the full trace.
type Result struct {
	Success bool   `json:"success"`
	Steps   []Step `json:"steps"`
}

func checkStep(node string, color int) Step {
	return Step{
		Node:        node,
		Color:       &color,
		Action:      ActionCheck,
		Description: fmt.Sprintf("Trying color %d on %s", color, node),
	}
}

func conflictStep(node string, color int, neighbor string) Step {
	return Step{
		Node:         node,
		Color:        &color,
		Action:       ActionConflict,
		Description:  fmt.Sprintf("Conflict with neighbor %s", neighbor),
		ConflictWith: &neighbor,
	}
}

func assignStep(node string, color int) Step {
	return Step{
		Node:        node,
		Color:       &color,
		Action:      ActionAssign,
		Description: fmt.Sprintf("Color %d assigned to %s, advancing", color, node),
	}
}

func backtrackStep(node string) Step {
	return Step{
		Node:        node,
		Action:      ActionBacktrack,
		Description: fmt.Sprintf("Dead end, backtracking from %s", node),
	}
}

// ColorValue returns the step color, or 0 for backtrack steps.
func (s Step) ColorValue() int {
	if s.Color == nil {
		return 0
	}
	return *s.Color
}

// ConflictNode returns the neighbor a conflict step collided with, or "".
func (s Step) ConflictNode() string {
	if s.ConflictWith == nil {
		return ""
	}
	return *s.ConflictWith
}
