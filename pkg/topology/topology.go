// Package topology rebuilds step order from parent pointers.
package topology

import (
	"fmt"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

// maxSimpleSteps is the step count above which an automation is reported as complex
const maxSimpleSteps = 20

// Topology is the reconstructed shape of one automation. Indices refer to the step slice it was built from.
type Topology struct {
	Root        int     // -1 when the automation has no steps
	Order       []int   // preorder from the root, then any extra roots
	Branches    [][]int // trigger-to-terminal chains
	Unreachable []int
	FanOut      int
	Depth       int
	Warnings    []models.Warning
}

// Build reconstructs the step tree. Anomalies are recorded as warnings, never returned as errors.
func Build(steps []models.Step) *Topology {
	t := &Topology{Root: -1}
	if len(steps) == 0 {
		return t
	}

	index := make(map[string]int, len(steps))
	for i, s := range steps {
		if _, dup := index[s.ID]; dup {
			t.warn("duplicate step id %s, keeping the first declaration", s.ID)
			continue
		}
		index[s.ID] = i
	}

	children := make([][]int, len(steps))
	var roots []int
	for i, s := range steps {
		if s.ParentID == nil {
			roots = append(roots, i)
			continue
		}
		parent, ok := index[*s.ParentID]
		switch {
		case !ok:
			t.warn("step %s references unknown parent %s", s.ID, *s.ParentID)
			roots = append(roots, i)
		case parent == i:
			t.warn("step %s is its own parent", s.ID)
			roots = append(roots, i)
		default:
			children[parent] = append(children[parent], i)
		}
	}

	if len(roots) == 0 {
		t.warn("no trigger step found, treating step %s as the trigger", steps[0].ID)
		roots = []int{0}
	}
	// a null-parent step outranks orphans declared before it
	for i, r := range roots {
		if steps[r].ParentID == nil {
			copy(roots[1:i+1], roots[:i])
			roots[0] = r
			break
		}
	}
	t.Root = roots[0]
	for _, extra := range roots[1:] {
		if steps[extra].ParentID == nil {
			t.warn("step %s is a second root, ordering from step %s", steps[extra].ID, steps[t.Root].ID)
		}
	}

	visited := make([]bool, len(steps))
	t.walk(t.Root, children, visited, true)
	for _, extra := range roots[1:] {
		if !visited[extra] {
			t.walk(extra, children, visited, false)
		}
	}

	for i := range steps {
		if !visited[i] {
			t.Unreachable = append(t.Unreachable, i)
		}
	}
	if len(t.Unreachable) > 0 {
		t.warn("%d step(s) are only reachable through a cycle", len(t.Unreachable))
	}

	for i, kids := range children {
		if visited[i] && len(kids) > 1 {
			t.FanOut++
		}
	}
	if len(steps) > maxSimpleSteps || t.FanOut > 1 {
		t.Warnings = append(t.Warnings, models.Warning{
			Code:    models.WarningHighComplexity,
			Message: fmt.Sprintf("%d steps, %d fan-out point(s)", len(steps), t.FanOut),
		})
	}

	return t
}

type frame struct {
	node  int
	depth int
}

// walk does an iterative preorder traversal, recording branches when record is set
func (t *Topology) walk(start int, children [][]int, visited []bool, record bool) {
	stack := []frame{{node: start}}
	var path []int

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[f.node] {
			continue
		}
		visited[f.node] = true
		t.Order = append(t.Order, f.node)

		path = append(path[:f.depth], f.node)

		var next []int
		for _, child := range children[f.node] {
			if !visited[child] {
				next = append(next, child)
			}
		}
		if len(next) == 0 {
			if record {
				branch := make([]int, len(path))
				copy(branch, path)
				t.Branches = append(t.Branches, branch)
				if len(branch) > t.Depth {
					t.Depth = len(branch)
				}
			}
			continue
		}
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: next[i], depth: f.depth + 1})
		}
	}
}

func (t *Topology) warn(format string, args ...any) {
	t.Warnings = append(t.Warnings, models.Warning{
		Code:    models.WarningUnusualPattern,
		Message: fmt.Sprintf(format, args...),
	})
}

// Unusual reports whether any structural anomaly was recorded
func (t *Topology) Unusual() bool {
	for _, w := range t.Warnings {
		if w.Code == models.WarningUnusualPattern {
			return true
		}
	}
	return false
}

// Apply returns a copy of the automation with the trigger role assigned to the root step
func (t *Topology) Apply(a models.Automation) models.Automation {
	steps := make([]models.Step, len(a.Steps))
	copy(steps, a.Steps)
	for i := range steps {
		steps[i].Role = models.RoleAction
	}
	if t.Root >= 0 && t.Root < len(steps) {
		steps[t.Root].Role = models.RoleTrigger
		steps[t.Root].Kind = models.KindTrigger
	}
	a.Steps = steps
	return a
}

// Chain returns the steps of a branch in order
func Chain(steps []models.Step, branch []int) []models.Step {
	out := make([]models.Step, len(branch))
	for i, idx := range branch {
		out[i] = steps[idx]
	}
	return out
}
