package submit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NinjaCats/deadline-katana/internal/scene"
)

// GraphError describes why the dependency graph over the eligible output
// nodes cannot be put in submission order.
type GraphError struct {
	// Missing maps a node name to the dependency names it declares that
	// are not part of the submission set.
	Missing map[string][]string

	// Stuck lists the nodes left unordered once no progress was
	// possible. With Missing empty that means a dependency cycle.
	Stuck []string
}

func (e *GraphError) Error() string {
	if len(e.Missing) > 0 {
		names := make([]string, 0, len(e.Missing))
		for name := range e.Missing {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s -> %s", name, strings.Join(e.Missing[name], ", ")))
		}
		return "submit: dependencies outside the submission set: " + strings.Join(parts, "; ")
	}
	return "submit: dependency cycle among nodes: " + strings.Join(e.Stuck, ", ")
}

// Plan orders the eligible nodes so that every node appears after all of
// its dependencies. Among ready nodes the earliest declared one goes
// first, so repeated runs over the same scene submit in the same order.
// Unsatisfiable graphs come back as a *GraphError instead of an
// arbitrary partial order.
func Plan(nodes []scene.Node) ([]scene.Node, error) {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.Name] = i
	}

	missing := make(map[string][]string)
	indegree := make([]int, len(nodes))
	dependents := make(map[string][]int, len(nodes))
	for i, n := range nodes {
		for _, dep := range n.DependsOn {
			if _, ok := index[dep]; !ok {
				missing[n.Name] = append(missing[n.Name], dep)
				continue
			}
			indegree[i]++
			dependents[dep] = append(dependents[dep], i)
		}
	}
	if len(missing) > 0 {
		return nil, &GraphError{Missing: missing}
	}

	ordered := make([]scene.Node, 0, len(nodes))
	done := make([]bool, len(nodes))
	for len(ordered) < len(nodes) {
		next := -1
		for i := range nodes {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			var stuck []string
			for i, n := range nodes {
				if !done[i] {
					stuck = append(stuck, n.Name)
				}
			}
			return nil, &GraphError{Stuck: stuck}
		}
		done[next] = true
		ordered = append(ordered, nodes[next])
		for _, i := range dependents[nodes[next].Name] {
			indegree[i]--
		}
	}
	return ordered, nil
}
