package spreadsheet

import (
	"fmt"
	"strings"
)

// visitState is the DFS colour of a cell
type visitState uint8

const (
	unvisited visitState = iota
	visiting
	visited
)

// dfsFrame is one entry of the explicit DFS stack
type dfsFrame struct {
	name string
	next []string
	i    int
}

// recalculationOrder returns name followed by every cell that transitively
// depends on it, each placed after all of its dependees. the graph is read
// as if name's dependees had already been replaced by newDependees, so a
// change that would close a cycle is rejected before anything is mutated.
func (s *Spreadsheet) recalculationOrder(name string, newDependees []string) ([]string, error) {
	dependents := s.overlayDependents(name, newDependees)

	state := map[string]visitState{name: visiting}
	stack := []dfsFrame{{name: name, next: dependents(name)}}
	postorder := make([]string, 0, len(stack[0].next)+1)

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.i == len(top.next) {
			state[top.name] = visited
			postorder = append(postorder, top.name)
			stack = stack[:len(stack)-1]
			continue
		}

		next := top.next[top.i]
		top.i++

		switch state[next] {
		case visited:
			continue
		case visiting:
			return nil, circularError(name, cyclePath(stack, next))
		}

		state[next] = visiting
		stack = append(stack, dfsFrame{name: next, next: dependents(next)})
	}

	// reverse postorder puts every cell after all of its dependees
	order := make([]string, len(postorder))
	for i, n := range postorder {
		order[len(postorder)-1-i] = n
	}
	return order, nil
}

// overlayDependents returns a dependents function over the current graph
// with the edges into name swapped for edges from newDependees
func (s *Spreadsheet) overlayDependents(name string, newDependees []string) func(string) []string {
	graph := s.storage.graph

	added := make(map[string]struct{}, len(newDependees))
	for _, d := range newDependees {
		added[d] = struct{}{}
	}
	removed := make(map[string]struct{})
	for _, d := range graph.Dependees(name) {
		if _, keep := added[d]; keep {
			delete(added, d)
			continue
		}
		removed[d] = struct{}{}
	}

	return func(n string) []string {
		deps := graph.Dependents(n)
		if _, ok := removed[n]; ok {
			out := deps[:0]
			for _, d := range deps {
				if d != name {
					out = append(out, d)
				}
			}
			return out
		}
		if _, ok := added[n]; ok {
			return append(deps, name)
		}
		return deps
	}
}

// cyclePath returns the cells on the active DFS path from the first
// occurrence of closing, ending with closing again
func cyclePath(stack []dfsFrame, closing string) []string {
	start := 0
	for i, f := range stack {
		if f.name == closing {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		path = append(path, f.name)
	}
	return append(path, closing)
}

func circularError(name string, cycle []string) *AppError {
	return &AppError{
		Code:    CircularDependency,
		Name:    name,
		Cycle:   cycle,
		Message: fmt.Sprintf("spreadsheet: circular dependency: %s", strings.Join(cycle, " -> ")),
	}
}
