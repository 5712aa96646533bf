// Package dependency keeps track of which named cells depend on which.
//
// A pair (s, t) in the graph means "t depends on s": s is a dependee of t and
// t is a dependent of s. Both directions are indexed so that either side can
// be enumerated in time proportional to the answer.
package dependency

import (
	"sort"
)

// Pair is a single ordered dependency: Dependent depends on Dependee.
type Pair struct {
	Dependee  string
	Dependent string
}

// Graph is a bidirectional multimap of dependency pairs. the zero value is not
// usable, use New.
type Graph struct {
	dependents map[string]map[string]struct{} // s -> every t that depends on s
	dependees  map[string]map[string]struct{} // t -> every s that t depends on
	size       int
}

// New creates an empty dependency graph
func New() *Graph {
	return &Graph{
		dependents: make(map[string]map[string]struct{}),
		dependees:  make(map[string]map[string]struct{}),
	}
}

// Size returns the number of pairs in the graph
func (g *Graph) Size() int {
	return g.size
}

// Add records that t depends on s. adding an existing pair is a no-op.
func (g *Graph) Add(s, t string) {
	if _, exists := g.dependents[s][t]; exists {
		return
	}
	addTo(g.dependents, s, t)
	addTo(g.dependees, t, s)
	g.size++
}

// Remove deletes the pair (s, t) if present
func (g *Graph) Remove(s, t string) {
	if _, exists := g.dependents[s][t]; !exists {
		return
	}
	removeFrom(g.dependents, s, t)
	removeFrom(g.dependees, t, s)
	g.size--
}

// Dependents returns every t such that (s, t) is in the graph, sorted
func (g *Graph) Dependents(s string) []string {
	return sortedKeys(g.dependents[s])
}

// Dependees returns every s such that (s, t) is in the graph, sorted
func (g *Graph) Dependees(t string) []string {
	return sortedKeys(g.dependees[t])
}

// HasDependents reports whether anything depends on s
func (g *Graph) HasDependents(s string) bool {
	return len(g.dependents[s]) > 0
}

// HasDependees reports whether t depends on anything
func (g *Graph) HasDependees(t string) bool {
	return len(g.dependees[t]) > 0
}

// NumDependents returns how many cells depend on s
func (g *Graph) NumDependents(s string) int {
	return len(g.dependents[s])
}

// NumDependees returns how many cells t depends on
func (g *Graph) NumDependees(t string) int {
	return len(g.dependees[t])
}

// ReplaceDependents removes every pair (s, ·) and then adds (s, t) for each t
// in newDependents.
func (g *Graph) ReplaceDependents(s string, newDependents []string) {
	for t := range g.dependents[s] {
		g.Remove(s, t)
	}
	for _, t := range newDependents {
		g.Add(s, t)
	}
}

// ReplaceDependees removes every pair (·, t) and then adds (s, t) for each s
// in newDependees.
func (g *Graph) ReplaceDependees(t string, newDependees []string) {
	for s := range g.dependees[t] {
		g.Remove(s, t)
	}
	for _, s := range newDependees {
		g.Add(s, t)
	}
}

// Pairs returns every pair in the graph ordered by dependee, then dependent
func (g *Graph) Pairs() []Pair {
	pairs := make([]Pair, 0, g.size)
	for _, s := range sortedKeys(g.dependents) {
		for _, t := range sortedKeys(g.dependents[s]) {
			pairs = append(pairs, Pair{Dependee: s, Dependent: t})
		}
	}
	return pairs
}

func addTo(index map[string]map[string]struct{}, key, value string) {
	bucket, exists := index[key]
	if !exists {
		bucket = make(map[string]struct{})
		index[key] = bucket
	}
	bucket[value] = struct{}{}
}

// removeFrom drops value from the key's bucket. empty buckets are deleted so
// that the indexes never hold keys with no pairs.
func removeFrom(index map[string]map[string]struct{}, key, value string) {
	bucket, exists := index[key]
	if !exists {
		return
	}
	delete(bucket, value)
	if len(bucket) == 0 {
		delete(index, key)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return []string{}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
