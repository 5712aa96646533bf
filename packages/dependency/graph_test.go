package dependency

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Empty(t *testing.T) {
	g := New()

	assert.Equal(t, 0, g.Size())
	assert.Empty(t, g.Dependents("a"))
	assert.Empty(t, g.Dependees("a"))
	assert.False(t, g.HasDependents("a"))
	assert.False(t, g.HasDependees("a"))
	assert.Equal(t, 0, g.NumDependees("a"))

	// removing from an empty graph is harmless
	g.Remove("a", "b")
	assert.Equal(t, 0, g.Size())
}

func TestGraph_AddRemove(t *testing.T) {
	g := New()
	g.Add("a", "b")
	g.Add("a", "c")
	g.Add("c", "b")
	g.Add("a", "b") // duplicate

	assert.Equal(t, 3, g.Size())
	assert.Equal(t, []string{"b", "c"}, g.Dependents("a"))
	assert.Equal(t, []string{"a", "c"}, g.Dependees("b"))
	assert.Equal(t, 2, g.NumDependees("b"))
	assert.Equal(t, 2, g.NumDependents("a"))
	assert.True(t, g.HasDependees("c"))
	assert.True(t, g.HasDependents("c"))

	g.Remove("a", "b")
	g.Remove("a", "b") // already gone
	assert.Equal(t, 2, g.Size())
	assert.Equal(t, []string{"c"}, g.Dependents("a"))
	assert.Equal(t, []string{"c"}, g.Dependees("b"))

	g.Remove("a", "c")
	g.Remove("c", "b")
	assert.Equal(t, 0, g.Size())
	assert.Empty(t, g.dependents, "no empty buckets should remain")
	assert.Empty(t, g.dependees, "no empty buckets should remain")
}

func TestGraph_SelfPair(t *testing.T) {
	g := New()
	g.Add("x", "x")

	assert.Equal(t, 1, g.Size())
	assert.Equal(t, []string{"x"}, g.Dependents("x"))
	assert.Equal(t, []string{"x"}, g.Dependees("x"))

	g.Remove("x", "x")
	assert.Equal(t, 0, g.Size())
}

func TestGraph_Replace(t *testing.T) {
	tests := []struct {
		name     string
		setup    []Pair
		replace  func(g *Graph)
		expected []Pair
	}{
		{
			name:  "replace dependents",
			setup: []Pair{{"x", "y"}, {"x", "z"}, {"a", "z"}},
			replace: func(g *Graph) {
				g.ReplaceDependents("x", []string{"q", "y"})
			},
			expected: []Pair{{"a", "z"}, {"x", "q"}, {"x", "y"}},
		},
		{
			name:  "replace dependees",
			setup: []Pair{{"x", "y"}, {"x", "z"}, {"a", "z"}},
			replace: func(g *Graph) {
				g.ReplaceDependees("z", []string{"b"})
			},
			expected: []Pair{{"b", "z"}, {"x", "y"}},
		},
		{
			name:  "replace with empty set clears",
			setup: []Pair{{"x", "y"}, {"w", "y"}},
			replace: func(g *Graph) {
				g.ReplaceDependees("y", nil)
			},
			expected: []Pair{},
		},
		{
			name:  "replace on unknown node only adds",
			setup: []Pair{{"x", "y"}},
			replace: func(g *Graph) {
				g.ReplaceDependents("new", []string{"y", "y"})
			},
			expected: []Pair{{"new", "y"}, {"x", "y"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for _, p := range tt.setup {
				g.Add(p.Dependee, p.Dependent)
			}
			tt.replace(g)
			assert.Equal(t, tt.expected, g.Pairs())
			assert.Equal(t, len(tt.expected), g.Size())
		})
	}
}

// TestGraph_Stress mirrors every operation against a naive model and checks
// that both indexes stay consistent with it.
func TestGraph_Stress(t *testing.T) {
	const size = 200
	rng := rand.New(rand.NewSource(42))
	names := make([]string, size)
	for i := range names {
		names[i] = fmt.Sprintf("n%d", i)
	}

	g := New()
	model := map[Pair]struct{}{}

	for i := 0; i < 20000; i++ {
		s := names[rng.Intn(size)]
		t2 := names[rng.Intn(size)]
		switch rng.Intn(4) {
		case 0, 1:
			g.Add(s, t2)
			model[Pair{s, t2}] = struct{}{}
		case 2:
			g.Remove(s, t2)
			delete(model, Pair{s, t2})
		case 3:
			replacement := []string{names[rng.Intn(size)], names[rng.Intn(size)]}
			g.ReplaceDependees(t2, replacement)
			for p := range model {
				if p.Dependent == t2 {
					delete(model, p)
				}
			}
			for _, r := range replacement {
				model[Pair{r, t2}] = struct{}{}
			}
		}
	}

	require.Equal(t, len(model), g.Size())
	for _, p := range g.Pairs() {
		_, ok := model[p]
		require.True(t, ok, "unexpected pair %v", p)
		assert.Contains(t, g.Dependees(p.Dependent), p.Dependee)
	}

	total := 0
	for _, s := range names {
		total += g.NumDependents(s)
	}
	assert.Equal(t, g.Size(), total)
}
