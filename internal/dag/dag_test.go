package dag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Empty(t, g.nodes)
	assert.Zero(t, g.Len())
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("a")
	assert.Equal(t, 1, g.Len())
	nodeA, ok := g.nodes["a"]
	require.True(t, ok)
	assert.Equal(t, "a", nodeA.id)
	assert.Equal(t, 0, nodeA.index)
	assert.NotNil(t, nodeA.deps)

	g.AddNode("a") // idempotent
	assert.Equal(t, 1, g.Len())

	g.AddNode("b")
	order, err := g.TopoSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		require.NoError(t, g.AddEdge("a", "b")) // b depends on a

		deps, err := g.Dependencies("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, deps)

		dependents, err := g.Dependents("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, dependents)
	})

	t.Run("duplicate edge is ignored", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("a", "b"))

		in, err := g.InDegree("b")
		require.NoError(t, err)
		assert.Equal(t, 1, in)
		dependents, _ := g.Dependents("a")
		assert.Len(t, dependents, 1)
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		err := g.AddEdge("dne", "a")
		assert.ErrorContains(t, err, "source node not found: dne")

		err = g.AddEdge("a", "dne")
		assert.ErrorContains(t, err, "destination node not found: dne")

		err = g.AddEdge("a", "a")
		assert.ErrorContains(t, err, "self-referential edge not allowed")
	})
}

func TestDependenciesAreInsertionOrdered(t *testing.T) {
	g := New()
	for _, id := range []string{"c", "a", "b", "z"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("b", "z"))
	require.NoError(t, g.AddEdge("c", "z"))
	require.NoError(t, g.AddEdge("a", "z"))

	deps, err := g.Dependencies("z")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, deps)

	_, err = g.Dependencies("missing")
	assert.Error(t, err)
	_, err = g.Dependents("missing")
	assert.Error(t, err)
	_, err = g.InDegree("missing")
	assert.Error(t, err)
}

func TestTopoSort(t *testing.T) {
	t.Run("empty graph", func(t *testing.T) {
		order, err := New().TopoSort()
		require.NoError(t, err)
		assert.Empty(t, order)
	})

	t.Run("independent nodes keep insertion order", func(t *testing.T) {
		g := New()
		for _, id := range []string{"x", "a", "m"} {
			g.AddNode(id)
		}
		order, err := g.TopoSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "a", "m"}, order)
	})

	t.Run("dependency declared later is scheduled first", func(t *testing.T) {
		g := New()
		g.AddNode("total")
		g.AddNode("sum")
		require.NoError(t, g.AddEdge("sum", "total"))

		order, err := g.TopoSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"sum", "total"}, order)
	})

	t.Run("fifo release", func(t *testing.T) {
		// a and b are roots; c depends on a; d depends on b.
		// Queue: a, b -> release c after a, d after b.
		g := New()
		for _, id := range []string{"c", "d", "a", "b"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("a", "c"))
		require.NoError(t, g.AddEdge("b", "d"))

		order, err := g.TopoSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d"}, order)
	})

	t.Run("diamond", func(t *testing.T) {
		g := New()
		for _, id := range []string{"top", "left", "right", "bottom"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("top", "left"))
		require.NoError(t, g.AddEdge("top", "right"))
		require.NoError(t, g.AddEdge("left", "bottom"))
		require.NoError(t, g.AddEdge("right", "bottom"))

		order, err := g.TopoSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"top", "left", "right", "bottom"}, order)
	})

	t.Run("cycle reports unresolved nodes", func(t *testing.T) {
		g := New()
		for _, id := range []string{"ok", "a", "b", "downstream"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "a"))
		require.NoError(t, g.AddEdge("b", "downstream"))

		order, err := g.TopoSort()
		assert.Nil(t, order)

		var cycleErr *CycleError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, []string{"a", "b", "downstream"}, cycleErr.Unresolved)
		assert.Equal(t, []string{"a", "b", "a"}, cycleErr.Cycle)
		assert.EqualError(t, err, "cycle detected: a -> b -> a")
	})
}

func TestTopoSort_Cycles(t *testing.T) {
	t.Run("no cycle", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		order, err := g.TopoSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("simple cycle", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("c", "a"))

		_, err := g.TopoSort()
		require.Error(t, err)
		assert.ErrorContains(t, err, "cycle detected")
		assert.EqualError(t, err, "cycle detected: a -> b -> c -> a")
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := New()
		// Component 1 (acyclic)
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))
		// Component 2 (cyclic)
		g.AddNode("x")
		g.AddNode("y")
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "x"))

		_, err := g.TopoSort()
		var cycleErr *CycleError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, []string{"x", "y", "x"}, cycleErr.Cycle)
		assert.Equal(t, []string{"x", "y"}, cycleErr.Unresolved)
	})
}
