package socialnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle(w float64) *Graph {
	g := NewGraph(3)
	g.AddEdge(0, 1, w)
	g.AddEdge(1, 2, w)
	g.AddEdge(0, 2, w)
	return g
}

func TestComputeMetricsTriangle(t *testing.T) {
	m := ComputeMetrics(triangle(0.5))

	assert.Equal(t, 3, m.Nodes)
	assert.Equal(t, 3, m.Edges)
	assert.InDelta(t, 2.0, m.AvgDegree, 1e-9)
	assert.InDelta(t, 1.0, m.AvgDegreeCentrality, 1e-9) // deg/(n-1) = 2/2

	// Equal-weight triangle: every normalised triangle intensity is 1.
	for u := 0; u < 3; u++ {
		assert.InDelta(t, 1.0, m.Clustering[u], 1e-9, "node %d", u)
	}
	assert.InDelta(t, 1.0, m.AvgClustering, 1e-9)

	// Everything in one community: modularity collapses to zero.
	require.Len(t, m.Communities, 1)
	assert.ElementsMatch(t, []int{0, 1, 2}, m.Communities[0])
	assert.InDelta(t, 0.0, m.Modularity, 1e-9)
}

func TestComputeMetricsPath(t *testing.T) {
	g := NewGraph(3)
	g.AddEdge(0, 1, 1.0)
	g.AddEdge(1, 2, 1.0)

	m := ComputeMetrics(g)
	assert.InDelta(t, 0.0, m.Clustering[1], 1e-9, "open triple has no triangles")
	assert.InDelta(t, 0.0, m.Clustering[0], 1e-9, "degree-1 node")
}

func TestComputeMetricsTwoCliques(t *testing.T) {
	// Two triangles joined by one weak bridge: two communities, positive
	// modularity.
	g := NewGraph(6)
	for _, e := range [][2]int{{0, 1}, {1, 2}, {0, 2}, {3, 4}, {4, 5}, {3, 5}} {
		g.AddEdge(e[0], e[1], 1.0)
	}
	g.AddEdge(2, 3, 0.1)

	m := ComputeMetrics(g)
	require.Len(t, m.Communities, 2)
	assert.ElementsMatch(t, []int{0, 1, 2}, m.Communities[0])
	assert.ElementsMatch(t, []int{3, 4, 5}, m.Communities[1])
	assert.Positive(t, m.Modularity)
}

func TestComputeMetricsEmptyGraph(t *testing.T) {
	m := ComputeMetrics(NewGraph(0))
	assert.Zero(t, m.Nodes)
	assert.Zero(t, m.Edges)

	m = ComputeMetrics(NewGraph(3))
	assert.Zero(t, m.AvgDegree)
	assert.Zero(t, m.Modularity)
	assert.Len(t, m.Communities, 3, "every node its own community")
}

func TestComputeMetricsDeterministic(t *testing.T) {
	g, err := BuildGraph(30, SmallWorld, 5, TopologyParams{K: 4, P: 0.1})
	require.NoError(t, err)

	a := ComputeMetrics(g)
	b := ComputeMetrics(g)
	assert.Equal(t, a, b)
}
