// Package socialnet holds the investor social network: a weighted
// undirected graph with trust-weighted edges, social-influence
// aggregation, performance-driven trust evolution, topology construction,
// and descriptive metrics.
package socialnet

import "sort"

// Graph is an undirected graph over nodes 0..n-1 with a scalar trust
// weight per edge. Neighbor and edge iteration is sorted, so every
// traversal is deterministic.
type Graph struct {
	n   int
	adj []map[int]float64
}

// Edge is one undirected edge with U < V.
type Edge struct {
	U, V   int
	Weight float64
}

// NewGraph creates an edgeless graph over n nodes.
func NewGraph(n int) *Graph {
	adj := make([]map[int]float64, n)
	for i := range adj {
		adj[i] = make(map[int]float64)
	}
	return &Graph{n: n, adj: adj}
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return g.n }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, nbrs := range g.adj {
		total += len(nbrs)
	}
	return total / 2
}

// AddEdge inserts or overwrites the edge (u, v) with the given weight.
// Self-loops are ignored.
func (g *Graph) AddEdge(u, v int, weight float64) {
	if u == v {
		return
	}
	g.adj[u][v] = weight
	g.adj[v][u] = weight
}

// RemoveEdge deletes the edge (u, v) if present.
func (g *Graph) RemoveEdge(u, v int) {
	delete(g.adj[u], v)
	delete(g.adj[v], u)
}

// HasEdge reports whether (u, v) is an edge.
func (g *Graph) HasEdge(u, v int) bool {
	_, ok := g.adj[u][v]
	return ok
}

// Weight returns the trust weight of edge (u, v), if present.
func (g *Graph) Weight(u, v int) (float64, bool) {
	w, ok := g.adj[u][v]
	return w, ok
}

// SetWeight updates the weight of an existing edge; no-op if absent.
func (g *Graph) SetWeight(u, v int, weight float64) {
	if _, ok := g.adj[u][v]; !ok {
		return
	}
	g.adj[u][v] = weight
	g.adj[v][u] = weight
}

// Degree returns the number of neighbors of u.
func (g *Graph) Degree(u int) int { return len(g.adj[u]) }

// Neighbors returns u's neighbors in ascending order.
func (g *Graph) Neighbors(u int) []int {
	nbrs := make([]int, 0, len(g.adj[u]))
	for v := range g.adj[u] {
		nbrs = append(nbrs, v)
	}
	sort.Ints(nbrs)
	return nbrs
}

// ReplaceEdges drops the entire edge set and installs the given edges.
// Used when restoring a graph from a snapshot.
func (g *Graph) ReplaceEdges(edges []Edge) {
	for i := range g.adj {
		g.adj[i] = make(map[int]float64)
	}
	for _, e := range edges {
		g.AddEdge(e.U, e.V, e.Weight)
	}
}

// Edges returns all edges with U < V, sorted by (U, V).
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.EdgeCount())
	for u, nbrs := range g.adj {
		for v, w := range nbrs {
			if u < v {
				edges = append(edges, Edge{U: u, V: v, Weight: w})
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].U != edges[j].U {
			return edges[i].U < edges[j].U
		}
		return edges[i].V < edges[j].V
	})
	return edges
}
