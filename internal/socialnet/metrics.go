// Descriptive network metrics — centrality, clustering, community
// structure. Consumed read-only per tick by the orchestrator.
package socialnet

import (
	"math"
	"sort"
)

// labelPropagationSweeps bounds community detection; the sweep usually
// converges much earlier on graphs of this size.
const labelPropagationSweeps = 20

// Metrics aggregates descriptive statistics of the social graph.
type Metrics struct {
	Nodes               int
	Edges               int
	AvgDegree           float64
	AvgDegreeCentrality float64
	AvgClustering       float64
	Modularity          float64
	DegreeCentrality    map[int]float64
	Clustering          map[int]float64
	Communities         [][]int
}

// ComputeMetrics calculates degree centrality, weighted local clustering,
// deterministic community structure, and weighted modularity. All
// traversals are over sorted node and neighbor order, so repeated calls on
// an unchanged graph produce identical results.
func ComputeMetrics(g *Graph) Metrics {
	n := g.NodeCount()
	m := Metrics{
		Nodes:            n,
		Edges:            g.EdgeCount(),
		DegreeCentrality: make(map[int]float64, n),
		Clustering:       make(map[int]float64, n),
	}
	if n == 0 {
		return m
	}

	var degreeSum, centSum float64
	for u := 0; u < n; u++ {
		deg := float64(g.Degree(u))
		degreeSum += deg
		cent := 0.0
		if n > 1 {
			cent = deg / float64(n-1)
		}
		m.DegreeCentrality[u] = cent
		centSum += cent
	}
	m.AvgDegree = degreeSum / float64(n)
	m.AvgDegreeCentrality = centSum / float64(n)

	clusterSum := 0.0
	maxW := maxWeight(g)
	for u := 0; u < n; u++ {
		c := weightedClustering(g, u, maxW)
		m.Clustering[u] = c
		clusterSum += c
	}
	m.AvgClustering = clusterSum / float64(n)

	labels := propagateLabels(g)
	m.Communities = groupCommunities(labels)
	m.Modularity = modularity(g, labels)
	return m
}

func maxWeight(g *Graph) float64 {
	max := 0.0
	for _, e := range g.Edges() {
		if e.Weight > max {
			max = e.Weight
		}
	}
	if max == 0 {
		return 1
	}
	return max
}

// weightedClustering is the geometric-mean weighted clustering coefficient:
// triangle intensities are cube roots of normalised edge-weight products.
func weightedClustering(g *Graph, u int, maxW float64) float64 {
	nbrs := g.Neighbors(u)
	deg := len(nbrs)
	if deg < 2 {
		return 0
	}

	sum := 0.0
	for i := 0; i < deg; i++ {
		for j := i + 1; j < deg; j++ {
			v, w := nbrs[i], nbrs[j]
			wvw, ok := g.Weight(v, w)
			if !ok {
				continue
			}
			wuv, _ := g.Weight(u, v)
			wuw, _ := g.Weight(u, w)
			sum += math.Cbrt((wuv / maxW) * (wuw / maxW) * (wvw / maxW))
		}
	}
	// Each triangle is counted once per unordered neighbor pair; the
	// normaliser matches deg*(deg-1) with the factor 2 folded in.
	return 2 * sum / float64(deg*(deg-1))
}

// propagateLabels runs deterministic label propagation: ascending node
// sweeps, each node adopting the label with the largest incident trust
// weight, ties toward the smallest label.
func propagateLabels(g *Graph) []int {
	n := g.NodeCount()
	labels := make([]int, n)
	for u := range labels {
		labels[u] = u
	}

	for sweep := 0; sweep < labelPropagationSweeps; sweep++ {
		changed := false
		for u := 0; u < n; u++ {
			nbrs := g.Neighbors(u)
			if len(nbrs) == 0 {
				continue
			}
			weightByLabel := make(map[int]float64)
			for _, v := range nbrs {
				w, _ := g.Weight(u, v)
				weightByLabel[labels[v]] += w
			}
			best := labels[u]
			bestW := weightByLabel[best]
			candidates := make([]int, 0, len(weightByLabel))
			for l := range weightByLabel {
				candidates = append(candidates, l)
			}
			sort.Ints(candidates)
			for _, l := range candidates {
				if weightByLabel[l] > bestW {
					best, bestW = l, weightByLabel[l]
				}
			}
			if best != labels[u] {
				labels[u] = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return labels
}

func groupCommunities(labels []int) [][]int {
	byLabel := make(map[int][]int)
	for u, l := range labels {
		byLabel[l] = append(byLabel[l], u)
	}
	keys := make([]int, 0, len(byLabel))
	for l := range byLabel {
		keys = append(keys, l)
	}
	sort.Ints(keys)
	out := make([][]int, 0, len(keys))
	for _, l := range keys {
		out = append(out, byLabel[l])
	}
	return out
}

// modularity computes weighted Newman modularity for the given community
// assignment.
func modularity(g *Graph, labels []int) float64 {
	var totalW float64
	strength := make([]float64, g.NodeCount())
	for _, e := range g.Edges() {
		totalW += e.Weight
		strength[e.U] += e.Weight
		strength[e.V] += e.Weight
	}
	if totalW == 0 {
		return 0
	}

	twoM := 2 * totalW
	var q float64
	for _, e := range g.Edges() {
		if labels[e.U] == labels[e.V] {
			q += e.Weight / totalW
		}
	}
	// Expected within-community weight under the configuration model.
	strengthByLabel := make(map[int]float64)
	for u, l := range labels {
		strengthByLabel[l] += strength[u]
	}
	for _, s := range strengthByLabel {
		q -= (s / twoM) * (s / twoM)
	}
	return q
}
