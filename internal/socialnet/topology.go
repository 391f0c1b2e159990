// Topology construction — seeded generators for the investor network.
package socialnet

import (
	"fmt"
	"math/rand"
)

// Kind names a supported network topology.
type Kind string

const (
	ErdosRenyi Kind = "erdos_renyi"
	SmallWorld Kind = "small_world"
	ScaleFree  Kind = "scale_free"
	Community  Kind = "community"
)

// TopologyParams tunes the generators. Zero values fall back to the
// baseline experimental configuration.
type TopologyParams struct {
	P           float64 // edge probability / rewiring probability
	K           int     // ring neighbors in the small-world graph (even)
	M           int     // edges per new node in the scale-free graph
	Communities int     // blocks in the community graph
}

// Trust weights are initialised uniformly in [minInitWeight, maxInitWeight).
const (
	minInitWeight = 0.2
	maxInitWeight = 1.0
)

func initialWeight(rng *rand.Rand) float64 {
	return minInitWeight + rng.Float64()*(maxInitWeight-minInitWeight)
}

// BuildGraph constructs a social graph of the given kind, deterministically
// from the seed. The result has no isolated nodes (every investor needs at
// least one neighbor) and every edge carries an initial trust weight in
// [0.2, 1.0). Unknown kinds and infeasible parameters are construction
// errors.
func BuildGraph(n int, kind Kind, seed int64, p TopologyParams) (*Graph, error) {
	if n < 2 {
		return nil, fmt.Errorf("build graph: need at least 2 nodes, got %d", n)
	}
	if p.P == 0 {
		p.P = 0.05
	}
	if p.K == 0 {
		p.K = 4
	}
	if p.M == 0 {
		p.M = 2
	}
	if p.Communities == 0 {
		p.Communities = 4
	}

	rng := rand.New(rand.NewSource(seed))

	var g *Graph
	var err error
	switch kind {
	case ErdosRenyi:
		g = erdosRenyi(n, p.P, rng)
	case SmallWorld:
		g, err = wattsStrogatz(n, p.K, p.P, rng)
	case ScaleFree:
		g, err = barabasiAlbert(n, p.M, rng)
	case Community:
		g = blockModel(n, p.Communities, p.P, rng)
	default:
		return nil, fmt.Errorf("unknown topology %q", kind)
	}
	if err != nil {
		return nil, err
	}

	// Minimum connectivity: attach any isolated node to a random other node.
	for u := 0; u < n; u++ {
		if g.Degree(u) > 0 {
			continue
		}
		v := rng.Intn(n - 1)
		if v >= u {
			v++
		}
		g.AddEdge(u, v, 0)
	}

	// Initialise all trust weights from the same seeded stream.
	for _, e := range g.Edges() {
		g.SetWeight(e.U, e.V, initialWeight(rng))
	}
	return g, nil
}

// erdosRenyi links each node pair independently with probability p.
func erdosRenyi(n int, p float64, rng *rand.Rand) *Graph {
	g := NewGraph(n)
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			if rng.Float64() < p {
				g.AddEdge(u, v, 0)
			}
		}
	}
	return g
}

// wattsStrogatz builds a ring lattice with k neighbors per node and rewires
// each lattice edge with probability p.
func wattsStrogatz(n, k int, p float64, rng *rand.Rand) (*Graph, error) {
	if k%2 != 0 {
		return nil, fmt.Errorf("small world: k=%d must be even", k)
	}
	if k >= n {
		return nil, fmt.Errorf("small world: k=%d must be less than n=%d", k, n)
	}

	g := NewGraph(n)
	for u := 0; u < n; u++ {
		for j := 1; j <= k/2; j++ {
			g.AddEdge(u, (u+j)%n, 0)
		}
	}

	for j := 1; j <= k/2; j++ {
		for u := 0; u < n; u++ {
			if rng.Float64() >= p {
				continue
			}
			v := (u + j) % n
			w := rng.Intn(n)
			// Skip rewires that would create self-loops or duplicates.
			if w == u || g.HasEdge(u, w) {
				continue
			}
			g.RemoveEdge(u, v)
			g.AddEdge(u, w, 0)
		}
	}
	return g, nil
}

// barabasiAlbert grows a preferential-attachment graph: each new node
// attaches to m existing nodes with probability proportional to degree.
func barabasiAlbert(n, m int, rng *rand.Rand) (*Graph, error) {
	if m < 1 || m >= n {
		return nil, fmt.Errorf("scale free: m=%d must satisfy 1 <= m < n=%d", m, n)
	}

	g := NewGraph(n)

	// repeated holds one entry per edge endpoint, so uniform sampling from
	// it is degree-proportional sampling.
	var repeated []int
	targets := make([]int, m)
	for i := 0; i < m; i++ {
		targets[i] = i
	}

	for u := m; u < n; u++ {
		for _, v := range targets {
			g.AddEdge(u, v, 0)
			repeated = append(repeated, u, v)
		}

		// Choose m distinct targets for the next node.
		chosen := make(map[int]bool, m)
		for len(chosen) < m {
			v := repeated[rng.Intn(len(repeated))]
			chosen[v] = true
		}
		targets = targets[:0]
		for v := 0; v < n && len(targets) < m; v++ {
			if chosen[v] {
				targets = append(targets, v)
			}
		}
	}
	return g, nil
}

// blockModel builds a stochastic block model with denser intra-community
// connectivity.
func blockModel(n, communities int, p float64, rng *rand.Rand) *Graph {
	pin := 0.35
	pout := p
	if pout < 0.02 {
		pout = 0.02
	}

	// Community sizes: n/communities each, remainder folded into the first.
	base := n / communities
	community := make([]int, n)
	idx := 0
	for c := 0; c < communities; c++ {
		size := base
		if c == 0 {
			size += n - base*communities
		}
		for i := 0; i < size; i++ {
			community[idx] = c
			idx++
		}
	}

	g := NewGraph(n)
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			prob := pout
			if community[u] == community[v] {
				prob = pin
			}
			if rng.Float64() < prob {
				g.AddEdge(u, v, 0)
			}
		}
	}
	return g
}
