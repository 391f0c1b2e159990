// Network evolution — performance-driven adaptation of trust weights and
// optional topology rewiring.
package socialnet

import "math/rand"

// Trust evolution defaults: multiplicative bounded reinforcement.
const (
	DefaultLearningRate = 0.05
	DefaultMinWeight    = 0.05
	DefaultMaxWeight    = 2.0
	DefaultRewireProb   = 0.01
)

// UpdateTrustWeights adapts every edge weight from the latest per-agent
// P&L. The signal on an edge is the mean of its endpoints' P&L (missing
// entries count as zero); the weight moves multiplicatively in the signal's
// direction and is clamped to [wMin, wMax], so well-performing
// neighborhoods gain influence without collapse or runaway dominance.
func UpdateTrustWeights(g *Graph, pnlByAgent map[int]float64, learningRate, wMin, wMax float64) {
	for _, e := range g.Edges() {
		signal := 0.5 * (pnlByAgent[e.U] + pnlByAgent[e.V])
		var direction float64
		if signal > 0 {
			direction = 1
		} else if signal < 0 {
			direction = -1
		}
		w := e.Weight * (1 + learningRate*direction)
		if w < wMin {
			w = wMin
		}
		if w > wMax {
			w = wMax
		}
		g.SetWeight(e.U, e.V, w)
	}
}

// RewireByPerformance structurally adapts the graph: for each node, with
// probability prob, drop its weakest edge and connect to the
// highest-scoring non-neighbor (ties break toward the lowest node id).
// No-op for nodes with no neighbors or no eligible candidates. Not invoked
// automatically each tick; callers opt in.
func RewireByPerformance(g *Graph, rng *rand.Rand, agentScore map[int]float64, prob float64) {
	n := g.NodeCount()
	for u := 0; u < n; u++ {
		if rng.Float64() > prob {
			continue
		}
		nbrs := g.Neighbors(u)
		if len(nbrs) == 0 {
			continue
		}

		// Weakest incident edge, first-encountered on ties.
		weakest := nbrs[0]
		weakestW, _ := g.Weight(u, weakest)
		for _, v := range nbrs[1:] {
			if w, _ := g.Weight(u, v); w < weakestW {
				weakest, weakestW = v, w
			}
		}
		g.RemoveEdge(u, weakest)

		// Highest-scoring non-neighbor, first-encountered on ties.
		best := -1
		var bestScore float64
		for v := 0; v < n; v++ {
			if v == u || g.HasEdge(u, v) {
				continue
			}
			if best == -1 || agentScore[v] > bestScore {
				best, bestScore = v, agentScore[v]
			}
		}
		if best == -1 {
			continue
		}
		g.AddEdge(u, best, initialWeight(rng))
	}
}
