// Social influence — trust-weighted aggregation of neighbor actions.
package socialnet

import "github.com/talgya/agentmarket/internal/agent"

// weightEpsilon guards the normalisation against zero-weight neighborhoods.
const weightEpsilon = 1e-12

// NeighborActionDistribution computes the trust-weighted distribution of a
// node's neighbors' last actions. A neighbor with no recorded action counts
// as HOLD. When the node has no neighbors (or all incident weights are
// zero) the all-zero distribution is returned rather than dividing by zero.
func NeighborActionDistribution(g *Graph, node int, lastActions map[int]agent.ActionKind) map[agent.ActionKind]float64 {
	totals := map[agent.ActionKind]float64{
		agent.Buy: 0, agent.Sell: 0, agent.Hold: 0,
	}
	var weightSum float64

	for _, nbr := range g.Neighbors(node) {
		w, ok := g.Weight(node, nbr)
		if !ok {
			w = 1.0
		}
		a, ok := lastActions[nbr]
		if !ok {
			a = agent.Hold
		}
		totals[a] += w
		weightSum += w
	}

	if weightSum <= weightEpsilon {
		return totals
	}
	for k, v := range totals {
		totals[k] = v / weightSum
	}
	return totals
}
