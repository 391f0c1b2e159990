// Snapshots — serialisable mid-run state for save/resume. Restoring a
// snapshot and continuing reproduces the original trajectory exactly,
// because the market's shock-stream position is captured alongside prices
// and portfolios.
package engine

import (
	"fmt"

	"github.com/talgya/agentmarket/internal/agent"
	"github.com/talgya/agentmarket/internal/market"
	"github.com/talgya/agentmarket/internal/socialnet"
)

// PortfolioState is one investor's snapshot row.
type PortfolioState struct {
	Cash       float64 `json:"cash"`
	Shares     float64 `json:"shares"`
	LastWealth float64 `json:"last_wealth"`
}

// Snapshot captures everything needed to resume a run: tick, market state,
// shared tick state, portfolios, and the evolved trust weights.
type Snapshot struct {
	Tick           int                      `json:"tick"`
	Market         market.State             `json:"market"`
	LastActions    map[int]agent.ActionKind `json:"last_actions"`
	AdvisorySignal string                   `json:"advisory_signal"`
	AdvisoryPlan   *agent.Plan              `json:"advisory_plan,omitempty"`
	Portfolios     map[int]PortfolioState   `json:"portfolios"`
	Edges          []socialnet.Edge         `json:"edges"`
	RewireDraws    int                      `json:"rewire_draws"`
}

// Snapshot captures the model's current state. Call it between ticks only;
// mid-phase state (pending actions, unharvested outcomes) is deliberately
// not captured.
func (m *Model) Snapshot() Snapshot {
	s := Snapshot{
		Tick:           m.sched.Time(),
		Market:         m.market.Snapshot(),
		LastActions:    m.LastActions(),
		AdvisorySignal: m.advisorySignal,
		Portfolios:     make(map[int]PortfolioState, len(m.investors)),
		Edges:          m.network.Edges(),
		RewireDraws:    m.rewireSrc.draws,
	}
	if m.advisoryPlan != nil {
		plan := *m.advisoryPlan
		s.AdvisoryPlan = &plan
	}
	for _, inv := range m.investors {
		s.Portfolios[inv.ID()] = PortfolioState{
			Cash:       inv.Cash(),
			Shares:     inv.Shares(),
			LastWealth: inv.LastWealth(),
		}
	}
	return s
}

// RestoreSnapshot overwrites the model's state from a snapshot taken on a
// model with the same configuration. History buffers restart from the
// restored price.
func (m *Model) RestoreSnapshot(s Snapshot) error {
	if len(s.Portfolios) != len(m.investors) {
		return fmt.Errorf("restore: snapshot has %d portfolios, model has %d investors",
			len(s.Portfolios), len(m.investors))
	}

	m.market = market.Restore(s.Market)
	m.sched.SetTime(s.Tick)

	m.lastActions = make(map[int]agent.ActionKind, len(s.LastActions))
	for id, a := range s.LastActions {
		m.lastActions[id] = a
	}
	m.advisorySignal = s.AdvisorySignal
	m.advisoryPlan = nil
	if s.AdvisoryPlan != nil {
		plan := *s.AdvisoryPlan
		m.advisoryPlan = &plan
	}

	for _, inv := range m.investors {
		p, ok := s.Portfolios[inv.ID()]
		if !ok {
			return fmt.Errorf("restore: no portfolio for investor %d", inv.ID())
		}
		inv.RestorePortfolio(p.Cash, p.Shares, p.LastWealth)
	}

	m.rewireSrc.Seed(m.cfg.Seed + 1)
	m.rewireSrc.burn(s.RewireDraws)

	m.network.ReplaceEdges(s.Edges)
	m.metrics = socialnet.ComputeMetrics(m.network)
	m.priceHistory = []float64{m.market.Price()}
	m.metricsHistory = []MetricsRecord{m.metricsRecord()}
	return nil
}
