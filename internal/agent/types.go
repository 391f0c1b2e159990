// Package agent defines the data model and decision logic for market agents:
// the agentic loop contract, episodic memory, heterogeneous investors, and
// the non-trading advisory agent.
package agent

// ActionKind is a discrete trading action. BUY, SELL, and HOLD are the only
// permitted values.
type ActionKind string

const (
	Buy  ActionKind = "BUY"
	Sell ActionKind = "SELL"
	Hold ActionKind = "HOLD"
)

// Valid reports whether k is one of the three permitted actions.
func (k ActionKind) Valid() bool {
	return k == Buy || k == Sell || k == Hold
}

// Observation is an immutable snapshot of everything an agent can see at
// decision time. NeighborSignals is a trust-weighted distribution over
// neighbor actions; it is all-zero when the agent has no weighted neighbors.
type Observation struct {
	Tick            int
	Price           float64
	LastReturn      float64
	NeighborSignals map[ActionKind]float64
	AdvisorySignal  string // empty when no advisory text has been published
}

// Plan is an agent's intended action with confidence and diagnostics.
type Plan struct {
	IntendedAction ActionKind
	Confidence     float64
	Rationale      string
	Meta           map[string]any
}

// Action is the executable form of a plan. Size is the fraction of cash
// (BUY) or holdings (SELL) to commit, in [0, 1].
type Action struct {
	Kind      ActionKind
	Size      float64
	Rationale string
}

// Outcome is the realised financial result of a settled action. NewWealth is
// mark-to-market: cash plus shares valued at the settlement price.
type Outcome struct {
	Tick      int
	PnL       float64
	NewWealth float64
	Price     float64
}

// Episode is one complete recorded decision cycle. Episodes are append-only:
// once stored in memory they are never mutated.
type Episode struct {
	Tick        int
	Observation Observation
	Plan        Plan
	Action      Action
	Outcome     Outcome
	Reflection  string
	Tags        []string
}
