// Investor agents — heterogeneous traders combining price momentum, social
// pressure, and the advisory signal into discrete BUY/SELL/HOLD decisions.
package agent

import "fmt"

// Score weights for the three decision components.
const (
	momentumWeight = 0.3
	socialWeight   = 0.2
	advisoryWeight = 0.5

	// Discretization thresholds and confidence clamp.
	actionThreshold = 0.15
	minConfidence   = 0.05

	// Position sizing bounds: a single tick never commits more than half of
	// cash or half of held shares.
	baseSize = 0.1
	sizeSpan = 0.4
	maxSize  = 0.5
)

// DefaultInitialCash is the cash endowment investors start with.
const DefaultInitialCash = 10_000.0

// Investor is a market participant with a portfolio, a risk-aversion trait,
// and a full agentic loop. It participates in the decide, settle, and
// reflect phases; the market phase is global and does not involve it.
type Investor struct {
	Core

	id           int
	profile      string
	riskAversion float64

	// Portfolio: mutated only during settlement, only by this agent.
	cash   float64
	shares float64

	// Mark-to-market wealth at the end of the previous settlement, used for
	// incremental P&L.
	lastWealth float64

	env Env

	// Per-tick buffers carrying the episode across scheduler phases.
	lastObs  *Observation
	lastPlan *Plan
	pending  *Action
	outcome  *Outcome
}

// NewInvestor creates an investor bound to graph node id. riskAversion must
// lie in [0, 1]; values outside are clamped.
func NewInvestor(id int, env Env, profile string, riskAversion, initialCash float64, memoryCapacity int) *Investor {
	riskAversion = clamp(riskAversion, 0, 1)
	inv := &Investor{
		Core:         NewCore(memoryCapacity),
		id:           id,
		profile:      profile,
		riskAversion: riskAversion,
		cash:         initialCash,
		env:          env,
	}
	inv.lastWealth = inv.Wealth()
	return inv
}

// ID returns the investor's graph node identifier.
func (i *Investor) ID() int { return i.id }

// Profile returns the behavioural profile label.
func (i *Investor) Profile() string { return i.profile }

// RiskAversion returns the fixed risk-aversion trait in [0, 1].
func (i *Investor) RiskAversion() float64 { return i.riskAversion }

// Cash returns current uninvested cash.
func (i *Investor) Cash() float64 { return i.cash }

// Shares returns current holdings of the risky asset.
func (i *Investor) Shares() float64 { return i.shares }

// Wealth marks the portfolio to the current market price.
func (i *Investor) Wealth() float64 {
	return i.cash + i.shares*i.env.Price()
}

// Decide runs the forward half of the agentic loop and publishes the chosen
// action to the shared tick state.
func (i *Investor) Decide() {
	obs := i.Observe()
	recalled := i.Recall(obs)
	plan := i.Plan(obs, recalled)
	action := i.Act(plan)

	// Cache the episode for settlement and reflection.
	i.lastObs = &obs
	i.lastPlan = &plan
	i.pending = &action

	i.env.PublishAction(i.id, action.Kind)
}

// Observe snapshots market, network, and advisory state.
func (i *Investor) Observe() Observation {
	return Observation{
		Tick:            i.env.Tick(),
		Price:           i.env.Price(),
		LastReturn:      i.env.LastReturn(),
		NeighborSignals: i.env.NeighborSignals(i.id),
		AdvisorySignal:  i.env.AdvisorySignal(),
	}
}

// Plan maps the observation and recalled memory into a discrete trading
// intention. The score blends momentum, social pressure, and the advisory
// recommendation, then scales down with risk aversion.
func (i *Investor) Plan(obs Observation, recalled string) Plan {
	var momentum float64
	switch {
	case obs.LastReturn > 0:
		momentum = 1
	case obs.LastReturn < 0:
		momentum = -1
	}

	buyP := obs.NeighborSignals[Buy]
	sellP := obs.NeighborSignals[Sell]
	social := buyP - sellP

	var advisoryVal float64
	if plan, ok := i.env.AdvisoryPlan(); ok {
		switch plan.IntendedAction {
		case Buy:
			advisoryVal = 1
		case Sell:
			advisoryVal = -1
		}
	}

	score := momentumWeight*momentum + socialWeight*social + advisoryWeight*advisoryVal
	score *= 1 - i.riskAversion

	intended := Hold
	if score > actionThreshold {
		intended = Buy
	} else if score < -actionThreshold {
		intended = Sell
	}

	confidence := clamp(abs(score), minConfidence, 1)

	rationale := fmt.Sprintf(
		"momentum=%.2f, social=%.2f, advisory=%.2f, risk_aversion=%.2f, score=%.2f\nrecent_memory:\n%s",
		momentum, social, advisoryVal, i.riskAversion, score, recalled)

	return Plan{
		IntendedAction: intended,
		Confidence:     confidence,
		Rationale:      rationale,
		Meta: map[string]any{
			"score":         score,
			"momentum":      momentum,
			"social":        social,
			"advisory_val":  advisoryVal,
			"buy_pressure":  buyP,
			"sell_pressure": sellP,
		},
	}
}

// Act sizes the position. Base size grows with confidence within [0.1, 0.5]
// and is further attenuated by risk aversion.
func (i *Investor) Act(plan Plan) Action {
	size := baseSize + sizeSpan*plan.Confidence
	if size > maxSize {
		size = maxSize
	}
	size *= 1 - 0.5*i.riskAversion
	size = clamp(size, 0, maxSize)

	return Action{
		Kind:      plan.IntendedAction,
		Size:      size,
		Rationale: plan.Rationale,
	}
}

// Settle executes the pending action at the post-market-update price and
// records the realised outcome. No trade executes on HOLD or when the
// relevant balance is non-positive.
func (i *Investor) Settle() {
	if i.pending == nil {
		return
	}

	price := i.env.Price()
	a := *i.pending

	switch {
	case a.Kind == Buy && i.cash > 0 && a.Size > 0:
		spend := i.cash * a.Size
		i.cash -= spend
		i.shares += spend / price
	case a.Kind == Sell && i.shares > 0 && a.Size > 0:
		qty := i.shares * a.Size
		i.shares -= qty
		i.cash += qty * price
	}

	wealth := i.Wealth()
	i.outcome = &Outcome{
		Tick:      i.env.Tick(),
		PnL:       wealth - i.lastWealth,
		NewWealth: wealth,
		Price:     price,
	}
	i.lastWealth = wealth
}

// LastOutcome returns the outcome of the most recent settlement, if the
// settle phase has run this tick. The orchestrator harvests it between the
// settle and reflect phases; reflection clears it.
func (i *Investor) LastOutcome() (Outcome, bool) {
	if i.outcome == nil {
		return Outcome{}, false
	}
	return *i.outcome, true
}

// ReflectPhase closes the agentic loop: it produces a reflection, stores the
// completed episode, and clears the per-tick buffers. A partial cycle (any
// missing stage) is silently skipped to tolerate irregular drivers.
func (i *Investor) ReflectPhase() {
	if i.lastObs == nil || i.lastPlan == nil || i.pending == nil || i.outcome == nil {
		return
	}

	reflection := i.Reflect(*i.lastObs, *i.lastPlan, *i.pending, *i.outcome)
	i.Update(*i.lastObs, *i.lastPlan, *i.pending, *i.outcome, reflection)

	i.lastObs = nil
	i.lastPlan = nil
	i.pending = nil
	i.outcome = nil
}

// Reflect renders a short categorical judgement on the realised outcome.
func (i *Investor) Reflect(obs Observation, plan Plan, action Action, outcome Outcome) string {
	verdict := "BAD"
	if outcome.PnL >= 0 {
		verdict = "GOOD"
	}
	return fmt.Sprintf(
		"%s decision. pnl=%.2f. Action=%s, size=%.2f. Consider adjusting thresholds or position sizing under high volatility.",
		verdict, outcome.PnL, action.Kind, action.Size)
}

// RestorePortfolio overwrites portfolio state from a snapshot.
func (i *Investor) RestorePortfolio(cash, shares, lastWealth float64) {
	i.cash = cash
	i.shares = shares
	i.lastWealth = lastWealth
}

// LastWealth returns the wealth recorded at the end of the previous
// settlement, for snapshotting.
func (i *Investor) LastWealth() float64 { return i.lastWealth }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
