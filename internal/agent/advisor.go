// Advisory agent — publishes market recommendations for investors to
// consume. It delegates plan generation to an injected recommendation
// service and never trades itself.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/agentmarket/internal/advisory"
)

// Advisor observes market-only state, asks the recommendation service for a
// structured plan, and publishes both the raw text signal and the plan to
// the shared tick state. On any service failure it substitutes a
// deterministic neutral fallback so the tick is never blocked.
type Advisor struct {
	Core

	id          int
	env         Env
	recommender advisory.Recommender
	timeout     time.Duration

	lastObs   *Observation
	lastPlan  *Plan
	published *Action
	outcome   *Outcome
}

// NewAdvisor creates the advisory agent. recommender may be nil, in which
// case every plan is the fallback.
func NewAdvisor(id int, env Env, recommender advisory.Recommender, memoryCapacity int) *Advisor {
	return &Advisor{
		Core:        NewCore(memoryCapacity),
		id:          id,
		env:         env,
		recommender: recommender,
		timeout:     advisory.DefaultTimeout,
	}
}

// ID returns the advisor's agent identifier.
func (a *Advisor) ID() int { return a.id }

// Decide runs the forward half of the agentic loop and publishes the
// recommendation.
func (a *Advisor) Decide() {
	obs := a.Observe()
	recalled := a.Recall(obs)
	plan := a.Plan(obs, recalled)
	action := a.Act(plan)
	a.published = &action
}

// Observe snapshots market-only state. Social signals are forced to zero:
// the advisor is not embedded in the investor network.
func (a *Advisor) Observe() Observation {
	return Observation{
		Tick:       a.env.Tick(),
		Price:      a.env.Price(),
		LastReturn: a.env.LastReturn(),
		NeighborSignals: map[ActionKind]float64{
			Buy: 0, Sell: 0, Hold: 0,
		},
	}
}

// Plan asks the recommendation service for a structured plan, falling back
// to a neutral HOLD on any failure.
func (a *Advisor) Plan(obs Observation, recalled string) Plan {
	plan := a.recommendedPlan(obs, recalled)
	a.lastObs = &obs
	a.lastPlan = &plan
	return plan
}

func (a *Advisor) recommendedPlan(obs Observation, recalled string) Plan {
	if a.recommender == nil {
		return fallbackPlan(fmt.Errorf("no recommendation service configured"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	rec, err := a.recommender.Recommend(ctx, advisory.Context{
		Price:      obs.Price,
		LastReturn: obs.LastReturn,
		Memory:     recalled,
	})
	if err != nil {
		slog.Debug("advisory recommendation failed, using fallback", "error", err)
		return fallbackPlan(err)
	}

	return Plan{
		IntendedAction: ActionKind(rec.Action),
		Confidence:     rec.Confidence,
		Rationale:      rec.Reasoning,
		Meta:           map[string]any{"source": "llm"},
	}
}

// fallbackPlan is the deterministic neutral plan substituted on any
// recommendation failure.
func fallbackPlan(err error) Plan {
	return Plan{
		IntendedAction: Hold,
		Confidence:     0.5,
		Rationale:      fmt.Sprintf("[FALLBACK] HOLD. Reason: %v", err),
		Meta:           map[string]any{"source": "fallback"},
	}
}

// Act publishes the recommendation to the shared tick state. The advisor
// never trades, so size is always zero.
func (a *Advisor) Act(plan Plan) Action {
	a.env.PublishAdvisory(plan.Rationale, plan)
	return Action{Kind: plan.IntendedAction, Size: 0, Rationale: plan.Rationale}
}

// Settle closes the loop with a zero-value outcome; the advisor holds no
// portfolio.
func (a *Advisor) Settle() {
	a.outcome = &Outcome{
		Tick:  a.env.Tick(),
		Price: a.env.Price(),
	}
}

// ReflectPhase stores the completed episode and clears the per-tick
// buffers. Partial cycles are silently skipped.
func (a *Advisor) ReflectPhase() {
	if a.lastObs == nil || a.lastPlan == nil || a.published == nil || a.outcome == nil {
		return
	}

	reflection := a.Reflect(*a.lastObs, *a.lastPlan, *a.published, *a.outcome)
	a.Update(*a.lastObs, *a.lastPlan, *a.published, *a.outcome, reflection)

	a.lastObs = nil
	a.lastPlan = nil
	a.published = nil
	a.outcome = nil
}

// Reflect notes that the advisory cycle completed.
func (a *Advisor) Reflect(Observation, Plan, Action, Outcome) string {
	return "Delivered advisory recommendation (service if available; fallback otherwise)."
}

// SetTimeout overrides the per-call recommendation timeout.
func (a *Advisor) SetTimeout(d time.Duration) { a.timeout = d }

// Interface conformance for both agent variants.
var (
	_ Loop = (*Investor)(nil)
	_ Loop = (*Advisor)(nil)
)
