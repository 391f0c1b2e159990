package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/agentmarket/internal/advisory"
)

type stubRecommender struct {
	rec advisory.Recommendation
	err error

	lastCtx advisory.Context
}

func (s *stubRecommender) Recommend(_ context.Context, rc advisory.Context) (advisory.Recommendation, error) {
	s.lastCtx = rc
	return s.rec, s.err
}

func TestAdvisorFallbackWithoutRecommender(t *testing.T) {
	env := newStubEnv()
	adv := NewAdvisor(99, env, nil, 10)

	adv.Decide()

	plan, ok := env.AdvisoryPlan()
	require.True(t, ok)
	assert.Equal(t, Hold, plan.IntendedAction)
	assert.Equal(t, 0.5, plan.Confidence)
	assert.Contains(t, plan.Rationale, "[FALLBACK] HOLD. Reason:")
	assert.Equal(t, "fallback", plan.Meta["source"])
}

func TestAdvisorFallbackOnServiceError(t *testing.T) {
	env := newStubEnv()
	rec := &stubRecommender{err: errors.New("service unavailable")}
	adv := NewAdvisor(99, env, rec, 10)

	adv.Decide()

	plan, ok := env.AdvisoryPlan()
	require.True(t, ok)
	assert.Equal(t, Hold, plan.IntendedAction)
	assert.Equal(t, "fallback", plan.Meta["source"])
	assert.Contains(t, plan.Rationale, "service unavailable")
}

func TestAdvisorPublishesServiceRecommendation(t *testing.T) {
	env := newStubEnv()
	env.price = 105
	env.lastReturn = 0.03
	rec := &stubRecommender{
		rec: advisory.Recommendation{Action: "SELL", Confidence: 0.9, Reasoning: "take profit"},
	}
	adv := NewAdvisor(99, env, rec, 10)

	adv.Decide()

	plan, ok := env.AdvisoryPlan()
	require.True(t, ok)
	assert.Equal(t, Sell, plan.IntendedAction)
	assert.Equal(t, 0.9, plan.Confidence)
	assert.Equal(t, "take profit", plan.Rationale)
	assert.Equal(t, "llm", plan.Meta["source"])

	// The service saw the observed market state.
	assert.Equal(t, 105.0, rec.lastCtx.Price)
	assert.Equal(t, 0.03, rec.lastCtx.LastReturn)
	assert.Equal(t, "No prior decisions.", rec.lastCtx.Memory)
}

func TestAdvisorNeverTrades(t *testing.T) {
	env := newStubEnv()
	adv := NewAdvisor(99, env, nil, 10)

	action := adv.Act(Plan{IntendedAction: Buy, Confidence: 1})
	assert.Zero(t, action.Size)
}

func TestAdvisorFullCycleStoresEpisode(t *testing.T) {
	env := newStubEnv()
	adv := NewAdvisor(99, env, nil, 10)

	adv.Decide()
	adv.Settle()
	adv.ReflectPhase()

	assert.Equal(t, 1, adv.Memory().Len())

	// A second reflect with no new cycle is a no-op.
	adv.ReflectPhase()
	assert.Equal(t, 1, adv.Memory().Len())
}

func TestAdvisorObservationHasNoSocialSignal(t *testing.T) {
	env := newStubEnv()
	env.signals = map[ActionKind]float64{Buy: 1, Sell: 0, Hold: 0}
	adv := NewAdvisor(99, env, nil, 10)

	obs := adv.Observe()
	assert.Zero(t, obs.NeighborSignals[Buy])
	assert.Zero(t, obs.NeighborSignals[Sell])
	assert.Zero(t, obs.NeighborSignals[Hold])
}
