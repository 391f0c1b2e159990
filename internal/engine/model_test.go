package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/agentmarket/internal/advisory"
	"github.com/talgya/agentmarket/internal/agent"
	"github.com/talgya/agentmarket/internal/socialnet"
)

func buildModel(t *testing.T, seed int64, investors int) *Model {
	t.Helper()
	g, err := socialnet.BuildGraph(investors, socialnet.SmallWorld, seed, socialnet.TopologyParams{K: 4, P: 0.1})
	require.NoError(t, err)
	m, err := New(g, DefaultConfig(seed, investors), nil)
	require.NoError(t, err)
	return m
}

func TestModelRejectsTooManyInvestors(t *testing.T) {
	g, err := socialnet.BuildGraph(10, socialnet.ErdosRenyi, 1, socialnet.TopologyParams{})
	require.NoError(t, err)

	_, err = New(g, DefaultConfig(1, 11), nil)
	assert.Error(t, err)
}

func TestModelDeterministicTrajectory(t *testing.T) {
	a := buildModel(t, 42, 30)
	b := buildModel(t, 42, 30)

	for i := 0; i < 10; i++ {
		a.Step()
		b.Step()
	}

	assert.Equal(t, a.PriceHistory(), b.PriceHistory(), "same seed, bit-identical prices")
	assert.Equal(t, a.Network().Edges(), b.Network().Edges(), "same evolved trust weights")
	assert.Equal(t, a.LastActions(), b.LastActions())
}

func TestModelDifferentSeedsDiverge(t *testing.T) {
	a := buildModel(t, 1, 30)
	b := buildModel(t, 2, 30)

	for i := 0; i < 5; i++ {
		a.Step()
		b.Step()
	}
	assert.NotEqual(t, a.PriceHistory(), b.PriceHistory())
}

func TestModelOneActionPerInvestorPerTick(t *testing.T) {
	m := buildModel(t, 7, 30)
	m.Step()

	actions := m.LastActions()
	require.Len(t, actions, 30)
	for id, a := range actions {
		assert.True(t, a.Valid(), "investor %d has invalid action %q", id, a)
	}

	buys, sells := m.ActionCounts()
	assert.LessOrEqual(t, buys+sells, 30)
}

func TestModelAdvisoryFallbackState(t *testing.T) {
	m := buildModel(t, 42, 12)
	m.Step()

	action, confidence, source, ok := m.AdvisoryState()
	require.True(t, ok)
	assert.Equal(t, agent.Hold, action)
	assert.Equal(t, 0.5, confidence)
	assert.Equal(t, "fallback", source)
	assert.Contains(t, m.AdvisorySignal(), "[FALLBACK]")
}

func TestModelAdvisoryVisibleSameTick(t *testing.T) {
	m := buildModel(t, 42, 12)
	m.Step()

	// The advisor decides first, so every investor's stored episode must
	// have seen a non-empty advisory signal on the very first tick.
	for _, inv := range m.Investors() {
		ep, ok := inv.Memory().Last()
		require.True(t, ok, "investor %d stored no episode", inv.ID())
		assert.NotEmpty(t, ep.Observation.AdvisorySignal, "investor %d", inv.ID())
	}
}

type deadlineRecorder struct {
	deadline time.Time
	ok       bool
}

func (d *deadlineRecorder) Recommend(ctx context.Context, _ advisory.Context) (advisory.Recommendation, error) {
	d.deadline, d.ok = ctx.Deadline()
	return advisory.Recommendation{Action: "HOLD", Confidence: 0.5, Reasoning: "steady"}, nil
}

func TestModelAppliesConfiguredAdvisoryTimeout(t *testing.T) {
	g, err := socialnet.BuildGraph(12, socialnet.SmallWorld, 42, socialnet.TopologyParams{K: 4, P: 0.1})
	require.NoError(t, err)

	cfg := DefaultConfig(42, 12)
	cfg.AdvisoryTimeout = 3 * time.Second
	rec := &deadlineRecorder{}
	m, err := New(g, cfg, rec)
	require.NoError(t, err)

	before := time.Now()
	m.Step()

	require.True(t, rec.ok, "recommendation call carried no deadline")
	remaining := rec.deadline.Sub(before)
	assert.Greater(t, remaining, 2*time.Second)
	assert.LessOrEqual(t, remaining, 3*time.Second)
}

func TestModelHistoriesGrowPerTick(t *testing.T) {
	m := buildModel(t, 3, 12)
	require.Len(t, m.PriceHistory(), 1, "initial price recorded")

	for i := 0; i < 4; i++ {
		m.Step()
	}
	assert.Len(t, m.PriceHistory(), 5)
	assert.Len(t, m.MetricsHistory(), 5)
	assert.Equal(t, 4, m.Tick())
	assert.Equal(t, 4, m.MetricsHistory()[4].Tick)
}

func TestModelProfilesAssignedRoundRobin(t *testing.T) {
	m := buildModel(t, 1, 6)

	wantProfiles := []string{"risk_averse", "moderate", "speculative"}
	wantAversion := []float64{0.8, 0.5, 0.2}
	for i, inv := range m.Investors() {
		assert.Equal(t, wantProfiles[i%3], inv.Profile(), "investor %d", i)
		assert.Equal(t, wantAversion[i%3], inv.RiskAversion(), "investor %d", i)
	}
}

func TestModelTrustWeightsStayBounded(t *testing.T) {
	m := buildModel(t, 11, 30)
	for i := 0; i < 30; i++ {
		m.Step()
	}

	for _, e := range m.Network().Edges() {
		assert.GreaterOrEqual(t, e.Weight, socialnet.DefaultMinWeight)
		assert.LessOrEqual(t, e.Weight, socialnet.DefaultMaxWeight)
	}
}

func TestModelRewiringPreservesDeterminism(t *testing.T) {
	build := func() *Model {
		g, err := socialnet.BuildGraph(20, socialnet.ErdosRenyi, 5, socialnet.TopologyParams{P: 0.2})
		require.NoError(t, err)
		cfg := DefaultConfig(5, 20)
		cfg.RewireProb = 0.2
		m, err := New(g, cfg, nil)
		require.NoError(t, err)
		return m
	}

	a, b := build(), build()
	for i := 0; i < 15; i++ {
		a.Step()
		b.Step()
	}
	assert.Equal(t, a.Network().Edges(), b.Network().Edges())
	assert.Equal(t, a.PriceHistory(), b.PriceHistory())
}

func TestModelPortfoliosStayNonNegative(t *testing.T) {
	// Fractional sizing can never overdraw cash or short shares, and total
	// cash can only leave the system through purchases.
	m := buildModel(t, 13, 12)
	m.Step()

	var totalCash, totalShares float64
	for _, inv := range m.Investors() {
		totalCash += inv.Cash()
		totalShares += inv.Shares()
		assert.GreaterOrEqual(t, inv.Cash(), 0.0)
		assert.GreaterOrEqual(t, inv.Shares(), 0.0)
	}
	assert.LessOrEqual(t, totalCash, 12*agent.DefaultInitialCash+1e-6)
}
