// Model orchestration — wires agents, market, and social network into one
// staged simulation and records its time series.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/talgya/agentmarket/internal/advisory"
	"github.com/talgya/agentmarket/internal/agent"
	"github.com/talgya/agentmarket/internal/market"
	"github.com/talgya/agentmarket/internal/socialnet"
)

// AdvisorID keeps the advisory agent outside the investor id space, which
// is aligned 1:1 with graph nodes 0..n-1.
const AdvisorID = 10_000

// orderFlowBaseline is added to each investor's degree centrality when
// scaling its unit buy/sell impulse, so even peripheral agents move the
// price a little.
const orderFlowBaseline = 0.1

// Config parameterises a model run.
type Config struct {
	Seed           int64
	Investors      int
	InitialCash    float64
	MemoryCapacity int

	Market market.Params

	// AdvisoryTimeout bounds a single recommendation call; zero keeps the
	// advisory package default.
	AdvisoryTimeout time.Duration

	// Trust evolution.
	LearningRate float64
	MinTrust     float64
	MaxTrust     float64

	// RewireProb > 0 enables performance-driven rewiring after each tick's
	// trust update.
	RewireProb float64
}

// DefaultConfig returns the baseline experimental configuration.
func DefaultConfig(seed int64, investors int) Config {
	return Config{
		Seed:           seed,
		Investors:      investors,
		InitialCash:    agent.DefaultInitialCash,
		MemoryCapacity: agent.DefaultMemoryCapacity,
		Market:         market.DefaultParams(seed),
		LearningRate:   socialnet.DefaultLearningRate,
		MinTrust:       socialnet.DefaultMinWeight,
		MaxTrust:       socialnet.DefaultMaxWeight,
	}
}

// MetricsRecord is one per-tick row of the network-metrics history.
type MetricsRecord struct {
	Tick          int
	AvgDegree     float64
	AvgClustering float64
	Modularity    float64
}

// Model owns the shared simulation state: the social graph, the market
// environment, the per-tick action map, and the advisory signal. It
// implements agent.Env, so agents see only this narrow surface.
type Model struct {
	cfg     Config
	network *socialnet.Graph
	sched   *StagedScheduler
	market  *market.Environment

	investors []*agent.Investor
	advisor   *agent.Advisor

	// Shared tick state. lastActions has one slot per investor, overwritten
	// during each decide phase; actionSnapshot is the immutable per-tick
	// copy the market hook aggregates, so later mutations cannot leak into
	// order flow.
	lastActions    map[int]agent.ActionKind
	actionSnapshot map[int]agent.ActionKind
	advisorySignal string
	advisoryPlan   *agent.Plan

	// pnlByAgent is harvested between the settle and reflect phases, so
	// trust evolution never reads stale agent-held outcomes.
	pnlByAgent map[int]float64

	metrics        socialnet.Metrics
	priceHistory   []float64
	metricsHistory []MetricsRecord

	// rewireRNG is a subsystem-private stream: topology randomness must not
	// share a stream with market shocks or determinism breaks under
	// reconfiguration. The counted source lets snapshots capture the
	// stream position exactly.
	rewireSrc *countedSource
	rewireRNG *rand.Rand
}

// countedSource wraps a rand.Source and counts Int63 draws. All of
// rand.Rand's derived values funnel through Int63, so replaying the same
// number of draws restores the exact stream position.
type countedSource struct {
	src   rand.Source
	draws int
}

func newCountedSource(seed int64) *countedSource {
	return &countedSource{src: rand.NewSource(seed)}
}

func (c *countedSource) Int63() int64 {
	c.draws++
	return c.src.Int63()
}

func (c *countedSource) Seed(seed int64) {
	c.src = rand.NewSource(seed)
	c.draws = 0
}

func (c *countedSource) burn(draws int) {
	for i := 0; i < draws; i++ {
		c.src.Int63()
	}
	c.draws = draws
}

// New builds a model over an externally constructed social graph. The
// investor count exceeding the graph's node count is a fatal configuration
// error.
func New(g *socialnet.Graph, cfg Config, recommender advisory.Recommender) (*Model, error) {
	if cfg.Investors > g.NodeCount() {
		return nil, fmt.Errorf("model: %d investors exceed %d graph nodes", cfg.Investors, g.NodeCount())
	}
	if cfg.InitialCash <= 0 {
		cfg.InitialCash = agent.DefaultInitialCash
	}
	if cfg.MemoryCapacity <= 0 {
		cfg.MemoryCapacity = agent.DefaultMemoryCapacity
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = socialnet.DefaultLearningRate
	}
	if cfg.MinTrust <= 0 {
		cfg.MinTrust = socialnet.DefaultMinWeight
	}
	if cfg.MaxTrust <= 0 {
		cfg.MaxTrust = socialnet.DefaultMaxWeight
	}
	if cfg.Market.Seed == 0 {
		cfg.Market = market.DefaultParams(cfg.Seed)
	}

	m := &Model{
		cfg:         cfg,
		network:     g,
		sched:       NewStagedScheduler(),
		market:      market.New(cfg.Market),
		lastActions: make(map[int]agent.ActionKind, cfg.Investors),
		pnlByAgent:  make(map[int]float64, cfg.Investors),
		rewireSrc:   newCountedSource(cfg.Seed + 1),
	}
	m.rewireRNG = rand.New(m.rewireSrc)
	m.sched.SetMarketHook(m.marketGlobalUpdate)
	m.sched.SetAfterSettle(m.harvestOutcomes)

	// The advisor registers first so investors see a fresh recommendation
	// within the same tick's decide phase.
	m.advisor = agent.NewAdvisor(AdvisorID, m, recommender, cfg.MemoryCapacity)
	if cfg.AdvisoryTimeout > 0 {
		m.advisor.SetTimeout(cfg.AdvisoryTimeout)
	}
	if err := m.sched.Add(m.advisor); err != nil {
		return nil, err
	}

	for i := 0; i < cfg.Investors; i++ {
		profile, riskAversion := assignProfile(i)
		inv := agent.NewInvestor(i, m, profile, riskAversion, cfg.InitialCash, cfg.MemoryCapacity)
		if err := m.sched.Add(inv); err != nil {
			return nil, err
		}
		m.investors = append(m.investors, inv)
		m.lastActions[i] = agent.Hold
	}

	// Initial metrics and history row before any decisions.
	m.metrics = socialnet.ComputeMetrics(g)
	m.priceHistory = append(m.priceHistory, m.market.Price())
	m.metricsHistory = append(m.metricsHistory, m.metricsRecord())

	slog.Info("model initialised",
		"investors", cfg.Investors,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"seed", cfg.Seed,
	)
	return m, nil
}

// assignProfile gives each investor one of three stylised behavioural
// profiles by index.
func assignProfile(i int) (string, float64) {
	switch i % 3 {
	case 0:
		return "risk_averse", 0.8
	case 1:
		return "moderate", 0.5
	}
	return "speculative", 0.2
}

// Step advances the simulation by one full staged tick, evolves trust
// weights from the harvested P&L, and records the time series. Network
// evolution runs before metrics are recomputed so the cached metrics (and
// the centralities the next tick's order flow reads) always describe the
// current graph — a snapshot restore recomputes from that same graph and
// resumes identically.
func (m *Model) Step() {
	m.sched.Step()

	socialnet.UpdateTrustWeights(m.network, m.pnlByAgent, m.cfg.LearningRate, m.cfg.MinTrust, m.cfg.MaxTrust)
	if m.cfg.RewireProb > 0 {
		socialnet.RewireByPerformance(m.network, m.rewireRNG, m.pnlByAgent, m.cfg.RewireProb)
	}

	m.metrics = socialnet.ComputeMetrics(m.network)
	m.priceHistory = append(m.priceHistory, m.market.Price())
	m.metricsHistory = append(m.metricsHistory, m.metricsRecord())
}

// marketGlobalUpdate is the single market-phase hook: it freezes the action
// map published during decide, aggregates it into net order flow, and
// advances the price.
func (m *Model) marketGlobalUpdate() {
	m.actionSnapshot = make(map[int]agent.ActionKind, len(m.lastActions))
	for id, a := range m.lastActions {
		m.actionSnapshot[id] = a
	}
	m.market.Advance(m.netOrderFlow())
}

// netOrderFlow turns the frozen action snapshot into signed order flow,
// scaling each impulse by degree centrality so central agents move the
// price more.
func (m *Model) netOrderFlow() float64 {
	var flow float64
	for id, a := range m.actionSnapshot {
		w := m.metrics.DegreeCentrality[id] + orderFlowBaseline
		switch a {
		case agent.Buy:
			flow += w
		case agent.Sell:
			flow -= w
		}
	}
	return flow
}

// harvestOutcomes collects every investor's settle-phase outcome before the
// reflect phase clears it.
func (m *Model) harvestOutcomes() {
	for id := range m.pnlByAgent {
		delete(m.pnlByAgent, id)
	}
	for _, inv := range m.investors {
		if out, ok := inv.LastOutcome(); ok {
			m.pnlByAgent[inv.ID()] = out.PnL
		}
	}
}

func (m *Model) metricsRecord() MetricsRecord {
	return MetricsRecord{
		Tick:          m.sched.Time(),
		AvgDegree:     m.metrics.AvgDegree,
		AvgClustering: m.metrics.AvgClustering,
		Modularity:    m.metrics.Modularity,
	}
}

// ---- agent.Env ----

// Tick returns the current scheduler time.
func (m *Model) Tick() int { return m.sched.Time() }

// Price returns the current market price.
func (m *Model) Price() float64 { return m.market.Price() }

// LastReturn returns the latest total market return.
func (m *Model) LastReturn() float64 { return m.market.LastReturn() }

// NeighborSignals returns the trust-weighted distribution of an investor's
// neighbors' last actions.
func (m *Model) NeighborSignals(id int) map[agent.ActionKind]float64 {
	return socialnet.NeighborActionDistribution(m.network, id, m.lastActions)
}

// AdvisorySignal returns the latest advisory text, or "".
func (m *Model) AdvisorySignal() string { return m.advisorySignal }

// AdvisoryPlan returns the latest structured advisory plan, if any.
func (m *Model) AdvisoryPlan() (agent.Plan, bool) {
	if m.advisoryPlan == nil {
		return agent.Plan{}, false
	}
	return *m.advisoryPlan, true
}

// PublishAction records an investor's decided action in the shared action
// map.
func (m *Model) PublishAction(id int, kind agent.ActionKind) {
	m.lastActions[id] = kind
}

// PublishAdvisory records the advisory text and structured plan.
func (m *Model) PublishAdvisory(signal string, plan agent.Plan) {
	m.advisorySignal = signal
	m.advisoryPlan = &plan
}

// ---- driver read access ----

// Network returns the social graph (owned by the model; mutated only by
// network evolution between ticks).
func (m *Model) Network() *socialnet.Graph { return m.network }

// Investors returns the registered investor agents in id order.
func (m *Model) Investors() []*agent.Investor { return m.investors }

// Advisor returns the advisory agent.
func (m *Model) Advisor() *agent.Advisor { return m.advisor }

// Metrics returns the most recently computed network metrics.
func (m *Model) Metrics() socialnet.Metrics { return m.metrics }

// PriceHistory returns the recorded price series, including the initial
// price.
func (m *Model) PriceHistory() []float64 {
	out := make([]float64, len(m.priceHistory))
	copy(out, m.priceHistory)
	return out
}

// MetricsHistory returns the recorded per-tick network metrics rows.
func (m *Model) MetricsHistory() []MetricsRecord {
	out := make([]MetricsRecord, len(m.metricsHistory))
	copy(out, m.metricsHistory)
	return out
}

// LastActions returns a copy of the shared action map.
func (m *Model) LastActions() map[int]agent.ActionKind {
	out := make(map[int]agent.ActionKind, len(m.lastActions))
	for id, a := range m.lastActions {
		out[id] = a
	}
	return out
}

// ActionCounts tallies the current action map.
func (m *Model) ActionCounts() (buys, sells int) {
	for _, a := range m.lastActions {
		switch a {
		case agent.Buy:
			buys++
		case agent.Sell:
			sells++
		}
	}
	return buys, sells
}

// AdvisoryState summarises the latest advisory plan for reporting: action,
// confidence, and the plan's source tag ("llm" or "fallback").
func (m *Model) AdvisoryState() (action agent.ActionKind, confidence float64, source string, ok bool) {
	if m.advisoryPlan == nil {
		return agent.Hold, 0, "", false
	}
	source, _ = m.advisoryPlan.Meta["source"].(string)
	return m.advisoryPlan.IntendedAction, m.advisoryPlan.Confidence, source, true
}
