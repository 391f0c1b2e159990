// Package market implements the stochastic single-asset price environment:
// a geometric-Brownian-motion return process with linear order-flow impact.
package market

import (
	"math"
	"math/rand"
)

// ImpactCoefficient scales net order flow into the return impact term.
const ImpactCoefficient = 0.001

// Environment is the traded asset's price process. The shock stream is
// private and seeded, so the trajectory is fully determined by the seed and
// the sequence of order-flow inputs.
type Environment struct {
	price      float64
	mu         float64
	sigma      float64
	dt         float64
	lastReturn float64

	seed  int64
	draws int
	rng   *rand.Rand
}

// Params configures a market environment.
type Params struct {
	InitPrice float64
	Mu        float64
	Sigma     float64
	Dt        float64
	Seed      int64
}

// DefaultParams mirrors the baseline experimental configuration.
func DefaultParams(seed int64) Params {
	return Params{
		InitPrice: 100.0,
		Mu:        0.0002,
		Sigma:     0.01,
		Dt:        1.0,
		Seed:      seed,
	}
}

// New creates a market environment with its own deterministic shock stream.
func New(p Params) *Environment {
	if p.InitPrice <= 0 {
		p.InitPrice = 100.0
	}
	if p.Dt <= 0 {
		p.Dt = 1.0
	}
	return &Environment{
		price: p.InitPrice,
		mu:    p.Mu,
		sigma: p.Sigma,
		dt:    p.Dt,
		seed:  p.Seed,
		rng:   rand.New(rand.NewSource(p.Seed)),
	}
}

// Price returns the current price. Strictly positive by construction.
func (e *Environment) Price() float64 { return e.price }

// LastReturn returns the total log-return of the most recent step.
func (e *Environment) LastReturn() float64 { return e.lastReturn }

// Advance moves the price one step: a GBM return from the private shock
// stream plus a linear impact term from net order flow, applied
// exponentially so the price stays strictly positive.
func (e *Environment) Advance(netOrderFlow float64) {
	z := e.rng.NormFloat64()
	e.draws++

	gbm := (e.mu-0.5*e.sigma*e.sigma)*e.dt + e.sigma*math.Sqrt(e.dt)*z
	impact := ImpactCoefficient * netOrderFlow

	e.lastReturn = gbm + impact
	e.price *= math.Exp(e.lastReturn)
}

// State captures the environment for snapshotting. The shock stream
// position is stored as (seed, draws) so a restored environment resumes the
// exact same random sequence.
type State struct {
	Price      float64 `json:"price"`
	LastReturn float64 `json:"last_return"`
	Mu         float64 `json:"mu"`
	Sigma      float64 `json:"sigma"`
	Dt         float64 `json:"dt"`
	Seed       int64   `json:"seed"`
	Draws      int     `json:"draws"`
}

// Snapshot returns the serialisable environment state.
func (e *Environment) Snapshot() State {
	return State{
		Price:      e.price,
		LastReturn: e.lastReturn,
		Mu:         e.mu,
		Sigma:      e.sigma,
		Dt:         e.dt,
		Seed:       e.seed,
		Draws:      e.draws,
	}
}

// Restore rebuilds an environment from a snapshot, replaying the shock
// stream to its recorded position so the continuation is bit-identical.
func Restore(s State) *Environment {
	e := &Environment{
		price:      s.Price,
		mu:         s.Mu,
		sigma:      s.Sigma,
		dt:         s.Dt,
		lastReturn: s.LastReturn,
		seed:       s.Seed,
		draws:      s.Draws,
		rng:        rand.New(rand.NewSource(s.Seed)),
	}
	for i := 0; i < s.Draws; i++ {
		e.rng.NormFloat64()
	}
	return e
}
