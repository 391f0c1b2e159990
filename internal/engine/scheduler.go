// Package engine provides the staged tick scheduler and the model
// orchestrator that wires agents, market, and network together.
package engine

import "fmt"

// Phase is one of the four ordered stages of a tick.
type Phase int

const (
	PhaseDecide Phase = iota
	PhaseMarket
	PhaseSettle
	PhaseReflect
)

func (p Phase) String() string {
	switch p {
	case PhaseDecide:
		return "decide"
	case PhaseMarket:
		return "market"
	case PhaseSettle:
		return "settle"
	case PhaseReflect:
		return "reflect"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Phase capabilities. Which phases an agent participates in is resolved
// once, at registration, by interface satisfaction — never by runtime
// method probing.
type (
	// Decider participates in the decide phase.
	Decider interface{ Decide() }
	// Settler participates in the settle phase.
	Settler interface{ Settle() }
	// Reflector participates in the reflect phase.
	Reflector interface{ ReflectPhase() }
)

// StagedScheduler advances the simulation through four ordered phases per
// tick: decide, market, settle, reflect. Within each phase, agents run to
// completion in registration order — there is no concurrency, so market
// always observes a fully-published action map and settle always observes
// the updated price.
type StagedScheduler struct {
	deciders   []Decider
	settlers   []Settler
	reflectors []Reflector

	// marketHook fires exactly once per tick, during the market phase,
	// after every decider has run.
	marketHook func()
	// afterSettle fires once per tick after all settlers, letting the
	// orchestrator harvest outcomes before reflection clears them.
	afterSettle func()

	time int
}

// NewStagedScheduler creates an empty scheduler at time zero.
func NewStagedScheduler() *StagedScheduler {
	return &StagedScheduler{}
}

// Add registers an agent for every phase it is capable of. Registration
// order fixes iteration order within each phase. An entity participating in
// no phase is a construction error.
func (s *StagedScheduler) Add(a any) error {
	registered := false
	if d, ok := a.(Decider); ok {
		s.deciders = append(s.deciders, d)
		registered = true
	}
	if st, ok := a.(Settler); ok {
		s.settlers = append(s.settlers, st)
		registered = true
	}
	if r, ok := a.(Reflector); ok {
		s.reflectors = append(s.reflectors, r)
		registered = true
	}
	if !registered {
		return fmt.Errorf("scheduler: %T participates in no phase", a)
	}
	return nil
}

// SetMarketHook installs the single global market-phase hook.
func (s *StagedScheduler) SetMarketHook(fn func()) { s.marketHook = fn }

// SetAfterSettle installs the post-settle harvest hook.
func (s *StagedScheduler) SetAfterSettle(fn func()) { s.afterSettle = fn }

// Time returns the number of completed ticks.
func (s *StagedScheduler) Time() int { return s.time }

// SetTime overwrites the tick counter; used when resuming from a snapshot.
func (s *StagedScheduler) SetTime(t int) { s.time = t }

// Step runs one full tick. The phase order is fixed and unconditional; the
// tick counter increments only after reflect completes for all agents.
func (s *StagedScheduler) Step() {
	for _, d := range s.deciders {
		d.Decide()
	}

	if s.marketHook != nil {
		s.marketHook()
	}

	for _, st := range s.settlers {
		st.Settle()
	}
	if s.afterSettle != nil {
		s.afterSettle()
	}

	for _, r := range s.reflectors {
		r.ReflectPhase()
	}

	s.time++
}
