package agent

// Env is the narrow view of the simulation an agent works against during
// its scheduler phases. The orchestrator implements it; agents never hold a
// reference to the orchestrator itself.
type Env interface {
	// Tick returns the current scheduler time.
	Tick() int
	// Price returns the current market price.
	Price() float64
	// LastReturn returns the most recent total market return.
	LastReturn() float64
	// NeighborSignals returns the trust-weighted distribution of an
	// investor's neighbors' last actions.
	NeighborSignals(id int) map[ActionKind]float64
	// AdvisorySignal returns the latest advisory text, or "" if none.
	AdvisorySignal() string
	// AdvisoryPlan returns the latest structured advisory plan, if any.
	AdvisoryPlan() (Plan, bool)
	// PublishAction records an investor's decided action in the shared
	// per-tick action state.
	PublishAction(id int, kind ActionKind)
	// PublishAdvisory records the advisory agent's text signal and
	// structured plan in the shared per-tick state.
	PublishAdvisory(signal string, plan Plan)
}
