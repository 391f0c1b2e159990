// Agentic loop contract — the Observe/Recall/Plan/Act/Reflect/Update cycle
// shared by all agent variants.
package agent

// recallDepth is how many recent episodes the default recall digests.
const recallDepth = 5

// Loop is the cognitive contract every agent variant implements. The
// compiler enforces completeness at construction: a variant missing an
// operation does not satisfy the interface and cannot be registered.
type Loop interface {
	Observe() Observation
	Plan(obs Observation, recalled string) Plan
	Act(plan Plan) Action
	Reflect(obs Observation, plan Plan, action Action, outcome Outcome) string
}

// Core supplies the concrete shared half of the agentic loop: recall over
// episodic memory and the single mutation path into it. Agent variants embed
// Core and implement the abstract operations of Loop themselves.
type Core struct {
	memory *Memory
}

// NewCore wires a bounded memory into the loop.
func NewCore(memoryCapacity int) Core {
	return Core{memory: NewMemory(memoryCapacity)}
}

// Memory exposes the agent's episodic memory for inspection.
func (c *Core) Memory() *Memory { return c.memory }

// Recall returns a deterministic textual digest of recent episodes. The
// observation parameter is accepted for symmetry with richer recall
// strategies; the default digest does not condition on it.
func (c *Core) Recall(Observation) string {
	return c.memory.Summarize(recallDepth)
}

// Update stores a completed decision episode. This is the sole way memory
// is mutated.
func (c *Core) Update(obs Observation, plan Plan, action Action, outcome Outcome, reflection string) {
	c.memory.Add(Episode{
		Tick:        obs.Tick,
		Observation: obs,
		Plan:        plan,
		Action:      action,
		Outcome:     outcome,
		Reflection:  reflection,
	})
}
