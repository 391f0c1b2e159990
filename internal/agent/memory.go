// Episodic memory — a bounded FIFO of decision episodes per agent.
package agent

import (
	"fmt"
	"strings"
)

// DefaultMemoryCapacity bounds how many episodes an agent retains.
const DefaultMemoryCapacity = 50

// noPriorDecisions is the recall sentinel for an empty memory.
const noPriorDecisions = "No prior decisions."

// Memory is a fixed-capacity FIFO of episodes. The oldest episode is evicted
// when the capacity is exceeded. A Memory is owned exclusively by its agent.
type Memory struct {
	capacity int
	items    []Episode
}

// NewMemory creates a memory holding at most capacity episodes. A capacity
// of zero or less falls back to DefaultMemoryCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{capacity: capacity}
}

// Add appends an episode, evicting the oldest when full.
func (m *Memory) Add(ep Episode) {
	if len(m.items) == m.capacity {
		copy(m.items, m.items[1:])
		m.items = m.items[:m.capacity-1]
	}
	m.items = append(m.items, ep)
}

// Len returns the number of stored episodes.
func (m *Memory) Len() int { return len(m.items) }

// Last returns the most recently stored episode, if any.
func (m *Memory) Last() (Episode, bool) {
	if len(m.items) == 0 {
		return Episode{}, false
	}
	return m.items[len(m.items)-1], true
}

// Items returns a copy of all stored episodes, oldest first.
func (m *Memory) Items() []Episode {
	out := make([]Episode, len(m.items))
	copy(out, m.items)
	return out
}

// Summarize renders the last k episodes as a compact text digest, one line
// per episode, suitable as planner or LLM context. Returns the
// "No prior decisions." sentinel when memory is empty.
func (m *Memory) Summarize(k int) string {
	if len(m.items) == 0 {
		return noPriorDecisions
	}
	start := len(m.items) - k
	if start < 0 {
		start = 0
	}
	var b strings.Builder
	for i, ep := range m.items[start:] {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "t=%d act=%s size=%.2f pnl=%.2f wealth=%.2f conf=%.2f",
			ep.Tick, ep.Action.Kind, ep.Action.Size,
			ep.Outcome.PnL, ep.Outcome.NewWealth, ep.Plan.Confidence)
	}
	return b.String()
}
