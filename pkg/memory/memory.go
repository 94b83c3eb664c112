// Package memory provides the append-only message log shared by all roles.
package memory

import (
	"sync"

	"github.com/jllopis/autoagents/pkg/core"
)

// Memory is an ordered, append-only log of messages. Insertion order is the
// only order; messages are never removed or rewritten.
type Memory struct {
	mu   sync.RWMutex
	msgs []core.Message
}

// New creates an empty log.
func New() *Memory {
	return &Memory{}
}

// Add appends msg to the log. No dedup, no validation.
func (m *Memory) Add(msg core.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
}

// Len returns the number of messages stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.msgs)
}

// All returns a copy of the whole log.
func (m *Memory) All() []core.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.Message(nil), m.msgs...)
}

// Since returns the messages added at or after index k.
func (m *Memory) Since(k int) []core.Message {
	return m.Range(k, -1)
}

// Range returns messages in [from, to). A negative to means the current end.
// Out-of-bounds indexes are clamped.
func (m *Memory) Range(from, to int) []core.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.msgs)
	if to < 0 || to > n {
		to = n
	}
	if from < 0 {
		from = 0
	}
	if from >= to {
		return nil
	}
	return append([]core.Message(nil), m.msgs[from:to]...)
}

// Filter returns, in insertion order, every message matching pred.
func (m *Memory) Filter(pred func(core.Message) bool) []core.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Message
	for _, msg := range m.msgs {
		if pred(msg) {
			out = append(out, msg)
		}
	}
	return out
}

// ByRole returns messages produced by the given role profile.
func (m *Memory) ByRole(role string) []core.Message {
	return m.Filter(func(msg core.Message) bool { return msg.Role == role })
}

// ByCause returns messages tagged with the given action tag.
func (m *Memory) ByCause(tag string) []core.Message {
	return m.Filter(func(msg core.Message) bool { return msg.CauseBy == tag })
}
