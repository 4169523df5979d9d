package dashboard

import (
	"maps"
	"sync"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

// EditModes tracks which domains currently accept direct field edits.
type EditModes struct {
	mu    sync.RWMutex
	flags map[domain.Domain]bool
}

func NewEditModes() *EditModes {
	return &EditModes{flags: make(map[domain.Domain]bool)}
}

// Enabled reports whether d is in edit mode.
func (m *EditModes) Enabled(d domain.Domain) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[d]
}

// Set flips the flag of d and returns the previous value.
func (m *EditModes) Set(d domain.Domain, on bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.flags[d]
	if on {
		m.flags[d] = true
	} else {
		delete(m.flags, d)
	}
	return prev
}

// Snapshot returns the domains currently in edit mode.
func (m *EditModes) Snapshot() map[domain.Domain]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.flags)
}
