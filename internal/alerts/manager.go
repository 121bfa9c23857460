// Package alerts tracks the configured alert definitions and their external
// trigger state. Alerts are display entities: thresholds are free-form labels
// and the triggered flag is toggled through the API, never evaluated against
// market data here.
package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

// Manager holds alert state for the lifetime of the process. Order follows
// the configuration.
type Manager struct {
	mu     sync.RWMutex
	alerts []domain.AlertStatus
	clock  domain.Clock
}

// NewManager builds a Manager seeded from the configured alert definitions,
// all untriggered. A nil clock falls back to the system clock.
func NewManager(defs []Definition, clock domain.Clock) *Manager {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	alerts := make([]domain.AlertStatus, 0, len(defs))
	for _, def := range defs {
		alerts = append(alerts, domain.AlertStatus{
			Name:      def.Name,
			Threshold: def.Threshold,
		})
	}
	return &Manager{alerts: alerts, clock: clock}
}

// Definition is one configured alert: a display name plus a human-readable
// threshold label.
type Definition struct {
	Name      string
	Threshold string
}

// List returns a copy of all alerts in configuration order.
func (m *Manager) List() []domain.AlertStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.AlertStatus, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// TriggeredCount returns how many alerts are currently triggered.
func (m *Manager) TriggeredCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, a := range m.alerts {
		if a.Triggered {
			n++
		}
	}
	return n
}

// SetTriggered updates the trigger flag for the named alert. Setting the flag
// records the trigger time; clearing it leaves LastTriggered in place as
// history.
func (m *Manager) SetTriggered(name string, triggered bool) (domain.AlertStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.alerts {
		if m.alerts[i].Name != name {
			continue
		}
		m.alerts[i].Triggered = triggered
		if triggered {
			now := m.clock.Now()
			m.alerts[i].LastTriggered = &now
		}
		return m.alerts[i], nil
	}
	return domain.AlertStatus{}, fmt.Errorf("alerts: %s: %w", name, domain.ErrNotFound)
}

// LastTriggered returns the last trigger time for the named alert and
// whether the alert exists.
func (m *Manager) LastTriggered(name string) (*time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.alerts {
		if a.Name == name {
			return a.LastTriggered, true
		}
	}
	return nil, false
}
