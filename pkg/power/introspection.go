package power

import (
	"github.com/aretw0/introspection"
)

// ManagerState exposes the power state for observability.
type ManagerState struct {
	BootID       string `json:"boot_id"`
	Lifecycle    string `json:"lifecycle"`
	Battery      string `json:"battery"`
	FilteredVolt string `json:"filtered_volts"`
	Mode         string `json:"mode"`
	EditingPath  string `json:"editing_path,omitempty"`
	Deferred     bool   `json:"deferred"`
	DeferSleep   bool   `json:"defer_sleep"`
	Dropped      uint64 `json:"dropped_events"`
}

// State implements introspection.Introspectable.
func (m *Manager) State() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ManagerState{
		BootID:       m.bootID,
		Lifecycle:    string(m.state),
		Battery:      m.battery.String(),
		FilteredVolt: formatVolts(m.filter.Value()),
		Mode:         m.session.Mode.String(),
		EditingPath:  m.session.EditingPath,
		Deferred:     m.deferred,
		DeferSleep:   m.deferSleep,
		Dropped:      m.dropped.Load(),
	}
}

// ComponentType implements introspection.Component.
func (m *Manager) ComponentType() string {
	return "power-manager"
}

var _ introspection.Introspectable = (*Manager)(nil)
var _ introspection.Component = (*Manager)(nil)
