package domain

import "time"

// AlertStatus is one configured alert with its display threshold and current
// trigger state. Trigger evaluation is not performed by quantumdesk; the
// flags are supplied externally through the API and merely carried here.
type AlertStatus struct {
	Name          string     `json:"name"`
	Threshold     string     `json:"threshold"`
	Triggered     bool       `json:"triggered"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`
}
