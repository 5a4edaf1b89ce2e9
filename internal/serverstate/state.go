// Package serverstate tracks the process lifecycle reported by /healthz.
package serverstate

import "sync/atomic"

// Lifecycle states.
const (
	StatusNotReady = "not_ready"
	StatusReady    = "ready"
	StatusDraining = "draining"
)

// State is updated as a whole so readers always see a consistent snapshot.
type State struct {
	Status   string `json:"status"`
	Draining bool   `json:"draining"`
}

// Tracker holds the current State. The zero value is not usable; call New.
type Tracker struct {
	v atomic.Value
}

// New returns a Tracker in the not_ready state.
func New() *Tracker {
	t := &Tracker{}
	t.v.Store(State{Status: StatusNotReady})
	return t
}

// Load returns the current snapshot.
func (t *Tracker) Load() State {
	if st, ok := t.v.Load().(State); ok {
		return st
	}
	return State{Status: "unknown"}
}

// SetReady marks the server as accepting traffic unless it is draining.
func (t *Tracker) SetReady() {
	if t.Load().Draining {
		return
	}
	t.v.Store(State{Status: StatusReady})
}

// StartDrain marks the server as shutting down.
func (t *Tracker) StartDrain() {
	t.v.Store(State{Status: StatusDraining, Draining: true})
}
