// Package status holds the transition tables for the two order-family
// lifecycles. The rules live in data (one adjacency table per enum) so the
// machines and their tests share a single source of truth.
package status

import "fmt"

// InvalidTransitionError reports a transition not present in the table.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: invalid status transition %s -> %s", e.Entity, e.From, e.To)
}

// Machine validates transitions for one status enum against its adjacency
// table.
type Machine[S ~string] struct {
	entity string
	table  map[S][]S
}

// NewMachine builds a machine over the given adjacency table. The entity
// name only appears in error messages.
func NewMachine[S ~string](entity string, table map[S][]S) *Machine[S] {
	return &Machine[S]{entity: entity, table: table}
}

// CanTransition reports whether from -> to is allowed.
func (m *Machine[S]) CanTransition(from, to S) bool {
	for _, next := range m.table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns nil if from -> to is allowed, or an
// *InvalidTransitionError if not.
func (m *Machine[S]) Transition(from, to S) error {
	if !m.CanTransition(from, to) {
		return &InvalidTransitionError{Entity: m.entity, From: string(from), To: string(to)}
	}
	return nil
}

// AllowedNext returns the states reachable from the given state.
func (m *Machine[S]) AllowedNext(from S) []S {
	next := make([]S, len(m.table[from]))
	copy(next, m.table[from])
	return next
}

// States returns every state that appears in the table, as either a source
// or a target.
func (m *Machine[S]) States() []S {
	seen := make(map[S]bool)
	var states []S
	add := func(s S) {
		if !seen[s] {
			seen[s] = true
			states = append(states, s)
		}
	}
	for from, nexts := range m.table {
		add(from)
		for _, to := range nexts {
			add(to)
		}
	}
	return states
}
