// Package diff computes day-level transitions between two consecutive
// availability snapshots.
package diff

import (
	"sort"

	"seatwatch/internal/domain"
)

// Result is the outcome of comparing one cycle's snapshot with the prior one.
// Params: first-observation marker, current snapshot, and ordered transitions.
// Returns: deterministic comparison output for the reporter.
type Result struct {
	// FirstObservation is set when no prior snapshot existed; the current
	// snapshot is then reported as a baseline, not as changes from an
	// implicit all-full prior.
	FirstObservation bool
	Current          domain.StatusMap
	Transitions      []domain.Transition
}

// HasChanges reports whether the result carries any transitions.
// Params: none.
// Returns: true for a non-empty change set.
func (r Result) HasChanges() bool {
	return len(r.Transitions) > 0
}

// Compute compares the current snapshot against the previous one.
// Params: previous snapshot (nil means absent) and current snapshot.
// Returns: FirstObservation for absent prior; otherwise transitions for
// every day whose status differs, ordered ascending by day-of-month
// regardless of map iteration order. Days missing from the previous
// snapshot default to the baseline status (month-length drift guard).
func Compute(previous, current domain.StatusMap) Result {
	if previous == nil {
		return Result{FirstObservation: true, Current: current}
	}

	transitions := make([]domain.Transition, 0)
	for day, status := range current {
		before, ok := previous[day]
		if !ok {
			before = domain.DefaultStatus
		}
		if before == status {
			continue
		}
		transitions = append(transitions, domain.Transition{
			Day:      day,
			Previous: before,
			Current:  status,
		})
	}
	sort.Slice(transitions, func(i, j int) bool {
		return transitions[i].Day < transitions[j].Day
	})

	return Result{Current: current, Transitions: transitions}
}
