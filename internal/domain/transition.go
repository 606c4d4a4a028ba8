package domain

// Transition is one day's status change between two consecutive snapshots.
// Params: day-of-month with previous and current statuses.
// Returns: change record for rendering; Previous != Current always holds.
type Transition struct {
	Day      int
	Previous Status
	Current  Status
}

// Gained reports whether the day moved toward availability.
// Params: none.
// Returns: true when the current status is bookable; display-only severity.
func (t Transition) Gained() bool {
	return t.Current.Available()
}
