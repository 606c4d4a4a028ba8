package domain

// Status is per-day seat availability observed on the calendar page.
// Params: full/limited/open status constants.
// Returns: canonical status values for diffing and persistence.
type Status string

const (
	// StatusFull indicates no seats; the baseline for every day.
	StatusFull Status = "full"
	// StatusLimited indicates some seats left (page marker "△").
	StatusLimited Status = "limited"
	// StatusOpen indicates seats freely available (page marker "○").
	StatusOpen Status = "open"
)

const (
	// GlyphOpen is the page marker for open availability.
	GlyphOpen = "○"
	// GlyphLimited is the page marker for limited availability.
	GlyphLimited = "△"
	// GlyphFull is the display marker for fully booked days.
	GlyphFull = "×"
)

// DefaultStatus is the policy value for days absent from the page.
// A day the calendar does not enumerate is "no availability", not "unknown".
const DefaultStatus = StatusFull

// Valid reports whether the value is one of the three known statuses.
// Params: none.
// Returns: true for full/limited/open.
func (s Status) Valid() bool {
	switch s {
	case StatusFull, StatusLimited, StatusOpen:
		return true
	default:
		return false
	}
}

// Available reports whether the status represents bookable seats.
// Params: none.
// Returns: true for open and limited.
func (s Status) Available() bool {
	return s == StatusOpen || s == StatusLimited
}

// Glyph returns the calendar marker used for display.
// Params: none.
// Returns: page glyph for the status.
func (s Status) Glyph() string {
	switch s {
	case StatusOpen:
		return GlyphOpen
	case StatusLimited:
		return GlyphLimited
	default:
		return GlyphFull
	}
}
