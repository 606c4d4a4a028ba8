package domain

import (
	"fmt"
	"time"
)

// Month identifies the watched calendar month.
// Params: year and calendar month.
// Returns: month identity for extraction domain and state keys.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth decodes "YYYY-MM" configuration form.
// Params: raw month string from config.
// Returns: parsed month or format error.
func ParseMonth(raw string) (Month, error) {
	parsed, err := time.Parse("2006-01", raw)
	if err != nil {
		return Month{}, fmt.Errorf("month must be YYYY-MM, got %q", raw)
	}
	return Month{Year: parsed.Year(), Month: parsed.Month()}, nil
}

// Days returns the real day count of the month, leap-aware.
// Params: none.
// Returns: 28..31.
func (m Month) Days() int {
	// Day zero of the next month normalizes to the last day of this one.
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Key returns the canonical "YYYY-MM" form used for state keys.
// Params: none.
// Returns: zero-padded month key.
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// String returns the month key form.
// Params: none.
// Returns: "YYYY-MM".
func (m Month) String() string {
	return m.Key()
}
