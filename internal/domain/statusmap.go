package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// StatusMap maps day-of-month to observed availability status.
// Params: total domain over every day of the watched month.
// Returns: canonical snapshot compared between cycles.
type StatusMap map[int]Status

// NewStatusMap builds a snapshot with every day of the month pre-seeded
// to DefaultStatus, so days absent from the page stay explicit.
// Params: watched month.
// Returns: total all-full snapshot.
func NewStatusMap(month Month) StatusMap {
	days := month.Days()
	snapshot := make(StatusMap, days)
	for day := 1; day <= days; day++ {
		snapshot[day] = DefaultStatus
	}
	return snapshot
}

// Clone returns an independent copy of the snapshot.
// Params: none.
// Returns: deep copy, nil for nil receiver.
func (m StatusMap) Clone() StatusMap {
	if m == nil {
		return nil
	}
	out := make(StatusMap, len(m))
	for day, status := range m {
		out[day] = status
	}
	return out
}

// Equal reports whether two snapshots hold identical day statuses.
// Params: other snapshot.
// Returns: true on exact key and value match.
func (m StatusMap) Equal(other StatusMap) bool {
	if len(m) != len(other) {
		return false
	}
	for day, status := range m {
		if other[day] != status {
			return false
		}
	}
	return true
}

// Days returns the snapshot's day keys in ascending order.
// Params: none.
// Returns: sorted day-of-month list.
func (m StatusMap) Days() []int {
	days := make([]int, 0, len(m))
	for day := range m {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}

// AvailableDays lists days with open or limited status in ascending order.
// Params: none.
// Returns: sorted days carrying availability.
func (m StatusMap) AvailableDays() []int {
	days := make([]int, 0, len(m))
	for day, status := range m {
		if status.Available() {
			days = append(days, day)
		}
	}
	sort.Ints(days)
	return days
}

// MarshalJSON encodes the snapshot as {"day": "status"} with string keys.
// Params: none.
// Returns: stable JSON document for persistence.
func (m StatusMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]Status, len(m))
	for day, status := range m {
		out[strconv.Itoa(day)] = status
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes persisted snapshot and validates every entry.
// Params: JSON document bytes.
// Returns: decode error on malformed keys or unknown statuses.
func (m *StatusMap) UnmarshalJSON(raw []byte) error {
	var decoded map[string]Status
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	out := make(StatusMap, len(decoded))
	for key, status := range decoded {
		day, err := strconv.Atoi(key)
		if err != nil || day < 1 || day > 31 {
			return fmt.Errorf("invalid day key %q", key)
		}
		if !status.Valid() {
			return fmt.Errorf("invalid status %q for day %d", status, day)
		}
		out[day] = status
	}
	*m = out
	return nil
}
