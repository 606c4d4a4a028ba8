package extract

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"seatwatch/internal/domain"
)

var february = domain.Month{Year: 2026, Month: time.February}

// calendarPage wraps calendar cells into the three-table page layout the
// reservation site serves: navigation, legend, then the calendar.
func calendarPage(cells string) []byte {
	return []byte(fmt.Sprintf(`<!DOCTYPE html>
<html><body>
<table><tr><td>nav</td></tr></table>
<table><tr><td>legend</td></tr></table>
<table>
<tr>%s</tr>
</table>
</body></html>`, cells))
}

func dayCell(day int, marker string) string {
	if marker == "" {
		return fmt.Sprintf(`<td><a href="new.php?ym=2026-02&amp;ynj=2026-2-%d#content">%d</a></td>`, day, day)
	}
	return fmt.Sprintf(`<td><a href="new.php?ym=2026-02&amp;ynj=2026-2-%d#content"><em>%s</em>%d</a></td>`, day, marker, day)
}

func TestExtractSingleOpenDay(t *testing.T) {
	t.Parallel()

	markup := calendarPage(dayCell(5, "○") + dayCell(6, "") + `<td>&nbsp;</td>`)
	snapshot, err := New(february, Options{}).Extract(markup)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if len(snapshot) != 28 {
		t.Fatalf("expected 28 days, got %d", len(snapshot))
	}
	for day, status := range snapshot {
		want := domain.StatusFull
		if day == 5 {
			want = domain.StatusOpen
		}
		if status != want {
			t.Fatalf("day %d: got %q, want %q", day, status, want)
		}
	}
}

func TestExtractMarkerKinds(t *testing.T) {
	t.Parallel()

	markup := calendarPage(dayCell(1, "○") + dayCell(2, "△") + dayCell(3, "×") + dayCell(4, ""))
	snapshot, err := New(february, Options{}).Extract(markup)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if snapshot[1] != domain.StatusOpen {
		t.Fatalf("day 1: got %q", snapshot[1])
	}
	if snapshot[2] != domain.StatusLimited {
		t.Fatalf("day 2: got %q", snapshot[2])
	}
	// Unrecognized glyph and missing marker both mean no availability.
	if snapshot[3] != domain.StatusFull || snapshot[4] != domain.StatusFull {
		t.Fatalf("days 3/4: got %q/%q", snapshot[3], snapshot[4])
	}
}

func TestExtractZeroMarkersIsValidAllFull(t *testing.T) {
	t.Parallel()

	markup := calendarPage(`<td>1</td><td>2</td>`)
	snapshot, err := New(february, Options{}).Extract(markup)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	for day := 1; day <= 28; day++ {
		if snapshot[day] != domain.StatusFull {
			t.Fatalf("day %d: got %q, want full", day, snapshot[day])
		}
	}
}

func TestExtractFailsWithoutCalendarTable(t *testing.T) {
	t.Parallel()

	markup := []byte(`<html><body><table><tr><td>only</td></tr></table><table></table></body></html>`)
	_, err := New(february, Options{}).Extract(markup)
	if !errors.Is(err, ErrCalendarNotFound) {
		t.Fatalf("expected ErrCalendarNotFound, got %v", err)
	}
}

func TestExtractSkipsMalformedCells(t *testing.T) {
	t.Parallel()

	cells := dayCell(5, "○") +
		`<td><a href="new.php?ynj=garbage"><em>○</em></a></td>` +
		`<td><a href="new.php?ynj=2026-2-40"><em>○</em></a></td>` +
		`<td><a href="new.php?other=1"><em>○</em></a></td>` +
		`<td><a href="%zz://bad"><em>○</em></a></td>`
	snapshot, err := New(february, Options{}).Extract(calendarPage(cells))
	if err != nil {
		t.Fatalf("partial corruption must not abort extraction: %v", err)
	}
	if snapshot[5] != domain.StatusOpen {
		t.Fatalf("day 5 must survive corrupted neighbors, got %q", snapshot[5])
	}
	for day := 1; day <= 28; day++ {
		if day != 5 && snapshot[day] != domain.StatusFull {
			t.Fatalf("day %d: got %q, want full", day, snapshot[day])
		}
	}
}

func TestExtractIgnoresDayOutsideMonthDomain(t *testing.T) {
	t.Parallel()

	// Day 30 parses but does not exist in February.
	cells := `<td><a href="new.php?ynj=2026-2-30"><em>○</em></a></td>`
	snapshot, err := New(february, Options{}).Extract(calendarPage(cells))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(snapshot) != 28 {
		t.Fatalf("month domain must stay total, got %d entries", len(snapshot))
	}
	if _, exists := snapshot[30]; exists {
		t.Fatalf("day 30 must not enter a February snapshot")
	}
}

func TestExtractCustomDateParamAndLocator(t *testing.T) {
	t.Parallel()

	markup := []byte(`<html><body>
<table><tr><td><a href="r?d=2026-2-7"><em>△</em></a></td></tr></table>
</body></html>`)
	snapshot, err := New(february, Options{
		DateParam: "d",
		Locator:   PositionalTableLocator{Index: 1},
	}).Extract(markup)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if snapshot[7] != domain.StatusLimited {
		t.Fatalf("day 7: got %q, want limited", snapshot[7])
	}
}
