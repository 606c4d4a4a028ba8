// Package report renders diff results into notification text. Rendering is
// pure; delivery belongs to the notify layer.
package report

import (
	"fmt"
	"strings"

	"seatwatch/internal/diff"
	"seatwatch/internal/domain"
)

// Message is one rendered notification.
// Params: text body, startup marker, and delivery decision.
// Returns: render outcome for the monitor loop.
type Message struct {
	Text string
	// Startup marks the baseline snapshot notice sent on first observation.
	Startup bool
	// Deliver is false when the message must be suppressed (no change);
	// not sending it is policy, not an optimization.
	Deliver bool
}

// Reporter renders snapshots and change sets for one watched month.
// Params: watched month and reservation page URL for change alerts.
// Returns: pure diff-to-text renderer.
type Reporter struct {
	month   domain.Month
	pageURL string
}

// New creates a reporter.
// Params: watched month and reservation page URL.
// Returns: initialized reporter.
func New(month domain.Month, pageURL string) *Reporter {
	return &Reporter{month: month, pageURL: pageURL}
}

// Render converts one diff result into notification text.
// Params: diff result from the current cycle.
// Returns: baseline snapshot for first observations, one line per
// transition otherwise; an empty change set renders as non-deliverable.
func (r *Reporter) Render(result diff.Result) Message {
	if result.FirstObservation {
		return Message{Text: r.renderBaseline(result.Current), Startup: true, Deliver: true}
	}
	if !result.HasChanges() {
		return Message{Text: "no change", Deliver: false}
	}
	return Message{Text: r.renderChanges(result.Transitions), Deliver: true}
}

// renderBaseline lists every currently available day, or an explicit
// all-full line when there are none.
// Params: current snapshot.
// Returns: startup notice body.
func (r *Reporter) renderBaseline(current domain.StatusMap) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Seat monitoring started for %s.\n\n", r.month.Key())
	builder.WriteString("Current availability:\n")

	available := current.AvailableDays()
	if len(available) == 0 {
		builder.WriteString("  no days available (all full)")
		return builder.String()
	}
	for i, day := range available {
		if i > 0 {
			builder.WriteByte('\n')
		}
		status := current[day]
		fmt.Fprintf(&builder, "  • %s: %s (%s)", r.dayLabel(day), status.Glyph(), status)
	}
	return builder.String()
}

// renderChanges builds one line per transition in the diff's order.
// Params: ordered non-empty transition list.
// Returns: change alert body with the reservation page link.
func (r *Reporter) renderChanges(transitions []domain.Transition) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Availability changed for %s:\n", r.month.Key())
	for _, tr := range transitions {
		direction := "lost availability"
		if tr.Gained() {
			direction = "gained availability"
		}
		fmt.Fprintf(&builder, "%s: %s → %s (%s)\n",
			r.dayLabel(tr.Day), tr.Previous.Glyph(), tr.Current.Glyph(), direction)
	}
	if r.pageURL != "" {
		fmt.Fprintf(&builder, "\nReservation page: %s", r.pageURL)
	}
	return builder.String()
}

// dayLabel formats one day for humans, e.g. "Feb 5".
// Params: day-of-month.
// Returns: short month-name label.
func (r *Reporter) dayLabel(day int) string {
	return fmt.Sprintf("%s %d", r.month.Month.String()[:3], day)
}
