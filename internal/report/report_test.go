package report

import (
	"strings"
	"testing"
	"time"

	"seatwatch/internal/diff"
	"seatwatch/internal/domain"
)

var february = domain.Month{Year: 2026, Month: time.February}

const pageURL = "https://www.ms-aurora.com/abashiri/reserves/new.php?ym=2026-02"

func TestRenderBaselineListsAvailableDays(t *testing.T) {
	t.Parallel()

	current := domain.NewStatusMap(february)
	current[5] = domain.StatusOpen
	current[12] = domain.StatusLimited

	msg := New(february, pageURL).Render(diff.Result{FirstObservation: true, Current: current})

	if !msg.Deliver {
		t.Fatal("baseline snapshot must be deliverable")
	}
	if !msg.Startup {
		t.Fatal("baseline snapshot must carry the startup marker")
	}
	for _, want := range []string{"2026-02", "Feb 5: ○ (open)", "Feb 12: △ (limited)"} {
		if !strings.Contains(msg.Text, want) {
			t.Fatalf("baseline text missing %q:\n%s", want, msg.Text)
		}
	}
	if strings.Contains(msg.Text, "Feb 1:") {
		t.Fatalf("baseline must not list full days:\n%s", msg.Text)
	}
}

func TestRenderBaselineAllFull(t *testing.T) {
	t.Parallel()

	msg := New(february, pageURL).Render(diff.Result{
		FirstObservation: true,
		Current:          domain.NewStatusMap(february),
	})

	if !msg.Deliver {
		t.Fatal("all-full baseline must still be delivered")
	}
	if !strings.Contains(msg.Text, "no days available") {
		t.Fatalf("all-full baseline needs an explicit line:\n%s", msg.Text)
	}
}

func TestRenderNoChangesSuppressed(t *testing.T) {
	t.Parallel()

	msg := New(february, pageURL).Render(diff.Result{Current: domain.NewStatusMap(february)})

	if msg.Deliver {
		t.Fatal("an empty change set must not be delivered")
	}
	if msg.Startup {
		t.Fatal("a quiet cycle is not a startup notice")
	}
}

func TestRenderChangesBothDirections(t *testing.T) {
	t.Parallel()

	msg := New(february, pageURL).Render(diff.Result{
		Transitions: []domain.Transition{
			{Day: 5, Previous: domain.StatusFull, Current: domain.StatusOpen},
			{Day: 9, Previous: domain.StatusOpen, Current: domain.StatusFull},
		},
	})

	if !msg.Deliver {
		t.Fatal("a non-empty change set must be delivered")
	}
	if msg.Startup {
		t.Fatal("change alerts are not startup notices")
	}
	if !strings.Contains(msg.Text, "Feb 5: × → ○ (gained availability)") {
		t.Fatalf("missing gained line:\n%s", msg.Text)
	}
	if !strings.Contains(msg.Text, "Feb 9: ○ → × (lost availability)") {
		t.Fatalf("missing lost line:\n%s", msg.Text)
	}
	if !strings.Contains(msg.Text, pageURL) {
		t.Fatalf("change alert must link the reservation page:\n%s", msg.Text)
	}
}

func TestRenderChangesPreservesOrder(t *testing.T) {
	t.Parallel()

	msg := New(february, "").Render(diff.Result{
		Transitions: []domain.Transition{
			{Day: 2, Previous: domain.StatusFull, Current: domain.StatusLimited},
			{Day: 17, Previous: domain.StatusLimited, Current: domain.StatusOpen},
		},
	})

	first := strings.Index(msg.Text, "Feb 2:")
	second := strings.Index(msg.Text, "Feb 17:")
	if first < 0 || second < 0 || second < first {
		t.Fatalf("lines out of order:\n%s", msg.Text)
	}
}
