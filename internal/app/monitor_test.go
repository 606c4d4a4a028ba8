package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"seatwatch/internal/domain"
	"seatwatch/internal/report"
)

var february = domain.Month{Year: 2026, Month: time.February}

type fakeFetcher struct {
	body []byte
	err  error
}

func (f *fakeFetcher) Fetch(context.Context) ([]byte, error) {
	return f.body, f.err
}

type fakeExtractor struct {
	snapshot domain.StatusMap
	err      error
}

func (f *fakeExtractor) Extract([]byte) (domain.StatusMap, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot.Clone(), nil
}

type fakeStore struct {
	snapshot domain.StatusMap
	loadErr  error
	saveErr  error
	saves    int
}

func (f *fakeStore) Load(context.Context) (domain.StatusMap, bool, error) {
	if f.loadErr != nil {
		return nil, false, f.loadErr
	}
	if f.snapshot == nil {
		return nil, false, nil
	}
	return f.snapshot.Clone(), true, nil
}

func (f *fakeStore) Save(_ context.Context, snapshot domain.StatusMap) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.snapshot = snapshot.Clone()
	return nil
}

func (f *fakeStore) Close() error { return nil }

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) Broadcast(_ context.Context, text string) error {
	f.sent = append(f.sent, text)
	return f.err
}

func newTestMonitor(fetcher *fakeFetcher, extractor *fakeExtractor, store *fakeStore, notifier *fakeNotifier) *Monitor {
	return NewMonitor(
		fetcher,
		extractor,
		store,
		report.New(february, "https://example.com/reserves/new.php?ym=2026-02"),
		notifier,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func snapshotWithOpenDay(day int) domain.StatusMap {
	snapshot := domain.NewStatusMap(february)
	snapshot[day] = domain.StatusOpen
	return snapshot
}

func TestRunCycleFirstObservationSendsBaselineAndPersists(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	notifier := &fakeNotifier{}
	monitor := newTestMonitor(
		&fakeFetcher{body: []byte("<html/>")},
		&fakeExtractor{snapshot: snapshotWithOpenDay(5)},
		store, notifier,
	)

	if err := monitor.RunCycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(notifier.sent) != 1 || !strings.Contains(notifier.sent[0], "monitoring started") {
		t.Fatalf("expected one baseline notice, got %v", notifier.sent)
	}
	if store.saves != 1 {
		t.Fatalf("expected one save, got %d", store.saves)
	}
}

func TestRunCycleQuietCycleSendsNothing(t *testing.T) {
	t.Parallel()

	snapshot := snapshotWithOpenDay(5)
	store := &fakeStore{snapshot: snapshot}
	notifier := &fakeNotifier{}
	monitor := newTestMonitor(
		&fakeFetcher{body: []byte("<html/>")},
		&fakeExtractor{snapshot: snapshot},
		store, notifier,
	)

	if err := monitor.RunCycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("unchanged snapshot must not notify, got %v", notifier.sent)
	}
	if store.saves != 1 {
		t.Fatalf("snapshot must still be persisted, got %d saves", store.saves)
	}
}

func TestRunCycleChangeDelivered(t *testing.T) {
	t.Parallel()

	store := &fakeStore{snapshot: domain.NewStatusMap(february)}
	notifier := &fakeNotifier{}
	monitor := newTestMonitor(
		&fakeFetcher{body: []byte("<html/>")},
		&fakeExtractor{snapshot: snapshotWithOpenDay(5)},
		store, notifier,
	)

	if err := monitor.RunCycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected one change alert, got %v", notifier.sent)
	}
	if !strings.Contains(notifier.sent[0], "Feb 5: × → ○") {
		t.Fatalf("unexpected alert text:\n%s", notifier.sent[0])
	}
}

func TestRunCycleExtractFailureTouchesNothing(t *testing.T) {
	t.Parallel()

	store := &fakeStore{snapshot: snapshotWithOpenDay(5)}
	notifier := &fakeNotifier{}
	monitor := newTestMonitor(
		&fakeFetcher{body: []byte("<html/>")},
		&fakeExtractor{err: errors.New("calendar table not found")},
		store, notifier,
	)

	if err := monitor.RunCycle(context.Background()); err == nil {
		t.Fatal("expected cycle error")
	}
	if store.saves != 0 {
		t.Fatalf("failed extraction must not persist, got %d saves", store.saves)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("failed extraction must not notify, got %v", notifier.sent)
	}
}

func TestRunCycleFetchFailureTouchesNothing(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	notifier := &fakeNotifier{}
	monitor := newTestMonitor(
		&fakeFetcher{err: errors.New("connection refused")},
		&fakeExtractor{snapshot: snapshotWithOpenDay(5)},
		store, notifier,
	)

	if err := monitor.RunCycle(context.Background()); err == nil {
		t.Fatal("expected cycle error")
	}
	if store.saves != 0 || len(notifier.sent) != 0 {
		t.Fatalf("failed fetch must not persist or notify: saves=%d sent=%v", store.saves, notifier.sent)
	}
}

func TestRunCycleBaselineSentOncePerProcess(t *testing.T) {
	t.Parallel()

	// A failing save keeps the store empty, so every cycle diffs as a
	// first observation. Only the first one may announce the baseline.
	store := &fakeStore{saveErr: errors.New("disk full")}
	notifier := &fakeNotifier{}
	monitor := newTestMonitor(
		&fakeFetcher{body: []byte("<html/>")},
		&fakeExtractor{snapshot: snapshotWithOpenDay(5)},
		store, notifier,
	)

	for i := 0; i < 3; i++ {
		if err := monitor.RunCycle(context.Background()); err == nil {
			t.Fatal("expected save error to surface")
		}
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("baseline must go out once, got %d sends", len(notifier.sent))
	}
}

func TestRunCycleDeliveryFailureStillPersists(t *testing.T) {
	t.Parallel()

	store := &fakeStore{snapshot: domain.NewStatusMap(february)}
	notifier := &fakeNotifier{err: errors.New("webhook timeout")}
	monitor := newTestMonitor(
		&fakeFetcher{body: []byte("<html/>")},
		&fakeExtractor{snapshot: snapshotWithOpenDay(5)},
		store, notifier,
	)

	if err := monitor.RunCycle(context.Background()); err != nil {
		t.Fatalf("delivery failure must not fail the cycle: %v", err)
	}
	if store.saves != 1 {
		t.Fatalf("snapshot must be persisted after delivery failure, got %d saves", store.saves)
	}
}

func TestRunCycleFailedBaselineDeliveryRetriesNextCycle(t *testing.T) {
	t.Parallel()

	store := &fakeStore{saveErr: errors.New("disk full")}
	notifier := &fakeNotifier{err: errors.New("webhook timeout")}
	monitor := newTestMonitor(
		&fakeFetcher{body: []byte("<html/>")},
		&fakeExtractor{snapshot: snapshotWithOpenDay(5)},
		store, notifier,
	)

	_ = monitor.RunCycle(context.Background())
	notifier.err = nil
	_ = monitor.RunCycle(context.Background())

	if len(notifier.sent) != 2 {
		t.Fatalf("failed baseline delivery must be retried, got %d attempts", len(notifier.sent))
	}
	_ = monitor.RunCycle(context.Background())
	if len(notifier.sent) != 2 {
		t.Fatalf("delivered baseline must not repeat, got %d attempts", len(notifier.sent))
	}
}
