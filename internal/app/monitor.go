// Package app composes the fetch/extract/diff/notify cycle and the
// process lifecycle around it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"seatwatch/internal/diff"
	"seatwatch/internal/domain"
	"seatwatch/internal/fetch"
	"seatwatch/internal/report"
	"seatwatch/internal/state"
)

// Extractor converts fetched markup into a status snapshot.
// Params: raw page markup.
// Returns: per-day snapshot or markup-contract error.
type Extractor interface {
	Extract(markup []byte) (domain.StatusMap, error)
}

// Notifier delivers one rendered message to all configured channels.
// Params: context and message text.
// Returns: delivery error covering failed channels.
type Notifier interface {
	Broadcast(ctx context.Context, text string) error
}

// Monitor runs one watch cycle end to end.
// Params: fetcher, extractor, store, reporter, and notifier wiring.
// Returns: cycle runner for the service loop.
type Monitor struct {
	fetcher   fetch.Fetcher
	extractor Extractor
	store     state.Store
	reporter  *report.Reporter
	notifier  Notifier
	logger    *slog.Logger

	// baselineSent suppresses repeat startup notices when the snapshot
	// save keeps failing; the baseline goes out at most once per process.
	baselineSent bool
}

// NewMonitor wires one monitor from its components.
// Params: cycle dependencies and service logger.
// Returns: initialized monitor.
func NewMonitor(fetcher fetch.Fetcher, extractor Extractor, store state.Store, reporter *report.Reporter, notifier Notifier, logger *slog.Logger) *Monitor {
	return &Monitor{
		fetcher:   fetcher,
		extractor: extractor,
		store:     store,
		reporter:  reporter,
		notifier:  notifier,
		logger:    logger,
	}
}

// RunCycle performs one fetch-extract-diff-notify-persist pass.
// A fetch or extract failure aborts the cycle before any state is
// touched; delivery happens before persistence so a failed save causes
// a repeat alert rather than a silently swallowed change.
// Params: context for the whole cycle.
// Returns: first error that aborted or degraded the cycle.
func (m *Monitor) RunCycle(ctx context.Context) error {
	markup, err := m.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	current, err := m.extractor.Extract(markup)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	previous, found, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if !found {
		previous = nil
	}

	result := diff.Compute(previous, current)
	message := m.reporter.Render(result)

	if message.Deliver && !(message.Startup && m.baselineSent) {
		if err := m.notifier.Broadcast(ctx, message.Text); err != nil {
			m.logger.Error("notification delivery failed", "error", err.Error())
		} else if message.Startup {
			m.baselineSent = true
		}
	}

	if len(result.Transitions) > 0 {
		m.logger.Info("availability changed", "transitions", len(result.Transitions))
	}

	if err := m.store.Save(ctx, current); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
