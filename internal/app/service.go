package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"seatwatch/internal/clock"
	"seatwatch/internal/config"
	"seatwatch/internal/domain"
	"seatwatch/internal/extract"
	"seatwatch/internal/fetch"
	"seatwatch/internal/logging"
	"seatwatch/internal/notify"
	"seatwatch/internal/report"
	"seatwatch/internal/state"
)

// Service composes runtime dependencies and process lifecycle.
// Params: config source and shared runtime components.
// Returns: runnable watch service.
type Service struct {
	cfg       config.Config
	logger    *slog.Logger
	closeLog  func()
	store     state.Store
	monitor   *Monitor
	httpSrv   *http.Server
	readyFlag atomic.Bool
	clock     clock.Clock
}

// NewService builds a service instance from a config source.
// Params: config source and clock implementation.
// Returns: initialized service or setup error.
func NewService(source config.ConfigSource, clk clock.Clock) (*Service, error) {
	cfg, err := config.LoadSnapshot(source)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	month, err := cfg.Watch.TargetMonth()
	if err != nil {
		closeLog()
		return nil, err
	}

	store, err := buildStore(cfg, month, logger)
	if err != nil {
		closeLog()
		return nil, err
	}

	extractor := extract.New(month, extract.Options{
		DateParam:   cfg.Watch.DateParam,
		Locator:     extract.PositionalTableLocator{Index: cfg.Watch.CalendarTableIndex},
		MinDayLinks: cfg.Watch.MinDayLinks,
		Logger:      logger,
	})
	fetcher := fetch.NewHTTPFetcher(cfg.Watch.URL, cfg.Watch.FetchTimeout(), cfg.Watch.UserAgent)
	reporter := report.New(month, cfg.Watch.URL)
	dispatcher := notify.NewDispatcher(cfg.Notify, logger)
	monitor := NewMonitor(fetcher, extractor, store, reporter, dispatcher, logger)

	service := &Service{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		store:    store,
		monitor:  monitor,
		clock:    clk,
	}
	service.buildHTTPServer()
	return service, nil
}

// Run starts the watch loop and blocks until a shutdown signal.
// One cycle runs immediately; the ticker paces the rest. An in-flight
// cycle finishes before shutdown completes because the select only
// reacts between cycles.
// Params: root context for service runtime.
// Returns: terminal run error.
func (s *Service) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	if s.httpSrv != nil {
		go func() {
			s.logger.Info("health server starting", "listen", s.httpSrv.Addr)
			err := s.httpSrv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	s.readyFlag.Store(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	s.logger.Info("watch loop starting",
		"url", s.cfg.Watch.URL,
		"month", s.cfg.Watch.Month,
		"interval", s.cfg.CheckInterval().String())

	ticker := time.NewTicker(s.cfg.CheckInterval())
	defer ticker.Stop()

	s.runCycleLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return s.shutdown()
		case err := <-errChan:
			_ = s.shutdown()
			return fmt.Errorf("health server failed: %w", err)
		case <-sigChan:
			s.logger.Info("shutdown signal received")
			return s.shutdown()
		case <-ticker.C:
			s.runCycleLogged(ctx)
		}
	}
}

// runCycleLogged runs one cycle and reports errors without stopping
// the loop; a bad page or flaky network should never kill the watcher.
// Params: loop context.
// Returns: none.
func (s *Service) runCycleLogged(ctx context.Context) {
	started := s.clock.Now()
	if err := s.monitor.RunCycle(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Error("watch cycle failed", "error", err.Error())
		return
	}
	s.logger.Debug("watch cycle finished", "elapsed", time.Since(started).String())
}

// shutdown closes runtime resources in dependency order.
// Params: none.
// Returns: first close error.
func (s *Service) shutdown() error {
	s.readyFlag.Store(false)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var firstErr error
	markErr := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("health server shutdown failed", "error", err.Error())
			markErr(fmt.Errorf("health server shutdown: %w", err))
		}
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("store close failed", "error", err.Error())
		markErr(fmt.Errorf("store close: %w", err))
	}
	if s.closeLog != nil {
		s.closeLog()
	}
	return firstErr
}

// buildHTTPServer wires health and readiness endpoints when enabled.
// Params: none.
// Returns: httpSrv left nil when the health server is disabled.
func (s *Service) buildHTTPServer() {
	if !s.cfg.Service.HTTP.Enabled {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Service.HTTP.HealthPath, func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte("ok"))
	})
	mux.HandleFunc(s.cfg.Service.HTTP.ReadyPath, func(writer http.ResponseWriter, _ *http.Request) {
		if !s.readyFlag.Load() {
			writer.WriteHeader(http.StatusServiceUnavailable)
			_, _ = writer.Write([]byte("not-ready"))
			return
		}
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte("ready"))
	})

	s.httpSrv = &http.Server{
		Addr:              s.cfg.Service.HTTP.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// buildStore creates the snapshot backend from config.
// Params: root config snapshot, watched month, and service logger.
// Returns: selected store backend.
func buildStore(cfg config.Config, month domain.Month, logger *slog.Logger) (state.Store, error) {
	switch cfg.State.Backend {
	case config.StateBackendMemory:
		return state.NewMemoryStore(), nil
	case config.StateBackendNATS:
		return state.NewNATSStore(cfg.State.NATS, month, logger)
	default:
		return state.NewFileStore(cfg.State.Path, logger)
	}
}
