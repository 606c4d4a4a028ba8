package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"seatwatch/internal/config"
	"seatwatch/internal/domain"

	"github.com/nats-io/nats.go"
)

// NATSStore persists the snapshot in a JetStream KV bucket, keyed by the
// watched month, so a restarted or relocated watcher resumes without
// re-announcing the baseline.
// Params: NATS connection, KV bucket handle, and month key.
// Returns: KV-backed store implementation.
type NATSStore struct {
	nc     *nats.Conn
	kv     nats.KeyValue
	key    string
	logger *slog.Logger
}

// NewNATSStore connects to NATS and opens the snapshot bucket.
// Params: NATS settings from config, watched month, and service logger.
// Returns: initialized NATS store or setup error.
func NewNATSStore(settings config.NATSStateConfig, month domain.Month, logger *slog.Logger) (*NATSStore, error) {
	nc, err := nats.Connect(strings.Join(settings.URL, ","))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	kv, err := js.KeyValue(settings.Bucket)
	if err != nil {
		if !settings.AllowCreateBucket {
			nc.Close()
			return nil, fmt.Errorf("open snapshot bucket %q: %w", settings.Bucket, err)
		}
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket: settings.Bucket,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("create snapshot bucket %q: %w", settings.Bucket, err)
		}
	}

	return &NATSStore{
		nc:     nc,
		kv:     kv,
		key:    month.Key(),
		logger: logger,
	}, nil
}

// Load reads and decodes the month's snapshot entry.
// Params: context (unused, KV get).
// Returns: snapshot and found=true, or found=false when the key is
// missing or its value does not decode; decode failures are logged.
func (s *NATSStore) Load(_ context.Context) (domain.StatusMap, bool, error) {
	entry, err := s.kv.Get(s.key)
	if err != nil {
		if err == nats.ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get snapshot: %w", err)
	}

	var snapshot domain.StatusMap
	if err := json.Unmarshal(entry.Value(), &snapshot); err != nil {
		s.logger.Warn("discarding corrupt snapshot entry", "bucket", s.kv.Bucket(), "key", s.key, "error", err)
		return nil, false, nil
	}
	return snapshot, true, nil
}

// Save writes the snapshot entry unconditionally.
// Params: context (unused) and snapshot to persist.
// Returns: encode or KV put error.
func (s *NATSStore) Save(_ context.Context, snapshot domain.StatusMap) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.kv.Put(s.key, body); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying NATS connection.
// Params: none.
// Returns: nil after connection close.
func (s *NATSStore) Close() error {
	s.nc.Close()
	return nil
}
