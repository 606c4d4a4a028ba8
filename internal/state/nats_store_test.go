package state

import (
	"context"
	"os"
	"testing"
	"time"

	"seatwatch/internal/config"
	"seatwatch/internal/domain"
)

func TestNATSStoreRoundTripIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skip integration test in short mode")
	}
	url := os.Getenv("SEATWATCH_NATS_URL")
	if url == "" {
		t.Skip("SEATWATCH_NATS_URL not set; requires a JetStream-enabled server")
	}

	month := domain.Month{Year: 2026, Month: time.February}
	store, err := NewNATSStore(config.NATSStateConfig{
		URL:               []string{url},
		Bucket:            "seatwatch_test",
		AllowCreateBucket: true,
	}, month, testLogger())
	if err != nil {
		t.Fatalf("new nats store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	saved := testSnapshot()
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, found, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatal("expected snapshot after save")
	}
	if !loaded.Equal(saved) {
		t.Fatalf("round trip changed snapshot:\nsaved=%v\nloaded=%v", saved, loaded)
	}
}
