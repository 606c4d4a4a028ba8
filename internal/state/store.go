// Package state persists the last observed calendar snapshot between cycles.
package state

import (
	"context"

	"seatwatch/internal/domain"
)

// Store provides snapshot persistence for one watched month.
// Params: load/save for the month's status map.
// Returns: backend persistence behavior.
//
// Load reports found=false when no usable snapshot exists; a corrupt or
// unreadable snapshot counts as absent so the next cycle re-baselines
// instead of wedging the loop.
type Store interface {
	Load(ctx context.Context) (domain.StatusMap, bool, error)
	Save(ctx context.Context, snapshot domain.StatusMap) error
	Close() error
}
