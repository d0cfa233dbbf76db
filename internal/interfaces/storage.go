package interfaces

import (
	"context"

	"github.com/bobmcallan/folio/internal/models"
)

// PositionStore manages durable held-position records.
type PositionStore interface {
	// AddPosition persists a new position and returns it with identity set.
	AddPosition(ctx context.Context, position *models.Position) error

	// GetPosition retrieves a position by ID.
	// Returns models.ErrPositionNotFound when absent.
	GetPosition(ctx context.Context, id string) (*models.Position, error)

	// UpdatePosition mutates quantity and/or cost basis of an existing position.
	UpdatePosition(ctx context.Context, position *models.Position) error

	// DeletePosition removes a position by ID.
	DeletePosition(ctx context.Context, id string) error

	// ListPositions returns all positions in insertion order.
	ListPositions(ctx context.Context) ([]*models.Position, error)

	Close() error
}

// SeriesCache caches fetched price series keyed by the full request tuple.
type SeriesCache interface {
	// Get returns the series for key, fetching through the provider on miss
	// or expiry. On provider failure it serves the most recent expired entry
	// with the Stale flag set, or models.ErrDataUnavailable when none exists.
	Get(ctx context.Context, key models.SeriesKey) (*models.PriceSeries, error)

	// Len reports the number of cached entries.
	Len() int
}
