package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

type positionStorage struct {
	store  *Store
	logger *common.Logger
}

// NewPositionStorage creates a PositionStore backed by BadgerHold.
func NewPositionStorage(store *Store, logger *common.Logger) interfaces.PositionStore {
	return &positionStorage{store: store, logger: logger}
}

func (s *positionStorage) AddPosition(_ context.Context, position *models.Position) error {
	now := time.Now()
	position.CreatedAt = now
	position.UpdatedAt = now

	if err := s.store.db.Insert(position.ID, position); err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("position '%s' already exists", position.ID)
		}
		return fmt.Errorf("failed to add position: %w", err)
	}
	s.logger.Debug().Str("id", position.ID).Str("symbol", position.Symbol).Msg("Position added")
	return nil
}

func (s *positionStorage) GetPosition(_ context.Context, id string) (*models.Position, error) {
	var position models.Position
	err := s.store.db.Get(id, &position)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to get position '%s': %w", id, err)
	}
	return &position, nil
}

func (s *positionStorage) UpdatePosition(_ context.Context, position *models.Position) error {
	position.UpdatedAt = time.Now()

	err := s.store.db.Update(position.ID, position)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrPositionNotFound
		}
		return fmt.Errorf("failed to update position '%s': %w", position.ID, err)
	}
	s.logger.Debug().Str("id", position.ID).Msg("Position updated")
	return nil
}

func (s *positionStorage) DeletePosition(_ context.Context, id string) error {
	err := s.store.db.Delete(id, models.Position{})
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrPositionNotFound
		}
		return fmt.Errorf("failed to delete position '%s': %w", id, err)
	}
	s.logger.Debug().Str("id", id).Msg("Position deleted")
	return nil
}

func (s *positionStorage) ListPositions(_ context.Context) ([]*models.Position, error) {
	var positions []models.Position
	if err := s.store.db.Find(&positions, nil); err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	// Badger iterates in key order; callers expect insertion order.
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].CreatedAt.Before(positions[j].CreatedAt)
	})

	result := make([]*models.Position, len(positions))
	for i := range positions {
		result[i] = &positions[i]
	}
	return result, nil
}

func (s *positionStorage) Close() error {
	return s.store.Close()
}

// Ensure positionStorage implements PositionStore
var _ interfaces.PositionStore = (*positionStorage)(nil)
