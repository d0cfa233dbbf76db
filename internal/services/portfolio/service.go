// Package portfolio manages held-position records.
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// Service implements PortfolioService over a PositionStore.
type Service struct {
	store  interfaces.PositionStore
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

// NewService creates a new portfolio service.
func NewService(store interfaces.PositionStore, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// AddPosition validates and stores a new position. Unknown asset types and
// non-positive quantities are rejected here, at the boundary.
func (s *Service) AddPosition(ctx context.Context, req interfaces.AddPositionRequest) (*models.Position, error) {
	assetType, err := models.ParseAssetType(req.Type)
	if err != nil {
		return nil, err
	}

	position := &models.Position{
		ID:            uuid.NewString(),
		Symbol:        req.Symbol,
		Name:          req.Name,
		Type:          assetType,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
		PurchaseDate:  s.now(),
		Sector:        req.Sector,
	}
	if position.Name == "" {
		position.Name = position.Symbol
	}
	if position.Sector == "" && assetType == models.AssetTypeCrypto {
		position.Sector = "Cryptocurrency"
	}

	if err := position.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.AddPosition(ctx, position); err != nil {
		return nil, fmt.Errorf("failed to store position: %w", err)
	}

	s.logger.Info().
		Str("id", position.ID).
		Str("symbol", position.Symbol).
		Float64("quantity", position.Quantity).
		Msg("Position added")

	return position, nil
}

// UpdatePosition mutates quantity and/or purchase price of an existing position.
func (s *Service) UpdatePosition(ctx context.Context, id string, req interfaces.UpdatePositionRequest) (*models.Position, error) {
	position, err := s.store.GetPosition(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil {
		position.Quantity = *req.Quantity
	}
	if req.PurchasePrice != nil {
		position.PurchasePrice = *req.PurchasePrice
	}

	if err := position.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.UpdatePosition(ctx, position); err != nil {
		return nil, err
	}

	s.logger.Info().Str("id", id).Msg("Position updated")
	return position, nil
}

// RemovePosition deletes a position by ID.
func (s *Service) RemovePosition(ctx context.Context, id string) error {
	if err := s.store.DeletePosition(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("id", id).Msg("Position removed")
	return nil
}

// GetPosition retrieves a single position by ID.
func (s *Service) GetPosition(ctx context.Context, id string) (*models.Position, error) {
	return s.store.GetPosition(ctx, id)
}

// ListPositions returns all held positions in insertion order.
func (s *Service) ListPositions(ctx context.Context) ([]*models.Position, error) {
	return s.store.ListPositions(ctx)
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
