package interfaces

import (
	"context"

	"github.com/bobmcallan/folio/internal/models"
)

// PortfolioService manages position records.
type PortfolioService interface {
	// AddPosition validates and stores a new position.
	AddPosition(ctx context.Context, req AddPositionRequest) (*models.Position, error)

	// UpdatePosition mutates quantity and/or purchase price of a position.
	UpdatePosition(ctx context.Context, id string, req UpdatePositionRequest) (*models.Position, error)

	// RemovePosition deletes a position.
	RemovePosition(ctx context.Context, id string) error

	// GetPosition retrieves a single position.
	GetPosition(ctx context.Context, id string) (*models.Position, error)

	// ListPositions returns all held positions.
	ListPositions(ctx context.Context) ([]*models.Position, error)
}

// AddPositionRequest carries the fields for a new position.
type AddPositionRequest struct {
	Symbol        string  `json:"symbol"`
	Type          string  `json:"type"`
	Name          string  `json:"name,omitempty"`
	Quantity      float64 `json:"quantity"`
	PurchasePrice float64 `json:"purchase_price"`
	Sector        string  `json:"sector,omitempty"`
}

// UpdatePositionRequest carries the mutable fields of a position.
// Nil fields are left unchanged.
type UpdatePositionRequest struct {
	Quantity      *float64 `json:"quantity,omitempty"`
	PurchasePrice *float64 `json:"purchase_price,omitempty"`
}

// AnalysisService derives analytics from positions and price series.
type AnalysisService interface {
	// GetPortfolioSummary values every position and computes portfolio risk.
	// A single failing asset never aborts the summary — it is flagged
	// unavailable and the summary is marked partial.
	GetPortfolioSummary(ctx context.Context, positions []*models.Position) (*models.PortfolioSummary, error)

	// GetAssetAnalysis computes price metrics and the full indicator set for
	// one asset.
	GetAssetAnalysis(ctx context.Context, symbol string, assetType models.AssetType) (*models.AssetAnalysis, error)

	// GetMarketConditions classifies overall market state from benchmark series.
	GetMarketConditions(ctx context.Context) (*models.MarketConditions, error)

	// RenderAssetChart renders a PNG close-price chart with an SMA overlay.
	RenderAssetChart(ctx context.Context, symbol string, assetType models.AssetType) ([]byte, error)
}

// AdvisorService turns engine outputs into prose.
type AdvisorService interface {
	// GetInvestmentAdvice generates narrative advice for a portfolio summary.
	GetInvestmentAdvice(ctx context.Context, summary *models.PortfolioSummary) (*models.InvestmentAdvice, error)

	// GetMarketSentiment generates narrative commentary on market conditions.
	GetMarketSentiment(ctx context.Context, conditions *models.MarketConditions) (*models.InvestmentAdvice, error)

	// GetAssetRecommendations generates diversification recommendations for a
	// portfolio and risk profile.
	GetAssetRecommendations(ctx context.Context, summary *models.PortfolioSummary, riskProfile string) (*models.InvestmentAdvice, error)
}
