// Package interfaces defines service contracts for Folio
package interfaces

import (
	"context"

	"github.com/bobmcallan/folio/internal/models"
)

// MarketDataClient provides access to the market data provider.
type MarketDataClient interface {
	// FetchSeries retrieves an ordered price series for a symbol.
	// Fails with *models.ProviderError on provider-side problems.
	FetchSeries(ctx context.Context, key models.SeriesKey) (*models.PriceSeries, error)

	// GetQuote retrieves the current quote for a symbol.
	GetQuote(ctx context.Context, symbol string, assetType models.AssetType) (*models.Quote, error)
}

// AdvisorClient generates prose from a prompt.
type AdvisorClient interface {
	// GenerateContent generates AI content from a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)

	// Model returns the model identifier in use.
	Model() string
}
