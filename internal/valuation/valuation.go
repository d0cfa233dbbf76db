// Package valuation combines held positions with current prices to produce
// per-asset and portfolio-level valuation views.
package valuation

import (
	"github.com/bobmcallan/folio/internal/models"
)

// Value computes the valuation record for one position at the given price.
// A zero cost basis reports 0% gain/loss rather than dividing by zero.
func Value(position *models.Position, currentPrice float64, stale bool) models.ValuationRecord {
	currentValue := position.Quantity * currentPrice
	costBasis := position.CostBasis()
	gainLoss := currentValue - costBasis

	gainLossPct := 0.0
	if costBasis > 0 {
		gainLossPct = gainLoss / costBasis * 100
	}

	return models.ValuationRecord{
		PositionID:      position.ID,
		Symbol:          position.Symbol,
		Quantity:        position.Quantity,
		PurchasePrice:   position.PurchasePrice,
		CurrentPrice:    currentPrice,
		CurrentValue:    currentValue,
		GainLoss:        gainLoss,
		GainLossPercent: gainLossPct,
		Stale:           stale,
	}
}

// Unavailable builds the record for a position whose quote could not be
// retrieved. lastKnownPrice may be 0 when no cached value exists either.
func Unavailable(position *models.Position, lastKnownPrice float64) models.ValuationRecord {
	return models.ValuationRecord{
		PositionID:    position.ID,
		Symbol:        position.Symbol,
		Quantity:      position.Quantity,
		PurchasePrice: position.PurchasePrice,
		CurrentPrice:  lastKnownPrice,
		Unavailable:   true,
	}
}

// Aggregate sums valuation records into portfolio totals. Unavailable
// records are excluded from totals and mark the summary partial.
func Aggregate(records []models.ValuationRecord) models.PortfolioSummary {
	summary := models.PortfolioSummary{
		AssetValues: records,
	}

	for _, r := range records {
		if r.Unavailable {
			summary.Partial = true
			continue
		}
		summary.TotalPortfolioValue += r.CurrentValue
		summary.TotalCostBasis += r.Quantity * r.PurchasePrice
	}

	summary.TotalGainLoss = summary.TotalPortfolioValue - summary.TotalCostBasis
	if summary.TotalCostBasis > 0 {
		summary.TotalGainLossPercent = summary.TotalGainLoss / summary.TotalCostBasis * 100
	}

	return summary
}
