package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/folio/internal/models"
)

func testPosition(symbol string, quantity, purchasePrice float64) *models.Position {
	return &models.Position{
		ID:            "pos-" + symbol,
		Symbol:        symbol,
		Type:          models.AssetTypeEquity,
		Quantity:      quantity,
		PurchasePrice: purchasePrice,
	}
}

func TestValue(t *testing.T) {
	tests := []struct {
		name          string
		quantity      float64
		purchasePrice float64
		currentPrice  float64
		wantValue     float64
		wantGainLoss  float64
		wantGainPct   float64
	}{
		{
			name:          "gain",
			quantity:      10,
			purchasePrice: 100,
			currentPrice:  150,
			wantValue:     1500,
			wantGainLoss:  500,
			wantGainPct:   50,
		},
		{
			name:          "loss",
			quantity:      4,
			purchasePrice: 50,
			currentPrice:  40,
			wantValue:     160,
			wantGainLoss:  -40,
			wantGainPct:   -20,
		},
		{
			name:          "price equals cost basis",
			quantity:      8,
			purchasePrice: 25,
			currentPrice:  25,
			wantValue:     200,
			wantGainLoss:  0,
			wantGainPct:   0,
		},
		{
			name:          "zero cost basis reports zero percent",
			quantity:      3,
			purchasePrice: 0,
			currentPrice:  10,
			wantValue:     30,
			wantGainLoss:  30,
			wantGainPct:   0,
		},
		{
			name:          "fractional crypto quantity",
			quantity:      0.5,
			purchasePrice: 40000,
			currentPrice:  44000,
			wantValue:     22000,
			wantGainLoss:  2000,
			wantGainPct:   10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := testPosition("TST", tt.quantity, tt.purchasePrice)
			got := Value(pos, tt.currentPrice, false)

			assert.Equal(t, pos.ID, got.PositionID)
			assert.Equal(t, pos.Symbol, got.Symbol)
			assert.InDelta(t, tt.wantValue, got.CurrentValue, 1e-9)
			assert.InDelta(t, tt.wantGainLoss, got.GainLoss, 1e-9)
			assert.InDelta(t, tt.wantGainPct, got.GainLossPercent, 1e-9)
			assert.False(t, got.Stale)
			assert.False(t, got.Unavailable)
		})
	}
}

func TestValue_StaleFlagCarriedThrough(t *testing.T) {
	got := Value(testPosition("AAPL", 1, 100), 120, true)
	assert.True(t, got.Stale)
	assert.InDelta(t, 120.0, got.CurrentValue, 1e-9)
}

func TestUnavailable(t *testing.T) {
	pos := testPosition("MISSING", 5, 80)
	got := Unavailable(pos, 75)

	assert.True(t, got.Unavailable)
	assert.Equal(t, pos.ID, got.PositionID)
	assert.InDelta(t, 75.0, got.CurrentPrice, 1e-9)
	assert.Zero(t, got.CurrentValue)
	assert.Zero(t, got.GainLoss)
}

func TestAggregate(t *testing.T) {
	records := []models.ValuationRecord{
		Value(testPosition("AAPL", 10, 100), 150, false),
		Value(testPosition("MSFT", 5, 200), 180, false),
	}

	summary := Aggregate(records)

	assert.InDelta(t, 1500+900, summary.TotalPortfolioValue, 1e-9)
	assert.InDelta(t, 1000+1000, summary.TotalCostBasis, 1e-9)
	assert.InDelta(t, 400, summary.TotalGainLoss, 1e-9)
	assert.InDelta(t, 20, summary.TotalGainLossPercent, 1e-9)
	assert.False(t, summary.Partial)
	require.Len(t, summary.AssetValues, 2)
}

func TestAggregate_ExcludesUnavailableFromTotals(t *testing.T) {
	records := []models.ValuationRecord{
		Value(testPosition("AAPL", 10, 100), 150, false),
		Unavailable(testPosition("GHOST", 100, 999), 0),
	}

	summary := Aggregate(records)

	assert.True(t, summary.Partial)
	assert.InDelta(t, 1500, summary.TotalPortfolioValue, 1e-9)
	assert.InDelta(t, 1000, summary.TotalCostBasis, 1e-9)
	require.Len(t, summary.AssetValues, 2, "unavailable records stay listed")
}

func TestAggregate_Empty(t *testing.T) {
	summary := Aggregate(nil)

	assert.Zero(t, summary.TotalPortfolioValue)
	assert.Zero(t, summary.TotalCostBasis)
	assert.Zero(t, summary.TotalGainLoss)
	assert.Zero(t, summary.TotalGainLossPercent)
	assert.False(t, summary.Partial)
}
