package models

import (
	"time"
)

// TrendType classifies overall direction
type TrendType string

const (
	TrendBullish TrendType = "Bullish"
	TrendBearish TrendType = "Bearish"
	TrendNeutral TrendType = "Neutral"
)

// IndicatorSet is a derived, immutable snapshot of technical indicators for
// one price series. A nil field means the series was too short to compute
// that indicator — never conflated with a valid zero.
type IndicatorSet struct {
	RSI        *float64 `json:"rsi"`
	SMA20      *float64 `json:"sma_20"`
	SMA50      *float64 `json:"sma_50"`
	MACD       *float64 `json:"macd"`
	MACDSignal *float64 `json:"macd_signal"`
}

// RiskMetrics holds portfolio-level risk figures, recomputed on every request.
type RiskMetrics struct {
	Volatility           float64 `json:"volatility"`            // annualized, percent, non-negative
	DiversificationScore float64 `json:"diversification_score"` // 0-100, higher = more diversified
}

// PerformanceMetrics holds portfolio-level performance figures.
type PerformanceMetrics struct {
	SharpeRatio float64 `json:"sharpe_ratio"` // annualized, 2% risk-free rate
	Beta        float64 `json:"beta"`         // vs the benchmark index; 0 when the benchmark is unavailable
}

// ValuationRecord is the computed valuation view of a single position.
type ValuationRecord struct {
	PositionID      string  `json:"position_id"`
	Symbol          string  `json:"symbol"`
	Quantity        float64 `json:"quantity"`
	PurchasePrice   float64 `json:"purchase_price"`
	CurrentPrice    float64 `json:"current_price"`
	CurrentValue    float64 `json:"current_value"`
	GainLoss        float64 `json:"gain_loss"`
	GainLossPercent float64 `json:"gain_loss_percent"`
	Stale           bool    `json:"stale"`       // priced from an expired cache entry
	Unavailable     bool    `json:"unavailable"` // no price at all — excluded from totals
}

// PortfolioSummary is the composite valuation of the whole portfolio.
// Pure computed view with no independent lifecycle — recreated per request.
type PortfolioSummary struct {
	TotalPortfolioValue  float64            `json:"total_portfolio_value"`
	TotalCostBasis       float64            `json:"total_cost_basis"`
	TotalGainLoss        float64            `json:"total_gain_loss"`
	TotalGainLossPercent float64            `json:"total_gain_loss_percent"`
	AssetValues          []ValuationRecord  `json:"asset_values"`
	RiskMetrics          RiskMetrics        `json:"risk_metrics"`
	PerformanceMetrics   PerformanceMetrics `json:"performance_metrics"`
	Partial              bool               `json:"partial"` // one or more positions failed valuation
	GeneratedAt          time.Time          `json:"generated_at"`
}

// PriceMetrics holds current price figures for a single asset.
type PriceMetrics struct {
	CurrentPrice float64 `json:"current_price"`
	PriceChange  float64 `json:"price_change"` // latest daily return, percent
	Volatility   float64 `json:"volatility"`   // annualized, percent
	MaxDrawdown  float64 `json:"max_drawdown"` // largest peak-to-trough decline, percent
}

// VolumeAnalysis summarizes recent trading volume.
type VolumeAnalysis struct {
	AverageVolume float64 `json:"average_volume"`
	VolumeTrend   string  `json:"volume_trend"` // "Up", "Down", "Unknown"
}

// AssetAnalysis is the full analysis of one asset.
type AssetAnalysis struct {
	Symbol              string         `json:"symbol"`
	Type                AssetType      `json:"type"`
	PriceMetrics        PriceMetrics   `json:"price_metrics"`
	TechnicalIndicators IndicatorSet   `json:"technical_indicators"`
	VolumeAnalysis      VolumeAnalysis `json:"volume_analysis"`
	Stale               bool           `json:"stale"`
	GeneratedAt         time.Time      `json:"generated_at"`
}

// MarketConditions is a snapshot of overall market state derived from
// benchmark series.
type MarketConditions struct {
	MarketTrend     TrendType `json:"market_trend"`
	VolatilityLevel string    `json:"volatility_level"` // "High" or "Low" from the VIX threshold
	SpyPerformance  float64   `json:"spy_performance"`  // mean daily return, percent
	VixLevel        float64   `json:"vix_level"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// InvestmentAdvice is the AI-generated narrative over engine outputs.
type InvestmentAdvice struct {
	Summary     string    `json:"summary"`
	GeneratedAt time.Time `json:"generated_at"`
	Model       string    `json:"model,omitempty"`
}
