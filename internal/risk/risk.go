// Package risk computes portfolio-level risk metrics.
//
// Both metrics are pure functions of the current position values and their
// historical return series, recomputed in full on every call.
package risk

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization constant for daily returns.
const TradingDaysPerYear = 252

// RiskFreeRate is the annual risk-free rate assumed for the Sharpe ratio.
const RiskFreeRate = 0.02

// AssetReturns pairs a position's market value with its daily return series.
type AssetReturns struct {
	Value   float64   // current market value, used for weighting
	Returns []float64 // simple daily returns, ascending by date
}

// PortfolioReturns builds the portfolio's weighted daily return series.
// Weights are each asset's fraction of total value at computation time.
// Series of unequal length are aligned on their most recent observations and
// truncated to the shortest; assets with no history contribute nothing.
func PortfolioReturns(assets []AssetReturns) []float64 {
	total := 0.0
	withHistory := make([]AssetReturns, 0, len(assets))
	for _, a := range assets {
		if a.Value <= 0 || len(a.Returns) == 0 {
			continue
		}
		total += a.Value
		withHistory = append(withHistory, a)
	}
	if total == 0 || len(withHistory) == 0 {
		return nil
	}

	minLen := len(withHistory[0].Returns)
	for _, a := range withHistory[1:] {
		if len(a.Returns) < minLen {
			minLen = len(a.Returns)
		}
	}

	portfolio := make([]float64, minLen)
	for _, a := range withHistory {
		weight := a.Value / total
		tail := a.Returns[len(a.Returns)-minLen:]
		for i, r := range tail {
			portfolio[i] += weight * r
		}
	}
	return portfolio
}

// AnnualizedVolatility returns the annualized standard deviation of a daily
// return series, as a percentage. Zero or one observation yields 0.
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	sd := stat.StdDev(dailyReturns, nil)
	if math.IsNaN(sd) {
		return 0
	}
	return sd * math.Sqrt(TradingDaysPerYear) * 100
}

// SharpeRatio returns the annualized Sharpe ratio of a daily return series,
// assuming the RiskFreeRate. Fewer than two observations or a flat series
// yields 0.
func SharpeRatio(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	sd := stat.StdDev(dailyReturns, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	excess := stat.Mean(dailyReturns, nil) - RiskFreeRate/TradingDaysPerYear
	return math.Sqrt(TradingDaysPerYear) * excess / sd
}

// Beta returns the portfolio's beta against a benchmark return series.
// Series of unequal length are aligned on their most recent observations.
// Fewer than two overlapping observations or a flat benchmark yields 0.
func Beta(portfolio, market []float64) float64 {
	n := min(len(portfolio), len(market))
	if n < 2 {
		return 0
	}
	p := portfolio[len(portfolio)-n:]
	m := market[len(market)-n:]

	marketVariance := stat.Variance(m, nil)
	if marketVariance == 0 || math.IsNaN(marketVariance) {
		return 0
	}
	return stat.Covariance(p, m, nil) / marketVariance
}

// MaxDrawdown returns the largest peak-to-trough decline of a price series,
// as a positive percentage. Fewer than two prices yields 0.
func MaxDrawdown(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}
	peak := closes[0]
	worst := 0.0
	for _, c := range closes[1:] {
		if c > peak {
			peak = c
			continue
		}
		if peak > 0 {
			if dd := (peak - c) / peak * 100; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// DiversificationScore returns 100 × (1 − Herfindahl index) over position
// value weights. A single-position portfolio scores 0; an evenly split
// N-position portfolio approaches 100 × (1 − 1/N). An empty portfolio
// scores 0.
func DiversificationScore(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	if total == 0 {
		return 0
	}

	herfindahl := 0.0
	for _, v := range values {
		if v <= 0 {
			continue
		}
		w := v / total
		herfindahl += w * w
	}
	return 100 * (1 - herfindahl)
}

// MeanReturn returns the arithmetic mean of a return series, or 0 when empty.
func MeanReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return stat.Mean(returns, nil)
}
