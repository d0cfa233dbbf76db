// Package indicators provides technical indicator calculations.
//
// All functions operate on closing prices ordered ascending by date and are
// pure: the same input always yields the same output. An indicator that
// cannot be computed from the available history returns nil — never a zero
// that could be mistaken for a valid value.
package indicators

import (
	"github.com/bobmcallan/folio/internal/models"
)

// Standard windows
const (
	RSIPeriod        = 14
	SMAShortPeriod   = 20
	SMALongPeriod    = 50
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9

	// MinMACDPoints is the history needed to seed the slow EMA.
	MinMACDPoints = MACDSlowPeriod
	// MinSignalPoints is the history needed before the signal line is reported.
	MinSignalPoints = MACDSlowPeriod + MACDSignalPeriod
)

// Compute derives the full indicator set from a closing-price sequence.
func Compute(closes []float64) models.IndicatorSet {
	macd, signal := MACD(closes, MACDFastPeriod, MACDSlowPeriod, MACDSignalPeriod)
	return models.IndicatorSet{
		RSI:        RSI(closes, RSIPeriod),
		SMA20:      SMA(closes, SMAShortPeriod),
		SMA50:      SMA(closes, SMALongPeriod),
		MACD:       macd,
		MACDSignal: signal,
	}
}

// SMA calculates the Simple Moving Average over the last period closes.
// Returns nil when fewer than period points exist.
func SMA(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}

	sum := 0.0
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	v := sum / float64(period)
	return &v
}

// emaSeries calculates the Exponential Moving Average sequence with the
// standard smoothing constant 2/(period+1), seeded with the SMA of the first
// period values. The returned slice is aligned so that index i holds the EMA
// ending at closes[i+period-1].
func emaSeries(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}

	multiplier := 2.0 / float64(period+1)

	seed := 0.0
	for _, c := range closes[:period] {
		seed += c
	}
	seed /= float64(period)

	out := make([]float64, 0, len(closes)-period+1)
	out = append(out, seed)

	ema := seed
	for _, c := range closes[period:] {
		ema = (c-ema)*multiplier + ema
		out = append(out, ema)
	}
	return out
}

// EMA calculates the Exponential Moving Average over the full series.
// Returns nil when fewer than period points exist.
func EMA(closes []float64, period int) *float64 {
	series := emaSeries(closes, period)
	if series == nil {
		return nil
	}
	v := series[len(series)-1]
	return &v
}

// RSI calculates the Relative Strength Index using Wilder's smoothing:
// the first average gain/loss is a simple mean over the initial period,
// every subsequent change is folded in with weight 1/period. Requires
// period+1 points; clamps to [0,100]; all-gain series yields 100.
func RSI(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		v := 100.0
		return &v
	}

	rs := avgGain / avgLoss
	v := 100.0 - 100.0/(1.0+rs)
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return &v
}

// MACD calculates the Moving Average Convergence Divergence line
// (EMA(fast) − EMA(slow) of closes) and its signal line (EMA(signalPeriod)
// of the MACD line). The MACD line is nil until the slow EMA can be seeded;
// the signal is nil until slow+signal periods of history exist.
func MACD(closes []float64, fastPeriod, slowPeriod, signalPeriod int) (macd, signal *float64) {
	if len(closes) < slowPeriod {
		return nil, nil
	}

	fastEMA := emaSeries(closes, fastPeriod)
	slowEMA := emaSeries(closes, slowPeriod)

	// Both EMA sequences end at the latest close; align them from the back.
	n := len(slowEMA)
	macdLine := make([]float64, n)
	offset := len(fastEMA) - n
	for i := 0; i < n; i++ {
		macdLine[i] = fastEMA[offset+i] - slowEMA[i]
	}

	m := macdLine[n-1]
	macd = &m

	if len(closes) < slowPeriod+signalPeriod {
		return macd, nil
	}
	signalSeries := emaSeries(macdLine, signalPeriod)
	if signalSeries == nil {
		return macd, nil
	}
	s := signalSeries[len(signalSeries)-1]
	return macd, &s
}

// LatestChangePct returns the most recent close-to-close percentage change,
// or nil when fewer than two points exist.
func LatestChangePct(closes []float64) *float64 {
	if len(closes) < 2 || closes[len(closes)-2] == 0 {
		return nil
	}
	prev := closes[len(closes)-2]
	v := (closes[len(closes)-1] - prev) / prev * 100
	return &v
}
