package models

import (
	"time"
)

// PricePoint represents a single interval's price data.
// Immutable once fetched.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is an ordered sequence of PricePoints for one symbol over a
// requested period/interval. Points are ascending by date with no duplicate
// timestamps. A series may be shorter than requested when history is short;
// any gaps reflect source data only.
type PriceSeries struct {
	Symbol    string       `json:"symbol"`
	Type      AssetType    `json:"type"`
	Period    string       `json:"period"`   // e.g. "1mo", "3mo", "1y"
	Interval  string       `json:"interval"` // e.g. "1d"
	Points    []PricePoint `json:"points"`
	FetchedAt time.Time    `json:"fetched_at"`
	Stale     bool         `json:"stale,omitempty"` // served from an expired cache entry after a provider failure
}

// Closes returns the closing prices in ascending date order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// LatestClose returns the most recent close, or false when the series is empty.
func (s *PriceSeries) LatestClose() (float64, bool) {
	if len(s.Points) == 0 {
		return 0, false
	}
	return s.Points[len(s.Points)-1].Close, true
}

// Returns computes simple percentage returns between consecutive closes.
// A series with fewer than two points yields an empty slice.
func (s *PriceSeries) Returns() []float64 {
	if len(s.Points) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(s.Points)-1)
	for i := 1; i < len(s.Points); i++ {
		prev := s.Points[i-1].Close
		if prev == 0 {
			continue
		}
		returns = append(returns, (s.Points[i].Close-prev)/prev)
	}
	return returns
}

// SeriesKey identifies a cached series by the full request tuple.
type SeriesKey struct {
	Symbol   string
	Type     AssetType
	Period   string
	Interval string
}

// Quote holds a current price snapshot for a symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_pct"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}
