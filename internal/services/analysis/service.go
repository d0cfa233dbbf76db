// Package analysis coordinates series resolution, indicator and risk
// computation, and valuation into the composite results callers consume.
package analysis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bobmcallan/folio/internal/cache"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/indicators"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/risk"
	"github.com/bobmcallan/folio/internal/valuation"
)

// Default analysis window for valuation and indicator computation.
const (
	DefaultPeriod   = "1mo"
	DefaultInterval = "1d"

	// IndicatorPeriod is the longer window used when the full indicator set
	// is requested; SMA50 and the MACD signal need more history than 1mo.
	IndicatorPeriod = "6mo"
)

// Benchmark symbols for market conditions.
const (
	BenchmarkIndex  = "SPY"
	VolatilityIndex = "^VIX"

	// VIXHighThreshold separates "High" from "Low" volatility regimes.
	VIXHighThreshold = 20.0

	// TrendThresholdPct is the mean daily benchmark return (in percent)
	// beyond which the market is classified Bullish or Bearish.
	TrendThresholdPct = 0.05
)

// Service implements AnalysisService. The shared series cache is its only
// cross-request state; every result is recomputed from inputs per request.
type Service struct {
	cache          *cache.TimeSeriesCache
	logger         *common.Logger
	maxConcurrent  int
	requestTimeout time.Duration
	now            func() time.Time // injectable clock for testing
}

// Option configures the service
type Option func(*Service)

// WithMaxConcurrent bounds the provider fetch fan-out
func WithMaxConcurrent(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrent = n
		}
	}
}

// WithRequestTimeout sets the per-request deadline
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// NewService creates a new analysis service.
func NewService(seriesCache *cache.TimeSeriesCache, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		cache:          seriesCache,
		logger:         logger,
		maxConcurrent:  5,
		requestTimeout: 30 * time.Second,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// seriesResult pairs one position's fetched series (or failure) with its
// caller-supplied slot so fan-in can restore the original order.
type seriesResult struct {
	series *models.PriceSeries
	err    error
}

// fetchAll resolves one series per position concurrently, bounded by the
// fetch semaphore. Results are indexed by the input order regardless of
// completion order.
func (s *Service) fetchAll(ctx context.Context, positions []*models.Position, period string) []seriesResult {
	results := make([]seriesResult, len(positions))

	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup

	for i, position := range positions {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = seriesResult{err: ctx.Err()}
			continue
		}
		if err := ctx.Err(); err != nil {
			// The select can hand out a slot even after cancellation;
			// give it back before bailing.
			<-sem
			results[i] = seriesResult{err: err}
			continue
		}

		wg.Add(1)
		go func(i int, position *models.Position) {
			defer wg.Done()
			defer func() { <-sem }()

			key := models.SeriesKey{
				Symbol:   position.Symbol,
				Type:     position.Type,
				Period:   period,
				Interval: DefaultInterval,
			}
			series, err := s.cache.Get(ctx, key)
			results[i] = seriesResult{series: series, err: err}
		}(i, position)
	}

	wg.Wait()
	return results
}

// GetPortfolioSummary values every position against its latest close,
// computes portfolio risk from the weighted return series, and assembles the
// composite summary. Per-asset failures are flagged on that asset's record
// and never abort the call; the summary fails outright only when every
// position is unpriceable.
func (s *Service) GetPortfolioSummary(ctx context.Context, positions []*models.Position) (*models.PortfolioSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	if len(positions) == 0 {
		summary := valuation.Aggregate(nil)
		summary.GeneratedAt = s.now()
		return &summary, nil
	}

	results := s.fetchAll(ctx, positions, DefaultPeriod)

	records := make([]models.ValuationRecord, len(positions))
	assetReturns := make([]risk.AssetReturns, 0, len(positions))
	values := make([]float64, 0, len(positions))
	priced := 0

	for i, position := range positions {
		res := results[i]
		if res.err != nil {
			records[i] = s.unavailableRecord(position, res.err)
			continue
		}

		price, ok := res.series.LatestClose()
		if !ok {
			records[i] = valuation.Unavailable(position, 0)
			continue
		}

		priced++
		records[i] = valuation.Value(position, price, res.series.Stale)

		value := position.Quantity * price
		values = append(values, value)
		assetReturns = append(assetReturns, risk.AssetReturns{
			Value:   value,
			Returns: res.series.Returns(),
		})
	}

	if priced == 0 {
		return nil, models.ErrDataUnavailable
	}

	portfolioReturns := risk.PortfolioReturns(assetReturns)

	summary := valuation.Aggregate(records)
	summary.RiskMetrics = models.RiskMetrics{
		Volatility:           risk.AnnualizedVolatility(portfolioReturns),
		DiversificationScore: risk.DiversificationScore(values),
	}
	summary.PerformanceMetrics = models.PerformanceMetrics{
		SharpeRatio: risk.SharpeRatio(portfolioReturns),
		Beta:        s.portfolioBeta(ctx, portfolioReturns),
	}
	summary.GeneratedAt = s.now()

	if summary.Partial {
		s.logger.Warn().
			Int("positions", len(positions)).
			Int("priced", priced).
			Msg("Portfolio summary is partial")
	}

	return &summary, nil
}

// portfolioBeta regresses the portfolio's daily returns against the benchmark
// index. Best effort: a missing benchmark series reports beta 0 rather than
// failing the summary.
func (s *Service) portfolioBeta(ctx context.Context, portfolioReturns []float64) float64 {
	if len(portfolioReturns) < 2 {
		return 0
	}

	market, err := s.cache.Get(ctx, models.SeriesKey{
		Symbol:   BenchmarkIndex,
		Type:     models.AssetTypeFund,
		Period:   DefaultPeriod,
		Interval: DefaultInterval,
	})
	if err != nil {
		s.logger.Warn().
			Str("symbol", BenchmarkIndex).
			Err(err).
			Msg("Benchmark unavailable, beta unreported")
		return 0
	}

	return risk.Beta(portfolioReturns, market.Returns())
}

// unavailableRecord builds the failed-valuation record for a position,
// falling back to the last cached price when one exists.
func (s *Service) unavailableRecord(position *models.Position, cause error) models.ValuationRecord {
	s.logger.Warn().
		Str("symbol", position.Symbol).
		Err(cause).
		Msg("Valuation unavailable for position")

	lastKnown := 0.0
	key := models.SeriesKey{
		Symbol:   position.Symbol,
		Type:     position.Type,
		Period:   DefaultPeriod,
		Interval: DefaultInterval,
	}
	if stale, ok := s.cache.Peek(key); ok {
		if price, hasClose := stale.LatestClose(); hasClose {
			lastKnown = price
		}
	}

	return valuation.Unavailable(position, lastKnown)
}

// GetAssetAnalysis computes price metrics, the full indicator set, and volume
// analysis for one asset.
func (s *Service) GetAssetAnalysis(ctx context.Context, symbol string, assetType models.AssetType) (*models.AssetAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	series, err := s.cache.Get(ctx, models.SeriesKey{
		Symbol:   symbol,
		Type:     assetType,
		Period:   IndicatorPeriod,
		Interval: DefaultInterval,
	})
	if err != nil {
		return nil, err
	}

	closes := series.Closes()

	currentPrice, _ := series.LatestClose()
	priceChange := 0.0
	if change := indicators.LatestChangePct(closes); change != nil {
		priceChange = *change
	}

	return &models.AssetAnalysis{
		Symbol: symbol,
		Type:   assetType,
		PriceMetrics: models.PriceMetrics{
			CurrentPrice: currentPrice,
			PriceChange:  priceChange,
			Volatility:   risk.AnnualizedVolatility(series.Returns()),
			MaxDrawdown:  risk.MaxDrawdown(closes),
		},
		TechnicalIndicators: indicators.Compute(closes),
		VolumeAnalysis:      analyzeVolume(series),
		Stale:               series.Stale,
		GeneratedAt:         s.now(),
	}, nil
}

// analyzeVolume summarizes recent trading volume for a series.
func analyzeVolume(series *models.PriceSeries) models.VolumeAnalysis {
	if len(series.Points) == 0 {
		return models.VolumeAnalysis{VolumeTrend: "Unknown"}
	}

	var sum float64
	for _, p := range series.Points {
		sum += float64(p.Volume)
	}
	avg := sum / float64(len(series.Points))

	trend := "Down"
	if float64(series.Points[len(series.Points)-1].Volume) > avg {
		trend = "Up"
	}

	return models.VolumeAnalysis{
		AverageVolume: avg,
		VolumeTrend:   trend,
	}
}

// GetMarketConditions classifies overall market state from the benchmark
// index and the volatility index.
func (s *Service) GetMarketConditions(ctx context.Context) (*models.MarketConditions, error) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	spy, spyErr := s.cache.Get(ctx, models.SeriesKey{
		Symbol:   BenchmarkIndex,
		Type:     models.AssetTypeFund,
		Period:   DefaultPeriod,
		Interval: DefaultInterval,
	})
	vix, vixErr := s.cache.Get(ctx, models.SeriesKey{
		Symbol:   VolatilityIndex,
		Type:     models.AssetTypeOther,
		Period:   DefaultPeriod,
		Interval: DefaultInterval,
	})
	if spyErr != nil && vixErr != nil {
		return nil, errors.Join(spyErr, vixErr)
	}

	conditions := &models.MarketConditions{
		MarketTrend:     models.TrendNeutral,
		VolatilityLevel: "Low",
		GeneratedAt:     s.now(),
	}

	if spyErr == nil {
		meanReturnPct := risk.MeanReturn(spy.Returns()) * 100
		conditions.SpyPerformance = meanReturnPct
		switch {
		case meanReturnPct > TrendThresholdPct:
			conditions.MarketTrend = models.TrendBullish
		case meanReturnPct < -TrendThresholdPct:
			conditions.MarketTrend = models.TrendBearish
		}
	}

	if vixErr == nil {
		if level, ok := vix.LatestClose(); ok {
			conditions.VixLevel = level
			if level > VIXHighThreshold {
				conditions.VolatilityLevel = "High"
			}
		}
	}

	return conditions, nil
}

// Ensure Service implements AnalysisService
var _ interfaces.AnalysisService = (*Service)(nil)
