package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/folio/internal/app"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// fakePortfolio is an in-memory PortfolioService for handler tests.
type fakePortfolio struct {
	positions map[string]*models.Position
	order     []string
	nextID    int
}

func newFakePortfolio() *fakePortfolio {
	return &fakePortfolio{positions: make(map[string]*models.Position)}
}

func (f *fakePortfolio) AddPosition(_ context.Context, req interfaces.AddPositionRequest) (*models.Position, error) {
	assetType, err := models.ParseAssetType(req.Type)
	if err != nil {
		return nil, err
	}
	f.nextID++
	position := &models.Position{
		ID:            "pos-" + req.Symbol,
		Symbol:        req.Symbol,
		Name:          req.Name,
		Type:          assetType,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
	}
	if err := position.Validate(); err != nil {
		return nil, err
	}
	f.positions[position.ID] = position
	f.order = append(f.order, position.ID)
	return position, nil
}

func (f *fakePortfolio) UpdatePosition(_ context.Context, id string, req interfaces.UpdatePositionRequest) (*models.Position, error) {
	position, ok := f.positions[id]
	if !ok {
		return nil, models.ErrPositionNotFound
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
	return position, nil
}

func (f *fakePortfolio) RemovePosition(_ context.Context, id string) error {
	if _, ok := f.positions[id]; !ok {
		return models.ErrPositionNotFound
	}
	delete(f.positions, id)
	return nil
}

func (f *fakePortfolio) GetPosition(_ context.Context, id string) (*models.Position, error) {
	position, ok := f.positions[id]
	if !ok {
		return nil, models.ErrPositionNotFound
	}
	return position, nil
}

func (f *fakePortfolio) ListPositions(_ context.Context) ([]*models.Position, error) {
	out := make([]*models.Position, 0, len(f.order))
	for _, id := range f.order {
		if p, ok := f.positions[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeAnalysis returns canned results per method.
type fakeAnalysis struct {
	summary    *models.PortfolioSummary
	summaryErr error
	analysis   *models.AssetAnalysis
	conditions *models.MarketConditions
	chart      []byte
	lastSymbol string
	lastType   models.AssetType
}

func (f *fakeAnalysis) GetPortfolioSummary(_ context.Context, _ []*models.Position) (*models.PortfolioSummary, error) {
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return f.summary, nil
}

func (f *fakeAnalysis) GetAssetAnalysis(_ context.Context, symbol string, assetType models.AssetType) (*models.AssetAnalysis, error) {
	f.lastSymbol, f.lastType = symbol, assetType
	if f.analysis == nil {
		return nil, models.ErrDataUnavailable
	}
	return f.analysis, nil
}

func (f *fakeAnalysis) GetMarketConditions(_ context.Context) (*models.MarketConditions, error) {
	if f.conditions == nil {
		return nil, models.ErrDataUnavailable
	}
	return f.conditions, nil
}

func (f *fakeAnalysis) RenderAssetChart(_ context.Context, symbol string, assetType models.AssetType) ([]byte, error) {
	f.lastSymbol, f.lastType = symbol, assetType
	if f.chart == nil {
		return nil, models.ErrDataUnavailable
	}
	return f.chart, nil
}

// fakeMarket serves quotes for handler tests.
type fakeMarket struct {
	quote *models.Quote
	err   error
}

func (f *fakeMarket) FetchSeries(_ context.Context, _ models.SeriesKey) (*models.PriceSeries, error) {
	return nil, models.ErrDataUnavailable
}

func (f *fakeMarket) GetQuote(_ context.Context, symbol string, _ models.AssetType) (*models.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	q := *f.quote
	q.Symbol = symbol
	return &q, nil
}

// fakeAdvisor echoes a fixed narrative.
type fakeAdvisor struct {
	lastRiskProfile string
}

func (f *fakeAdvisor) GetInvestmentAdvice(_ context.Context, _ *models.PortfolioSummary) (*models.InvestmentAdvice, error) {
	return &models.InvestmentAdvice{Summary: "hold steady", Model: "fake"}, nil
}

func (f *fakeAdvisor) GetMarketSentiment(_ context.Context, _ *models.MarketConditions) (*models.InvestmentAdvice, error) {
	return &models.InvestmentAdvice{Summary: "calm seas", Model: "fake"}, nil
}

func (f *fakeAdvisor) GetAssetRecommendations(_ context.Context, _ *models.PortfolioSummary, riskProfile string) (*models.InvestmentAdvice, error) {
	f.lastRiskProfile = riskProfile
	return &models.InvestmentAdvice{Summary: "buy bonds", Model: "fake"}, nil
}

func newTestServer(t *testing.T, analysis *fakeAnalysis, withAdvisor bool) (*Server, *fakePortfolio) {
	t.Helper()

	portfolio := newFakePortfolio()
	a := &app.App{
		Config:           common.NewDefaultConfig(),
		Logger:           common.NewSilentLogger(),
		MarketClient:     &fakeMarket{quote: &models.Quote{Price: 151.5, PreviousClose: 150}},
		PortfolioService: portfolio,
		AnalysisService:  analysis,
	}
	if withAdvisor {
		a.AdvisorService = &fakeAdvisor{}
	}
	return NewServer(a), portfolio
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalysis{}, false)

	rec := doJSON(t, srv, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestHandleVersion(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalysis{}, false)

	rec := doJSON(t, srv, http.MethodGet, "/api/version", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp["version"])
}

func TestHandlePositions_AddAndList(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalysis{}, false)

	rec := doJSON(t, srv, http.MethodPost, "/api/positions", map[string]interface{}{
		"symbol":         "AAPL",
		"type":           "equity",
		"quantity":       10,
		"purchase_price": 150,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Position
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "AAPL", created.Symbol)
	assert.NotEmpty(t, created.ID)

	rec = doJSON(t, srv, http.MethodGet, "/api/positions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []models.Position
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "AAPL", listed[0].Symbol)
}

func TestHandlePositions_InvalidPayload(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalysis{}, false)

	t.Run("unknown asset type", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/positions", map[string]interface{}{
			"symbol": "AAPL", "type": "bond", "quantity": 1, "purchase_price": 1,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "invalid_position", resp.Code)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/positions", bytes.NewReader([]byte("{nope")))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodDelete, "/api/positions", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHandlePositionByID(t *testing.T) {
	srv, portfolio := newTestServer(t, &fakeAnalysis{}, false)

	position, err := portfolio.AddPosition(context.Background(), interfaces.AddPositionRequest{
		Symbol: "AAPL", Type: "equity", Quantity: 10, PurchasePrice: 150,
	})
	require.NoError(t, err)

	t.Run("get", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/positions/"+position.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got models.Position
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, position.ID, got.ID)
	})

	t.Run("update quantity", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPatch, "/api/positions/"+position.ID, map[string]interface{}{
			"quantity": 25,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got models.Position
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.InDelta(t, 25, got.Quantity, 1e-12)
		assert.InDelta(t, 150, got.PurchasePrice, 1e-12)
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/positions/missing", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "position_not_found", resp.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodDelete, "/api/positions/"+position.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, srv, http.MethodGet, "/api/positions/"+position.ID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandlePortfolioSummary(t *testing.T) {
	analysis := &fakeAnalysis{
		summary: &models.PortfolioSummary{
			TotalPortfolioValue:  2400,
			TotalCostBasis:       2000,
			TotalGainLoss:        400,
			TotalGainLossPercent: 20,
			GeneratedAt:          time.Now(),
		},
	}
	srv, _ := newTestServer(t, analysis, false)

	rec := doJSON(t, srv, http.MethodGet, "/api/portfolio/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.PortfolioSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.InDelta(t, 2400, got.TotalPortfolioValue, 1e-9)
	assert.InDelta(t, 20, got.TotalGainLossPercent, 1e-9)
}

func TestHandlePortfolioSummary_DataUnavailable(t *testing.T) {
	analysis := &fakeAnalysis{summaryErr: models.ErrDataUnavailable}
	srv, _ := newTestServer(t, analysis, false)

	rec := doJSON(t, srv, http.MethodGet, "/api/portfolio/summary", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "data_unavailable", resp.Code)
}

func TestHandlePortfolioAdvice(t *testing.T) {
	analysis := &fakeAnalysis{summary: &models.PortfolioSummary{}}

	t.Run("with advisor", func(t *testing.T) {
		srv, _ := newTestServer(t, analysis, true)
		rec := doJSON(t, srv, http.MethodGet, "/api/portfolio/advice", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var advice models.InvestmentAdvice
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&advice))
		assert.Equal(t, "hold steady", advice.Summary)
	})

	t.Run("advisor not configured", func(t *testing.T) {
		srv, _ := newTestServer(t, analysis, false)
		rec := doJSON(t, srv, http.MethodGet, "/api/portfolio/advice", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandlePortfolioRecommendations(t *testing.T) {
	analysis := &fakeAnalysis{summary: &models.PortfolioSummary{}}

	t.Run("passes the risk profile through", func(t *testing.T) {
		srv, _ := newTestServer(t, analysis, true)
		rec := doJSON(t, srv, http.MethodGet, "/api/portfolio/recommendations?risk=aggressive", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var advice models.InvestmentAdvice
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&advice))
		assert.Equal(t, "buy bonds", advice.Summary)
		assert.Equal(t, "aggressive", srv.app.AdvisorService.(*fakeAdvisor).lastRiskProfile)
	})

	t.Run("advisor not configured", func(t *testing.T) {
		srv, _ := newTestServer(t, analysis, false)
		rec := doJSON(t, srv, http.MethodGet, "/api/portfolio/recommendations", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandleAssetAnalysis(t *testing.T) {
	rsi := 62.0
	analysis := &fakeAnalysis{
		analysis: &models.AssetAnalysis{
			Symbol:              "AAPL",
			Type:                models.AssetTypeEquity,
			PriceMetrics:        models.PriceMetrics{CurrentPrice: 150},
			TechnicalIndicators: models.IndicatorSet{RSI: &rsi},
		},
	}
	srv, _ := newTestServer(t, analysis, false)

	rec := doJSON(t, srv, http.MethodGet, "/api/analysis/AAPL", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.AssetAnalysis
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "AAPL", got.Symbol)
	require.NotNil(t, got.TechnicalIndicators.RSI)
	assert.InDelta(t, 62, *got.TechnicalIndicators.RSI, 1e-9)
	assert.Nil(t, got.TechnicalIndicators.MACD, "uncomputable indicators render as null")

	assert.Equal(t, models.AssetTypeEquity, analysis.lastType, "type defaults to equity")
}

func TestHandleAssetAnalysis_TypeParam(t *testing.T) {
	analysis := &fakeAnalysis{analysis: &models.AssetAnalysis{Symbol: "BTC"}}
	srv, _ := newTestServer(t, analysis, false)

	rec := doJSON(t, srv, http.MethodGet, "/api/analysis/BTC?type=crypto", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.AssetTypeCrypto, analysis.lastType)

	rec = doJSON(t, srv, http.MethodGet, "/api/analysis/BTC?type=bond", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAssetAnalysis_Chart(t *testing.T) {
	analysis := &fakeAnalysis{chart: []byte{0x89, 'P', 'N', 'G'}}
	srv, _ := newTestServer(t, analysis, false)

	rec := doJSON(t, srv, http.MethodGet, "/api/analysis/AAPL/chart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, analysis.chart, rec.Body.Bytes())
	assert.Equal(t, "AAPL", analysis.lastSymbol)
}

func TestHandleAssetAnalysis_EmptySymbol(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalysis{}, false)
	rec := doJSON(t, srv, http.MethodGet, "/api/analysis/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleQuote(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalysis{}, false)

	rec := doJSON(t, srv, http.MethodGet, "/api/quote/AAPL", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var quote models.Quote
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&quote))
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.InDelta(t, 151.5, quote.Price, 1e-9)
}

func TestHandleQuote_Errors(t *testing.T) {
	t.Run("missing symbol", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeAnalysis{}, false)
		rec := doJSON(t, srv, http.MethodGet, "/api/quote/", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad type param", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeAnalysis{}, false)
		rec := doJSON(t, srv, http.MethodGet, "/api/quote/AAPL?type=bond", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown ticker", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeAnalysis{}, false)
		srv.app.MarketClient = &fakeMarket{err: &models.ProviderError{Kind: models.ProviderErrNotFound, Symbol: "NOPE"}}
		rec := doJSON(t, srv, http.MethodGet, "/api/quote/NOPE", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("provider down", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeAnalysis{}, false)
		srv.app.MarketClient = &fakeMarket{err: &models.ProviderError{Kind: models.ProviderErrTransient, Symbol: "AAPL"}}
		rec := doJSON(t, srv, http.MethodGet, "/api/quote/AAPL", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandleMarketConditions(t *testing.T) {
	analysis := &fakeAnalysis{
		conditions: &models.MarketConditions{
			MarketTrend:     models.TrendBullish,
			VolatilityLevel: "High",
			SpyPerformance:  0.12,
			VixLevel:        24.5,
		},
	}
	srv, _ := newTestServer(t, analysis, false)

	rec := doJSON(t, srv, http.MethodGet, "/api/market/conditions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.MarketConditions
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, models.TrendBullish, got.MarketTrend)
	assert.InDelta(t, 24.5, got.VixLevel, 1e-9)
}

func TestHandleMarketSentiment(t *testing.T) {
	analysis := &fakeAnalysis{conditions: &models.MarketConditions{MarketTrend: models.TrendNeutral}}

	t.Run("with advisor", func(t *testing.T) {
		srv, _ := newTestServer(t, analysis, true)
		rec := doJSON(t, srv, http.MethodGet, "/api/market/sentiment", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var advice models.InvestmentAdvice
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&advice))
		assert.Equal(t, "calm seas", advice.Summary)
	})

	t.Run("advisor not configured", func(t *testing.T) {
		srv, _ := newTestServer(t, analysis, false)
		rec := doJSON(t, srv, http.MethodGet, "/api/market/sentiment", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
