// Package eodhd provides the market data provider client for Folio
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the MarketDataClient interface against the EODHD API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a rate-limited GET request and classifies failures.
func (c *Client) get(ctx context.Context, symbol, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.ProviderError{Kind: models.ProviderErrTransient, Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &models.ProviderError{
			Kind:   classifyStatus(resp.StatusCode),
			Symbol: symbol,
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &models.ProviderError{Kind: models.ProviderErrTransient, Symbol: symbol, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}

func classifyStatus(code int) models.ProviderErrorKind {
	switch {
	case code == http.StatusTooManyRequests:
		return models.ProviderErrRateLimited
	case code == http.StatusNotFound:
		return models.ProviderErrNotFound
	default:
		return models.ProviderErrTransient
	}
}

// FetchSeries retrieves an ordered price series for the requested key.
func (c *Client) FetchSeries(ctx context.Context, key models.SeriesKey) (*models.PriceSeries, error) {
	from, err := periodStart(key.Period, time.Now())
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("period", eodhdInterval(key.Interval))
	params.Set("order", "a") // ascending by date
	params.Set("from", from.Format("2006-01-02"))

	path := fmt.Sprintf("/eod/%s", ProviderTicker(key.Symbol, key.Type))

	var bars []eodBarResponse
	if err := c.get(ctx, key.Symbol, path, params, &bars); err != nil {
		return nil, err
	}

	series := &models.PriceSeries{
		Symbol:   key.Symbol,
		Type:     key.Type,
		Period:   key.Period,
		Interval: key.Interval,
		Points:   make([]models.PricePoint, 0, len(bars)),
	}

	var lastDate time.Time
	for _, bar := range bars {
		date, parseErr := time.Parse("2006-01-02", bar.Date)
		if parseErr != nil {
			continue
		}
		// The API occasionally repeats the latest bar; keep the series
		// strictly ascending with no duplicate timestamps.
		if !lastDate.IsZero() && !date.After(lastDate) {
			continue
		}
		lastDate = date
		series.Points = append(series.Points, models.PricePoint{
			Date:   date,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}

	return series, nil
}

// GetQuote retrieves the current real-time quote for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string, assetType models.AssetType) (*models.Quote, error) {
	path := fmt.Sprintf("/real-time/%s", ProviderTicker(symbol, assetType))

	var resp quoteResponse
	if err := c.get(ctx, symbol, path, nil, &resp); err != nil {
		return nil, err
	}

	return &models.Quote{
		Symbol:        symbol,
		Price:         resp.Close,
		PreviousClose: resp.PreviousClose,
		Change:        resp.Change,
		ChangePct:     resp.ChangePct,
		Volume:        resp.Volume,
		Timestamp:     time.Unix(resp.Timestamp, 0).UTC(),
	}, nil
}

// ProviderTicker maps a Folio symbol and asset type to the provider's ticker
// format. Crypto symbols become USD pairs on the CC virtual exchange; bare
// equity and fund symbols default to the US exchange.
func ProviderTicker(symbol string, assetType models.AssetType) string {
	symbol = strings.ToUpper(symbol)
	if assetType == models.AssetTypeCrypto {
		return symbol + "-USD.CC"
	}
	if strings.Contains(symbol, ".") || strings.HasPrefix(symbol, "^") {
		return symbol
	}
	return symbol + ".US"
}

// periodStart resolves a requested period (e.g. "1mo") to a start date.
func periodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "", "1mo":
		return now.AddDate(0, -1, 0), nil
	case "3mo":
		return now.AddDate(0, -3, 0), nil
	case "6mo":
		return now.AddDate(0, -6, 0), nil
	case "1y":
		return now.AddDate(-1, 0, 0), nil
	case "2y":
		return now.AddDate(-2, 0, 0), nil
	case "5y":
		return now.AddDate(-5, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported period %q", period)
	}
}

// eodhdInterval maps a requested interval to the provider's period parameter.
func eodhdInterval(interval string) string {
	switch interval {
	case "", "1d":
		return "d"
	case "1wk":
		return "w"
	case "1mo":
		return "m"
	default:
		return "d"
	}
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// quoteResponse represents the real-time quote API response
type quoteResponse struct {
	Code          string  `json:"code"`
	Timestamp     int64   `json:"timestamp"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	PreviousClose float64 `json:"previousClose"`
	Change        float64 `json:"change"`
	ChangePct     float64 `json:"change_p"`
	Volume        int64   `json:"volume"`
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
