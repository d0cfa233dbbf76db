// Package app wires configuration, storage, clients, and services together.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/folio/internal/cache"
	"github.com/bobmcallan/folio/internal/clients/eodhd"
	"github.com/bobmcallan/folio/internal/clients/gemini"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/services/advisor"
	"github.com/bobmcallan/folio/internal/services/analysis"
	"github.com/bobmcallan/folio/internal/services/portfolio"
	"github.com/bobmcallan/folio/internal/storage/badger"
)

// App holds all initialized services, clients, and storage.
// It is the shared core used by cmd/folio-server and tests.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Store            *badger.Store
	MarketClient     interfaces.MarketDataClient
	AdvisorClient    interfaces.AdvisorClient
	SeriesCache      *cache.TimeSeriesCache
	PortfolioService interfaces.PortfolioService
	AnalysisService  interfaces.AnalysisService
	AdvisorService   interfaces.AdvisorService
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services from configuration.
// configPath may be empty, in which case FOLIO_CONFIG and the binary
// directory are checked before falling back to defaults.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("FOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "folio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/folio.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	positionStore := badger.NewPositionStorage(store, logger)

	eodhdKey, err := common.ResolveAPIKey(
		[]string{"FOLIO_EODHD_API_KEY", "EODHD_API_KEY"},
		config.Clients.EODHD.APIKey,
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("EODHD API key not configured: %w", err)
	}

	eodhdOpts := []eodhd.ClientOption{
		eodhd.WithLogger(logger),
		eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
		eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
	}
	if config.Clients.EODHD.BaseURL != "" {
		eodhdOpts = append(eodhdOpts, eodhd.WithBaseURL(config.Clients.EODHD.BaseURL))
	}
	marketClient := eodhd.NewClient(eodhdKey, eodhdOpts...)

	var geminiClient *gemini.Client
	geminiKey, err := common.ResolveAPIKey(
		[]string{"FOLIO_GEMINI_API_KEY", "GEMINI_API_KEY"},
		config.Clients.Gemini.APIKey,
	)
	if err != nil {
		logger.Warn().Msg("Gemini API key not configured - investment advice will be unavailable")
	} else {
		geminiClient, err = gemini.NewClient(ctx, geminiKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
			geminiClient = nil
		}
	}

	seriesCache := cache.New(marketClient,
		cache.WithLogger(logger),
		cache.WithTTL(config.Cache.GetTTL()),
		cache.WithCapacity(config.Cache.Capacity),
	)

	portfolioService := portfolio.NewService(positionStore, logger)
	analysisService := analysis.NewService(seriesCache, logger,
		analysis.WithMaxConcurrent(config.Analysis.MaxConcurrentFetches),
		analysis.WithRequestTimeout(config.Analysis.GetRequestTimeout()),
	)

	a := &App{
		Config:           config,
		Logger:           logger,
		Store:            store,
		MarketClient:     marketClient,
		SeriesCache:      seriesCache,
		PortfolioService: portfolioService,
		AnalysisService:  analysisService,
		StartupTime:      startupStart,
	}

	if geminiClient != nil {
		a.AdvisorClient = geminiClient
		a.AdvisorService = advisor.NewService(geminiClient, logger)
	}

	logger.Info().
		Str("environment", config.Environment).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close position store")
		}
		a.Store = nil
	}
}
