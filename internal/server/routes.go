package server

import (
	"net/http"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Positions
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/positions/", s.handlePositionByID)

	// Portfolio analytics
	mux.HandleFunc("/api/portfolio/summary", s.handlePortfolioSummary)
	mux.HandleFunc("/api/portfolio/advice", s.handlePortfolioAdvice)
	mux.HandleFunc("/api/portfolio/recommendations", s.handlePortfolioRecommendations)

	// Asset analytics
	mux.HandleFunc("/api/analysis/", s.handleAssetAnalysis)
	mux.HandleFunc("/api/quote/", s.handleQuote)

	// Market
	mux.HandleFunc("/api/market/conditions", s.handleMarketConditions)
	mux.HandleFunc("/api/market/sentiment", s.handleMarketSentiment)
}
