package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// handleHealth responds to GET/HEAD /api/health with {"status":"ok"}.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVersion responds to GET /api/version with version info.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handlePositions handles GET (list) and POST (add) on /api/positions.
func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		positions, err := s.app.PortfolioService.ListPositions(r.Context())
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, positions)

	case http.MethodPost:
		var req interfaces.AddPositionRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		position, err := s.app.PortfolioService.AddPosition(r.Context(), req)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, position)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handlePositionByID handles GET, PATCH, and DELETE on /api/positions/{id}.
func (s *Server) handlePositionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/positions/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		position, err := s.app.PortfolioService.GetPosition(r.Context(), id)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, position)

	case http.MethodPatch, http.MethodPut:
		var req interfaces.UpdatePositionRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		position, err := s.app.PortfolioService.UpdatePosition(r.Context(), id, req)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, position)

	case http.MethodDelete:
		if err := s.app.PortfolioService.RemovePosition(r.Context(), id); err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPatch, http.MethodPut, http.MethodDelete)
	}
}

// handlePortfolioSummary handles GET /api/portfolio/summary.
func (s *Server) handlePortfolioSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	positions, err := s.app.PortfolioService.ListPositions(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	summary, err := s.app.AnalysisService.GetPortfolioSummary(r.Context(), positions)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

// handlePortfolioAdvice handles GET /api/portfolio/advice.
func (s *Server) handlePortfolioAdvice(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if s.app.AdvisorService == nil {
		WriteError(w, http.StatusServiceUnavailable, "Advisor not configured")
		return
	}

	positions, err := s.app.PortfolioService.ListPositions(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	summary, err := s.app.AnalysisService.GetPortfolioSummary(r.Context(), positions)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	advice, err := s.app.AdvisorService.GetInvestmentAdvice(r.Context(), summary)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, advice)
}

// handlePortfolioRecommendations handles GET /api/portfolio/recommendations.
// The risk profile comes from the "risk" query parameter, defaulting to
// moderate.
func (s *Server) handlePortfolioRecommendations(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if s.app.AdvisorService == nil {
		WriteError(w, http.StatusServiceUnavailable, "Advisor not configured")
		return
	}

	positions, err := s.app.PortfolioService.ListPositions(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	summary, err := s.app.AnalysisService.GetPortfolioSummary(r.Context(), positions)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	recommendations, err := s.app.AdvisorService.GetAssetRecommendations(r.Context(), summary, r.URL.Query().Get("risk"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, recommendations)
}

// handleAssetAnalysis handles GET /api/analysis/{symbol} and
// GET /api/analysis/{symbol}/chart. The asset type comes from the "type"
// query parameter, defaulting to equity.
func (s *Server) handleAssetAnalysis(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/analysis/")
	symbol, wantChart := strings.CutSuffix(path, "/chart")
	if symbol == "" || strings.Contains(symbol, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	assetType := models.AssetTypeEquity
	if raw := r.URL.Query().Get("type"); raw != "" {
		parsed, err := models.ParseAssetType(raw)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		assetType = parsed
	}

	if wantChart {
		png, err := s.app.AnalysisService.RenderAssetChart(r.Context(), symbol, assetType)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.Write(png)
		return
	}

	analysis, err := s.app.AnalysisService.GetAssetAnalysis(r.Context(), symbol, assetType)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, analysis)
}

// handleQuote handles GET /api/quote/{symbol}, returning the provider's
// current quote directly without touching the series cache.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := strings.TrimPrefix(r.URL.Path, "/api/quote/")
	if symbol == "" || strings.Contains(symbol, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	assetType := models.AssetTypeEquity
	if raw := r.URL.Query().Get("type"); raw != "" {
		parsed, err := models.ParseAssetType(raw)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		assetType = parsed
	}

	quote, err := s.app.MarketClient.GetQuote(r.Context(), symbol, assetType)
	if err != nil {
		var provErr *models.ProviderError
		if errors.As(err, &provErr) && provErr.Kind == models.ProviderErrNotFound {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, quote)
}

// handleMarketConditions handles GET /api/market/conditions.
func (s *Server) handleMarketConditions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	conditions, err := s.app.AnalysisService.GetMarketConditions(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, conditions)
}

// handleMarketSentiment handles GET /api/market/sentiment.
func (s *Server) handleMarketSentiment(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if s.app.AdvisorService == nil {
		WriteError(w, http.StatusServiceUnavailable, "Advisor not configured")
		return
	}

	conditions, err := s.app.AnalysisService.GetMarketConditions(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	sentiment, err := s.app.AdvisorService.GetMarketSentiment(r.Context(), conditions)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, sentiment)
}
