// Package advisor turns the engine's numeric outputs into narrative advice.
//
// The advisor consumes finished, fully-computed structures — it never fetches
// data or recomputes metrics, and it never fabricates numbers on failure.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// Service implements AdvisorService over an AdvisorClient.
type Service struct {
	client interfaces.AdvisorClient
	logger *common.Logger
	now    func() time.Time
}

// NewService creates a new advisor service.
func NewService(client interfaces.AdvisorClient, logger *common.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// GetInvestmentAdvice generates narrative advice from a portfolio summary.
func (s *Service) GetInvestmentAdvice(ctx context.Context, summary *models.PortfolioSummary) (*models.InvestmentAdvice, error) {
	if s.client == nil {
		return nil, fmt.Errorf("advisor client not configured")
	}

	prompt := buildPortfolioPrompt(summary)

	text, err := s.client.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate investment advice: %w", err)
	}

	return &models.InvestmentAdvice{
		Summary:     text,
		GeneratedAt: s.now(),
		Model:       s.client.Model(),
	}, nil
}

// GetMarketSentiment generates narrative commentary on market conditions.
func (s *Service) GetMarketSentiment(ctx context.Context, conditions *models.MarketConditions) (*models.InvestmentAdvice, error) {
	if s.client == nil {
		return nil, fmt.Errorf("advisor client not configured")
	}

	prompt := buildMarketPrompt(conditions)

	text, err := s.client.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate market sentiment: %w", err)
	}

	return &models.InvestmentAdvice{
		Summary:     text,
		GeneratedAt: s.now(),
		Model:       s.client.Model(),
	}, nil
}

// GetAssetRecommendations generates diversification recommendations for the
// current portfolio, tuned to a risk profile ("conservative", "moderate",
// "aggressive"). An empty profile defaults to moderate.
func (s *Service) GetAssetRecommendations(ctx context.Context, summary *models.PortfolioSummary, riskProfile string) (*models.InvestmentAdvice, error) {
	if s.client == nil {
		return nil, fmt.Errorf("advisor client not configured")
	}
	if riskProfile == "" {
		riskProfile = "moderate"
	}

	prompt := buildRecommendationPrompt(summary, riskProfile)

	text, err := s.client.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate asset recommendations: %w", err)
	}

	return &models.InvestmentAdvice{
		Summary:     text,
		GeneratedAt: s.now(),
		Model:       s.client.Model(),
	}, nil
}

// buildPortfolioPrompt creates a prompt for portfolio analysis
func buildPortfolioPrompt(summary *models.PortfolioSummary) string {
	var sb strings.Builder

	sb.WriteString("Analyze this investment portfolio and provide insights:\n\n")
	sb.WriteString("Portfolio Summary:\n")
	fmt.Fprintf(&sb, "- Total Value: $%.2f\n", summary.TotalPortfolioValue)
	fmt.Fprintf(&sb, "- Total Gain/Loss: $%.2f (%.2f%%)\n", summary.TotalGainLoss, summary.TotalGainLossPercent)
	fmt.Fprintf(&sb, "- Annualized Volatility: %.2f%%\n", summary.RiskMetrics.Volatility)
	fmt.Fprintf(&sb, "- Diversification Score: %.1f/100\n", summary.RiskMetrics.DiversificationScore)
	fmt.Fprintf(&sb, "- Sharpe Ratio: %.2f\n", summary.PerformanceMetrics.SharpeRatio)
	fmt.Fprintf(&sb, "- Beta: %.2f\n", summary.PerformanceMetrics.Beta)
	if summary.Partial {
		sb.WriteString("- Note: one or more positions could not be valued; totals exclude them\n")
	}

	sb.WriteString("\nPositions:\n")
	for _, r := range summary.AssetValues {
		if r.Unavailable {
			fmt.Fprintf(&sb, "- %s: %.4f units, valuation unavailable\n", r.Symbol, r.Quantity)
			continue
		}
		fmt.Fprintf(&sb, "- %s: %.4f units at $%.2f, value $%.2f, gain/loss $%.2f (%.2f%%)\n",
			r.Symbol, r.Quantity, r.CurrentPrice, r.CurrentValue, r.GainLoss, r.GainLossPercent)
	}

	sb.WriteString(`
Please provide:
1. Portfolio Performance Analysis
2. Risk Assessment
3. Rebalancing Recommendations
4. Areas of Concern
5. Opportunities for Improvement

Keep the response concise and actionable.`)

	return sb.String()
}

// buildMarketPrompt creates a prompt for market sentiment analysis
func buildMarketPrompt(conditions *models.MarketConditions) string {
	var sb strings.Builder

	sb.WriteString("Assess current market conditions for a retail investor:\n\n")
	fmt.Fprintf(&sb, "- Market Trend: %s\n", conditions.MarketTrend)
	fmt.Fprintf(&sb, "- Mean Daily S&P 500 Return: %.3f%%\n", conditions.SpyPerformance)
	fmt.Fprintf(&sb, "- VIX Level: %.2f (%s volatility)\n", conditions.VixLevel, conditions.VolatilityLevel)

	sb.WriteString(`
Please provide a short commentary covering the overall sentiment, what the
volatility level implies for position sizing, and anything an investor should
watch this week. Keep it under 200 words.`)

	return sb.String()
}

// buildRecommendationPrompt creates a prompt for portfolio recommendations
func buildRecommendationPrompt(summary *models.PortfolioSummary, riskProfile string) string {
	var sb strings.Builder

	sb.WriteString("Provide investment recommendations based on:\n\n")
	sb.WriteString("Current Portfolio:\n")
	fmt.Fprintf(&sb, "- Total Value: $%.2f\n", summary.TotalPortfolioValue)
	fmt.Fprintf(&sb, "- Diversification Score: %.1f/100\n", summary.RiskMetrics.DiversificationScore)
	for _, r := range summary.AssetValues {
		if r.Unavailable {
			continue
		}
		fmt.Fprintf(&sb, "- %s: value $%.2f\n", r.Symbol, r.CurrentValue)
	}

	fmt.Fprintf(&sb, "\nRisk Profile: %s\n", riskProfile)

	sb.WriteString(`
Please provide:
1. Recommended Asset Allocation
2. Specific Investment Opportunities
3. Risk Mitigation Strategies
4. Sectors to Consider
5. Assets to Avoid

Keep the response concise and actionable.`)

	return sb.String()
}

// Ensure Service implements AdvisorService
var _ interfaces.AdvisorService = (*Service)(nil)
