// Package models defines data structures for Folio
package models

import (
	"strings"
	"time"
)

// AssetType is the closed set of asset classes Folio tracks.
type AssetType string

const (
	AssetTypeEquity AssetType = "equity"
	AssetTypeCrypto AssetType = "crypto"
	AssetTypeFund   AssetType = "fund"
	AssetTypeOther  AssetType = "other"
)

// ParseAssetType maps a raw tag to an AssetType. Unknown tags are rejected
// here, at the persistence boundary, rather than deep in analytics.
func ParseAssetType(raw string) (AssetType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "equity", "stock":
		return AssetTypeEquity, nil
	case "crypto", "cryptocurrency":
		return AssetTypeCrypto, nil
	case "fund", "etf":
		return AssetTypeFund, nil
	case "other":
		return AssetTypeOther, nil
	default:
		return "", &InvalidPositionError{Field: "type", Reason: "unknown asset type '" + raw + "'"}
	}
}

// Position represents a held position in the portfolio.
// Owned by the position store; the analytics engine only reads it.
type Position struct {
	ID            string    `json:"id" badgerhold:"key"`
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name,omitempty"`
	Type          AssetType `json:"type"`
	Quantity      float64   `json:"quantity"`
	PurchasePrice float64   `json:"purchase_price"`
	PurchaseDate  time.Time `json:"purchase_date"`
	Sector        string    `json:"sector,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate checks the position's fields against the engine's invariants.
func (p *Position) Validate() error {
	if strings.TrimSpace(p.Symbol) == "" {
		return &InvalidPositionError{Field: "symbol", Reason: "symbol is required"}
	}
	if p.Quantity <= 0 {
		return &InvalidPositionError{Field: "quantity", Reason: "quantity must be positive"}
	}
	if p.PurchasePrice < 0 {
		return &InvalidPositionError{Field: "purchase_price", Reason: "purchase price cannot be negative"}
	}
	switch p.Type {
	case AssetTypeEquity, AssetTypeCrypto, AssetTypeFund, AssetTypeOther:
	default:
		return &InvalidPositionError{Field: "type", Reason: "unknown asset type '" + string(p.Type) + "'"}
	}
	return nil
}

// CostBasis returns the total amount paid for the position.
func (p *Position) CostBasis() float64 {
	return p.Quantity * p.PurchasePrice
}
