package pit

import (
	"fmt"
	"strings"
)

// AssetType classifies an asset.
type AssetType string

const (
	Stock   AssetType = "Stock"
	ETF     AssetType = "ETF"
	Crypto  AssetType = "Crypto"
	Savings AssetType = "Savings"
	Cash    AssetType = "Cash"
)

// AssetTypes lists the known asset types in display order.
var AssetTypes = []AssetType{Stock, ETF, Crypto, Savings, Cash}

// ParseAssetType parses an asset type name, case insensitive.
func ParseAssetType(s string) (AssetType, error) {
	for _, t := range AssetTypes {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown asset type %q", s)
}

// Tradeable reports whether assets of this type are quoted on a market and
// therefore identified by a ticker.
func (t AssetType) Tradeable() bool {
	return t != Savings && t != Cash
}

// Asset is a trackable instrument.
type Asset struct {
	ID       int64     `json:"id"`
	Ticker   string    `json:"ticker,omitempty"` // empty for Savings and Cash
	Name     string    `json:"name"`
	Type     AssetType `json:"assetType"`
	Currency string    `json:"currency"`
	ISIN     string    `json:"isin,omitempty"`
}

// Label returns the ticker, or the name for assets without a ticker.
func (a Asset) Label() string {
	if a.Ticker != "" {
		return a.Ticker
	}
	return a.Name
}

// Validate checks the asset definition.
func (a Asset) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return invalid("name", "asset name is required")
	}
	if _, err := ParseAssetType(string(a.Type)); err != nil {
		return invalid("assetType", "%v", err)
	}
	if a.Type.Tradeable() && a.Ticker == "" {
		return invalid("ticker", "a %s asset requires a ticker", a.Type)
	}
	if !a.Type.Tradeable() && a.Ticker != "" {
		return invalid("ticker", "a %s asset has no ticker, got %q", a.Type, a.Ticker)
	}
	if !isCurrencyCode(a.Currency) {
		return invalid("currency", "%q is not a currency code", a.Currency)
	}
	return nil
}

// isCurrencyCode reports whether s looks like an ISO-4217 code.
func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
