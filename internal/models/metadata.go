// Package models defines data structures for nsechat
package models

import (
	"fmt"
	"strings"
	"time"
)

// SymbolMetadata is one row of the metadata table: a tradable NSE symbol with
// its company name, classification and trading size. Symbol is the identity
// used for deduplication everywhere.
type SymbolMetadata struct {
	Symbol            string    `json:"symbol" db:"symbol"`
	Name              string    `json:"name" db:"name"`
	Sector            string    `json:"sector" db:"sector"`
	Industry          string    `json:"industry" db:"industry"`
	IndustryInfo      string    `json:"industry_info" db:"industry_info"` // finer-grained sub-industry
	TotalTradedVolume float64   `json:"total_traded_volume" db:"total_traded_volume"`
	TotalTradedValue  float64   `json:"total_traded_value" db:"total_traded_value"`
	TotalMarketCap    float64   `json:"total_market_cap" db:"total_market_cap"`
	RefreshedAt       time.Time `json:"refreshed_at" db:"refreshed_at"`
}

// SameContent reports whether two rows carry the same data, ignoring RefreshedAt.
func (m *SymbolMetadata) SameContent(o *SymbolMetadata) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Symbol == o.Symbol &&
		m.Name == o.Name &&
		m.Sector == o.Sector &&
		m.Industry == o.Industry &&
		m.IndustryInfo == o.IndustryInfo &&
		m.TotalTradedVolume == o.TotalTradedVolume &&
		m.TotalTradedValue == o.TotalTradedValue &&
		m.TotalMarketCap == o.TotalMarketCap
}

// Field names a searchable text column of SymbolMetadata.
type Field string

const (
	FieldSymbol       Field = "symbol"
	FieldName         Field = "name"
	FieldSector       Field = "sector"
	FieldIndustry     Field = "industry"
	FieldIndustryInfo Field = "industry_info"
)

// ClassificationFields are the three label dimensions, in rollup order.
var ClassificationFields = []Field{FieldSector, FieldIndustry, FieldIndustryInfo}

// Valid reports whether f names a known text column.
func (f Field) Valid() bool {
	switch f {
	case FieldSymbol, FieldName, FieldSector, FieldIndustry, FieldIndustryInfo:
		return true
	}
	return false
}

// Value reads the field from a row.
func (f Field) Value(m *SymbolMetadata) string {
	if m == nil {
		return ""
	}
	switch f {
	case FieldSymbol:
		return m.Symbol
	case FieldName:
		return m.Name
	case FieldSector:
		return m.Sector
	case FieldIndustry:
		return m.Industry
	case FieldIndustryInfo:
		return m.IndustryInfo
	}
	return ""
}

// Column returns the storage column for the field. Column names match the
// json tags so every backend shares one naming.
func (f Field) Column() (string, error) {
	if !f.Valid() {
		return "", fmt.Errorf("unknown field %q", string(f))
	}
	return string(f), nil
}

// ParseField resolves a caller-supplied field name.
func ParseField(s string) (Field, bool) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	return f, f.Valid()
}

// NumericField names a numeric column usable for ordering.
type NumericField string

const (
	NumericTotalMarketCap    NumericField = "total_market_cap"
	NumericTotalTradedValue  NumericField = "total_traded_value"
	NumericTotalTradedVolume NumericField = "total_traded_volume"
)

// Valid reports whether n names a known numeric column.
func (n NumericField) Valid() bool {
	switch n {
	case NumericTotalMarketCap, NumericTotalTradedValue, NumericTotalTradedVolume:
		return true
	}
	return false
}

// Value reads the numeric field from a row.
func (n NumericField) Value(m *SymbolMetadata) float64 {
	if m == nil {
		return 0
	}
	switch n {
	case NumericTotalMarketCap:
		return m.TotalMarketCap
	case NumericTotalTradedValue:
		return m.TotalTradedValue
	case NumericTotalTradedVolume:
		return m.TotalTradedVolume
	}
	return 0
}
