package models

// MatchMode is the matching strategy of one search pass.
type MatchMode string

const (
	MatchPrefix     MatchMode = "prefix"
	MatchContains   MatchMode = "contains"
	MatchSimilarity MatchMode = "similarity"
	MatchDistance   MatchMode = "distance"
)

// Ranked reports whether the mode orders candidates by score rather than filtering.
func (m MatchMode) Ranked() bool {
	return m == MatchSimilarity || m == MatchDistance
}

// MatchCandidate is a row selected by one search pass, with its provenance.
// Candidates are never persisted.
type MatchCandidate struct {
	Symbol string          `json:"symbol"`
	Field  Field           `json:"field"`
	Mode   MatchMode       `json:"mode"`
	Pass   int             `json:"pass"`
	Row    *SymbolMetadata `json:"-"`
}

// CompanyMatch is a company search result as returned to tool callers.
type CompanyMatch struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	MatchedOn Field     `json:"matched_on"`
	Mode      MatchMode `json:"mode"`
}
