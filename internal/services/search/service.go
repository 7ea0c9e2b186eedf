package search

import (
	"context"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
)

// CompanyFields searches company name then symbol. Names get trigram
// similarity; symbols additionally get edit distance for misspelt tickers.
var CompanyFields = []FieldSpec{
	{Field: models.FieldName, Fuzzy: []models.MatchMode{models.MatchSimilarity, models.MatchDistance}},
	{Field: models.FieldSymbol, Fuzzy: []models.MatchMode{models.MatchSimilarity, models.MatchDistance}},
}

// IndustryFields searches the three classification dimensions.
var IndustryFields = []FieldSpec{
	{Field: models.FieldSector, Fuzzy: []models.MatchMode{models.MatchSimilarity}},
	{Field: models.FieldIndustry, Fuzzy: []models.MatchMode{models.MatchSimilarity}},
	{Field: models.FieldIndustryInfo, Fuzzy: []models.MatchMode{models.MatchSimilarity}},
}

// Service implements interfaces.SearchService
type Service struct {
	engine *Engine
	logger *common.Logger
}

var _ interfaces.SearchService = (*Service)(nil)

// NewService creates a new search service
func NewService(store interfaces.MetadataStore, logger *common.Logger, config common.SearchConfig) *Service {
	return &Service{
		engine: NewEngine(store, logger, config),
		logger: logger,
	}
}

// SearchCompanies matches key against company name and symbol.
func (s *Service) SearchCompanies(ctx context.Context, key string) ([]models.CompanyMatch, error) {
	candidates, err := s.engine.Run(ctx, key, CompanyFields)
	if err != nil {
		return nil, err
	}

	matches := make([]models.CompanyMatch, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, models.CompanyMatch{
			Symbol:    c.Symbol,
			Name:      c.Row.Name,
			MatchedOn: c.Field,
			Mode:      c.Mode,
		})
	}
	return matches, nil
}

// SearchIndustries matches key against sector, industry and sub-industry and
// returns the distinct industry labels of the matched rows in rank order.
func (s *Service) SearchIndustries(ctx context.Context, key string) ([]string, error) {
	candidates, err := s.engine.Run(ctx, key, IndustryFields)
	if err != nil {
		return nil, err
	}

	labels := []string{}
	seen := make(map[string]struct{})
	for _, c := range candidates {
		label := c.Row.Industry
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels, nil
}
