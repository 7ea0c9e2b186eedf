// Package classify exposes the sector and industry label vocabulary and ranks
// companies within chosen labels.
package classify

import (
	"context"
	"sort"
	"strings"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
)

// DefaultTopN is used when callers pass a non-positive count.
const DefaultTopN = 10

// Service implements interfaces.ClassificationService
type Service struct {
	store  interfaces.MetadataStore
	logger *common.Logger
}

var _ interfaces.ClassificationService = (*Service)(nil)

// NewService creates a new classification service
func NewService(store interfaces.MetadataStore, logger *common.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// ListLabels returns the union of distinct sector, industry and sub-industry values.
func (s *Service) ListLabels(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	labels := []string{}
	for _, field := range models.ClassificationFields {
		values, err := s.store.Distinct(ctx, field)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			labels = append(labels, v)
		}
	}
	sort.Strings(labels)
	return labels, nil
}

// TopCompaniesIn returns up to topN {symbol: name} pairs whose sector, industry
// or sub-industry equals one of labels exactly, largest market cap first.
func (s *Service) TopCompaniesIn(ctx context.Context, labels []string, topN int) ([]map[string]string, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	values := make([]string, 0, len(labels))
	for _, l := range labels {
		if strings.TrimSpace(l) != "" {
			values = append(values, l)
		}
	}

	out := []map[string]string{}
	if len(values) == 0 {
		return out, nil
	}

	rows, err := s.store.TopN(ctx, interfaces.TopQuery{
		OrderBy: models.NumericTotalMarketCap,
		Fields:  models.ClassificationFields,
		Values:  values,
		Limit:   topN,
	})
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out = append(out, map[string]string{r.Symbol: r.Name})
	}

	s.logger.Debug().Strs("labels", values).Int("top_n", topN).Int("results", len(out)).Msg("Top companies resolved")
	return out, nil
}
