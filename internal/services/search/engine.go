// Package search resolves free text to companies and industry labels with a
// cascade of prefix, substring and fuzzy passes over the metadata store.
package search

import (
	"context"
	"fmt"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
	"github.com/bobmcallan/nsechat/internal/textmatch"
)

// FieldSpec names one target field and the fuzzy modes run against it after
// the prefix and contains passes.
type FieldSpec struct {
	Field models.Field
	Fuzzy []models.MatchMode
}

// Pass is one planned query of the cascade.
type Pass struct {
	Field models.Field
	Mode  models.MatchMode
	// Rank is the pass's position among fuzzy passes, or -1 for prefix and contains.
	Rank int
}

// Quotas caps how many new symbols each pass may add.
type Quotas struct {
	Lead   int // first field's prefix pass
	Pass   int // every other pass
	Shrink int // fuzzy passes once the result set has filled
}

// Engine runs the search cascade. It is safe for concurrent use.
type Engine struct {
	store         interfaces.MetadataStore
	logger        *common.Logger
	quotas        Quotas
	minSimilarity float64
	distanceRatio float64
}

// NewEngine creates an engine from the [search] config section.
func NewEngine(store interfaces.MetadataStore, logger *common.Logger, config common.SearchConfig) *Engine {
	q := Quotas{Lead: config.LeadQuota, Pass: config.PassQuota, Shrink: config.ShrinkQuota}
	if q.Pass <= 0 || q.Pass > 3 {
		q.Pass = 3
	}
	if q.Lead <= 0 || q.Lead > q.Pass {
		q.Lead = q.Pass
	}
	if q.Shrink <= 0 || q.Shrink > q.Pass {
		q.Shrink = q.Pass
	}
	ratio := config.MaxDistanceRatio
	if ratio <= 0 {
		ratio = 0.5
	}
	return &Engine{
		store:         store,
		logger:        logger,
		quotas:        q,
		minSimilarity: config.SimilarityThreshold,
		distanceRatio: ratio,
	}
}

// Plan orders the passes for specs: every prefix pass in field order, then
// every contains pass, then fuzzy passes grouped by mode in first-seen order.
func Plan(specs []FieldSpec) []Pass {
	var passes []Pass
	for _, s := range specs {
		passes = append(passes, Pass{Field: s.Field, Mode: models.MatchPrefix, Rank: -1})
	}
	for _, s := range specs {
		passes = append(passes, Pass{Field: s.Field, Mode: models.MatchContains, Rank: -1})
	}

	var modes []models.MatchMode
	seen := map[models.MatchMode]bool{}
	for _, s := range specs {
		for _, m := range s.Fuzzy {
			if !seen[m] {
				seen[m] = true
				modes = append(modes, m)
			}
		}
	}
	rank := 0
	for _, m := range modes {
		for _, s := range specs {
			for _, fm := range s.Fuzzy {
				if fm == m {
					passes = append(passes, Pass{Field: s.Field, Mode: m, Rank: rank})
					rank++
					break
				}
			}
		}
	}
	return passes
}

// Quota returns how many symbols pass i may add when selected symbols are
// already in the result set.
func (q Quotas) Quota(i int, p Pass, selected int) int {
	if i == 0 && p.Mode == models.MatchPrefix {
		return q.Lead
	}
	if p.Rank >= 0 && selected >= 2*(p.Rank+2) {
		return q.Shrink
	}
	return q.Pass
}

// Run executes the cascade for key and returns the selected candidates in rank order.
// An empty key, or a key nothing matches, yields an empty slice.
func (e *Engine) Run(ctx context.Context, key string, specs []FieldSpec) ([]models.MatchCandidate, error) {
	key = textmatch.Fold(key)
	result := []models.MatchCandidate{}
	if key == "" || len(specs) == 0 {
		return result, nil
	}
	for _, s := range specs {
		if !s.Field.Valid() {
			return nil, fmt.Errorf("%w: unknown search field %q", common.ErrInvalidArgument, s.Field)
		}
	}

	maxDistance := textmatch.MaxDistance(key, e.distanceRatio)
	selected := make([]string, 0, 16)
	passes := Plan(specs)

	for i, p := range passes {
		limit := e.quotas.Quota(i, p, len(result))
		rows, err := e.store.QueryText(ctx, interfaces.TextQuery{
			Field:         p.Field,
			Key:           key,
			Mode:          p.Mode,
			Exclude:       selected,
			Limit:         limit,
			MinSimilarity: e.minSimilarity,
			MaxDistance:   maxDistance,
		})
		if err != nil {
			return nil, fmt.Errorf("search pass %d (%s %s): %w", i, p.Mode, p.Field, err)
		}

		added := 0
		for _, row := range rows {
			if added == limit {
				break
			}
			if contains(selected, row.Symbol) {
				continue
			}
			selected = append(selected, row.Symbol)
			result = append(result, models.MatchCandidate{
				Symbol: row.Symbol,
				Field:  p.Field,
				Mode:   p.Mode,
				Pass:   i,
				Row:    row,
			})
			added++
		}
	}

	e.logger.Debug().Str("key", key).Int("passes", len(passes)).Int("results", len(result)).Msg("Search complete")
	return result, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
