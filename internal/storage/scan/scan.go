// Package scan evaluates metadata store queries over rows held in memory.
// Backends without native trigram or edit-distance support load candidate
// rows and delegate ranking here.
package scan

import (
	"fmt"
	"sort"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
	"github.com/bobmcallan/nsechat/internal/textmatch"
)

type scored struct {
	row   *models.SymbolMetadata
	score float64
}

// Text applies a TextQuery to rows. Prefix and contains matches are ordered by
// market cap descending; similarity by score descending; distance ascending.
// Ties always fall back to symbol order.
func Text(rows []*models.SymbolMetadata, q interfaces.TextQuery) ([]*models.SymbolMetadata, error) {
	if !q.Field.Valid() {
		return nil, fmt.Errorf("%w: unknown field %q", common.ErrInvalidArgument, q.Field)
	}
	key := textmatch.Fold(q.Key)
	if key == "" || q.Limit <= 0 {
		return nil, nil
	}

	excluded := make(map[string]struct{}, len(q.Exclude))
	for _, s := range q.Exclude {
		excluded[s] = struct{}{}
	}

	var matches []scored
	for _, row := range rows {
		if _, skip := excluded[row.Symbol]; skip {
			continue
		}
		value := q.Field.Value(row)
		if value == "" {
			continue
		}
		switch q.Mode {
		case models.MatchPrefix:
			if textmatch.HasPrefix(value, key) {
				matches = append(matches, scored{row: row, score: row.TotalMarketCap})
			}
		case models.MatchContains:
			if textmatch.Contains(value, key) {
				matches = append(matches, scored{row: row, score: row.TotalMarketCap})
			}
		case models.MatchSimilarity:
			if s := textmatch.Similarity(value, key); s > q.MinSimilarity {
				matches = append(matches, scored{row: row, score: s})
			}
		case models.MatchDistance:
			if d := textmatch.Distance(value, key); d <= q.MaxDistance {
				// lower distance ranks first
				matches = append(matches, scored{row: row, score: -float64(d)})
			}
		default:
			return nil, fmt.Errorf("%w: unknown match mode %q", common.ErrInvalidArgument, q.Mode)
		}
	}

	return take(matches, q.Limit), nil
}

// Top applies a TopQuery to rows.
func Top(rows []*models.SymbolMetadata, q interfaces.TopQuery) []*models.SymbolMetadata {
	if len(q.Values) == 0 || q.Limit <= 0 {
		return nil
	}
	wanted := make(map[string]struct{}, len(q.Values))
	for _, v := range q.Values {
		wanted[v] = struct{}{}
	}

	var matches []scored
	for _, row := range rows {
		for _, f := range q.Fields {
			if _, ok := wanted[f.Value(row)]; ok {
				matches = append(matches, scored{row: row, score: q.OrderBy.Value(row)})
				break
			}
		}
	}
	return take(matches, q.Limit)
}

// Distinct returns the sorted distinct non-empty values of field across rows.
func Distinct(rows []*models.SymbolMetadata, field models.Field) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, row := range rows {
		v := field.Value(row)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Exclude filters out rows whose symbol is in symbols.
func Exclude(rows []*models.SymbolMetadata, symbols []string) []*models.SymbolMetadata {
	if len(symbols) == 0 {
		return rows
	}
	skip := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		skip[s] = struct{}{}
	}
	out := make([]*models.SymbolMetadata, 0, len(rows))
	for _, row := range rows {
		if _, ok := skip[row.Symbol]; !ok {
			out = append(out, row)
		}
	}
	return out
}

// SortBySymbol orders rows by symbol in place.
func SortBySymbol(rows []*models.SymbolMetadata) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol })
}

func take(matches []scored, limit int) []*models.SymbolMetadata {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].row.Symbol < matches[j].row.Symbol
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]*models.SymbolMetadata, len(matches))
	for i, m := range matches {
		out[i] = m.row
	}
	return out
}
