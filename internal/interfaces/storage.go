// Package interfaces defines service contracts for nsechat
package interfaces

import (
	"context"

	"github.com/bobmcallan/nsechat/internal/models"
)

// MetadataStore persists one SymbolMetadata row per tradable symbol and
// answers the text and ranking queries the search services need.
// Every backend wraps connection and query failures with common.ErrStoreUnavailable.
type MetadataStore interface {
	// Upsert overwrites every non-key field of an existing row or inserts a new one.
	// Atomic per call.
	Upsert(ctx context.Context, row *models.SymbolMetadata) error

	// DeleteNotIn removes every row whose symbol is not in symbols and returns
	// the number removed. An empty set is rejected rather than emptying the table.
	DeleteNotIn(ctx context.Context, symbols []string) (int, error)

	// Get returns the row for symbol, or nil when it does not exist.
	Get(ctx context.Context, symbol string) (*models.SymbolMetadata, error)

	// List returns every row ordered by symbol.
	List(ctx context.Context) ([]*models.SymbolMetadata, error)

	// Count returns the number of rows.
	Count(ctx context.Context) (int, error)

	// QueryText runs one case-insensitive text query (prefix, contains,
	// similarity or distance) over a single field.
	QueryText(ctx context.Context, q TextQuery) ([]*models.SymbolMetadata, error)

	// Distinct returns the distinct non-empty values of a field, sorted.
	Distinct(ctx context.Context, field models.Field) ([]string, error)

	// TopN returns up to q.Limit rows whose value in any of q.Fields equals
	// one of q.Values, ordered by q.OrderBy descending then symbol.
	TopN(ctx context.Context, q TopQuery) ([]*models.SymbolMetadata, error)

	// Close releases the backend connection.
	Close() error
}

// TextQuery describes one pass of the search cascade against the store.
type TextQuery struct {
	Field   models.Field
	Key     string // case-folded by the store
	Mode    models.MatchMode
	Exclude []string // symbols already selected
	Limit   int

	// Similarity rows must score strictly above MinSimilarity.
	MinSimilarity float64
	// Distance rows must be within MaxDistance edits.
	MaxDistance int
}

// TopQuery selects rows by exact label match and orders them numerically.
type TopQuery struct {
	OrderBy models.NumericField
	Fields  []models.Field
	Values  []string
	Limit   int
}
