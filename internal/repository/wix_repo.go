package repository

import (
	"context"

	"github.com/user/catalog-agent/internal/entity"
)

// WixProductRepository defines the interface for the denormalized external
// catalog records. The idempotency key is (handle_id, field_type, sku), so
// re-running a sync refreshes rows instead of duplicating them.
type WixProductRepository interface {
	// Upsert creates or refreshes a record keyed by
	// (handle_id, field_type, sku), replaces its collection links and fills
	// in the id on the passed entity.
	Upsert(ctx context.Context, w *entity.WixProduct) error
	// ListByCollection returns all rows linked to a collection with
	// CollectionTitles populated, product rows before their variant rows,
	// families contiguous.
	ListByCollection(ctx context.Context, collectionID int64) ([]*entity.WixProduct, error)
	// ListByHandle returns the rows of one product family in row order
	// (product row first).
	ListByHandle(ctx context.Context, handleID string) ([]*entity.WixProduct, error)
}
