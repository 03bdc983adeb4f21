package repository

import (
	"context"

	"github.com/user/catalog-agent/internal/entity"
)

// CollectionRepository defines the interface for storing storefront
// collections. The natural key is the source URL.
type CollectionRepository interface {
	// Upsert creates or updates a collection keyed by source URL and fills
	// in the id on the passed entity.
	Upsert(ctx context.Context, c *entity.Collection) error
	// FindByID retrieves one collection or ErrNotFound.
	FindByID(ctx context.Context, id int64) (*entity.Collection, error)
	// List returns all collections.
	List(ctx context.Context) ([]*entity.Collection, error)
	// AddProduct links a product to a collection; linking twice is a no-op.
	AddProduct(ctx context.Context, collectionID, productID int64) error
	// SetExportPath records the path of the last exported CSV file.
	SetExportPath(ctx context.Context, id int64, path string) error
}
