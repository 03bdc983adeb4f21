package repository

import (
	"context"

	"github.com/user/catalog-agent/internal/entity"
)

// OptionRepository defines the interface for option axes and their values.
// Both operations are get-or-create: concurrent extractions racing on the
// same name rely on the unique constraints, not application locks.
type OptionRepository interface {
	// GetOrCreateCategory resolves an option axis by its unique name.
	GetOrCreateCategory(ctx context.Context, name string) (*entity.OptionCategory, error)
	// GetOrCreateValue resolves a value within a category; (category, value)
	// is unique.
	GetOrCreateValue(ctx context.Context, categoryID int64, value string) (*entity.OptionValue, error)
}

// VariantRepository defines the interface for product variants, unique per
// (product, option key).
type VariantRepository interface {
	// Upsert creates or updates a variant keyed by (product, option key),
	// replaces its option-value links and attaches any images. Fills in the
	// id on the passed entity.
	Upsert(ctx context.Context, v *entity.Variant) error
	// ListByProduct returns a product's variants in id order with their
	// option selections resolved.
	ListByProduct(ctx context.Context, productID int64) ([]*entity.Variant, error)
}
