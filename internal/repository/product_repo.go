package repository

import (
	"context"

	"github.com/user/catalog-agent/internal/entity"
)

// ProductRepository defines the interface for storing products. The natural
// key is the source URL; exactly one product exists per distinct URL.
type ProductRepository interface {
	// Upsert creates or updates a product keyed by source URL and fills in
	// the id on the passed entity. It never touches AllowUpdate on an
	// existing row; use SetAllowUpdate for that.
	Upsert(ctx context.Context, p *entity.Product) error
	// UpsertSkeleton creates a product keyed by source URL if it is new and
	// otherwise leaves every scraped field untouched, filling in the id
	// either way. Link discovery uses this so a re-crawl never overwrites
	// extracted data with placeholders.
	UpsertSkeleton(ctx context.Context, p *entity.Product) error
	// FindByID retrieves one product or ErrNotFound.
	FindByID(ctx context.Context, id int64) (*entity.Product, error)
	// FindBySourceURL retrieves one product or ErrNotFound.
	FindBySourceURL(ctx context.Context, sourceURL string) (*entity.Product, error)
	// List returns all products.
	List(ctx context.Context) ([]*entity.Product, error)
	// ListUpdatable returns the products still eligible for re-scraping.
	ListUpdatable(ctx context.Context) ([]*entity.Product, error)
	// ListByCollection returns the products linked to a collection.
	ListByCollection(ctx context.Context, collectionID int64) ([]*entity.Product, error)
	// SetAllowUpdate flips the re-scrape eligibility flag.
	SetAllowUpdate(ctx context.Context, id int64, allow bool) error
	// CollectionsOf returns the collections a product is linked to.
	CollectionsOf(ctx context.Context, productID int64) ([]*entity.Collection, error)
}

// ImageRepository defines the interface for storing product images, unique
// per (product, url).
type ImageRepository interface {
	// Upsert creates or refreshes an image keyed by (product, url) and
	// fills in the id on the passed entity.
	Upsert(ctx context.Context, img *entity.Image) error
	// ListByProduct returns a product's images in insertion order.
	ListByProduct(ctx context.Context, productID int64) ([]entity.Image, error)
}
