package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product mirrors the `products` PostgreSQL table schema. Exactly one
// product exists per distinct source URL.
type Product struct {
	ID          int64
	Title       string
	Description string
	// Price is the baseline/display price. Monetary values are exact
	// decimals, never floats.
	Price     decimal.Decimal
	SourceURL string
	// AllowUpdate is cleared once a product has been fully scraped so that
	// batch re-scrape passes skip it until explicitly reset.
	AllowUpdate bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Image mirrors the `images` PostgreSQL table schema. Images belong to a
// product and are unique per (product, url).
type Image struct {
	ID        int64
	ProductID int64
	URL       string
	AltText   string
}
