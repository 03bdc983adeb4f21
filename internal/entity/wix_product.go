package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field types for WixProduct rows. All rows sharing a handle id describe one
// logical product family: exactly one Product row, rendered first, followed
// by its Variant rows.
const (
	FieldTypeProduct = "Product"
	FieldTypeVariant = "Variant"
)

// Option control types understood by the downstream importer.
const (
	OptionTypeColor    = "COLOR"
	OptionTypeDropDown = "DROP_DOWN"
)

// WixOptionSlots is the number of option slots the import format reserves
// per row, and WixInfoSlots the number of free-form info pairs.
const (
	WixOptionSlots = 6
	WixInfoSlots   = 6
)

// WixOptionSlot is one (name, type, description) option triple.
type WixOptionSlot struct {
	Name        string
	Type        string
	Description string
}

// WixInfoSlot is one free-form additional-info pair.
type WixInfoSlot struct {
	Title       string
	Description string
}

// WixProduct mirrors the `wix_products` PostgreSQL table schema: the
// denormalized record type matching the external bulk-import format.
// (handle_id, field_type, sku) is unique and serves as the idempotency key
// for re-sync.
type WixProduct struct {
	ID        int64
	HandleID  string
	FieldType string

	// Display fields. Variant rows leave these empty.
	Name            string
	Description     string
	ProductImageURL string

	SKU    string
	Ribbon string
	Brand  string

	Price         *decimal.Decimal
	Surcharge     *decimal.Decimal
	Visible       bool
	DiscountMode  string
	DiscountValue *decimal.Decimal
	Inventory     string
	Weight        *decimal.Decimal
	Cost          *decimal.Decimal

	Options        [WixOptionSlots]WixOptionSlot
	AdditionalInfo [WixInfoSlots]WixInfoSlot

	CustomTextField1     string
	CustomTextCharLimit1 *int
	CustomTextMandatory1 bool

	CollectionIDs []int64
	// CollectionTitles is populated on reads that join the collections
	// table; it is not written back.
	CollectionTitles []string

	CreatedAt time.Time
	UpdatedAt time.Time
}
