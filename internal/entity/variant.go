package entity

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// OptionSelection is one resolved (category, value) pair attached to a
// variant, denormalized for readers that need the names without extra
// lookups.
type OptionSelection struct {
	ValueID  int64
	Category string
	Value    string
}

// Variant mirrors the `variants` PostgreSQL table schema. A variant is one
// sellable option combination of a product with its own price and,
// optionally, its own images (readers fall back to the product images
// otherwise).
type Variant struct {
	ID        int64
	ProductID int64
	Price     decimal.Decimal
	// OptionKey is the dedup key within a product; see VariantOptionKey and
	// VariantPriceKey. (product_id, option_key) is unique.
	OptionKey string
	Options   []OptionSelection
	Images    []Image
}

// VariantOptionKey derives a variant identity key from the full set of
// option value ids. The ids are sorted so the key is independent of
// selection order.
func VariantOptionKey(valueIDs []int64) string {
	if len(valueIDs) == 0 {
		return "ov:"
	}
	ids := make([]int64, len(valueIDs))
	copy(ids, valueIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "ov:" + strings.Join(parts, "-")
}

// VariantPriceKey derives the legacy variant identity key from the price
// alone. Two combinations that share a price collapse into one variant
// under this key; it exists as a compatibility mode only.
func VariantPriceKey(price decimal.Decimal) string {
	return fmt.Sprintf("price:%s", price.StringFixed(2))
}
