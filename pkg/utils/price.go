package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// priceRe matches the first numeric run of a price string, e.g. the
// "45.00" in "$45.00 AUD" or "1,299.00" in "From $1,299.00".
var priceRe = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)

// ParsePrice extracts an exact decimal amount from a displayed price
// string, stripping currency symbols, thousands separators and currency
// code suffixes. Monetary values are never parsed through floats, so
// "$45.00 AUD" yields exactly 45.00.
func ParsePrice(text string) (decimal.Decimal, error) {
	match := priceRe.FindString(text)
	if match == "" {
		return decimal.Zero, fmt.Errorf("no numeric amount in %q", text)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", match, err)
	}
	return d, nil
}
