package pricefeeder

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/slab-network/oracled/internal/core/domain"
)

var maxPriceE6 = decimal.NewFromInt(1<<63 - 1)

// ToPriceE6 converts a decimal price string into its 1e6 fixed-point form,
// rounding half away from zero. Non-positive prices are rejected.
func ToPriceE6(price string) (uint64, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", price, err)
	}
	return DecimalToPriceE6(d)
}

func DecimalToPriceE6(d decimal.Decimal) (uint64, error) {
	e6 := d.Mul(decimal.NewFromInt(domain.PriceScale)).Round(0)
	if !e6.IsPositive() {
		return 0, fmt.Errorf("price %s is not positive", d)
	}
	if e6.GreaterThan(maxPriceE6) {
		return 0, fmt.Errorf("price %s overflows", d)
	}
	return uint64(e6.IntPart()), nil
}
