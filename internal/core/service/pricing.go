package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ratthapon/storefront/internal/core/domain"
)

// ErrCatalogUnavailable marks a pricing attempt that could not reach the
// catalog. It is never downgraded to an empty or zero-discount summary.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// ResolutionError reports a cart line whose product is unknown to the
// catalog at calculation time. The whole calculation aborts; there is no
// partial summary.
type ResolutionError struct {
	ProductID int64
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("product %d not found in catalog", e.ProductID)
}

// PricingConfig carries the discount rates and the bulk qualification
// rule. The storefront surface only fixes the rates (bulk 5%, member 10%);
// the quantity at which the bulk discount kicks in is deployment
// configuration. BulkThreshold is compared against the cart-wide total
// quantity; a threshold of zero or less disables the bulk discount.
type PricingConfig struct {
	BulkRate      decimal.Decimal
	MemberRate    decimal.Decimal
	BulkThreshold int
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		BulkRate:      decimal.NewFromFloat(0.05),
		MemberRate:    decimal.NewFromFloat(0.10),
		BulkThreshold: 0,
	}
}

// PricingEngine turns (order lines, membership flag, resolved products)
// into a PriceSummary. It is stateless and safe for concurrent use.
type PricingEngine struct {
	cfg PricingConfig
}

func NewPricingEngine(cfg PricingConfig) *PricingEngine {
	return &PricingEngine{cfg: cfg}
}

// Calculate prices the given lines against the resolved products. Every
// line's product must be present in products; otherwise the calculation
// fails with a ResolutionError naming the first offending line and no
// summary is produced.
//
// The subtotal is exact decimal arithmetic with no per-line rounding, so
// line order cannot affect the result. Each discount is a percentage of
// the pre-discount subtotal, rounded to 2 places; the two are additive,
// never compounded. If their sum would exceed the subtotal, the bulk
// component is reduced first, then the member component, so the combined
// discount equals the subtotal exactly and the final price is zero.
func (e *PricingEngine) Calculate(lines []domain.OrderLine, isMember bool, products map[int64]domain.Product) (domain.PriceSummary, error) {
	subTotal := decimal.Zero
	totalQty := 0

	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			return domain.PriceSummary{}, &ResolutionError{ProductID: line.ProductID}
		}
		subTotal = subTotal.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		totalQty += line.Quantity
	}

	bulk := decimal.Zero
	if e.cfg.BulkThreshold > 0 && totalQty >= e.cfg.BulkThreshold {
		bulk = subTotal.Mul(e.cfg.BulkRate).Round(2)
	}

	member := decimal.Zero
	if isMember {
		member = subTotal.Mul(e.cfg.MemberRate).Round(2)
	}

	if over := bulk.Add(member).Sub(subTotal); over.IsPositive() {
		if over.GreaterThanOrEqual(bulk) {
			over = over.Sub(bulk)
			bulk = decimal.Zero
			member = member.Sub(over)
		} else {
			bulk = bulk.Sub(over)
		}
	}

	return domain.PriceSummary{
		SubTotal: subTotal,
		Discounts: domain.Discounts{
			Bulk:   bulk,
			Member: member,
		},
		FinalPrice: subTotal.Sub(bulk).Sub(member),
	}, nil
}
