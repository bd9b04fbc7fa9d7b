package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ratthapon/storefront/internal/core/domain"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func catalogWith(t *testing.T, entries ...domain.Product) map[int64]domain.Product {
	t.Helper()
	products := make(map[int64]domain.Product, len(entries))
	for _, p := range entries {
		products[p.ID] = p
	}
	return products
}

func riceCatalog(t *testing.T) map[int64]domain.Product {
	return catalogWith(t, domain.Product{ID: 1, Name: "Rice", Price: dec(t, "40")})
}

func assertSummary(t *testing.T, summary domain.PriceSummary, subTotal, bulk, member, final string) {
	t.Helper()
	if !summary.SubTotal.Equal(dec(t, subTotal)) {
		t.Errorf("expected subTotal %s, got %s", subTotal, summary.SubTotal)
	}
	if !summary.Discounts.Bulk.Equal(dec(t, bulk)) {
		t.Errorf("expected bulk discount %s, got %s", bulk, summary.Discounts.Bulk)
	}
	if !summary.Discounts.Member.Equal(dec(t, member)) {
		t.Errorf("expected member discount %s, got %s", member, summary.Discounts.Member)
	}
	if !summary.FinalPrice.Equal(dec(t, final)) {
		t.Errorf("expected finalPrice %s, got %s", final, summary.FinalPrice)
	}
}

func TestCalculate_NoDiscounts(t *testing.T) {
	engine := NewPricingEngine(DefaultPricingConfig())

	summary, err := engine.Calculate(
		[]domain.OrderLine{{ProductID: 1, Quantity: 3}},
		false,
		riceCatalog(t),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertSummary(t, summary, "120", "0", "0", "120")
}

func TestCalculate_MemberDiscount(t *testing.T) {
	engine := NewPricingEngine(DefaultPricingConfig())

	summary, err := engine.Calculate(
		[]domain.OrderLine{{ProductID: 1, Quantity: 3}},
		true,
		riceCatalog(t),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertSummary(t, summary, "120", "0", "12", "108")
}

func TestCalculate_BulkDiscount(t *testing.T) {
	cfg := DefaultPricingConfig()
	cfg.BulkThreshold = 3
	engine := NewPricingEngine(cfg)

	summary, err := engine.Calculate(
		[]domain.OrderLine{{ProductID: 1, Quantity: 3}},
		false,
		riceCatalog(t),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertSummary(t, summary, "120", "6", "0", "114")
}

func TestCalculate_DiscountsAreAdditiveNotCompounded(t *testing.T) {
	cfg := DefaultPricingConfig()
	cfg.BulkThreshold = 3
	engine := NewPricingEngine(cfg)

	summary, err := engine.Calculate(
		[]domain.OrderLine{{ProductID: 1, Quantity: 3}},
		true,
		riceCatalog(t),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 5% and 10% each of the 120 subtotal, not of each other's result.
	assertSummary(t, summary, "120", "6", "12", "102")
}

func TestCalculate_BulkThresholdNotMet(t *testing.T) {
	cfg := DefaultPricingConfig()
	cfg.BulkThreshold = 10
	engine := NewPricingEngine(cfg)

	summary, err := engine.Calculate(
		[]domain.OrderLine{{ProductID: 1, Quantity: 3}},
		false,
		riceCatalog(t),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertSummary(t, summary, "120", "0", "0", "120")
}

func TestCalculate_BulkThresholdCartWide(t *testing.T) {
	cfg := DefaultPricingConfig()
	cfg.BulkThreshold = 5
	engine := NewPricingEngine(cfg)

	catalog := catalogWith(t,
		domain.Product{ID: 1, Name: "Rice", Price: dec(t, "40")},
		domain.Product{ID: 2, Name: "Thai Tea", Price: dec(t, "25")},
	)

	// 3 + 2 across lines meets the threshold even though no single line does.
	summary, err := engine.Calculate(
		[]domain.OrderLine{
			{ProductID: 1, Quantity: 3},
			{ProductID: 2, Quantity: 2},
		},
		false,
		catalog,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertSummary(t, summary, "170", "8.5", "0", "161.5")
}

func TestCalculate_MemberDiscountRounding(t *testing.T) {
	engine := NewPricingEngine(DefaultPricingConfig())

	summary, err := engine.Calculate(
		[]domain.OrderLine{{ProductID: 7, Quantity: 1}},
		true,
		catalogWith(t, domain.Product{ID: 7, Name: "Mango Sticky Rice", Price: dec(t, "19.99")}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 10% of 19.99 is 1.999, rounded to 2.00.
	assertSummary(t, summary, "19.99", "0", "2.00", "17.99")
}

func TestCalculate_UnknownProduct(t *testing.T) {
	engine := NewPricingEngine(DefaultPricingConfig())

	summary, err := engine.Calculate(
		[]domain.OrderLine{
			{ProductID: 1, Quantity: 1},
			{ProductID: 99, Quantity: 2},
		},
		true,
		riceCatalog(t),
	)

	var resolution *ResolutionError
	if !errors.As(err, &resolution) {
		t.Fatalf("expected ResolutionError, got: %v", err)
	}
	if resolution.ProductID != 99 {
		t.Errorf("expected offending product 99, got %d", resolution.ProductID)
	}
	if !summary.SubTotal.IsZero() || !summary.FinalPrice.IsZero() {
		t.Error("expected no partial summary on resolution failure")
	}
}

func TestCalculate_EmptyCart(t *testing.T) {
	engine := NewPricingEngine(DefaultPricingConfig())

	summary, err := engine.Calculate(nil, true, riceCatalog(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertSummary(t, summary, "0", "0", "0", "0")
}

func TestCalculate_HighQuantityStaysExact(t *testing.T) {
	cfg := DefaultPricingConfig()
	cfg.BulkThreshold = 3
	engine := NewPricingEngine(cfg)

	summary, err := engine.Calculate(
		[]domain.OrderLine{{ProductID: 1, Quantity: 1000000}},
		true,
		riceCatalog(t),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertSummary(t, summary, "40000000", "2000000", "4000000", "34000000")
	if summary.FinalPrice.IsNegative() {
		t.Error("finalPrice must never be negative")
	}
}

func TestCalculate_CapReducesBulkFirst(t *testing.T) {
	// Rates that oversubscribe the subtotal exercise the cap rule: shrink
	// bulk first, then member, until discounts equal the subtotal.
	cfg := PricingConfig{
		BulkRate:      dec(t, "0.30"),
		MemberRate:    dec(t, "0.90"),
		BulkThreshold: 1,
	}
	engine := NewPricingEngine(cfg)

	summary, err := engine.Calculate(
		[]domain.OrderLine{{ProductID: 5, Quantity: 1}},
		true,
		catalogWith(t, domain.Product{ID: 5, Name: "Voucher", Price: dec(t, "100")}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// bulk 30 + member 90 exceed 100 by 20: bulk drops to 10, member stays.
	assertSummary(t, summary, "100", "10", "90", "0")
}

func TestCalculate_CapConsumesBulkThenMember(t *testing.T) {
	cfg := PricingConfig{
		BulkRate:      dec(t, "0.20"),
		MemberRate:    dec(t, "1.20"),
		BulkThreshold: 1,
	}
	engine := NewPricingEngine(cfg)

	summary, err := engine.Calculate(
		[]domain.OrderLine{{ProductID: 5, Quantity: 1}},
		true,
		catalogWith(t, domain.Product{ID: 5, Name: "Voucher", Price: dec(t, "100")}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 20 + 120 exceed 100 by 40: bulk is exhausted, member gives up the rest.
	assertSummary(t, summary, "100", "0", "100", "0")
}

func TestCalculate_LineOrderIrrelevant(t *testing.T) {
	engine := NewPricingEngine(DefaultPricingConfig())
	catalog := catalogWith(t,
		domain.Product{ID: 1, Name: "Rice", Price: dec(t, "40")},
		domain.Product{ID: 2, Name: "Thai Tea", Price: dec(t, "25.50")},
		domain.Product{ID: 3, Name: "Pad Thai", Price: dec(t, "60")},
	)

	forward := []domain.OrderLine{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 3}, {ProductID: 3, Quantity: 1}}
	reversed := []domain.OrderLine{{ProductID: 3, Quantity: 1}, {ProductID: 2, Quantity: 3}, {ProductID: 1, Quantity: 2}}

	a, err := engine.Calculate(forward, true, catalog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := engine.Calculate(reversed, true, catalog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !a.SubTotal.Equal(b.SubTotal) || !a.FinalPrice.Equal(b.FinalPrice) {
		t.Errorf("summation must be order-independent: %s/%s vs %s/%s",
			a.SubTotal, a.FinalPrice, b.SubTotal, b.FinalPrice)
	}
}

func TestCalculate_NonMemberNeverGetsMemberDiscount(t *testing.T) {
	cfg := DefaultPricingConfig()
	cfg.BulkThreshold = 1
	engine := NewPricingEngine(cfg)

	for _, qty := range []int{1, 7, 500} {
		summary, err := engine.Calculate(
			[]domain.OrderLine{{ProductID: 1, Quantity: qty}},
			false,
			riceCatalog(t),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !summary.Discounts.Member.IsZero() {
			t.Errorf("qty %d: expected zero member discount, got %s", qty, summary.Discounts.Member)
		}
	}
}
