package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry. The catalog owns products; this core only
// reads them to resolve cart lines into prices.
type Product struct {
	ID    int64
	Name  string
	Price decimal.Decimal
}
