package domain

import "github.com/shopspring/decimal"

// Discounts itemizes the reductions applied to a subtotal. Both fields are
// non-negative and each is computed against the pre-discount subtotal,
// never against the other's result.
type Discounts struct {
	Bulk   decimal.Decimal
	Member decimal.Decimal
}

// PriceSummary is the immutable result of one pricing calculation.
// FinalPrice = SubTotal - Bulk - Member and is never negative; the
// combined discounts are capped at the subtotal.
type PriceSummary struct {
	SubTotal   decimal.Decimal
	Discounts  Discounts
	FinalPrice decimal.Decimal
}

type SummaryStatus string

const (
	SummaryNone    SummaryStatus = "none"
	SummaryPending SummaryStatus = "pending"
	SummaryReady   SummaryStatus = "ready"
	SummaryFailed  SummaryStatus = "failed"
)

// SummaryState tracks the last pricing result for a session so that stale
// totals are never shown. Every cart or membership mutation resets it to
// SummaryNone; a checkout moves it through SummaryPending to SummaryReady
// or SummaryFailed.
type SummaryState struct {
	Status  SummaryStatus
	Summary *PriceSummary
	Err     error
}
