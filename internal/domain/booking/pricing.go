package booking

import (
	"github.com/shopspring/decimal"
)

// Package discount tiers. Thresholds are inclusive lower bounds; the highest
// applicable tier wins.
var discountTiers = []struct {
	minSessions int
	percentage  int64
}{
	{20, 20},
	{10, 15},
	{5, 10},
}

// PriceBreakdown is the full monetary decomposition of a booking. All values
// are fixed-point decimals rounded to 2 fractional digits; float math never
// touches money.
type PriceBreakdown struct {
	PricePerSession decimal.Decimal
	SessionsCount   int
	Subtotal        decimal.Decimal
	DiscountPct     decimal.Decimal
	DiscountAmount  decimal.Decimal
	Total           decimal.Decimal
}

// DiscountPercentage returns the package discount for the given session count.
func DiscountPercentage(sessionsCount int) int64 {
	for _, tier := range discountTiers {
		if sessionsCount >= tier.minSessions {
			return tier.percentage
		}
	}
	return 0
}

// Quote computes the price breakdown for a booking. Pure and deterministic:
//
//	pricePerSession = basePricePerHour * durationMin / 60
//	subtotal        = pricePerSession * sessionsCount
//	discountAmount  = subtotal * pct / 100
//	total           = subtotal - discountAmount
func Quote(basePricePerHour decimal.Decimal, durationMin, sessionsCount int) (PriceBreakdown, error) {
	if basePricePerHour.IsNegative() {
		return PriceBreakdown{}, ErrNegativePrice
	}
	if durationMin <= 0 || sessionsCount <= 0 {
		return PriceBreakdown{}, ErrInvalidQuoteInput
	}

	pricePerSession := basePricePerHour.
		Mul(decimal.NewFromInt(int64(durationMin))).
		Div(decimal.NewFromInt(60)).
		Round(2)

	subtotal := pricePerSession.Mul(decimal.NewFromInt(int64(sessionsCount))).Round(2)

	pct := decimal.NewFromInt(DiscountPercentage(sessionsCount))
	discountAmount := subtotal.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)

	return PriceBreakdown{
		PricePerSession: pricePerSession,
		SessionsCount:   sessionsCount,
		Subtotal:        subtotal,
		DiscountPct:     pct,
		DiscountAmount:  discountAmount,
		Total:           subtotal.Sub(discountAmount),
	}, nil
}
