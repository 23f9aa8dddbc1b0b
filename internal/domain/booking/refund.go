package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// CancelLeadTime is the minimum remaining window before the first session for
// a cancellation to be accepted at all. Inside this window cancellation is
// rejected outright rather than accepted with a 0% refund; the 4-hour refund
// rung below survives only in the pure policy function.
const CancelLeadTime = 24 * time.Hour

var refundTiers = []struct {
	minLead    time.Duration
	percentage int64
}{
	{48 * time.Hour, 100},
	{24 * time.Hour, 80},
	{4 * time.Hour, 50},
}

// RefundPercentage maps the remaining lead time before the first session to a
// refund percentage. Pure function of the duration.
func RefundPercentage(untilFirstSession time.Duration) int64 {
	for _, tier := range refundTiers {
		if untilFirstSession >= tier.minLead {
			return tier.percentage
		}
	}
	return 0
}

// RefundAmount computes pct% of total, rounded to 2 fractional digits.
func RefundAmount(total decimal.Decimal, pct int64) decimal.Decimal {
	return total.
		Mul(decimal.NewFromInt(pct)).
		Div(decimal.NewFromInt(100)).
		Round(2)
}
