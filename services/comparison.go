package services

import (
	"time"

	"github.com/shopspring/decimal"

	"morsel-sales/models"
)

var hundred = decimal.NewFromInt(100)

// Compare totals sales strictly before cutoff against sales on or after it.
// Both totals are rounded to cents before the percent change is taken:
// zero to zero is 0%, zero to anything positive is the infinity sentinel.
func Compare(d Dataset, cutoff time.Time) models.ComparisonResult {
	cut := midnight(cutoff)

	before, after := decimal.Zero, decimal.Zero
	for _, r := range d.records {
		if r.Date.Before(cut) {
			before = before.Add(r.Sales)
		} else {
			after = after.Add(r.Sales)
		}
	}
	before = before.Round(2)
	after = after.Round(2)

	return models.ComparisonResult{
		TotalBefore:   before,
		TotalAfter:    after,
		Delta:         after.Sub(before),
		PercentChange: PercentChange(before, after),
	}
}

// PercentChange returns (after-before)/before*100 rounded to two places,
// with 0 for 0->0 and the infinity sentinel for 0->positive.
func PercentChange(before, after decimal.Decimal) models.PercentChange {
	if before.IsZero() {
		if after.IsZero() {
			return models.PercentChange{Value: decimal.Zero}
		}
		return models.InfinitePercent
	}
	pct := after.Sub(before).Div(before).Mul(hundred).Round(2)
	return models.PercentChange{Value: pct}
}
