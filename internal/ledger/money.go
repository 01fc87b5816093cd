package ledger

import "github.com/shopspring/decimal"

// Monetary amounts are carried at scale 2, average costs at scale 6.
// Rounding is half-even throughout, matching NRA filing arithmetic.
const (
	AmountScale      = 2
	AverageCostScale = 6
)

// Round2 rounds a monetary amount half-even to scale 2.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(AmountScale)
}

// RoundCost rounds a unit cost half-even to scale 6.
func RoundCost(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(AverageCostScale)
}

// SafeDiv returns num/den at cost scale, or zero when den is zero.
func SafeDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return RoundCost(num.Div(den))
}

// materialityThreshold is the smallest average-cost delta worth correcting:
// anything below one stotinka per affected issue is ignored.
var materialityThreshold = decimal.New(1, -2) // 0.01
