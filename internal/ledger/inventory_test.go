package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyReceiptFromEmpty(t *testing.T) {
	b := InventoryBalance{}
	b = ApplyReceipt(b, dec("10"), dec("100.00"))
	assert.True(t, b.Quantity.Equal(dec("10")))
	assert.True(t, b.TotalAmount.Equal(dec("100.00")))
	assert.True(t, b.AverageCost.Equal(dec("10")))
}

func TestApplyIssueAtAverage(t *testing.T) {
	b := InventoryBalance{Quantity: dec("10"), TotalAmount: dec("100.00"), AverageCost: dec("10")}
	b, value := ApplyIssue(b, dec("4"))
	assert.True(t, value.Equal(dec("40.00")))
	assert.True(t, b.Quantity.Equal(dec("6")))
	assert.True(t, b.TotalAmount.Equal(dec("60.00")))
	assert.True(t, b.AverageCost.Equal(dec("10")), "issue must not move the average")
}

func TestMovingAverageAfterMixedPriceReceipt(t *testing.T) {
	// (60 + 150) / (6 + 10) = 13.125
	b := InventoryBalance{Quantity: dec("6"), TotalAmount: dec("60.00"), AverageCost: dec("10")}
	b = ApplyReceipt(b, dec("10"), dec("150.00"))
	assert.True(t, b.Quantity.Equal(dec("16")))
	assert.True(t, b.TotalAmount.Equal(dec("210.00")))
	assert.True(t, b.AverageCost.Equal(dec("13.125")))
}

func TestApplyIssueEmptiesAccount(t *testing.T) {
	// 3 pieces carried at 9.999999 round to 30.00; emptying must take the
	// whole remaining amount rather than leave a rounding residue.
	b := InventoryBalance{Quantity: dec("3"), TotalAmount: dec("29.99"), AverageCost: dec("9.996667")}
	b, value := ApplyIssue(b, dec("3"))
	assert.True(t, value.Equal(dec("29.99")))
	assert.True(t, b.Quantity.IsZero())
	assert.True(t, b.TotalAmount.IsZero())
	assert.True(t, b.AverageCost.IsZero())
}

func TestSafeDivZeroDenominator(t *testing.T) {
	assert.True(t, SafeDiv(dec("10"), decimal.Zero).IsZero())
}

func mv(id int64, day, typ, qty, total, avgAtTime string) InventoryMovement {
	m := InventoryMovement{
		ID:           id,
		CompanyID:    1,
		AccountID:    4,
		MovementType: typ,
		MovementDate: date(day),
		Quantity:     dec(qty),
		TotalAmount:  dec(total),
	}
	if avgAtTime != "" {
		m.AverageCostAtTime = dec(avgAtTime)
	}
	return m
}

func TestReplayMovements(t *testing.T) {
	movements := []InventoryMovement{
		mv(1, "2025-01-10", MovementDebit, "10", "100.00", ""),
		mv(2, "2025-01-15", MovementCredit, "4", "40.00", "10"),
		mv(3, "2025-01-20", MovementDebit, "10", "150.00", ""),
	}
	b := ReplayMovements(1, 4, movements)
	assert.True(t, b.Quantity.Equal(dec("16")))
	assert.True(t, b.TotalAmount.Equal(dec("210.00")))
	assert.True(t, b.AverageCost.Equal(dec("13.125")))
}

func TestPlanCorrectionsBackdatedReceipt(t *testing.T) {
	// History was a single receipt at 10.00 and an issue of 4 valued 40.00.
	// A receipt of 10 at 8.00, back-dated before everything, shifts the
	// average the issue should have used to 9.00.
	movements := []InventoryMovement{
		mv(9, "2025-01-05", MovementDebit, "10", "80.00", ""),
		mv(1, "2025-01-10", MovementDebit, "10", "100.00", ""),
		mv(2, "2025-01-15", MovementCredit, "4", "40.00", "10"),
	}
	plan := PlanCorrections(movements)
	require.Len(t, plan, 1)
	c := plan[0]
	assert.Equal(t, int64(2), c.MovementID)
	assert.True(t, c.OldAverageCost.Equal(dec("10")))
	assert.True(t, c.NewAverageCost.Equal(dec("9")))
	assert.True(t, c.CorrectionAmount.Equal(dec("-4.00")))
}

func TestPlanCorrectionsNoInterveningReceipt(t *testing.T) {
	movements := []InventoryMovement{
		mv(9, "2025-01-05", MovementDebit, "10", "80.00", ""),
		mv(2, "2025-01-15", MovementCredit, "4", "40.00", "10"),
	}
	plan := PlanCorrections(movements)
	require.Len(t, plan, 1)
	c := plan[0]
	assert.True(t, c.NewAverageCost.Equal(dec("8")))
	// (8.00 - 10.00) x 4
	assert.True(t, c.CorrectionAmount.Equal(dec("-8.00")))
}

func TestPlanCorrectionsBelowMaterialityIgnored(t *testing.T) {
	// The back-dated receipt moves the average by a fraction of a stotinka
	// per piece; 0.005 x 1 is below the threshold.
	movements := []InventoryMovement{
		mv(9, "2025-01-05", MovementDebit, "1000", "9995.00", ""),
		mv(1, "2025-01-10", MovementDebit, "1000", "10000.00", ""),
		mv(2, "2025-01-15", MovementCredit, "1", "10.00", "10"),
	}
	plan := PlanCorrections(movements)
	assert.Empty(t, plan)
}

func TestPlanCorrectionsMultipleIssues(t *testing.T) {
	movements := []InventoryMovement{
		mv(9, "2025-01-02", MovementDebit, "10", "50.00", ""), // back-dated at 5.00
		mv(1, "2025-01-10", MovementDebit, "10", "100.00", ""),
		mv(2, "2025-01-15", MovementCredit, "4", "40.00", "10"),
		mv(3, "2025-01-20", MovementCredit, "6", "60.00", "10"),
	}
	plan := PlanCorrections(movements)
	require.Len(t, plan, 2)
	// Replayed average is (50+100)/20 = 7.50 for both issues.
	assert.True(t, plan[0].NewAverageCost.Equal(dec("7.5")))
	assert.True(t, plan[0].CorrectionAmount.Equal(dec("-10.00")))
	assert.True(t, plan[1].NewAverageCost.Equal(dec("7.5")))
	assert.True(t, plan[1].CorrectionAmount.Equal(dec("-15.00")))
}

func TestCorrectionRestoresReplayInvariant(t *testing.T) {
	// Stored balance after posting out of order differs from the replayed
	// one by exactly the sum of planned corrections.
	inOrder := []InventoryMovement{
		mv(9, "2025-01-05", MovementDebit, "10", "80.00", ""),
		mv(1, "2025-01-10", MovementDebit, "10", "100.00", ""),
		mv(2, "2025-01-15", MovementCredit, "4", "40.00", "10"),
	}
	replayed := ReplayMovements(1, 4, inOrder)

	// Posting order was A, B, then the back-dated X.
	stored := InventoryBalance{}
	stored = ApplyReceipt(stored, dec("10"), dec("100.00"))
	stored, _ = ApplyIssue(stored, dec("4"))
	stored = ApplyReceipt(stored, dec("10"), dec("80.00"))

	plan := PlanCorrections(inOrder)
	require.Len(t, plan, 1)
	adjusted := Round2(stored.TotalAmount.Sub(plan[0].CorrectionAmount))
	assert.True(t, adjusted.Equal(replayed.TotalAmount))
	assert.True(t, stored.Quantity.Equal(replayed.Quantity))
}
