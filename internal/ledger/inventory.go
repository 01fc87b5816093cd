package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement types follow the side the material account takes in the posting:
// a DEBIT raises stock at the documented cost, a CREDIT issues stock at the
// moving-average cost.
const (
	MovementDebit  = "DEBIT"
	MovementCredit = "CREDIT"
)

// InventoryMovement is one quantity change on a material account, tied to the
// journal-entry line that produced it. The balance-after columns snapshot the
// cumulative position in (movement_date, id) order.
type InventoryMovement struct {
	ID                   int64           `json:"id"`
	CompanyID            int64           `json:"company_id"`
	AccountID            int64           `json:"account_id"`
	JournalEntryID       string          `json:"journal_entry_id"`
	EntryLineID          int64           `json:"entry_line_id"`
	MovementType         string          `json:"movement_type"`
	MovementDate         time.Time       `json:"movement_date"`
	Quantity             decimal.Decimal `json:"quantity"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	BalanceAfterQuantity decimal.Decimal `json:"balance_after_quantity"`
	BalanceAfterAmount   decimal.Decimal `json:"balance_after_amount"`
	AverageCostAtTime    decimal.Decimal `json:"average_cost_at_time"`
	Unit                 string          `json:"unit,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// InventoryBalance is the running position of one material account.
type InventoryBalance struct {
	AccountID   int64           `json:"account_id"`
	CompanyID   int64           `json:"company_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	AverageCost decimal.Decimal `json:"average_cost"`
	Unit        string          `json:"unit,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ApplyReceipt folds a receipt into the balance and returns the new position.
// The average moves toward the receipt's unit cost.
func ApplyReceipt(b InventoryBalance, qty, totalAmount decimal.Decimal) InventoryBalance {
	b.Quantity = b.Quantity.Add(qty)
	b.TotalAmount = Round2(b.TotalAmount.Add(totalAmount))
	b.AverageCost = SafeDiv(b.TotalAmount, b.Quantity)
	return b
}

// ApplyIssue consumes qty at the current average cost and returns the new
// position plus the issue's valuation. The average is unchanged by an issue;
// an issue that empties the account takes the full remaining value so no
// residue is stranded by rounding.
func ApplyIssue(b InventoryBalance, qty decimal.Decimal) (InventoryBalance, decimal.Decimal) {
	value := Round2(qty.Mul(b.AverageCost))
	b.Quantity = b.Quantity.Sub(qty)
	if b.Quantity.IsZero() {
		value = b.TotalAmount
		b.TotalAmount = decimal.Zero
		b.AverageCost = decimal.Zero
		return b, value
	}
	b.TotalAmount = Round2(b.TotalAmount.Sub(value))
	return b, value
}

// ReplayMovements folds a (movement_date, id)-ordered movement list into a
// balance from zero. Debits use their recorded amount; credits are revalued
// at the average prevailing at replay time.
func ReplayMovements(companyID, accountID int64, movements []InventoryMovement) InventoryBalance {
	b := InventoryBalance{CompanyID: companyID, AccountID: accountID}
	for _, m := range movements {
		if m.MovementType == MovementCredit {
			b, _ = ApplyIssue(b, m.Quantity)
			continue
		}
		b = ApplyReceipt(b, m.Quantity, m.TotalAmount)
		if m.Unit != "" {
			b.Unit = m.Unit
		}
	}
	return b
}

// CorrectionNeeded is one planned revaluation of a historical issue after a
// back-dated receipt changed the average cost it should have used.
type CorrectionNeeded struct {
	MovementID        int64           `json:"movement_id"`
	JournalEntryID    string          `json:"journal_entry_id"`
	MaterialAccountID int64           `json:"material_account_id"`
	ExpenseAccountID  int64           `json:"expense_account_id"`
	MovementDate      time.Time       `json:"movement_date"`
	Quantity          decimal.Decimal `json:"quantity"`
	OldAverageCost    decimal.Decimal `json:"old_average_cost"`
	NewAverageCost    decimal.Decimal `json:"new_average_cost"`
	// CorrectionAmount is new value minus old value: positive means the
	// issue was undervalued and expense must grow, negative is a storno.
	CorrectionAmount decimal.Decimal `json:"correction_amount"`
}

// AverageCostCorrection is the persisted audit record linking the triggering
// back-dated movement, the corrected issue, and the correction entry.
type AverageCostCorrection struct {
	ID                   int64           `json:"id"`
	CompanyID            int64           `json:"company_id"`
	AccountID            int64           `json:"account_id"`
	TriggeringMovementID int64           `json:"triggering_movement_id"`
	AffectedMovementID   int64           `json:"affected_movement_id"`
	CorrectionEntryID    string          `json:"correction_entry_id"`
	OldAverageCost       decimal.Decimal `json:"old_average_cost"`
	NewAverageCost       decimal.Decimal `json:"new_average_cost"`
	CorrectionAmount     decimal.Decimal `json:"correction_amount"`
	CreatedAt            time.Time       `json:"created_at"`
}

// PlanCorrections replays a (movement_date, id)-ordered movement history that
// already includes the back-dated receipt, and returns a correction for every
// issue whose value shifts by at least one stotinka. Historical rows are
// never mutated; the deltas become compensating postings.
func PlanCorrections(movements []InventoryMovement) []CorrectionNeeded {
	var out []CorrectionNeeded
	b := InventoryBalance{}
	for _, m := range movements {
		if m.MovementType != MovementCredit {
			b = ApplyReceipt(b, m.Quantity, m.TotalAmount)
			continue
		}
		newAvg := b.AverageCost
		var newValue decimal.Decimal
		b, newValue = ApplyIssue(b, m.Quantity)
		adj := Round2(newValue.Sub(m.TotalAmount))
		if adj.Abs().LessThan(materialityThreshold) {
			continue
		}
		out = append(out, CorrectionNeeded{
			MovementID:        m.ID,
			JournalEntryID:    m.JournalEntryID,
			MaterialAccountID: m.AccountID,
			MovementDate:      m.MovementDate,
			Quantity:          m.Quantity,
			OldAverageCost:    m.AverageCostAtTime,
			NewAverageCost:    newAvg,
			CorrectionAmount:  adj,
		})
	}
	return out
}

// InventoryTurnoverRow is one line of the movement report for a period.
type InventoryTurnoverRow struct {
	AccountID     int64           `json:"account_id"`
	AccountCode   string          `json:"account_code"`
	AccountName   string          `json:"account_name"`
	Unit          string          `json:"unit,omitempty"`
	OpeningQty    decimal.Decimal `json:"opening_qty"`
	OpeningAmount decimal.Decimal `json:"opening_amount"`
	ReceivedQty   decimal.Decimal `json:"received_qty"`
	ReceivedAmt   decimal.Decimal `json:"received_amount"`
	IssuedQty     decimal.Decimal `json:"issued_qty"`
	IssuedAmt     decimal.Decimal `json:"issued_amount"`
	ClosingQty    decimal.Decimal `json:"closing_qty"`
	ClosingAmount decimal.Decimal `json:"closing_amount"`
}
