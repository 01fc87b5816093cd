package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is the header of a posting. The three dates follow the
// Bulgarian triple-date convention: document date drives invoice chronology,
// VAT date drives tax-period membership, accounting date drives ledger
// chronology.
type JournalEntry struct {
	ID             string     `json:"id"`
	CompanyID      int64      `json:"company_id"`
	EntryNumber    string     `json:"entry_number"`
	DocumentDate   time.Time  `json:"document_date"`
	VatDate        *time.Time `json:"vat_date,omitempty"`
	AccountingDate time.Time  `json:"accounting_date"`
	DocumentNumber string     `json:"document_number,omitempty"`
	Description    string     `json:"description"`

	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalVatAmount decimal.Decimal `json:"total_vat_amount"`

	IsPosted bool       `json:"is_posted"`
	PostedBy *int64     `json:"posted_by,omitempty"`
	PostedAt *time.Time `json:"posted_at,omitempty"`

	// True when the entry was posted into a VAT window whose return had
	// already been submitted; retained for the corrective return.
	IsPostSubmissionAmendment bool `json:"is_post_submission_amendment,omitempty"`

	// Bulgarian VAT operation codes per PPZDDS.
	VatDocumentType        string `json:"vat_document_type,omitempty"`
	VatPurchaseOperation   string `json:"vat_purchase_operation,omitempty"`
	VatSalesOperation      string `json:"vat_sales_operation,omitempty"`
	VatAdditionalOperation string `json:"vat_additional_operation,omitempty"`
	VatAdditionalData      string `json:"vat_additional_data,omitempty"`

	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// EntryLine is a single side of a posting.
type EntryLine struct {
	ID             int64           `json:"id"`
	JournalEntryID string          `json:"journal_entry_id"`
	AccountID      int64           `json:"account_id"`
	DebitAmount    decimal.Decimal `json:"debit_amount"`
	CreditAmount   decimal.Decimal `json:"credit_amount"`
	CounterpartID  *int64          `json:"counterpart_id,omitempty"`

	BaseAmount decimal.Decimal  `json:"base_amount"`
	VatAmount  decimal.Decimal  `json:"vat_amount"`
	VatRate    *decimal.Decimal `json:"vat_rate,omitempty"`

	Quantity *decimal.Decimal `json:"quantity,omitempty"`
	Unit     string           `json:"unit,omitempty"`

	CurrencyCode   string           `json:"currency_code,omitempty"`
	CurrencyAmount *decimal.Decimal `json:"currency_amount,omitempty"`
	ExchangeRate   *decimal.Decimal `json:"exchange_rate,omitempty"`

	Description string    `json:"description,omitempty"`
	LineOrder   int       `json:"line_order"`
	CreatedAt   time.Time `json:"created_at"`
}

// Amount returns the non-zero side of the line.
func (l *EntryLine) Amount() decimal.Decimal {
	if l.DebitAmount.IsPositive() {
		return l.DebitAmount
	}
	return l.CreditAmount
}

// IsDebit reports which side the line sits on.
func (l *EntryLine) IsDebit() bool { return l.DebitAmount.IsPositive() }

// EntryWithLines pairs a header with its ordered lines.
type EntryWithLines struct {
	JournalEntry
	Lines []EntryLine `json:"lines"`
}

// EntryPatch carries a partial update for a draft entry. Nil fields are left
// untouched; a non-nil Lines replaces the full line set.
type EntryPatch struct {
	DocumentDate   *time.Time  `json:"document_date,omitempty"`
	VatDate        *time.Time  `json:"vat_date,omitempty"`
	ClearVatDate   bool        `json:"clear_vat_date,omitempty"`
	AccountingDate *time.Time  `json:"accounting_date,omitempty"`
	DocumentNumber *string     `json:"document_number,omitempty"`
	Description    *string     `json:"description,omitempty"`
	Lines          []EntryLine `json:"lines,omitempty"`

	VatDocumentType        *string `json:"vat_document_type,omitempty"`
	VatPurchaseOperation   *string `json:"vat_purchase_operation,omitempty"`
	VatSalesOperation      *string `json:"vat_sales_operation,omitempty"`
	VatAdditionalOperation *string `json:"vat_additional_operation,omitempty"`
	VatAdditionalData      *string `json:"vat_additional_data,omitempty"`
}

// HasVatCodes reports whether any VAT operation code is set on the entry.
func (e *JournalEntry) HasVatCodes() bool {
	return e.VatDocumentType != "" || e.VatPurchaseOperation != "" ||
		e.VatSalesOperation != "" || e.VatAdditionalOperation != ""
}

// Validate runs header and line rules V1-V6 against the entry. Accounts maps
// account ID to the referenced account; missing accounts are reported under
// V3. V7 (negative stock) needs balances and is checked at posting time.
func (e *EntryWithLines) Validate(accounts map[int64]*Account) error {
	verr := &ValidationError{}

	if e.Description == "" {
		verr.Add(RuleLine, 0, "description is required")
	}

	// V1: a posting needs both sides.
	if len(e.Lines) < 2 {
		verr.Add(RuleMinLines, 0, "entry must have at least 2 lines, got %d", len(e.Lines))
	}

	// V2: debits equal credits, and the entry moves value.
	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		totalDebit = totalDebit.Add(l.DebitAmount)
		totalCredit = totalCredit.Add(l.CreditAmount)
	}
	if !Round2(totalDebit).Equal(Round2(totalCredit)) {
		verr.Add(RuleBalanced, 0, "debits %s do not equal credits %s", totalDebit.StringFixed(2), totalCredit.StringFixed(2))
	} else if totalDebit.IsZero() {
		verr.Add(RuleBalanced, 0, "zero-amount entry")
	}

	vatApplicable := false
	for i, l := range e.Lines {
		lineNo := i + 1

		acct, ok := accounts[l.AccountID]
		if !ok {
			verr.Add(RuleLeafAccount, lineNo, "account %d does not exist", l.AccountID)
			continue
		}
		// V3: only active analytical leaves of the same company are postable.
		if acct.CompanyID != e.CompanyID {
			verr.Add(RuleLeafAccount, lineNo, "account %s belongs to another company", acct.Code)
		}
		if !acct.Postable() {
			verr.Add(RuleLeafAccount, lineNo, "account %s is not an active analytical account", acct.Code)
		}
		if acct.IsVatApplicable {
			vatApplicable = true
		}

		// V6 / L1: exactly one side non-zero, neither negative.
		if l.DebitAmount.IsNegative() || l.CreditAmount.IsNegative() {
			verr.Add(RuleLine, lineNo, "amounts must not be negative")
		}
		debitSet := l.DebitAmount.IsPositive()
		creditSet := l.CreditAmount.IsPositive()
		if debitSet == creditSet {
			verr.Add(RuleLine, lineNo, "exactly one of debit or credit must be non-zero")
		}

		// V6 / L2: inventory movement lines must carry a quantity.
		if acct.SupportsQuantities && (l.Quantity == nil || l.Quantity.IsZero()) {
			verr.Add(RuleLine, lineNo, "account %s requires a non-zero quantity", acct.Code)
		}
		if l.Quantity != nil && l.Quantity.IsNegative() {
			verr.Add(RuleLine, lineNo, "quantity must not be negative")
		}

		// V6 / L3: dense 1-based line ordering.
		if l.LineOrder != lineNo {
			verr.Add(RuleLine, lineNo, "line_order must be %d, got %d", lineNo, l.LineOrder)
		}
	}

	// V4: a VAT date is required exactly when the entry bears VAT.
	if (vatApplicable || e.HasVatCodes()) && e.VatDate == nil {
		verr.Add(RuleVatDate, 0, "vat_date is required for VAT-bearing entries")
	}

	// V5: document date precedes the tax point. Back-dated accounting
	// dates are legitimate and deliberately not checked here.
	if e.VatDate != nil && e.DocumentDate.After(*e.VatDate) {
		verr.Add(RuleDatePolicy, 0, "document_date %s is after vat_date %s",
			e.DocumentDate.Format("2006-01-02"), e.VatDate.Format("2006-01-02"))
	}

	return verr.OrNil()
}

// NumberingPolicy selects how entry numbers are generated.
type NumberingPolicy string

const (
	NumberingTimestamp  NumberingPolicy = "TIMESTAMP_BASED"
	NumberingSequential NumberingPolicy = "SEQUENTIAL_PER_COMPANY"
)

// TimestampEntryNumber renders the JE-YYYYMMDD-HHMMSS[-seq] form. seq
// disambiguates same-second collisions; zero omits the suffix.
func TimestampEntryNumber(at time.Time, seq int) string {
	n := "JE-" + at.UTC().Format("20060102-150405")
	if seq > 0 {
		n = fmt.Sprintf("%s-%d", n, seq)
	}
	return n
}

// SequentialEntryNumber renders the per-company monotonic form.
func SequentialEntryNumber(next int64) string {
	return fmt.Sprintf("JE-%06d", next)
}
