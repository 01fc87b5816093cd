package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// VAT return statuses. A DRAFT accumulates postings, SUBMITTED is locked to
// the filed figures, APPROVED records NRA acceptance.
const (
	VatReturnDraft     = "DRAFT"
	VatReturnSubmitted = "SUBMITTED"
	VatReturnApproved  = "APPROVED"
)

// Standard Bulgarian VAT rates.
var (
	VatRateStandard = decimal.NewFromInt(20)
	VatRateReduced  = decimal.NewFromInt(9)
)

// VatReturn is one monthly return in the NRA cell layout. Base/VAT pairs
// mirror the declaration cells; derived totals are recomputed, never stored
// authoritative.
type VatReturn struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Status    string `json:"status"`

	// Sales side.
	SalesBase20        decimal.Decimal `json:"sales_base_20"`          // 01-11
	SalesVat20         decimal.Decimal `json:"sales_vat_20"`           // 01-21
	IcaBase            decimal.Decimal `json:"ica_base"`               // 01-12
	IcaVat             decimal.Decimal `json:"ica_vat"`                // 01-22
	PersonalUseVat     decimal.Decimal `json:"personal_use_vat"`       // 01-23
	SalesBase9         decimal.Decimal `json:"sales_base_9"`           // 01-13
	SalesVat9          decimal.Decimal `json:"sales_vat_9"`            // 01-24
	SalesBase0Chapter3 decimal.Decimal `json:"sales_base_0_chapter3"`  // 01-14
	IcdBase            decimal.Decimal `json:"icd_base"`               // 01-15
	ExportBase         decimal.Decimal `json:"export_base"`            // 01-16
	Art21ServicesBase  decimal.Decimal `json:"art21_services_base"`    // 01-17
	Art69SuppliesBase  decimal.Decimal `json:"art69_supplies_base"`    // 01-18
	ExemptBase         decimal.Decimal `json:"exempt_base"`            // 01-19

	// Purchase side.
	PurchasesNoCreditBase      decimal.Decimal `json:"purchases_no_credit_base"`      // 01-30
	PurchasesFullCreditBase    decimal.Decimal `json:"purchases_full_credit_base"`    // 01-31
	PurchasesFullCreditVat     decimal.Decimal `json:"purchases_full_credit_vat"`     // 01-41
	PurchasesPartialCreditBase decimal.Decimal `json:"purchases_partial_credit_base"` // 01-32
	PurchasesPartialCreditVat  decimal.Decimal `json:"purchases_partial_credit_vat"`  // 01-42
	AnnualAdjustment           decimal.Decimal `json:"annual_adjustment"`             // 01-43
	Coefficient                decimal.Decimal `json:"coefficient"`                   // 01-33

	SalesDocumentCount    int `json:"sales_document_count"`    // 00-05
	PurchaseDocumentCount int `json:"purchase_document_count"` // 00-06

	IsAmendment bool `json:"is_amendment,omitempty"`

	SubmittedBy *int64     `json:"submitted_by,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ApprovedBy  *int64     `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TotalSalesBase derives cell 01-01: every taxable and reportable sales base.
func (r *VatReturn) TotalSalesBase() decimal.Decimal {
	return Round2(r.SalesBase20.
		Add(r.IcaBase).
		Add(r.SalesBase9).
		Add(r.SalesBase0Chapter3).
		Add(r.IcdBase).
		Add(r.ExportBase).
		Add(r.Art21ServicesBase).
		Add(r.Art69SuppliesBase).
		Add(r.ExemptBase))
}

// TotalOutputVat derives cell 01-20.
func (r *VatReturn) TotalOutputVat() decimal.Decimal {
	return Round2(r.SalesVat20.Add(r.IcaVat).Add(r.PersonalUseVat).Add(r.SalesVat9))
}

// DeductibleVat derives cell 01-40: the full credit plus the coefficient
// share of the partial credit plus the annual art. 73 adjustment.
func (r *VatReturn) DeductibleVat() decimal.Decimal {
	coef := r.Coefficient
	if coef.IsZero() {
		coef = decimal.NewFromInt(1)
	}
	return Round2(r.PurchasesFullCreditVat.
		Add(Round2(r.PurchasesPartialCreditVat.Mul(coef))).
		Add(r.AnnualAdjustment))
}

// VatToPay derives cell 01-50; zero when the period is in refund.
func (r *VatReturn) VatToPay() decimal.Decimal {
	d := r.TotalOutputVat().Sub(r.DeductibleVat())
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// VatToRefund derives cell 01-60.
func (r *VatReturn) VatToRefund() decimal.Decimal {
	d := r.DeductibleVat().Sub(r.TotalOutputVat())
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Period returns the closed-open window [start, end) of the return.
func (r *VatReturn) Period() (time.Time, time.Time) {
	start := time.Date(r.Year, time.Month(r.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// PeriodLabel renders the NRA period key, e.g. "202603".
func (r *VatReturn) PeriodLabel() string {
	return fmt.Sprintf("%04d%02d", r.Year, r.Month)
}

// DueDate is the filing deadline: the 14th of the following month per art.
// 125(5) ZDDS.
func (r *VatReturn) DueDate() time.Time {
	_, end := r.Period()
	return end.AddDate(0, 0, 13)
}

// Editable reports whether postings may still flow into the return.
func (r *VatReturn) Editable() bool { return r.Status == VatReturnDraft }

// VatDocumentSummary is one row of the monthly purchase or sales journal,
// as reported in the NRA file exports.
type VatDocumentSummary struct {
	DocumentNumber  string          `json:"document_number"`
	DocumentDate    time.Time       `json:"document_date"`
	DocumentType    string          `json:"document_type"`
	CounterpartName string          `json:"counterpart_name,omitempty"`
	CounterpartVat  string          `json:"counterpart_vat,omitempty"`
	Description     string          `json:"description,omitempty"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	VatAmount       decimal.Decimal `json:"vat_amount"`
}

// ValidatePeriod checks the year/month pair.
func ValidateVatPeriod(year, month int) error {
	verr := &ValidationError{}
	if year < 2000 || year > 2100 {
		verr.Add(RuleDatePolicy, 0, "year %d out of range", year)
	}
	if month < 1 || month > 12 {
		verr.Add(RuleDatePolicy, 0, "month %d out of range", month)
	}
	return verr.OrNil()
}
