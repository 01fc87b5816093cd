package ledger

import "time"

// Per-company posting policies.
type NegativeStockPolicy string

const (
	NegativeStockAllow  NegativeStockPolicy = "ALLOW_NEGATIVE"
	NegativeStockReject NegativeStockPolicy = "REJECT"
)

// SubmittedPeriodPolicy decides what happens to an entry whose vat_date
// falls in a period whose return was already submitted.
type SubmittedPeriodPolicy string

const (
	SubmittedPeriodReject SubmittedPeriodPolicy = "REJECT"
	SubmittedPeriodAmend  SubmittedPeriodPolicy = "AMEND"
)

// Company is a client firm the ledger is kept for.
type Company struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Eik       string `json:"eik"`
	VatNumber string `json:"vat_number,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	IsActive  bool   `json:"is_active"`

	NumberingPolicy       NumberingPolicy       `json:"numbering_policy"`
	NegativeStockPolicy   NegativeStockPolicy   `json:"negative_stock_policy"`
	SubmittedPeriodPolicy SubmittedPeriodPolicy `json:"submitted_period_policy"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Counterpart is a supplier or customer referenced by entry lines and the
// purchase/sales ledgers.
type Counterpart struct {
	ID         int64     `json:"id"`
	CompanyID  int64     `json:"company_id"`
	Name       string    `json:"name"`
	Eik        string    `json:"eik,omitempty"`
	VatNumber  string    `json:"vat_number,omitempty"`
	Address    string    `json:"address,omitempty"`
	IsVatPayer bool      `json:"is_vat_payer"`
	CreatedAt  time.Time `json:"created_at"`
}

// AccountingSettings identifies the canonical accounts the automatic posting
// flows and the VAT classifier rely on, per company.
type AccountingSettings struct {
	ID        int64 `json:"id"`
	CompanyID int64 `json:"company_id"`

	SalesRevenueAccount     string `json:"sales_revenue_account"`
	SalesServicesAccount    string `json:"sales_services_account"`
	SalesReceivablesAccount string `json:"sales_receivables_account"`
	PurchaseExpenseAccount  string `json:"purchase_expense_account"`
	PurchasePayablesAccount string `json:"purchase_payables_account"`
	VatInputAccount         string `json:"vat_input_account"`
	VatOutputAccount        string `json:"vat_output_account"`

	NonRegisteredPersonsAccount string `json:"non_registered_persons_account,omitempty"`
	NonRegisteredVatOperation   string `json:"non_registered_vat_operation"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultAccountingSettings returns the standard-chart defaults a company
// starts with.
func DefaultAccountingSettings(companyID int64) AccountingSettings {
	return AccountingSettings{
		CompanyID:                 companyID,
		SalesRevenueAccount:       "701",
		SalesServicesAccount:      "703",
		SalesReceivablesAccount:   "411",
		PurchaseExpenseAccount:    "602",
		PurchasePayablesAccount:   "401",
		VatInputAccount:           "4531",
		VatOutputAccount:          "4532",
		NonRegisteredVatOperation: OpNonRegistered,
	}
}

// ClassifierConfig projects the settings into the classifier's input.
func (s *AccountingSettings) ClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		RevenueAccount:       s.SalesRevenueAccount,
		ServicesAccount:      s.SalesServicesAccount,
		ReceivablesAccount:   s.SalesReceivablesAccount,
		ExpenseAccount:       s.PurchaseExpenseAccount,
		PayablesAccount:      s.PurchasePayablesAccount,
		VatInputAccount:      s.VatInputAccount,
		VatOutputAccount:     s.VatOutputAccount,
		NonRegisteredVatOp:   s.NonRegisteredVatOperation,
		NonRegisteredAccount: s.NonRegisteredPersonsAccount,
	}
}
