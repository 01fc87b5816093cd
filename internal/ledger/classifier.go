package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NAP declaration cells. A classifier contribution names the cell it lands
// in; the store folds contributions into the period's return.
type VatField string

const (
	FieldSalesBase20          VatField = "01-11"
	FieldSalesVat20           VatField = "01-21"
	FieldIcaBase              VatField = "01-12"
	FieldIcaVat               VatField = "01-22"
	FieldPersonalUseVat       VatField = "01-23"
	FieldSalesBase9           VatField = "01-13"
	FieldSalesVat9            VatField = "01-24"
	FieldSalesBase0Chapter3   VatField = "01-14"
	FieldIcdBase              VatField = "01-15"
	FieldExportBase           VatField = "01-16"
	FieldArt21ServicesBase    VatField = "01-17"
	FieldArt69SuppliesBase    VatField = "01-18"
	FieldExemptBase           VatField = "01-19"
	FieldPurchNoCreditBase    VatField = "01-30"
	FieldPurchFullCreditBase  VatField = "01-31"
	FieldPurchFullCreditVat   VatField = "01-41"
	FieldPurchPartCreditBase  VatField = "01-32"
	FieldPurchPartCreditVat   VatField = "01-42"
	FieldAnnualAdjustment     VatField = "01-43"
)

// Bulgarian VAT operation codes as they appear in the sales and purchase
// ledgers (PPZDDS appendix 10/11 nomenclature).
const (
	// Document types.
	DocTypeSalesInvoice    = "01"
	DocTypePurchaseInvoice = "03"

	// Sales operations.
	OpSales20       = "про11"
	OpSalesVop      = "про12"
	OpSales0Art3    = "про14"
	OpSales9        = "про17"
	OpSalesExportA  = "про19"
	OpSalesVod      = "про20"
	OpSalesExportB  = "про21"
	OpSalesArt21    = "про22"
	OpSalesArt69A   = "про23-1"
	OpSalesArt69B   = "про23-2"
	OpSalesExemptA  = "про24-1"
	OpSalesExemptB  = "про24-2"
	OpSalesExemptC  = "про24-3"
	OpNonRegistered = "про09"

	// Purchase operations.
	OpPurchaseNoCredit      = "пок09"
	OpPurchaseFullCredit    = "пок10"
	OpPurchasePartialCredit = "пок12"
	OpPurchaseAnnualAdj     = "пок14"

	// Additional operations.
	OpAdditionalPersonalUse = "23"
)

// FieldContribution is one increment the classifier assigns: a line's base
// amount into a base cell and, when applicable, its VAT into a VAT cell.
type FieldContribution struct {
	Field  VatField        `json:"field"`
	Amount decimal.Decimal `json:"amount"`
}

// ClassifierConfig is the company-scoped configuration the classifier reads:
// the canonical accounts and the operation code used for purchases from
// non-VAT-registered persons.
type ClassifierConfig struct {
	RevenueAccount       string
	ServicesAccount      string
	ReceivablesAccount   string
	ExpenseAccount       string
	PayablesAccount      string
	VatInputAccount      string
	VatOutputAccount     string
	NonRegisteredVatOp   string
	NonRegisteredAccount string
}

// EntryDirection resolves which side of the return an entry reports on, from
// its operation codes first and the VAT direction of its accounts second.
// Entries with neither are not reportable.
func EntryDirection(e *JournalEntry, accounts map[int64]*Account, lines []EntryLine) VatDirection {
	switch {
	case e.VatSalesOperation != "" || e.VatDocumentType == DocTypeSalesInvoice:
		return VatOutput
	case e.VatPurchaseOperation != "" || e.VatDocumentType == DocTypePurchaseInvoice:
		return VatInput
	}
	for _, l := range lines {
		a, ok := accounts[l.AccountID]
		if !ok || !a.IsVatApplicable {
			continue
		}
		if a.VatDirection == VatInput || a.VatDirection == VatOutput {
			return a.VatDirection
		}
	}
	return VatNone
}

// ClassifyEntry maps every taxable line of a posted entry to its declaration
// cells. Taxable lines are the ones carrying a vat_rate; each contributes its
// base amount to exactly one base cell and, when VAT is charged, its VAT
// amount to exactly one VAT cell. Lines without a rate (VAT accounts,
// receivables, payables) carry no cells of their own.
//
// A taxable line that no rule covers is a hard error; nothing is silently
// dropped.
func ClassifyEntry(e *JournalEntry, lines []EntryLine, accounts map[int64]*Account, cfg ClassifierConfig) ([]FieldContribution, error) {
	dir := EntryDirection(e, accounts, lines)

	var out []FieldContribution
	for i, l := range lines {
		if l.VatRate == nil {
			continue
		}
		var contrib []FieldContribution
		var err error
		switch dir {
		case VatOutput:
			contrib, err = classifySalesLine(e, &l)
		case VatInput:
			contrib, err = classifyPurchaseLine(e, &l, cfg)
		default:
			err = fmt.Errorf("%w: line %d carries vat_rate %s but the entry has no VAT direction",
				ErrClassification, i+1, l.VatRate.StringFixed(0))
		}
		if err != nil {
			return nil, err
		}
		out = append(out, contrib...)
	}
	return out, nil
}

func classifySalesLine(e *JournalEntry, l *EntryLine) ([]FieldContribution, error) {
	base := l.BaseAmount
	if base.IsZero() {
		base = l.Amount()
	}
	vat := l.VatAmount

	var baseField, vatField VatField
	op := e.VatSalesOperation
	switch op {
	case "", OpSales20:
		switch {
		case l.VatRate.Equal(VatRateStandard):
			baseField, vatField = FieldSalesBase20, FieldSalesVat20
		case l.VatRate.Equal(VatRateReduced):
			baseField, vatField = FieldSalesBase9, FieldSalesVat9
		case l.VatRate.IsZero():
			baseField = FieldSalesBase0Chapter3
		default:
			return nil, fmt.Errorf("%w: no sales rule for rate %s", ErrClassification, l.VatRate.StringFixed(0))
		}
	case OpSalesVop:
		baseField, vatField = FieldIcaBase, FieldIcaVat
	case OpSales9:
		baseField, vatField = FieldSalesBase9, FieldSalesVat9
	case OpSales0Art3:
		baseField = FieldSalesBase0Chapter3
	case OpSalesVod:
		baseField = FieldIcdBase
	case OpSalesExportA, OpSalesExportB:
		baseField = FieldExportBase
	case OpSalesArt21:
		baseField = FieldArt21ServicesBase
	case OpSalesArt69A, OpSalesArt69B:
		baseField = FieldArt69SuppliesBase
	case OpSalesExemptA, OpSalesExemptB, OpSalesExemptC:
		baseField = FieldExemptBase
	default:
		return nil, fmt.Errorf("%w: unknown sales operation %q", ErrClassification, op)
	}

	// Self-supply for personal use reroutes the charged VAT to its own cell.
	if e.VatAdditionalOperation == OpAdditionalPersonalUse && !vat.IsZero() {
		vatField = FieldPersonalUseVat
	}

	out := []FieldContribution{{Field: baseField, Amount: base}}
	if vatField != "" && !vat.IsZero() {
		out = append(out, FieldContribution{Field: vatField, Amount: vat})
	}
	return out, nil
}

func classifyPurchaseLine(e *JournalEntry, l *EntryLine, cfg ClassifierConfig) ([]FieldContribution, error) {
	base := l.BaseAmount
	if base.IsZero() {
		base = l.Amount()
	}
	vat := l.VatAmount

	op := e.VatPurchaseOperation
	if op != "" && op == cfg.NonRegisteredVatOp {
		// Non-registered suppliers charge no VAT; the document is still
		// reported without credit.
		return []FieldContribution{{Field: FieldPurchNoCreditBase, Amount: base}}, nil
	}

	switch op {
	case OpPurchaseNoCredit:
		// пок09 claims full credit only when VAT was actually charged.
		if !vat.IsZero() {
			return []FieldContribution{
				{Field: FieldPurchFullCreditBase, Amount: base},
				{Field: FieldPurchFullCreditVat, Amount: vat},
			}, nil
		}
		return []FieldContribution{{Field: FieldPurchNoCreditBase, Amount: base}}, nil
	case "", OpPurchaseFullCredit:
		out := []FieldContribution{{Field: FieldPurchFullCreditBase, Amount: base}}
		if !vat.IsZero() {
			out = append(out, FieldContribution{Field: FieldPurchFullCreditVat, Amount: vat})
		}
		return out, nil
	case OpPurchasePartialCredit:
		out := []FieldContribution{{Field: FieldPurchPartCreditBase, Amount: base}}
		if !vat.IsZero() {
			out = append(out, FieldContribution{Field: FieldPurchPartCreditVat, Amount: vat})
		}
		return out, nil
	case OpPurchaseAnnualAdj:
		return []FieldContribution{{Field: FieldAnnualAdjustment, Amount: vat}}, nil
	}
	return nil, fmt.Errorf("%w: unknown purchase operation %q", ErrClassification, op)
}

// Apply folds a contribution into the return.
func (r *VatReturn) Apply(c FieldContribution) error {
	switch c.Field {
	case FieldSalesBase20:
		r.SalesBase20 = Round2(r.SalesBase20.Add(c.Amount))
	case FieldSalesVat20:
		r.SalesVat20 = Round2(r.SalesVat20.Add(c.Amount))
	case FieldIcaBase:
		r.IcaBase = Round2(r.IcaBase.Add(c.Amount))
	case FieldIcaVat:
		r.IcaVat = Round2(r.IcaVat.Add(c.Amount))
	case FieldPersonalUseVat:
		r.PersonalUseVat = Round2(r.PersonalUseVat.Add(c.Amount))
	case FieldSalesBase9:
		r.SalesBase9 = Round2(r.SalesBase9.Add(c.Amount))
	case FieldSalesVat9:
		r.SalesVat9 = Round2(r.SalesVat9.Add(c.Amount))
	case FieldSalesBase0Chapter3:
		r.SalesBase0Chapter3 = Round2(r.SalesBase0Chapter3.Add(c.Amount))
	case FieldIcdBase:
		r.IcdBase = Round2(r.IcdBase.Add(c.Amount))
	case FieldExportBase:
		r.ExportBase = Round2(r.ExportBase.Add(c.Amount))
	case FieldArt21ServicesBase:
		r.Art21ServicesBase = Round2(r.Art21ServicesBase.Add(c.Amount))
	case FieldArt69SuppliesBase:
		r.Art69SuppliesBase = Round2(r.Art69SuppliesBase.Add(c.Amount))
	case FieldExemptBase:
		r.ExemptBase = Round2(r.ExemptBase.Add(c.Amount))
	case FieldPurchNoCreditBase:
		r.PurchasesNoCreditBase = Round2(r.PurchasesNoCreditBase.Add(c.Amount))
	case FieldPurchFullCreditBase:
		r.PurchasesFullCreditBase = Round2(r.PurchasesFullCreditBase.Add(c.Amount))
	case FieldPurchFullCreditVat:
		r.PurchasesFullCreditVat = Round2(r.PurchasesFullCreditVat.Add(c.Amount))
	case FieldPurchPartCreditBase:
		r.PurchasesPartialCreditBase = Round2(r.PurchasesPartialCreditBase.Add(c.Amount))
	case FieldPurchPartCreditVat:
		r.PurchasesPartialCreditVat = Round2(r.PurchasesPartialCreditVat.Add(c.Amount))
	case FieldAnnualAdjustment:
		r.AnnualAdjustment = Round2(r.AnnualAdjustment.Add(c.Amount))
	default:
		return fmt.Errorf("%w: unknown field %q", ErrClassification, c.Field)
	}
	return nil
}

// ApplyEntry classifies an entry and folds every contribution plus the
// document count into the return.
func (r *VatReturn) ApplyEntry(e *JournalEntry, lines []EntryLine, accounts map[int64]*Account, cfg ClassifierConfig) error {
	contribs, err := ClassifyEntry(e, lines, accounts, cfg)
	if err != nil {
		return err
	}
	for _, c := range contribs {
		if err := r.Apply(c); err != nil {
			return err
		}
	}
	if e.VatDocumentType != "" {
		switch EntryDirection(e, accounts, lines) {
		case VatOutput:
			r.SalesDocumentCount++
		case VatInput:
			r.PurchaseDocumentCount++
		}
	}
	return nil
}
