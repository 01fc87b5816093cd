package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() ClassifierConfig {
	s := DefaultAccountingSettings(1)
	return s.ClassifierConfig()
}

func purchaseEntry(purchaseOp string) (*JournalEntry, []EntryLine) {
	e := &JournalEntry{
		CompanyID:            1,
		VatDocumentType:      DocTypePurchaseInvoice,
		VatPurchaseOperation: purchaseOp,
	}
	lines := []EntryLine{
		{AccountID: 5, DebitAmount: dec("100.00"), BaseAmount: dec("100.00"),
			VatAmount: dec("20.00"), VatRate: ptr(dec("20")), LineOrder: 1},
		{AccountID: 3, DebitAmount: dec("20.00"), LineOrder: 2},
		{AccountID: 6, CreditAmount: dec("120.00"), LineOrder: 3},
	}
	return e, lines
}

func TestClassifyPurchaseFullCredit(t *testing.T) {
	e, lines := purchaseEntry(OpPurchaseFullCredit)
	contribs, err := ClassifyEntry(e, lines, testAccounts(), testConfig())
	require.NoError(t, err)
	require.Len(t, contribs, 2)
	assert.Equal(t, FieldPurchFullCreditBase, contribs[0].Field)
	assert.True(t, contribs[0].Amount.Equal(dec("100.00")))
	assert.Equal(t, FieldPurchFullCreditVat, contribs[1].Field)
	assert.True(t, contribs[1].Amount.Equal(dec("20.00")))
}

func TestClassifyPurchaseIntoReturn(t *testing.T) {
	e, lines := purchaseEntry(OpPurchaseFullCredit)
	r := &VatReturn{CompanyID: 1, Year: 2025, Month: 3, Status: VatReturnDraft}
	require.NoError(t, r.ApplyEntry(e, lines, testAccounts(), testConfig()))
	assert.True(t, r.PurchasesFullCreditBase.Equal(dec("100.00")))
	assert.True(t, r.PurchasesFullCreditVat.Equal(dec("20.00")))
	assert.True(t, r.DeductibleVat().Equal(dec("20.00")))
	assert.Equal(t, 1, r.PurchaseDocumentCount)
	assert.Equal(t, 0, r.SalesDocumentCount)
}

func TestClassifyPurchasePartialCredit(t *testing.T) {
	e, lines := purchaseEntry(OpPurchasePartialCredit)
	r := &VatReturn{Coefficient: dec("0.50")}
	require.NoError(t, r.ApplyEntry(e, lines, testAccounts(), testConfig()))
	assert.True(t, r.PurchasesPartialCreditBase.Equal(dec("100.00")))
	assert.True(t, r.PurchasesPartialCreditVat.Equal(dec("20.00")))
	assert.True(t, r.DeductibleVat().Equal(dec("10.00")))
}

func TestClassifyPurchaseNonRegistered(t *testing.T) {
	e, lines := purchaseEntry(OpNonRegistered)
	lines[0].VatAmount = dec("0")
	contribs, err := ClassifyEntry(e, lines, testAccounts(), testConfig())
	require.NoError(t, err)
	require.Len(t, contribs, 1)
	assert.Equal(t, FieldPurchNoCreditBase, contribs[0].Field)
}

func TestClassifySalesStandardRate(t *testing.T) {
	e := validSalesEntry()
	e.VatDocumentType = DocTypeSalesInvoice
	r := &VatReturn{}
	require.NoError(t, r.ApplyEntry(&e.JournalEntry, e.Lines, testAccounts(), testConfig()))
	assert.True(t, r.SalesBase20.Equal(dec("100.00")))
	assert.True(t, r.SalesVat20.Equal(dec("20.00")))
	assert.True(t, r.TotalOutputVat().Equal(dec("20.00")))
	assert.Equal(t, 1, r.SalesDocumentCount)
}

func TestClassifySalesOperations(t *testing.T) {
	tests := []struct {
		name      string
		op        string
		rate      string
		vat       string
		wantField VatField
		wantVat   VatField
	}{
		{"reduced rate", OpSales9, "9", "9.00", FieldSalesBase9, FieldSalesVat9},
		{"rate-derived reduced", "", "9", "9.00", FieldSalesBase9, FieldSalesVat9},
		{"vop self-charge", OpSalesVop, "20", "20.00", FieldIcaBase, FieldIcaVat},
		{"zero-rated chapter 3", OpSales0Art3, "0", "0", FieldSalesBase0Chapter3, ""},
		{"rate-derived zero", "", "0", "0", FieldSalesBase0Chapter3, ""},
		{"intra-community dispatch", OpSalesVod, "0", "0", FieldIcdBase, ""},
		{"export", OpSalesExportA, "0", "0", FieldExportBase, ""},
		{"services art 21", OpSalesArt21, "0", "0", FieldArt21ServicesBase, ""},
		{"art 69 supplies", OpSalesArt69A, "0", "0", FieldArt69SuppliesBase, ""},
		{"exempt", OpSalesExemptA, "0", "0", FieldExemptBase, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &JournalEntry{CompanyID: 1, VatSalesOperation: tt.op}
			lines := []EntryLine{
				{AccountID: 2, CreditAmount: dec("100.00"), BaseAmount: dec("100.00"),
					VatAmount: dec(tt.vat), VatRate: ptr(dec(tt.rate)), LineOrder: 1},
			}
			contribs, err := ClassifyEntry(e, lines, testAccounts(), testConfig())
			require.NoError(t, err)
			require.NotEmpty(t, contribs)
			assert.Equal(t, tt.wantField, contribs[0].Field)
			assert.True(t, contribs[0].Amount.Equal(dec("100.00")))
			if tt.wantVat != "" {
				require.Len(t, contribs, 2)
				assert.Equal(t, tt.wantVat, contribs[1].Field)
			} else {
				assert.Len(t, contribs, 1)
			}
		})
	}
}

func TestClassifyPersonalUse(t *testing.T) {
	e := &JournalEntry{
		CompanyID:              1,
		VatSalesOperation:      OpSales20,
		VatAdditionalOperation: OpAdditionalPersonalUse,
	}
	lines := []EntryLine{
		{AccountID: 2, CreditAmount: dec("50.00"), BaseAmount: dec("50.00"),
			VatAmount: dec("10.00"), VatRate: ptr(dec("20")), LineOrder: 1},
	}
	r := &VatReturn{}
	require.NoError(t, r.ApplyEntry(e, lines, testAccounts(), testConfig()))
	assert.True(t, r.SalesBase20.Equal(dec("50.00")))
	assert.True(t, r.PersonalUseVat.Equal(dec("10.00")))
	assert.True(t, r.SalesVat20.IsZero())
}

func TestClassifyUnknownOperationFatal(t *testing.T) {
	e := &JournalEntry{CompanyID: 1, VatSalesOperation: "про99"}
	lines := []EntryLine{
		{AccountID: 2, CreditAmount: dec("100.00"), BaseAmount: dec("100.00"),
			VatRate: ptr(dec("20")), LineOrder: 1},
	}
	_, err := ClassifyEntry(e, lines, testAccounts(), testConfig())
	assert.ErrorIs(t, err, ErrClassification)
}

func TestClassifyDirectionlessTaxableLineFatal(t *testing.T) {
	// Line carries a rate but neither op codes nor account direction say
	// which side of the return it belongs to.
	accounts := map[int64]*Account{
		8: {ID: 8, CompanyID: 1, Code: "609", Class: 6, Type: TypeExpense,
			ParentID: ptr(int64(104)), IsAnalytical: true, IsActive: true},
	}
	e := &JournalEntry{CompanyID: 1}
	lines := []EntryLine{
		{AccountID: 8, DebitAmount: dec("100.00"), VatRate: ptr(dec("20")), LineOrder: 1},
	}
	_, err := ClassifyEntry(e, lines, accounts, testConfig())
	assert.ErrorIs(t, err, ErrClassification)
}

func TestClassifyNonTaxableEntryNoContribution(t *testing.T) {
	e := &JournalEntry{CompanyID: 1}
	lines := []EntryLine{
		{AccountID: 5, DebitAmount: dec("50.00"), LineOrder: 1},
		{AccountID: 4, CreditAmount: dec("50.00"), LineOrder: 2},
	}
	contribs, err := ClassifyEntry(e, lines, testAccounts(), testConfig())
	require.NoError(t, err)
	assert.Empty(t, contribs)
}

func TestDirectionFromAccountsOnly(t *testing.T) {
	e := &JournalEntry{CompanyID: 1}
	lines := []EntryLine{
		{AccountID: 2, CreditAmount: dec("100.00"), BaseAmount: dec("100.00"),
			VatAmount: dec("20.00"), VatRate: ptr(dec("20")), LineOrder: 1},
	}
	assert.Equal(t, VatOutput, EntryDirection(e, testAccounts(), lines))
}
