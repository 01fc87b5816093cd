package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	d := date(s)
	return &d
}

func testAccounts() map[int64]*Account {
	return map[int64]*Account{
		1: {ID: 1, CompanyID: 1, Code: "411", Name: "Клиенти", Class: 4, Type: TypeAsset,
			ParentID: ptr(int64(100)), IsAnalytical: true, IsActive: true,
			IsVatApplicable: true, VatDirection: VatOutput},
		2: {ID: 2, CompanyID: 1, Code: "701", Name: "Приходи от продажби", Class: 7, Type: TypeRevenue,
			ParentID: ptr(int64(101)), IsAnalytical: true, IsActive: true,
			IsVatApplicable: true, VatDirection: VatOutput},
		3: {ID: 3, CompanyID: 1, Code: "4532", Name: "Начислен ДДС на продажбите", Class: 4, Type: TypeLiability,
			ParentID: ptr(int64(102)), IsAnalytical: true, IsActive: true},
		4: {ID: 4, CompanyID: 1, Code: "30201", Name: "Основни материали", Class: 3, Type: TypeAsset,
			ParentID: ptr(int64(103)), IsAnalytical: true, IsActive: true,
			SupportsQuantities: true, DefaultUnit: "бр"},
		5: {ID: 5, CompanyID: 1, Code: "601", Name: "Разходи за материали", Class: 6, Type: TypeExpense,
			ParentID: ptr(int64(104)), IsAnalytical: true, IsActive: true},
		6: {ID: 6, CompanyID: 2, Code: "401", Name: "Доставчици", Class: 4, Type: TypeLiability,
			ParentID: ptr(int64(105)), IsAnalytical: true, IsActive: true},
		7: {ID: 7, CompanyID: 1, Code: "302", Name: "Материали", Class: 3, Type: TypeAsset,
			IsAnalytical: false, IsActive: true},
	}
}

func ptr[T any](v T) *T { return &v }

func validSalesEntry() *EntryWithLines {
	return &EntryWithLines{
		JournalEntry: JournalEntry{
			CompanyID:      1,
			DocumentDate:   date("2026-03-10"),
			VatDate:        datePtr("2026-03-10"),
			AccountingDate: date("2026-03-10"),
			Description:    "Продажба на продукция",
		},
		Lines: []EntryLine{
			{AccountID: 1, DebitAmount: dec("120.00"), LineOrder: 1},
			{AccountID: 2, CreditAmount: dec("100.00"), BaseAmount: dec("100.00"),
				VatAmount: dec("20.00"), VatRate: ptr(dec("20")), LineOrder: 2},
			{AccountID: 3, CreditAmount: dec("20.00"), LineOrder: 3},
		},
	}
}

func TestValidateEntryOK(t *testing.T) {
	e := validSalesEntry()
	require.NoError(t, e.Validate(testAccounts()))
}

func violationRules(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	rules := make([]string, 0, len(verr.Violations))
	for _, v := range verr.Violations {
		rules = append(rules, v.Rule)
	}
	return rules
}

func TestValidateEntryMinLines(t *testing.T) {
	e := validSalesEntry()
	e.Lines = e.Lines[:1]
	err := e.Validate(testAccounts())
	assert.Contains(t, violationRules(t, err), RuleMinLines)
}

func TestValidateEntryUnbalanced(t *testing.T) {
	e := validSalesEntry()
	e.Lines[0].DebitAmount = dec("120.01")
	err := e.Validate(testAccounts())
	assert.Contains(t, violationRules(t, err), RuleBalanced)
}

func TestValidateEntryZeroAmount(t *testing.T) {
	e := validSalesEntry()
	for i := range e.Lines {
		e.Lines[i].DebitAmount = decimal.Zero
		e.Lines[i].CreditAmount = decimal.Zero
	}
	err := e.Validate(testAccounts())
	rules := violationRules(t, err)
	assert.Contains(t, rules, RuleBalanced)
}

func TestValidateEntrySyntheticAccount(t *testing.T) {
	e := validSalesEntry()
	e.Lines[1].AccountID = 7 // synthetic 302
	err := e.Validate(testAccounts())
	assert.Contains(t, violationRules(t, err), RuleLeafAccount)
}

func TestValidateEntryForeignCompanyAccount(t *testing.T) {
	e := validSalesEntry()
	e.Lines[0].AccountID = 6 // belongs to company 2
	err := e.Validate(testAccounts())
	assert.Contains(t, violationRules(t, err), RuleLeafAccount)
}

func TestValidateEntryMissingAccount(t *testing.T) {
	e := validSalesEntry()
	e.Lines[0].AccountID = 999
	err := e.Validate(testAccounts())
	assert.Contains(t, violationRules(t, err), RuleLeafAccount)
}

func TestValidateEntryVatDateRequired(t *testing.T) {
	e := validSalesEntry()
	e.VatDate = nil
	err := e.Validate(testAccounts())
	assert.Contains(t, violationRules(t, err), RuleVatDate)
}

func TestValidateEntryVatDateNotRequiredWithoutVat(t *testing.T) {
	e := &EntryWithLines{
		JournalEntry: JournalEntry{
			CompanyID:      1,
			DocumentDate:   date("2026-03-10"),
			AccountingDate: date("2026-03-10"),
			Description:    "Изписване на материали",
		},
		Lines: []EntryLine{
			{AccountID: 5, DebitAmount: dec("50.00"), LineOrder: 1},
			{AccountID: 4, CreditAmount: dec("50.00"), Quantity: ptr(dec("5")), LineOrder: 2},
		},
	}
	require.NoError(t, e.Validate(testAccounts()))
}

func TestValidateEntryDocumentDateAfterVatDate(t *testing.T) {
	e := validSalesEntry()
	e.DocumentDate = date("2026-03-15")
	err := e.Validate(testAccounts())
	assert.Contains(t, violationRules(t, err), RuleDatePolicy)
}

func TestValidateEntryBackdatedAccountingDateAllowed(t *testing.T) {
	e := validSalesEntry()
	e.AccountingDate = date("2026-01-05")
	require.NoError(t, e.Validate(testAccounts()))
}

func TestValidateEntryLineRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EntryWithLines)
	}{
		{"both sides set", func(e *EntryWithLines) {
			e.Lines[0].CreditAmount = dec("120.00")
			e.Lines[1].CreditAmount = dec("220.00")
		}},
		{"negative amount", func(e *EntryWithLines) {
			e.Lines[0].DebitAmount = dec("-120.00")
			e.Lines[1].CreditAmount = dec("-220.00")
			e.Lines[2].CreditAmount = dec("220.00")
		}},
		{"sparse line order", func(e *EntryWithLines) {
			e.Lines[2].LineOrder = 5
		}},
		{"quantity missing on material account", func(e *EntryWithLines) {
			e.Lines[0] = EntryLine{AccountID: 4, DebitAmount: dec("120.00"), LineOrder: 1}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validSalesEntry()
			tt.mutate(e)
			err := e.Validate(testAccounts())
			assert.Contains(t, violationRules(t, err), RuleLine)
		})
	}
}

func TestValidationErrorCollectsAll(t *testing.T) {
	e := validSalesEntry()
	e.VatDate = nil
	e.Lines = []EntryLine{{AccountID: 999, DebitAmount: dec("10.00"), LineOrder: 1}}
	err := e.Validate(testAccounts())
	rules := violationRules(t, err)
	assert.Contains(t, rules, RuleMinLines)
	assert.Contains(t, rules, RuleBalanced)
	assert.Contains(t, rules, RuleLeafAccount)
	assert.True(t, len(rules) >= 3)
}

func TestTimestampEntryNumber(t *testing.T) {
	at := time.Date(2026, 3, 10, 14, 30, 5, 0, time.UTC)
	assert.Equal(t, "JE-20260310-143005", TimestampEntryNumber(at, 0))
	assert.Equal(t, "JE-20260310-143005-2", TimestampEntryNumber(at, 2))
}

func TestSequentialEntryNumber(t *testing.T) {
	assert.Equal(t, "JE-000001", SequentialEntryNumber(1))
	assert.Equal(t, "JE-000427", SequentialEntryNumber(427))
}
