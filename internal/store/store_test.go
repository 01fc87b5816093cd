package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vankov/bgledger/internal/ledger"
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

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedCompany(t *testing.T, s *Store) *ledger.Company {
	t.Helper()
	c := &ledger.Company{Name: "Тест ЕООД", Eik: "131234567", VatNumber: "BG131234567", City: "София"}
	require.NoError(t, s.CreateCompany(context.Background(), c))
	return c
}

func seedUser(t *testing.T, s *Store) *ledger.User {
	t.Helper()
	window := ledger.PeriodWindow{Start: date("2026-01-01"), End: date("2026-12-31"), Active: true}
	u := &ledger.User{
		Username:         "kontir",
		IsActive:         true,
		CanPostEntries:   true,
		DocumentPeriod:   window,
		AccountingPeriod: window,
		VatPeriod:        window,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func acctID(t *testing.T, s *Store, companyID int64, code string) int64 {
	t.Helper()
	a, err := s.GetAccountByCode(context.Background(), companyID, code)
	require.NoError(t, err)
	return a.ID
}

// salesDraft builds a standard-rate sale: DR 411 / CR 701 (base) / CR 4532.
func salesDraft(t *testing.T, s *Store, companyID int64, day string) *ledger.EntryWithLines {
	t.Helper()
	e := &ledger.EntryWithLines{
		JournalEntry: ledger.JournalEntry{
			CompanyID:       companyID,
			DocumentDate:    date(day),
			VatDate:         datePtr(day),
			AccountingDate:  date(day),
			DocumentNumber:  "0000000101",
			Description:     "Продажба на стоки",
			VatDocumentType: ledger.DocTypeSalesInvoice,
		},
		Lines: []ledger.EntryLine{
			{AccountID: acctID(t, s, companyID, "411"), DebitAmount: dec("120.00"), LineOrder: 1},
			{AccountID: acctID(t, s, companyID, "701"), CreditAmount: dec("100.00"),
				BaseAmount: dec("100.00"), VatAmount: dec("20.00"), VatRate: ptr(dec("20")), LineOrder: 2},
			{AccountID: acctID(t, s, companyID, "4532"), CreditAmount: dec("20.00"), LineOrder: 3},
		},
	}
	return e
}

// materialReceiptDraft buys qty units of 30201 at the given line amount.
func materialReceiptDraft(t *testing.T, s *Store, companyID int64, day, qty, amount, vat string) *ledger.EntryWithLines {
	t.Helper()
	total := dec(amount).Add(dec(vat))
	q := dec(qty)
	return &ledger.EntryWithLines{
		JournalEntry: ledger.JournalEntry{
			CompanyID:            companyID,
			DocumentDate:         date(day),
			VatDate:              datePtr(day),
			AccountingDate:       date(day),
			DocumentNumber:       "0000000201",
			Description:          "Доставка на материали",
			VatDocumentType:      ledger.DocTypePurchaseInvoice,
			VatPurchaseOperation: ledger.OpPurchaseFullCredit,
		},
		Lines: []ledger.EntryLine{
			{AccountID: acctID(t, s, companyID, "30201"), DebitAmount: dec(amount),
				BaseAmount: dec(amount), VatAmount: dec(vat), VatRate: ptr(dec("20")),
				Quantity: &q, Unit: "бр", LineOrder: 1},
			{AccountID: acctID(t, s, companyID, "4531"), DebitAmount: dec(vat), LineOrder: 2},
			{AccountID: acctID(t, s, companyID, "401"), CreditAmount: total, LineOrder: 3},
		},
	}
}

// materialIssueDraft consumes qty units of 30201 at the given valuation.
func materialIssueDraft(t *testing.T, s *Store, companyID int64, day, qty, value string) *ledger.EntryWithLines {
	t.Helper()
	q := dec(qty)
	return &ledger.EntryWithLines{
		JournalEntry: ledger.JournalEntry{
			CompanyID:      companyID,
			DocumentDate:   date(day),
			VatDate:        datePtr(day),
			AccountingDate: date(day),
			Description:    "Изписване на материали за производство",
		},
		Lines: []ledger.EntryLine{
			{AccountID: acctID(t, s, companyID, "601"), DebitAmount: dec(value), LineOrder: 1},
			{AccountID: acctID(t, s, companyID, "30201"), CreditAmount: dec(value),
				Quantity: &q, Unit: "бр", LineOrder: 2},
		},
	}
}

func ptr[T any](v T) *T { return &v }

func TestCreateCompanySeedsChartAndSettings(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	ctx := context.Background()

	assert.Equal(t, ledger.NumberingTimestamp, c.NumberingPolicy)
	assert.Equal(t, ledger.NegativeStockReject, c.NegativeStockPolicy)

	accounts, err := s.ListAccounts(ctx, c.ID, AccountFilter{})
	require.NoError(t, err)
	assert.Equal(t, len(ledger.PredefinedAccounts), len(accounts))

	mat, err := s.GetAccountByCode(ctx, c.ID, "30201")
	require.NoError(t, err)
	assert.True(t, mat.SupportsQuantities)
	assert.True(t, mat.IsAnalytical)
	assert.Equal(t, 3, mat.Class)

	cfg, err := s.GetAccountingSettings(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "701", cfg.SalesRevenueAccount)
	assert.Equal(t, "4531", cfg.VatInputAccount)
}

func TestCreateAccountDuplicateCode(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	ctx := context.Background()

	parent, err := s.GetAccountByCode(ctx, c.ID, "302")
	require.NoError(t, err)
	a := &ledger.Account{
		CompanyID: c.ID, Code: "30203", Name: "Резервни части",
		Class: 3, Type: ledger.TypeAsset, ParentID: &parent.ID,
		IsAnalytical: true, SupportsQuantities: true, DefaultUnit: "бр", IsActive: true,
	}
	require.NoError(t, s.CreateAccount(ctx, a))

	dup := *a
	dup.ID = 0
	err = s.CreateAccount(ctx, &dup)
	assert.ErrorIs(t, err, ledger.ErrDuplicateAccount)
}

func TestPostSalesEntryBuildsVatReturn(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()

	e := salesDraft(t, s, c.ID, "2026-03-10")
	require.NoError(t, s.CreateEntry(ctx, u.ID, e))

	loaded, err := s.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsPosted)
	assert.Empty(t, loaded.EntryNumber)

	posted, err := s.PostEntry(ctx, u.ID, e.ID)
	require.NoError(t, err)
	assert.True(t, posted.IsPosted)
	assert.NotEmpty(t, posted.EntryNumber)
	assert.True(t, posted.TotalAmount.Equal(dec("120.00")))
	assert.True(t, posted.TotalVatAmount.Equal(dec("20.00")))

	r, err := s.GetVatReturn(ctx, c.ID, 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, ledger.VatReturnDraft, r.Status)
	assert.True(t, r.SalesBase20.Equal(dec("100.00")))
	assert.True(t, r.SalesVat20.Equal(dec("20.00")))
	assert.Equal(t, 1, r.SalesDocumentCount)
	assert.True(t, r.VatToPay().Equal(dec("20.00")))
}

func TestPostEntryTwiceFails(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()

	e := salesDraft(t, s, c.ID, "2026-03-10")
	require.NoError(t, s.CreateEntry(ctx, u.ID, e))
	_, err := s.PostEntry(ctx, u.ID, e.ID)
	require.NoError(t, err)

	_, err = s.PostEntry(ctx, u.ID, e.ID)
	assert.ErrorIs(t, err, ledger.ErrState)
}

func TestPostedEntryImmutable(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()

	e := salesDraft(t, s, c.ID, "2026-03-10")
	require.NoError(t, s.CreateEntry(ctx, u.ID, e))
	_, err := s.PostEntry(ctx, u.ID, e.ID)
	require.NoError(t, err)

	err = s.UpdateEntry(ctx, u.ID, e.ID, ledger.EntryPatch{Description: ptr("манипулация")})
	assert.ErrorIs(t, err, ledger.ErrState)

	err = s.DeleteEntry(ctx, e.ID)
	assert.ErrorIs(t, err, ledger.ErrState)
}

func TestCreateEntryValidationFails(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()

	e := salesDraft(t, s, c.ID, "2026-03-10")
	e.Lines[0].DebitAmount = dec("999.00") // unbalanced

	err := s.CreateEntry(ctx, u.ID, e)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrValidation)

	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ledger.RuleBalanced, verr.Violations[0].Rule)

	// Nothing persisted.
	_, err = s.GetEntry(ctx, e.ID)
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound)
}

func TestSequentialNumbering(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s)
	ctx := context.Background()

	c := &ledger.Company{Name: "Номерация ООД", Eik: "200123456", NumberingPolicy: ledger.NumberingSequential}
	require.NoError(t, s.CreateCompany(ctx, c))

	first := salesDraft(t, s, c.ID, "2026-03-10")
	require.NoError(t, s.CreateEntry(ctx, u.ID, first))
	second := salesDraft(t, s, c.ID, "2026-03-11")
	require.NoError(t, s.CreateEntry(ctx, u.ID, second))

	p1, err := s.PostEntry(ctx, u.ID, first.ID)
	require.NoError(t, err)
	p2, err := s.PostEntry(ctx, u.ID, second.ID)
	require.NoError(t, err)

	assert.Equal(t, "JE-000001", p1.EntryNumber)
	assert.Equal(t, "JE-000002", p2.EntryNumber)
}

func TestUserPeriodGateOnCreate(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	ctx := context.Background()

	narrow := ledger.PeriodWindow{Start: date("2026-05-01"), End: date("2026-05-31"), Active: true}
	u := &ledger.User{
		Username: "stajant", IsActive: true, CanPostEntries: true,
		DocumentPeriod: narrow, AccountingPeriod: narrow, VatPeriod: narrow,
	}
	require.NoError(t, s.CreateUser(ctx, u))

	e := salesDraft(t, s, c.ID, "2026-03-10")
	err := s.CreateEntry(ctx, u.ID, e)
	assert.ErrorIs(t, err, ledger.ErrPermission)
}

func TestPostWithoutPermission(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	poster := seedUser(t, s)
	ctx := context.Background()

	window := ledger.PeriodWindow{Start: date("2026-01-01"), End: date("2026-12-31"), Active: true}
	viewer := &ledger.User{
		Username: "odit", IsActive: true, CanPostEntries: false,
		DocumentPeriod: window, AccountingPeriod: window, VatPeriod: window,
	}
	require.NoError(t, s.CreateUser(ctx, viewer))

	e := salesDraft(t, s, c.ID, "2026-03-10")
	require.NoError(t, s.CreateEntry(ctx, poster.ID, e))

	_, err := s.PostEntry(ctx, viewer.ID, e.ID)
	assert.ErrorIs(t, err, ledger.ErrPermission)
}

func TestInventoryReceiptAndIssue(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()
	matID := acctID(t, s, c.ID, "30201")

	receipt := materialReceiptDraft(t, s, c.ID, "2026-03-02", "10", "100.00", "20.00")
	require.NoError(t, s.CreateEntry(ctx, u.ID, receipt))
	_, err := s.PostEntry(ctx, u.ID, receipt.ID)
	require.NoError(t, err)

	b, err := s.GetBalance(ctx, c.ID, matID)
	require.NoError(t, err)
	assert.True(t, b.Quantity.Equal(dec("10")))
	assert.True(t, b.TotalAmount.Equal(dec("100.00")))
	assert.True(t, b.AverageCost.Equal(dec("10")))

	avg, err := s.AverageCost(ctx, c.ID, matID, date("2026-03-05"))
	require.NoError(t, err)
	issue := materialIssueDraft(t, s, c.ID, "2026-03-05", "4", dec("4").Mul(avg).StringFixed(2))
	require.NoError(t, s.CreateEntry(ctx, u.ID, issue))
	_, err = s.PostEntry(ctx, u.ID, issue.ID)
	require.NoError(t, err)

	b, err = s.GetBalance(ctx, c.ID, matID)
	require.NoError(t, err)
	assert.True(t, b.Quantity.Equal(dec("6")))
	assert.True(t, b.TotalAmount.Equal(dec("60.00")))
	assert.True(t, b.AverageCost.Equal(dec("10")))

	movements, err := s.ListMovements(ctx, c.ID, matID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, ledger.MovementDebit, movements[0].MovementType)
	assert.Equal(t, ledger.MovementCredit, movements[1].MovementType)
	assert.True(t, movements[1].BalanceAfterQuantity.Equal(dec("6")))
	assert.True(t, movements[1].AverageCostAtTime.Equal(dec("10")))
}

func TestIssueAtWrongValuationRejected(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()

	receipt := materialReceiptDraft(t, s, c.ID, "2026-03-02", "10", "100.00", "20.00")
	require.NoError(t, s.CreateEntry(ctx, u.ID, receipt))
	_, err := s.PostEntry(ctx, u.ID, receipt.ID)
	require.NoError(t, err)

	// avg is 10.00, so 4 units must go out at 40.00
	issue := materialIssueDraft(t, s, c.ID, "2026-03-05", "4", "44.00")
	require.NoError(t, s.CreateEntry(ctx, u.ID, issue))
	_, err = s.PostEntry(ctx, u.ID, issue.ID)
	assert.ErrorIs(t, err, ledger.ErrValidation)

	// The failed posting left no movements behind.
	movements, err := s.ListMovements(ctx, c.ID, acctID(t, s, c.ID, "30201"))
	require.NoError(t, err)
	assert.Len(t, movements, 1)
}

func TestNegativeStockRejected(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()

	receipt := materialReceiptDraft(t, s, c.ID, "2026-03-02", "10", "100.00", "20.00")
	require.NoError(t, s.CreateEntry(ctx, u.ID, receipt))
	_, err := s.PostEntry(ctx, u.ID, receipt.ID)
	require.NoError(t, err)

	issue := materialIssueDraft(t, s, c.ID, "2026-03-05", "15", "150.00")
	require.NoError(t, s.CreateEntry(ctx, u.ID, issue))
	_, err = s.PostEntry(ctx, u.ID, issue.ID)
	require.Error(t, err)

	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ledger.RuleNegativeStock, verr.Violations[0].Rule)
}

func TestNegativeStockAllowedByPolicy(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s)
	ctx := context.Background()

	c := &ledger.Company{Name: "Минус АД", Eik: "201234567", NegativeStockPolicy: ledger.NegativeStockAllow}
	require.NoError(t, s.CreateCompany(ctx, c))

	receipt := materialReceiptDraft(t, s, c.ID, "2026-03-02", "10", "100.00", "20.00")
	require.NoError(t, s.CreateEntry(ctx, u.ID, receipt))
	_, err := s.PostEntry(ctx, u.ID, receipt.ID)
	require.NoError(t, err)

	issue := materialIssueDraft(t, s, c.ID, "2026-03-05", "15", "150.00")
	require.NoError(t, s.CreateEntry(ctx, u.ID, issue))
	_, err = s.PostEntry(ctx, u.ID, issue.ID)
	require.NoError(t, err)

	b, err := s.GetBalance(ctx, c.ID, acctID(t, s, c.ID, "30201"))
	require.NoError(t, err)
	assert.True(t, b.Quantity.Equal(dec("-5")))
}

func TestRetroactiveCorrectionFlow(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()
	matID := acctID(t, s, c.ID, "30201")

	receipt := materialReceiptDraft(t, s, c.ID, "2026-03-02", "10", "100.00", "20.00")
	require.NoError(t, s.CreateEntry(ctx, u.ID, receipt))
	_, err := s.PostEntry(ctx, u.ID, receipt.ID)
	require.NoError(t, err)

	issue := materialIssueDraft(t, s, c.ID, "2026-03-05", "4", "40.00")
	require.NoError(t, s.CreateEntry(ctx, u.ID, issue))
	_, err = s.PostEntry(ctx, u.ID, issue.ID)
	require.NoError(t, err)

	// Back-dated receipt at a lower price: 10 units for 80.00 on March 1.
	backdated := materialReceiptDraft(t, s, c.ID, "2026-03-01", "10", "80.00", "16.00")
	require.NoError(t, s.CreateEntry(ctx, u.ID, backdated))
	_, err = s.PostEntry(ctx, u.ID, backdated.ID)
	require.NoError(t, err)

	plan, err := s.PlanRetroactiveCorrections(ctx, c.ID, matID)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	// Replay: 10@80 then 10@100 gives avg 9.00, so the issue of 4 was
	// overvalued by 4.00.
	assert.True(t, plan[0].NewAverageCost.Equal(dec("9")))
	assert.True(t, plan[0].CorrectionAmount.Equal(dec("-4.00")))
	assert.Equal(t, acctID(t, s, c.ID, "601"), plan[0].ExpenseAccountID)

	movements, err := s.ListMovements(ctx, c.ID, matID)
	require.NoError(t, err)
	require.Len(t, movements, 3)
	triggering := movements[0] // back-dated receipt sorts first

	entry, err := s.ApplyCorrections(ctx, u.ID, c.ID, triggering.ID, plan, date("2026-03-20"))
	require.NoError(t, err)
	require.NotNil(t, entry)

	// The compensating entry carries the caller's accounting date and the
	// corrected issue's quantity on the material side.
	loaded, err := s.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, loaded.AccountingDate.Equal(date("2026-03-20")))
	var materialLine *ledger.EntryLine
	for i := range loaded.Lines {
		if loaded.Lines[i].AccountID == matID {
			materialLine = &loaded.Lines[i]
		}
	}
	require.NotNil(t, materialLine)
	require.NotNil(t, materialLine.Quantity)
	assert.True(t, materialLine.Quantity.Equal(dec("4")))

	// Stored balance now matches a from-scratch replay.
	b, err := s.GetBalance(ctx, c.ID, matID)
	require.NoError(t, err)
	replayed := ledger.ReplayMovements(c.ID, matID, movements)
	assert.True(t, b.Quantity.Equal(replayed.Quantity))
	assert.True(t, b.TotalAmount.Equal(replayed.TotalAmount), "stored %s, replayed %s", b.TotalAmount, replayed.TotalAmount)

	audit, err := s.ListCorrections(ctx, c.ID, matID)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, entry.ID, audit[0].CorrectionEntryID)
	assert.True(t, audit[0].CorrectionAmount.Equal(dec("-4.00")))

	// The movement history itself is untouched.
	after, err := s.ListMovements(ctx, c.ID, matID)
	require.NoError(t, err)
	assert.Len(t, after, 3)
	assert.True(t, after[2].TotalAmount.Equal(movements[2].TotalAmount))
}

func TestRecomputeBalanceRepairsDrift(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()
	matID := acctID(t, s, c.ID, "30201")

	receipt := materialReceiptDraft(t, s, c.ID, "2026-03-02", "8", "104.00", "20.80")
	require.NoError(t, s.CreateEntry(ctx, u.ID, receipt))
	_, err := s.PostEntry(ctx, u.ID, receipt.ID)
	require.NoError(t, err)

	b, err := s.RecomputeBalance(ctx, c.ID, matID)
	require.NoError(t, err)
	assert.True(t, b.Quantity.Equal(dec("8")))
	assert.True(t, b.TotalAmount.Equal(dec("104.00")))
	assert.True(t, b.AverageCost.Equal(dec("13")))
}

func TestSubmittedPeriodRejectsPosting(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()

	e := salesDraft(t, s, c.ID, "2026-03-10")
	require.NoError(t, s.CreateEntry(ctx, u.ID, e))
	_, err := s.PostEntry(ctx, u.ID, e.ID)
	require.NoError(t, err)

	_, err = s.SubmitVatReturn(ctx, u.ID, c.ID, 2026, 3)
	require.NoError(t, err)

	late := salesDraft(t, s, c.ID, "2026-03-20")
	require.NoError(t, s.CreateEntry(ctx, u.ID, late))
	_, err = s.PostEntry(ctx, u.ID, late.ID)
	assert.ErrorIs(t, err, ledger.ErrState)
}

func TestSubmittedPeriodAmendPolicy(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s)
	ctx := context.Background()

	c := &ledger.Company{Name: "Корекция ЕООД", Eik: "202345678", SubmittedPeriodPolicy: ledger.SubmittedPeriodAmend}
	require.NoError(t, s.CreateCompany(ctx, c))

	e := salesDraft(t, s, c.ID, "2026-03-10")
	require.NoError(t, s.CreateEntry(ctx, u.ID, e))
	_, err := s.PostEntry(ctx, u.ID, e.ID)
	require.NoError(t, err)

	frozen, err := s.SubmitVatReturn(ctx, u.ID, c.ID, 2026, 3)
	require.NoError(t, err)

	late := salesDraft(t, s, c.ID, "2026-03-20")
	require.NoError(t, s.CreateEntry(ctx, u.ID, late))
	posted, err := s.PostEntry(ctx, u.ID, late.ID)
	require.NoError(t, err)
	assert.True(t, posted.IsPostSubmissionAmendment)

	// The frozen return keeps the filed figures.
	r, err := s.GetVatReturn(ctx, c.ID, 2026, 3)
	require.NoError(t, err)
	assert.True(t, r.SalesBase20.Equal(frozen.SalesBase20))
	assert.Equal(t, 1, r.SalesDocumentCount)
}

func TestVatReturnLifecycle(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()

	e := salesDraft(t, s, c.ID, "2026-03-10")
	require.NoError(t, s.CreateEntry(ctx, u.ID, e))
	_, err := s.PostEntry(ctx, u.ID, e.ID)
	require.NoError(t, err)

	// Approve before submit is an illegal transition.
	_, err = s.ApproveVatReturn(ctx, u.ID, c.ID, 2026, 3)
	assert.ErrorIs(t, err, ledger.ErrState)

	r, err := s.SubmitVatReturn(ctx, u.ID, c.ID, 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, ledger.VatReturnSubmitted, r.Status)
	require.NotNil(t, r.SubmittedAt)

	_, err = s.SubmitVatReturn(ctx, u.ID, c.ID, 2026, 3)
	assert.ErrorIs(t, err, ledger.ErrState)

	r, err = s.ApproveVatReturn(ctx, u.ID, c.ID, 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, ledger.VatReturnApproved, r.Status)
}

func TestRecomputeVatReturnMatchesIncremental(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()

	sale := salesDraft(t, s, c.ID, "2026-03-10")
	require.NoError(t, s.CreateEntry(ctx, u.ID, sale))
	_, err := s.PostEntry(ctx, u.ID, sale.ID)
	require.NoError(t, err)

	purchase := materialReceiptDraft(t, s, c.ID, "2026-03-12", "10", "100.00", "20.00")
	require.NoError(t, s.CreateEntry(ctx, u.ID, purchase))
	_, err = s.PostEntry(ctx, u.ID, purchase.ID)
	require.NoError(t, err)

	incremental, err := s.GetVatReturn(ctx, c.ID, 2026, 3)
	require.NoError(t, err)

	recomputed, err := s.RecomputeVatReturn(ctx, c.ID, 2026, 3)
	require.NoError(t, err)

	assert.True(t, recomputed.SalesBase20.Equal(incremental.SalesBase20))
	assert.True(t, recomputed.SalesVat20.Equal(incremental.SalesVat20))
	assert.True(t, recomputed.PurchasesFullCreditBase.Equal(incremental.PurchasesFullCreditBase))
	assert.True(t, recomputed.PurchasesFullCreditVat.Equal(incremental.PurchasesFullCreditVat))
	assert.Equal(t, incremental.SalesDocumentCount, recomputed.SalesDocumentCount)
	assert.Equal(t, incremental.PurchaseDocumentCount, recomputed.PurchaseDocumentCount)
	assert.True(t, recomputed.VatToPay().Equal(dec("0")))
	assert.True(t, recomputed.VatToRefund().Equal(dec("0")))
}

func TestReverseEntryCancelsVat(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()

	e := salesDraft(t, s, c.ID, "2026-03-10")
	require.NoError(t, s.CreateEntry(ctx, u.ID, e))
	_, err := s.PostEntry(ctx, u.ID, e.ID)
	require.NoError(t, err)

	rev, err := s.ReverseEntry(ctx, u.ID, e.ID, date("2026-03-15"), "")
	require.NoError(t, err)
	assert.True(t, rev.IsPosted)
	assert.Contains(t, rev.Description, "Сторно")
	assert.True(t, rev.Lines[0].CreditAmount.Equal(dec("120.00")))

	r, err := s.GetVatReturn(ctx, c.ID, 2026, 3)
	require.NoError(t, err)
	assert.True(t, r.SalesBase20.IsZero())
	assert.True(t, r.SalesVat20.IsZero())
}

func TestReverseEntryStoresReason(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()

	e := salesDraft(t, s, c.ID, "2026-03-10")
	require.NoError(t, s.CreateEntry(ctx, u.ID, e))
	_, err := s.PostEntry(ctx, u.ID, e.ID)
	require.NoError(t, err)

	rev, err := s.ReverseEntry(ctx, u.ID, e.ID, date("2026-03-15"), "Сторно по рекламация на клиента")
	require.NoError(t, err)
	assert.Equal(t, "Сторно по рекламация на клиента", rev.Description)
}

func TestRejectedReversalLeavesNothingBehind(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()

	e := salesDraft(t, s, c.ID, "2026-03-10")
	require.NoError(t, s.CreateEntry(ctx, u.ID, e))
	_, err := s.PostEntry(ctx, u.ID, e.ID)
	require.NoError(t, err)

	_, err = s.SubmitVatReturn(ctx, u.ID, c.ID, 2026, 3)
	require.NoError(t, err)

	// Default policy REJECT: reversing into the frozen window fails, and the
	// failed attempt must not persist a draft storno.
	_, err = s.ReverseEntry(ctx, u.ID, e.ID, date("2026-03-15"), "")
	assert.ErrorIs(t, err, ledger.ErrState)

	entries, err := s.ListEntries(ctx, c.ID, EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e.ID, entries[0].ID)
}

func TestTurnoverReport(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()

	receipt := materialReceiptDraft(t, s, c.ID, "2026-02-10", "10", "100.00", "20.00")
	require.NoError(t, s.CreateEntry(ctx, u.ID, receipt))
	_, err := s.PostEntry(ctx, u.ID, receipt.ID)
	require.NoError(t, err)

	issue := materialIssueDraft(t, s, c.ID, "2026-03-05", "4", "40.00")
	require.NoError(t, s.CreateEntry(ctx, u.ID, issue))
	_, err = s.PostEntry(ctx, u.ID, issue.ID)
	require.NoError(t, err)

	rows, err := s.Turnover(ctx, c.ID, date("2026-03-01"), date("2026-03-31"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "30201", rows[0].AccountCode)
	assert.True(t, rows[0].OpeningQty.Equal(dec("10")))
	assert.True(t, rows[0].OpeningAmount.Equal(dec("100.00")))
	assert.True(t, rows[0].IssuedQty.Equal(dec("4")))
	assert.True(t, rows[0].IssuedAmt.Equal(dec("40.00")))
	assert.True(t, rows[0].ClosingQty.Equal(dec("6")))
	assert.True(t, rows[0].ClosingAmount.Equal(dec("60.00")))
}

func TestListEntriesFilter(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()

	first := salesDraft(t, s, c.ID, "2026-03-10")
	require.NoError(t, s.CreateEntry(ctx, u.ID, first))
	_, err := s.PostEntry(ctx, u.ID, first.ID)
	require.NoError(t, err)

	second := salesDraft(t, s, c.ID, "2026-04-10")
	require.NoError(t, s.CreateEntry(ctx, u.ID, second))

	posted := true
	got, err := s.ListEntries(ctx, c.ID, EntryFilter{Posted: &posted})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first.ID, got[0].ID)

	got, err = s.ListEntries(ctx, c.ID, EntryFilter{FromDate: datePtr("2026-04-01")})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second.ID, got[0].ID)
}

func TestSubmittedVatReturnBlocksRecompute(t *testing.T) {
	s := newTestStore(t)
	c := seedCompany(t, s)
	u := seedUser(t, s)
	ctx := context.Background()

	e := salesDraft(t, s, c.ID, "2026-03-10")
	require.NoError(t, s.CreateEntry(ctx, u.ID, e))
	_, err := s.PostEntry(ctx, u.ID, e.ID)
	require.NoError(t, err)

	_, err = s.SubmitVatReturn(ctx, u.ID, c.ID, 2026, 3)
	require.NoError(t, err)

	_, err = s.RecomputeVatReturn(ctx, c.ID, 2026, 3)
	assert.ErrorIs(t, err, ledger.ErrState)
	err = s.SetVatCoefficient(ctx, c.ID, 2026, 3, dec("0.42"))
	assert.ErrorIs(t, err, ledger.ErrState)
}
