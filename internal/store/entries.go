package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vankov/bgledger/internal/ledger"
)

// CreateEntry validates and stores a DRAFT entry with its lines. The draft
// has no side effects on inventory or VAT until posted.
func (s *Store) CreateEntry(ctx context.Context, userID int64, e *ledger.EntryWithLines) error {
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		return s.createEntryTx(ctx, tx, userID, e)
	})
}

func (s *Store) createEntryTx(ctx context.Context, tx *sql.Tx, userID int64, e *ledger.EntryWithLines) error {
	if e.ID == "" {
		e.ID = uuid.Must(uuid.NewV7()).String()
	}

	u, err := s.getUser(ctx, tx, userID)
	if err != nil {
		return err
	}
	if err := u.CheckEntryDates(e.DocumentDate, e.AccountingDate, e.VatDate); err != nil {
		return err
	}

	accounts, err := accountsForCompany(ctx, tx, e.CompanyID)
	if err != nil {
		return err
	}
	if err := e.Validate(accounts); err != nil {
		return err
	}

	e.CreatedBy = userID
	var vatDate any
	if e.VatDate != nil {
		vatDate = dateStr(*e.VatDate)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO journal_entries (id, company_id, entry_number, document_date, vat_date, accounting_date,
			document_number, description, vat_document_type, vat_purchase_operation, vat_sales_operation,
			vat_additional_operation, vat_additional_data, created_by)
		 VALUES (?, ?, '', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CompanyID, dateStr(e.DocumentDate), vatDate, dateStr(e.AccountingDate),
		e.DocumentNumber, e.Description, e.VatDocumentType, e.VatPurchaseOperation,
		e.VatSalesOperation, e.VatAdditionalOperation, e.VatAdditionalData, userID)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	return insertLines(ctx, tx, e.ID, e.Lines)
}

func insertLines(ctx context.Context, tx *sql.Tx, entryID string, lines []ledger.EntryLine) error {
	for i := range lines {
		l := &lines[i]
		l.JournalEntryID = entryID
		var counterpartID, vatRate, quantity, currencyAmount, exchangeRate any
		if l.CounterpartID != nil {
			counterpartID = *l.CounterpartID
		}
		if l.VatRate != nil {
			vatRate = l.VatRate.String()
		}
		if l.Quantity != nil {
			quantity = l.Quantity.String()
		}
		if l.CurrencyAmount != nil {
			currencyAmount = l.CurrencyAmount.String()
		}
		if l.ExchangeRate != nil {
			exchangeRate = l.ExchangeRate.String()
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO entry_lines (journal_entry_id, account_id, debit_amount, credit_amount, counterpart_id,
				base_amount, vat_amount, vat_rate, quantity, unit, currency_code, currency_amount, exchange_rate,
				description, line_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entryID, l.AccountID, l.DebitAmount.String(), l.CreditAmount.String(), counterpartID,
			l.BaseAmount.String(), l.VatAmount.String(), vatRate, quantity, l.Unit,
			l.CurrencyCode, currencyAmount, exchangeRate, l.Description, l.LineOrder)
		if err != nil {
			return fmt.Errorf("insert line %d: %w", i+1, err)
		}
		l.ID, err = res.LastInsertId()
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdateEntry applies a patch to a DRAFT entry and revalidates the result.
// Posted entries are immutable.
func (s *Store) UpdateEntry(ctx context.Context, userID int64, entryID string, patch ledger.EntryPatch) error {
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		e, err := getEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if e.IsPosted {
			return fmt.Errorf("%w: entry %s is posted", ledger.ErrState, e.EntryNumber)
		}

		if patch.DocumentDate != nil {
			e.DocumentDate = *patch.DocumentDate
		}
		if patch.ClearVatDate {
			e.VatDate = nil
		} else if patch.VatDate != nil {
			e.VatDate = patch.VatDate
		}
		if patch.AccountingDate != nil {
			e.AccountingDate = *patch.AccountingDate
		}
		if patch.DocumentNumber != nil {
			e.DocumentNumber = *patch.DocumentNumber
		}
		if patch.Description != nil {
			e.Description = *patch.Description
		}
		if patch.VatDocumentType != nil {
			e.VatDocumentType = *patch.VatDocumentType
		}
		if patch.VatPurchaseOperation != nil {
			e.VatPurchaseOperation = *patch.VatPurchaseOperation
		}
		if patch.VatSalesOperation != nil {
			e.VatSalesOperation = *patch.VatSalesOperation
		}
		if patch.VatAdditionalOperation != nil {
			e.VatAdditionalOperation = *patch.VatAdditionalOperation
		}
		if patch.VatAdditionalData != nil {
			e.VatAdditionalData = *patch.VatAdditionalData
		}
		if patch.Lines != nil {
			e.Lines = patch.Lines
		}

		u, err := s.getUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := u.CheckEntryDates(e.DocumentDate, e.AccountingDate, e.VatDate); err != nil {
			return err
		}

		accounts, err := accountsForCompany(ctx, tx, e.CompanyID)
		if err != nil {
			return err
		}
		if err := e.Validate(accounts); err != nil {
			return err
		}

		var vatDate any
		if e.VatDate != nil {
			vatDate = dateStr(*e.VatDate)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE journal_entries SET document_date = ?, vat_date = ?, accounting_date = ?, document_number = ?,
				description = ?, vat_document_type = ?, vat_purchase_operation = ?, vat_sales_operation = ?,
				vat_additional_operation = ?, vat_additional_data = ?
			 WHERE id = ?`,
			dateStr(e.DocumentDate), vatDate, dateStr(e.AccountingDate), e.DocumentNumber,
			e.Description, e.VatDocumentType, e.VatPurchaseOperation, e.VatSalesOperation,
			e.VatAdditionalOperation, e.VatAdditionalData, entryID)
		if err != nil {
			return fmt.Errorf("update entry: %w", err)
		}

		if patch.Lines != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM entry_lines WHERE journal_entry_id = ?`, entryID); err != nil {
				return fmt.Errorf("replace lines: %w", err)
			}
			return insertLines(ctx, tx, entryID, e.Lines)
		}
		return nil
	})
}

// DeleteEntry removes a DRAFT entry and its lines. Posted entries can only
// be reversed.
func (s *Store) DeleteEntry(ctx context.Context, entryID string) error {
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		e, err := getEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if e.IsPosted {
			return fmt.Errorf("%w: entry %s is posted", ledger.ErrState, e.EntryNumber)
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, entryID)
		if err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		return nil
	})
}

// PostEntry transitions a DRAFT to POSTED: permission and period gates,
// full validation, entry numbering, inventory movements and balances, VAT
// classification into the period's return, all or nothing.
func (s *Store) PostEntry(ctx context.Context, userID int64, entryID string) (*ledger.EntryWithLines, error) {
	var posted *ledger.EntryWithLines
	err := s.inWriteTx(ctx, func(tx *sql.Tx) error {
		var err error
		posted, err = s.postEntryTx(ctx, tx, userID, entryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return posted, nil
}

func (s *Store) postEntryTx(ctx context.Context, tx *sql.Tx, userID int64, entryID string) (*ledger.EntryWithLines, error) {
	u, err := s.getUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.CheckCanPost(); err != nil {
		return nil, err
	}

	e, err := getEntry(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	if e.IsPosted {
		return nil, fmt.Errorf("%w: entry %s is already posted", ledger.ErrState, e.EntryNumber)
	}
	if err := u.CheckEntryDates(e.DocumentDate, e.AccountingDate, e.VatDate); err != nil {
		return nil, err
	}

	company, err := getCompanyTx(ctx, tx, e.CompanyID)
	if err != nil {
		return nil, err
	}
	accounts, err := accountsForCompany(ctx, tx, e.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := e.Validate(accounts); err != nil {
		return nil, err
	}

	if err := checkStock(ctx, tx, e, accounts, company.NegativeStockPolicy); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	number, err := nextEntryNumber(ctx, tx, company, now)
	if err != nil {
		return nil, err
	}
	e.EntryNumber = number

	if err := applyInventory(ctx, tx, e, accounts, now); err != nil {
		return nil, err
	}

	amended, err := applyVat(ctx, tx, e, accounts, company.SubmittedPeriodPolicy)
	if err != nil {
		return nil, err
	}

	totalDebit := decimal.Zero
	totalVat := decimal.Zero
	for _, l := range e.Lines {
		totalDebit = totalDebit.Add(l.DebitAmount)
		totalVat = totalVat.Add(l.VatAmount)
	}
	e.TotalAmount = ledger.Round2(totalDebit)
	e.TotalVatAmount = ledger.Round2(totalVat)
	e.IsPosted = true
	e.PostedBy = &userID
	e.PostedAt = &now
	e.IsPostSubmissionAmendment = amended

	_, err = tx.ExecContext(ctx,
		`UPDATE journal_entries SET entry_number = ?, total_amount = ?, total_vat_amount = ?,
			is_posted = 1, posted_by = ?, posted_at = ?, is_post_submission_amendment = ?
		 WHERE id = ?`,
		e.EntryNumber, e.TotalAmount.String(), e.TotalVatAmount.String(),
		userID, timeStr(now), boolToInt(amended), entryID)
	if err != nil {
		return nil, fmt.Errorf("mark posted: %w", err)
	}

	return e, nil
}

// checkStock enforces the negative-stock policy against would-be balances.
func checkStock(ctx context.Context, tx *sql.Tx, e *ledger.EntryWithLines, accounts map[int64]*ledger.Account, policy ledger.NegativeStockPolicy) error {
	if policy != ledger.NegativeStockReject {
		return nil
	}
	verr := &ledger.ValidationError{}
	deltas := map[int64]decimal.Decimal{}
	for _, l := range e.Lines {
		acct := accounts[l.AccountID]
		if acct == nil || !acct.SupportsQuantities || l.Quantity == nil {
			continue
		}
		d := deltas[l.AccountID]
		if l.IsDebit() {
			d = d.Add(*l.Quantity)
		} else {
			d = d.Sub(*l.Quantity)
		}
		deltas[l.AccountID] = d
	}
	for accountID, delta := range deltas {
		if !delta.IsNegative() {
			continue
		}
		b, err := getBalance(ctx, tx, e.CompanyID, accountID)
		if err != nil {
			return err
		}
		if b.Quantity.Add(delta).IsNegative() {
			verr.Add(ledger.RuleNegativeStock, 0, "account %s has %s on hand, entry issues %s",
				accounts[accountID].Code, b.Quantity.String(), delta.Neg().String())
		}
	}
	return verr.OrNil()
}

// nextEntryNumber generates the number under the company's policy.
// SEQUENTIAL_PER_COMPANY is serialized by the single-writer transaction;
// TIMESTAMP_BASED disambiguates same-second ties with a suffix.
func nextEntryNumber(ctx context.Context, tx *sql.Tx, company *ledger.Company, now time.Time) (string, error) {
	if company.NumberingPolicy == ledger.NumberingSequential {
		var next int64
		err := tx.QueryRowContext(ctx,
			`SELECT next_entry_number FROM companies WHERE id = ?`, company.ID).Scan(&next)
		if err != nil {
			return "", fmt.Errorf("read entry sequence: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE companies SET next_entry_number = next_entry_number + 1 WHERE id = ?`, company.ID)
		if err != nil {
			return "", fmt.Errorf("advance entry sequence: %w", err)
		}
		return ledger.SequentialEntryNumber(next), nil
	}

	base := ledger.TimestampEntryNumber(now, 0)
	var ties int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM journal_entries WHERE company_id = ? AND entry_number LIKE ? || '%'`,
		company.ID, base).Scan(&ties)
	if err != nil {
		return "", fmt.Errorf("count number ties: %w", err)
	}
	return ledger.TimestampEntryNumber(now, ties), nil
}

// applyInventory derives a movement for every line on a quantity-bearing
// account and folds it into the running balance. Issues must carry the
// moving-average valuation; a caller prices drafts via AverageCost.
func applyInventory(ctx context.Context, tx *sql.Tx, e *ledger.EntryWithLines, accounts map[int64]*ledger.Account, now time.Time) error {
	for i := range e.Lines {
		l := &e.Lines[i]
		acct := accounts[l.AccountID]
		if acct == nil || !acct.SupportsQuantities {
			continue
		}

		b, err := getBalance(ctx, tx, e.CompanyID, l.AccountID)
		if err != nil {
			return err
		}

		unit := l.Unit
		if unit == "" {
			unit = acct.DefaultUnit
		}

		var movementType string
		var total decimal.Decimal
		var avgAtTime decimal.Decimal
		if l.IsDebit() {
			movementType = ledger.MovementDebit
			total = l.DebitAmount
			*b = ledger.ApplyReceipt(*b, *l.Quantity, total)
			avgAtTime = b.AverageCost
		} else {
			movementType = ledger.MovementCredit
			avgAtTime = b.AverageCost
			var value decimal.Decimal
			*b, value = ledger.ApplyIssue(*b, *l.Quantity)
			total = value
			if !total.Equal(ledger.Round2(l.CreditAmount)) {
				verr := &ledger.ValidationError{}
				verr.Add(ledger.RuleLine, l.LineOrder,
					"issue from %s must be valued at average cost: expected %s, got %s",
					acct.Code, total.StringFixed(2), l.CreditAmount.StringFixed(2))
				return verr
			}
		}

		unitPrice := ledger.SafeDiv(total, *l.Quantity)
		res, err := tx.ExecContext(ctx,
			`INSERT INTO inventory_movements (company_id, account_id, journal_entry_id, entry_line_id,
				movement_type, movement_date, quantity, unit_price, total_amount,
				balance_after_quantity, balance_after_amount, average_cost_at_time, unit)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.CompanyID, l.AccountID, e.ID, l.ID,
			movementType, dateStr(e.AccountingDate), l.Quantity.String(), unitPrice.String(), total.String(),
			b.Quantity.String(), b.TotalAmount.String(), avgAtTime.String(), unit)
		if err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
		if _, err := res.LastInsertId(); err != nil {
			return err
		}

		if b.Unit == "" {
			b.Unit = unit
		}
		if err := putBalance(ctx, tx, e.CompanyID, l.AccountID, b, now); err != nil {
			return err
		}
	}
	return nil
}

// applyVat folds the entry into its period's DRAFT return. When the window's
// return is already frozen, the company policy decides between rejection and
// flagging the entry as a post-submission amendment for a corrective return.
func applyVat(ctx context.Context, tx *sql.Tx, e *ledger.EntryWithLines, accounts map[int64]*ledger.Account, policy ledger.SubmittedPeriodPolicy) (bool, error) {
	if e.VatDate == nil {
		return false, nil
	}

	cfg, err := getSettings(ctx, tx, e.CompanyID)
	if err != nil {
		return false, err
	}

	year, month := e.VatDate.Year(), int(e.VatDate.Month())
	r, err := getReturnForUpdate(ctx, tx, e.CompanyID, year, month)
	if err != nil {
		return false, err
	}

	if r != nil && !r.Editable() {
		if policy == ledger.SubmittedPeriodReject {
			return false, fmt.Errorf("%w: VAT return %s is %s", ledger.ErrState, r.PeriodLabel(), r.Status)
		}
		// AMEND: classification still must succeed so the corrective
		// return can be built later, but the frozen snapshot stays.
		if _, err := ledger.ClassifyEntry(&e.JournalEntry, e.Lines, accounts, cfg.ClassifierConfig()); err != nil {
			return false, err
		}
		return true, nil
	}

	if r == nil {
		r, err = insertReturn(ctx, tx, e.CompanyID, year, month)
		if err != nil {
			return false, err
		}
	}

	if err := r.ApplyEntry(&e.JournalEntry, e.Lines, accounts, cfg.ClassifierConfig()); err != nil {
		return false, err
	}
	return false, updateReturnFields(ctx, tx, r)
}

// ReverseEntry builds and posts the storno of a POSTED entry: sides are
// swapped, VAT amounts are negated so the period return is decremented, and
// inventory movements mirror in kind. Create and post run in one transaction:
// a reversal the gates refuse leaves nothing behind.
func (s *Store) ReverseEntry(ctx context.Context, userID int64, entryID string, reversalDate time.Time, reason string) (*ledger.EntryWithLines, error) {
	var posted *ledger.EntryWithLines
	err := s.inWriteTx(ctx, func(tx *sql.Tx) error {
		original, err := getEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if !original.IsPosted {
			return fmt.Errorf("%w: cannot reverse a draft entry", ledger.ErrState)
		}

		if reason == "" {
			reason = "Сторно: " + original.Description
		}
		rev := &ledger.EntryWithLines{
			JournalEntry: ledger.JournalEntry{
				CompanyID:              original.CompanyID,
				DocumentDate:           original.DocumentDate,
				AccountingDate:         reversalDate,
				DocumentNumber:         original.DocumentNumber,
				Description:            reason,
				VatDocumentType:        original.VatDocumentType,
				VatPurchaseOperation:   original.VatPurchaseOperation,
				VatSalesOperation:      original.VatSalesOperation,
				VatAdditionalOperation: original.VatAdditionalOperation,
			},
		}
		if original.VatDate != nil {
			d := reversalDate
			rev.VatDate = &d
		}
		for i, l := range original.Lines {
			rev.Lines = append(rev.Lines, ledger.EntryLine{
				AccountID:     l.AccountID,
				DebitAmount:   l.CreditAmount,
				CreditAmount:  l.DebitAmount,
				CounterpartID: l.CounterpartID,
				BaseAmount:    l.BaseAmount.Neg(),
				VatAmount:     l.VatAmount.Neg(),
				VatRate:       l.VatRate,
				Quantity:      l.Quantity,
				Unit:          l.Unit,
				Description:   l.Description,
				LineOrder:     i + 1,
			})
		}

		if err := s.createEntryTx(ctx, tx, userID, rev); err != nil {
			return err
		}
		posted, err = s.postEntryTx(ctx, tx, userID, rev.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return posted, nil
}

func (s *Store) GetEntry(ctx context.Context, entryID string) (*ledger.EntryWithLines, error) {
	return getEntry(ctx, s.reader, entryID)
}

func (s *Store) ListEntries(ctx context.Context, companyID int64, filter EntryFilter) ([]ledger.EntryWithLines, error) {
	query := `SELECT DISTINCT je.id FROM journal_entries je`
	args := []any{}

	if filter.AccountID > 0 {
		query += ` JOIN entry_lines el ON el.journal_entry_id = je.id AND el.account_id = ?`
		args = append(args, filter.AccountID)
	}
	query += ` WHERE je.company_id = ?`
	args = append(args, companyID)

	if filter.Posted != nil {
		query += ` AND je.is_posted = ?`
		args = append(args, boolToInt(*filter.Posted))
	}
	if filter.FromDate != nil {
		query += ` AND je.accounting_date >= ?`
		args = append(args, dateStr(*filter.FromDate))
	}
	if filter.ToDate != nil {
		query += ` AND je.accounting_date <= ?`
		args = append(args, dateStr(*filter.ToDate))
	}

	query += ` ORDER BY je.accounting_date DESC, je.id DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
		}
	}

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan entry id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]ledger.EntryWithLines, 0, len(ids))
	for _, id := range ids {
		e, err := getEntry(ctx, s.reader, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

func getEntry(ctx context.Context, q queryer, entryID string) (*ledger.EntryWithLines, error) {
	var e ledger.EntryWithLines
	var vatDate, postedAt sql.NullString
	var postedBy sql.NullInt64
	var totalAmount, totalVat string
	var isPosted, amended int
	var docDate, accDate, createdAt string

	err := q.QueryRowContext(ctx,
		`SELECT id, company_id, entry_number, document_date, vat_date, accounting_date, document_number,
			description, total_amount, total_vat_amount, is_posted, posted_by, posted_at,
			is_post_submission_amendment, vat_document_type, vat_purchase_operation, vat_sales_operation,
			vat_additional_operation, vat_additional_data, created_by, created_at
		 FROM journal_entries WHERE id = ?`, entryID,
	).Scan(&e.ID, &e.CompanyID, &e.EntryNumber, &docDate, &vatDate, &accDate, &e.DocumentNumber,
		&e.Description, &totalAmount, &totalVat, &isPosted, &postedBy, &postedAt,
		&amended, &e.VatDocumentType, &e.VatPurchaseOperation, &e.VatSalesOperation,
		&e.VatAdditionalOperation, &e.VatAdditionalData, &e.CreatedBy, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}

	e.DocumentDate = parseDate(docDate)
	e.AccountingDate = parseDate(accDate)
	if vatDate.Valid {
		d := parseDate(vatDate.String)
		e.VatDate = &d
	}
	e.TotalAmount = mustDec(totalAmount)
	e.TotalVatAmount = mustDec(totalVat)
	e.IsPosted = isPosted == 1
	e.IsPostSubmissionAmendment = amended == 1
	if postedBy.Valid {
		e.PostedBy = &postedBy.Int64
	}
	if postedAt.Valid {
		t := parseTime(postedAt.String)
		e.PostedAt = &t
	}
	e.CreatedAt = parseTime(createdAt)

	rows, err := q.QueryContext(ctx,
		`SELECT id, journal_entry_id, account_id, debit_amount, credit_amount, counterpart_id,
			base_amount, vat_amount, vat_rate, quantity, unit, currency_code, currency_amount,
			exchange_rate, description, line_order, created_at
		 FROM entry_lines WHERE journal_entry_id = ? ORDER BY line_order`, entryID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l ledger.EntryLine
		var counterpartID sql.NullInt64
		var debit, credit, base, vat string
		var vatRate, quantity, currencyAmount, exchangeRate sql.NullString
		var lineCreated string
		if err := rows.Scan(&l.ID, &l.JournalEntryID, &l.AccountID, &debit, &credit, &counterpartID,
			&base, &vat, &vatRate, &quantity, &l.Unit, &l.CurrencyCode, &currencyAmount,
			&exchangeRate, &l.Description, &l.LineOrder, &lineCreated); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		l.DebitAmount = mustDec(debit)
		l.CreditAmount = mustDec(credit)
		l.BaseAmount = mustDec(base)
		l.VatAmount = mustDec(vat)
		if counterpartID.Valid {
			l.CounterpartID = &counterpartID.Int64
		}
		l.VatRate = nullDec(vatRate)
		l.Quantity = nullDec(quantity)
		l.CurrencyAmount = nullDec(currencyAmount)
		l.ExchangeRate = nullDec(exchangeRate)
		l.CreatedAt = parseTime(lineCreated)
		e.Lines = append(e.Lines, l)
	}
	return &e, rows.Err()
}

func getCompanyTx(ctx context.Context, tx *sql.Tx, id int64) (*ledger.Company, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT id, name, eik, vat_number, address, city, is_active,
			numbering_policy, negative_stock_policy, submitted_period_policy, created_at, updated_at
		 FROM companies WHERE id = ?`, id)
	return scanCompany(row)
}

func mustDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nullDec(ns sql.NullString) *decimal.Decimal {
	if !ns.Valid {
		return nil
	}
	d := mustDec(ns.String)
	return &d
}
