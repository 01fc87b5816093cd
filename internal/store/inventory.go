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

func getBalance(ctx context.Context, q queryer, companyID, accountID int64) (*ledger.InventoryBalance, error) {
	b := &ledger.InventoryBalance{CompanyID: companyID, AccountID: accountID}
	var qty, amt, avg, updated string
	err := q.QueryRowContext(ctx,
		`SELECT current_quantity, current_amount, current_average_cost, unit, updated_at
		 FROM inventory_balances WHERE company_id = ? AND account_id = ?`,
		companyID, accountID).Scan(&qty, &amt, &avg, &b.Unit, &updated)
	if err == sql.ErrNoRows {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	b.Quantity = mustDec(qty)
	b.TotalAmount = mustDec(amt)
	b.AverageCost = mustDec(avg)
	b.UpdatedAt = parseTime(updated)
	return b, nil
}

func putBalance(ctx context.Context, tx *sql.Tx, companyID, accountID int64, b *ledger.InventoryBalance, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO inventory_balances (company_id, account_id, current_quantity, current_amount, current_average_cost, unit, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(company_id, account_id) DO UPDATE SET
			current_quantity = excluded.current_quantity,
			current_amount = excluded.current_amount,
			current_average_cost = excluded.current_average_cost,
			unit = excluded.unit,
			updated_at = excluded.updated_at`,
		companyID, accountID, b.Quantity.String(), b.TotalAmount.String(),
		b.AverageCost.String(), b.Unit, timeStr(now))
	if err != nil {
		return fmt.Errorf("put balance: %w", err)
	}
	return nil
}

// GetBalance returns the running position of a material account; a never
// moved account reads as an all-zero balance.
func (s *Store) GetBalance(ctx context.Context, companyID, accountID int64) (*ledger.InventoryBalance, error) {
	return getBalance(ctx, s.reader, companyID, accountID)
}

func (s *Store) ListBalances(ctx context.Context, companyID int64) ([]ledger.InventoryBalance, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT company_id, account_id, current_quantity, current_amount, current_average_cost, unit, updated_at
		 FROM inventory_balances WHERE company_id = ? ORDER BY account_id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	var out []ledger.InventoryBalance
	for rows.Next() {
		var b ledger.InventoryBalance
		var qty, amt, avg, updated string
		if err := rows.Scan(&b.CompanyID, &b.AccountID, &qty, &amt, &avg, &b.Unit, &updated); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		b.Quantity = mustDec(qty)
		b.TotalAmount = mustDec(amt)
		b.AverageCost = mustDec(avg)
		b.UpdatedAt = parseTime(updated)
		out = append(out, b)
	}
	return out, rows.Err()
}

const movementCols = `id, company_id, account_id, journal_entry_id, entry_line_id, movement_type,
	movement_date, quantity, unit_price, total_amount, balance_after_quantity,
	balance_after_amount, average_cost_at_time, unit, created_at`

func scanMovement(rows *sql.Rows) (*ledger.InventoryMovement, error) {
	var m ledger.InventoryMovement
	var mdate, qty, price, total, baq, baa, avg, created string
	if err := rows.Scan(&m.ID, &m.CompanyID, &m.AccountID, &m.JournalEntryID, &m.EntryLineID,
		&m.MovementType, &mdate, &qty, &price, &total, &baq, &baa, &avg, &m.Unit, &created); err != nil {
		return nil, fmt.Errorf("scan movement: %w", err)
	}
	m.MovementDate = parseDate(mdate)
	m.Quantity = mustDec(qty)
	m.UnitPrice = mustDec(price)
	m.TotalAmount = mustDec(total)
	m.BalanceAfterQuantity = mustDec(baq)
	m.BalanceAfterAmount = mustDec(baa)
	m.AverageCostAtTime = mustDec(avg)
	m.CreatedAt = parseTime(created)
	return &m, nil
}

func listMovements(ctx context.Context, q queryer, companyID, accountID int64, until *time.Time) ([]ledger.InventoryMovement, error) {
	query := `SELECT ` + movementCols + ` FROM inventory_movements
		 WHERE company_id = ? AND account_id = ?`
	args := []any{companyID, accountID}
	if until != nil {
		query += ` AND movement_date <= ?`
		args = append(args, dateStr(*until))
	}
	query += ` ORDER BY movement_date, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var out []ledger.InventoryMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// ListMovements returns the account's full movement history in replay order.
func (s *Store) ListMovements(ctx context.Context, companyID, accountID int64) ([]ledger.InventoryMovement, error) {
	return listMovements(ctx, s.reader, companyID, accountID, nil)
}

// AverageCost replays the movement history up to and including asOf and
// returns the moving-average cost prevailing at that date. Callers use it to
// price issue lines before posting.
func (s *Store) AverageCost(ctx context.Context, companyID, accountID int64, asOf time.Time) (decimal.Decimal, error) {
	movements, err := listMovements(ctx, s.reader, companyID, accountID, &asOf)
	if err != nil {
		return decimal.Zero, err
	}
	b := ledger.ReplayMovements(companyID, accountID, movements)
	return b.AverageCost, nil
}

// RecomputeBalance replays the full history and rewrites the stored balance
// from it. The replayed position is authoritative; a drifted stored row is
// repaired in place.
func (s *Store) RecomputeBalance(ctx context.Context, companyID, accountID int64) (*ledger.InventoryBalance, error) {
	var out *ledger.InventoryBalance
	err := s.inWriteTx(ctx, func(tx *sql.Tx) error {
		movements, err := listMovements(ctx, tx, companyID, accountID, nil)
		if err != nil {
			return err
		}
		b := ledger.ReplayMovements(companyID, accountID, movements)
		if err := putBalance(ctx, tx, companyID, accountID, &b, time.Now().UTC()); err != nil {
			return err
		}
		out = &b
		return nil
	})
	return out, err
}

// PlanRetroactiveCorrections replays the account's history, back-dated
// receipts included, and returns the issues whose valuation shifted by a
// stotinka or more. Nothing is written; ApplyCorrections executes the plan.
func (s *Store) PlanRetroactiveCorrections(ctx context.Context, companyID, accountID int64) ([]ledger.CorrectionNeeded, error) {
	movements, err := listMovements(ctx, s.reader, companyID, accountID, nil)
	if err != nil {
		return nil, err
	}
	corrections := ledger.PlanCorrections(movements)
	for i := range corrections {
		expense, err := s.issueExpenseAccount(ctx, companyID, corrections[i].JournalEntryID, accountID)
		if err != nil {
			return nil, err
		}
		corrections[i].ExpenseAccountID = expense
	}
	return corrections, nil
}

// issueExpenseAccount finds the counterpart debit side of the issue's entry,
// falling back to the company's configured expense account.
func (s *Store) issueExpenseAccount(ctx context.Context, companyID int64, entryID string, materialAccountID int64) (int64, error) {
	var accountID int64
	err := s.reader.QueryRowContext(ctx,
		`SELECT account_id FROM entry_lines
		 WHERE journal_entry_id = ? AND account_id != ? AND CAST(debit_amount AS REAL) > 0
		 ORDER BY CAST(debit_amount AS REAL) DESC LIMIT 1`,
		entryID, materialAccountID).Scan(&accountID)
	if err == nil {
		return accountID, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("find expense side: %w", err)
	}

	cfg, err := getSettings(ctx, s.reader, companyID)
	if err != nil {
		return 0, err
	}
	acct, err := s.GetAccountByCode(ctx, companyID, cfg.PurchaseExpenseAccount)
	if err != nil {
		return 0, err
	}
	return acct.ID, nil
}

// ApplyCorrections posts one compensating journal entry covering the planned
// corrections of a back-dated receipt and records the audit trail. The entry
// carries the caller's accounting date. Historical movements stay untouched;
// the stored balance absorbs the net delta.
func (s *Store) ApplyCorrections(ctx context.Context, userID int64, companyID int64, triggeringMovementID int64, corrections []ledger.CorrectionNeeded, accountingDate time.Time) (*ledger.JournalEntry, error) {
	if len(corrections) == 0 {
		return nil, nil
	}

	var entry *ledger.JournalEntry
	err := s.inWriteTx(ctx, func(tx *sql.Tx) error {
		u, err := s.getUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := u.CheckCanPost(); err != nil {
			return err
		}

		company, err := getCompanyTx(ctx, tx, companyID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		number, err := nextEntryNumber(ctx, tx, company, now)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, c := range corrections {
			total = total.Add(c.CorrectionAmount.Abs())
		}

		e := &ledger.JournalEntry{
			ID:             uuid.Must(uuid.NewV7()).String(),
			CompanyID:      companyID,
			EntryNumber:    number,
			DocumentDate:   accountingDate,
			AccountingDate: accountingDate,
			Description:    "Корекция на средна цена след заден прием",
			TotalAmount:    ledger.Round2(total),
			IsPosted:       true,
			PostedBy:       &userID,
			PostedAt:       &now,
			CreatedBy:      userID,
			CreatedAt:      now,
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO journal_entries (id, company_id, entry_number, document_date, accounting_date,
				description, total_amount, created_by)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, companyID, e.EntryNumber, dateStr(e.DocumentDate), dateStr(e.AccountingDate),
			e.Description, e.TotalAmount.String(), userID)
		if err != nil {
			return fmt.Errorf("insert correction entry: %w", err)
		}

		order := 1
		deltas := map[int64]decimal.Decimal{}
		for _, c := range corrections {
			amount := c.CorrectionAmount.Abs()
			debitAccount, creditAccount := c.ExpenseAccountID, c.MaterialAccountID
			if c.CorrectionAmount.IsNegative() {
				debitAccount, creditAccount = c.MaterialAccountID, c.ExpenseAccountID
			}
			desc := fmt.Sprintf("Преоценка на изписване %d: %s -> %s",
				c.MovementID, c.OldAverageCost.StringFixed(6), c.NewAverageCost.StringFixed(6))
			for _, side := range []struct {
				accountID int64
				debit     bool
			}{{debitAccount, true}, {creditAccount, false}} {
				dr, cr := "0", "0"
				if side.debit {
					dr = amount.String()
				} else {
					cr = amount.String()
				}
				// The material side keeps the corrected issue's quantity so
				// the revaluation reads back against the same units.
				var qty any
				if side.accountID == c.MaterialAccountID {
					qty = c.Quantity.String()
				}
				_, err := tx.ExecContext(ctx,
					`INSERT INTO entry_lines (journal_entry_id, account_id, debit_amount, credit_amount,
						base_amount, vat_amount, quantity, description, line_order)
					 VALUES (?, ?, ?, ?, '0', '0', ?, ?, ?)`,
					e.ID, side.accountID, dr, cr, qty, desc, order)
				if err != nil {
					return fmt.Errorf("insert correction line: %w", err)
				}
				order++
			}

			_, err := tx.ExecContext(ctx,
				`INSERT INTO average_cost_corrections (company_id, account_id, triggering_movement_id,
					affected_movement_id, correction_entry_id, old_average_cost, new_average_cost, correction_amount)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				companyID, c.MaterialAccountID, triggeringMovementID, c.MovementID, e.ID,
				c.OldAverageCost.String(), c.NewAverageCost.String(), c.CorrectionAmount.String())
			if err != nil {
				return fmt.Errorf("insert correction record: %w", err)
			}

			deltas[c.MaterialAccountID] = deltas[c.MaterialAccountID].Add(c.CorrectionAmount)
		}

		// A positive correction means more value should have left on the
		// issue, so the stored amount shrinks by the delta.
		for materialID, delta := range deltas {
			b, err := getBalance(ctx, tx, companyID, materialID)
			if err != nil {
				return err
			}
			b.TotalAmount = ledger.Round2(b.TotalAmount.Sub(delta))
			b.AverageCost = ledger.SafeDiv(b.TotalAmount, b.Quantity)
			if err := putBalance(ctx, tx, companyID, materialID, b, now); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE journal_entries SET is_posted = 1, posted_by = ?, posted_at = ? WHERE id = ?`,
			userID, timeStr(now), e.ID)
		if err != nil {
			return fmt.Errorf("post correction entry: %w", err)
		}

		entry = e
		return nil
	})
	return entry, err
}

func (s *Store) ListCorrections(ctx context.Context, companyID, accountID int64) ([]ledger.AverageCostCorrection, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT id, company_id, account_id, triggering_movement_id, affected_movement_id,
			correction_entry_id, old_average_cost, new_average_cost, correction_amount, created_at
		 FROM average_cost_corrections WHERE company_id = ? AND account_id = ? ORDER BY id`,
		companyID, accountID)
	if err != nil {
		return nil, fmt.Errorf("list corrections: %w", err)
	}
	defer rows.Close()

	var out []ledger.AverageCostCorrection
	for rows.Next() {
		var c ledger.AverageCostCorrection
		var oldAvg, newAvg, amt, created string
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.AccountID, &c.TriggeringMovementID,
			&c.AffectedMovementID, &c.CorrectionEntryID, &oldAvg, &newAvg, &amt, &created); err != nil {
			return nil, fmt.Errorf("scan correction: %w", err)
		}
		c.OldAverageCost = mustDec(oldAvg)
		c.NewAverageCost = mustDec(newAvg)
		c.CorrectionAmount = mustDec(amt)
		c.CreatedAt = parseTime(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Turnover builds the opening/received/issued/closing report for all material
// accounts over [from, to].
func (s *Store) Turnover(ctx context.Context, companyID int64, from, to time.Time) ([]ledger.InventoryTurnoverRow, error) {
	accounts, err := s.ListAccounts(ctx, companyID, AccountFilter{})
	if err != nil {
		return nil, err
	}

	var out []ledger.InventoryTurnoverRow
	for _, a := range accounts {
		if !a.SupportsQuantities {
			continue
		}
		movements, err := listMovements(ctx, s.reader, companyID, a.ID, nil)
		if err != nil {
			return nil, err
		}
		if len(movements) == 0 {
			continue
		}

		row := ledger.InventoryTurnoverRow{AccountID: a.ID, AccountCode: a.Code, AccountName: a.Name, Unit: a.DefaultUnit}
		b := ledger.InventoryBalance{CompanyID: companyID, AccountID: a.ID}
		for _, m := range movements {
			if m.MovementDate.After(to) {
				break
			}
			if m.MovementDate.Before(from) {
				if m.MovementType == ledger.MovementCredit {
					b, _ = ledger.ApplyIssue(b, m.Quantity)
				} else {
					b = ledger.ApplyReceipt(b, m.Quantity, m.TotalAmount)
				}
				continue
			}
			if row.ReceivedQty.IsZero() && row.IssuedQty.IsZero() {
				row.OpeningQty = b.Quantity
				row.OpeningAmount = b.TotalAmount
			}
			if m.MovementType == ledger.MovementCredit {
				var value decimal.Decimal
				b, value = ledger.ApplyIssue(b, m.Quantity)
				row.IssuedQty = row.IssuedQty.Add(m.Quantity)
				row.IssuedAmt = row.IssuedAmt.Add(value)
			} else {
				b = ledger.ApplyReceipt(b, m.Quantity, m.TotalAmount)
				row.ReceivedQty = row.ReceivedQty.Add(m.Quantity)
				row.ReceivedAmt = row.ReceivedAmt.Add(m.TotalAmount)
			}
		}
		if row.ReceivedQty.IsZero() && row.IssuedQty.IsZero() {
			row.OpeningQty = b.Quantity
			row.OpeningAmount = b.TotalAmount
		}
		row.ClosingQty = b.Quantity
		row.ClosingAmount = b.TotalAmount
		out = append(out, row)
	}
	return out, nil
}
