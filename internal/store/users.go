package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vankov/bgledger/internal/ledger"
)

func (s *Store) CreateUser(ctx context.Context, u *ledger.User) error {
	if u.Username == "" {
		return fmt.Errorf("%w: username is required", ledger.ErrValidation)
	}
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, email, first_name, last_name, group_id, is_active, can_post_entries,
				document_period_start, document_period_end, document_period_active,
				accounting_period_start, accounting_period_end, accounting_period_active,
				vat_period_start, vat_period_end, vat_period_active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			u.Username, u.Email, u.FirstName, u.LastName, u.GroupID,
			boolToInt(u.IsActive), boolToInt(u.CanPostEntries),
			dateStr(u.DocumentPeriod.Start), dateStr(u.DocumentPeriod.End), boolToInt(u.DocumentPeriod.Active),
			dateStr(u.AccountingPeriod.Start), dateStr(u.AccountingPeriod.End), boolToInt(u.AccountingPeriod.Active),
			dateStr(u.VatPeriod.Start), dateStr(u.VatPeriod.End), boolToInt(u.VatPeriod.Active),
		)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		u.ID, err = res.LastInsertId()
		return err
	})
}

func (s *Store) GetUser(ctx context.Context, id int64) (*ledger.User, error) {
	return s.getUser(ctx, s.reader, id)
}

func (s *Store) getUser(ctx context.Context, q queryer, id int64) (*ledger.User, error) {
	var u ledger.User
	var isActive, canPost int
	var docStart, docEnd string
	var docActive int
	var accStart, accEnd string
	var accActive int
	var vatStart, vatEnd string
	var vatActive int
	var createdAt, updatedAt string

	err := q.QueryRowContext(ctx,
		`SELECT id, username, email, first_name, last_name, group_id, is_active, can_post_entries,
			document_period_start, document_period_end, document_period_active,
			accounting_period_start, accounting_period_end, accounting_period_active,
			vat_period_start, vat_period_end, vat_period_active,
			created_at, updated_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.GroupID, &isActive, &canPost,
		&docStart, &docEnd, &docActive,
		&accStart, &accEnd, &accActive,
		&vatStart, &vatEnd, &vatActive,
		&createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	u.IsActive = isActive == 1
	u.CanPostEntries = canPost == 1
	u.DocumentPeriod = ledger.PeriodWindow{Start: parseDate(docStart), End: parseDate(docEnd), Active: docActive == 1}
	u.AccountingPeriod = ledger.PeriodWindow{Start: parseDate(accStart), End: parseDate(accEnd), Active: accActive == 1}
	u.VatPeriod = ledger.PeriodWindow{Start: parseDate(vatStart), End: parseDate(vatEnd), Active: vatActive == 1}
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return &u, nil
}

// UpdateUserPeriods replaces the user's three input windows.
func (s *Store) UpdateUserPeriods(ctx context.Context, id int64, doc, acc, vat ledger.PeriodWindow) error {
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET
				document_period_start = ?, document_period_end = ?, document_period_active = ?,
				accounting_period_start = ?, accounting_period_end = ?, accounting_period_active = ?,
				vat_period_start = ?, vat_period_end = ?, vat_period_active = ?,
				updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
			 WHERE id = ?`,
			dateStr(doc.Start), dateStr(doc.End), boolToInt(doc.Active),
			dateStr(acc.Start), dateStr(acc.End), boolToInt(acc.Active),
			dateStr(vat.Start), dateStr(vat.End), boolToInt(vat.Active),
			id)
		if err != nil {
			return fmt.Errorf("update user periods: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return ledger.ErrUserNotFound
		}
		return nil
	})
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
