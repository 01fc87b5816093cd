package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vankov/bgledger/internal/ledger"
)

func (s *Store) CreateAccount(ctx context.Context, acct *ledger.Account) error {
	if err := acct.Validate(); err != nil {
		return err
	}
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		var parentID any
		if acct.ParentID != nil {
			parentID = *acct.ParentID
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (company_id, code, name, class, type, parent_id, is_analytical, is_vat_applicable, vat_direction, supports_quantities, default_unit, is_active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			acct.CompanyID, acct.Code, acct.Name, acct.Class, string(acct.Type), parentID,
			boolToInt(acct.IsAnalytical), boolToInt(acct.IsVatApplicable), string(acct.VatDirection),
			boolToInt(acct.SupportsQuantities), acct.DefaultUnit, boolToInt(acct.IsActive))
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("%w: %s", ledger.ErrDuplicateAccount, acct.Code)
			}
			return fmt.Errorf("insert account: %w", err)
		}
		acct.ID, err = res.LastInsertId()
		return err
	})
}

const accountCols = `id, company_id, code, name, class, type, parent_id, is_analytical, is_vat_applicable, vat_direction, supports_quantities, default_unit, is_active, created_at`

func (s *Store) GetAccount(ctx context.Context, id int64) (*ledger.Account, error) {
	row := s.reader.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (s *Store) GetAccountByCode(ctx context.Context, companyID int64, code string) (*ledger.Account, error) {
	row := s.reader.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE company_id = ? AND code = ?`, companyID, code)
	return scanAccount(row)
}

func (s *Store) ListAccounts(ctx context.Context, companyID int64, filter AccountFilter) ([]ledger.Account, error) {
	query := `SELECT ` + accountCols + ` FROM accounts WHERE company_id = ?`
	args := []any{companyID}

	if filter.Class > 0 {
		query += ` AND class = ?`
		args = append(args, filter.Class)
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.OnlyLeaves {
		query += ` AND is_analytical = 1`
	}

	query += ` ORDER BY code`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
		}
	}

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		acct, err := scanAccountRows(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}
	return accounts, rows.Err()
}

// SetAccountActive toggles an account without deleting history behind it.
func (s *Store) SetAccountActive(ctx context.Context, id int64, active bool) error {
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE accounts SET is_active = ? WHERE id = ?`, boolToInt(active), id)
		if err != nil {
			return fmt.Errorf("set account active: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return ledger.ErrAccountNotFound
		}
		return nil
	})
}

// accountsForCompany loads the whole chart keyed by ID, inside tx so the
// posting path sees a consistent snapshot.
func accountsForCompany(ctx context.Context, q queryer, companyID int64) (map[int64]*ledger.Account, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE company_id = ?`, companyID)
	if err != nil {
		return nil, fmt.Errorf("load chart: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]*ledger.Account)
	for rows.Next() {
		acct, err := scanAccountRows(rows)
		if err != nil {
			return nil, err
		}
		out[acct.ID] = acct
	}
	return out, rows.Err()
}

func scanAccountFields(r rowScanner) (*ledger.Account, error) {
	var a ledger.Account
	var parentID sql.NullInt64
	var isAnalytical, isVat, supportsQty, isActive int
	var createdAt string
	err := r.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Class, &a.Type, &parentID,
		&isAnalytical, &isVat, &a.VatDirection, &supportsQty, &a.DefaultUnit, &isActive, &createdAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		a.ParentID = &parentID.Int64
	}
	a.IsAnalytical = isAnalytical == 1
	a.IsVatApplicable = isVat == 1
	a.SupportsQuantities = supportsQty == 1
	a.IsActive = isActive == 1
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}

func scanAccount(row *sql.Row) (*ledger.Account, error) {
	a, err := scanAccountFields(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}

func scanAccountRows(rows *sql.Rows) (*ledger.Account, error) {
	a, err := scanAccountFields(rows)
	if err != nil {
		return nil, fmt.Errorf("scan account row: %w", err)
	}
	return a, nil
}
