package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/vankov/bgledger/internal/ledger"
)

// CreateCompany inserts the company, seeds it with the national chart of
// accounts, and writes the default accounting settings, all in one
// transaction.
func (s *Store) CreateCompany(ctx context.Context, c *ledger.Company) error {
	if c.Name == "" || c.Eik == "" {
		return fmt.Errorf("%w: company name and EIK are required", ledger.ErrValidation)
	}
	if c.NumberingPolicy == "" {
		c.NumberingPolicy = ledger.NumberingTimestamp
	}
	if c.NegativeStockPolicy == "" {
		c.NegativeStockPolicy = ledger.NegativeStockReject
	}
	if c.SubmittedPeriodPolicy == "" {
		c.SubmittedPeriodPolicy = ledger.SubmittedPeriodReject
	}

	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO companies (name, eik, vat_number, address, city, is_active, numbering_policy, negative_stock_policy, submitted_period_policy)
			 VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)`,
			c.Name, c.Eik, c.VatNumber, c.Address, c.City,
			string(c.NumberingPolicy), string(c.NegativeStockPolicy), string(c.SubmittedPeriodPolicy),
		)
		if err != nil {
			return fmt.Errorf("insert company: %w", err)
		}
		c.ID, err = res.LastInsertId()
		if err != nil {
			return err
		}
		c.IsActive = true

		if err := seedChart(ctx, tx, c.ID); err != nil {
			return err
		}

		cfg := ledger.DefaultAccountingSettings(c.ID)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO accounting_settings (company_id, sales_revenue_account, sales_services_account, sales_receivables_account,
				purchase_expense_account, purchase_payables_account, vat_input_account, vat_output_account,
				non_registered_persons_account, non_registered_vat_operation)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, cfg.SalesRevenueAccount, cfg.SalesServicesAccount, cfg.SalesReceivablesAccount,
			cfg.PurchaseExpenseAccount, cfg.PurchasePayablesAccount, cfg.VatInputAccount, cfg.VatOutputAccount,
			cfg.NonRegisteredPersonsAccount, cfg.NonRegisteredVatOperation,
		)
		if err != nil {
			return fmt.Errorf("insert accounting settings: %w", err)
		}
		return nil
	})
}

func seedChart(ctx context.Context, tx *sql.Tx, companyID int64) error {
	ids := make(map[string]int64, len(ledger.PredefinedAccounts))
	for _, t := range ledger.PredefinedAccounts {
		class, err := strconv.Atoi(t.Code[:1])
		if err != nil {
			return fmt.Errorf("chart template %s: %w", t.Code, err)
		}
		var parentID any
		if t.ParentCode != "" {
			pid, ok := ids[t.ParentCode]
			if !ok {
				return fmt.Errorf("chart template %s references unknown parent %s", t.Code, t.ParentCode)
			}
			parentID = pid
		}
		dir := t.VatDirection
		if dir == "" {
			dir = ledger.VatNone
		}
		supportsQty := ledger.DefaultSupportsQuantities(class) && t.IsAnalytical
		unit := ""
		if supportsQty {
			unit = "бр"
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (company_id, code, name, class, type, parent_id, is_analytical, is_vat_applicable, vat_direction, supports_quantities, default_unit)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			companyID, t.Code, t.Name, class, string(t.Type), parentID,
			boolToInt(t.IsAnalytical), boolToInt(t.IsVatApplicable), string(dir),
			boolToInt(supportsQty), unit,
		)
		if err != nil {
			return fmt.Errorf("seed account %s: %w", t.Code, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		ids[t.Code] = id
	}
	return nil
}

func (s *Store) GetCompany(ctx context.Context, id int64) (*ledger.Company, error) {
	row := s.reader.QueryRowContext(ctx,
		`SELECT id, name, eik, vat_number, address, city, is_active,
			numbering_policy, negative_stock_policy, submitted_period_policy, created_at, updated_at
		 FROM companies WHERE id = ?`, id)
	return scanCompany(row)
}

func (s *Store) ListCompanies(ctx context.Context) ([]ledger.Company, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT id, name, eik, vat_number, address, city, is_active,
			numbering_policy, negative_stock_policy, submitted_period_policy, created_at, updated_at
		 FROM companies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var out []ledger.Company
	for rows.Next() {
		c, err := scanCompanyRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// UpdateCompanyPolicies changes the per-company posting policies.
func (s *Store) UpdateCompanyPolicies(ctx context.Context, id int64, numbering ledger.NumberingPolicy, stock ledger.NegativeStockPolicy, submitted ledger.SubmittedPeriodPolicy) error {
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE companies SET numbering_policy = ?, negative_stock_policy = ?, submitted_period_policy = ?,
				updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
			 WHERE id = ?`,
			string(numbering), string(stock), string(submitted), id)
		if err != nil {
			return fmt.Errorf("update company policies: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return ledger.ErrCompanyNotFound
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompanyFields(r rowScanner) (*ledger.Company, error) {
	var c ledger.Company
	var isActive int
	var createdAt, updatedAt string
	err := r.Scan(&c.ID, &c.Name, &c.Eik, &c.VatNumber, &c.Address, &c.City, &isActive,
		&c.NumberingPolicy, &c.NegativeStockPolicy, &c.SubmittedPeriodPolicy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.IsActive = isActive == 1
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

func scanCompany(row *sql.Row) (*ledger.Company, error) {
	c, err := scanCompanyFields(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan company: %w", err)
	}
	return c, nil
}

func scanCompanyRows(rows *sql.Rows) (*ledger.Company, error) {
	c, err := scanCompanyFields(rows)
	if err != nil {
		return nil, fmt.Errorf("scan company row: %w", err)
	}
	return c, nil
}

// CreateCounterpart registers a supplier or customer for a company.
func (s *Store) CreateCounterpart(ctx context.Context, cp *ledger.Counterpart) error {
	if cp.Name == "" {
		return fmt.Errorf("%w: counterpart name is required", ledger.ErrValidation)
	}
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO counterparts (company_id, name, eik, vat_number, address, is_vat_payer)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			cp.CompanyID, cp.Name, cp.Eik, cp.VatNumber, cp.Address, boolToInt(cp.IsVatPayer))
		if err != nil {
			return fmt.Errorf("insert counterpart: %w", err)
		}
		cp.ID, err = res.LastInsertId()
		return err
	})
}

func (s *Store) ListCounterparts(ctx context.Context, companyID int64) ([]ledger.Counterpart, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT id, company_id, name, eik, vat_number, address, is_vat_payer, created_at
		 FROM counterparts WHERE company_id = ? ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list counterparts: %w", err)
	}
	defer rows.Close()

	var out []ledger.Counterpart
	for rows.Next() {
		var cp ledger.Counterpart
		var isVatPayer int
		var createdAt string
		if err := rows.Scan(&cp.ID, &cp.CompanyID, &cp.Name, &cp.Eik, &cp.VatNumber, &cp.Address, &isVatPayer, &createdAt); err != nil {
			return nil, fmt.Errorf("scan counterpart: %w", err)
		}
		cp.IsVatPayer = isVatPayer == 1
		cp.CreatedAt = parseTime(createdAt)
		out = append(out, cp)
	}
	return out, rows.Err()
}
