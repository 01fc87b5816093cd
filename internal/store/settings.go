package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vankov/bgledger/internal/ledger"
)

func getSettings(ctx context.Context, q queryer, companyID int64) (*ledger.AccountingSettings, error) {
	var cfg ledger.AccountingSettings
	var createdAt, updatedAt string
	err := q.QueryRowContext(ctx,
		`SELECT id, company_id, sales_revenue_account, sales_services_account, sales_receivables_account,
			purchase_expense_account, purchase_payables_account, vat_input_account, vat_output_account,
			non_registered_persons_account, non_registered_vat_operation, created_at, updated_at
		 FROM accounting_settings WHERE company_id = ?`, companyID,
	).Scan(&cfg.ID, &cfg.CompanyID, &cfg.SalesRevenueAccount, &cfg.SalesServicesAccount, &cfg.SalesReceivablesAccount,
		&cfg.PurchaseExpenseAccount, &cfg.PurchasePayablesAccount, &cfg.VatInputAccount, &cfg.VatOutputAccount,
		&cfg.NonRegisteredPersonsAccount, &cfg.NonRegisteredVatOperation, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no accounting settings for company %d", ledger.ErrCompanyNotFound, companyID)
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	cfg.CreatedAt = parseTime(createdAt)
	cfg.UpdatedAt = parseTime(updatedAt)
	return &cfg, nil
}

func (s *Store) GetAccountingSettings(ctx context.Context, companyID int64) (*ledger.AccountingSettings, error) {
	return getSettings(ctx, s.reader, companyID)
}

// UpdateAccountingSettings replaces the canonical account wiring; every code
// must resolve to a postable account of the company.
func (s *Store) UpdateAccountingSettings(ctx context.Context, cfg *ledger.AccountingSettings) error {
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		codes := []string{
			cfg.SalesRevenueAccount, cfg.SalesServicesAccount, cfg.SalesReceivablesAccount,
			cfg.PurchaseExpenseAccount, cfg.PurchasePayablesAccount,
			cfg.VatInputAccount, cfg.VatOutputAccount,
		}
		if cfg.NonRegisteredPersonsAccount != "" {
			codes = append(codes, cfg.NonRegisteredPersonsAccount)
		}
		verr := &ledger.ValidationError{}
		for _, code := range codes {
			var n int
			err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM accounts WHERE company_id = ? AND code = ? AND is_active = 1`,
				cfg.CompanyID, code).Scan(&n)
			if err != nil {
				return fmt.Errorf("check account %s: %w", code, err)
			}
			if n == 0 {
				verr.Add(ledger.RuleLeafAccount, 0, "account %s does not exist or is inactive", code)
			}
		}
		if err := verr.OrNil(); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`UPDATE accounting_settings SET sales_revenue_account = ?, sales_services_account = ?,
				sales_receivables_account = ?, purchase_expense_account = ?, purchase_payables_account = ?,
				vat_input_account = ?, vat_output_account = ?, non_registered_persons_account = ?,
				non_registered_vat_operation = ?, updated_at = ?
			 WHERE company_id = ?`,
			cfg.SalesRevenueAccount, cfg.SalesServicesAccount, cfg.SalesReceivablesAccount,
			cfg.PurchaseExpenseAccount, cfg.PurchasePayablesAccount,
			cfg.VatInputAccount, cfg.VatOutputAccount, cfg.NonRegisteredPersonsAccount,
			cfg.NonRegisteredVatOperation, timeStr(time.Now().UTC()), cfg.CompanyID)
		if err != nil {
			return fmt.Errorf("update settings: %w", err)
		}
		return nil
	})
}
