package store

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < 1 {
		if err := migrateV1(ctx, tx); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return tx.Commit()
}

// Decimal columns are stored as TEXT and parsed by shopspring/decimal; the
// engine does no arithmetic in SQL.
func migrateV1(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id                       INTEGER PRIMARY KEY AUTOINCREMENT,
			name                     TEXT NOT NULL,
			eik                      TEXT NOT NULL UNIQUE,
			vat_number               TEXT NOT NULL DEFAULT '',
			address                  TEXT NOT NULL DEFAULT '',
			city                     TEXT NOT NULL DEFAULT '',
			is_active                INTEGER NOT NULL DEFAULT 1,
			numbering_policy         TEXT NOT NULL DEFAULT 'TIMESTAMP_BASED'
				CHECK (numbering_policy IN ('TIMESTAMP_BASED','SEQUENTIAL_PER_COMPANY')),
			negative_stock_policy    TEXT NOT NULL DEFAULT 'REJECT'
				CHECK (negative_stock_policy IN ('ALLOW_NEGATIVE','REJECT')),
			submitted_period_policy  TEXT NOT NULL DEFAULT 'REJECT'
				CHECK (submitted_period_policy IN ('REJECT','AMEND')),
			next_entry_number        INTEGER NOT NULL DEFAULT 1,
			created_at               TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			updated_at               TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id                        INTEGER PRIMARY KEY AUTOINCREMENT,
			username                  TEXT NOT NULL UNIQUE,
			email                     TEXT NOT NULL DEFAULT '',
			first_name                TEXT NOT NULL DEFAULT '',
			last_name                 TEXT NOT NULL DEFAULT '',
			group_id                  INTEGER NOT NULL DEFAULT 0,
			is_active                 INTEGER NOT NULL DEFAULT 1,
			can_post_entries          INTEGER NOT NULL DEFAULT 0,
			document_period_start     TEXT NOT NULL,
			document_period_end       TEXT NOT NULL,
			document_period_active    INTEGER NOT NULL DEFAULT 1,
			accounting_period_start   TEXT NOT NULL,
			accounting_period_end     TEXT NOT NULL,
			accounting_period_active  INTEGER NOT NULL DEFAULT 1,
			vat_period_start          TEXT NOT NULL,
			vat_period_end            TEXT NOT NULL,
			vat_period_active         INTEGER NOT NULL DEFAULT 1,
			created_at                TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			updated_at                TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,

		`CREATE TABLE IF NOT EXISTS counterparts (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			company_id   INTEGER NOT NULL REFERENCES companies(id),
			name         TEXT NOT NULL,
			eik          TEXT NOT NULL DEFAULT '',
			vat_number   TEXT NOT NULL DEFAULT '',
			address      TEXT NOT NULL DEFAULT '',
			is_vat_payer INTEGER NOT NULL DEFAULT 1,
			created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_counterparts_company ON counterparts(company_id)`,

		`CREATE TABLE IF NOT EXISTS accounts (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			company_id          INTEGER NOT NULL REFERENCES companies(id),
			code                TEXT NOT NULL,
			name                TEXT NOT NULL,
			class               INTEGER NOT NULL CHECK (class BETWEEN 1 AND 7),
			type                TEXT NOT NULL CHECK (type IN ('ASSET','LIABILITY','EQUITY','REVENUE','EXPENSE')),
			parent_id           INTEGER REFERENCES accounts(id),
			is_analytical       INTEGER NOT NULL DEFAULT 0,
			is_vat_applicable   INTEGER NOT NULL DEFAULT 0,
			vat_direction       TEXT NOT NULL DEFAULT 'NONE' CHECK (vat_direction IN ('NONE','INPUT','OUTPUT','BOTH')),
			supports_quantities INTEGER NOT NULL DEFAULT 0,
			default_unit        TEXT NOT NULL DEFAULT '',
			is_active           INTEGER NOT NULL DEFAULT 1,
			created_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			UNIQUE (company_id, code)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_company ON accounts(company_id)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_parent ON accounts(parent_id)`,

		`CREATE TABLE IF NOT EXISTS accounting_settings (
			id                             INTEGER PRIMARY KEY AUTOINCREMENT,
			company_id                     INTEGER NOT NULL UNIQUE REFERENCES companies(id),
			sales_revenue_account          TEXT NOT NULL,
			sales_services_account         TEXT NOT NULL,
			sales_receivables_account      TEXT NOT NULL,
			purchase_expense_account       TEXT NOT NULL,
			purchase_payables_account      TEXT NOT NULL,
			vat_input_account              TEXT NOT NULL,
			vat_output_account             TEXT NOT NULL,
			non_registered_persons_account TEXT NOT NULL DEFAULT '',
			non_registered_vat_operation   TEXT NOT NULL,
			created_at                     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			updated_at                     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,

		`CREATE TABLE IF NOT EXISTS journal_entries (
			id                           TEXT PRIMARY KEY,
			company_id                   INTEGER NOT NULL REFERENCES companies(id),
			entry_number                 TEXT NOT NULL,
			document_date                TEXT NOT NULL,
			vat_date                     TEXT,
			accounting_date              TEXT NOT NULL,
			document_number              TEXT NOT NULL DEFAULT '',
			description                  TEXT NOT NULL,
			total_amount                 TEXT NOT NULL DEFAULT '0',
			total_vat_amount             TEXT NOT NULL DEFAULT '0',
			is_posted                    INTEGER NOT NULL DEFAULT 0,
			posted_by                    INTEGER REFERENCES users(id),
			posted_at                    TEXT,
			is_post_submission_amendment INTEGER NOT NULL DEFAULT 0,
			vat_document_type            TEXT NOT NULL DEFAULT '',
			vat_purchase_operation       TEXT NOT NULL DEFAULT '',
			vat_sales_operation          TEXT NOT NULL DEFAULT '',
			vat_additional_operation     TEXT NOT NULL DEFAULT '',
			vat_additional_data          TEXT NOT NULL DEFAULT '',
			created_by                   INTEGER NOT NULL REFERENCES users(id),
			created_at                   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		// Drafts share the empty number until posting assigns one.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_number
			ON journal_entries(company_id, entry_number) WHERE entry_number != ''`,
		`CREATE INDEX IF NOT EXISTS idx_entries_company ON journal_entries(company_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_vat_date ON journal_entries(company_id, vat_date)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_acc_date ON journal_entries(company_id, accounting_date)`,

		`CREATE TABLE IF NOT EXISTS entry_lines (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			journal_entry_id TEXT NOT NULL REFERENCES journal_entries(id) ON DELETE CASCADE,
			account_id       INTEGER NOT NULL REFERENCES accounts(id),
			debit_amount     TEXT NOT NULL DEFAULT '0',
			credit_amount    TEXT NOT NULL DEFAULT '0',
			counterpart_id   INTEGER REFERENCES counterparts(id),
			base_amount      TEXT NOT NULL DEFAULT '0',
			vat_amount       TEXT NOT NULL DEFAULT '0',
			vat_rate         TEXT,
			quantity         TEXT,
			unit             TEXT NOT NULL DEFAULT '',
			currency_code    TEXT NOT NULL DEFAULT '',
			currency_amount  TEXT,
			exchange_rate    TEXT,
			description      TEXT NOT NULL DEFAULT '',
			line_order       INTEGER NOT NULL,
			created_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lines_entry ON entry_lines(journal_entry_id)`,
		`CREATE INDEX IF NOT EXISTS idx_lines_account ON entry_lines(account_id)`,

		`CREATE TABLE IF NOT EXISTS inventory_movements (
			id                     INTEGER PRIMARY KEY AUTOINCREMENT,
			company_id             INTEGER NOT NULL REFERENCES companies(id),
			account_id             INTEGER NOT NULL REFERENCES accounts(id),
			journal_entry_id       TEXT NOT NULL REFERENCES journal_entries(id),
			entry_line_id          INTEGER NOT NULL REFERENCES entry_lines(id),
			movement_type          TEXT NOT NULL CHECK (movement_type IN ('DEBIT','CREDIT')),
			movement_date          TEXT NOT NULL,
			quantity               TEXT NOT NULL,
			unit_price             TEXT NOT NULL,
			total_amount           TEXT NOT NULL,
			balance_after_quantity TEXT NOT NULL,
			balance_after_amount   TEXT NOT NULL,
			average_cost_at_time   TEXT NOT NULL,
			unit                   TEXT NOT NULL DEFAULT '',
			created_at             TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_movements_account ON inventory_movements(company_id, account_id, movement_date, id)`,

		`CREATE TABLE IF NOT EXISTS inventory_balances (
			company_id           INTEGER NOT NULL REFERENCES companies(id),
			account_id           INTEGER NOT NULL REFERENCES accounts(id),
			current_quantity     TEXT NOT NULL DEFAULT '0',
			current_amount       TEXT NOT NULL DEFAULT '0',
			current_average_cost TEXT NOT NULL DEFAULT '0',
			unit                 TEXT NOT NULL DEFAULT '',
			updated_at           TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			PRIMARY KEY (company_id, account_id)
		)`,

		`CREATE TABLE IF NOT EXISTS average_cost_corrections (
			id                     INTEGER PRIMARY KEY AUTOINCREMENT,
			company_id             INTEGER NOT NULL REFERENCES companies(id),
			account_id             INTEGER NOT NULL REFERENCES accounts(id),
			triggering_movement_id INTEGER NOT NULL REFERENCES inventory_movements(id),
			affected_movement_id   INTEGER NOT NULL REFERENCES inventory_movements(id),
			correction_entry_id    TEXT NOT NULL REFERENCES journal_entries(id),
			old_average_cost       TEXT NOT NULL,
			new_average_cost       TEXT NOT NULL,
			correction_amount      TEXT NOT NULL,
			created_at             TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,

		`CREATE TABLE IF NOT EXISTS vat_returns (
			id                            INTEGER PRIMARY KEY AUTOINCREMENT,
			company_id                    INTEGER NOT NULL REFERENCES companies(id),
			year                          INTEGER NOT NULL,
			month                         INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
			status                        TEXT NOT NULL DEFAULT 'DRAFT' CHECK (status IN ('DRAFT','SUBMITTED','APPROVED')),
			sales_base_20                 TEXT NOT NULL DEFAULT '0',
			sales_vat_20                  TEXT NOT NULL DEFAULT '0',
			ica_base                      TEXT NOT NULL DEFAULT '0',
			ica_vat                       TEXT NOT NULL DEFAULT '0',
			personal_use_vat              TEXT NOT NULL DEFAULT '0',
			sales_base_9                  TEXT NOT NULL DEFAULT '0',
			sales_vat_9                   TEXT NOT NULL DEFAULT '0',
			sales_base_0_chapter3         TEXT NOT NULL DEFAULT '0',
			icd_base                      TEXT NOT NULL DEFAULT '0',
			export_base                   TEXT NOT NULL DEFAULT '0',
			art21_services_base           TEXT NOT NULL DEFAULT '0',
			art69_supplies_base           TEXT NOT NULL DEFAULT '0',
			exempt_base                   TEXT NOT NULL DEFAULT '0',
			purchases_no_credit_base      TEXT NOT NULL DEFAULT '0',
			purchases_full_credit_base    TEXT NOT NULL DEFAULT '0',
			purchases_full_credit_vat     TEXT NOT NULL DEFAULT '0',
			purchases_partial_credit_base TEXT NOT NULL DEFAULT '0',
			purchases_partial_credit_vat  TEXT NOT NULL DEFAULT '0',
			annual_adjustment             TEXT NOT NULL DEFAULT '0',
			coefficient                   TEXT NOT NULL DEFAULT '0',
			sales_document_count          INTEGER NOT NULL DEFAULT 0,
			purchase_document_count       INTEGER NOT NULL DEFAULT 0,
			is_amendment                  INTEGER NOT NULL DEFAULT 0,
			submitted_by                  INTEGER REFERENCES users(id),
			submitted_at                  TEXT,
			approved_by                   INTEGER REFERENCES users(id),
			approved_at                   TEXT,
			created_at                    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			updated_at                    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			UNIQUE (company_id, year, month)
		)`,

		// Posted entries are immutable; drafts may be edited freely.
		`CREATE TRIGGER IF NOT EXISTS trg_posted_entry_immutable
		BEFORE UPDATE ON journal_entries
		WHEN OLD.is_posted = 1 AND NEW.is_posted = 1
			AND (NEW.document_date != OLD.document_date
				OR COALESCE(NEW.vat_date,'') != COALESCE(OLD.vat_date,'')
				OR NEW.accounting_date != OLD.accounting_date
				OR NEW.description != OLD.description
				OR NEW.total_amount != OLD.total_amount)
		BEGIN
			SELECT RAISE(ABORT, 'cannot modify a posted entry');
		END`,

		`CREATE TRIGGER IF NOT EXISTS trg_posted_entry_no_delete
		BEFORE DELETE ON journal_entries
		WHEN OLD.is_posted = 1
		BEGIN
			SELECT RAISE(ABORT, 'cannot delete a posted entry');
		END`,

		`CREATE TRIGGER IF NOT EXISTS trg_posted_lines_no_update
		BEFORE UPDATE ON entry_lines
		WHEN (SELECT is_posted FROM journal_entries WHERE id = OLD.journal_entry_id) = 1
		BEGIN
			SELECT RAISE(ABORT, 'cannot modify lines of a posted entry');
		END`,

		`CREATE TRIGGER IF NOT EXISTS trg_posted_lines_no_delete
		BEFORE DELETE ON entry_lines
		WHEN (SELECT is_posted FROM journal_entries WHERE id = OLD.journal_entry_id) = 1
		BEGIN
			SELECT RAISE(ABORT, 'cannot remove lines of a posted entry');
		END`,

		`CREATE TRIGGER IF NOT EXISTS trg_posted_lines_no_insert
		BEFORE INSERT ON entry_lines
		WHEN (SELECT is_posted FROM journal_entries WHERE id = NEW.journal_entry_id) = 1
		BEGIN
			SELECT RAISE(ABORT, 'cannot add lines to a posted entry');
		END`,

		// Movement history is append-only; corrections are expressed as new
		// postings, never as rewrites.
		`CREATE TRIGGER IF NOT EXISTS trg_movements_append_only_update
		BEFORE UPDATE ON inventory_movements
		BEGIN
			SELECT RAISE(ABORT, 'inventory movements are append-only');
		END`,

		`CREATE TRIGGER IF NOT EXISTS trg_movements_append_only_delete
		BEFORE DELETE ON inventory_movements
		BEGIN
			SELECT RAISE(ABORT, 'inventory movements are append-only');
		END`,

		`INSERT INTO schema_version (version) VALUES (1)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
