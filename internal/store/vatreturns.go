package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vankov/bgledger/internal/ledger"
)

const vatReturnCols = `id, company_id, year, month, status,
	sales_base_20, sales_vat_20, ica_base, ica_vat, personal_use_vat,
	sales_base_9, sales_vat_9, sales_base_0_chapter3, icd_base, export_base,
	art21_services_base, art69_supplies_base, exempt_base,
	purchases_no_credit_base, purchases_full_credit_base, purchases_full_credit_vat,
	purchases_partial_credit_base, purchases_partial_credit_vat, annual_adjustment, coefficient,
	sales_document_count, purchase_document_count, is_amendment,
	submitted_by, submitted_at, approved_by, approved_at, created_at, updated_at`

func scanVatReturn(r rowScanner) (*ledger.VatReturn, error) {
	var ret ledger.VatReturn
	cells := make([]string, 20)
	var isAmendment int
	var submittedBy, approvedBy sql.NullInt64
	var submittedAt, approvedAt sql.NullString
	var createdAt, updatedAt string

	err := r.Scan(&ret.ID, &ret.CompanyID, &ret.Year, &ret.Month, &ret.Status,
		&cells[0], &cells[1], &cells[2], &cells[3], &cells[4],
		&cells[5], &cells[6], &cells[7], &cells[8], &cells[9],
		&cells[10], &cells[11], &cells[12],
		&cells[13], &cells[14], &cells[15],
		&cells[16], &cells[17], &cells[18], &cells[19],
		&ret.SalesDocumentCount, &ret.PurchaseDocumentCount, &isAmendment,
		&submittedBy, &submittedAt, &approvedBy, &approvedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	for i, dst := range []*decimal.Decimal{
		&ret.SalesBase20, &ret.SalesVat20, &ret.IcaBase, &ret.IcaVat, &ret.PersonalUseVat,
		&ret.SalesBase9, &ret.SalesVat9, &ret.SalesBase0Chapter3, &ret.IcdBase, &ret.ExportBase,
		&ret.Art21ServicesBase, &ret.Art69SuppliesBase, &ret.ExemptBase,
		&ret.PurchasesNoCreditBase, &ret.PurchasesFullCreditBase, &ret.PurchasesFullCreditVat,
		&ret.PurchasesPartialCreditBase, &ret.PurchasesPartialCreditVat, &ret.AnnualAdjustment, &ret.Coefficient,
	} {
		*dst = mustDec(cells[i])
	}

	ret.IsAmendment = isAmendment == 1
	if submittedBy.Valid {
		ret.SubmittedBy = &submittedBy.Int64
	}
	if submittedAt.Valid {
		t := parseTime(submittedAt.String)
		ret.SubmittedAt = &t
	}
	if approvedBy.Valid {
		ret.ApprovedBy = &approvedBy.Int64
	}
	if approvedAt.Valid {
		t := parseTime(approvedAt.String)
		ret.ApprovedAt = &t
	}
	ret.CreatedAt = parseTime(createdAt)
	ret.UpdatedAt = parseTime(updatedAt)
	return &ret, nil
}

// getReturnForUpdate loads a return inside the write transaction; a missing
// period returns nil, not an error.
func getReturnForUpdate(ctx context.Context, tx *sql.Tx, companyID int64, year, month int) (*ledger.VatReturn, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+vatReturnCols+` FROM vat_returns WHERE company_id = ? AND year = ? AND month = ?`,
		companyID, year, month)
	ret, err := scanVatReturn(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vat return: %w", err)
	}
	return ret, nil
}

func insertReturn(ctx context.Context, tx *sql.Tx, companyID int64, year, month int) (*ledger.VatReturn, error) {
	if err := ledger.ValidateVatPeriod(year, month); err != nil {
		return nil, err
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO vat_returns (company_id, year, month) VALUES (?, ?, ?)`,
		companyID, year, month)
	if err != nil {
		return nil, fmt.Errorf("insert vat return: %w", err)
	}
	return getReturnForUpdate(ctx, tx, companyID, year, month)
}

// updateReturnFields persists every accumulator cell of an editable return.
func updateReturnFields(ctx context.Context, tx *sql.Tx, r *ledger.VatReturn) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE vat_returns SET
			sales_base_20 = ?, sales_vat_20 = ?, ica_base = ?, ica_vat = ?, personal_use_vat = ?,
			sales_base_9 = ?, sales_vat_9 = ?, sales_base_0_chapter3 = ?, icd_base = ?, export_base = ?,
			art21_services_base = ?, art69_supplies_base = ?, exempt_base = ?,
			purchases_no_credit_base = ?, purchases_full_credit_base = ?, purchases_full_credit_vat = ?,
			purchases_partial_credit_base = ?, purchases_partial_credit_vat = ?, annual_adjustment = ?, coefficient = ?,
			sales_document_count = ?, purchase_document_count = ?,
			updated_at = ?
		 WHERE id = ?`,
		r.SalesBase20.String(), r.SalesVat20.String(), r.IcaBase.String(), r.IcaVat.String(), r.PersonalUseVat.String(),
		r.SalesBase9.String(), r.SalesVat9.String(), r.SalesBase0Chapter3.String(), r.IcdBase.String(), r.ExportBase.String(),
		r.Art21ServicesBase.String(), r.Art69SuppliesBase.String(), r.ExemptBase.String(),
		r.PurchasesNoCreditBase.String(), r.PurchasesFullCreditBase.String(), r.PurchasesFullCreditVat.String(),
		r.PurchasesPartialCreditBase.String(), r.PurchasesPartialCreditVat.String(), r.AnnualAdjustment.String(), r.Coefficient.String(),
		r.SalesDocumentCount, r.PurchaseDocumentCount,
		timeStr(time.Now().UTC()), r.ID)
	if err != nil {
		return fmt.Errorf("update vat return: %w", err)
	}
	return nil
}

func (s *Store) GetVatReturn(ctx context.Context, companyID int64, year, month int) (*ledger.VatReturn, error) {
	row := s.reader.QueryRowContext(ctx,
		`SELECT `+vatReturnCols+` FROM vat_returns WHERE company_id = ? AND year = ? AND month = ?`,
		companyID, year, month)
	ret, err := scanVatReturn(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrVatReturnNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vat return: %w", err)
	}
	return ret, nil
}

func (s *Store) ListVatReturns(ctx context.Context, companyID int64) ([]ledger.VatReturn, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT `+vatReturnCols+` FROM vat_returns WHERE company_id = ? ORDER BY year, month`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list vat returns: %w", err)
	}
	defer rows.Close()

	var out []ledger.VatReturn
	for rows.Next() {
		ret, err := scanVatReturn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vat return: %w", err)
		}
		out = append(out, *ret)
	}
	return out, rows.Err()
}

// RecomputeVatReturn rebuilds a DRAFT return from scratch out of the posted
// entries whose vat_date falls in the period. Idempotent; the incremental
// folding done at post time and a recompute agree by construction.
func (s *Store) RecomputeVatReturn(ctx context.Context, companyID int64, year, month int) (*ledger.VatReturn, error) {
	var out *ledger.VatReturn
	err := s.inWriteTx(ctx, func(tx *sql.Tx) error {
		r, err := getReturnForUpdate(ctx, tx, companyID, year, month)
		if err != nil {
			return err
		}
		if r == nil {
			r, err = insertReturn(ctx, tx, companyID, year, month)
			if err != nil {
				return err
			}
		}
		if !r.Editable() {
			return fmt.Errorf("%w: VAT return %s is %s", ledger.ErrState, r.PeriodLabel(), r.Status)
		}

		fresh := &ledger.VatReturn{ID: r.ID, CompanyID: companyID, Year: year, Month: month, Status: r.Status}
		fresh.Coefficient = r.Coefficient
		fresh.AnnualAdjustment = r.AnnualAdjustment

		cfg, err := getSettings(ctx, tx, companyID)
		if err != nil {
			return err
		}
		accounts, err := accountsForCompany(ctx, tx, companyID)
		if err != nil {
			return err
		}

		start, end := fresh.Period()
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM journal_entries
			 WHERE company_id = ? AND is_posted = 1 AND vat_date >= ? AND vat_date < ?
			 ORDER BY vat_date, id`,
			companyID, dateStr(start), dateStr(end))
		if err != nil {
			return fmt.Errorf("scan period entries: %w", err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range ids {
			e, err := getEntry(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := fresh.ApplyEntry(&e.JournalEntry, e.Lines, accounts, cfg.ClassifierConfig()); err != nil {
				return err
			}
		}

		if err := updateReturnFields(ctx, tx, fresh); err != nil {
			return err
		}
		out = fresh
		return nil
	})
	return out, err
}

// SetVatCoefficient writes the art. 73 partial-credit coefficient (cell
// 01-33) on a DRAFT return.
func (s *Store) SetVatCoefficient(ctx context.Context, companyID int64, year, month int, coefficient decimal.Decimal) error {
	return s.updateEditableReturn(ctx, companyID, year, month, func(r *ledger.VatReturn) {
		r.Coefficient = coefficient
	})
}

// SetAnnualAdjustment writes the art. 73(8) annual adjustment (cell 01-43)
// on a DRAFT return.
func (s *Store) SetAnnualAdjustment(ctx context.Context, companyID int64, year, month int, adjustment decimal.Decimal) error {
	return s.updateEditableReturn(ctx, companyID, year, month, func(r *ledger.VatReturn) {
		r.AnnualAdjustment = adjustment
	})
}

func (s *Store) updateEditableReturn(ctx context.Context, companyID int64, year, month int, mutate func(*ledger.VatReturn)) error {
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		r, err := getReturnForUpdate(ctx, tx, companyID, year, month)
		if err != nil {
			return err
		}
		if r == nil {
			r, err = insertReturn(ctx, tx, companyID, year, month)
			if err != nil {
				return err
			}
		}
		if !r.Editable() {
			return fmt.Errorf("%w: VAT return %s is %s", ledger.ErrState, r.PeriodLabel(), r.Status)
		}
		mutate(r)
		return updateReturnFields(ctx, tx, r)
	})
}

// SubmitVatReturn freezes a DRAFT at the filed figures.
func (s *Store) SubmitVatReturn(ctx context.Context, userID, companyID int64, year, month int) (*ledger.VatReturn, error) {
	return s.transitionReturn(ctx, companyID, year, month, ledger.VatReturnDraft, ledger.VatReturnSubmitted,
		`submitted_by = ?, submitted_at = ?`, userID)
}

// ApproveVatReturn records NRA acceptance of a SUBMITTED return.
func (s *Store) ApproveVatReturn(ctx context.Context, userID, companyID int64, year, month int) (*ledger.VatReturn, error) {
	return s.transitionReturn(ctx, companyID, year, month, ledger.VatReturnSubmitted, ledger.VatReturnApproved,
		`approved_by = ?, approved_at = ?`, userID)
}

// ListVatDocuments returns the period's purchase or sales journal rows in
// (vat_date, document_number) order. docType selects the journal: "01" for
// sales invoices, "03" for purchase invoices.
func (s *Store) ListVatDocuments(ctx context.Context, companyID int64, year, month int, docType string) ([]ledger.VatDocumentSummary, error) {
	if err := ledger.ValidateVatPeriod(year, month); err != nil {
		return nil, err
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := s.reader.QueryContext(ctx,
		`SELECT je.document_number, je.document_date, je.vat_document_type, je.description,
			COALESCE(cp.name, ''), COALESCE(cp.vat_number, ''),
			je.total_amount, je.total_vat_amount
		 FROM journal_entries je
		 LEFT JOIN (
			SELECT DISTINCT el.journal_entry_id, c.name, c.vat_number
			FROM entry_lines el
			JOIN counterparts c ON c.id = el.counterpart_id
		 ) cp ON cp.journal_entry_id = je.id
		 WHERE je.company_id = ? AND je.is_posted = 1 AND je.vat_document_type = ?
			AND je.vat_date >= ? AND je.vat_date < ?
		 ORDER BY je.vat_date, je.document_number`,
		companyID, docType, dateStr(start), dateStr(end))
	if err != nil {
		return nil, fmt.Errorf("list vat documents: %w", err)
	}
	defer rows.Close()

	var out []ledger.VatDocumentSummary
	for rows.Next() {
		var d ledger.VatDocumentSummary
		var docDate, total, vat string
		if err := rows.Scan(&d.DocumentNumber, &docDate, &d.DocumentType, &d.Description,
			&d.CounterpartName, &d.CounterpartVat, &total, &vat); err != nil {
			return nil, fmt.Errorf("scan vat document: %w", err)
		}
		d.DocumentDate = parseDate(docDate)
		d.VatAmount = mustDec(vat)
		d.NetAmount = mustDec(total).Sub(d.VatAmount)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) transitionReturn(ctx context.Context, companyID int64, year, month int, from, to, setClause string, userID int64) (*ledger.VatReturn, error) {
	var out *ledger.VatReturn
	err := s.inWriteTx(ctx, func(tx *sql.Tx) error {
		r, err := getReturnForUpdate(ctx, tx, companyID, year, month)
		if err != nil {
			return err
		}
		if r == nil {
			return ledger.ErrVatReturnNotFound
		}
		if r.Status != from {
			return fmt.Errorf("%w: VAT return %s is %s, expected %s", ledger.ErrState, r.PeriodLabel(), r.Status, from)
		}

		now := time.Now().UTC()
		_, err = tx.ExecContext(ctx,
			`UPDATE vat_returns SET status = ?, `+setClause+`, updated_at = ? WHERE id = ?`,
			to, userID, timeStr(now), timeStr(now), r.ID)
		if err != nil {
			return fmt.Errorf("transition vat return: %w", err)
		}

		r, err = getReturnForUpdate(ctx, tx, companyID, year, month)
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}
