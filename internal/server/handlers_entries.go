package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vankov/bgledger/internal/ledger"
	"github.com/vankov/bgledger/internal/store"
)

type entryLineRequest struct {
	AccountCode   string           `json:"account_code"`
	AccountID     int64            `json:"account_id"`
	DebitAmount   decimal.Decimal  `json:"debit_amount"`
	CreditAmount  decimal.Decimal  `json:"credit_amount"`
	CounterpartID *int64           `json:"counterpart_id,omitempty"`
	BaseAmount    decimal.Decimal  `json:"base_amount"`
	VatAmount     decimal.Decimal  `json:"vat_amount"`
	VatRate       *decimal.Decimal `json:"vat_rate,omitempty"`
	Quantity      *decimal.Decimal `json:"quantity,omitempty"`
	Unit          string           `json:"unit,omitempty"`
	Description   string           `json:"description,omitempty"`
}

type entryRequest struct {
	DocumentDate   string `json:"document_date"`
	VatDate        string `json:"vat_date,omitempty"`
	AccountingDate string `json:"accounting_date"`
	DocumentNumber string `json:"document_number,omitempty"`
	Description    string `json:"description"`

	VatDocumentType        string `json:"vat_document_type,omitempty"`
	VatPurchaseOperation   string `json:"vat_purchase_operation,omitempty"`
	VatSalesOperation      string `json:"vat_sales_operation,omitempty"`
	VatAdditionalOperation string `json:"vat_additional_operation,omitempty"`
	VatAdditionalData      string `json:"vat_additional_data,omitempty"`

	Lines []entryLineRequest `json:"lines"`
}

func (s *Server) entryFromRequest(r *http.Request, companyID int64, req *entryRequest) (*ledger.EntryWithLines, error) {
	docDate, err := time.Parse("2006-01-02", req.DocumentDate)
	if err != nil {
		return nil, err
	}
	accDate, err := time.Parse("2006-01-02", req.AccountingDate)
	if err != nil {
		return nil, err
	}
	var vatDate *time.Time
	if req.VatDate != "" {
		d, err := time.Parse("2006-01-02", req.VatDate)
		if err != nil {
			return nil, err
		}
		vatDate = &d
	}

	e := &ledger.EntryWithLines{
		JournalEntry: ledger.JournalEntry{
			CompanyID:              companyID,
			DocumentDate:           docDate,
			VatDate:                vatDate,
			AccountingDate:         accDate,
			DocumentNumber:         req.DocumentNumber,
			Description:            req.Description,
			VatDocumentType:        req.VatDocumentType,
			VatPurchaseOperation:   req.VatPurchaseOperation,
			VatSalesOperation:      req.VatSalesOperation,
			VatAdditionalOperation: req.VatAdditionalOperation,
			VatAdditionalData:      req.VatAdditionalData,
		},
	}
	for i, l := range req.Lines {
		accountID := l.AccountID
		if accountID == 0 && l.AccountCode != "" {
			acct, err := s.store.GetAccountByCode(r.Context(), companyID, l.AccountCode)
			if err != nil {
				return nil, err
			}
			accountID = acct.ID
		}
		e.Lines = append(e.Lines, ledger.EntryLine{
			AccountID:     accountID,
			DebitAmount:   l.DebitAmount,
			CreditAmount:  l.CreditAmount,
			CounterpartID: l.CounterpartID,
			BaseAmount:    l.BaseAmount,
			VatAmount:     l.VatAmount,
			VatRate:       l.VatRate,
			Quantity:      l.Quantity,
			Unit:          l.Unit,
			Description:   l.Description,
			LineOrder:     i + 1,
		})
	}
	return e, nil
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	uid, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	e, err := s.entryFromRequest(r, companyID, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.CreateEntry(r.Context(), uid, e); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	filter := store.EntryFilter{}
	q := r.URL.Query()
	if v := q.Get("posted"); v != "" {
		posted := v == "true"
		filter.Posted = &posted
	}
	if v := q.Get("from"); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			filter.FromDate = &d
		}
	}
	if v := q.Get("to"); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			filter.ToDate = &d
		}
	}

	entries, err := s.store.ListEntries(r.Context(), companyID, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []ledger.EntryWithLines{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var patch ledger.EntryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.store.UpdateEntry(r.Context(), uid, id, patch); err != nil {
		writeDomainError(w, err)
		return
	}
	e, err := s.store.GetEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postEntry(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, err := s.store.PostEntry(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type reverseRequest struct {
	ReversalDate string `json:"reversal_date"`
	Reason       string `json:"reason,omitempty"`
}

func (s *Server) reverseEntry(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req reverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	date, err := time.Parse("2006-01-02", req.ReversalDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rev, err := s.store.ReverseEntry(r.Context(), uid, chi.URLParam(r, "id"), date, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}
