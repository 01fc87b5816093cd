package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vankov/bgledger/internal/ledger"
	"github.com/vankov/bgledger/internal/store"
)

type createAccountRequest struct {
	Code               string `json:"code"`
	Name               string `json:"name"`
	ParentCode         string `json:"parent_code"`
	IsAnalytical       bool   `json:"is_analytical"`
	IsVatApplicable    bool   `json:"is_vat_applicable"`
	VatDirection       string `json:"vat_direction"`
	SupportsQuantities bool   `json:"supports_quantities"`
	DefaultUnit        string `json:"default_unit"`
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	acct := &ledger.Account{
		CompanyID:          companyID,
		Code:               req.Code,
		Name:               req.Name,
		IsAnalytical:       req.IsAnalytical,
		IsVatApplicable:    req.IsVatApplicable,
		VatDirection:       ledger.VatDirection(req.VatDirection),
		SupportsQuantities: req.SupportsQuantities,
		DefaultUnit:        req.DefaultUnit,
		IsActive:           true,
	}
	if len(req.Code) > 0 {
		if class, err := strconv.Atoi(req.Code[:1]); err == nil {
			acct.Class = class
			if typ, err := ledger.TypeForClass(class); err == nil {
				acct.Type = typ
			}
		}
	}
	if req.ParentCode != "" {
		parent, err := s.store.GetAccountByCode(r.Context(), companyID, req.ParentCode)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		acct.ParentID = &parent.ID
	}

	if err := s.store.CreateAccount(r.Context(), acct); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	filter := store.AccountFilter{}
	q := r.URL.Query()
	if v := q.Get("class"); v != "" {
		if class, err := strconv.Atoi(v); err == nil {
			filter.Class = class
		}
	}
	if v := q.Get("type"); v != "" {
		filter.Type = ledger.AccountType(v)
	}
	filter.OnlyLeaves = q.Get("leaves") == "true"

	accounts, err := s.store.ListAccounts(r.Context(), companyID, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if accounts == nil {
		accounts = []ledger.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) getAccountByCode(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	acct, err := s.store.GetAccountByCode(r.Context(), companyID, chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (s *Server) setAccountActive(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	acct, err := s.store.GetAccountByCode(r.Context(), companyID, chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.store.SetAccountActive(r.Context(), acct.ID, req.Active); err != nil {
		writeDomainError(w, err)
		return
	}
	acct.IsActive = req.Active
	writeJSON(w, http.StatusOK, acct)
}
