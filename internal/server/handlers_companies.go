package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vankov/bgledger/internal/ledger"
)

type createCompanyRequest struct {
	Name      string `json:"name"`
	Eik       string `json:"eik"`
	VatNumber string `json:"vat_number"`
	Address   string `json:"address"`
	City      string `json:"city"`

	NumberingPolicy       string `json:"numbering_policy"`
	NegativeStockPolicy   string `json:"negative_stock_policy"`
	SubmittedPeriodPolicy string `json:"submitted_period_policy"`
}

func (s *Server) createCompany(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	c := &ledger.Company{
		Name:                  req.Name,
		Eik:                   req.Eik,
		VatNumber:             req.VatNumber,
		Address:               req.Address,
		City:                  req.City,
		NumberingPolicy:       ledger.NumberingPolicy(req.NumberingPolicy),
		NegativeStockPolicy:   ledger.NegativeStockPolicy(req.NegativeStockPolicy),
		SubmittedPeriodPolicy: ledger.SubmittedPeriodPolicy(req.SubmittedPeriodPolicy),
	}
	if err := s.store.CreateCompany(r.Context(), c); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) listCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.store.ListCompanies(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if companies == nil {
		companies = []ledger.Company{}
	}
	writeJSON(w, http.StatusOK, companies)
}

func (s *Server) getCompany(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := s.store.GetCompany(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type updatePoliciesRequest struct {
	NumberingPolicy       string `json:"numbering_policy"`
	NegativeStockPolicy   string `json:"negative_stock_policy"`
	SubmittedPeriodPolicy string `json:"submitted_period_policy"`
}

func (s *Server) updateCompanyPolicies(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req updatePoliciesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err = s.store.UpdateCompanyPolicies(r.Context(), id,
		ledger.NumberingPolicy(req.NumberingPolicy),
		ledger.NegativeStockPolicy(req.NegativeStockPolicy),
		ledger.SubmittedPeriodPolicy(req.SubmittedPeriodPolicy))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	c, err := s.store.GetCompany(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) createCounterpart(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var cp ledger.Counterpart
	if err := json.NewDecoder(r.Body).Decode(&cp); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cp.CompanyID = companyID
	if err := s.store.CreateCounterpart(r.Context(), &cp); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cp)
}

func (s *Server) listCounterparts(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cps, err := s.store.ListCounterparts(r.Context(), companyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if cps == nil {
		cps = []ledger.Counterpart{}
	}
	writeJSON(w, http.StatusOK, cps)
}

type periodWindowRequest struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Active bool   `json:"active"`
}

func (p periodWindowRequest) window() (ledger.PeriodWindow, error) {
	start, err := time.Parse("2006-01-02", p.Start)
	if err != nil {
		return ledger.PeriodWindow{}, err
	}
	end, err := time.Parse("2006-01-02", p.End)
	if err != nil {
		return ledger.PeriodWindow{}, err
	}
	return ledger.PeriodWindow{Start: start, End: end, Active: p.Active}, nil
}

type createUserRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	CanPostEntries bool   `json:"can_post_entries"`

	DocumentPeriod   periodWindowRequest `json:"document_period"`
	AccountingPeriod periodWindowRequest `json:"accounting_period"`
	VatPeriod        periodWindowRequest `json:"vat_period"`
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	doc, err := req.DocumentPeriod.window()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	acc, err := req.AccountingPeriod.window()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	vat, err := req.VatPeriod.window()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u := &ledger.User{
		Username:         req.Username,
		Email:            req.Email,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		IsActive:         true,
		CanPostEntries:   req.CanPostEntries,
		DocumentPeriod:   doc,
		AccountingPeriod: acc,
		VatPeriod:        vat,
	}
	if err := s.store.CreateUser(r.Context(), u); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type updatePeriodsRequest struct {
	DocumentPeriod   periodWindowRequest `json:"document_period"`
	AccountingPeriod periodWindowRequest `json:"accounting_period"`
	VatPeriod        periodWindowRequest `json:"vat_period"`
}

func (s *Server) updateUserPeriods(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req updatePeriodsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	doc, err := req.DocumentPeriod.window()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	acc, err := req.AccountingPeriod.window()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	vat, err := req.VatPeriod.window()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.UpdateUserPeriods(r.Context(), id, doc, acc, vat); err != nil {
		writeDomainError(w, err)
		return
	}
	u, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
