package server

import (
	"encoding/json"
	"net/http"

	"github.com/vankov/bgledger/internal/ledger"
)

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cfg, err := s.store.GetAccountingSettings(r.Context(), companyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var cfg ledger.AccountingSettings
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cfg.CompanyID = companyID
	if err := s.store.UpdateAccountingSettings(r.Context(), &cfg); err != nil {
		writeDomainError(w, err)
		return
	}
	updated, err := s.store.GetAccountingSettings(r.Context(), companyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
