package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vankov/bgledger/internal/ledger"
)

func (s *Server) listBalances(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	balances, err := s.store.ListBalances(r.Context(), companyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if balances == nil {
		balances = []ledger.InventoryBalance{}
	}
	writeJSON(w, http.StatusOK, balances)
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	accountID, err := pathInt64(r, "accountID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := s.store.GetBalance(r.Context(), companyID, accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) listMovements(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	accountID, err := pathInt64(r, "accountID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	movements, err := s.store.ListMovements(r.Context(), companyID, accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if movements == nil {
		movements = []ledger.InventoryMovement{}
	}
	writeJSON(w, http.StatusOK, movements)
}

func (s *Server) averageCost(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	accountID, err := pathInt64(r, "accountID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	asOf := time.Now().UTC()
	if v := r.URL.Query().Get("as_of"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		asOf = d
	}
	avg, err := s.store.AverageCost(r.Context(), companyID, accountID, asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"average_cost": avg.String()})
}

func (s *Server) recomputeBalance(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	accountID, err := pathInt64(r, "accountID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := s.store.RecomputeBalance(r.Context(), companyID, accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) listCorrections(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	accountID, err := pathInt64(r, "accountID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	corrections, err := s.store.ListCorrections(r.Context(), companyID, accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if corrections == nil {
		corrections = []ledger.AverageCostCorrection{}
	}
	writeJSON(w, http.StatusOK, corrections)
}

func (s *Server) planCorrections(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	accountID, err := pathInt64(r, "accountID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	plan, err := s.store.PlanRetroactiveCorrections(r.Context(), companyID, accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if plan == nil {
		plan = []ledger.CorrectionNeeded{}
	}
	writeJSON(w, http.StatusOK, plan)
}

type applyCorrectionsRequest struct {
	TriggeringMovementID int64                     `json:"triggering_movement_id"`
	AccountingDate       string                    `json:"accounting_date"`
	Corrections          []ledger.CorrectionNeeded `json:"corrections"`
}

func (s *Server) applyCorrections(w http.ResponseWriter, r *http.Request) {
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
	var req applyCorrectionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	accountingDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.AccountingDate != "" {
		accountingDate, err = time.Parse("2006-01-02", req.AccountingDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	entry, err := s.store.ApplyCorrections(r.Context(), uid, companyID, req.TriggeringMovementID, req.Corrections, accountingDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) turnoverReport(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	q := r.URL.Query()
	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rows, err := s.store.Turnover(r.Context(), companyID, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if rows == nil {
		rows = []ledger.InventoryTurnoverRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}
