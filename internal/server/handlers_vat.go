package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vankov/bgledger/internal/export"
	"github.com/vankov/bgledger/internal/ledger"
)

func (s *Server) listVatReturns(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathInt64(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	returns, err := s.store.ListVatReturns(r.Context(), companyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if returns == nil {
		returns = []ledger.VatReturn{}
	}
	writeJSON(w, http.StatusOK, returns)
}

func vatPeriodParams(r *http.Request) (companyID int64, year, month int, err error) {
	if companyID, err = pathInt64(r, "companyID"); err != nil {
		return
	}
	if year, err = pathInt(r, "year"); err != nil {
		return
	}
	month, err = pathInt(r, "month")
	return
}

func (s *Server) getVatReturn(w http.ResponseWriter, r *http.Request) {
	companyID, year, month, err := vatPeriodParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ret, err := s.store.GetVatReturn(r.Context(), companyID, year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) recomputeVatReturn(w http.ResponseWriter, r *http.Request) {
	companyID, year, month, err := vatPeriodParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ret, err := s.store.RecomputeVatReturn(r.Context(), companyID, year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) submitVatReturn(w http.ResponseWriter, r *http.Request) {
	companyID, year, month, err := vatPeriodParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	uid, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ret, err := s.store.SubmitVatReturn(r.Context(), uid, companyID, year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) approveVatReturn(w http.ResponseWriter, r *http.Request) {
	companyID, year, month, err := vatPeriodParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	uid, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ret, err := s.store.ApproveVatReturn(r.Context(), uid, companyID, year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ret)
}

type decimalRequest struct {
	Value decimal.Decimal `json:"value"`
}

func (s *Server) setVatCoefficient(w http.ResponseWriter, r *http.Request) {
	companyID, year, month, err := vatPeriodParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req decimalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.SetVatCoefficient(r.Context(), companyID, year, month, req.Value); err != nil {
		writeDomainError(w, err)
		return
	}
	ret, err := s.store.GetVatReturn(r.Context(), companyID, year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) setAnnualAdjustment(w http.ResponseWriter, r *http.Request) {
	companyID, year, month, err := vatPeriodParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req decimalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.SetAnnualAdjustment(r.Context(), companyID, year, month, req.Value); err != nil {
		writeDomainError(w, err)
		return
	}
	ret, err := s.store.GetVatReturn(r.Context(), companyID, year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) exportVatFile(w http.ResponseWriter, r *http.Request) {
	companyID, year, month, err := vatPeriodParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	company, err := s.store.GetCompany(r.Context(), companyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	ret, err := s.store.GetVatReturn(r.Context(), companyID, year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sales, err := s.store.ListVatDocuments(r.Context(), companyID, year, month, ledger.DocTypeSalesInvoice)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	purchases, err := s.store.ListVatDocuments(r.Context(), companyID, year, month, ledger.DocTypePurchaseInvoice)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	files, err := export.BuildFiles(company, ret, sales, purchases)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var body []byte
	var name string
	switch chi.URLParam(r, "file") {
	case "deklar":
		body, name = files.Deklar, "DEKLAR.TXT"
	case "pokupki":
		body, name = files.Pokupki, "POKUPKI.TXT"
	case "prodagbi":
		body, name = files.Prodagbi, "PRODAGBI.TXT"
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown export file"))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=windows-1251")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
