package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vankov/bgledger/internal/ledger"
)

type errorResponse struct {
	Error      string             `json:"error"`
	Violations []ledger.Violation `json:"violations,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		resp.Violations = verr.Violations
	}
	writeJSON(w, status, resp)
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, mapError(err), err)
}

// mapError translates the engine's error kinds onto HTTP statuses.
func mapError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrEntryNotFound),
		errors.Is(err, ledger.ErrVatReturnNotFound),
		errors.Is(err, ledger.ErrUserNotFound),
		errors.Is(err, ledger.ErrCompanyNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateAccount),
		errors.Is(err, ledger.ErrDuplicateVatReturn),
		errors.Is(err, ledger.ErrIntegrity):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrState):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrClassification):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errBadID = errors.New("invalid numeric parameter")

func pathInt64(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, errBadID
	}
	return v, nil
}

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, errBadID
	}
	return v, nil
}

// userID resolves the acting user from the X-User-ID header.
func userID(r *http.Request) (int64, error) {
	h := r.Header.Get("X-User-ID")
	if h == "" {
		return 0, errors.New("X-User-ID header is required")
	}
	id, err := strconv.ParseInt(h, 10, 64)
	if err != nil {
		return 0, errBadID
	}
	return id, nil
}
