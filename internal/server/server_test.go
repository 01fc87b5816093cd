package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vankov/bgledger/internal/ledger"
	"github.com/vankov/bgledger/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir()+"/ledger.db", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := New(st, ":0", zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func seedOperator(t *testing.T, st *store.Store) int64 {
	t.Helper()
	window := ledger.PeriodWindow{
		Start:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Active: true,
	}
	u := &ledger.User{
		Username:         "kontir",
		IsActive:         true,
		DocumentPeriod:   window,
		AccountingPeriod: window,
		VatPeriod:        window,
		CanPostEntries:   true,
	}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u.ID
}

func doJSON(t *testing.T, method, url string, userID int64, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-User-ID", fmt.Sprint(userID))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func salesEntryBody() map[string]any {
	return map[string]any{
		"document_date":     "2026-03-10",
		"vat_date":          "2026-03-10",
		"accounting_date":   "2026-03-10",
		"document_number":   "0000000101",
		"description":       "Продажба на стоки",
		"vat_document_type": "01",
		"lines": []map[string]any{
			{"account_code": "411", "debit_amount": "120", "credit_amount": "0", "base_amount": "0", "vat_amount": "0"},
			{"account_code": "701", "debit_amount": "0", "credit_amount": "100", "base_amount": "100", "vat_amount": "20", "vat_rate": "20"},
			{"account_code": "4532", "debit_amount": "0", "credit_amount": "20", "base_amount": "0", "vat_amount": "0"},
		},
	}
}

func TestEntryLifecycleOverHTTP(t *testing.T) {
	ts, st := newTestServer(t)
	uid := seedOperator(t, st)

	resp := doJSON(t, "POST", ts.URL+"/api/v1/companies", uid, map[string]any{
		"name": "Тест ЕООД", "eik": "131234567",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	company := decode[ledger.Company](t, resp)

	base := fmt.Sprintf("%s/api/v1/companies/%d", ts.URL, company.ID)

	resp = doJSON(t, "POST", base+"/entries", uid, salesEntryBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	entry := decode[ledger.EntryWithLines](t, resp)
	assert.False(t, entry.IsPosted)
	assert.Len(t, entry.Lines, 3)

	resp = doJSON(t, "POST", ts.URL+"/api/v1/entries/"+entry.ID+"/post", uid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	posted := decode[ledger.EntryWithLines](t, resp)
	assert.True(t, posted.IsPosted)
	assert.NotEmpty(t, posted.EntryNumber)

	resp = doJSON(t, "GET", base+"/vat-returns/2026/3", 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ret := decode[ledger.VatReturn](t, resp)
	assert.True(t, ret.SalesBase20.Equal(decimal.RequireFromString("100")))
	assert.True(t, ret.SalesVat20.Equal(decimal.RequireFromString("20")))
}

func TestValidationErrorsReturn400WithViolations(t *testing.T) {
	ts, st := newTestServer(t)
	uid := seedOperator(t, st)

	resp := doJSON(t, "POST", ts.URL+"/api/v1/companies", uid, map[string]any{
		"name": "Тест ЕООД", "eik": "131234567",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	company := decode[ledger.Company](t, resp)

	body := salesEntryBody()
	body["lines"] = []map[string]any{
		{"account_code": "411", "debit_amount": "120", "credit_amount": "0", "base_amount": "0", "vat_amount": "0"},
		{"account_code": "701", "debit_amount": "0", "credit_amount": "90", "base_amount": "90", "vat_amount": "20", "vat_rate": "20"},
	}
	resp = doJSON(t, "POST", fmt.Sprintf("%s/api/v1/companies/%d/entries", ts.URL, company.ID), uid, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp struct {
		Error      string             `json:"error"`
		Violations []ledger.Violation `json:"violations"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	resp.Body.Close()
	assert.NotEmpty(t, errResp.Violations)
}

func TestMissingEntryIs404(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := doJSON(t, "GET", ts.URL+"/api/v1/entries/no-such-entry", 0, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestPostWithoutUserHeaderIs400(t *testing.T) {
	ts, st := newTestServer(t)
	uid := seedOperator(t, st)

	resp := doJSON(t, "POST", ts.URL+"/api/v1/companies", uid, map[string]any{
		"name": "Тест ЕООД", "eik": "131234567",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	company := decode[ledger.Company](t, resp)

	resp = doJSON(t, "POST", fmt.Sprintf("%s/api/v1/companies/%d/entries", ts.URL, company.ID), 0, salesEntryBody())
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestExportEndpointServesWindows1251(t *testing.T) {
	ts, st := newTestServer(t)
	uid := seedOperator(t, st)

	resp := doJSON(t, "POST", ts.URL+"/api/v1/companies", uid, map[string]any{
		"name": "Тест ЕООД", "eik": "131234567",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	company := decode[ledger.Company](t, resp)
	base := fmt.Sprintf("%s/api/v1/companies/%d", ts.URL, company.ID)

	resp = doJSON(t, "POST", base+"/entries", uid, salesEntryBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	entry := decode[ledger.EntryWithLines](t, resp)
	resp = doJSON(t, "POST", ts.URL+"/api/v1/entries/"+entry.ID+"/post", uid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, "GET", base+"/vat-returns/2026/3/export/deklar", 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=windows-1251", resp.Header.Get("Content-Type"))
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	body := buf.String()
	assert.Contains(t, body, "00-01:BG131234567\r\n")
	assert.Contains(t, body, "00-03:202603\r\n")
	assert.Contains(t, body, "01-11:100.00\r\n")
	assert.Contains(t, body, "01-21:20.00\r\n")
	// "Тест" in Windows-1251 bytes, not UTF-8.
	assert.Contains(t, body, "\xd2\xe5\xf1\xf2")
}
