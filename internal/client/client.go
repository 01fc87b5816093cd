// Package client is a thin HTTP client for the bgledger API, used by the
// CLI and the TUI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vankov/bgledger/internal/ledger"
)

type Client struct {
	baseURL    string
	userID     int64
	httpClient *http.Client
}

// New returns a client that acts as the given user. The user id is sent
// on every request as the X-User-ID header.
func New(baseURL string, userID int64) *Client {
	return &Client{
		baseURL: baseURL,
		userID:  userID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type CompanyRequest struct {
	Name      string `json:"name"`
	Eik       string `json:"eik"`
	VatNumber string `json:"vat_number,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`

	NumberingPolicy       string `json:"numbering_policy,omitempty"`
	NegativeStockPolicy   string `json:"negative_stock_policy,omitempty"`
	SubmittedPeriodPolicy string `json:"submitted_period_policy,omitempty"`
}

func (c *Client) CreateCompany(ctx context.Context, req *CompanyRequest) (*ledger.Company, error) {
	var result ledger.Company
	if err := c.post(ctx, "/api/v1/companies", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListCompanies(ctx context.Context) ([]ledger.Company, error) {
	var result []ledger.Company
	if err := c.get(ctx, "/api/v1/companies", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetCompany(ctx context.Context, companyID int64) (*ledger.Company, error) {
	var result ledger.Company
	if err := c.get(ctx, companyPath(companyID, ""), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CreateCounterpart(ctx context.Context, companyID int64, cp *ledger.Counterpart) (*ledger.Counterpart, error) {
	var result ledger.Counterpart
	if err := c.post(ctx, companyPath(companyID, "/counterparts"), cp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListCounterparts(ctx context.Context, companyID int64) ([]ledger.Counterpart, error) {
	var result []ledger.Counterpart
	if err := c.get(ctx, companyPath(companyID, "/counterparts"), &result); err != nil {
		return nil, err
	}
	return result, nil
}

type PeriodWindowRequest struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Active bool   `json:"active"`
}

type UserRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	CanPostEntries bool   `json:"can_post_entries"`

	DocumentPeriod   PeriodWindowRequest `json:"document_period"`
	AccountingPeriod PeriodWindowRequest `json:"accounting_period"`
	VatPeriod        PeriodWindowRequest `json:"vat_period"`
}

func (c *Client) CreateUser(ctx context.Context, req *UserRequest) (*ledger.User, error) {
	var result ledger.User
	if err := c.post(ctx, "/api/v1/users", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetUser(ctx context.Context, id int64) (*ledger.User, error) {
	var result ledger.User
	if err := c.get(ctx, "/api/v1/users/"+strconv.FormatInt(id, 10), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdateUserPeriods(ctx context.Context, id int64, doc, acc, vat PeriodWindowRequest) (*ledger.User, error) {
	body := map[string]PeriodWindowRequest{
		"document_period":   doc,
		"accounting_period": acc,
		"vat_period":        vat,
	}
	var result ledger.User
	if err := c.put(ctx, "/api/v1/users/"+strconv.FormatInt(id, 10)+"/periods", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type AccountRequest struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	ParentCode string `json:"parent_code,omitempty"`

	IsAnalytical       bool   `json:"is_analytical,omitempty"`
	SupportsQuantities bool   `json:"supports_quantities,omitempty"`
	DefaultUnit        string `json:"default_unit,omitempty"`
	IsVatApplicable    bool   `json:"is_vat_applicable,omitempty"`
	VatDirection       string `json:"vat_direction,omitempty"`
}

func (c *Client) CreateAccount(ctx context.Context, companyID int64, req *AccountRequest) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.post(ctx, companyPath(companyID, "/accounts"), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListAccounts(ctx context.Context, companyID int64, class, accountType string, leavesOnly bool) ([]ledger.Account, error) {
	params := url.Values{}
	if class != "" {
		params.Set("class", class)
	}
	if accountType != "" {
		params.Set("type", accountType)
	}
	if leavesOnly {
		params.Set("leaves", "true")
	}
	var result []ledger.Account
	if err := c.get(ctx, companyPath(companyID, "/accounts?"+params.Encode()), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetAccount(ctx context.Context, companyID int64, code string) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.get(ctx, companyPath(companyID, "/accounts/"+url.PathEscape(code)), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) SetAccountActive(ctx context.Context, companyID int64, code string, active bool) (*ledger.Account, error) {
	var result ledger.Account
	body := map[string]bool{"active": active}
	if err := c.put(ctx, companyPath(companyID, "/accounts/"+url.PathEscape(code)+"/active"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type EntryLineRequest struct {
	AccountCode   string           `json:"account_code,omitempty"`
	AccountID     int64            `json:"account_id,omitempty"`
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

type EntryRequest struct {
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

	Lines []EntryLineRequest `json:"lines"`
}

func (c *Client) CreateEntry(ctx context.Context, companyID int64, req *EntryRequest) (*ledger.EntryWithLines, error) {
	var result ledger.EntryWithLines
	if err := c.post(ctx, companyPath(companyID, "/entries"), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListEntries(ctx context.Context, companyID int64, posted *bool, from, to string) ([]ledger.EntryWithLines, error) {
	params := url.Values{}
	if posted != nil {
		params.Set("posted", strconv.FormatBool(*posted))
	}
	if from != "" {
		params.Set("from", from)
	}
	if to != "" {
		params.Set("to", to)
	}
	var result []ledger.EntryWithLines
	if err := c.get(ctx, companyPath(companyID, "/entries?"+params.Encode()), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetEntry(ctx context.Context, entryID string) (*ledger.EntryWithLines, error) {
	var result ledger.EntryWithLines
	if err := c.get(ctx, "/api/v1/entries/"+entryID, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteEntry(ctx context.Context, entryID string) error {
	return c.del(ctx, "/api/v1/entries/"+entryID)
}

func (c *Client) PostEntry(ctx context.Context, entryID string) (*ledger.EntryWithLines, error) {
	var result ledger.EntryWithLines
	if err := c.post(ctx, "/api/v1/entries/"+entryID+"/post", struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ReverseEntry(ctx context.Context, entryID, reversalDate, reason string) (*ledger.EntryWithLines, error) {
	body := map[string]string{"reversal_date": reversalDate, "reason": reason}
	var result ledger.EntryWithLines
	if err := c.post(ctx, "/api/v1/entries/"+entryID+"/reverse", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListBalances(ctx context.Context, companyID int64) ([]ledger.InventoryBalance, error) {
	var result []ledger.InventoryBalance
	if err := c.get(ctx, companyPath(companyID, "/inventory/balances"), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ListMovements(ctx context.Context, companyID, accountID int64) ([]ledger.InventoryMovement, error) {
	var result []ledger.InventoryMovement
	if err := c.get(ctx, inventoryPath(companyID, accountID, "/movements"), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) AverageCost(ctx context.Context, companyID, accountID int64, asOf string) (decimal.Decimal, error) {
	path := inventoryPath(companyID, accountID, "/average-cost")
	if asOf != "" {
		path += "?as_of=" + url.QueryEscape(asOf)
	}
	var result struct {
		AverageCost decimal.Decimal `json:"average_cost"`
	}
	if err := c.get(ctx, path, &result); err != nil {
		return decimal.Zero, err
	}
	return result.AverageCost, nil
}

func (c *Client) PlanCorrections(ctx context.Context, companyID, accountID int64) ([]ledger.CorrectionNeeded, error) {
	var result []ledger.CorrectionNeeded
	if err := c.get(ctx, inventoryPath(companyID, accountID, "/corrections/plan"), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ApplyCorrections(ctx context.Context, companyID, accountID, triggeringMovementID int64, corrections []ledger.CorrectionNeeded, accountingDate string) (*ledger.JournalEntry, error) {
	body := map[string]any{
		"triggering_movement_id": triggeringMovementID,
		"accounting_date":        accountingDate,
		"corrections":            corrections,
	}
	var result ledger.JournalEntry
	if err := c.post(ctx, inventoryPath(companyID, accountID, "/corrections/apply"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) TurnoverReport(ctx context.Context, companyID int64, from, to string) ([]ledger.InventoryTurnoverRow, error) {
	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)
	var result []ledger.InventoryTurnoverRow
	if err := c.get(ctx, companyPath(companyID, "/reports/turnover?"+params.Encode()), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ListVatReturns(ctx context.Context, companyID int64) ([]ledger.VatReturn, error) {
	var result []ledger.VatReturn
	if err := c.get(ctx, companyPath(companyID, "/vat-returns"), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetVatReturn(ctx context.Context, companyID int64, year, month int) (*ledger.VatReturn, error) {
	var result ledger.VatReturn
	if err := c.get(ctx, vatPath(companyID, year, month, ""), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) RecomputeVatReturn(ctx context.Context, companyID int64, year, month int) (*ledger.VatReturn, error) {
	var result ledger.VatReturn
	if err := c.post(ctx, vatPath(companyID, year, month, "/recompute"), struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) SubmitVatReturn(ctx context.Context, companyID int64, year, month int) (*ledger.VatReturn, error) {
	var result ledger.VatReturn
	if err := c.post(ctx, vatPath(companyID, year, month, "/submit"), struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ApproveVatReturn(ctx context.Context, companyID int64, year, month int) (*ledger.VatReturn, error) {
	var result ledger.VatReturn
	if err := c.post(ctx, vatPath(companyID, year, month, "/approve"), struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExportVatFile downloads one of the NRA export files. Name is one of
// deklar, pokupki or prodagbi; the bytes are Windows-1251 encoded.
func (c *Client) ExportVatFile(ctx context.Context, companyID int64, year, month int, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+vatPath(companyID, year, month, "/export/"+name), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) GetSettings(ctx context.Context, companyID int64) (*ledger.AccountingSettings, error) {
	var result ledger.AccountingSettings
	if err := c.get(ctx, companyPath(companyID, "/settings"), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdateSettings(ctx context.Context, companyID int64, cfg *ledger.AccountingSettings) (*ledger.AccountingSettings, error) {
	var result ledger.AccountingSettings
	if err := c.put(ctx, companyPath(companyID, "/settings"), cfg, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/companies", nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func companyPath(companyID int64, suffix string) string {
	return "/api/v1/companies/" + strconv.FormatInt(companyID, 10) + suffix
}

func inventoryPath(companyID, accountID int64, suffix string) string {
	return companyPath(companyID, "/inventory/"+strconv.FormatInt(accountID, 10)+suffix)
}

func vatPath(companyID int64, year, month int, suffix string) string {
	return companyPath(companyID, fmt.Sprintf("/vat-returns/%d/%d%s", year, month, suffix))
}

func (c *Client) setHeaders(req *http.Request) {
	if c.userID != 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(c.userID, 10))
	}
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doRequest(req, result)
}

func (c *Client) del(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doRequest(req, nil)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.send(ctx, "POST", path, body, result)
}

func (c *Client) put(ctx context.Context, path string, body any, result any) error {
	return c.send(ctx, "PUT", path, body, result)
}

func (c *Client) send(ctx context.Context, method, path string, body any, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doRequest(req, result)
}

type apiError struct {
	Error      string             `json:"error"`
	Violations []ledger.Violation `json:"violations,omitempty"`
}

func statusError(status int, body []byte) error {
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		if len(apiErr.Violations) > 0 {
			msg := apiErr.Error
			for _, v := range apiErr.Violations {
				msg += "\n  " + v.Message
			}
			return fmt.Errorf("server error (%d): %s", status, msg)
		}
		return fmt.Errorf("server error (%d): %s", status, apiErr.Error)
	}
	return fmt.Errorf("server error (%d): %s", status, string(body))
}

func (c *Client) doRequest(req *http.Request, result any) error {
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return statusError(resp.StatusCode, bodyBytes)
	}

	if result != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
