package ledger

import (
	"fmt"
	"time"
)

type AccountType string

const (
	TypeAsset     AccountType = "ASSET"
	TypeLiability AccountType = "LIABILITY"
	TypeEquity    AccountType = "EQUITY"
	TypeRevenue   AccountType = "REVENUE"
	TypeExpense   AccountType = "EXPENSE"
)

var AllAccountTypes = []AccountType{TypeAsset, TypeLiability, TypeEquity, TypeRevenue, TypeExpense}

// VatDirection marks which side of the VAT return an account feeds.
type VatDirection string

const (
	VatNone   VatDirection = "NONE"
	VatInput  VatDirection = "INPUT"
	VatOutput VatDirection = "OUTPUT"
	VatBoth   VatDirection = "BOTH"
)

// Account is a node in the Bulgarian two-level chart of accounts. Synthetic
// accounts aggregate; analytical leaves (ParentID set) are the only valid
// posting targets.
type Account struct {
	ID                 int64        `json:"id"`
	CompanyID          int64        `json:"company_id"`
	Code               string       `json:"code"`
	Name               string       `json:"name"`
	Class              int          `json:"class"`
	Type               AccountType  `json:"type"`
	ParentID           *int64       `json:"parent_id,omitempty"`
	IsAnalytical       bool         `json:"is_analytical"`
	IsVatApplicable    bool         `json:"is_vat_applicable"`
	VatDirection       VatDirection `json:"vat_direction"`
	SupportsQuantities bool         `json:"supports_quantities"`
	DefaultUnit        string       `json:"default_unit,omitempty"`
	IsActive           bool         `json:"is_active"`
	CreatedAt          time.Time    `json:"created_at"`
}

// TypeForClass derives the account type from the national chart class.
// Classes 1-2 carry both assets and equity/liabilities in practice, so the
// mapping here is the default applied when a caller does not say otherwise.
func TypeForClass(class int) (AccountType, error) {
	switch class {
	case 1:
		return TypeEquity, nil
	case 2, 3:
		return TypeAsset, nil
	case 4:
		return TypeLiability, nil
	case 5:
		return TypeAsset, nil
	case 6:
		return TypeExpense, nil
	case 7:
		return TypeRevenue, nil
	default:
		return "", fmt.Errorf("%w: account class %d (must be 1-7)", ErrValidation, class)
	}
}

// DefaultSupportsQuantities reports whether a class carries quantities by
// default (materials and production).
func DefaultSupportsQuantities(class int) bool {
	return class == 2 || class == 3
}

// Validate checks account invariants before persisting.
func (a *Account) Validate() error {
	verr := &ValidationError{}
	if a.Code == "" {
		verr.Add(RuleLeafAccount, 0, "account code is required")
	}
	if a.Name == "" {
		verr.Add(RuleLeafAccount, 0, "account name is required")
	}
	if a.Class < 1 || a.Class > 7 {
		verr.Add(RuleLeafAccount, 0, "account class %d out of range 1-7", a.Class)
	}
	validType := false
	for _, t := range AllAccountTypes {
		if a.Type == t {
			validType = true
			break
		}
	}
	if !validType {
		verr.Add(RuleLeafAccount, 0, "unknown account type %q", a.Type)
	}
	if a.IsAnalytical != (a.ParentID != nil) {
		verr.Add(RuleLeafAccount, 0, "is_analytical must follow from the presence of a parent")
	}
	switch a.VatDirection {
	case VatNone, VatInput, VatOutput, VatBoth:
	default:
		verr.Add(RuleLeafAccount, 0, "unknown vat direction %q", a.VatDirection)
	}
	return verr.OrNil()
}

// Postable reports whether an entry line may reference the account.
func (a *Account) Postable() bool {
	return a.IsAnalytical && a.IsActive
}
