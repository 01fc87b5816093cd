package ledger

import (
	"fmt"
	"time"
)

// PeriodWindow is one personal input window. An inactive window admits
// nothing.
type PeriodWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Active bool      `json:"active"`
}

// Contains reports whether d falls inside the window, inclusive on both
// ends.
func (w PeriodWindow) Contains(d time.Time) bool {
	return w.Active && !d.Before(w.Start) && !d.After(w.End)
}

// User is an operator with three personal input windows gating the dates an
// entry may carry, plus group-level permissions.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	GroupID   int64  `json:"group_id"`
	IsActive  bool   `json:"is_active"`

	DocumentPeriod   PeriodWindow `json:"document_period"`
	AccountingPeriod PeriodWindow `json:"accounting_period"`
	VatPeriod        PeriodWindow `json:"vat_period"`

	CanPostEntries bool `json:"can_post_entries"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckEntryDates gates a create/update against the user's three windows.
// Failures are permission errors, distinct from validation errors.
func (u *User) CheckEntryDates(documentDate, accountingDate time.Time, vatDate *time.Time) error {
	if !u.IsActive {
		return fmt.Errorf("%w: user %s is inactive", ErrPermission, u.Username)
	}
	if !u.DocumentPeriod.Contains(documentDate) {
		return fmt.Errorf("%w: document_date %s outside the user's document period",
			ErrPermission, documentDate.Format("2006-01-02"))
	}
	if !u.AccountingPeriod.Contains(accountingDate) {
		return fmt.Errorf("%w: accounting_date %s outside the user's accounting period",
			ErrPermission, accountingDate.Format("2006-01-02"))
	}
	if vatDate != nil && !u.VatPeriod.Contains(*vatDate) {
		return fmt.Errorf("%w: vat_date %s outside the user's VAT period",
			ErrPermission, vatDate.Format("2006-01-02"))
	}
	return nil
}

// CheckCanPost gates the post operation itself.
func (u *User) CheckCanPost() error {
	if !u.IsActive {
		return fmt.Errorf("%w: user %s is inactive", ErrPermission, u.Username)
	}
	if !u.CanPostEntries {
		return fmt.Errorf("%w: user %s may not post entries", ErrPermission, u.Username)
	}
	return nil
}
