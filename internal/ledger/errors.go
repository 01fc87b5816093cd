package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Concrete failures wrap one of these so callers can classify
// with errors.Is regardless of where in the engine they originate.
var (
	ErrValidation     = errors.New("validation failed")
	ErrState          = errors.New("illegal state transition")
	ErrPermission     = errors.New("permission denied")
	ErrClassification = errors.New("vat classification failed")
	ErrIntegrity      = errors.New("integrity constraint violated")
	ErrTransient      = errors.New("transient storage error")

	ErrAccountNotFound    = errors.New("account not found")
	ErrEntryNotFound      = errors.New("journal entry not found")
	ErrVatReturnNotFound  = errors.New("vat return not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrCompanyNotFound    = errors.New("company not found")
	ErrDuplicateAccount   = errors.New("account code already exists")
	ErrDuplicateVatReturn = errors.New("vat return already exists for period")
)

// Validation rule identifiers, reported inside a ValidationError.
const (
	RuleMinLines      = "V1"
	RuleBalanced      = "V2"
	RuleLeafAccount   = "V3"
	RuleVatDate       = "V4"
	RuleDatePolicy    = "V5"
	RuleLine          = "V6"
	RuleNegativeStock = "V7"
)

// Violation is a single broken rule. Line is 1-based; 0 means the violation
// concerns the entry header rather than a specific line.
type Violation struct {
	Rule    string `json:"rule"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// ValidationError aggregates every rule broken by a draft entry. The engine
// never partially accepts an entry: one ValidationError rejects the whole
// operation.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		if v.Line > 0 {
			msgs[i] = fmt.Sprintf("%s (line %d): %s", v.Rule, v.Line, v.Message)
		} else {
			msgs[i] = fmt.Sprintf("%s: %s", v.Rule, v.Message)
		}
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Add records a violation and returns the error for chaining.
func (e *ValidationError) Add(rule string, line int, format string, args ...any) *ValidationError {
	e.Violations = append(e.Violations, Violation{Rule: rule, Line: line, Message: fmt.Sprintf(format, args...)})
	return e
}

// OrNil returns nil when no violations were recorded.
func (e *ValidationError) OrNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}
