package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/money"
)

// SplitType selects how an expense is divided among its participants.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitPercentage SplitType = "percentage"
	SplitShares     SplitType = "shares"
	SplitCustom     SplitType = "custom"
)

// Valid reports whether t is a known split type.
func (t SplitType) Valid() bool {
	switch t {
	case SplitEqual, SplitPercentage, SplitShares, SplitCustom:
		return true
	}
	return false
}

// ShareLine is one member's computed portion of a split expense, in the
// group's base currency. Percentage and Shares echo the policy input that
// produced the amount, when the split type has one.
type ShareLine struct {
	Member     MemberID         `json:"member_id"`
	Amount     money.Money      `json:"amount"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	Shares     *int64           `json:"shares,omitempty"`
}

// Expense represents a paid amount split across participants.
//
// An expense is immutable after creation. Soft-deactivation (IsActive=false)
// happens only through the reverse operation, which also undoes the
// expense's ledger effect.
//
// Invariant: the share amounts sum exactly to ConvertedAmount.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// GroupID is the group this expense belongs to.
	GroupID string `json:"group_id"`

	// PaidBy is the member who paid the full amount.
	PaidBy MemberID `json:"paid_by"`

	// Amount is the amount paid, in the expense's native currency.
	Amount money.Money `json:"amount"`

	// Category is a free-form label ("groceries", "rent").
	Category string `json:"category,omitempty"`

	// Date is when the expense occurred.
	Date time.Time `json:"date"`

	// SplitType selects the split policy used to produce Split.
	SplitType SplitType `json:"split_type"`

	// Participants are the members sharing this expense, in input order.
	// The penny-rounding remainder of a split goes to the first one.
	Participants []MemberID `json:"participants"`

	// Split holds the per-member share lines in base currency.
	Split []ShareLine `json:"split"`

	// ConvertedAmount is the amount in the group's base currency.
	ConvertedAmount money.Money `json:"converted_amount"`

	// FXRate is the native→base rate the conversion used; 1 when the
	// native currency is the base currency.
	FXRate decimal.Decimal `json:"fx_rate"`

	// IsActive is false once the expense has been reversed.
	IsActive bool `json:"is_active"`

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64 `json:"created_at"`
}
