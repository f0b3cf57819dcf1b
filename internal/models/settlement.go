package models

import "github.com/tallyhq/tally/internal/money"

// SettlementStatus is the state of a settlement.
//
// State machine: a settlement is created pending and transitions to exactly
// one of completed (ledger updated) or cancelled (no ledger effect). Both
// are terminal.
type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "pending"
	SettlementCompleted SettlementStatus = "completed"
	SettlementCancelled SettlementStatus = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s SettlementStatus) Terminal() bool {
	return s == SettlementCompleted || s == SettlementCancelled
}

// Settlement represents a payment between group members to clear debt.
//
// A pending settlement has no ledger effect: recording the intent to pay
// must not distort balances before money actually moves. The ledger is
// touched exactly once, when the settlement completes.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string `json:"id"`

	// GroupID is the group this settlement belongs to.
	GroupID string `json:"group_id"`

	// From is the member who pays (debtor settling up).
	From MemberID `json:"from_member_id"`

	// To is the member who receives (creditor being paid).
	To MemberID `json:"to_member_id"`

	// Amount is the payment amount, in the group's base currency.
	Amount money.Money `json:"amount"`

	// Note is an optional description.
	Note string `json:"note,omitempty"`

	// Status is the settlement state.
	Status SettlementStatus `json:"status"`

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64 `json:"created_at"`

	// CompletedAt is the Unix timestamp when the settlement completed,
	// or 0 while pending or cancelled.
	CompletedAt int64 `json:"completed_at,omitempty"`
}
