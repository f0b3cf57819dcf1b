package models

import "github.com/shopspring/decimal"

// Balance is the running signed balance for one member of one group, in the
// group's base currency. Positive means others owe this member; negative
// means this member owes others.
//
// Rows are created lazily on first reference and never deleted. Across a
// group, balances sum to zero at every quiescent point: each credit to a
// payer is matched by an equal total of debits to participants.
type Balance struct {
	GroupID  string          `json:"group_id"`
	Member   MemberID        `json:"member_id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Settled reports whether the balance is within epsilon of zero.
func (b Balance) Settled() bool {
	return b.Amount.Abs().LessThanOrEqual(decimal.New(1, -2))
}
