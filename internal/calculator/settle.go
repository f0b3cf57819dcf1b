package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/money"
)

// SuggestedPayment is one proposed payment: From pays To.
type SuggestedPayment struct {
	From   models.MemberID `json:"from"`
	To     models.MemberID `json:"to"`
	Amount money.Money     `json:"amount"`
}

// SuggestSettlements proposes payments that, if all executed, bring every
// balance within epsilon of zero.
//
// Greedy two-pointer sweep: creditors sorted by balance descending, debtors
// most negative first, then repeatedly pay min(credit, debt) from the
// largest debtor to the largest creditor, advancing past anyone whose
// remainder falls within epsilon of zero. This emits at most
// min(creditors, debtors) extra payments over the practical minimum of
// max(creditors, debtors) - 1; true minimum-transaction debt simplification
// is NP-hard, and the greedy result is the accepted approximation.
//
// The input is copied, never mutated. Ties sort by member ID, so the output
// is deterministic for a given balance set.
func SuggestSettlements(balances []models.Balance) []SuggestedPayment {
	type party struct {
		member models.MemberID
		amount decimal.Decimal
	}

	currency := ""
	var creditors, debtors []party
	for _, b := range balances {
		if currency == "" {
			currency = b.Currency
		}
		switch {
		case b.Amount.GreaterThan(money.Epsilon):
			creditors = append(creditors, party{member: b.Member, amount: b.Amount})
		case b.Amount.LessThan(money.Epsilon.Neg()):
			debtors = append(debtors, party{member: b.Member, amount: b.Amount.Neg()})
		}
	}

	sort.Slice(creditors, func(i, j int) bool {
		if !creditors[i].amount.Equal(creditors[j].amount) {
			return creditors[i].amount.GreaterThan(creditors[j].amount)
		}
		return creditors[i].member.Less(creditors[j].member)
	})
	sort.Slice(debtors, func(i, j int) bool {
		if !debtors[i].amount.Equal(debtors[j].amount) {
			return debtors[i].amount.GreaterThan(debtors[j].amount)
		}
		return debtors[i].member.Less(debtors[j].member)
	})

	var payments []SuggestedPayment
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].amount, creditors[j].amount)
		if amount.GreaterThan(money.Epsilon) {
			payments = append(payments, SuggestedPayment{
				From:   debtors[i].member,
				To:     creditors[j].member,
				Amount: money.MustNew(amount, currency),
			})
		}

		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)

		if debtors[i].amount.LessThanOrEqual(money.Epsilon) {
			i++
		}
		if creditors[j].amount.LessThanOrEqual(money.Epsilon) {
			j++
		}
	}

	return payments
}
