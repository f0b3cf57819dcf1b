// Package ledger maintains the per-member signed balances of a group.
//
// Every operation is a set of additive deltas applied atomically through
// the store: participants are debited their shares and the payer is
// credited the full converted amount in one transaction, so a half-applied
// expense is never observable. Because each application is a pure additive
// delta, the final state of a group is invariant to the order historical
// expenses are applied in.
package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// defaultMaxAttempts bounds retries on balance write conflicts before the
// conflict surfaces to the caller.
const defaultMaxAttempts = 3

// Ledger applies expense and settlement effects to balance rows.
type Ledger struct {
	store       storage.Store
	maxAttempts int
}

// New creates a Ledger over the given store.
func New(store storage.Store) *Ledger {
	return &Ledger{store: store, maxAttempts: defaultMaxAttempts}
}

// ExpenseDeltas computes the balance adjustments an expense implies: each
// participant is debited their share, the payer is credited the full
// converted amount. A payer who is also a participant gets one coalesced
// delta. The deltas sum to zero, which is what keeps the group-sum-zero
// invariant intact.
func ExpenseDeltas(expense *models.Expense) []storage.BalanceDelta {
	currency := expense.ConvertedAmount.Currency()

	order := make([]models.MemberID, 0, len(expense.Split)+1)
	totals := make(map[models.MemberID]storage.BalanceDelta, len(expense.Split)+1)

	add := func(member models.MemberID, delta storage.BalanceDelta) {
		if existing, ok := totals[member]; ok {
			existing.Delta = existing.Delta.Add(delta.Delta)
			totals[member] = existing
			return
		}
		order = append(order, member)
		totals[member] = delta
	}

	for _, line := range expense.Split {
		add(line.Member, storage.BalanceDelta{
			Member:   line.Member,
			Delta:    line.Amount.Amount().Neg(),
			Currency: currency,
		})
	}
	add(expense.PaidBy, storage.BalanceDelta{
		Member:   expense.PaidBy,
		Delta:    expense.ConvertedAmount.Amount(),
		Currency: currency,
	})

	deltas := make([]storage.BalanceDelta, 0, len(order))
	for _, member := range order {
		deltas = append(deltas, totals[member])
	}
	return deltas
}

// ReversalDeltas negates an expense's deltas, undoing its ledger effect.
func ReversalDeltas(expense *models.Expense) []storage.BalanceDelta {
	deltas := ExpenseDeltas(expense)
	for i := range deltas {
		deltas[i].Delta = deltas[i].Delta.Neg()
	}
	return deltas
}

// SettlementDeltas computes the effect of a completed settlement: the
// payer's debt shrinks, the payee's credit shrinks. This is the mirror
// image of an expense and also sums to zero.
func SettlementDeltas(settlement *models.Settlement) []storage.BalanceDelta {
	currency := settlement.Amount.Currency()
	return []storage.BalanceDelta{
		{Member: settlement.From, Delta: settlement.Amount.Amount(), Currency: currency},
		{Member: settlement.To, Delta: settlement.Amount.Amount().Neg(), Currency: currency},
	}
}

// ApplyExpense persists the expense and its balance effect as one atomic
// unit, retrying on write conflicts.
func (l *Ledger) ApplyExpense(ctx context.Context, expense *models.Expense) error {
	deltas := ExpenseDeltas(expense)
	return l.withRetry(ctx, expense.GroupID, func() error {
		return l.store.CreateExpense(ctx, expense, deltas)
	})
}

// ReverseExpense deactivates the expense and undoes its balance effect as
// one atomic unit, retrying on write conflicts.
func (l *Ledger) ReverseExpense(ctx context.Context, expense *models.Expense) error {
	deltas := ReversalDeltas(expense)
	return l.withRetry(ctx, expense.GroupID, func() error {
		return l.store.DeactivateExpense(ctx, expense.ID, deltas)
	})
}

// CompleteSettlement flips the settlement to completed and applies its
// balance effect as one atomic unit, retrying on write conflicts.
func (l *Ledger) CompleteSettlement(ctx context.Context, settlement *models.Settlement, completedAt int64) error {
	deltas := SettlementDeltas(settlement)
	return l.withRetry(ctx, settlement.GroupID, func() error {
		return l.store.CompleteSettlement(ctx, settlement.ID, deltas, completedAt)
	})
}

// Balances returns every balance row ever materialized for the group, zero
// balances included, sorted by member ID.
func (l *Ledger) Balances(ctx context.Context, groupID string) ([]models.Balance, error) {
	return l.store.GetBalances(ctx, groupID)
}

// withRetry runs op, retrying up to maxAttempts times when it fails with a
// ConflictError. Any other error, and a conflict that survives the last
// attempt, is returned as-is.
func (l *Ledger) withRetry(ctx context.Context, groupID string, op func() error) error {
	var err error
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		err = op()
		var conflict *errs.ConflictError
		if !errors.As(err, &conflict) {
			return err
		}
		if attempt < l.maxAttempts {
			slog.Warn("balance write conflict, retrying",
				"group_id", groupID,
				"attempt", attempt,
			)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}
