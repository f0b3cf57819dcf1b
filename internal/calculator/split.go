// Package calculator holds the pure computation at the heart of the ledger:
// splitting an expense into per-member shares, normalizing native-currency
// amounts into the group's base currency, and proposing settlements that
// zero out a set of balances. Nothing in this package mutates state.
package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/money"
)

// percentTolerance is how far off 100 a percentage split may sum.
var percentTolerance = decimal.New(5, -1) // 0.5

var hundred = decimal.NewFromInt(100)

// ShareInput is one participant's entry into a split, with the policy value
// the split type requires: Percentage for percentage splits, Shares for
// weighted splits, Amount for custom splits. Equal splits need none.
type ShareInput struct {
	Member     models.MemberID
	Percentage *decimal.Decimal
	Shares     *int64
	Amount     *money.Money
}

// ComputeSplit divides a base-currency amount among participants according
// to the split type. Every mode guarantees the returned share amounts sum
// exactly to the (two-place rounded) total: per-line rounding residue is
// assigned to the first participant in input order.
func ComputeSplit(amount money.Money, splitType models.SplitType, inputs []ShareInput) ([]models.ShareLine, error) {
	if len(inputs) == 0 {
		return nil, errs.Validationf("split requires at least one participant")
	}
	if !splitType.Valid() {
		return nil, errs.Validationf("unknown split type %q", splitType)
	}
	if amount.IsNegative() {
		return nil, errs.Validationf("split amount must not be negative")
	}
	seen := make(map[models.MemberID]bool, len(inputs))
	for _, in := range inputs {
		if in.Member.IsZero() {
			return nil, errs.Validationf("split participant has empty member id")
		}
		if seen[in.Member] {
			return nil, errs.Validationf("duplicate participant %s", in.Member)
		}
		seen[in.Member] = true
	}

	total := amount.Round()
	switch splitType {
	case models.SplitEqual:
		return splitEqual(total, inputs), nil
	case models.SplitPercentage:
		return splitPercentage(total, inputs)
	case models.SplitShares:
		return splitShares(total, inputs)
	default:
		return splitCustom(total, inputs)
	}
}

// splitEqual gives every participant total/n; the penny remainder goes to
// the first participant so the lines always reconcile exactly.
func splitEqual(total money.Money, inputs []ShareInput) []models.ShareLine {
	n := decimal.NewFromInt(int64(len(inputs)))
	share := total.Div(n).Round()

	lines := make([]models.ShareLine, len(inputs))
	for i, in := range inputs {
		lines[i] = models.ShareLine{Member: in.Member, Amount: share}
	}
	assignRemainder(lines, total)
	return lines
}

// splitPercentage divides the total by caller-supplied percentages, which
// must sum to 100 within 0.5.
func splitPercentage(total money.Money, inputs []ShareInput) ([]models.ShareLine, error) {
	sum := decimal.Zero
	for _, in := range inputs {
		if in.Percentage == nil {
			return nil, errs.Validationf("percentage split: participant %s has no percentage", in.Member)
		}
		if in.Percentage.IsNegative() || in.Percentage.GreaterThan(hundred) {
			return nil, errs.Validationf("percentage split: participant %s has percentage %s outside [0, 100]", in.Member, in.Percentage)
		}
		sum = sum.Add(*in.Percentage)
	}
	if sum.Sub(hundred).Abs().GreaterThan(percentTolerance) {
		return nil, errs.Validationf("percentage split: percentages sum to %s, want 100 ± 0.5", sum)
	}

	lines := make([]models.ShareLine, len(inputs))
	for i, in := range inputs {
		pct := *in.Percentage
		lines[i] = models.ShareLine{
			Member:     in.Member,
			Amount:     total.Mul(pct).Div(hundred).Round(),
			Percentage: &pct,
		}
	}
	assignRemainder(lines, total)
	return lines, nil
}

// splitShares divides the total by integer weights. Every weight must be
// positive.
func splitShares(total money.Money, inputs []ShareInput) ([]models.ShareLine, error) {
	var sum int64
	for _, in := range inputs {
		if in.Shares == nil {
			return nil, errs.Validationf("shares split: participant %s has no share count", in.Member)
		}
		if *in.Shares <= 0 {
			return nil, errs.Validationf("shares split: participant %s has non-positive share count %d", in.Member, *in.Shares)
		}
		sum += *in.Shares
	}
	if sum == 0 {
		return nil, errs.Validationf("shares split: total share count is zero")
	}

	sumDec := decimal.NewFromInt(sum)
	lines := make([]models.ShareLine, len(inputs))
	for i, in := range inputs {
		shares := *in.Shares
		lines[i] = models.ShareLine{
			Member: in.Member,
			Amount: total.Mul(decimal.NewFromInt(shares)).Div(sumDec).Round(),
			Shares: &shares,
		}
	}
	assignRemainder(lines, total)
	return lines, nil
}

// splitCustom takes caller-supplied amounts verbatim and only verifies they
// reconcile with the total within epsilon. No remainder is redistributed:
// the caller chose every line.
func splitCustom(total money.Money, inputs []ShareInput) ([]models.ShareLine, error) {
	sum := money.Zero(total.Currency())
	lines := make([]models.ShareLine, len(inputs))
	for i, in := range inputs {
		if in.Amount == nil {
			return nil, errs.Validationf("custom split: participant %s has no amount", in.Member)
		}
		if in.Amount.Currency() != total.Currency() {
			return nil, errs.Validationf("custom split: participant %s amount is in %s, want %s",
				in.Member, in.Amount.Currency(), total.Currency())
		}
		line := in.Amount.Round()
		lines[i] = models.ShareLine{Member: in.Member, Amount: line}
		sum = sum.Add(line)
	}
	if !sum.WithinEpsilon(total) {
		return nil, errs.Validationf("custom split: amounts sum to %s, want %s", sum, total)
	}
	return lines, nil
}

// assignRemainder adds whatever the rounded lines are short (or over) to
// the first line, making the sum exact.
func assignRemainder(lines []models.ShareLine, total money.Money) {
	sum := money.Zero(total.Currency())
	for _, line := range lines {
		sum = sum.Add(line.Amount)
	}
	remainder := total.Sub(sum)
	if !remainder.IsZero() {
		lines[0].Amount = lines[0].Amount.Add(remainder)
	}
}

// VerifySplit re-checks the reconciliation post-condition: the share
// amounts must sum to the expense's base amount within epsilon. Expense
// creation uses this as a hard gate before anything is persisted.
func VerifySplit(lines []models.ShareLine, amount money.Money) error {
	sum := money.Zero(amount.Currency())
	for _, line := range lines {
		sum = sum.Add(line.Amount)
	}
	if !sum.WithinEpsilon(amount) {
		return errs.Validationf("split does not reconcile: shares sum to %s, expense is %s", sum, amount)
	}
	return nil
}
