package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/money"
)

// Normalize converts a native-currency amount into the group's base
// currency using the supplied native→base rate. The engine never fetches
// rates; the caller supplies one from its rate source.
//
// A same-currency amount must come with the identity rate: the engine does
// not silently re-derive it, a non-1 rate for an identity conversion means
// the caller fetched the wrong pair.
func Normalize(native money.Money, rate decimal.Decimal, baseCurrency string) (money.Money, error) {
	if !money.ValidCurrency(baseCurrency) {
		return money.Money{}, errs.Validationf("unknown base currency %q", baseCurrency)
	}
	if rate.Sign() <= 0 {
		return money.Money{}, &errs.InvalidRateError{Rate: rate.String(), Msg: "fx rate must be positive"}
	}
	if native.Currency() == baseCurrency && !rate.Equal(decimal.NewFromInt(1)) {
		return money.Money{}, &errs.InvalidRateError{Rate: rate.String(), Msg: "same-currency conversion requires rate 1"}
	}
	return money.MustNew(native.Amount().Mul(rate).Round(2), baseCurrency), nil
}
