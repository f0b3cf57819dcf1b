package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/errs"
)

// RateProvider supplies FX rates to the expense path. The engine never
// fetches rates itself; the hosting application decides where they come
// from (an HTTP rate API, a cached table, a fixture).
type RateProvider interface {
	// Rate returns the factor that converts one unit of the quote
	// currency into the base currency.
	Rate(ctx context.Context, base, quote string) (decimal.Decimal, error)
}

// StaticRates is a fixed rate table keyed by "<quote>/<base>". Identity
// pairs resolve to 1 without an entry. Useful for tests and single-currency
// deployments.
type StaticRates map[string]decimal.Decimal

var _ RateProvider = StaticRates{}

// Rate implements RateProvider.
func (r StaticRates) Rate(_ context.Context, base, quote string) (decimal.Decimal, error) {
	if base == quote {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := r[quote+"/"+base]
	if !ok {
		return decimal.Decimal{}, &errs.InvalidRateError{Msg: "no rate for " + quote + "/" + base}
	}
	return rate, nil
}
