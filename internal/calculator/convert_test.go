package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/money"
)

func TestNormalize(t *testing.T) {
	fifty := money.MustNew(decimal.RequireFromString("50.00"), "EUR")

	got, err := Normalize(fifty, decimal.RequireFromString("1.10"), "USD")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if got.Currency() != "USD" {
		t.Errorf("currency = %s, want USD", got.Currency())
	}
	if !got.Amount().Equal(decimal.RequireFromString("55.00")) {
		t.Errorf("amount = %s, want 55.00", got.Amount())
	}
}

func TestNormalizeIdentity(t *testing.T) {
	ten := money.MustNew(decimal.RequireFromString("10.00"), "USD")

	got, err := Normalize(ten, decimal.NewFromInt(1), "USD")
	if err != nil {
		t.Fatalf("identity Normalize failed: %v", err)
	}
	if !got.Equal(ten) {
		t.Errorf("identity conversion = %s, want %s", got, ten)
	}

	// A non-1 rate for a same-currency conversion means the caller
	// fetched the wrong pair.
	_, err = Normalize(ten, decimal.RequireFromString("1.10"), "USD")
	var rateErr *errs.InvalidRateError
	if !errors.As(err, &rateErr) {
		t.Errorf("same-currency rate 1.10: error = %v, want InvalidRateError", err)
	}
}

func TestNormalizeRejectsBadRates(t *testing.T) {
	fifty := money.MustNew(decimal.RequireFromString("50.00"), "EUR")

	for _, rate := range []string{"0", "-1.10"} {
		_, err := Normalize(fifty, decimal.RequireFromString(rate), "USD")
		var rateErr *errs.InvalidRateError
		if !errors.As(err, &rateErr) {
			t.Errorf("rate %s: error = %v, want InvalidRateError", rate, err)
		}
	}
}

func TestNormalizeRejectsUnknownBaseCurrency(t *testing.T) {
	fifty := money.MustNew(decimal.RequireFromString("50.00"), "EUR")
	_, err := Normalize(fifty, decimal.NewFromInt(1), "BOGUS")
	var validation *errs.ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}
