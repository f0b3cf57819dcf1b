package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewValidatesCurrency(t *testing.T) {
	if _, err := New(decimal.NewFromInt(10), "USD"); err != nil {
		t.Errorf("New with USD failed: %v", err)
	}
	if _, err := New(decimal.NewFromInt(10), "DOLLARYDOO"); err == nil {
		t.Error("New with bogus currency should fail")
	}
	if _, err := New(decimal.NewFromInt(10), ""); err == nil {
		t.Error("New with empty currency should fail")
	}
}

func TestArithmetic(t *testing.T) {
	a := MustNew(decimal.RequireFromString("10.50"), "USD")
	b := MustNew(decimal.RequireFromString("2.25"), "USD")

	if got := a.Add(b); !got.Amount().Equal(decimal.RequireFromString("12.75")) {
		t.Errorf("Add = %s, want 12.75", got)
	}
	if got := a.Sub(b); !got.Amount().Equal(decimal.RequireFromString("8.25")) {
		t.Errorf("Sub = %s, want 8.25", got)
	}
	if got := a.Neg(); !got.Amount().Equal(decimal.RequireFromString("-10.50")) {
		t.Errorf("Neg = %s, want -10.50", got)
	}
	if got := a.Mul(decimal.RequireFromString("1.10")).Round(); !got.Amount().Equal(decimal.RequireFromString("11.55")) {
		t.Errorf("Mul = %s, want 11.55", got)
	}
}

func TestAddCurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("adding USD to EUR should panic")
		}
	}()
	usd := MustNew(decimal.NewFromInt(1), "USD")
	eur := MustNew(decimal.NewFromInt(1), "EUR")
	_ = usd.Add(eur)
}

func TestZeroIsWeakCurrency(t *testing.T) {
	sum := Zero("")
	sum = sum.Add(MustNew(decimal.NewFromInt(5), "EUR"))
	if sum.Currency() != "EUR" {
		t.Errorf("currency = %q, want EUR", sum.Currency())
	}
}

func TestWithinEpsilon(t *testing.T) {
	a := MustNew(decimal.RequireFromString("100.00"), "USD")
	b := MustNew(decimal.RequireFromString("100.01"), "USD")
	c := MustNew(decimal.RequireFromString("100.02"), "USD")

	if !a.WithinEpsilon(b) {
		t.Error("100.00 and 100.01 should be within epsilon")
	}
	if a.WithinEpsilon(c) {
		t.Error("100.00 and 100.02 should not be within epsilon")
	}
}

func TestRound(t *testing.T) {
	m := MustNew(decimal.RequireFromString("33.333333"), "USD")
	if got := m.Round(); !got.Amount().Equal(decimal.RequireFromString("33.33")) {
		t.Errorf("Round = %s, want 33.33", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	original := MustNew(decimal.RequireFromString("55.00"), "USD")
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Money
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !decoded.Equal(original) {
		t.Errorf("round trip = %s, want %s", decoded, original)
	}

	if err := json.Unmarshal([]byte(`{"amount":"1.00","currency":"NOPE"}`), &decoded); err == nil {
		t.Error("Unmarshal with bogus currency should fail")
	}
}
