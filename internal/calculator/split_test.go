package calculator

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/money"
)

func usd(t *testing.T, amount string) money.Money {
	t.Helper()
	return money.MustNew(decimal.RequireFromString(amount), "USD")
}

func pct(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func weight(n int64) *int64 { return &n }

func amt(t *testing.T, s string) *money.Money {
	t.Helper()
	m := usd(t, s)
	return &m
}

var (
	alice = models.UserMember("alice")
	bob   = models.UserMember("bob")
	carol = models.FriendMember("carol")
)

func TestComputeSplit(t *testing.T) {
	tests := []struct {
		name         string
		amount       string
		splitType    models.SplitType
		inputs       func(t *testing.T) []ShareInput
		wantErr      bool
		wantAmounts  []string
		validateFunc func(t *testing.T, lines []models.ShareLine)
	}{
		{
			name:      "equal three ways assigns remainder to first",
			amount:    "100.00",
			splitType: models.SplitEqual,
			inputs: func(t *testing.T) []ShareInput {
				return []ShareInput{{Member: alice}, {Member: bob}, {Member: carol}}
			},
			wantAmounts: []string{"33.34", "33.33", "33.33"},
		},
		{
			name:      "equal two ways splits evenly",
			amount:    "50.00",
			splitType: models.SplitEqual,
			inputs: func(t *testing.T) []ShareInput {
				return []ShareInput{{Member: alice}, {Member: bob}}
			},
			wantAmounts: []string{"25.00", "25.00"},
		},
		{
			name:      "equal single participant takes everything",
			amount:    "19.99",
			splitType: models.SplitEqual,
			inputs: func(t *testing.T) []ShareInput {
				return []ShareInput{{Member: alice}}
			},
			wantAmounts: []string{"19.99"},
		},
		{
			name:      "percentage split",
			amount:    "100.00",
			splitType: models.SplitPercentage,
			inputs: func(t *testing.T) []ShareInput {
				return []ShareInput{
					{Member: alice, Percentage: pct("50")},
					{Member: bob, Percentage: pct("30")},
					{Member: carol, Percentage: pct("20")},
				}
			},
			wantAmounts: []string{"50.00", "30.00", "20.00"},
			validateFunc: func(t *testing.T, lines []models.ShareLine) {
				if lines[0].Percentage == nil || !lines[0].Percentage.Equal(decimal.RequireFromString("50")) {
					t.Errorf("first line percentage = %v, want 50", lines[0].Percentage)
				}
			},
		},
		{
			name:      "percentage within half-point tolerance reconciles exactly",
			amount:    "100.00",
			splitType: models.SplitPercentage,
			inputs: func(t *testing.T) []ShareInput {
				return []ShareInput{
					{Member: alice, Percentage: pct("49.9")},
					{Member: bob, Percentage: pct("49.9")},
				}
			},
			// 49.90 + 49.90 rounds short of the total; the first line
			// absorbs the difference.
			wantAmounts: []string{"50.10", "49.90"},
		},
		{
			name:      "percentage summing to 99 fails",
			amount:    "100.00",
			splitType: models.SplitPercentage,
			inputs: func(t *testing.T) []ShareInput {
				return []ShareInput{
					{Member: alice, Percentage: pct("50")},
					{Member: bob, Percentage: pct("49")},
				}
			},
			wantErr: true,
		},
		{
			name:      "percentage missing for one participant fails",
			amount:    "100.00",
			splitType: models.SplitPercentage,
			inputs: func(t *testing.T) []ShareInput {
				return []ShareInput{
					{Member: alice, Percentage: pct("100")},
					{Member: bob},
				}
			},
			wantErr: true,
		},
		{
			name:      "shares split by weight",
			amount:    "100.00",
			splitType: models.SplitShares,
			inputs: func(t *testing.T) []ShareInput {
				return []ShareInput{
					{Member: alice, Shares: weight(1)},
					{Member: bob, Shares: weight(2)},
					{Member: carol, Shares: weight(3)},
				}
			},
			wantAmounts: []string{"16.67", "33.33", "50.00"},
		},
		{
			name:      "shares with zero weight fails",
			amount:    "100.00",
			splitType: models.SplitShares,
			inputs: func(t *testing.T) []ShareInput {
				return []ShareInput{
					{Member: alice, Shares: weight(0)},
					{Member: bob, Shares: weight(2)},
				}
			},
			wantErr: true,
		},
		{
			name:      "custom amounts within tolerance pass unchanged",
			amount:    "100.00",
			splitType: models.SplitCustom,
			inputs: func(t *testing.T) []ShareInput {
				return []ShareInput{
					{Member: alice, Amount: amt(t, "40.00")},
					{Member: bob, Amount: amt(t, "60.01")},
				}
			},
			wantAmounts: []string{"40.00", "60.01"},
		},
		{
			name:      "custom amounts beyond tolerance fail",
			amount:    "100.00",
			splitType: models.SplitCustom,
			inputs: func(t *testing.T) []ShareInput {
				return []ShareInput{
					{Member: alice, Amount: amt(t, "40.00")},
					{Member: bob, Amount: amt(t, "60.02")},
				}
			},
			wantErr: true,
		},
		{
			name:      "duplicate participant fails",
			amount:    "100.00",
			splitType: models.SplitEqual,
			inputs: func(t *testing.T) []ShareInput {
				return []ShareInput{{Member: alice}, {Member: alice}}
			},
			wantErr: true,
		},
		{
			name:      "no participants fails",
			amount:    "100.00",
			splitType: models.SplitEqual,
			inputs:    func(t *testing.T) []ShareInput { return nil },
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := ComputeSplit(usd(t, tt.amount), tt.splitType, tt.inputs(t))
			if tt.wantErr {
				if err == nil {
					t.Fatal("ComputeSplit should fail")
				}
				var validation *errs.ValidationError
				if !errors.As(err, &validation) {
					t.Errorf("error = %T, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeSplit failed: %v", err)
			}

			if len(lines) != len(tt.wantAmounts) {
				t.Fatalf("got %d lines, want %d", len(lines), len(tt.wantAmounts))
			}
			for i, want := range tt.wantAmounts {
				if got := lines[i].Amount.Amount(); !got.Equal(decimal.RequireFromString(want)) {
					t.Errorf("line %d amount = %s, want %s", i, got, want)
				}
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, lines)
			}
		})
	}
}

// TestSplitReconciliation checks the post-condition across pseudo-random
// inputs: for every mode that redistributes rounding, the share amounts sum
// exactly to the rounded total.
func TestSplitReconciliation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(8)
		total := money.MustNew(decimal.NewFromInt(int64(rng.Intn(100000))).Div(decimal.NewFromInt(100)), "USD")

		inputs := make([]ShareInput, n)
		for i := range inputs {
			w := int64(1 + rng.Intn(9))
			inputs[i] = ShareInput{Member: models.UserMember(string(rune('a' + i))), Shares: &w}
		}

		for _, splitType := range []models.SplitType{models.SplitEqual, models.SplitShares} {
			lines, err := ComputeSplit(total, splitType, inputs)
			if err != nil {
				t.Fatalf("trial %d %s: ComputeSplit failed: %v", trial, splitType, err)
			}
			sum := money.Zero("USD")
			for _, line := range lines {
				sum = sum.Add(line.Amount)
			}
			if !sum.Equal(total.Round()) {
				t.Fatalf("trial %d %s: shares sum to %s, want %s", trial, splitType, sum, total)
			}
			if err := VerifySplit(lines, total); err != nil {
				t.Fatalf("trial %d %s: VerifySplit failed: %v", trial, splitType, err)
			}
		}
	}
}
