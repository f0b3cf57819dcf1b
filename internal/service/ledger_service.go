// Package service exposes the ledger engine's operations to the hosting
// application: adding expenses, reading balances, suggesting and recording
// settlements. It validates input at the boundary, delegates the arithmetic
// to internal/calculator, and the balance bookkeeping to internal/ledger.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/calculator"
	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/money"
	"github.com/tallyhq/tally/internal/storage"
)

// LedgerService is the engine's front door for expenses, balances, and
// settlements within a group.
type LedgerService struct {
	store  storage.Store
	ledger *ledger.Ledger
	rates  RateProvider
}

// NewLedgerService creates a LedgerService over the given store and rate
// source.
func NewLedgerService(store storage.Store, rates RateProvider) *LedgerService {
	return &LedgerService{
		store:  store,
		ledger: ledger.New(store),
		rates:  rates,
	}
}

// ShareSpec is one participant's entry in an expense request. Exactly the
// field the split type needs is set: Percentage for percentage splits,
// Shares for weighted splits, Amount (in base currency) for custom splits.
type ShareSpec struct {
	MemberID   string           `json:"member_id"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	Shares     *int64           `json:"shares,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
}

// AddExpenseInput is the request to record a new expense.
type AddExpenseInput struct {
	GroupID      string           `json:"-"`
	PaidBy       string           `json:"paid_by"`
	Amount       decimal.Decimal  `json:"amount"`
	Currency     string           `json:"currency"`
	Category     string           `json:"category,omitempty"`
	Date         time.Time        `json:"date,omitzero"`
	SplitType    models.SplitType `json:"split_type"`
	Participants []ShareSpec      `json:"participants"`

	// FXRate overrides the rate provider when set. Required to be 1 for
	// same-currency expenses.
	FXRate *decimal.Decimal `json:"fx_rate,omitempty"`
}

// AddExpense validates, converts, splits, and applies a new expense.
//
// The split is re-verified against the converted amount as a hard gate: an
// expense whose shares do not reconcile is never persisted. Participants
// (and the payer) not yet in the group are appended to it, and their
// balances materialize lazily.
func (s *LedgerService) AddExpense(ctx context.Context, in AddExpenseInput) (*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}

	payer, err := models.ParseMemberID(in.PaidBy)
	if err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, errs.Validationf("expense amount must be positive")
	}
	native, err := money.New(in.Amount.Round(2), in.Currency)
	if err != nil {
		return nil, errs.Validationf("bad expense currency: %v", err)
	}
	if !in.SplitType.Valid() {
		return nil, errs.Validationf("unknown split type %q", in.SplitType)
	}

	rate, err := s.resolveRate(ctx, in.FXRate, group.BaseCurrency, native.Currency())
	if err != nil {
		return nil, err
	}
	converted, err := calculator.Normalize(native, rate, group.BaseCurrency)
	if err != nil {
		return nil, err
	}

	inputs := make([]calculator.ShareInput, len(in.Participants))
	for i, spec := range in.Participants {
		member, err := models.ParseMemberID(spec.MemberID)
		if err != nil {
			return nil, err
		}
		inputs[i] = calculator.ShareInput{
			Member:     member,
			Percentage: spec.Percentage,
			Shares:     spec.Shares,
		}
		if spec.Amount != nil {
			amount, err := money.New(*spec.Amount, group.BaseCurrency)
			if err != nil {
				return nil, errs.Validationf("bad custom amount: %v", err)
			}
			inputs[i].Amount = &amount
		}
	}

	lines, err := calculator.ComputeSplit(converted, in.SplitType, inputs)
	if err != nil {
		return nil, err
	}
	// Hard gate: never persist an expense whose split does not reconcile.
	if err := calculator.VerifySplit(lines, converted); err != nil {
		return nil, err
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	participants := make([]models.MemberID, len(inputs))
	for i, input := range inputs {
		participants[i] = input.Member
	}

	expense := &models.Expense{
		GroupID:         group.ID,
		PaidBy:          payer,
		Amount:          native,
		Category:        in.Category,
		Date:            date,
		SplitType:       in.SplitType,
		Participants:    participants,
		Split:           lines,
		ConvertedAmount: converted,
		FXRate:          rate,
		IsActive:        true,
	}

	s.autoAddParticipants(ctx, group, participants, payer)

	if err := s.ledger.ApplyExpense(ctx, expense); err != nil {
		slog.Error("AddExpense failed", "group_id", group.ID, "error", err)
		return nil, err
	}

	slog.Info("Expense recorded",
		"group_id", group.ID,
		"expense_id", expense.ID,
		"amount", native.String(),
		"converted", converted.String(),
		"split_type", in.SplitType,
		"participants_count", len(participants),
	)
	return expense, nil
}

// GetExpense retrieves an expense by ID.
func (s *LedgerService) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	return s.store.GetExpense(ctx, expenseID)
}

// ListExpenses retrieves a group's expenses, newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.ListExpensesByGroup(ctx, groupID)
}

// ReverseExpense undoes an active expense's ledger effect and marks it
// inactive. Reversing an already-reversed expense fails with
// InvalidStateError.
func (s *LedgerService) ReverseExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if !expense.IsActive {
		return nil, errs.InvalidStatef("expense %s is already reversed", expenseID)
	}
	if err := s.ledger.ReverseExpense(ctx, expense); err != nil {
		slog.Error("ReverseExpense failed", "expense_id", expenseID, "error", err)
		return nil, err
	}
	expense.IsActive = false
	slog.Info("Expense reversed", "group_id", expense.GroupID, "expense_id", expenseID)
	return expense, nil
}

// GetBalances returns the group's balances, one row per member ever
// referenced, zero balances included, sorted by member ID.
func (s *LedgerService) GetBalances(ctx context.Context, groupID string) ([]models.Balance, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.ledger.Balances(ctx, groupID)
}

// SuggestSettlements proposes payments that would bring every balance in
// the group within epsilon of zero. Nothing is recorded; pair the result
// with CreateSettlement + CompleteSettlement to act on it.
func (s *LedgerService) SuggestSettlements(ctx context.Context, groupID string) ([]calculator.SuggestedPayment, error) {
	balances, err := s.GetBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	payments := calculator.SuggestSettlements(balances)
	slog.Info("Settlements suggested", "group_id", groupID, "payments_count", len(payments))
	return payments, nil
}

// CreateSettlementInput is the request to record an intended payment.
type CreateSettlementInput struct {
	GroupID  string          `json:"-"`
	From     string          `json:"from_member_id"`
	To       string          `json:"to_member_id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Note     string          `json:"note,omitempty"`
}

// CreateSettlement records a pending settlement. Pending settlements have
// no ledger effect: balances move only when the payment completes.
func (s *LedgerService) CreateSettlement(ctx context.Context, in CreateSettlementInput) (*models.Settlement, error) {
	group, err := s.store.GetGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}
	from, err := models.ParseMemberID(in.From)
	if err != nil {
		return nil, err
	}
	to, err := models.ParseMemberID(in.To)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, errs.Validationf("settlement payer and payee must differ")
	}
	if !in.Amount.IsPositive() {
		return nil, errs.Validationf("settlement amount must be positive")
	}
	if in.Currency != group.BaseCurrency {
		return nil, errs.Validationf("settlement currency %s does not match group base currency %s",
			in.Currency, group.BaseCurrency)
	}
	amount, err := money.New(in.Amount.Round(2), in.Currency)
	if err != nil {
		return nil, errs.Validationf("bad settlement currency: %v", err)
	}

	settlement := &models.Settlement{
		GroupID: group.ID,
		From:    from,
		To:      to,
		Amount:  amount,
		Note:    in.Note,
		Status:  models.SettlementPending,
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.Error("CreateSettlement failed", "group_id", group.ID, "error", err)
		return nil, err
	}

	slog.Info("Settlement created",
		"group_id", group.ID,
		"settlement_id", settlement.ID,
		"from", from,
		"to", to,
		"amount", amount.String(),
	)
	return settlement, nil
}

// CompleteSettlement applies a pending settlement to the ledger and marks
// it completed. The balance effect and the status flip commit together, so
// a second completion fails with InvalidStateError instead of silently
// double-applying.
func (s *LedgerService) CompleteSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	settlement, err := s.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if settlement.Status != models.SettlementPending {
		return nil, errs.InvalidStatef("settlement %s is %s, want pending", settlementID, settlement.Status)
	}

	completedAt := time.Now().Unix()
	if err := s.ledger.CompleteSettlement(ctx, settlement, completedAt); err != nil {
		slog.Error("CompleteSettlement failed", "settlement_id", settlementID, "error", err)
		return nil, err
	}

	settlement.Status = models.SettlementCompleted
	settlement.CompletedAt = completedAt
	slog.Info("Settlement completed", "group_id", settlement.GroupID, "settlement_id", settlementID)
	return settlement, nil
}

// CancelSettlement voids a pending settlement. No ledger effect.
func (s *LedgerService) CancelSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	if err := s.store.CancelSettlement(ctx, settlementID); err != nil {
		return nil, err
	}
	slog.Info("Settlement cancelled", "settlement_id", settlementID)
	return s.store.GetSettlement(ctx, settlementID)
}

// ListSettlements retrieves a group's settlements, newest first.
func (s *LedgerService) ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.ListSettlementsByGroup(ctx, groupID)
}

// resolveRate picks the FX rate for an expense: the caller's explicit rate
// when given, identity for same-currency, otherwise the rate provider.
func (s *LedgerService) resolveRate(ctx context.Context, override *decimal.Decimal, base, quote string) (decimal.Decimal, error) {
	if override != nil {
		return *override, nil
	}
	if base == quote {
		return decimal.NewFromInt(1), nil
	}
	if s.rates == nil {
		return decimal.Decimal{}, &errs.InvalidRateError{Msg: "no rate source configured for " + quote + "/" + base}
	}
	return s.rates.Rate(ctx, base, quote)
}

// autoAddParticipants appends expense participants (and the payer) that are
// not yet group members. Failure here is logged, not fatal: the ledger
// tolerates members appearing before the group record catches up.
func (s *LedgerService) autoAddParticipants(ctx context.Context, group *models.Group, participants []models.MemberID, payer models.MemberID) {
	all := make([]models.MemberID, 0, len(participants)+1)
	all = append(all, participants...)
	all = append(all, payer)

	var missing []models.MemberID
	seen := make(map[models.MemberID]bool, len(all))
	for _, member := range all {
		if !seen[member] && !group.HasMember(member) {
			seen[member] = true
			missing = append(missing, member)
		}
	}
	if len(missing) == 0 {
		return
	}

	if err := s.store.AddGroupMembers(ctx, group.ID, missing); err != nil {
		slog.Warn("autoAddParticipants: failed to add members", "group_id", group.ID, "error", err)
		return
	}
	group.Members = append(group.Members, missing...)
	slog.Info("Auto-added participants to group", "group_id", group.ID, "members_count", len(missing))
}
