package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/money"
	"github.com/tallyhq/tally/internal/storage"
)

var (
	alice = models.UserMember("alice")
	bob   = models.UserMember("bob")
	carol = models.FriendMember("carol")
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedGroup(t *testing.T, store *SQLiteStore) *models.Group {
	t.Helper()
	group := &models.Group{
		Name:         "flat",
		Members:      []models.MemberID{alice, bob, carol},
		BaseCurrency: "USD",
	}
	require.NoError(t, store.CreateGroup(context.Background(), group))
	return group
}

func usd(t *testing.T, amount string) money.Money {
	t.Helper()
	return money.MustNew(decimal.RequireFromString(amount), "USD")
}

func delta(member models.MemberID, amount string) storage.BalanceDelta {
	return storage.BalanceDelta{
		Member:   member,
		Delta:    decimal.RequireFromString(amount),
		Currency: "USD",
	}
}

func seedExpense(t *testing.T, store *SQLiteStore, groupID string) *models.Expense {
	t.Helper()
	expense := &models.Expense{
		GroupID:      groupID,
		PaidBy:       alice,
		Amount:       usd(t, "100.00"),
		Category:     "groceries",
		Date:         time.Now(),
		SplitType:    models.SplitEqual,
		Participants: []models.MemberID{alice, bob},
		Split: []models.ShareLine{
			{Member: alice, Amount: usd(t, "50.00")},
			{Member: bob, Amount: usd(t, "50.00")},
		},
		ConvertedAmount: usd(t, "100.00"),
		FXRate:          decimal.NewFromInt(1),
	}
	deltas := []storage.BalanceDelta{
		delta(alice, "50.00"),
		delta(bob, "-50.00"),
	}
	require.NoError(t, store.CreateExpense(context.Background(), expense, deltas))
	return expense
}

func TestGroupLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := seedGroup(t, store)
	assert.NotEmpty(t, group.ID)
	assert.NotZero(t, group.CreatedAt)

	got, err := store.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, group.Name, got.Name)
	assert.Equal(t, "USD", got.BaseCurrency)
	assert.Len(t, got.Members, 3)

	groups, err := store.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	_, err = store.GetGroup(ctx, "missing")
	var notFound *errs.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestAddGroupMembersSkipsExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store)

	dave := models.UserMember("dave")
	require.NoError(t, store.AddGroupMembers(ctx, group.ID, []models.MemberID{alice, dave}))

	got, err := store.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 4)

	var notFound *errs.NotFoundError
	err = store.AddGroupMembers(ctx, "missing", []models.MemberID{dave})
	assert.ErrorAs(t, err, &notFound)
}

func TestExpenseRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store)

	pct := decimal.RequireFromString("50")
	weight := int64(2)
	expense := &models.Expense{
		GroupID:      group.ID,
		PaidBy:       alice,
		Amount:       usd(t, "100.00"),
		Date:         time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		SplitType:    models.SplitPercentage,
		Participants: []models.MemberID{alice, bob},
		Split: []models.ShareLine{
			{Member: alice, Amount: usd(t, "50.00"), Percentage: &pct},
			{Member: bob, Amount: usd(t, "50.00"), Shares: &weight},
		},
		ConvertedAmount: usd(t, "100.00"),
		FXRate:          decimal.NewFromInt(1),
	}
	deltas := []storage.BalanceDelta{delta(alice, "50.00"), delta(bob, "-50.00")}
	require.NoError(t, store.CreateExpense(ctx, expense, deltas))
	assert.True(t, expense.IsActive)

	got, err := store.GetExpense(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.GroupID, got.GroupID)
	assert.Equal(t, alice, got.PaidBy)
	assert.True(t, got.Amount.Equal(usd(t, "100.00")))
	assert.Equal(t, models.SplitPercentage, got.SplitType)
	assert.True(t, got.IsActive)

	// Share lines come back in insertion order with their policy inputs.
	require.Len(t, got.Split, 2)
	assert.Equal(t, alice, got.Split[0].Member)
	require.NotNil(t, got.Split[0].Percentage)
	assert.True(t, got.Split[0].Percentage.Equal(pct))
	require.NotNil(t, got.Split[1].Shares)
	assert.Equal(t, weight, *got.Split[1].Shares)
	assert.Equal(t, []models.MemberID{alice, bob}, got.Participants)

	_, err = store.GetExpense(ctx, "missing")
	var notFound *errs.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDeactivateExpense(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store)
	expense := seedExpense(t, store, group.ID)

	reversal := []storage.BalanceDelta{delta(alice, "-50.00"), delta(bob, "50.00")}
	require.NoError(t, store.DeactivateExpense(ctx, expense.ID, reversal))

	got, err := store.GetExpense(ctx, expense.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// Second deactivation must not double-apply the reversal.
	err = store.DeactivateExpense(ctx, expense.ID, reversal)
	var invalidState *errs.InvalidStateError
	assert.ErrorAs(t, err, &invalidState)

	balances, err := store.GetBalances(ctx, group.ID)
	require.NoError(t, err)
	for _, b := range balances {
		assert.True(t, b.Amount.IsZero(), "balance for %v = %s after reversal", b.Member, b.Amount)
	}
}

func TestBalancesMaterializeLazily(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store)

	// No rows until a write references a member.
	balances, err := store.GetBalances(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, balances)

	seedExpense(t, store, group.ID)

	balances, err = store.GetBalances(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, balances, 2)

	// Sorted by member ID.
	assert.Equal(t, alice, balances[0].Member)
	assert.True(t, balances[0].Amount.Equal(decimal.RequireFromString("50.00")))
	assert.Equal(t, bob, balances[1].Member)
	assert.True(t, balances[1].Amount.Equal(decimal.RequireFromString("-50.00")))
}

func TestSettlementLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store)
	seedExpense(t, store, group.ID)

	settlement := &models.Settlement{
		GroupID: group.ID,
		From:    bob,
		To:      alice,
		Amount:  usd(t, "50.00"),
		Note:    "venmo",
	}
	require.NoError(t, store.CreateSettlement(ctx, settlement))
	assert.Equal(t, models.SettlementPending, settlement.Status)

	got, err := store.GetSettlement(ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, bob, got.From)
	assert.Equal(t, alice, got.To)
	assert.Equal(t, "venmo", got.Note)
	assert.Zero(t, got.CompletedAt)

	completedAt := time.Now().Unix()
	deltas := []storage.BalanceDelta{delta(bob, "50.00"), delta(alice, "-50.00")}
	require.NoError(t, store.CompleteSettlement(ctx, settlement.ID, deltas, completedAt))

	got, err = store.GetSettlement(ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementCompleted, got.Status)
	assert.Equal(t, completedAt, got.CompletedAt)

	balances, err := store.GetBalances(ctx, group.ID)
	require.NoError(t, err)
	for _, b := range balances {
		assert.True(t, b.Amount.IsZero(), "balance for %v = %s after settling", b.Member, b.Amount)
	}

	// Completing again must fail without touching balances.
	err = store.CompleteSettlement(ctx, settlement.ID, deltas, completedAt)
	var invalidState *errs.InvalidStateError
	assert.ErrorAs(t, err, &invalidState)

	var notFound *errs.NotFoundError
	err = store.CompleteSettlement(ctx, "missing", deltas, completedAt)
	assert.ErrorAs(t, err, &notFound)
}

func TestCancelSettlement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store)

	settlement := &models.Settlement{
		GroupID: group.ID,
		From:    bob,
		To:      alice,
		Amount:  usd(t, "10.00"),
	}
	require.NoError(t, store.CreateSettlement(ctx, settlement))
	require.NoError(t, store.CancelSettlement(ctx, settlement.ID))

	got, err := store.GetSettlement(ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementCancelled, got.Status)

	// Cancelled settlements never produced balance rows.
	balances, err := store.GetBalances(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, balances)

	var invalidState *errs.InvalidStateError
	assert.ErrorAs(t, store.CancelSettlement(ctx, settlement.ID), &invalidState)

	var notFound *errs.NotFoundError
	assert.ErrorAs(t, store.CancelSettlement(ctx, "missing"), &notFound)
}

func TestListSettlementsByGroup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store)

	for i, amount := range []string{"10.00", "20.00"} {
		s := &models.Settlement{
			GroupID:   group.ID,
			From:      bob,
			To:        alice,
			Amount:    usd(t, amount),
			CreatedAt: int64(1000 + i),
		}
		require.NoError(t, store.CreateSettlement(ctx, s))
	}

	settlements, err := store.ListSettlementsByGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, settlements, 2)
	// Newest first.
	assert.True(t, settlements[0].Amount.Equal(usd(t, "20.00")))
	assert.True(t, settlements[1].Amount.Equal(usd(t, "10.00")))
}
