// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/models"
)

// BalanceDelta is one signed adjustment to a member's balance. The deltas
// of a single logical operation (one expense, one settlement completion)
// are always applied together in one transaction.
type BalanceDelta struct {
	Member   models.MemberID
	Delta    decimal.Decimal
	Currency string
}

// Store defines the interface for ledger storage operations. This
// abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Methods that take balance deltas apply them atomically with the rest of
// the write: either everything commits or nothing does. Balance rows carry
// a version that every update checks; a concurrent interleaving surfaces as
// an errs.ConflictError and the caller may retry the whole operation.
type Store interface {
	// CreateGroup persists a new group. ID and CreatedAt are populated
	// by the store if unset.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by ID.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups retrieves all groups.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// AddGroupMembers appends members to a group, skipping any already
	// present.
	AddGroupMembers(ctx context.Context, groupID string, members []models.MemberID) error

	// CreateExpense persists a new expense and applies its balance
	// deltas in the same transaction. ID and CreatedAt are populated by
	// the store if unset.
	CreateExpense(ctx context.Context, expense *models.Expense, deltas []BalanceDelta) error

	// GetExpense retrieves an expense by ID, including its share lines.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup retrieves a group's expenses, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// DeactivateExpense marks an active expense inactive and applies the
	// reversal deltas in the same transaction. An inactive expense is an
	// errs.InvalidStateError.
	DeactivateExpense(ctx context.Context, expenseID string, deltas []BalanceDelta) error

	// GetBalances retrieves every materialized balance row for a group,
	// zero balances included, sorted by member ID.
	GetBalances(ctx context.Context, groupID string) ([]models.Balance, error)

	// CreateSettlement persists a new pending settlement. ID and
	// CreatedAt are populated by the store if unset.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// GetSettlement retrieves a settlement by ID.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// ListSettlementsByGroup retrieves a group's settlements, newest
	// first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// CompleteSettlement transitions a pending settlement to completed
	// and applies its balance deltas in the same transaction. A missing
	// settlement is an errs.NotFoundError; a non-pending one an
	// errs.InvalidStateError.
	CompleteSettlement(ctx context.Context, settlementID string, deltas []BalanceDelta, completedAt int64) error

	// CancelSettlement transitions a pending settlement to cancelled.
	// No balance rows are touched.
	CancelSettlement(ctx context.Context, settlementID string) error

	// Close releases any resources held by the store.
	Close() error
}
