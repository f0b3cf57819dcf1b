package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/models"
)

// GetBalances retrieves every materialized balance row for a group, zero
// balances included, sorted by member ID for deterministic output.
func (s *SQLiteStore) GetBalances(ctx context.Context, groupID string) ([]models.Balance, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT member_id, amount, currency FROM balances WHERE group_id = ? ORDER BY member_id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}
	defer rows.Close()

	var balances []models.Balance
	for rows.Next() {
		var (
			memberRaw, amount string
			balance           models.Balance
		)
		if err := rows.Scan(&memberRaw, &amount, &balance.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balance.GroupID = groupID
		balance.Member, err = models.ParseMemberID(memberRaw)
		if err != nil {
			return nil, fmt.Errorf("corrupt balance member id %q: %w", memberRaw, err)
		}
		balance.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt balance amount %q: %w", amount, err)
		}
		balances = append(balances, balance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}
	return balances, nil
}
