package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/money"
	"github.com/tallyhq/tally/internal/storage"
)

// CreateExpense persists a new expense, its share lines, and the balance
// deltas it implies, all in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, deltas []storage.BalanceDelta) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses
		 (id, group_id, paid_by, amount, currency, category, date, split_type,
		  converted_amount, base_currency, fx_rate, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		expense.ID, expense.GroupID, expense.PaidBy.String(),
		expense.Amount.Amount().String(), expense.Amount.Currency(),
		expense.Category, expense.Date.Unix(), string(expense.SplitType),
		expense.ConvertedAmount.Amount().String(), expense.ConvertedAmount.Currency(),
		expense.FXRate.String(), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, line := range expense.Split {
		var percentage any
		if line.Percentage != nil {
			percentage = line.Percentage.String()
		}
		var shares any
		if line.Shares != nil {
			shares = *line.Shares
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, member_id, amount, percentage, shares, position) VALUES (?, ?, ?, ?, ?, ?)",
			expense.ID, line.Member.String(), line.Amount.Amount().String(), percentage, shares, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert share line: %w", err)
		}
	}

	if err := applyDeltas(ctx, tx, expense.GroupID, deltas); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	expense.IsActive = true
	return nil
}

// GetExpense retrieves an expense by ID, including its share lines.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := s.scanExpense(s.db.QueryRowContext(ctx,
		`SELECT id, group_id, paid_by, amount, currency, category, date, split_type,
		        converted_amount, base_currency, fx_rate, is_active, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("expense", expenseID)
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadShares(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpensesByGroup retrieves a group's expenses, newest first, including
// share lines.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, paid_by, amount, currency, category, date, split_type,
		        converted_amount, base_currency, fx_rate, is_active, created_at
		 FROM expenses WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := s.scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, expense := range expenses {
		if err := s.loadShares(ctx, expense); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

// DeactivateExpense marks an active expense inactive and applies the
// reversal deltas in one transaction.
func (s *SQLiteStore) DeactivateExpense(ctx context.Context, expenseID string, deltas []storage.BalanceDelta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		groupID string
		active  bool
	)
	err = tx.QueryRowContext(ctx,
		"SELECT group_id, is_active FROM expenses WHERE id = ?", expenseID,
	).Scan(&groupID, &active)
	if err == sql.ErrNoRows {
		return errs.NotFound("expense", expenseID)
	}
	if err != nil {
		return fmt.Errorf("failed to get expense: %w", err)
	}
	if !active {
		return errs.InvalidStatef("expense %s is already reversed", expenseID)
	}

	if err := applyDeltas(ctx, tx, groupID, deltas); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE expenses SET is_active = 0 WHERE id = ? AND is_active = 1", expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return &errs.ConflictError{GroupID: groupID}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanExpense(row rowScanner) (*models.Expense, error) {
	var (
		expense                 models.Expense
		paidBy                  string
		amount, currency        string
		converted, baseCurrency string
		fxRate, splitType       string
		date                    int64
	)
	err := row.Scan(&expense.ID, &expense.GroupID, &paidBy, &amount, &currency,
		&expense.Category, &date, &splitType, &converted, &baseCurrency,
		&fxRate, &expense.IsActive, &expense.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}

	expense.PaidBy, err = models.ParseMemberID(paidBy)
	if err != nil {
		return nil, fmt.Errorf("corrupt payer id %q: %w", paidBy, err)
	}
	expense.Amount, err = parseMoney(amount, currency)
	if err != nil {
		return nil, err
	}
	expense.ConvertedAmount, err = parseMoney(converted, baseCurrency)
	if err != nil {
		return nil, err
	}
	expense.FXRate, err = decimal.NewFromString(fxRate)
	if err != nil {
		return nil, fmt.Errorf("corrupt fx rate %q: %w", fxRate, err)
	}
	expense.Date = time.Unix(date, 0).UTC()
	expense.SplitType = models.SplitType(splitType)
	return &expense, nil
}

func (s *SQLiteStore) loadShares(ctx context.Context, expense *models.Expense) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT member_id, amount, percentage, shares FROM expense_shares WHERE expense_id = ? ORDER BY position",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get share lines: %w", err)
	}
	defer rows.Close()

	baseCurrency := expense.ConvertedAmount.Currency()
	for rows.Next() {
		var (
			memberRaw, amount string
			percentage        sql.NullString
			shares            sql.NullInt64
		)
		if err := rows.Scan(&memberRaw, &amount, &percentage, &shares); err != nil {
			return fmt.Errorf("failed to scan share line: %w", err)
		}

		line := models.ShareLine{}
		line.Member, err = models.ParseMemberID(memberRaw)
		if err != nil {
			return fmt.Errorf("corrupt share member id %q: %w", memberRaw, err)
		}
		line.Amount, err = parseMoney(amount, baseCurrency)
		if err != nil {
			return err
		}
		if percentage.Valid {
			pct, err := decimal.NewFromString(percentage.String)
			if err != nil {
				return fmt.Errorf("corrupt share percentage %q: %w", percentage.String, err)
			}
			line.Percentage = &pct
		}
		if shares.Valid {
			n := shares.Int64
			line.Shares = &n
		}

		expense.Split = append(expense.Split, line)
		expense.Participants = append(expense.Participants, line.Member)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate share lines: %w", err)
	}
	return nil
}

func parseMoney(amount, currency string) (money.Money, error) {
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return money.Money{}, fmt.Errorf("corrupt amount %q: %w", amount, err)
	}
	m, err := money.New(dec, currency)
	if err != nil {
		return money.Money{}, fmt.Errorf("corrupt currency %q: %w", currency, err)
	}
	return m, nil
}
