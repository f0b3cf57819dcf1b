package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// CreateSettlement persists a new pending settlement. It has no balance
// effect: the ledger is touched only on completion.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}
	if settlement.Status == "" {
		settlement.Status = models.SettlementPending
	}

	var note any
	if settlement.Note != "" {
		note = settlement.Note
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements
		 (id, group_id, from_member_id, to_member_id, amount, currency, note, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.From.String(), settlement.To.String(),
		settlement.Amount.Amount().String(), settlement.Amount.Currency(),
		note, string(settlement.Status), settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	settlement, err := scanSettlement(s.db.QueryRowContext(ctx,
		`SELECT id, group_id, from_member_id, to_member_id, amount, currency, note, status, created_at, completed_at
		 FROM settlements WHERE id = ?`,
		settlementID,
	))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("settlement", settlementID)
	}
	return settlement, err
}

// ListSettlementsByGroup retrieves a group's settlements, newest first.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, from_member_id, to_member_id, amount, currency, note, status, created_at, completed_at
		 FROM settlements WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// CompleteSettlement flips a pending settlement to completed and applies
// its balance deltas in one transaction. The status guard on the UPDATE
// makes a double completion fail rather than double-apply.
func (s *SQLiteStore) CompleteSettlement(ctx context.Context, settlementID string, deltas []storage.BalanceDelta, completedAt int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		groupID string
		status  string
	)
	err = tx.QueryRowContext(ctx,
		"SELECT group_id, status FROM settlements WHERE id = ?", settlementID,
	).Scan(&groupID, &status)
	if err == sql.ErrNoRows {
		return errs.NotFound("settlement", settlementID)
	}
	if err != nil {
		return fmt.Errorf("failed to get settlement: %w", err)
	}
	if models.SettlementStatus(status) != models.SettlementPending {
		return errs.InvalidStatef("settlement %s is %s, want pending", settlementID, status)
	}

	if err := applyDeltas(ctx, tx, groupID, deltas); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE settlements SET status = ?, completed_at = ? WHERE id = ? AND status = ?",
		string(models.SettlementCompleted), completedAt, settlementID, string(models.SettlementPending),
	)
	if err != nil {
		return fmt.Errorf("failed to complete settlement: %w", err)
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

// CancelSettlement flips a pending settlement to cancelled. No balance rows
// are touched.
func (s *SQLiteStore) CancelSettlement(ctx context.Context, settlementID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE settlements SET status = ? WHERE id = ? AND status = ?",
		string(models.SettlementCancelled), settlementID, string(models.SettlementPending),
	)
	if err != nil {
		return fmt.Errorf("failed to cancel settlement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		var status string
		err := s.db.QueryRowContext(ctx,
			"SELECT status FROM settlements WHERE id = ?", settlementID,
		).Scan(&status)
		if err == sql.ErrNoRows {
			return errs.NotFound("settlement", settlementID)
		}
		if err != nil {
			return fmt.Errorf("failed to get settlement: %w", err)
		}
		return errs.InvalidStatef("settlement %s is %s, want pending", settlementID, status)
	}
	return nil
}

func scanSettlement(row rowScanner) (*models.Settlement, error) {
	var (
		settlement       models.Settlement
		from, to         string
		amount, currency string
		note             sql.NullString
		status           string
		completedAt      sql.NullInt64
	)
	err := row.Scan(&settlement.ID, &settlement.GroupID, &from, &to,
		&amount, &currency, &note, &status, &settlement.CreatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan settlement: %w", err)
	}

	settlement.From, err = models.ParseMemberID(from)
	if err != nil {
		return nil, fmt.Errorf("corrupt settlement member id %q: %w", from, err)
	}
	settlement.To, err = models.ParseMemberID(to)
	if err != nil {
		return nil, fmt.Errorf("corrupt settlement member id %q: %w", to, err)
	}
	settlement.Amount, err = parseMoney(amount, currency)
	if err != nil {
		return nil, err
	}
	if note.Valid {
		settlement.Note = note.String
	}
	settlement.Status = models.SettlementStatus(status)
	if completedAt.Valid {
		settlement.CompletedAt = completedAt.Int64
	}
	return &settlement, nil
}
