package store

import (
	"context"

	"github.com/shopspring/decimal"
)

type WithdrawalStore struct {
	db DB
}

type Withdrawal struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	Amount      decimal.Decimal `db:"amount"`
	Status      string          `db:"status"`
	RequestedAt any             `db:"requested_at"`
}

func NewWithdrawalStore(db DB) *WithdrawalStore {
	return &WithdrawalStore{db: db}
}

func (s *WithdrawalStore) Create(ctx context.Context, tx Execer, id, userID string, amount decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO withdrawals (id, user_id, amount, status)
		VALUES ($1, $2, $3, 'pending')
	`, id, userID, amount)
	return err
}

func (s *WithdrawalStore) GetByID(ctx context.Context, withdrawalID string) (Withdrawal, error) {
	var row Withdrawal
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, amount, status, requested_at
		FROM withdrawals
		WHERE id = $1
	`, withdrawalID)
	return row, err
}

func (s *WithdrawalStore) GetForUpdate(ctx context.Context, tx Getter, withdrawalID string) (Withdrawal, error) {
	var row Withdrawal
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, amount, status
		FROM withdrawals
		WHERE id = $1
		FOR UPDATE
	`, withdrawalID)
	return row, err
}

func (s *WithdrawalStore) ListByUser(ctx context.Context, userID string) ([]Withdrawal, error) {
	var rows []Withdrawal
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, amount, status, requested_at
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY requested_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *WithdrawalStore) ListByStatus(ctx context.Context, status string) ([]Withdrawal, error) {
	var rows []Withdrawal
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, amount, status, requested_at
		FROM withdrawals
		WHERE status = $1
		ORDER BY requested_at DESC, id DESC
	`, status)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *WithdrawalStore) SetStatus(ctx context.Context, tx Execer, withdrawalID, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE withdrawals SET status = $1 WHERE id = $2`, status, withdrawalID)
	return err
}
