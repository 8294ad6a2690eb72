package store

import (
	"context"

	"github.com/shopspring/decimal"
)

type InvestmentStore struct {
	db DB
}

type Investment struct {
	ID            string              `db:"id"`
	UserID        string              `db:"user_id"`
	PlanID        string              `db:"plan_id"`
	Status        string              `db:"status"`
	ProofImage    *string             `db:"proof_image"`
	AmountUSD     decimal.Decimal     `db:"amount_usd"`
	AmountLocal   decimal.NullDecimal `db:"amount_local"`
	CurrencyCode  *string             `db:"currency_code"`
	CurrentProfit decimal.Decimal     `db:"current_profit"`
	CreatedAt     any                 `db:"created_at"`
}

type InvestmentInput struct {
	ID           string
	UserID       string
	PlanID       string
	AmountUSD    decimal.Decimal
	AmountLocal  decimal.NullDecimal
	CurrencyCode *string
}

func NewInvestmentStore(db DB) *InvestmentStore {
	return &InvestmentStore{db: db}
}

func (s *InvestmentStore) Create(ctx context.Context, tx Execer, input InvestmentInput) error {
	query := `
		INSERT INTO investments (id, user_id, plan_id, status, proof_image, amount_usd, amount_local, currency_code, current_profit)
		VALUES ($1, $2, $3, 'pending', NULL, $4, $5, $6, 0)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.PlanID, input.AmountUSD, input.AmountLocal, input.CurrencyCode,
	)
	return err
}

func (s *InvestmentStore) GetByID(ctx context.Context, investmentID string) (Investment, error) {
	var row Investment
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, plan_id, status, proof_image, amount_usd, amount_local, currency_code, current_profit, created_at
		FROM investments
		WHERE id = $1
	`, investmentID)
	return row, err
}

// GetForUpdate locks the investment row alongside the status/profit write
// it pairs with.
func (s *InvestmentStore) GetForUpdate(ctx context.Context, tx Getter, investmentID string) (Investment, error) {
	var row Investment
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, plan_id, status, proof_image, amount_usd, amount_local, currency_code, current_profit
		FROM investments
		WHERE id = $1
		FOR UPDATE
	`, investmentID)
	return row, err
}

func (s *InvestmentStore) ListByUser(ctx context.Context, userID string) ([]Investment, error) {
	var rows []Investment
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, plan_id, status, proof_image, amount_usd, amount_local, currency_code, current_profit, created_at
		FROM investments
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *InvestmentStore) ListByStatus(ctx context.Context, status string) ([]Investment, error) {
	var rows []Investment
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, plan_id, status, proof_image, amount_usd, amount_local, currency_code, current_profit, created_at
		FROM investments
		WHERE status = $1
		ORDER BY created_at DESC, id DESC
	`, status)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SetProof records the stored proof filename, scoped to the requesting
// user's own investment. Returns rows affected so callers can detect a
// non-owned or missing investment.
func (s *InvestmentStore) SetProof(ctx context.Context, investmentID, userID, filename string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE investments SET proof_image = $1 WHERE id = $2 AND user_id = $3
	`, filename, investmentID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *InvestmentStore) SetStatus(ctx context.Context, tx Execer, investmentID, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE investments SET status = $1 WHERE id = $2`, status, investmentID)
	return err
}

// BackfillAmount sets the canonical amount and resets current_profit on an
// investment created before the amount was known.
func (s *InvestmentStore) BackfillAmount(ctx context.Context, tx Execer, investmentID string, amountUSD decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE investments SET amount_usd = $1, current_profit = 0 WHERE id = $2
	`, amountUSD, investmentID)
	return err
}

func (s *InvestmentStore) UpdateProfit(ctx context.Context, tx Execer, investmentID string, profit decimal.Decimal, status string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE investments SET current_profit = $1, status = $2 WHERE id = $3
	`, profit, status, investmentID)
	return err
}

func (s *InvestmentStore) CountByPlan(ctx context.Context, tx Getter, planID string) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, `SELECT COUNT(1) FROM investments WHERE plan_id = $1`, planID)
	return count, err
}

func (s *InvestmentStore) DeleteByPlan(ctx context.Context, tx Execer, planID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM investments WHERE plan_id = $1`, planID)
	return err
}
