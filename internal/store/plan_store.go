package store

import (
	"context"

	"github.com/shopspring/decimal"
)

type PlanStore struct {
	db DB
}

type Plan struct {
	ID            string          `db:"id"`
	PlanName      string          `db:"plan_name"`
	MinimumAmount decimal.Decimal `db:"minimum_amount"`
	ProfitAmount  decimal.Decimal `db:"profit_amount"`
	TotalReturn   decimal.Decimal `db:"total_return"`
	DurationDays  int             `db:"duration_days"`
	CapitalBack   bool            `db:"capital_back"`
	Status        string          `db:"status"`
	CreatedAt     any             `db:"created_at"`
	UpdatedAt     any             `db:"updated_at"`
}

type PlanInput struct {
	ID            string
	PlanName      string
	MinimumAmount decimal.Decimal
	ProfitAmount  decimal.Decimal
	TotalReturn   decimal.Decimal
	DurationDays  int
	CapitalBack   bool
	Status        string
}

func NewPlanStore(db DB) *PlanStore {
	return &PlanStore{db: db}
}

func (s *PlanStore) Create(ctx context.Context, tx Execer, input PlanInput) error {
	query := `
		INSERT INTO investment_plans (id, plan_name, minimum_amount, profit_amount, total_return, duration_days, capital_back, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.PlanName, input.MinimumAmount, input.ProfitAmount,
		input.TotalReturn, input.DurationDays, input.CapitalBack, input.Status,
	)
	return err
}

func (s *PlanStore) Update(ctx context.Context, tx Execer, input PlanInput) error {
	query := `
		UPDATE investment_plans
		SET plan_name = $1, minimum_amount = $2, profit_amount = $3, total_return = $4,
		    duration_days = $5, capital_back = $6, status = $7, updated_at = NOW()
		WHERE id = $8
	`
	_, err := tx.ExecContext(ctx, query,
		input.PlanName, input.MinimumAmount, input.ProfitAmount, input.TotalReturn,
		input.DurationDays, input.CapitalBack, input.Status, input.ID,
	)
	return err
}

func (s *PlanStore) GetByID(ctx context.Context, planID string) (Plan, error) {
	var row Plan
	err := s.db.GetContext(ctx, &row, `
		SELECT id, plan_name, minimum_amount, profit_amount, total_return, duration_days, capital_back, status, created_at, updated_at
		FROM investment_plans
		WHERE id = $1
	`, planID)
	return row, err
}

// GetTx reads a plan through the caller's transaction so approval sees
// the profit amount inside the same snapshot as its balance writes.
func (s *PlanStore) GetTx(ctx context.Context, tx Getter, planID string) (Plan, error) {
	var row Plan
	err := tx.GetContext(ctx, &row, `
		SELECT id, plan_name, minimum_amount, profit_amount, total_return, duration_days, capital_back, status, created_at, updated_at
		FROM investment_plans
		WHERE id = $1
	`, planID)
	return row, err
}

func (s *PlanStore) ListActive(ctx context.Context, limit, offset int) ([]Plan, error) {
	var rows []Plan
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, plan_name, minimum_amount, profit_amount, total_return, duration_days, capital_back, status, created_at, updated_at
		FROM investment_plans
		WHERE status = 'active'
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *PlanStore) CountActive(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM investment_plans WHERE status = 'active'`)
	return count, err
}

func (s *PlanStore) ListAll(ctx context.Context) ([]Plan, error) {
	var rows []Plan
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, plan_name, minimum_amount, profit_amount, total_return, duration_days, capital_back, status, created_at, updated_at
		FROM investment_plans
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *PlanStore) SetStatus(ctx context.Context, tx Execer, planID, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE investment_plans SET status = $1, updated_at = NOW() WHERE id = $2`, status, planID)
	return err
}

func (s *PlanStore) Delete(ctx context.Context, tx Execer, planID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM investment_plans WHERE id = $1`, planID)
	return err
}
