package store

import (
	"context"

	"github.com/shopspring/decimal"
)

// SettingsStore reads and writes the two singleton limit rows that bound
// user-entered amounts: one for investments, one for withdrawals.
type SettingsStore struct {
	db DB
}

type Limits struct {
	ID        string          `db:"id"`
	MinAmount decimal.Decimal `db:"min_amount"`
	MaxAmount decimal.Decimal `db:"max_amount"`
	UpdatedAt any             `db:"updated_at"`
}

func NewSettingsStore(db DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) InvestmentLimits(ctx context.Context) (Limits, error) {
	return s.limits(ctx, "investment_settings")
}

func (s *SettingsStore) WithdrawalLimits(ctx context.Context) (Limits, error) {
	return s.limits(ctx, "withdrawal_settings")
}

func (s *SettingsStore) limits(ctx context.Context, table string) (Limits, error) {
	var row Limits
	err := s.db.GetContext(ctx, &row, `
		SELECT id, min_amount, max_amount, updated_at
		FROM `+table+`
		LIMIT 1
	`)
	return row, err
}

func (s *SettingsStore) SetInvestmentLimits(ctx context.Context, tx Execer, id string, min, max decimal.Decimal) error {
	return s.setLimits(ctx, tx, "investment_settings", id, min, max)
}

func (s *SettingsStore) SetWithdrawalLimits(ctx context.Context, tx Execer, id string, min, max decimal.Decimal) error {
	return s.setLimits(ctx, tx, "withdrawal_settings", id, min, max)
}

func (s *SettingsStore) setLimits(ctx context.Context, tx Execer, table, id string, min, max decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO `+table+` (id, min_amount, max_amount, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET min_amount = EXCLUDED.min_amount, max_amount = EXCLUDED.max_amount, updated_at = NOW()
	`, id, min, max)
	return err
}
