package store

import (
	"context"

	"github.com/shopspring/decimal"
)

type RateStore struct {
	db DB
}

type ExchangeRate struct {
	CurrencyCode string          `db:"currency_code"`
	Rate         decimal.Decimal `db:"rate"`
	UpdatedAt    any             `db:"updated_at"`
}

func NewRateStore(db DB) *RateStore {
	return &RateStore{db: db}
}

func (s *RateStore) Get(ctx context.Context, code string) (ExchangeRate, error) {
	var row ExchangeRate
	err := s.db.GetContext(ctx, &row, `
		SELECT currency_code, rate, updated_at
		FROM exchange_rates
		WHERE currency_code = $1
	`, code)
	return row, err
}

func (s *RateStore) List(ctx context.Context) ([]ExchangeRate, error) {
	var rows []ExchangeRate
	err := s.db.SelectContext(ctx, &rows, `
		SELECT currency_code, rate, updated_at
		FROM exchange_rates
		ORDER BY currency_code
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *RateStore) Upsert(ctx context.Context, code string, rate decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exchange_rates (currency_code, rate, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (currency_code) DO UPDATE SET rate = EXCLUDED.rate, updated_at = NOW()
	`, code, rate)
	return err
}

func (s *RateStore) UpsertMany(ctx context.Context, rates map[string]decimal.Decimal) error {
	for code, rate := range rates {
		if err := s.Upsert(ctx, code, rate); err != nil {
			return err
		}
	}
	return nil
}
