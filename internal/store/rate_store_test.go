package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRateStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewRateStore(stubDB{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "ON CONFLICT (currency_code) DO UPDATE") {
				t.Fatalf("expected upsert, got: %s", query)
			}
			if len(args) != 2 || args[0] != "NGN" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	})
	if err := store.Upsert(ctx, "NGN", decimal.NewFromInt(770)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRateStoreUpsertManyStopsOnError(t *testing.T) {
	ctx := context.Background()
	calls := 0
	store := NewRateStore(stubDB{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			calls++
			return nil, sql.ErrConnDone
		},
	})
	err := store.UpsertMany(ctx, map[string]decimal.Decimal{
		"NGN": decimal.NewFromInt(770),
		"EUR": decimal.NewFromFloat(0.92),
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before stopping, got %d", calls)
	}
}

func TestRateStoreGet(t *testing.T) {
	ctx := context.Background()
	store := NewRateStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE currency_code = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			row := dest.(*ExchangeRate)
			*row = ExchangeRate{CurrencyCode: "NGN", Rate: decimal.NewFromInt(770)}
			return nil
		},
	})
	row, err := store.Get(ctx, "NGN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !row.Rate.Equal(decimal.NewFromInt(770)) {
		t.Fatalf("unexpected rate: %s", row.Rate)
	}
}
