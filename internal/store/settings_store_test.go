package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSettingsStoreReadsSingletonRow(t *testing.T) {
	ctx := context.Background()
	store := NewSettingsStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM investment_settings") {
				t.Fatalf("unexpected query: %s", query)
			}
			row := dest.(*Limits)
			*row = Limits{ID: "default", MinAmount: decimal.NewFromInt(10), MaxAmount: decimal.NewFromInt(1000)}
			return nil
		},
	})
	limits, err := store.InvestmentLimits(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !limits.MinAmount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected limits: %#v", limits)
	}
}

func TestSettingsStoreSetWithdrawalLimitsUpserts(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO withdrawal_settings") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !strings.Contains(query, "ON CONFLICT (id) DO UPDATE") {
				t.Fatalf("expected upsert, got: %s", query)
			}
			if args[0] != "default" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewSettingsStore(stubDB{})
	err := store.SetWithdrawalLimits(ctx, execer, "default", decimal.NewFromInt(10), decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
