package store

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPlanStoreGetTxUsesTransaction(t *testing.T) {
	ctx := context.Background()
	called := false
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			called = true
			if !strings.Contains(query, "FROM investment_plans") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "plan-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			row := dest.(*Plan)
			row.ID = "plan-1"
			row.ProfitAmount = decimal.RequireFromString("25")
			return nil
		},
	}
	store := NewPlanStore(stubDB{getFn: func(_ context.Context, dest any, query string, args ...any) error {
		t.Fatal("tx read must not go through the pool")
		return nil
	}})
	plan, err := store.GetTx(ctx, getter, "plan-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || !plan.ProfitAmount.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("expected plan from the transaction, got %+v", plan)
	}
}
