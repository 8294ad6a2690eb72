package currency

import (
	"context"
	"database/sql"
	"testing"

	"planvest/internal/store"

	"github.com/shopspring/decimal"
)

type stubRateStore struct {
	rates map[string]string
}

func (s stubRateStore) Get(_ context.Context, code string) (store.ExchangeRate, error) {
	raw, ok := s.rates[code]
	if !ok {
		return store.ExchangeRate{}, sql.ErrNoRows
	}
	return store.ExchangeRate{CurrencyCode: code, Rate: decimal.RequireFromString(raw)}, nil
}

func TestRateUSDAlwaysOne(t *testing.T) {
	converter := NewConverter(stubRateStore{rates: map[string]string{"USD": "770"}})
	rate, ok := converter.Rate(context.Background(), "usd")
	if !ok {
		t.Fatalf("expected rate")
	}
	if !rate.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected 1, got %s", rate)
	}
}

func TestRateAbsent(t *testing.T) {
	converter := NewConverter(stubRateStore{rates: map[string]string{}})
	if _, ok := converter.Rate(context.Background(), "NGN"); ok {
		t.Fatalf("expected absent rate")
	}
	if _, ok := converter.Rate(context.Background(), ""); ok {
		t.Fatalf("expected absent rate for empty code")
	}
}

func TestRateNormalizesCase(t *testing.T) {
	converter := NewConverter(stubRateStore{rates: map[string]string{"NGN": "770"}})
	rate, ok := converter.Rate(context.Background(), "ngn")
	if !ok {
		t.Fatalf("expected rate")
	}
	if !rate.Equal(decimal.NewFromInt(770)) {
		t.Fatalf("unexpected rate: %s", rate)
	}
}

func TestConvertUSDTo(t *testing.T) {
	converter := NewConverter(stubRateStore{rates: map[string]string{"EUR": "0.92"}})
	amount, ok := converter.ConvertUSDTo(context.Background(), "EUR", decimal.RequireFromString("200"))
	if !ok {
		t.Fatalf("expected conversion")
	}
	if amount.String() != "184" {
		t.Fatalf("unexpected amount: %s", amount)
	}
}

func TestConvertToUSDZeroRate(t *testing.T) {
	converter := NewConverter(stubRateStore{rates: map[string]string{"XXX": "0"}})
	if _, ok := converter.ConvertToUSD(context.Background(), "XXX", decimal.NewFromInt(100)); ok {
		t.Fatalf("expected no conversion for zero rate")
	}
}

// Converting out to a local currency and back lands within the display
// rounding tolerance.
func TestRoundTripWithinTolerance(t *testing.T) {
	converter := NewConverter(stubRateStore{rates: map[string]string{"NGN": "770", "GBP": "0.79"}})
	tolerance := decimal.RequireFromString("0.01")
	for _, code := range []string{"NGN", "GBP"} {
		for _, raw := range []string{"10", "200", "123.45", "0.99"} {
			amount := decimal.RequireFromString(raw)
			local, ok := converter.ConvertUSDTo(context.Background(), code, amount)
			if !ok {
				t.Fatalf("expected outbound conversion for %s", code)
			}
			back, ok := converter.ConvertToUSD(context.Background(), code, local)
			if !ok {
				t.Fatalf("expected inbound conversion for %s", code)
			}
			diff := back.Sub(amount).Abs()
			if diff.GreaterThan(tolerance) {
				t.Fatalf("round trip drifted for %s %s: got %s (diff %s)", code, raw, back, diff)
			}
		}
	}
}
