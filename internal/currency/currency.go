package currency

import (
	"context"
	"strings"

	"planvest/internal/money"
	"planvest/internal/store"

	"github.com/shopspring/decimal"
)

// Converter turns canonical USD amounts into a viewer's local currency
// and back. USD is the only currency used for stored balance arithmetic;
// every other currency is a rounded view derived from the latest stored
// rate. Absence of a rate is an expected outcome, not an error: callers
// get ok=false and show no converted value.
type Converter struct {
	rates RateStore
}

type RateStore interface {
	Get(ctx context.Context, code string) (store.ExchangeRate, error)
}

func NewConverter(rates RateStore) *Converter {
	return &Converter{rates: rates}
}

var one = decimal.NewFromInt(1)

// Rate returns how many units of code one USD buys. USD itself is always
// 1 regardless of stored rows.
func (c *Converter) Rate(ctx context.Context, code string) (decimal.Decimal, bool) {
	if code == "" {
		return decimal.Zero, false
	}
	normalized := strings.ToUpper(code)
	if normalized == "USD" {
		return one, true
	}
	row, err := c.rates.Get(ctx, normalized)
	if err != nil {
		return decimal.Zero, false
	}
	return row.Rate, true
}

// ConvertUSDTo converts a USD amount into the target currency for
// display, rounded to two decimal places.
func (c *Converter) ConvertUSDTo(ctx context.Context, code string, amountUSD decimal.Decimal) (decimal.Decimal, bool) {
	rate, ok := c.Rate(ctx, code)
	if !ok {
		return decimal.Zero, false
	}
	return money.RoundDisplay(amountUSD.Mul(rate)), true
}

// ConvertToUSD converts a user-entered local amount into the canonical
// USD value, rounded to six decimal places. A zero rate cannot convert.
func (c *Converter) ConvertToUSD(ctx context.Context, code string, amountLocal decimal.Decimal) (decimal.Decimal, bool) {
	rate, ok := c.Rate(ctx, code)
	if !ok || rate.IsZero() {
		return decimal.Zero, false
	}
	return money.RoundCanonical(amountLocal.Div(rate)), true
}
