package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses a user-supplied monetary string into a decimal.
// Rejects empty, non-numeric and non-positive input.
func ParseAmount(input string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// RoundDisplay rounds an amount shown in a local currency.
func RoundDisplay(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// RoundCanonical rounds an amount that becomes a stored USD value.
// Higher precision than display rounding because every later balance
// calculation derives from it.
func RoundCanonical(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(6)
}

// Format renders a display amount with two decimal places.
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
