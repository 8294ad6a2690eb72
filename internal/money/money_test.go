package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount(" 120.50 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !amount.Equal(decimal.RequireFromString("120.50")) {
		t.Fatalf("unexpected amount: %s", amount)
	}
}

func TestParseAmountRejectsBadInput(t *testing.T) {
	for _, input := range []string{"", "abc", "0", "-5", "1.2.3"} {
		if _, err := ParseAmount(input); err != ErrInvalidAmount {
			t.Fatalf("expected ErrInvalidAmount for %q, got %v", input, err)
		}
	}
}

func TestRounding(t *testing.T) {
	value := decimal.RequireFromString("10.1234567")
	if got := RoundDisplay(value).String(); got != "10.12" {
		t.Fatalf("unexpected display rounding: %s", got)
	}
	if got := RoundCanonical(value).String(); got != "10.123457" {
		t.Fatalf("unexpected canonical rounding: %s", got)
	}
}

func TestFormat(t *testing.T) {
	if got := Format(decimal.RequireFromString("30")); got != "30.00" {
		t.Fatalf("unexpected format: %s", got)
	}
}
