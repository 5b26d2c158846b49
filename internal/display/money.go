// Package display renders amounts the way the dashboard shows them.
package display

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the ISO code every amount is shown in.
const Currency = "INR"

// INR formats d as rupees with two decimals, e.g. "₹61,500.00".
func INR(d decimal.Decimal) string {
	return toMoney(d).Display()
}

// SignedINR is INR with a leading "+" for positive amounts.
func SignedINR(d decimal.Decimal) string {
	m := toMoney(d)
	if m.IsPositive() {
		return "+" + m.Display()
	}
	return m.Display()
}

// OptionalINR formats d, or returns "N/A" when d is nil.
func OptionalINR(d *decimal.Decimal) string {
	if d == nil {
		return "N/A"
	}
	return INR(*d)
}

// Percent formats d with two decimals and a percent sign.
func Percent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// SignedPercent is Percent with an explicit sign.
func SignedPercent(d decimal.Decimal) string {
	return fmt.Sprintf("%+.2f%%", d.Round(2).InexactFloat64())
}

// Number formats d with thousands separators and two decimals, without a
// currency symbol, as used for index levels.
func Number(d decimal.Decimal) string {
	m := toMoney(d)
	return strings.Replace(m.Display(), m.Currency().Grapheme, "", 1)
}

func toMoney(d decimal.Decimal) *money.Money {
	return money.New(d.Round(2).Shift(2).IntPart(), Currency)
}
