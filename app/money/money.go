package money

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-purchases/app/entity"
)

var hundred = decimal.NewFromInt(100)

// CentsToDecimal converts provider integer cents into a decimal dollar
// amount, e.g. 1000 -> 10.00.
func CentsToDecimal(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(hundred)
}

// DecimalToCents converts a dollar amount to provider integer cents, rounding
// up. Ceiling after the multiply avoids float artifacts like 8.38*100
// becoming 837.99...; the customer is never undercharged by a fraction of a
// cent.
func DecimalToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Ceil().IntPart()
}

// Total sums line item amounts exactly.
func Total(lineItems []entity.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range lineItems {
		total = total.Add(item.Amount)
	}
	return total
}

// FormatUSD renders an amount for user-facing error messages, e.g. "$5.50".
func FormatUSD(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return fmt.Sprintf("-$%s", amount.Abs().StringFixed(2))
	}
	return fmt.Sprintf("$%s", amount.StringFixed(2))
}
