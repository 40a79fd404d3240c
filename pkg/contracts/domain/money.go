package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencyPrefix is prepended to every rendered amount.
const CurrencyPrefix = "R$"

// amountPrinter groups the integer part of amounts with commas.
var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders an amount with comma thousands separators and exactly
// two decimals, e.g. 1234567.5 -> "1,234,567.50". Rounding is half-to-even.
// The integer and fractional parts come from the decimal itself, so no
// digit is lost to float conversion.
func FormatAmount(amount decimal.Decimal) string {
	rounded := amount.RoundBank(2)
	abs := rounded.Abs()

	fixed := abs.StringFixed(2)
	frac := fixed[strings.IndexByte(fixed, '.'):]

	whole := abs.Truncate(0)
	intPart := whole.String()
	if whole.BigInt().IsInt64() {
		intPart = amountPrinter.Sprintf("%d", whole.IntPart())
	}

	if rounded.IsNegative() {
		return "-" + intPart + frac
	}
	return intPart + frac
}

// FormatCurrency renders an amount as "R$ 1,234.50".
func FormatCurrency(amount decimal.Decimal) string {
	return CurrencyPrefix + " " + FormatAmount(amount)
}
