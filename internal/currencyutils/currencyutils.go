// Package currencyutils provides the decimal operations behind receipt amounts.
// Amounts arrive as integer minor units (kobo) and are displayed in naira.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// NairaSymbol prefixes every formatted amount.
const NairaSymbol = "₦"

// MinorUnitsPerMajor is the kobo-per-naira ratio.
var MinorUnitsPerMajor = decimal.NewFromInt(100)

var noise = regexp.MustCompile(`[₦\s,']`)

// ParseMinorUnits parses a minor-unit amount such as "10000" or "1,000,000"
// into a decimal. Empty strings parse to zero.
func ParseMinorUnits(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if standardized == "" {
		return decimal.Zero, nil
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// StandardizeAmount strips the currency symbol, whitespace and grouping
// separators so decimal.NewFromString can read the remainder.
func StandardizeAmount(amountStr string) string {
	amountStr = strings.TrimPrefix(strings.TrimSpace(amountStr), "NGN")
	return noise.ReplaceAllString(amountStr, "")
}

// ToMajor converts kobo to naira.
func ToMajor(minor decimal.Decimal) decimal.Decimal {
	return minor.Div(MinorUnitsPerMajor)
}

// FormatNaira renders a naira amount as "₦1,234.56". Negative amounts are
// rendered as "-₦1,234.56".
func FormatNaira(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + NairaSymbol + GroupThousands(whole) + "." + frac
}

// GroupThousands inserts commas every three digits of an unsigned integer string.
func GroupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
