// Package derive holds the rules that compute receipt display values from a
// transaction row. Every rule is pure: explicit column values win, and the
// derived value only fills a gap.
package derive

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hydrogen/pos-receipts/internal/currencyutils"
	"hydrogen/pos-receipts/internal/dateutils"
)

// Sentinel and fallback display values.
const (
	Unknown                = "Unknown"
	UnknownBank            = "Unknown Bank"
	NotAvailable           = "N/A"
	DefaultResponseCode    = "00"
	DefaultResponseMessage = "Transaction successful"
	STANDigits             = 10
)

// Card networks inferred from the first PAN digit.
const (
	NetworkVisa       = "Visa"
	NetworkMastercard = "Mastercard"
	NetworkAmex       = "American Express"
)

var networks = map[byte]string{
	'4': NetworkVisa,
	'5': NetworkMastercard,
	'3': NetworkAmex,
}

// issuers maps a six-digit BIN prefix to the issuing bank.
var issuers = map[string]string{
	"519911": "Access Bank",
	"539983": "GT Bank",
	"468219": "Zenith Bank",
	"516227": "UBA",
	"539941": "GT Bank",
	"524282": "UBA",
	"492069": "Zenith Bank",
}

// FormatAmount renders a kobo amount as naira, e.g. "10000" -> "₦100.00".
// Empty and unparseable input render as "₦0.00".
func FormatAmount(minor string) string {
	amount, err := currencyutils.ParseMinorUnits(minor)
	if err != nil {
		amount = decimal.Zero
	}
	return currencyutils.FormatNaira(currencyutils.ToMajor(amount))
}

// FormatDateTime renders a transaction timestamp as "dd-mm-yyyy, hh:mm AM".
// The terminal layout "dd/mm/yy hh:mm" is read positionally; anything else
// is tried against the ISO layouts and passed through unchanged if neither
// matches.
func FormatDateTime(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if t, ok := dateutils.ParsePositional(s); ok {
		return t.Format(dateutils.LayoutReceipt)
	}
	if t, _, err := dateutils.ParseDate(s); err == nil {
		return t.Format(dateutils.LayoutReceipt)
	}
	return s
}

// FormatDate renders the date portion as "dd/mm/yyyy" for list views.
func FormatDate(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	var t time.Time
	if p, ok := dateutils.ParsePositional(s); ok {
		t = p
	} else if p, _, err := dateutils.ParseDate(s); err == nil {
		t = p
	} else {
		return s
	}
	return t.Format(dateutils.LayoutListDate)
}

// PANDigits strips mask characters and separators from a masked PAN.
func PANDigits(maskedPAN string) string {
	var b strings.Builder
	for _, r := range maskedPAN {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CardNetwork returns explicit unless it is blank or "Unknown", otherwise the
// network inferred from the PAN's leading digit.
func CardNetwork(explicit, maskedPAN string) string {
	if v := strings.TrimSpace(explicit); v != "" && !strings.EqualFold(v, Unknown) {
		return v
	}
	digits := PANDigits(maskedPAN)
	if digits == "" {
		return Unknown
	}
	if network, ok := networks[digits[0]]; ok {
		return network
	}
	return Unknown
}

// IssuerBank returns explicit unless it is blank or "Unknown", otherwise the
// bank registered for the PAN's six-digit prefix.
func IssuerBank(explicit, maskedPAN string) string {
	if v := strings.TrimSpace(explicit); v != "" && !strings.EqualFold(v, Unknown) && !strings.EqualFold(v, UnknownBank) {
		return v
	}
	if strings.TrimSpace(maskedPAN) == "" {
		return Unknown
	}
	digits := PANDigits(maskedPAN)
	if len(digits) >= 6 {
		if bank, ok := issuers[digits[:6]]; ok {
			return bank
		}
	}
	return UnknownBank
}

// NewSTAN draws a zero-padded ten-digit system trace audit number.
func NewSTAN(rng *rand.Rand) string {
	var n uint64
	if rng == nil {
		n = rand.Uint64N(10_000_000_000)
	} else {
		n = rng.Uint64N(10_000_000_000)
	}
	return fmt.Sprintf("%0*d", STANDigits, n)
}

// STAN returns explicit, or a freshly drawn number when it is blank. Callers
// that render the same record more than once must store the result.
func STAN(explicit string, rng *rand.Rand) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	return NewSTAN(rng)
}

// ResponseCode assumes an approved transaction when no code was exported.
func ResponseCode(explicit string) string {
	return Fallback(explicit, DefaultResponseCode)
}

// ResponseMessage assumes an approved transaction when no message was exported.
func ResponseMessage(explicit string) string {
	return Fallback(explicit, DefaultResponseMessage)
}

// Fallback returns value, or def when value is blank.
func Fallback(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}

// OrNA is Fallback with the "N/A" placeholder.
func OrNA(value string) string {
	return Fallback(value, NotAvailable)
}
