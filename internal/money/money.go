// Package money is the parse/format boundary for monetary amounts.
// The presentation layer sends locale-formatted strings ("50.000",
// "Rp 50.000,75", "1,234.56"); everything past this boundary is
// decimal.Decimal. No float arithmetic on money anywhere.
package money

import (
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used for display formatting when none is specified.
const DefaultCurrency = "IDR"

// Parse converts a locale-formatted amount string into a non-negative
// decimal. It accepts both comma-decimal ("50.000,75") and dot-decimal
// ("1,234.56") conventions, plus a currency prefix. A string that cannot
// be parsed is an error, never a silent zero.
func Parse(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == ',' || r == '.' || r == '-':
			return r
		}
		return -1
	}, s)

	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("amount %q contains no digits", s)
	}
	if strings.Contains(cleaned, "-") {
		return decimal.Zero, fmt.Errorf("amount %q must not be negative", s)
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		// The later separator is the decimal point, the other is grouping.
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		cleaned = normalizeSingleSeparator(cleaned, ",")
	case lastDot >= 0:
		cleaned = normalizeSingleSeparator(cleaned, ".")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q is not a number", s)
	}
	return d, nil
}

// normalizeSingleSeparator decides whether a lone separator kind is a
// decimal point or a grouping mark. One occurrence followed by at most two
// digits reads as a decimal point ("50.25"); anything else is grouping
// ("50.000", "1.234.567").
func normalizeSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) == 1 {
		if frac := s[strings.Index(s, sep)+1:]; len(frac) <= 2 {
			return strings.Replace(s, sep, ".", 1)
		}
	}
	return strings.ReplaceAll(s, sep, "")
}

// Format renders an amount for display in the given currency
// ("Rp50.000", "$1,234.56"). Unknown currency codes fall back to the
// default.
func Format(d decimal.Decimal, currency string) string {
	cur := gomoney.GetCurrency(currency)
	if cur == nil {
		cur = gomoney.GetCurrency(DefaultCurrency)
	}
	units := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return gomoney.New(units, cur.Code).Display()
}

// FormatDefault renders an amount in the default currency.
func FormatDefault(d decimal.Decimal) string {
	return Format(d, DefaultCurrency)
}
