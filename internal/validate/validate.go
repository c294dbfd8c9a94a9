// Package validate implements the field validation gate that fronts
// every mutating operation. Errors are accumulated across fields so the
// caller gets the complete picture in one response, and free-text input
// is HTML-escaped before it reaches storage.
package validate

import (
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
	"github.com/taufikraden29/moneymoo-api/internal/money"
)

func parseAmount(s string) (decimal.Decimal, error) {
	return money.Parse(s)
}

// Kind restricts the syntactic shape a field value must have.
type Kind int

const (
	// Any accepts every non-empty string.
	Any Kind = iota
	// Amount requires a parseable non-negative monetary amount.
	Amount
	// Date requires an ISO date (YYYY-MM-DD).
	Date
	// Email requires an RFC 5322 address.
	Email
	// OneOf requires the value to match one of Field.Allowed.
	OneOf
)

// Field describes one input field to check.
type Field struct {
	Name      string
	Value     string
	Required  bool
	Kind      Kind
	MinLength int
	MaxLength int
	Min       *decimal.Decimal
	Max       *decimal.Decimal
	Allowed   []string
	// Check runs custom validation after the built-in rules pass.
	// It returns an empty string when the value is acceptable.
	Check func(value string) string
}

// Fields validates every field and returns all failures at once. A
// missing required field short-circuits that field's remaining rules but
// never stops other fields from being checked.
func Fields(fields []Field) []domain.FieldError {
	var errs []domain.FieldError
	for _, f := range fields {
		if msg := f.validate(); msg != "" {
			errs = append(errs, domain.FieldError{Field: f.Name, Message: msg})
		}
	}
	return errs
}

func (f Field) validate() string {
	value := strings.TrimSpace(f.Value)
	if value == "" {
		if f.Required {
			return "is required"
		}
		return ""
	}
	if f.MinLength > 0 && len(value) < f.MinLength {
		return "is too short"
	}
	if f.MaxLength > 0 && len(value) > f.MaxLength {
		return "is too long"
	}

	switch f.Kind {
	case Amount:
		d, err := parseAmount(value)
		if err != nil {
			return "must be a valid amount"
		}
		if f.Min != nil && d.LessThan(*f.Min) {
			return "is below the minimum amount"
		}
		if f.Max != nil && d.GreaterThan(*f.Max) {
			return "exceeds the maximum amount"
		}
	case Date:
		if !validDate(value) {
			return "must be a date in YYYY-MM-DD format"
		}
	case Email:
		if addr, err := mail.ParseAddress(value); err != nil || addr.Address != value {
			return "must be a valid email address"
		}
	case OneOf:
		if !contains(f.Allowed, value) {
			return "is not an allowed value"
		}
	}

	if f.Check != nil {
		if msg := f.Check(value); msg != "" {
			return msg
		}
	}
	return ""
}

func contains(allowed []string, v string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

func validDate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, r := range s {
		if i == 4 || i == 7 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	month := int(s[5]-'0')*10 + int(s[6]-'0')
	day := int(s[8]-'0')*10 + int(s[9]-'0')
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// Sanitize escapes HTML-sensitive characters in free-text input so a
// stored description can never carry markup back out to a client.
func Sanitize(s string) string {
	return htmlEscaper.Replace(strings.TrimSpace(s))
}
