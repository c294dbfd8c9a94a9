package validate

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFieldsAccumulatesAcrossFields(t *testing.T) {
	errs := Fields([]Field{
		{Name: "amount", Value: "", Required: true, Kind: Amount},
		{Name: "description", Value: "", Required: true},
		{Name: "type", Value: "refund", Kind: OneOf, Allowed: []string{"income", "expense"}},
	})
	if len(errs) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %v", len(errs), errs)
	}
	if errs[0].Field != "amount" || errs[1].Field != "description" || errs[2].Field != "type" {
		t.Errorf("unexpected field order: %v", errs)
	}
}

func TestFieldsRequiredShortCircuits(t *testing.T) {
	// An absent required amount reports "required" only, not a parse error too.
	errs := Fields([]Field{{Name: "amount", Value: "  ", Required: true, Kind: Amount}})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if errs[0].Message != "is required" {
		t.Errorf("message = %q, want %q", errs[0].Message, "is required")
	}
}

func TestFieldsOptionalEmptyPasses(t *testing.T) {
	if errs := Fields([]Field{{Name: "due_date", Value: "", Kind: Date}}); len(errs) != 0 {
		t.Errorf("optional empty field should pass, got %v", errs)
	}
}

func TestAmountBounds(t *testing.T) {
	min := decimal.NewFromInt(1)
	cases := []struct {
		value string
		ok    bool
	}{
		{"50.000", true},
		{"0", false},
		{"abc", false},
		{"-5", false},
	}
	for _, tc := range cases {
		errs := Fields([]Field{{Name: "amount", Value: tc.value, Required: true, Kind: Amount, Min: &min}})
		if tc.ok && len(errs) != 0 {
			t.Errorf("amount %q should pass, got %v", tc.value, errs)
		}
		if !tc.ok && len(errs) == 0 {
			t.Errorf("amount %q should fail", tc.value)
		}
	}
}

func TestDateKind(t *testing.T) {
	good := []string{"2026-01-31", "2025-12-01"}
	bad := []string{"2026-1-31", "31-01-2026", "2026-13-01", "2026-00-10", "2026-01-32", "yesterday"}
	for _, v := range good {
		if errs := Fields([]Field{{Name: "date", Value: v, Required: true, Kind: Date}}); len(errs) != 0 {
			t.Errorf("date %q should pass, got %v", v, errs)
		}
	}
	for _, v := range bad {
		if errs := Fields([]Field{{Name: "date", Value: v, Required: true, Kind: Date}}); len(errs) == 0 {
			t.Errorf("date %q should fail", v)
		}
	}
}

func TestEmailKind(t *testing.T) {
	good := []string{"owner@example.com", "first.last@sub.domain.co.id"}
	bad := []string{"not-an-email", "a@", "@example.com", "Owner <owner@example.com>", "two@ex.com three@ex.com"}
	for _, v := range good {
		if errs := Fields([]Field{{Name: "email", Value: v, Required: true, Kind: Email}}); len(errs) != 0 {
			t.Errorf("email %q should pass, got %v", v, errs)
		}
	}
	for _, v := range bad {
		if errs := Fields([]Field{{Name: "email", Value: v, Required: true, Kind: Email}}); len(errs) == 0 {
			t.Errorf("email %q should fail", v)
		}
	}
}

func TestCustomCheck(t *testing.T) {
	errs := Fields([]Field{{
		Name:     "account_id",
		Value:    "not-a-uuid",
		Required: true,
		Check: func(v string) string {
			return "must be a valid identifier"
		},
	}})
	if len(errs) != 1 || errs[0].Message != "must be a valid identifier" {
		t.Errorf("custom check not applied: %v", errs)
	}
}

func TestSanitize(t *testing.T) {
	got := Sanitize(`  <script>alert("x")</script> a/b 'q' `)
	want := `&lt;script&gt;alert(&quot;x&quot;)&lt;&#x2F;script&gt; a&#x2F;b &#x27;q&#x27;`
	if got != want {
		t.Errorf("Sanitize = %q, want %q", got, want)
	}
}
