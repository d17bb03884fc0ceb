package cron

import "testing"

func TestStepExpressionMatchesMultiples(t *testing.T) {
	expr, err := Parse("*/5 * * * *")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !expr.Matches(Time{Minute: 15}) {
		t.Fatal("expected minute 15 to match */5")
	}
	if expr.Matches(Time{Minute: 17}) {
		t.Fatal("expected minute 17 to not match */5")
	}
}

func TestExactExpressionMatchesOnlyThatValue(t *testing.T) {
	expr, err := Parse("30 * * * *")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !expr.Matches(Time{Minute: 30}) {
		t.Fatal("expected minute 30 to match")
	}
	if expr.Matches(Time{Minute: 29}) {
		t.Fatal("expected minute 29 to not match")
	}
}

func TestWildcardMatchesEverything(t *testing.T) {
	expr, err := Parse("* * * * *")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !expr.Matches(Time{Minute: 0, Hour: 23, Dom: 31, Month: 12, Dow: 6}) {
		t.Fatal("expected wildcard-only expression to match everything")
	}
}

func TestParseRejectsWrongFieldCount(t *testing.T) {
	if _, err := Parse("* * * *"); err == nil {
		t.Fatal("expected error for 4-field expression")
	}
}

func TestParseRejectsInvalidStep(t *testing.T) {
	if _, err := Parse("*/0 * * * *"); err == nil {
		t.Fatal("expected error for */0")
	}
	if _, err := Parse("*/x * * * *"); err == nil {
		t.Fatal("expected error for non-numeric step")
	}
}

func TestAllFieldsMustMatchTogether(t *testing.T) {
	expr, err := Parse("0 9 1 1 *")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !expr.Matches(Time{Minute: 0, Hour: 9, Dom: 1, Month: 1, Dow: 3}) {
		t.Fatal("expected full match on Jan 1 at 09:00")
	}
	if expr.Matches(Time{Minute: 0, Hour: 9, Dom: 2, Month: 1, Dow: 3}) {
		t.Fatal("expected mismatch on wrong day-of-month")
	}
}
