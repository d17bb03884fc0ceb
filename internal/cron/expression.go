// Package cron implements the background scheduler's 5-field expression
// matcher and the fixed-capacity job runner that drives it.
package cron

import (
	"fmt"
	"strconv"
	"strings"
)

// Field is one of an expression's five slots, represented as a tagged
// variant rather than the source's sentinel-negative-value encoding for
// step values — clearer and avoids numeric aliasing.
type Field struct {
	kind fieldKind
	n    int // Exact's value, or Step's divisor
}

type fieldKind int

const (
	fieldWildcard fieldKind = iota
	fieldExact
	fieldStep
)

func wildcard() Field   { return Field{kind: fieldWildcard} }
func exact(n int) Field { return Field{kind: fieldExact, n: n} }
func step(n int) Field  { return Field{kind: fieldStep, n: n} }

// matches reports whether value satisfies the field.
func (f Field) matches(value int) bool {
	switch f.kind {
	case fieldWildcard:
		return true
	case fieldExact:
		return value == f.n
	case fieldStep:
		return f.n > 0 && value%f.n == 0
	default:
		return false
	}
}

// Expression is a parsed 5-field minute-hour-dom-month-dow schedule.
type Expression struct {
	Minute Field
	Hour   Field
	Dom    Field
	Month  Field
	Dow    Field
}

// Parse parses a "minute hour dom month dow" expression, where each field
// is "*", "*/N", or a literal integer.
func Parse(expr string) (*Expression, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron: expected 5 fields, got %d", len(fields))
	}

	parsed := make([]Field, 5)
	for i, raw := range fields {
		f, err := parseField(raw)
		if err != nil {
			return nil, fmt.Errorf("cron: field %d (%q): %w", i, raw, err)
		}
		parsed[i] = f
	}

	return &Expression{Minute: parsed[0], Hour: parsed[1], Dom: parsed[2], Month: parsed[3], Dow: parsed[4]}, nil
}

func parseField(raw string) (Field, error) {
	if raw == "*" {
		return wildcard(), nil
	}
	if rest, ok := strings.CutPrefix(raw, "*/"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			return Field{}, fmt.Errorf("invalid step value")
		}
		return step(n), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return Field{}, fmt.Errorf("invalid field")
	}
	return exact(n), nil
}

// Time is the subset of a timestamp's calendar fields an expression tests
// against, decoupling this package from time.Time construction.
type Time struct {
	Minute, Hour, Dom, Month, Dow int
}

// Matches reports whether t satisfies every field of e.
func (e *Expression) Matches(t Time) bool {
	return e.Minute.matches(t.Minute) &&
		e.Hour.matches(t.Hour) &&
		e.Dom.matches(t.Dom) &&
		e.Month.matches(t.Month) &&
		e.Dow.matches(t.Dow)
}
