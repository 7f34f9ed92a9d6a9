package rules

import (
	"fmt"
	"strings"

	"github.com/veranovak/lendivest/internal/domain"
)

// Condition is a side-effect-free predicate over a single loan. Conditions
// are built once from strategy configuration and reused, read-only, across
// many loans and many runs.
type Condition interface {
	// Evaluate is a pure function of the loan.
	Evaluate(loan domain.Loan) bool
	// Description is a stable, human-readable rendering of the rule, used for
	// diagnostics and config echo, never for logic.
	Description() string
	// MayRequireRemoteCall reports whether evaluating this condition can
	// trigger a marketplace call (e.g. fields only present on the loan detail
	// endpoint). Filters use it to run cheap conditions first.
	MayRequireRemoteCall() bool
}

type condition struct {
	desc   string
	remote bool
	eval   func(domain.Loan) bool
}

func (c condition) Evaluate(l domain.Loan) bool { return c.eval(l) }
func (c condition) Description() string         { return c.desc }
func (c condition) MayRequireRemoteCall() bool  { return c.remote }

// NumericField names a numeric loan accessor together with the domain its
// thresholds must lie in.
type NumericField[T Number] struct {
	name   string
	domain Domain[T]
	remote bool
	get    func(domain.Loan) T
}

// NewNumericField defines a numeric accessor. remote marks fields whose value
// may require a loan-detail fetch.
func NewNumericField[T Number](name string, d Domain[T], remote bool, get func(domain.Loan) T) NumericField[T] {
	return NumericField[T]{name: name, domain: d, remote: remote, get: get}
}

// Name returns the field's display name.
func (f NumericField[T]) Name() string { return f.name }

// LessThan builds a condition matching loans whose field value is strictly
// below threshold. Construction fails when the threshold violates the field's
// domain.
func LessThan[T Number](f NumericField[T], threshold T) (Condition, error) {
	if err := f.domain.validate(f.name, threshold); err != nil {
		return nil, err
	}
	return condition{
		desc:   fmt.Sprintf("%s less than %v", f.name, threshold),
		remote: f.remote,
		eval:   func(l domain.Loan) bool { return f.get(l) < threshold },
	}, nil
}

// MoreThan builds a condition matching loans whose field value is strictly
// above threshold.
func MoreThan[T Number](f NumericField[T], threshold T) (Condition, error) {
	if err := f.domain.validate(f.name, threshold); err != nil {
		return nil, err
	}
	return condition{
		desc:   fmt.Sprintf("%s more than %v", f.name, threshold),
		remote: f.remote,
		eval:   func(l domain.Loan) bool { return f.get(l) > threshold },
	}, nil
}

// Exact builds a condition matching loans whose field value lies in
// [lo, hi], inclusive on both ends. Construction fails when lo > hi or when
// either bound violates the field's domain.
func Exact[T Number](f NumericField[T], lo, hi T) (Condition, error) {
	if lo > hi {
		return nil, fmt.Errorf("rules: %s range minimum %v exceeds maximum %v", f.name, lo, hi)
	}
	if err := f.domain.validate(f.name, lo); err != nil {
		return nil, err
	}
	if err := f.domain.validate(f.name, hi); err != nil {
		return nil, err
	}
	return condition{
		desc:   fmt.Sprintf("%s between %v and %v", f.name, lo, hi),
		remote: f.remote,
		eval:   func(l domain.Loan) bool { v := f.get(l); return v >= lo && v <= hi },
	}, nil
}

// CategoricalField names a string-valued loan accessor.
type CategoricalField struct {
	name   string
	remote bool
	get    func(domain.Loan) string
}

// NewCategoricalField defines a categorical accessor.
func NewCategoricalField(name string, remote bool, get func(domain.Loan) string) CategoricalField {
	return CategoricalField{name: name, remote: remote, get: get}
}

// Name returns the field's display name.
func (f CategoricalField) Name() string { return f.name }

// OneOf builds a membership condition over the accumulated acceptable values.
// An empty value set matches nothing.
func OneOf(f CategoricalField, values ...string) Condition {
	accepted := make(map[string]bool, len(values))
	for _, v := range values {
		accepted[v] = true
	}
	return condition{
		desc:   fmt.Sprintf("%s one of [%s]", f.name, strings.Join(values, ", ")),
		remote: f.remote,
		eval:   func(l domain.Loan) bool { return accepted[f.get(l)] },
	}
}

// BoolField names a boolean loan accessor.
type BoolField struct {
	name   string
	remote bool
	get    func(domain.Loan) bool
}

// NewBoolField defines a boolean accessor.
func NewBoolField(name string, remote bool, get func(domain.Loan) bool) BoolField {
	return BoolField{name: name, remote: remote, get: get}
}

// Is builds an equality condition between the field's actual value and the
// expected boolean, which makes negation natural: Is(f, false).
func Is(f BoolField, expected bool) Condition {
	return condition{
		desc:   fmt.Sprintf("%s is %t", f.name, expected),
		remote: f.remote,
		eval:   func(l domain.Loan) bool { return f.get(l) == expected },
	}
}
