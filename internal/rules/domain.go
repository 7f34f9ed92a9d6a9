// Package rules implements the declarative loan-filtering engine: primitive
// conditions over loan fields, validated thresholds, and boolean filter
// composition with cost-aware evaluation ordering.
package rules

import "fmt"

// Number constrains the numeric types conditions can range over.
type Number interface {
	~int | ~int64 | ~float64
}

// Domain is the closed numeric interval a condition threshold must lie
// within. A nil bound leaves that side of the interval open.
type Domain[T Number] struct {
	Min *T
	Max *T
}

// NewDomain builds a Domain with both bounds set.
func NewDomain[T Number](min, max T) Domain[T] {
	return Domain[T]{Min: &min, Max: &max}
}

// AtLeast builds a Domain with only a lower bound.
func AtLeast[T Number](min T) Domain[T] {
	return Domain[T]{Min: &min}
}

// Test reports whether v lies within the interval, inclusive on both ends.
func (d Domain[T]) Test(v T) bool {
	if d.Min != nil && v < *d.Min {
		return false
	}
	if d.Max != nil && v > *d.Max {
		return false
	}
	return true
}

// String renders the interval for diagnostics, e.g. "<0; 100>".
func (d Domain[T]) String() string {
	lo, hi := "-inf", "+inf"
	if d.Min != nil {
		lo = fmt.Sprintf("%v", *d.Min)
	}
	if d.Max != nil {
		hi = fmt.Sprintf("%v", *d.Max)
	}
	return fmt.Sprintf("<%s; %s>", lo, hi)
}

// validate returns an error when v falls outside the domain. Used by
// condition constructors so that bad thresholds fail at build time, long
// before any loan is evaluated.
func (d Domain[T]) validate(what string, v T) error {
	if !d.Test(v) {
		return fmt.Errorf("rules: %s threshold %v outside domain %s", what, v, d)
	}
	return nil
}
