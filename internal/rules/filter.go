package rules

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/veranovak/lendivest/internal/domain"
)

// Matcher is anything that can accept or reject a loan.
type Matcher interface {
	Matches(loan domain.Loan) bool
	MayRequireRemoteCall() bool
	Description() string
}

// filterSeq hands out sequence ids used only for stable ordering and display,
// never for equality.
var filterSeq atomic.Int64

// Filter composes conditions into an accept set and a reject-override set.
// A loan passes iff every accept condition holds AND NOT (the reject-unless
// set is non-empty and every reject-unless condition holds). An empty
// reject-unless set never blocks a match. The asymmetry is deliberate: the
// second set is a conjunction that overrides the first, not more accept
// conditions.
//
// Within each set conditions are sorted once, at construction, so that
// conditions that cannot require a remote call run before those that can,
// letting cheap local checks short-circuit evaluation. Filters are immutable
// after construction.
type Filter struct {
	id           int64
	accept       []Condition
	rejectUnless []Condition
	remote       bool
}

// NewFilter builds a Filter from the given condition sets. Both slices are
// copied; the caller may reuse them.
func NewFilter(accept, rejectUnless []Condition) *Filter {
	f := &Filter{
		id:           filterSeq.Add(1),
		accept:       sortByCost(accept),
		rejectUnless: sortByCost(rejectUnless),
	}
	for _, c := range f.accept {
		f.remote = f.remote || c.MayRequireRemoteCall()
	}
	for _, c := range f.rejectUnless {
		f.remote = f.remote || c.MayRequireRemoteCall()
	}
	return f
}

// sortByCost returns a stable copy ordered local-first.
func sortByCost(conds []Condition) []Condition {
	out := make([]Condition, len(conds))
	copy(out, conds)
	sort.SliceStable(out, func(i, j int) bool {
		return !out[i].MayRequireRemoteCall() && out[j].MayRequireRemoteCall()
	})
	return out
}

// ID returns the filter's sequence id, assigned at construction.
func (f *Filter) ID() int64 { return f.id }

// Matches evaluates the composition rule against the loan.
func (f *Filter) Matches(loan domain.Loan) bool {
	if !all(f.accept, loan) {
		return false
	}
	if len(f.rejectUnless) > 0 && all(f.rejectUnless, loan) {
		return false
	}
	return true
}

func all(conds []Condition, loan domain.Loan) bool {
	for _, c := range conds {
		if !c.Evaluate(loan) {
			return false
		}
	}
	return true
}

// MayRequireRemoteCall reports whether any contained condition may trigger a
// marketplace call.
func (f *Filter) MayRequireRemoteCall() bool { return f.remote }

// Description renders the filter for config echo.
func (f *Filter) Description() string {
	var b strings.Builder
	b.WriteString("accept[")
	b.WriteString(describe(f.accept))
	b.WriteString("]")
	if len(f.rejectUnless) > 0 {
		b.WriteString(" unless[")
		b.WriteString(describe(f.rejectUnless))
		b.WriteString("]")
	}
	return b.String()
}

func describe(conds []Condition) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.Description()
	}
	return strings.Join(parts, " and ")
}

// Negate returns a matcher that accepts exactly the loans this filter
// rejects. The filter is rewrapped as a whole; inner conditions are not
// individually negated.
func (f *Filter) Negate() Matcher {
	return negated{inner: f}
}

type negated struct {
	inner *Filter
}

func (n negated) Matches(loan domain.Loan) bool { return !n.inner.Matches(loan) }
func (n negated) MayRequireRemoteCall() bool    { return n.inner.MayRequireRemoteCall() }
func (n negated) Description() string           { return "not(" + n.inner.Description() + ")" }
