package rules

import (
	"fmt"

	"github.com/veranovak/lendivest/internal/domain"
)

// percentDomain bounds every relative threshold: a ratio expressed as a
// percentage must lie in [0, 100].
var percentDomain = NewDomain(0.0, 100.0)

// ratio computes part/sum as a percentage. A zero denominator has no
// meaningful percentage, so relative conditions treat it as not matching
// rather than letting IEEE Inf/NaN semantics leak through. The second return
// is false in that case.
func ratio(part, sum float64) (float64, bool) {
	if sum == 0 {
		return 0, false
	}
	return part / sum * 100, true
}

func relativeName(part, sum NumericField[float64]) string {
	return fmt.Sprintf("%s/%s", part.name, sum.name)
}

// RelativeLessThan matches loans where part/sum, as a percentage, is strictly
// below pct. Construction fails when pct is outside [0, 100].
func RelativeLessThan(part, sum NumericField[float64], pct float64) (Condition, error) {
	name := relativeName(part, sum)
	if err := percentDomain.validate(name, pct); err != nil {
		return nil, err
	}
	return condition{
		desc:   fmt.Sprintf("%s less than %v%%", name, pct),
		remote: part.remote || sum.remote,
		eval: func(l domain.Loan) bool {
			r, ok := ratio(part.get(l), sum.get(l))
			return ok && r < pct
		},
	}, nil
}

// RelativeMoreThan matches loans where part/sum, as a percentage, is strictly
// above pct.
func RelativeMoreThan(part, sum NumericField[float64], pct float64) (Condition, error) {
	name := relativeName(part, sum)
	if err := percentDomain.validate(name, pct); err != nil {
		return nil, err
	}
	return condition{
		desc:   fmt.Sprintf("%s more than %v%%", name, pct),
		remote: part.remote || sum.remote,
		eval: func(l domain.Loan) bool {
			r, ok := ratio(part.get(l), sum.get(l))
			return ok && r > pct
		},
	}, nil
}

// RelativeExact matches loans where part/sum, as a percentage, lies in
// [lo, hi] inclusive. Construction fails when lo > hi or either bound is
// outside [0, 100].
func RelativeExact(part, sum NumericField[float64], lo, hi float64) (Condition, error) {
	name := relativeName(part, sum)
	if lo > hi {
		return nil, fmt.Errorf("rules: %s range minimum %v exceeds maximum %v", name, lo, hi)
	}
	if err := percentDomain.validate(name, lo); err != nil {
		return nil, err
	}
	if err := percentDomain.validate(name, hi); err != nil {
		return nil, err
	}
	return condition{
		desc:   fmt.Sprintf("%s between %v%% and %v%%", name, lo, hi),
		remote: part.remote || sum.remote,
		eval: func(l domain.Loan) bool {
			r, ok := ratio(part.get(l), sum.get(l))
			return ok && r >= lo && r <= hi
		},
	}, nil
}
