package domain

import "fmt"

// OverallRisk reduces a risk factor list to the maximum severity among
// unresolved factors. Resolved factors do not count; a record with no
// unresolved factors evaluates to RiskNone.
func OverallRisk(factors []RiskFactor) (RiskLevel, error) {
	overall := RiskNone
	for _, f := range factors {
		if !f.Level.Valid() {
			return RiskNone, fmt.Errorf("%w: risk factor %q has level %q", ErrDataIntegrity, f.ID, f.Level)
		}
		if f.Resolved {
			continue
		}
		if f.Level.Outranks(overall) {
			overall = f.Level
		}
	}
	return overall, nil
}

// HasUnresolvedCritical reports whether any unresolved factor sits at the
// critical level. This is the final-approval hard gate.
func HasUnresolvedCritical(factors []RiskFactor) (bool, error) {
	overall, err := OverallRisk(factors)
	if err != nil {
		return false, err
	}
	return overall == RiskCritical, nil
}
