package domain

import (
	"errors"
	"testing"
)

func TestOverallRisk(t *testing.T) {
	cases := []struct {
		name    string
		factors []RiskFactor
		want    RiskLevel
	}{
		{"no factors", nil, RiskNone},
		{
			"all resolved",
			[]RiskFactor{{ID: "a", Level: RiskCritical, Resolved: true}},
			RiskNone,
		},
		{
			"max of unresolved",
			[]RiskFactor{
				{ID: "a", Level: RiskLow},
				{ID: "b", Level: RiskHigh},
				{ID: "c", Level: RiskMedium},
			},
			RiskHigh,
		},
		{
			"resolved critical ignored",
			[]RiskFactor{
				{ID: "a", Level: RiskCritical, Resolved: true},
				{ID: "b", Level: RiskMedium},
			},
			RiskMedium,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := OverallRisk(tc.factors)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("OverallRisk() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestOverallRiskCorruptLevel(t *testing.T) {
	_, err := OverallRisk([]RiskFactor{{ID: "a", Level: "apocalyptic"}})
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("expected ErrDataIntegrity, got %v", err)
	}
}

func TestHasUnresolvedCritical(t *testing.T) {
	factors := []RiskFactor{{ID: "a", Level: RiskCritical}}
	got, err := HasUnresolvedCritical(factors)
	if err != nil || !got {
		t.Fatalf("HasUnresolvedCritical() = %v, %v; want true, nil", got, err)
	}

	factors[0].Resolved = true
	got, err = HasUnresolvedCritical(factors)
	if err != nil || got {
		t.Fatalf("HasUnresolvedCritical() after resolve = %v, %v; want false, nil", got, err)
	}
}
