package domain

import (
	"testing"
	"time"
)

func TestReviewStatusAt(t *testing.T) {
	due := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	review := PeriodicReview{NextDue: &due, Frequency: FrequencyAnnual}

	cases := []struct {
		name string
		now  time.Time
		want ReviewStatus
	}{
		{"well before due", due.AddDate(0, -6, 0), ReviewCurrent},
		{"instant before due", due.Add(-time.Second), ReviewCurrent},
		{"at due", due, ReviewDue},
		{"inside grace", due.Add(ReviewOverdueGrace - time.Hour), ReviewDue},
		{"past grace", due.Add(ReviewOverdueGrace), ReviewOverdue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ReviewStatusAt(review, tc.now); got != tc.want {
				t.Fatalf("ReviewStatusAt() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestReviewStatusAtUnarmed(t *testing.T) {
	got := ReviewStatusAt(PeriodicReview{Frequency: FrequencyBiennial}, time.Now())
	if got != ReviewCurrent {
		t.Fatalf("unarmed review status = %s, want current", got)
	}
}
