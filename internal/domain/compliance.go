package domain

import "time"

// ReviewOverdueGrace is how long past the due date a periodic review stays
// at due before escalating to overdue.
const ReviewOverdueGrace = 30 * 24 * time.Hour

// ReviewStatusAt recomputes the periodic review status against the clock. A
// review with no armed due date is always current.
func ReviewStatusAt(review PeriodicReview, now time.Time) ReviewStatus {
	if review.NextDue == nil || now.Before(*review.NextDue) {
		return ReviewCurrent
	}
	if now.Before(review.NextDue.Add(ReviewOverdueGrace)) {
		return ReviewDue
	}
	return ReviewOverdue
}
