package temporal

import (
	"context"
	"time"

	"clearance-engine/internal/domain"
)

// ActivityStore is the slice of the record store the lifecycle activities
// need. Every write goes through the same versioned compare-and-swap as the
// synchronous command path; a lost race fails the activity and Temporal's
// retry policy re-runs it against fresh state.
type ActivityStore interface {
	GetRecord(ctx context.Context, id string) (domain.ClearanceRecord, error)
	UpdateRecordWithAudit(ctx context.Context, rec *domain.ClearanceRecord, entry domain.AuditEntry) error
}

type Activities struct {
	Store ActivityStore
}

type GetLifecycleStateInput struct {
	ClearanceID string
}

// LifecycleState is the snapshot the workflow plans its timers from.
type LifecycleState struct {
	Status        domain.RecordStatus
	ExpiryDate    *time.Time
	ReviewNextDue *time.Time
	ReviewStatus  domain.ReviewStatus
}

type ExpireRecordInput struct {
	ClearanceID string
}

type MarkReviewStatusInput struct {
	ClearanceID string
	Status      domain.ReviewStatus
}

func (a *Activities) GetLifecycleStateActivity(ctx context.Context, input GetLifecycleStateInput) (LifecycleState, error) {
	rec, err := a.Store.GetRecord(ctx, input.ClearanceID)
	if err != nil {
		return LifecycleState{}, err
	}
	return LifecycleState{
		Status:        rec.Status,
		ExpiryDate:    rec.ExpiryDate,
		ReviewNextDue: rec.PeriodicReview.NextDue,
		ReviewStatus:  rec.PeriodicReview.Status,
	}, nil
}

// ExpireRecordActivity moves a record past its expiry date to expired. It
// is a no-op if a decision already settled the record, so a late timer
// never overwrites a terminal status.
func (a *Activities) ExpireRecordActivity(ctx context.Context, input ExpireRecordInput) error {
	rec, err := a.Store.GetRecord(ctx, input.ClearanceID)
	if err != nil {
		return err
	}
	if rec.Status == domain.StatusRejected || rec.Status == domain.StatusSuspended || rec.Status == domain.StatusExpired {
		return nil
	}
	rec.Status = domain.StatusExpired
	return a.Store.UpdateRecordWithAudit(ctx, &rec, domain.AuditEntry{
		ClearanceID: input.ClearanceID,
		Decision:    "expired",
		Timestamp:   time.Now().UTC(),
	})
}

// MarkReviewStatusActivity records a periodic-review escalation. Only
// approved records carry a live review obligation.
func (a *Activities) MarkReviewStatusActivity(ctx context.Context, input MarkReviewStatusInput) error {
	rec, err := a.Store.GetRecord(ctx, input.ClearanceID)
	if err != nil {
		return err
	}
	if rec.Status != domain.StatusApproved || rec.PeriodicReview.Status == input.Status {
		return nil
	}
	rec.PeriodicReview.Status = input.Status
	return a.Store.UpdateRecordWithAudit(ctx, &rec, domain.AuditEntry{
		ClearanceID: input.ClearanceID,
		Decision:    "periodic_review_" + string(input.Status),
		Detail:      map[string]any{"next_due": rec.PeriodicReview.NextDue},
		Timestamp:   time.Now().UTC(),
	})
}
