package temporal

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clearance-engine/internal/domain"
)

type fakeStore struct {
	mu      sync.Mutex
	records map[string]domain.ClearanceRecord
	audit   map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[string]domain.ClearanceRecord),
		audit:   make(map[string][]string),
	}
}

func (f *fakeStore) put(rec domain.ClearanceRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.ID] = rec.Clone()
}

func (f *fakeStore) get(id string) domain.ClearanceRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[id].Clone()
}

func (f *fakeStore) GetRecord(_ context.Context, id string) (domain.ClearanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return domain.ClearanceRecord{}, fmt.Errorf("%w: clearance %s", domain.ErrNotFound, id)
	}
	return rec.Clone(), nil
}

func (f *fakeStore) UpdateRecordWithAudit(_ context.Context, rec *domain.ClearanceRecord, entry domain.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.records[rec.ID]
	if !ok {
		return fmt.Errorf("%w: clearance %s", domain.ErrNotFound, rec.ID)
	}
	if existing.Version != rec.Version {
		return fmt.Errorf("%w: clearance %s", domain.ErrConcurrentModification, rec.ID)
	}
	rec.Version++
	f.records[rec.ID] = rec.Clone()
	f.audit[entry.ClearanceID] = append(f.audit[entry.ClearanceID], entry.Decision)
	return nil
}

func liveRecord(id string) domain.ClearanceRecord {
	submitted := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return domain.ClearanceRecord{
		ID:                     id,
		CandidateID:            "cand-1",
		Level:                  domain.LevelSecret,
		Status:                 domain.StatusInProgress,
		Priority:               domain.PriorityMedium,
		SubmittedDate:          submitted,
		ExpectedCompletionDate: submitted.AddDate(0, 3, 0),
		Stages:                 domain.NewStages(submitted, submitted.AddDate(0, 3, 0)),
		PeriodicReview:         domain.PeriodicReview{Frequency: domain.FrequencyAnnual, Status: domain.ReviewCurrent},
		Version:                1,
	}
}

func TestGetLifecycleStateActivity(t *testing.T) {
	store := newFakeStore()
	acts := &Activities{Store: store}
	ctx := context.Background()

	rec := liveRecord("rec-1")
	expiry := rec.SubmittedDate.AddDate(1, 0, 0)
	rec.ExpiryDate = &expiry
	store.put(rec)

	state, err := acts.GetLifecycleStateActivity(ctx, GetLifecycleStateInput{ClearanceID: "rec-1"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, state.Status)
	require.NotNil(t, state.ExpiryDate)
	require.True(t, state.ExpiryDate.Equal(expiry))
	require.Nil(t, state.ReviewNextDue)

	_, err = acts.GetLifecycleStateActivity(ctx, GetLifecycleStateInput{ClearanceID: "missing"})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExpireRecordActivity(t *testing.T) {
	store := newFakeStore()
	acts := &Activities{Store: store}
	ctx := context.Background()

	store.put(liveRecord("rec-1"))
	require.NoError(t, acts.ExpireRecordActivity(ctx, ExpireRecordInput{ClearanceID: "rec-1"}))
	require.Equal(t, domain.StatusExpired, store.get("rec-1").Status)
	require.Equal(t, []string{"expired"}, store.audit["rec-1"])

	// Retried timer must not double-apply.
	require.NoError(t, acts.ExpireRecordActivity(ctx, ExpireRecordInput{ClearanceID: "rec-1"}))
	require.Equal(t, []string{"expired"}, store.audit["rec-1"])
}

func TestExpireRecordActivitySkipsSettledRecord(t *testing.T) {
	store := newFakeStore()
	acts := &Activities{Store: store}

	rec := liveRecord("rec-2")
	rec.Status = domain.StatusRejected
	store.put(rec)

	require.NoError(t, acts.ExpireRecordActivity(context.Background(), ExpireRecordInput{ClearanceID: "rec-2"}))
	require.Equal(t, domain.StatusRejected, store.get("rec-2").Status)
	require.Empty(t, store.audit["rec-2"])
}

func TestMarkReviewStatusActivity(t *testing.T) {
	store := newFakeStore()
	acts := &Activities{Store: store}
	ctx := context.Background()

	rec := liveRecord("rec-3")
	rec.Status = domain.StatusApproved
	nextDue := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	rec.PeriodicReview.NextDue = &nextDue
	store.put(rec)

	require.NoError(t, acts.MarkReviewStatusActivity(ctx, MarkReviewStatusInput{ClearanceID: "rec-3", Status: domain.ReviewDue}))
	require.Equal(t, domain.ReviewDue, store.get("rec-3").PeriodicReview.Status)
	require.Equal(t, []string{"periodic_review_due"}, store.audit["rec-3"])

	// Same status again is a no-op.
	require.NoError(t, acts.MarkReviewStatusActivity(ctx, MarkReviewStatusInput{ClearanceID: "rec-3", Status: domain.ReviewDue}))
	require.Equal(t, []string{"periodic_review_due"}, store.audit["rec-3"])

	require.NoError(t, acts.MarkReviewStatusActivity(ctx, MarkReviewStatusInput{ClearanceID: "rec-3", Status: domain.ReviewOverdue}))
	require.Equal(t, domain.ReviewOverdue, store.get("rec-3").PeriodicReview.Status)
}

func TestMarkReviewStatusActivitySkipsUnapprovedRecord(t *testing.T) {
	store := newFakeStore()
	acts := &Activities{Store: store}

	store.put(liveRecord("rec-4"))
	require.NoError(t, acts.MarkReviewStatusActivity(context.Background(), MarkReviewStatusInput{ClearanceID: "rec-4", Status: domain.ReviewDue}))
	require.Equal(t, domain.ReviewCurrent, store.get("rec-4").PeriodicReview.Status)
}
