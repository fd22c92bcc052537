package clearance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"clearance-engine/internal/domain"
)

// Store is the persistence surface the service needs. Both writes carry the
// audit entry for the change and persist record and entry atomically, so a
// stored mutation always has its line in the decision history.
// UpdateRecordWithAudit is a compare-and-swap on the record's version: it
// bumps rec.Version on success and fails with
// domain.ErrConcurrentModification on a lost race.
type Store interface {
	CreateRecord(ctx context.Context, rec domain.ClearanceRecord, entry domain.AuditEntry) error
	GetRecord(ctx context.Context, id string) (domain.ClearanceRecord, error)
	UpdateRecordWithAudit(ctx context.Context, rec *domain.ClearanceRecord, entry domain.AuditEntry) error
	ListRecords(ctx context.Context, filter domain.Filter, sortKey domain.SortKey) ([]domain.ClearanceRecord, error)
	ListAudit(ctx context.Context, clearanceID string) ([]domain.AuditEntry, error)
}

// LifecycleNotifier links the synchronous command path to the durable
// lifecycle workflow: a start on creation, a nudge after every mutation so
// the workflow re-reads the record and re-arms its timers.
type LifecycleNotifier interface {
	RecordCreated(ctx context.Context, rec domain.ClearanceRecord) error
	RecordProgressed(ctx context.Context, clearanceID string) error
}

const (
	defaultExpectedDays = 90
	defaultFrequency    = domain.FrequencyAnnual
)

// defaultBackgroundChecks is the component set applied when the request
// does not name its own.
var defaultBackgroundChecks = []string{
	"identity",
	"criminal_history",
	"financial",
	"employment_history",
	"references",
}

type Service struct {
	store    Store
	notifier LifecycleNotifier
	now      func() time.Time
}

func NewService(store Store, notifier LifecycleNotifier) *Service {
	return &Service{store: store, notifier: notifier, now: func() time.Time { return time.Now().UTC() }}
}

// Create validates the request, persists a fresh record with the first
// stage in progress, and starts its lifecycle workflow. Workflow start
// failures are logged, not returned: the record is durable and the worker
// reconciles on the next nudge.
func (s *Service) Create(ctx context.Context, req domain.NewRequest) (domain.ClearanceRecord, error) {
	if err := domain.ValidateNewRequest(req); err != nil {
		return domain.ClearanceRecord{}, err
	}

	now := s.now()
	expectedDays := req.ExpectedDays
	if expectedDays == 0 {
		expectedDays = defaultExpectedDays
	}
	frequency := req.ReviewFrequency
	if frequency == "" {
		frequency = defaultFrequency
	}

	rec := domain.ClearanceRecord{
		ID:                     uuid.NewString(),
		CandidateID:            strings.TrimSpace(req.CandidateID),
		CandidateName:          strings.TrimSpace(req.CandidateName),
		CandidateEmail:         strings.TrimSpace(req.CandidateEmail),
		JobTitle:               strings.TrimSpace(req.JobTitle),
		ClientName:             strings.TrimSpace(req.ClientName),
		Level:                  req.Level,
		Status:                 domain.StatusPending,
		Priority:               req.Priority,
		SubmittedDate:          now,
		ExpectedCompletionDate: now.AddDate(0, 0, expectedDays),
		PeriodicReview:         domain.PeriodicReview{Frequency: frequency, Status: domain.ReviewCurrent},
		Version:                1,
	}
	if req.ValidForDays > 0 {
		expiry := now.AddDate(0, 0, req.ValidForDays)
		rec.ExpiryDate = &expiry
	}

	checkFields := req.BackgroundChecks
	if len(checkFields) == 0 {
		checkFields = defaultBackgroundChecks
	}
	rec.BackgroundChecks = make(map[string]domain.CheckOutcome, len(checkFields))
	for _, field := range checkFields {
		rec.BackgroundChecks[field] = domain.CheckPending
	}
	for _, docType := range req.RequiredDocuments {
		rec.RequiredDocuments = append(rec.RequiredDocuments, domain.RequiredDocument{
			Type:   docType,
			Status: domain.DocumentPending,
		})
	}
	rec.Stages = domain.NewStages(now, rec.ExpectedCompletionDate)

	entry := domain.AuditEntry{
		ClearanceID: rec.ID,
		Decision:    "created",
		Detail:      map[string]any{"clearance_level": rec.Level, "priority": rec.Priority},
		Timestamp:   now,
	}
	if err := s.store.CreateRecord(ctx, rec, entry); err != nil {
		return domain.ClearanceRecord{}, err
	}
	if err := s.notifier.RecordCreated(ctx, rec); err != nil {
		log.Printf("start lifecycle workflow clearance_id=%s: %v", rec.ID, err)
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.ClearanceRecord, error) {
	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return domain.ClearanceRecord{}, err
	}
	s.refreshReview(&rec)
	return rec, nil
}

func (s *Service) List(ctx context.Context, filter domain.Filter, sortKey domain.SortKey) ([]domain.ClearanceRecord, error) {
	if sortKey == "" {
		sortKey = domain.SortSubmittedDate
	}
	if !sortKey.Valid() {
		return nil, fmt.Errorf("%w: sort key %q", domain.ErrValidation, sortKey)
	}
	records, err := s.store.ListRecords(ctx, filter, sortKey)
	if err != nil {
		return nil, err
	}
	for i := range records {
		s.refreshReview(&records[i])
	}
	return records, nil
}

// refreshReview recomputes the periodic review status against the clock so
// reads stay accurate between the workflow's escalation writes.
func (s *Service) refreshReview(rec *domain.ClearanceRecord) {
	if rec.Status == domain.StatusApproved {
		rec.PeriodicReview.Status = domain.ReviewStatusAt(rec.PeriodicReview, s.now())
	}
}

func (s *Service) AuditLog(ctx context.Context, id string) ([]domain.AuditEntry, error) {
	if _, err := s.store.GetRecord(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListAudit(ctx, id)
}

// SubmitStageDecision applies one approve/reject decision through the stage
// machine. Gate failures (stage not active, adverse checks, unresolved
// critical risk) surface before anything is persisted.
func (s *Service) SubmitStageDecision(ctx context.Context, id string, stageID domain.StageID, decision domain.Decision, actor, comments string) (domain.ClearanceRecord, error) {
	now := s.now()
	rec, err := s.mutate(ctx, id, func(work *domain.ClearanceRecord) error {
		return domain.ApplyDecision(work, stageID, decision, actor, comments, now)
	}, func(work *domain.ClearanceRecord) domain.AuditEntry {
		return domain.AuditEntry{
			ClearanceID: id,
			StageID:     stageID,
			Decision:    string(decision),
			Actor:       actor,
			Comments:    comments,
			Detail:      map[string]any{"record_status": work.Status},
			Timestamp:   now,
		}
	})
	if err != nil {
		return domain.ClearanceRecord{}, err
	}
	s.nudge(ctx, id)
	return rec, nil
}

// UpdateBackgroundCheck sets one component outcome. Unknown outcomes are a
// data integrity failure per the aggregation contract, not an input
// validation failure.
func (s *Service) UpdateBackgroundCheck(ctx context.Context, id, field string, outcome domain.CheckOutcome) (domain.ClearanceRecord, error) {
	if !outcome.Valid() {
		return domain.ClearanceRecord{}, fmt.Errorf("%w: background check outcome %q", domain.ErrDataIntegrity, outcome)
	}
	rec, err := s.mutate(ctx, id, func(work *domain.ClearanceRecord) error {
		if err := requireLive(work); err != nil {
			return err
		}
		if _, ok := work.BackgroundChecks[field]; !ok {
			return fmt.Errorf("%w: background check component %q", domain.ErrNotFound, field)
		}
		work.BackgroundChecks[field] = outcome
		return nil
	}, func(*domain.ClearanceRecord) domain.AuditEntry {
		return domain.AuditEntry{
			ClearanceID: id,
			Decision:    "background_check_updated",
			Detail:      map[string]any{"field": field, "outcome": outcome},
			Timestamp:   s.now(),
		}
	})
	if err != nil {
		return domain.ClearanceRecord{}, err
	}
	s.nudge(ctx, id)
	return rec, nil
}

// UpdateDocumentStatus moves one required document along
// pending -> submitted -> approved/rejected.
func (s *Service) UpdateDocumentStatus(ctx context.Context, id, docType string, status domain.DocumentStatus) (domain.ClearanceRecord, error) {
	if !status.Valid() {
		return domain.ClearanceRecord{}, fmt.Errorf("%w: document status %q", domain.ErrValidation, status)
	}
	rec, err := s.mutate(ctx, id, func(work *domain.ClearanceRecord) error {
		if err := requireLive(work); err != nil {
			return err
		}
		doc := work.DocumentByType(docType)
		if doc == nil {
			return fmt.Errorf("%w: required document %q", domain.ErrNotFound, docType)
		}
		doc.Status = status
		return nil
	}, func(*domain.ClearanceRecord) domain.AuditEntry {
		return domain.AuditEntry{
			ClearanceID: id,
			Decision:    "document_updated",
			Detail:      map[string]any{"type": docType, "status": status},
			Timestamp:   s.now(),
		}
	})
	if err != nil {
		return domain.ClearanceRecord{}, err
	}
	s.nudge(ctx, id)
	return rec, nil
}

// MarkDocumentSubmitted is the document-vault event path: it flips a
// pending document to submitted and is a no-op when the vault re-delivers
// the notification.
func (s *Service) MarkDocumentSubmitted(ctx context.Context, id, docType string) (domain.ClearanceRecord, error) {
	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return domain.ClearanceRecord{}, err
	}
	if doc := rec.DocumentByType(docType); doc != nil && doc.Status != domain.DocumentPending {
		return rec, nil
	}
	return s.UpdateDocumentStatus(ctx, id, docType, domain.DocumentSubmitted)
}

// HandleVaultEvent is MarkDocumentSubmitted with the consumer's error
// contract folded in: unknown records and settled records are stale or
// replayed notifications and are dropped, and a lost version race gets one
// retry with the same tolerance. Anything else is the caller's to report.
func (s *Service) HandleVaultEvent(ctx context.Context, id, docType string) error {
	_, err := s.MarkDocumentSubmitted(ctx, id, docType)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidMutation) {
		return nil
	}
	if errors.Is(err, domain.ErrConcurrentModification) {
		_, retryErr := s.MarkDocumentSubmitted(ctx, id, docType)
		if retryErr == nil || errors.Is(retryErr, domain.ErrNotFound) || errors.Is(retryErr, domain.ErrInvalidMutation) {
			return nil
		}
		return retryErr
	}
	return err
}

func (s *Service) AddRiskFactor(ctx context.Context, id, category string, level domain.RiskLevel, description string) (domain.ClearanceRecord, error) {
	if !level.Valid() {
		return domain.ClearanceRecord{}, fmt.Errorf("%w: risk level %q", domain.ErrValidation, level)
	}
	if strings.TrimSpace(category) == "" {
		return domain.ClearanceRecord{}, fmt.Errorf("%w: risk category is required", domain.ErrValidation)
	}
	factorID := uuid.NewString()
	rec, err := s.mutate(ctx, id, func(work *domain.ClearanceRecord) error {
		if err := requireLive(work); err != nil {
			return err
		}
		work.RiskFactors = append(work.RiskFactors, domain.RiskFactor{
			ID:          factorID,
			Category:    category,
			Level:       level,
			Description: description,
		})
		return nil
	}, func(*domain.ClearanceRecord) domain.AuditEntry {
		return domain.AuditEntry{
			ClearanceID: id,
			Decision:    "risk_factor_added",
			Detail:      map[string]any{"risk_factor_id": factorID, "category": category, "level": level},
			Timestamp:   s.now(),
		}
	})
	if err != nil {
		return domain.ClearanceRecord{}, err
	}
	s.nudge(ctx, id)
	return rec, nil
}

func (s *Service) ResolveRiskFactor(ctx context.Context, id, factorID string) (domain.ClearanceRecord, error) {
	rec, err := s.mutate(ctx, id, func(work *domain.ClearanceRecord) error {
		if err := requireLive(work); err != nil {
			return err
		}
		factor := work.RiskFactorByID(factorID)
		if factor == nil {
			return fmt.Errorf("%w: risk factor %q", domain.ErrNotFound, factorID)
		}
		factor.Resolved = true
		return nil
	}, func(*domain.ClearanceRecord) domain.AuditEntry {
		return domain.AuditEntry{
			ClearanceID: id,
			Decision:    "risk_factor_resolved",
			Detail:      map[string]any{"risk_factor_id": factorID},
			Timestamp:   s.now(),
		}
	})
	if err != nil {
		return domain.ClearanceRecord{}, err
	}
	s.nudge(ctx, id)
	return rec, nil
}

// SetPriority is operator-settable at any point; priority is independent of
// status.
func (s *Service) SetPriority(ctx context.Context, id string, priority domain.Priority) (domain.ClearanceRecord, error) {
	if !priority.Valid() {
		return domain.ClearanceRecord{}, fmt.Errorf("%w: priority %q", domain.ErrValidation, priority)
	}
	rec, err := s.mutate(ctx, id, func(work *domain.ClearanceRecord) error {
		work.Priority = priority
		return nil
	}, func(*domain.ClearanceRecord) domain.AuditEntry {
		return domain.AuditEntry{
			ClearanceID: id,
			Decision:    "priority_changed",
			Detail:      map[string]any{"priority": priority},
			Timestamp:   s.now(),
		}
	})
	if err != nil {
		return domain.ClearanceRecord{}, err
	}
	return rec, nil
}

// Suspend is the administrative transition out of a terminal status. It has
// no HTTP surface; operations tooling calls it directly.
func (s *Service) Suspend(ctx context.Context, id, actor, reason string) (domain.ClearanceRecord, error) {
	rec, err := s.mutate(ctx, id, func(work *domain.ClearanceRecord) error {
		switch work.Status {
		case domain.StatusApproved, domain.StatusRejected, domain.StatusExpired:
			work.Status = domain.StatusSuspended
			return nil
		default:
			return fmt.Errorf("%w: cannot suspend a %s record", domain.ErrInvalidMutation, work.Status)
		}
	}, func(*domain.ClearanceRecord) domain.AuditEntry {
		return domain.AuditEntry{
			ClearanceID: id,
			Decision:    "suspended",
			Actor:       actor,
			Comments:    reason,
			Timestamp:   s.now(),
		}
	})
	if err != nil {
		return domain.ClearanceRecord{}, err
	}
	s.nudge(ctx, id)
	return rec, nil
}

// mutate runs the read-modify-write cycle: load, integrity-check, apply the
// mutation to a clone, re-derive decision-driven status, persist via CAS
// together with the audit entry entryFor builds from the mutated record.
// Any failure leaves both the stored record and the audit log untouched.
func (s *Service) mutate(ctx context.Context, id string, fn func(*domain.ClearanceRecord) error, entryFor func(*domain.ClearanceRecord) domain.AuditEntry) (domain.ClearanceRecord, error) {
	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return domain.ClearanceRecord{}, err
	}
	if err := domain.CheckIntegrity(rec); err != nil {
		return domain.ClearanceRecord{}, err
	}

	work := rec.Clone()
	if err := fn(&work); err != nil {
		return domain.ClearanceRecord{}, err
	}
	if !work.Status.Terminal() {
		work.Status = domain.DeriveStatus(work.Stages)
	}
	if err := s.store.UpdateRecordWithAudit(ctx, &work, entryFor(&work)); err != nil {
		return domain.ClearanceRecord{}, err
	}
	return work, nil
}

// requireLive rejects mutations that would re-derive state frozen by a
// terminal status.
func requireLive(rec *domain.ClearanceRecord) error {
	if rec.Status.Terminal() {
		return fmt.Errorf("%w: record %s is %s", domain.ErrInvalidMutation, rec.ID, rec.Status)
	}
	return nil
}

func (s *Service) nudge(ctx context.Context, id string) {
	if err := s.notifier.RecordProgressed(ctx, id); err != nil {
		log.Printf("signal lifecycle workflow clearance_id=%s: %v", id, err)
	}
}
