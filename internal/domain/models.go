package domain

import "time"

// ClearanceRecord is one candidate+job clearance request. Status, stage
// progression, and the periodic review block are derived state: callers
// never set them directly, they fall out of ApplyDecision and the lifecycle
// workflow.
type ClearanceRecord struct {
	ID             string `json:"id"`
	CandidateID    string `json:"candidate_id"`
	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email"`
	JobTitle       string `json:"job_title"`
	ClientName     string `json:"client_name"`

	Level    ClearanceLevel `json:"clearance_level"`
	Status   RecordStatus   `json:"status"`
	Priority Priority       `json:"priority"`

	SubmittedDate          time.Time  `json:"submitted_date"`
	ExpectedCompletionDate time.Time  `json:"expected_completion_date"`
	ActualCompletionDate   *time.Time `json:"actual_completion_date,omitempty"`
	ExpiryDate             *time.Time `json:"expiry_date,omitempty"`

	BackgroundChecks  map[string]CheckOutcome `json:"background_checks"`
	RequiredDocuments []RequiredDocument      `json:"required_documents"`
	RiskFactors       []RiskFactor            `json:"risk_factors"`
	Stages            []WorkflowStage         `json:"workflow_stages"`
	PeriodicReview    PeriodicReview          `json:"periodic_review"`

	Version int64 `json:"version"`
}

type WorkflowStage struct {
	ID            StageID     `json:"id"`
	Status        StageStatus `json:"status"`
	DueDate       time.Time   `json:"due_date"`
	CompletedDate *time.Time  `json:"completed_date,omitempty"`
	Actor         string      `json:"actor,omitempty"`
	Comments      string      `json:"comments,omitempty"`
}

type RequiredDocument struct {
	Type   string         `json:"type"`
	Status DocumentStatus `json:"status"`
}

type RiskFactor struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Level       RiskLevel `json:"level"`
	Description string    `json:"description,omitempty"`
	Resolved    bool      `json:"resolved"`
}

type PeriodicReview struct {
	NextDue   *time.Time      `json:"next_due,omitempty"`
	Frequency ReviewFrequency `json:"frequency"`
	Status    ReviewStatus    `json:"status"`
}

// AuditEntry is one immutable line in a record's decision log.
type AuditEntry struct {
	ClearanceID string         `json:"clearance_id"`
	StageID     StageID        `json:"stage_id,omitempty"`
	Decision    string         `json:"decision"`
	Actor       string         `json:"actor,omitempty"`
	Comments    string         `json:"comments,omitempty"`
	Detail      map[string]any `json:"detail,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// NewRequest carries the operator input for record creation.
type NewRequest struct {
	CandidateID       string
	CandidateName     string
	CandidateEmail    string
	JobTitle          string
	ClientName        string
	Level             ClearanceLevel
	Priority          Priority
	ReviewFrequency   ReviewFrequency
	ExpectedDays      int
	ValidForDays      int
	BackgroundChecks  []string
	RequiredDocuments []string
}

// StageByID returns a pointer into the record's stage slice, or nil when the
// id is not part of the sequence.
func (r *ClearanceRecord) StageByID(id StageID) *WorkflowStage {
	for i := range r.Stages {
		if r.Stages[i].ID == id {
			return &r.Stages[i]
		}
	}
	return nil
}

// RiskFactorByID returns a pointer into the record's risk factor slice, or
// nil when absent.
func (r *ClearanceRecord) RiskFactorByID(id string) *RiskFactor {
	for i := range r.RiskFactors {
		if r.RiskFactors[i].ID == id {
			return &r.RiskFactors[i]
		}
	}
	return nil
}

// DocumentByType returns a pointer into the record's required document
// slice, or nil when the type is not tracked.
func (r *ClearanceRecord) DocumentByType(docType string) *RequiredDocument {
	for i := range r.RequiredDocuments {
		if r.RequiredDocuments[i].Type == docType {
			return &r.RequiredDocuments[i]
		}
	}
	return nil
}

// Clone deep-copies the record so callers can mutate a working copy without
// touching the stored one.
func (r ClearanceRecord) Clone() ClearanceRecord {
	out := r
	if r.BackgroundChecks != nil {
		out.BackgroundChecks = make(map[string]CheckOutcome, len(r.BackgroundChecks))
		for k, v := range r.BackgroundChecks {
			out.BackgroundChecks[k] = v
		}
	}
	out.RequiredDocuments = append([]RequiredDocument(nil), r.RequiredDocuments...)
	out.RiskFactors = append([]RiskFactor(nil), r.RiskFactors...)
	out.Stages = append([]WorkflowStage(nil), r.Stages...)
	if r.ActualCompletionDate != nil {
		t := *r.ActualCompletionDate
		out.ActualCompletionDate = &t
	}
	if r.ExpiryDate != nil {
		t := *r.ExpiryDate
		out.ExpiryDate = &t
	}
	if r.PeriodicReview.NextDue != nil {
		t := *r.PeriodicReview.NextDue
		out.PeriodicReview.NextDue = &t
	}
	return out
}
