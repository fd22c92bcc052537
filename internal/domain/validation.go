package domain

import (
	"fmt"
	"strings"
)

// ValidateNewRequest checks operator input for record creation. All failures
// wrap ErrValidation.
func ValidateNewRequest(req NewRequest) error {
	if strings.TrimSpace(req.CandidateID) == "" {
		return fmt.Errorf("%w: candidate id is required", ErrValidation)
	}
	if !req.Level.Valid() {
		return fmt.Errorf("%w: clearance level %q", ErrValidation, req.Level)
	}
	if !req.Priority.Valid() {
		return fmt.Errorf("%w: priority %q", ErrValidation, req.Priority)
	}
	if req.ReviewFrequency != "" && !req.ReviewFrequency.Valid() {
		return fmt.Errorf("%w: review frequency %q", ErrValidation, req.ReviewFrequency)
	}
	if req.ExpectedDays < 0 || req.ValidForDays < 0 {
		return fmt.Errorf("%w: day counts must be non-negative", ErrValidation)
	}
	return nil
}

// CheckIntegrity verifies every enum in a stored record against its domain
// and the structural stage invariant (exactly one in-progress stage, or
// none once the sequence is settled). Violations wrap ErrDataIntegrity.
func CheckIntegrity(rec ClearanceRecord) error {
	if !rec.Level.Valid() {
		return fmt.Errorf("%w: clearance level %q", ErrDataIntegrity, rec.Level)
	}
	if !rec.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrDataIntegrity, rec.Status)
	}
	if !rec.Priority.Valid() {
		return fmt.Errorf("%w: priority %q", ErrDataIntegrity, rec.Priority)
	}
	if rec.PeriodicReview.Frequency != "" && !rec.PeriodicReview.Frequency.Valid() {
		return fmt.Errorf("%w: review frequency %q", ErrDataIntegrity, rec.PeriodicReview.Frequency)
	}

	active := 0
	for _, stage := range rec.Stages {
		if !stage.Status.Valid() {
			return fmt.Errorf("%w: stage %s status %q", ErrDataIntegrity, stage.ID, stage.Status)
		}
		if stage.Status == StageInProgress {
			active++
		}
	}
	if active > 1 {
		return fmt.Errorf("%w: %d stages in progress", ErrDataIntegrity, active)
	}

	for field, outcome := range rec.BackgroundChecks {
		if !outcome.Valid() {
			return fmt.Errorf("%w: background check %q outcome %q", ErrDataIntegrity, field, outcome)
		}
	}
	for _, doc := range rec.RequiredDocuments {
		if !doc.Status.Valid() {
			return fmt.Errorf("%w: document %q status %q", ErrDataIntegrity, doc.Type, doc.Status)
		}
	}
	for _, f := range rec.RiskFactors {
		if !f.Level.Valid() {
			return fmt.Errorf("%w: risk factor %q level %q", ErrDataIntegrity, f.ID, f.Level)
		}
	}
	return nil
}
