package domain

import (
	"fmt"
	"time"
)

// NewStages builds the five-stage approval sequence for a fresh record. The
// first stage starts in progress; stage due dates are spread evenly across
// the window between submission and expected completion.
func NewStages(submitted, expectedCompletion time.Time) []WorkflowStage {
	window := expectedCompletion.Sub(submitted)
	if window <= 0 {
		window = time.Duration(len(StageOrder)) * 24 * time.Hour
	}
	step := window / time.Duration(len(StageOrder))

	stages := make([]WorkflowStage, 0, len(StageOrder))
	for i, id := range StageOrder {
		status := StagePending
		if i == 0 {
			status = StageInProgress
		}
		stages = append(stages, WorkflowStage{
			ID:      id,
			Status:  status,
			DueDate: submitted.Add(time.Duration(i+1) * step),
		})
	}
	return stages
}

// ActiveStage returns the index of the single in-progress stage, or -1 when
// every stage is settled (fully approved, or frozen by a rejection).
func ActiveStage(stages []WorkflowStage) int {
	for i := range stages {
		if stages[i].Status == StageInProgress {
			return i
		}
	}
	return -1
}

// DeriveStatus computes the decision-driven record status from the stage
// sequence. A fresh record keeps status pending even though its first stage
// starts in progress; the record only becomes in_progress once a decision
// lands. Expired and suspended are set out of band and never derived here.
func DeriveStatus(stages []WorkflowStage) RecordStatus {
	decided := false
	for i := range stages {
		switch stages[i].Status {
		case StageRejected:
			return StatusRejected
		case StageApproved:
			decided = true
		}
	}
	if len(stages) > 0 && stages[len(stages)-1].Status == StageApproved {
		return StatusApproved
	}
	if decided {
		return StatusInProgress
	}
	return StatusPending
}

// ApplyDecision runs one stage decision through the state machine, mutating
// the record in place. Callers operate on a Clone and persist only on nil
// error; a gate failure therefore never leaves a half-applied record.
//
// Transitions are append-only: a settled stage is never reopened, and a
// rejection freezes every later stage at pending permanently.
func ApplyDecision(rec *ClearanceRecord, stageID StageID, decision Decision, actor, comments string, now time.Time) error {
	if !decision.Valid() {
		return fmt.Errorf("%w: decision %q", ErrValidation, decision)
	}
	if rec.Status == StatusExpired || rec.Status == StatusSuspended {
		return fmt.Errorf("%w: record %s is %s", ErrInvalidMutation, rec.ID, rec.Status)
	}

	stage := rec.StageByID(stageID)
	if stage == nil {
		return fmt.Errorf("%w: unknown stage %q", ErrValidation, stageID)
	}
	if stage.Status != StageInProgress {
		return fmt.Errorf("%w: stage %s is %s", ErrStageNotActive, stageID, stage.Status)
	}

	if decision == DecisionApprove {
		if err := checkApprovalGates(rec, stageID); err != nil {
			return err
		}
	}

	completed := now
	stage.CompletedDate = &completed
	stage.Actor = actor
	stage.Comments = comments

	switch decision {
	case DecisionApprove:
		stage.Status = StageApproved
		if next := nextStage(rec, stageID); next != nil {
			next.Status = StageInProgress
		}
	case DecisionReject:
		stage.Status = StageRejected
	}

	rec.Status = DeriveStatus(rec.Stages)
	if rec.Status == StatusApproved {
		rec.ActualCompletionDate = &completed
		armPeriodicReview(rec, completed)
	}
	return nil
}

func checkApprovalGates(rec *ClearanceRecord, stageID StageID) error {
	switch stageID {
	case StageInvestigation:
		summary, err := AggregateChecks(rec.BackgroundChecks)
		if err != nil {
			return err
		}
		if summary.Classification != ChecksClear {
			return fmt.Errorf("%w: background checks are %s", ErrPrerequisiteNotMet, summary.Classification)
		}
	case StageFinalApproval:
		critical, err := HasUnresolvedCritical(rec.RiskFactors)
		if err != nil {
			return err
		}
		if critical {
			return fmt.Errorf("%w: unresolved critical risk factor", ErrRiskGate)
		}
	}
	return nil
}

func nextStage(rec *ClearanceRecord, stageID StageID) *WorkflowStage {
	for i, id := range StageOrder {
		if id == stageID && i+1 < len(StageOrder) {
			return rec.StageByID(StageOrder[i+1])
		}
	}
	return nil
}

func armPeriodicReview(rec *ClearanceRecord, completed time.Time) {
	years := frequencyYears[rec.PeriodicReview.Frequency]
	if years == 0 {
		years = frequencyYears[FrequencyAnnual]
	}
	nextDue := completed.AddDate(years, 0, 0)
	rec.PeriodicReview.NextDue = &nextDue
	rec.PeriodicReview.Status = ReviewCurrent
}
