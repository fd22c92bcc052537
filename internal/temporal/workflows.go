package temporal

import (
	"go.temporal.io/sdk/workflow"

	"clearance-engine/internal/domain"
)

const ClearanceLifecycleWorkflowName = "ClearanceLifecycleWorkflow"

type WorkflowInput struct {
	ClearanceID string
}

type WorkflowResult struct {
	ClearanceID string
	Status      domain.RecordStatus
}

// ClearanceLifecycleWorkflow owns the time-driven side of a record's life:
// expiry while decisions are outstanding, and the periodic-review
// current -> due -> overdue escalation after final approval. Stage
// decisions themselves are applied synchronously by the command service;
// each mutation sends a progress signal so this workflow re-reads the
// record and re-plans its timers.
//
// The workflow completes once the record settles: rejected, suspended,
// expired, or approved with its review escalation delivered. Re-activation
// after an overdue review is an administrative concern outside the engine.
func ClearanceLifecycleWorkflow(ctx workflow.Context, input WorkflowInput) (WorkflowResult, error) {
	signalCh := workflow.GetSignalChannel(ctx, ProgressSignalName)

	for {
		var state LifecycleState
		err := workflow.ExecuteActivity(
			mustActivityContext(ctx, ActivityPolicyGetLifecycleState),
			(*Activities).GetLifecycleStateActivity,
			GetLifecycleStateInput{ClearanceID: input.ClearanceID},
		).Get(ctx, &state)
		if err != nil {
			return WorkflowResult{}, err
		}

		switch state.Status {
		case domain.StatusRejected, domain.StatusSuspended, domain.StatusExpired:
			return WorkflowResult{ClearanceID: input.ClearanceID, Status: state.Status}, nil
		case domain.StatusApproved:
			return runApprovedPhase(ctx, input.ClearanceID, state, signalCh)
		}

		// Decisions outstanding: wait for the next mutation, or expire the
		// record if its window closes first.
		now := workflow.Now(ctx)
		if state.ExpiryDate != nil && !state.ExpiryDate.After(now) {
			if err := expire(ctx, input.ClearanceID); err != nil {
				return WorkflowResult{}, err
			}
			return WorkflowResult{ClearanceID: input.ClearanceID, Status: domain.StatusExpired}, nil
		}

		if state.ExpiryDate == nil {
			var sig ProgressSignal
			signalCh.Receive(ctx, &sig)
			drain(signalCh)
			continue
		}

		timerCtx, cancelTimer := workflow.WithCancel(ctx)
		expired := false
		selector := workflow.NewSelector(ctx)
		selector.AddFuture(workflow.NewTimer(timerCtx, state.ExpiryDate.Sub(now)), func(f workflow.Future) {
			if f.Get(timerCtx, nil) == nil {
				expired = true
			}
		})
		selector.AddReceive(signalCh, func(c workflow.ReceiveChannel, _ bool) {
			var sig ProgressSignal
			c.Receive(ctx, &sig)
		})
		selector.Select(ctx)
		cancelTimer()

		if expired {
			if err := expire(ctx, input.ClearanceID); err != nil {
				return WorkflowResult{}, err
			}
			return WorkflowResult{ClearanceID: input.ClearanceID, Status: domain.StatusExpired}, nil
		}
		drain(signalCh)
	}
}

func runApprovedPhase(ctx workflow.Context, clearanceID string, state LifecycleState, signalCh workflow.ReceiveChannel) (WorkflowResult, error) {
	if state.ReviewNextDue == nil {
		return WorkflowResult{ClearanceID: clearanceID, Status: domain.StatusApproved}, nil
	}

	// An approved clearance can still lapse before its first periodic
	// review comes due.
	now := workflow.Now(ctx)
	if state.ExpiryDate != nil && state.ExpiryDate.Before(*state.ReviewNextDue) {
		if state.ExpiryDate.After(now) {
			if err := workflow.Sleep(ctx, state.ExpiryDate.Sub(now)); err != nil {
				return WorkflowResult{}, err
			}
		}
		if err := expire(ctx, clearanceID); err != nil {
			return WorkflowResult{}, err
		}
		return WorkflowResult{ClearanceID: clearanceID, Status: domain.StatusExpired}, nil
	}

	if state.ReviewNextDue.After(now) {
		if err := workflow.Sleep(ctx, state.ReviewNextDue.Sub(now)); err != nil {
			return WorkflowResult{}, err
		}
	}
	if err := markReview(ctx, clearanceID, domain.ReviewDue); err != nil {
		return WorkflowResult{}, err
	}
	if err := workflow.Sleep(ctx, domain.ReviewOverdueGrace); err != nil {
		return WorkflowResult{}, err
	}
	if err := markReview(ctx, clearanceID, domain.ReviewOverdue); err != nil {
		return WorkflowResult{}, err
	}
	drain(signalCh)
	return WorkflowResult{ClearanceID: clearanceID, Status: domain.StatusApproved}, nil
}

func expire(ctx workflow.Context, clearanceID string) error {
	return workflow.ExecuteActivity(
		mustActivityContext(ctx, ActivityPolicyExpireRecord),
		(*Activities).ExpireRecordActivity,
		ExpireRecordInput{ClearanceID: clearanceID},
	).Get(ctx, nil)
}

func markReview(ctx workflow.Context, clearanceID string, status domain.ReviewStatus) error {
	return workflow.ExecuteActivity(
		mustActivityContext(ctx, ActivityPolicyMarkReviewStatus),
		(*Activities).MarkReviewStatusActivity,
		MarkReviewStatusInput{ClearanceID: clearanceID, Status: status},
	).Get(ctx, nil)
}

func drain(signalCh workflow.ReceiveChannel) {
	for {
		var sig ProgressSignal
		if !signalCh.ReceiveAsync(&sig) {
			return
		}
	}
}
