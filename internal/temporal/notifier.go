package temporal

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"clearance-engine/internal/domain"
)

// Notifier bridges the synchronous command path to the lifecycle workflow.
// It satisfies clearance.LifecycleNotifier.
type Notifier struct {
	Client           client.Client
	TaskQueue        string
	WorkflowIDPrefix string
}

func (n *Notifier) WorkflowID(clearanceID string) string {
	return fmt.Sprintf("%s-%s", n.WorkflowIDPrefix, clearanceID)
}

func (n *Notifier) RecordCreated(ctx context.Context, rec domain.ClearanceRecord) error {
	_, err := n.Client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        n.WorkflowID(rec.ID),
		TaskQueue: n.TaskQueue,
	}, ClearanceLifecycleWorkflowName, WorkflowInput{ClearanceID: rec.ID})
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return nil
		}
		return fmt.Errorf("start lifecycle workflow for clearance %s: %w", rec.ID, err)
	}
	return nil
}

func (n *Notifier) RecordProgressed(ctx context.Context, clearanceID string) error {
	err := n.Client.SignalWorkflow(ctx, n.WorkflowID(clearanceID), "", ProgressSignalName, ProgressSignal{
		ClearanceID: clearanceID,
	})
	if err != nil {
		// A completed workflow means the record already settled; the nudge
		// has nothing left to do.
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("signal lifecycle workflow for clearance %s: %w", clearanceID, err)
	}
	return nil
}
