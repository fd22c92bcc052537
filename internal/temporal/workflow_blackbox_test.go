package temporal

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.temporal.io/sdk/testsuite"

	"clearance-engine/internal/domain"
)

func newLifecycleEnv(store *fakeStore) *testsuite.TestWorkflowEnvironment {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	acts := &Activities{Store: store}
	env.RegisterWorkflow(ClearanceLifecycleWorkflow)
	env.RegisterActivity(acts.GetLifecycleStateActivity)
	env.RegisterActivity(acts.ExpireRecordActivity)
	env.RegisterActivity(acts.MarkReviewStatusActivity)
	return env
}

var _ = Describe("ClearanceLifecycleWorkflow blackbox", func() {
	It("expires a record whose window closes without a final decision", func() {
		store := newFakeStore()
		rec := liveRecord("rec-exp")
		expiry := time.Now().UTC().Add(45 * 24 * time.Hour)
		rec.ExpiryDate = &expiry
		store.put(rec)

		env := newLifecycleEnv(store)
		env.ExecuteWorkflow(ClearanceLifecycleWorkflow, WorkflowInput{ClearanceID: "rec-exp"})

		Expect(env.IsWorkflowCompleted()).To(BeTrue())
		Expect(env.GetWorkflowError()).NotTo(HaveOccurred())

		var result WorkflowResult
		Expect(env.GetWorkflowResult(&result)).To(Succeed())
		Expect(result.Status).To(Equal(domain.StatusExpired))
		Expect(store.get("rec-exp").Status).To(Equal(domain.StatusExpired))
		Expect(store.audit["rec-exp"]).To(Equal([]string{"expired"}))
	})

	It("re-plans on progress signals and completes when the record is rejected", func() {
		store := newFakeStore()
		rec := liveRecord("rec-rej")
		expiry := time.Now().UTC().Add(90 * 24 * time.Hour)
		rec.ExpiryDate = &expiry
		store.put(rec)

		env := newLifecycleEnv(store)
		env.RegisterDelayedCallback(func() {
			updated := store.get("rec-rej")
			updated.Status = domain.StatusRejected
			store.put(updated)
			env.SignalWorkflow(ProgressSignalName, ProgressSignal{ClearanceID: "rec-rej", Reason: "stage_decision"})
		}, time.Hour)

		env.ExecuteWorkflow(ClearanceLifecycleWorkflow, WorkflowInput{ClearanceID: "rec-rej"})

		Expect(env.IsWorkflowCompleted()).To(BeTrue())
		Expect(env.GetWorkflowError()).NotTo(HaveOccurred())

		var result WorkflowResult
		Expect(env.GetWorkflowResult(&result)).To(Succeed())
		Expect(result.Status).To(Equal(domain.StatusRejected))
		// The rejection decision wins; the expiry timer never fires.
		Expect(store.get("rec-rej").Status).To(Equal(domain.StatusRejected))
	})

	It("escalates the periodic review after final approval", func() {
		store := newFakeStore()
		store.put(liveRecord("rec-app"))

		env := newLifecycleEnv(store)
		env.RegisterDelayedCallback(func() {
			updated := store.get("rec-app")
			updated.Status = domain.StatusApproved
			nextDue := time.Now().UTC().AddDate(1, 0, 0)
			updated.PeriodicReview.NextDue = &nextDue
			store.put(updated)
			env.SignalWorkflow(ProgressSignalName, ProgressSignal{ClearanceID: "rec-app", Reason: "final_approval"})
		}, time.Hour)

		env.ExecuteWorkflow(ClearanceLifecycleWorkflow, WorkflowInput{ClearanceID: "rec-app"})

		Expect(env.IsWorkflowCompleted()).To(BeTrue())
		Expect(env.GetWorkflowError()).NotTo(HaveOccurred())

		var result WorkflowResult
		Expect(env.GetWorkflowResult(&result)).To(Succeed())
		Expect(result.Status).To(Equal(domain.StatusApproved))

		final := store.get("rec-app")
		Expect(final.PeriodicReview.Status).To(Equal(domain.ReviewOverdue))
		Expect(store.audit["rec-app"]).To(Equal([]string{"periodic_review_due", "periodic_review_overdue"}))
	})
})
