//go:build system

package system_test

import (
	"context"
	"net/http"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.temporal.io/sdk/client"

	"clearance-engine/internal/domain"
)

var _ = Describe("System blackbox happy path", Ordered, func() {
	var cfg systemTestConfig
	var baseURL string

	BeforeAll(func() {
		if os.Getenv("RUN_BLACKBOX_SYSTEM_TEST") != "1" {
			Skip("set RUN_BLACKBOX_SYSTEM_TEST=1 to run real blackbox system test")
		}

		cfg = loadSystemTestConfig()
		baseURL = strings.TrimRight(cfg.APIBaseURL, "/")

		By("failing fast if infrastructure is unreachable")
		Expect(waitForPostgres(cfg.PostgresDSN, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForTemporal(cfg.TemporalAddress, cfg.TemporalNamespace, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForHTTPStatus(baseURL+cfg.APIHealthPath, 200, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForHTTPStatus(baseURL+cfg.APIReadyPath, 200, cfg.PreflightTimeout)).To(Succeed())
	})

	It("walks a clearance request from submission to final approval over HTTP", func() {
		By("submitting a new clearance request")
		var rec domain.ClearanceRecord
		status, err := postJSON(baseURL+"/v1/clearances", map[string]any{
			"candidate_id":    "sys-cand-001",
			"candidate_name":  "Dana Whitfield",
			"candidate_email": "dana.whitfield@example.com",
			"job_title":       "Systems Analyst",
			"client_name":     "Meridian Defence",
			"clearance_level": "secret",
			"priority":        "high",
		}, &rec)
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusCreated))
		Expect(rec.ID).ToNot(BeEmpty())
		Expect(rec.Status).To(Equal(domain.StatusPending))
		Expect(rec.Stages).To(HaveLen(len(domain.StageOrder)))
		Expect(rec.Stages[0].Status).To(Equal(domain.StageInProgress))
		Expect(rec.Version).To(Equal(int64(1)))

		recordURL := baseURL + "/v1/clearances/" + rec.ID

		By("verifying the lifecycle workflow was started")
		temporalClient, err := client.Dial(client.Options{
			HostPort:  cfg.TemporalAddress,
			Namespace: cfg.TemporalNamespace,
		})
		Expect(err).ToNot(HaveOccurred())
		defer temporalClient.Close()
		_, err = temporalClient.DescribeWorkflowExecution(context.Background(), cfg.WorkflowIDPrefix+"-"+rec.ID, "")
		Expect(err).ToNot(HaveOccurred())

		By("rejecting a decision on a stage that is not active")
		var errBody errorResponse
		status, err = postJSON(recordURL+"/decisions", map[string]any{
			"stage_id": "investigation",
			"decision": "approve",
			"actor":    "officer.reed",
		}, &errBody)
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusConflict))
		Expect(errBody.Code).To(Equal("stage_not_active"))

		By("approving initial review")
		status, err = postJSON(recordURL+"/decisions", map[string]any{
			"stage_id": "initial_review",
			"decision": "approve",
			"actor":    "officer.reed",
		}, &rec)
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(rec.Status).To(Equal(domain.StatusInProgress))

		By("blocking investigation approval while checks are pending")
		status, err = postJSON(recordURL+"/decisions", map[string]any{
			"stage_id": "investigation",
			"decision": "approve",
			"actor":    "officer.reed",
		}, &errBody)
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusConflict))
		Expect(errBody.Code).To(Equal("prerequisite_not_met"))

		By("escalating the record priority")
		status, err = putJSON(recordURL+"/priority", map[string]any{"priority": "urgent"}, &rec)
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(rec.Priority).To(Equal(domain.PriorityUrgent))

		By("recording clear outcomes for every background check")
		for field := range rec.BackgroundChecks {
			status, err = postJSON(recordURL+"/background-checks", map[string]any{
				"field":   field,
				"outcome": "clear",
			}, &rec)
			Expect(err).ToNot(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))
		}

		By("approving investigation and evaluation")
		for _, stageID := range []string{"investigation", "evaluation"} {
			status, err = postJSON(recordURL+"/decisions", map[string]any{
				"stage_id": stageID,
				"decision": "approve",
				"actor":    "officer.reed",
			}, &rec)
			Expect(err).ToNot(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))
		}

		By("raising a critical risk factor during committee review")
		status, err = postJSON(recordURL+"/risk-factors", map[string]any{
			"category":    "foreign_contacts",
			"level":       "critical",
			"description": "undisclosed relationship with foreign national",
		}, &rec)
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusCreated))
		Expect(rec.RiskFactors).To(HaveLen(1))
		factorID := rec.RiskFactors[0].ID

		status, err = postJSON(recordURL+"/decisions", map[string]any{
			"stage_id": "committee_review",
			"decision": "approve",
			"actor":    "committee.chair",
		}, &rec)
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))

		By("blocking final approval while the critical risk is unresolved")
		status, err = postJSON(recordURL+"/decisions", map[string]any{
			"stage_id": "final_approval",
			"decision": "approve",
			"actor":    "director.hale",
		}, &errBody)
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusConflict))
		Expect(errBody.Code).To(Equal("risk_gate"))

		By("resolving the risk factor and granting final approval")
		status, err = postJSON(recordURL+"/risk-factors/"+factorID+"/resolve", map[string]any{}, &rec)
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))

		status, err = postJSON(recordURL+"/decisions", map[string]any{
			"stage_id": "final_approval",
			"decision": "approve",
			"actor":    "director.hale",
		}, &rec)
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(rec.Status).To(Equal(domain.StatusApproved))
		Expect(rec.ActualCompletionDate).ToNot(BeNil())
		Expect(rec.PeriodicReview.NextDue).ToNot(BeNil())
		Expect(rec.PeriodicReview.Status).To(Equal(domain.ReviewCurrent))

		By("finding the record through list filters")
		var list listResponse
		approved := string(domain.StatusApproved)
		status, err = getJSON(baseURL+"/v1/clearances?status="+approved+"&q=whitfield", &list)
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		ids := make([]string, 0, len(list.Items))
		for _, item := range list.Items {
			ids = append(ids, item.ID)
		}
		Expect(ids).To(ContainElement(rec.ID))

		By("checking the audit trail")
		var audit auditResponse
		status, err = getJSON(recordURL+"/audit", &audit)
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		decisions := make([]string, 0, len(audit.Items))
		for _, entry := range audit.Items {
			decisions = append(decisions, entry.Decision)
		}
		Expect(decisions[0]).To(Equal("created"))
		Expect(decisions).To(ContainElement("approve"))
		Expect(decisions).To(ContainElement("risk_factor_added"))
		Expect(decisions).To(ContainElement("risk_factor_resolved"))
	})
})
