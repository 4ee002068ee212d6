//go:build system

package system_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.temporal.io/sdk/client"

	"claimflow/internal/domain"
	appTemporal "claimflow/internal/temporal"
)

var _ = Describe("System blackbox happy path", Ordered, func() {
	var repoRoot string
	var cfg systemTestConfig

	BeforeAll(func() {
		if os.Getenv("RUN_BLACKBOX_SYSTEM_TEST") != "1" {
			Skip("set RUN_BLACKBOX_SYSTEM_TEST=1 to run real blackbox system test")
		}

		cfg = loadSystemTestConfig()

		var err error
		repoRoot, err = findRepoRoot()
		Expect(err).ToNot(HaveOccurred())

		By("verifying required docker compose services (including worker and event-handler) are already running")
		Expect(requireComposeServicesRunning(repoRoot, cfg.RequiredComposeServices)).To(Succeed())

		By("failing fast if infrastructure is unreachable")
		Expect(waitForPostgres(cfg.PostgresDSN, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForTemporal(cfg.TemporalAddress, cfg.TemporalNamespace, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForHTTPStatus(cfg.MinioReadyURL, 200, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForHTTPStatus(strings.TrimRight(cfg.APIBaseURL, "/")+cfg.APIHealthPath, 200, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForHTTPStatus(strings.TrimRight(cfg.APIBaseURL, "/")+cfg.APIReadyPath, 200, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForWorkerPoller(cfg.TemporalAddress, cfg.TemporalNamespace, cfg.TemporalTaskQueue, cfg.WorkerPollerTimeout)).To(Succeed())
		Expect(applyMigration(repoRoot, cfg.PostgresDSN)).To(Succeed())
	})

	It("walks a claim from intake to submission and processes a carrier denial via a real worker", func() {
		apiBaseURL := strings.TrimRight(cfg.APIBaseURL, "/")

		By("creating a claim exactly like a claimant")
		created, err := createClaim(apiBaseURL)
		Expect(err).ToNot(HaveOccurred())
		Expect(created.ClaimID).ToNot(BeEmpty())
		Expect(created.State).To(Equal(domain.StateIntake))
		claimID := created.ClaimID

		By("attaching a complete claim package snapshot")
		snapshot := domain.ClaimSnapshot{
			Estimates: []domain.Estimate{{
				ID:     "est-1",
				Status: domain.EstimateFinal,
				LineItems: []domain.LineItem{
					{Description: "Replace roof shingles", Quantity: 30, Unit: "SQ", Amount: 15000},
					{Description: "Repair fence", Quantity: 1, Amount: 2400},
				},
				Total: 17400,
			}},
			Photos: []domain.Photo{{ID: "photo-1", Caption: "roof damage"}},
			PolicyDocs: []domain.Document{
				{ID: "pol-1", Name: "policy.pdf", Type: "policy", Status: domain.DocStatusComplete},
			},
			Documents: []domain.Document{
				{ID: "doc-1", Name: "estimate.pdf", Type: "estimate", Status: domain.DocStatusComplete},
				{ID: "doc-2", Name: "photos.zip", Type: "evidence", Status: domain.DocStatusComplete},
			},
		}
		Expect(saveSnapshot(apiBaseURL, claimID, snapshot)).To(Succeed())

		By("completing steps and advancing the lifecycle phase by phase")
		advance := func(steps []int, target domain.ClaimState) {
			for _, step := range steps {
				Expect(completeStep(apiBaseURL, claimID, step)).To(Succeed())
			}
			Expect(requestTransition(apiBaseURL, claimID, target, "system-test")).To(Succeed())
			current, getErr := getClaim(apiBaseURL, claimID)
			Expect(getErr).ToNot(HaveOccurred())
			Expect(current.State).To(Equal(target))
		}
		advance([]int{1, 2}, domain.StateDocumentCollection)
		advance([]int{3, 4, 5}, domain.StateEstimateReviewed)
		advance([]int{6, 7, 8, 9, 10}, domain.StateSubmissionReady)
		Expect(completeStep(apiBaseURL, claimID, 11)).To(Succeed())
		Expect(completeStep(apiBaseURL, claimID, 12)).To(Succeed())

		By("confirming the readiness engine clears the package")
		readiness, err := getReadiness(apiBaseURL, claimID)
		Expect(err).ToNot(HaveOccurred())
		Expect(readiness.Readiness.Ready).To(BeTrue())
		Expect(readiness.Readiness.BlockingIssues).To(BeEmpty())
		Expect(readiness.Readiness.AllowedSubmissionTypes).To(ContainElement(domain.SubmissionInitial))

		By("submitting the claim and waiting for the submission workflow")
		submitted, err := submitClaim(apiBaseURL, claimID, domain.SubmissionInitial, "system-test")
		Expect(err).ToNot(HaveOccurred())
		Expect(submitted.WorkflowID).ToNot(BeEmpty())

		Eventually(func() domain.ClaimState {
			current, getErr := getClaim(apiBaseURL, claimID)
			Expect(getErr).ToNot(HaveOccurred())
			return current.State
		}, cfg.WorkflowCompletionTimeout, cfg.WorkflowPollInterval).Should(Equal(domain.StateSubmitted))

		By("validating submission activity inputs and outputs from Temporal workflow history")
		temporalClient, err := client.Dial(client.Options{
			HostPort:  cfg.TemporalAddress,
			Namespace: cfg.TemporalNamespace,
		})
		Expect(err).ToNot(HaveOccurred())
		defer temporalClient.Close()

		trace, err := collectActivityTrace(context.Background(), temporalClient, submitted.WorkflowID)
		Expect(err).ToNot(HaveOccurred())
		Expect(trace.ScheduledOrder).To(Equal(cfg.ExpectedSubmissionOrder))
		// A missing model credential fails the draft and falls back to the
		// deterministic narrative, so the draft activity may not complete.
		Expect(trace.CompletedOrder).To(ContainElements(
			"LoadSnapshotActivity", "EvaluateReadinessActivity", "DispatchSubmissionActivity"))

		loadIn := trace.Inputs["LoadSnapshotActivity"].(appTemporal.LoadSnapshotInput)
		Expect(loadIn.ClaimID).To(Equal(claimID))

		loadOut := trace.Outputs["LoadSnapshotActivity"].(appTemporal.LoadSnapshotOutput)
		Expect(loadOut.Snapshot.State).To(Equal(domain.StateSubmissionReady))
		Expect(loadOut.Snapshot.CompletedSteps).To(ContainElements(11, 12))

		readyOut := trace.Outputs["EvaluateReadinessActivity"].(appTemporal.EvaluateReadinessOutput)
		Expect(readyOut.Result.Ready).To(BeTrue())

		dispatchOut := trace.Outputs["DispatchSubmissionActivity"].(appTemporal.DispatchSubmissionOutput)
		Expect(dispatchOut.SubmissionID).ToNot(BeEmpty())
		Expect(dispatchOut.ObjectKey).To(HavePrefix("packets/" + claimID + "/"))
		Expect(dispatchOut.FinalState).To(Equal(domain.StateSubmitted))

		By("uploading a carrier denial letter and waiting for the response workflow")
		filePath := filepath.Join(repoRoot, cfg.DenialFixturePath)
		upload, err := uploadCarrierResponse(apiBaseURL, claimID, filePath)
		Expect(err).ToNot(HaveOccurred())
		Expect(upload.ObjectKey).To(Equal("responses/" + claimID + "/" + filepath.Base(filePath)))

		Eventually(func() domain.ClaimState {
			current, getErr := getClaim(apiBaseURL, claimID)
			Expect(getErr).ToNot(HaveOccurred())
			return current.State
		}, cfg.WorkflowCompletionTimeout, cfg.WorkflowPollInterval).Should(Equal(domain.StateCarrierResponseReceived))

		By("validating the response workflow activity order")
		responseID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(upload.ObjectKey)).String()
		responseWorkflowID := fmt.Sprintf("%s-response-%s-%s",
			getenv("SYSTEM_TEST_WORKFLOW_ID_PREFIX", "claim"), claimID, responseID)
		responseTrace, err := collectActivityTrace(context.Background(), temporalClient, responseWorkflowID)
		Expect(err).ToNot(HaveOccurred())
		Expect(responseTrace.ScheduledOrder).To(Equal(cfg.ExpectedResponseOrder))
		Expect(responseTrace.CompletedOrder).To(Equal(cfg.ExpectedResponseOrder))

		classifyOut := responseTrace.Outputs["ClassifyResponseActivity"].(appTemporal.ClassifyResponseOutput)
		Expect(classifyOut.Classification.ResponseType).To(Equal(domain.ResponseDenial))
		Expect(classifyOut.Classification.Confidence).To(Equal(domain.ConfidenceHigh))

		resolveOut := responseTrace.Outputs["ResolveStateActivity"].(appTemporal.ResolveStateOutput)
		Expect(resolveOut.Resolution.Outcome).To(Equal(domain.OutcomeTransitioned))
		Expect(resolveOut.FinalState).To(Equal(domain.StateCarrierResponseReceived))

		By("verifying audit and submission records in Postgres")
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		Expect(err).ToNot(HaveOccurred())
		defer db.Close()

		Expect(db.Ping()).To(Succeed())

		submissionTypes, err := fetchStringRows(db, `SELECT submission_type FROM submissions WHERE claim_id = $1`, claimID)
		Expect(err).ToNot(HaveOccurred())
		Expect(submissionTypes).To(ContainElement(string(domain.SubmissionInitial)))

		toStates, err := fetchStringRows(db, `SELECT to_state FROM claim_transitions WHERE claim_id = $1 AND succeeded ORDER BY id`, claimID)
		Expect(err).ToNot(HaveOccurred())
		Expect(toStates).To(ContainElement(string(domain.StateSubmitted)))
		Expect(toStates).To(ContainElement(string(domain.StateCarrierResponseReceived)))

		auditEvents, err := fetchStringRows(db, `SELECT event FROM audit_log WHERE claim_id = $1 ORDER BY id`, claimID)
		Expect(err).ToNot(HaveOccurred())
		Expect(auditEvents).To(ContainElement("readiness_evaluated"))
		Expect(auditEvents).To(ContainElement("submission_dispatched"))
		Expect(auditEvents).To(ContainElement("response_stored"))
		Expect(auditEvents).To(ContainElement("response_classified"))
		Expect(auditEvents).To(ContainElement("response_resolved"))

		responseTypes, err := fetchStringRows(db, `SELECT response_type FROM carrier_responses WHERE claim_id = $1`, claimID)
		Expect(err).ToNot(HaveOccurred())
		Expect(responseTypes).To(ContainElement(string(domain.ResponseDenial)))
	})
})
