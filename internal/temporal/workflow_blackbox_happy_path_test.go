package temporal

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/testsuite"

	"claimflow/internal/domain"
)

type activityTrace struct {
	mu sync.Mutex

	startedOrder   []string
	completedOrder []string

	storeIn     *StoreResponseInput
	storeOut    *StoreResponseOutput
	classifyIn  *ClassifyResponseInput
	classifyOut *ClassifyResponseOutput
	resolveIn   *ResolveStateInput
	resolveOut  *ResolveStateOutput

	enqueueCalls int
}

func (t *activityTrace) recordStarted(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startedOrder = append(t.startedOrder, name)
}

func (t *activityTrace) recordCompleted(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completedOrder = append(t.completedOrder, name)
}

var _ = Describe("CarrierResponseWorkflow blackbox happy path", func() {
	It("stores a denial letter, runs the response pipeline, and moves the claim", func() {
		var suite testsuite.WorkflowTestSuite
		env := suite.NewTestWorkflowEnvironment()

		store := newFakeStore()
		store.snapshots["claim-bb-1"] = submittedSnapshot("claim-bb-1")
		acts := &Activities{Store: store, Blob: &fakeBlob{}}

		trace := &activityTrace{}

		env.SetOnActivityStartedListener(func(info *activity.Info, _ context.Context, args converter.EncodedValues) {
			trace.recordStarted(info.ActivityType.Name)

			switch info.ActivityType.Name {
			case "StoreCarrierResponseActivity":
				var in StoreResponseInput
				_ = args.Get(&in)
				trace.mu.Lock()
				trace.storeIn = &in
				trace.mu.Unlock()
			case "ClassifyResponseActivity":
				var in ClassifyResponseInput
				_ = args.Get(&in)
				trace.mu.Lock()
				trace.classifyIn = &in
				trace.mu.Unlock()
			case "ResolveStateActivity":
				var in ResolveStateInput
				_ = args.Get(&in)
				trace.mu.Lock()
				trace.resolveIn = &in
				trace.mu.Unlock()
			case "EnqueueActionActivity":
				trace.mu.Lock()
				trace.enqueueCalls++
				trace.mu.Unlock()
			}
		})

		env.SetOnActivityCompletedListener(func(info *activity.Info, result converter.EncodedValue, _ error) {
			trace.recordCompleted(info.ActivityType.Name)

			switch info.ActivityType.Name {
			case "StoreCarrierResponseActivity":
				var out StoreResponseOutput
				_ = result.Get(&out)
				trace.mu.Lock()
				trace.storeOut = &out
				trace.mu.Unlock()
			case "ClassifyResponseActivity":
				var out ClassifyResponseOutput
				_ = result.Get(&out)
				trace.mu.Lock()
				trace.classifyOut = &out
				trace.mu.Unlock()
			case "ResolveStateActivity":
				var out ResolveStateOutput
				_ = result.Get(&out)
				trace.mu.Lock()
				trace.resolveOut = &out
				trace.mu.Unlock()
			}
		})

		registerCarrierResponseWorkflow(env, acts)

		claimID := "claim-bb-1"
		responseID := "resp-bb-1"
		filename := "denial_letter.pdf"
		uploadedContent := []byte("Your claim has been denied. The reported loss is not covered under your policy.")

		By("simulating the carrier correspondence payload passed into workflow start")
		input := CarrierResponseWorkflowInput{
			ClaimID:    claimID,
			ResponseID: responseID,
			Filename:   filename,
			Content:    uploadedContent,
			ReceivedAt: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
		}

		By("triggering the workflow execution")
		env.ExecuteWorkflow(CarrierResponseWorkflow, input)

		By("validating workflow completes successfully")
		Expect(env.IsWorkflowCompleted()).To(BeTrue())
		Expect(env.GetWorkflowError()).ToNot(HaveOccurred())

		var wfResult CarrierResponseWorkflowResult
		Expect(env.GetWorkflowResult(&wfResult)).To(Succeed())
		Expect(wfResult.ClaimID).To(Equal(claimID))
		Expect(wfResult.ResponseType).To(Equal(domain.ResponseDenial))
		Expect(wfResult.Outcome).To(Equal(domain.OutcomeTransitioned))
		Expect(wfResult.FinalState).To(Equal(domain.StateCarrierResponseReceived))

		By("validating activity order for the no-action path")
		Expect(trace.startedOrder).To(Equal([]string{
			"StoreCarrierResponseActivity",
			"ClassifyResponseActivity",
			"CompareEstimatesActivity",
			"DetectRegressionActivity",
			"ResolveStateActivity",
			"SynthesizeIntelligenceActivity",
		}))
		Expect(trace.completedOrder).To(Equal(trace.startedOrder))
		Expect(trace.enqueueCalls).To(Equal(0))

		By("validating activity inputs and outputs")
		Expect(trace.storeIn).ToNot(BeNil())
		Expect(trace.storeIn.ClaimID).To(Equal(claimID))
		Expect(trace.storeIn.Content).To(Equal(uploadedContent))

		Expect(trace.storeOut).ToNot(BeNil())
		Expect(trace.storeOut.ObjectKey).To(Equal("responses/" + claimID + "/" + filename))
		Expect(trace.storeOut.ResponseText).To(Equal(string(uploadedContent)))

		Expect(trace.classifyIn).ToNot(BeNil())
		Expect(trace.classifyIn.Artifacts.CarrierText).To(Equal(string(uploadedContent)))

		Expect(trace.classifyOut).ToNot(BeNil())
		Expect(trace.classifyOut.Classification.ResponseType).To(Equal(domain.ResponseDenial))
		Expect(trace.classifyOut.Classification.Confidence).To(Equal(domain.ConfidenceHigh))

		Expect(trace.resolveIn).ToNot(BeNil())
		Expect(trace.resolveIn.Regression).To(BeNil())

		Expect(trace.resolveOut).ToNot(BeNil())
		Expect(trace.resolveOut.FinalState).To(Equal(domain.StateCarrierResponseReceived))

		By("validating persisted side effects")
		store.mu.Lock()
		rec, ok := store.responses[responseID]
		transitions := append([]domain.TransitionRecord(nil), store.transitions...)
		auditEvents := append([]string(nil), store.audit[claimID]...)
		store.mu.Unlock()

		Expect(ok).To(BeTrue())
		Expect(rec.ResponseType).To(Equal(domain.ResponseDenial))
		Expect(transitions).To(HaveLen(1))
		Expect(transitions[0].Succeeded).To(BeTrue())
		Expect(transitions[0].ToState).To(Equal(domain.StateCarrierResponseReceived))
		Expect(auditEvents).To(ContainElement("response_resolved"))
	})
})
