package temporal

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"claimflow/internal/domain"
)

const (
	CarrierResponseWorkflowName = "CarrierResponseWorkflow"
	ClaimSubmissionWorkflowName = "ClaimSubmissionWorkflow"
)

type CarrierResponseWorkflowInput struct {
	ClaimID         string
	ResponseID      string
	Filename        string
	Content         []byte
	CarrierEstimate *domain.Estimate
	ReceivedAt      time.Time
}

type CarrierResponseWorkflowResult struct {
	ClaimID      string
	ResponseID   string
	ResponseType domain.ResponseType
	Outcome      domain.ResolutionOutcome
	FinalState   domain.ClaimState
	Intelligence domain.NegotiationIntelligence
}

// CarrierResponseWorkflow processes one unit of inbound carrier
// correspondence: store, classify, diff estimates, detect regression,
// resolve the claim state, synthesize intelligence, and queue any
// claimant action. An information request blocks the workflow until
// the claimant resolves the queued action.
func CarrierResponseWorkflow(ctx workflow.Context, input CarrierResponseWorkflowInput) (CarrierResponseWorkflowResult, error) {
	var stored StoreResponseOutput
	if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyStoreResponse),
		(*Activities).StoreCarrierResponseActivity, StoreResponseInput{
			ClaimID:    input.ClaimID,
			ResponseID: input.ResponseID,
			Filename:   input.Filename,
			Content:    input.Content,
			ReceivedAt: input.ReceivedAt,
		}).Get(ctx, &stored); err != nil {
		return CarrierResponseWorkflowResult{}, err
	}

	var classified ClassifyResponseOutput
	if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyClassifyResponse),
		(*Activities).ClassifyResponseActivity, ClassifyResponseInput{
			ClaimID:    input.ClaimID,
			ResponseID: input.ResponseID,
			Artifacts: domain.CarrierArtifacts{
				CarrierText:     stored.ResponseText,
				CarrierEstimate: input.CarrierEstimate,
				ResponseDocuments: []domain.Document{
					{ID: input.ResponseID, Name: input.Filename, Type: "carrier_response", Status: domain.DocStatusComplete},
				},
			},
		}).Get(ctx, &classified); err != nil {
		return CarrierResponseWorkflowResult{}, err
	}

	var compared CompareEstimatesOutput
	if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyCompareEstimates),
		(*Activities).CompareEstimatesActivity, CompareEstimatesInput{
			ClaimID:         input.ClaimID,
			CarrierEstimate: input.CarrierEstimate,
		}).Get(ctx, &compared); err != nil {
		return CarrierResponseWorkflowResult{}, err
	}

	var regression DetectRegressionOutput
	if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyDetectRegression),
		(*Activities).DetectRegressionActivity, DetectRegressionInput{
			ClaimID:     input.ClaimID,
			CarrierText: stored.ResponseText,
			Delta:       compared.Delta,
		}).Get(ctx, &regression); err != nil {
		return CarrierResponseWorkflowResult{}, err
	}

	var verdict *domain.RegressionVerdict
	if regression.Verdict.RegressionDetected {
		verdict = &regression.Verdict
	}

	var resolved ResolveStateOutput
	if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyResolveState),
		(*Activities).ResolveStateActivity, ResolveStateInput{
			ClaimID:        input.ClaimID,
			Classification: classified.Classification,
			Regression:     verdict,
		}).Get(ctx, &resolved); err != nil {
		return CarrierResponseWorkflowResult{}, err
	}

	var synthesized SynthesizeIntelligenceOutput
	if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicySynthesizeIntelligence),
		(*Activities).SynthesizeIntelligenceActivity, SynthesizeIntelligenceInput{
			ClaimID:     input.ClaimID,
			CarrierText: stored.ResponseText,
			Documents: []domain.Document{
				{ID: input.ResponseID, Name: input.Filename, Type: "carrier_response", Status: domain.DocStatusComplete},
			},
			Delta: compared.Delta,
		}).Get(ctx, &synthesized); err != nil {
		return CarrierResponseWorkflowResult{}, err
	}

	result := CarrierResponseWorkflowResult{
		ClaimID:      input.ClaimID,
		ResponseID:   input.ResponseID,
		ResponseType: classified.Classification.ResponseType,
		Outcome:      resolved.Resolution.Outcome,
		FinalState:   resolved.FinalState,
		Intelligence: synthesized.Intelligence,
	}

	if !domain.RequiresAction(classified.Classification) {
		return result, nil
	}

	var enqueued EnqueueActionOutput
	if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyEnqueueAction),
		(*Activities).EnqueueActionActivity, EnqueueActionInput{
			ClaimID:    input.ClaimID,
			ResponseID: input.ResponseID,
			ActionType: domain.ActionProvideRequestedInformation,
			Reason:     "carrier requested additional information",
		}).Get(ctx, &enqueued); err != nil {
		return CarrierResponseWorkflowResult{}, err
	}

	signalChan := workflow.GetSignalChannel(ctx, ActionResolvedSignalName)
	for {
		var signal ActionResolvedSignal
		signalChan.Receive(ctx, &signal)
		if signal.ActionID != "" && signal.ActionID != enqueued.ActionID {
			continue
		}
		status := signal.Status
		if status != domain.ActionResolved && status != domain.ActionDismissed {
			continue
		}
		if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyResolveAction),
			(*Activities).ResolveActionActivity, ResolveActionInput{
				ClaimID:  input.ClaimID,
				ActionID: enqueued.ActionID,
				Status:   status,
			}).Get(ctx, nil); err != nil {
			return CarrierResponseWorkflowResult{}, err
		}
		return result, nil
	}
}

type ClaimSubmissionWorkflowInput struct {
	ClaimID        string
	SubmissionType domain.SubmissionType
	UserID         string
}

type ClaimSubmissionWorkflowResult struct {
	ClaimID        string
	SubmissionID   string
	Submitted      bool
	FinalState     domain.ClaimState
	BlockingIssues []string
}

// ClaimSubmissionWorkflow takes a claim through readiness, narrative
// drafting, and dispatch. A failed or refused model draft falls back to
// the deterministic narrative; a blocked claim returns the blocking
// issues without error so the caller can surface them.
func ClaimSubmissionWorkflow(ctx workflow.Context, input ClaimSubmissionWorkflowInput) (ClaimSubmissionWorkflowResult, error) {
	var loaded LoadSnapshotOutput
	if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyLoadSnapshot),
		(*Activities).LoadSnapshotActivity, LoadSnapshotInput{ClaimID: input.ClaimID}).Get(ctx, &loaded); err != nil {
		return ClaimSubmissionWorkflowResult{}, err
	}

	var readiness EvaluateReadinessOutput
	if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyEvaluateReadiness),
		(*Activities).EvaluateReadinessActivity, EvaluateReadinessInput{Snapshot: loaded.Snapshot}).Get(ctx, &readiness); err != nil {
		return ClaimSubmissionWorkflowResult{}, err
	}
	if !readiness.Result.Ready {
		return ClaimSubmissionWorkflowResult{
			ClaimID:        input.ClaimID,
			FinalState:     loaded.Snapshot.State,
			BlockingIssues: readiness.Result.BlockingIssues,
		}, nil
	}

	var drafted DraftNarrativeOutput
	if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyDraftNarrative),
		(*Activities).DraftNarrativeActivity, DraftNarrativeInput{
			Snapshot:       loaded.Snapshot,
			SubmissionType: input.SubmissionType,
		}).Get(ctx, &drafted); err != nil {
		// Empty narrative falls through to the deterministic template.
		drafted = DraftNarrativeOutput{}
	}

	var dispatched DispatchSubmissionOutput
	err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyDispatchSubmission),
		(*Activities).DispatchSubmissionActivity, DispatchSubmissionInput{
			Snapshot:       loaded.Snapshot,
			SubmissionType: input.SubmissionType,
			CoverNarrative: drafted.Narrative,
			UserID:         input.UserID,
			Now:            workflow.Now(ctx).UTC(),
		}).Get(ctx, &dispatched)
	if err != nil {
		// Enforcement refusals cross the activity boundary as application
		// errors keyed by the originating error type.
		var appErr *temporal.ApplicationError
		if errors.As(err, &appErr) {
			switch appErr.Type() {
			case "SubmissionStateError", "SubmissionBlockedError", "BoundaryRefusal":
				return ClaimSubmissionWorkflowResult{
					ClaimID:        input.ClaimID,
					FinalState:     loaded.Snapshot.State,
					BlockingIssues: []string{appErr.Message()},
				}, nil
			}
		}
		return ClaimSubmissionWorkflowResult{}, err
	}

	return ClaimSubmissionWorkflowResult{
		ClaimID:      input.ClaimID,
		SubmissionID: dispatched.SubmissionID,
		Submitted:    true,
		FinalState:   dispatched.FinalState,
	}, nil
}
