package temporal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"claimflow/internal/domain"
	"claimflow/internal/openai"
)

type ActivityStore interface {
	GetClaimSnapshot(ctx context.Context, claimID string) (domain.ClaimSnapshot, error)
	SaveClaimSnapshot(ctx context.Context, claimID string, snapshot domain.ClaimSnapshot) error
	SaveCarrierResponse(ctx context.Context, rec domain.CarrierResponseRecord) error
	UpdateResponseClassification(ctx context.Context, responseID string, classification domain.ResponseClassification) error
	ApplyTransition(ctx context.Context, record domain.TransitionRecord) error
	InsertAudit(ctx context.Context, claimID string, event string, detail any) error
	EnqueueAction(ctx context.Context, item domain.ActionQueueItem) error
	ResolveAction(ctx context.Context, actionID string, status domain.ActionStatus) error
	SaveSubmission(ctx context.Context, rec domain.SubmissionRecord) error
}

type BlobStore interface {
	PutCarrierResponse(ctx context.Context, claimID, filename string, content []byte) (string, error)
	PutSubmissionPacket(ctx context.Context, claimID, submissionID string, content []byte) (string, error)
}

type NarrativeDrafter interface {
	DraftCoverNarrative(ctx context.Context, req openai.DraftRequest) (string, error)
}

type Activities struct {
	Store   ActivityStore
	Blob    BlobStore
	Drafter NarrativeDrafter
}

type StoreResponseInput struct {
	ClaimID    string
	ResponseID string
	Filename   string
	Content    []byte
	ReceivedAt time.Time
}

type StoreResponseOutput struct {
	ObjectKey    string
	ResponseText string
}

type ClassifyResponseInput struct {
	ClaimID    string
	ResponseID string
	Artifacts  domain.CarrierArtifacts
}

type ClassifyResponseOutput struct {
	Classification domain.ResponseClassification
}

type CompareEstimatesInput struct {
	ClaimID         string
	CarrierEstimate *domain.Estimate
}

type CompareEstimatesOutput struct {
	Delta   *domain.EstimateDelta
	Summary string
}

type DetectRegressionInput struct {
	ClaimID     string
	CarrierText string
	Delta       *domain.EstimateDelta
}

type DetectRegressionOutput struct {
	Verdict domain.RegressionVerdict
}

type ResolveStateInput struct {
	ClaimID        string
	Classification domain.ResponseClassification
	Regression     *domain.RegressionVerdict
}

type ResolveStateOutput struct {
	Resolution domain.Resolution
	FinalState domain.ClaimState
	Actions    []domain.ActionType
}

type SynthesizeIntelligenceInput struct {
	ClaimID     string
	CarrierText string
	Documents   []domain.Document
	Delta       *domain.EstimateDelta
}

type SynthesizeIntelligenceOutput struct {
	Intelligence domain.NegotiationIntelligence
}

type EnqueueActionInput struct {
	ClaimID    string
	ResponseID string
	ActionType domain.ActionType
	Reason     string
}

type EnqueueActionOutput struct {
	ActionID string
}

type ResolveActionInput struct {
	ClaimID  string
	ActionID string
	Status   domain.ActionStatus
}

type LoadSnapshotInput struct {
	ClaimID string
}

type LoadSnapshotOutput struct {
	Snapshot domain.ClaimSnapshot
}

type EvaluateReadinessInput struct {
	Snapshot domain.ClaimSnapshot
}

type EvaluateReadinessOutput struct {
	Result domain.ReadinessResult
}

type DraftNarrativeInput struct {
	Snapshot       domain.ClaimSnapshot
	SubmissionType domain.SubmissionType
}

type DraftNarrativeOutput struct {
	Narrative string
}

type DispatchSubmissionInput struct {
	Snapshot       domain.ClaimSnapshot
	SubmissionType domain.SubmissionType
	CoverNarrative string
	UserID         string
	Now            time.Time
}

type DispatchSubmissionOutput struct {
	SubmissionID string
	ObjectKey    string
	FinalState   domain.ClaimState
}

func (a *Activities) StoreCarrierResponseActivity(ctx context.Context, input StoreResponseInput) (StoreResponseOutput, error) {
	objectKey, err := a.Blob.PutCarrierResponse(ctx, input.ClaimID, input.Filename, input.Content)
	if err != nil {
		return StoreResponseOutput{}, err
	}

	text := string(input.Content)
	rec := domain.CarrierResponseRecord{
		ID:         input.ResponseID,
		ClaimID:    input.ClaimID,
		ObjectKey:  objectKey,
		RawText:    text,
		ReceivedAt: input.ReceivedAt,
	}
	if err := a.Store.SaveCarrierResponse(ctx, rec); err != nil {
		return StoreResponseOutput{}, err
	}
	if err := a.Store.InsertAudit(ctx, input.ClaimID, "response_stored", map[string]any{"object_key": objectKey, "response_id": input.ResponseID}); err != nil {
		return StoreResponseOutput{}, err
	}
	return StoreResponseOutput{ObjectKey: objectKey, ResponseText: text}, nil
}

func (a *Activities) ClassifyResponseActivity(ctx context.Context, input ClassifyResponseInput) (ClassifyResponseOutput, error) {
	classification := domain.ClassifyCarrierResponse(input.Artifacts)
	if err := a.Store.UpdateResponseClassification(ctx, input.ResponseID, classification); err != nil {
		return ClassifyResponseOutput{}, err
	}
	if err := a.Store.InsertAudit(ctx, input.ClaimID, "response_classified", map[string]any{
		"response_id":   input.ResponseID,
		"response_type": classification.ResponseType,
		"confidence":    classification.Confidence,
	}); err != nil {
		return ClassifyResponseOutput{}, err
	}
	return ClassifyResponseOutput{Classification: classification}, nil
}

// CompareEstimatesActivity diffs the carrier estimate against the
// claim's most recent final estimate. No carrier estimate means no
// delta; that is not an error.
func (a *Activities) CompareEstimatesActivity(ctx context.Context, input CompareEstimatesInput) (CompareEstimatesOutput, error) {
	if input.CarrierEstimate == nil {
		return CompareEstimatesOutput{}, nil
	}

	snapshot, err := a.Store.GetClaimSnapshot(ctx, input.ClaimID)
	if err != nil {
		return CompareEstimatesOutput{}, err
	}
	original, ok := latestFinalEstimate(snapshot)
	if !ok {
		return CompareEstimatesOutput{}, nil
	}

	delta := domain.CompareEstimates(original, *input.CarrierEstimate)
	summary := domain.DeltaSummary(delta)
	if err := a.Store.InsertAudit(ctx, input.ClaimID, "estimates_compared", map[string]any{"summary": summary}); err != nil {
		return CompareEstimatesOutput{}, err
	}
	return CompareEstimatesOutput{Delta: &delta, Summary: summary}, nil
}

func (a *Activities) DetectRegressionActivity(ctx context.Context, input DetectRegressionInput) (DetectRegressionOutput, error) {
	verdict := domain.DetectScopeRegression(domain.RegressionInput{
		CarrierText:   input.CarrierText,
		EstimateDelta: input.Delta,
	})
	if verdict.RegressionDetected {
		if err := a.Store.InsertAudit(ctx, input.ClaimID, "regression_detected", map[string]any{
			"regression_type": verdict.RegressionType,
			"severity":        verdict.Severity,
			"evidence":        verdict.Evidence,
		}); err != nil {
			return DetectRegressionOutput{}, err
		}
	}
	return DetectRegressionOutput{Verdict: verdict}, nil
}

// ResolveStateActivity runs the resolver against the live claim state
// and, when the resolution moves, records the transition.
func (a *Activities) ResolveStateActivity(ctx context.Context, input ResolveStateInput) (ResolveStateOutput, error) {
	snapshot, err := a.Store.GetClaimSnapshot(ctx, input.ClaimID)
	if err != nil {
		return ResolveStateOutput{}, err
	}

	resolution, err := domain.ResolveNextState(domain.ResolveInput{
		CurrentState:   snapshot.State,
		Classification: input.Classification,
		Regression:     input.Regression,
	})
	if err != nil {
		return ResolveStateOutput{}, err
	}

	finalState := snapshot.State
	if resolution.Outcome == domain.OutcomeTransitioned {
		next, record, err := domain.TransitionState(domain.TransitionRequest{
			CurrentState:   snapshot.State,
			NextState:      resolution.NextState,
			CompletedSteps: snapshot.CompletedSteps,
			ClaimID:        input.ClaimID,
			UserID:         "system",
			Reason:         "carrier response resolution",
		}, time.Now().UTC())
		if storeErr := a.Store.ApplyTransition(ctx, record); storeErr != nil {
			return ResolveStateOutput{}, storeErr
		}
		if err != nil {
			// The resolver proposed a move the state machine refused; the
			// failed attempt is on the audit trail and the claim holds.
			resolution.Outcome = domain.OutcomeHeld
			resolution.NextState = snapshot.State
			resolution.BlockingReasons = append(resolution.BlockingReasons, err.Error())
		} else {
			finalState = next
		}
	}

	if err := a.Store.InsertAudit(ctx, input.ClaimID, "response_resolved", map[string]any{
		"outcome":     resolution.Outcome,
		"final_state": finalState,
		"reasons":     resolution.BlockingReasons,
	}); err != nil {
		return ResolveStateOutput{}, err
	}

	actions := domain.AvailableActions(finalState, input.Classification)
	return ResolveStateOutput{Resolution: resolution, FinalState: finalState, Actions: actions}, nil
}

func (a *Activities) SynthesizeIntelligenceActivity(ctx context.Context, input SynthesizeIntelligenceInput) (SynthesizeIntelligenceOutput, error) {
	snapshot, err := a.Store.GetClaimSnapshot(ctx, input.ClaimID)
	if err != nil {
		return SynthesizeIntelligenceOutput{}, err
	}

	posture := domain.ClassifyNegotiationPosture(input.CarrierText)
	signals := domain.ExtractLeverageSignals(domain.IntelligenceInput{
		CarrierText:       input.CarrierText,
		ResponseDocuments: input.Documents,
		EstimateDelta:     input.Delta,
	})
	intelligence, err := domain.SynthesizeIntelligence(domain.SynthesisInput{
		Posture:    posture,
		Signals:    signals,
		ClaimState: snapshot.State,
	})
	if err != nil {
		return SynthesizeIntelligenceOutput{}, err
	}

	if err := a.Store.InsertAudit(ctx, input.ClaimID, "intelligence_synthesized", intelligence); err != nil {
		return SynthesizeIntelligenceOutput{}, err
	}
	return SynthesizeIntelligenceOutput{Intelligence: intelligence}, nil
}

func (a *Activities) EnqueueActionActivity(ctx context.Context, input EnqueueActionInput) (EnqueueActionOutput, error) {
	item := domain.ActionQueueItem{
		ID:         uuid.NewString(),
		ClaimID:    input.ClaimID,
		ResponseID: input.ResponseID,
		ActionType: input.ActionType,
		Status:     domain.ActionPending,
		Reason:     input.Reason,
	}
	if err := a.Store.EnqueueAction(ctx, item); err != nil {
		return EnqueueActionOutput{}, err
	}
	if err := a.Store.InsertAudit(ctx, input.ClaimID, "action_enqueued", map[string]any{
		"action_id":   item.ID,
		"action_type": item.ActionType,
	}); err != nil {
		return EnqueueActionOutput{}, err
	}
	return EnqueueActionOutput{ActionID: item.ID}, nil
}

func (a *Activities) ResolveActionActivity(ctx context.Context, input ResolveActionInput) error {
	if err := a.Store.ResolveAction(ctx, input.ActionID, input.Status); err != nil {
		return err
	}
	return a.Store.InsertAudit(ctx, input.ClaimID, "action_resolved", map[string]any{
		"action_id": input.ActionID,
		"status":    input.Status,
	})
}

func (a *Activities) LoadSnapshotActivity(ctx context.Context, input LoadSnapshotInput) (LoadSnapshotOutput, error) {
	snapshot, err := a.Store.GetClaimSnapshot(ctx, input.ClaimID)
	if err != nil {
		return LoadSnapshotOutput{}, err
	}
	return LoadSnapshotOutput{Snapshot: snapshot}, nil
}

func (a *Activities) EvaluateReadinessActivity(ctx context.Context, input EvaluateReadinessInput) (EvaluateReadinessOutput, error) {
	result := domain.EvaluateSubmissionReadiness(input.Snapshot)
	if err := a.Store.InsertAudit(ctx, input.Snapshot.ClaimID, "readiness_evaluated", result); err != nil {
		return EvaluateReadinessOutput{}, err
	}
	return EvaluateReadinessOutput{Result: result}, nil
}

// DraftNarrativeActivity asks the model for a cover narrative. The
// drafter refuses anything that fails the negotiation boundary, so a
// returned narrative is always safe to attach.
func (a *Activities) DraftNarrativeActivity(ctx context.Context, input DraftNarrativeInput) (DraftNarrativeOutput, error) {
	names := make([]string, 0, len(input.Snapshot.Documents))
	for _, doc := range input.Snapshot.Documents {
		if doc.Status == domain.DocStatusComplete && !doc.Internal {
			names = append(names, doc.Name)
		}
	}
	narrative, err := a.Drafter.DraftCoverNarrative(ctx, openai.DraftRequest{
		ClaimID:        input.Snapshot.ClaimID,
		SubmissionType: input.SubmissionType,
		DocumentNames:  names,
	})
	if err != nil {
		return DraftNarrativeOutput{}, err
	}
	return DraftNarrativeOutput{Narrative: narrative}, nil
}

// DispatchSubmissionActivity runs the enforcement chain, stores the
// packet, and moves the claim to SUBMITTED for initial submissions.
func (a *Activities) DispatchSubmissionActivity(ctx context.Context, input DispatchSubmissionInput) (DispatchSubmissionOutput, error) {
	packet, err := domain.EnforceAndSubmit(domain.EnforcementContext{
		Snapshot:       input.Snapshot,
		SubmissionType: input.SubmissionType,
		CoverNarrative: input.CoverNarrative,
		Now:            input.Now,
	})
	if err != nil {
		return DispatchSubmissionOutput{}, err
	}

	payload, err := json.Marshal(packet)
	if err != nil {
		return DispatchSubmissionOutput{}, err
	}

	submissionID := uuid.NewString()
	objectKey, err := a.Blob.PutSubmissionPacket(ctx, input.Snapshot.ClaimID, submissionID, payload)
	if err != nil {
		return DispatchSubmissionOutput{}, err
	}

	if err := a.Store.SaveSubmission(ctx, domain.SubmissionRecord{
		ID:             submissionID,
		ClaimID:        input.Snapshot.ClaimID,
		SubmissionType: input.SubmissionType,
		PacketJSON:     payload,
		ObjectKey:      objectKey,
		SubmittedAt:    input.Now,
	}); err != nil {
		return DispatchSubmissionOutput{}, err
	}

	finalState := input.Snapshot.State
	if input.SubmissionType == domain.SubmissionInitial {
		next, record, err := domain.TransitionState(domain.TransitionRequest{
			CurrentState:   input.Snapshot.State,
			NextState:      domain.StateSubmitted,
			CompletedSteps: input.Snapshot.CompletedSteps,
			ClaimID:        input.Snapshot.ClaimID,
			UserID:         input.UserID,
			Reason:         "submission dispatched",
		}, input.Now)
		if storeErr := a.Store.ApplyTransition(ctx, record); storeErr != nil {
			return DispatchSubmissionOutput{}, storeErr
		}
		if err != nil {
			return DispatchSubmissionOutput{}, err
		}
		finalState = next
	}

	if err := a.Store.InsertAudit(ctx, input.Snapshot.ClaimID, "submission_dispatched", map[string]any{
		"submission_id":   submissionID,
		"submission_type": input.SubmissionType,
		"object_key":      objectKey,
	}); err != nil {
		return DispatchSubmissionOutput{}, err
	}
	return DispatchSubmissionOutput{SubmissionID: submissionID, ObjectKey: objectKey, FinalState: finalState}, nil
}

func latestFinalEstimate(snapshot domain.ClaimSnapshot) (domain.Estimate, bool) {
	for i := len(snapshot.Estimates) - 1; i >= 0; i-- {
		if snapshot.Estimates[i].Status == domain.EstimateFinal {
			return snapshot.Estimates[i], true
		}
	}
	return domain.Estimate{}, false
}
