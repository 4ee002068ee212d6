package domain

import (
	"fmt"
	"strings"
)

// submissionEligibleStates are the claim states from which any outbound
// submission may be attempted.
var submissionEligibleStates = map[ClaimState][]SubmissionType{
	StateSubmissionReady: {SubmissionInitial},
	StateResubmitted:     {SubmissionResubmission, SubmissionSupplement},
}

type DocumentSafety struct {
	Safe    bool     `json:"safe"`
	Reasons []string `json:"reasons"`
}

type TimingInput struct {
	HasPriorSubmission    bool
	PriorResponseReceived bool
}

type TimingCheck struct {
	OK    bool     `json:"ok"`
	Flags []string `json:"flags"`
}

// EvaluateSubmissionReadiness decides whether a claim package is
// complete and safe to send. Blocking issues prevent any submission;
// holdbacks permit submission while withholding a category; risk flags
// are informational only.
func EvaluateSubmissionReadiness(snapshot ClaimSnapshot) ReadinessResult {
	result := ReadinessResult{
		BlockingIssues:         make([]string, 0),
		Holdbacks:              make([]string, 0),
		RiskFlags:              make([]string, 0),
		AllowedSubmissionTypes: make([]SubmissionType, 0),
	}

	allowed, eligible := submissionEligibleStates[snapshot.State]
	if !eligible {
		result.BlockingIssues = append(result.BlockingIssues,
			fmt.Sprintf("claim state %s is not eligible for submission", snapshot.State))
	}

	// Each eligible state carries its own required step set: an initial
	// submission needs steps 1-10, a resubmission needs 1-14.
	if readiness := CheckStateReadiness(snapshot.State, snapshot.CompletedSteps); !readiness.Ready {
		result.BlockingIssues = append(result.BlockingIssues,
			fmt.Sprintf("required steps incomplete: missing %v", readiness.MissingSteps))
	}

	for _, estimate := range snapshot.Estimates {
		if estimate.Status == EstimateDraft || estimate.Status == EstimateIncomplete {
			result.BlockingIssues = append(result.BlockingIssues,
				fmt.Sprintf("estimate %s has status %s", estimate.ID, estimate.Status))
		}
	}

	if len(snapshot.Photos) == 0 {
		result.BlockingIssues = append(result.BlockingIssues, "no photo evidence is attached to the claim")
	}

	for _, doc := range snapshot.ALEDocs {
		if doc.Status != DocStatusComplete {
			result.Holdbacks = append(result.Holdbacks,
				fmt.Sprintf("ALE document %s is not complete; ALE material will be withheld", doc.Name))
		}
	}

	for _, item := range snapshot.ContentsInventory {
		if len(item.PhotoIDs) == 0 {
			result.Holdbacks = append(result.Holdbacks,
				fmt.Sprintf("contents item %q lacks photo evidence and will be withheld", item.Description))
		}
	}

	if len(snapshot.PolicyDocs) == 0 {
		result.RiskFlags = append(result.RiskFlags, "no policy documentation on file")
	}
	if len(snapshot.Estimates) == 0 {
		result.RiskFlags = append(result.RiskFlags, "no claimant estimate on file")
	}

	result.Ready = len(result.BlockingIssues) == 0
	if result.Ready {
		result.AllowedSubmissionTypes = append(result.AllowedSubmissionTypes, allowed...)
	}
	return result
}

// EvaluateDocumentSafety flags a single document independently of the
// aggregate readiness check, for per-document display.
func EvaluateDocumentSafety(doc Document) DocumentSafety {
	reasons := make([]string, 0)
	if doc.Status == DocStatusDraft {
		reasons = append(reasons, "document is a draft")
	}
	if doc.Internal {
		reasons = append(reasons, "document is marked internal")
	}
	if doc.Speculative {
		reasons = append(reasons, "document is marked speculative")
	}
	return DocumentSafety{Safe: len(reasons) == 0, Reasons: reasons}
}

// ValidateSubmissionTiming flags a resubmission attempted while a prior
// submission's carrier response is still pending.
func ValidateSubmissionTiming(input TimingInput) TimingCheck {
	check := TimingCheck{OK: true, Flags: make([]string, 0)}
	if input.HasPriorSubmission && !input.PriorResponseReceived {
		check.OK = false
		check.Flags = append(check.Flags,
			"a prior submission is awaiting a carrier response; resubmitting now may cross correspondence")
	}
	return check
}

// ReadinessSummary renders the readiness result as one sentence.
func ReadinessSummary(result ReadinessResult) string {
	if result.Ready && len(result.Holdbacks) == 0 {
		return "The claim package is ready for submission."
	}
	parts := make([]string, 0, 2)
	if n := len(result.BlockingIssues); n > 0 {
		parts = append(parts, fmt.Sprintf("%d blocking issue(s)", n))
	}
	if n := len(result.Holdbacks); n > 0 {
		parts = append(parts, fmt.Sprintf("%d holdback(s)", n))
	}
	if len(parts) == 0 {
		return "The claim package is ready for submission."
	}
	if result.Ready {
		return fmt.Sprintf("The claim package may be submitted with %s.", strings.Join(parts, " and "))
	}
	return fmt.Sprintf("The claim package is not ready: %s.", strings.Join(parts, " and "))
}
