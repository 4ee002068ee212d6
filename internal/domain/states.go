package domain

type ClaimState string

const (
	StateIntake                  ClaimState = "INTAKE"
	StateDocumentCollection      ClaimState = "DOCUMENT_COLLECTION"
	StateEstimateReviewed        ClaimState = "ESTIMATE_REVIEWED"
	StateSubmissionReady         ClaimState = "SUBMISSION_READY"
	StateSubmitted               ClaimState = "SUBMITTED"
	StateCarrierResponseReceived ClaimState = "CARRIER_RESPONSE_RECEIVED"
	StateDisputeIdentified       ClaimState = "DISPUTE_IDENTIFIED"
	StateResubmitted             ClaimState = "RESUBMITTED"
	StateClosed                  ClaimState = "CLOSED"
)

// transitionGraph is the only source of transition legality. Backward
// edges are deliberate: a claim can reopen earlier phases to gather
// more material. CLOSED is terminal and absorbs itself.
var transitionGraph = map[ClaimState][]ClaimState{
	StateIntake:                  {StateDocumentCollection},
	StateDocumentCollection:      {StateEstimateReviewed, StateIntake},
	StateEstimateReviewed:        {StateSubmissionReady, StateDocumentCollection},
	StateSubmissionReady:         {StateSubmitted, StateEstimateReviewed},
	StateSubmitted:               {StateCarrierResponseReceived, StateClosed},
	StateCarrierResponseReceived: {StateDisputeIdentified, StateDocumentCollection, StateClosed},
	StateDisputeIdentified:       {StateResubmitted, StateClosed},
	StateResubmitted:             {StateCarrierResponseReceived, StateClosed},
	StateClosed:                  {StateClosed},
}

// phaseRank orders states for step locking and display. It is not a
// legality check; transitionGraph is.
var phaseRank = map[ClaimState]int{
	StateIntake:                  0,
	StateDocumentCollection:      1,
	StateEstimateReviewed:        2,
	StateSubmissionReady:         3,
	StateSubmitted:               4,
	StateCarrierResponseReceived: 5,
	StateDisputeIdentified:       6,
	StateResubmitted:             7,
	StateClosed:                  8,
}

// MaxWorkflowStep is the highest defined workflow step number.
const MaxWorkflowStep = 15

// requiredSteps lists the steps that must be complete before a claim may
// enter a state. States absent from the map have no step requirement.
var requiredSteps = map[ClaimState][]int{
	StateDocumentCollection:      {1, 2},
	StateEstimateReviewed:        {1, 2, 3, 4, 5},
	StateSubmissionReady:         {1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	StateSubmitted:               {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
	StateCarrierResponseReceived: {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
	StateDisputeIdentified:       {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
	StateResubmitted:             {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14},
}

// stepUnlockState maps each workflow step to the earliest state in which
// it may be completed. Steps for later phases stay locked so a claimant
// cannot front-run the lifecycle.
var stepUnlockState = map[int]ClaimState{
	1:  StateIntake,
	2:  StateIntake,
	3:  StateDocumentCollection,
	4:  StateDocumentCollection,
	5:  StateDocumentCollection,
	6:  StateEstimateReviewed,
	7:  StateEstimateReviewed,
	8:  StateEstimateReviewed,
	9:  StateEstimateReviewed,
	10: StateEstimateReviewed,
	11: StateSubmissionReady,
	12: StateSubmissionReady,
	13: StateSubmitted,
	14: StateSubmitted,
	15: StateDisputeIdentified,
}

type ResponseType string

const (
	ResponseAcknowledgment          ResponseType = "ACKNOWLEDGMENT"
	ResponseFullApproval            ResponseType = "FULL_APPROVAL"
	ResponsePartialApproval         ResponseType = "PARTIAL_APPROVAL"
	ResponseScopeReduction          ResponseType = "SCOPE_REDUCTION"
	ResponseDenial                  ResponseType = "DENIAL"
	ResponseRequestForInformation   ResponseType = "REQUEST_FOR_INFORMATION"
	ResponseDelay                   ResponseType = "DELAY"
	ResponseNonResponse             ResponseType = "NON_RESPONSE"
)

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

type RegressionType string

const (
	RegressionNone            RegressionType = "NONE"
	RegressionLineItemRemoval RegressionType = "LINE_ITEM_REMOVAL"
	RegressionQuantityReduced RegressionType = "QUANTITY_REDUCTION"
	RegressionCategoryRemoval RegressionType = "CATEGORY_REMOVAL"
	RegressionMixed           RegressionType = "MIXED"
)

type RegressionSeverity string

const (
	SeverityNone   RegressionSeverity = "NONE"
	SeverityMedium RegressionSeverity = "MEDIUM"
	SeverityHigh   RegressionSeverity = "HIGH"
)

type BoundaryType string

const (
	BoundaryAdvice                 BoundaryType = "ADVICE"
	BoundaryNegotiationTactic      BoundaryType = "NEGOTIATION_TACTIC"
	BoundaryEntitlementFraming     BoundaryType = "ENTITLEMENT_FRAMING"
	BoundaryCoverageInterpretation BoundaryType = "COVERAGE_INTERPRETATION"
)

type PostureType string

const (
	PostureCooperative  PostureType = "COOPERATIVE"
	PostureProcedural   PostureType = "PROCEDURAL"
	PostureRestrictive  PostureType = "RESTRICTIVE"
	PostureDilatory     PostureType = "DILATORY"
	PostureUnresponsive PostureType = "UNRESPONSIVE"
)

// ResolutionOutcome distinguishes real movement from the two non-error
// stay-put results: a deferred action (Held) and terminal absorption
// (Absorbed). All three are success paths.
type ResolutionOutcome string

const (
	OutcomeTransitioned ResolutionOutcome = "TRANSITIONED"
	OutcomeHeld         ResolutionOutcome = "HELD"
	OutcomeAbsorbed     ResolutionOutcome = "ABSORBED"
)

type ActionType string

const (
	ActionProvideRequestedInformation ActionType = "PROVIDE_REQUESTED_INFORMATION"
	ActionReviewCarrierResponse       ActionType = "REVIEW_CARRIER_RESPONSE"
	ActionPrepareSupplement           ActionType = "PREPARE_SUPPLEMENT"
	ActionResubmitClaim               ActionType = "RESUBMIT_CLAIM"
	ActionAwaitCarrierResponse        ActionType = "AWAIT_CARRIER_RESPONSE"
	ActionCloseClaim                  ActionType = "CLOSE_CLAIM"
)

type SubmissionType string

const (
	SubmissionInitial      SubmissionType = "INITIAL"
	SubmissionResubmission SubmissionType = "RESUBMISSION"
	SubmissionSupplement   SubmissionType = "SUPPLEMENT"
)

func IsValidState(s ClaimState) bool {
	_, ok := phaseRank[s]
	return ok
}
