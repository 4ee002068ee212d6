package domain

import "fmt"

type ResolveInput struct {
	CurrentState   ClaimState
	Classification ResponseClassification
	Regression     *RegressionVerdict
}

type Resolution struct {
	NextState       ClaimState        `json:"next_state"`
	Outcome         ResolutionOutcome `json:"outcome"`
	BlockingReasons []string          `json:"blocking_reasons"`
}

type EligibilityCheck struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// ResolveNextState decides the next legal state for a carrier response.
// Staying put is a valid outcome (Held), terminal absorption is another
// (Absorbed); neither is an error. The resolver moves at most one edge
// per call: a regression on a freshly SUBMITTED claim lands on
// CARRIER_RESPONSE_RECEIVED first, never straight on DISPUTE_IDENTIFIED.
func ResolveNextState(input ResolveInput) (Resolution, error) {
	if err := ValidateClassification(input.Classification); err != nil {
		return Resolution{}, err
	}
	if input.Regression != nil {
		if err := ValidateRegressionVerdict(*input.Regression); err != nil {
			return Resolution{}, err
		}
	}

	current := input.CurrentState
	if current == StateClosed {
		return Resolution{
			NextState:       StateClosed,
			Outcome:         OutcomeAbsorbed,
			BlockingReasons: []string{"claim is closed; all further responses are absorbed"},
		}, nil
	}

	if input.Regression != nil && input.Regression.RegressionDetected {
		switch current {
		case StateCarrierResponseReceived:
			return Resolution{
				NextState:       StateDisputeIdentified,
				Outcome:         OutcomeTransitioned,
				BlockingReasons: []string{},
			}, nil
		case StateSubmitted, StateResubmitted:
			return Resolution{
				NextState: StateCarrierResponseReceived,
				Outcome:   OutcomeTransitioned,
				BlockingReasons: []string{
					"scope regression evidence recorded; dispute identification proceeds from CARRIER_RESPONSE_RECEIVED",
				},
			}, nil
		default:
			return Resolution{
				NextState: current,
				Outcome:   OutcomeHeld,
				BlockingReasons: []string{
					fmt.Sprintf("scope regression noted, but no carrier response transition is available from %s", current),
				},
			}, nil
		}
	}

	switch input.Classification.ResponseType {
	case ResponseFullApproval:
		if ValidateTransition(current, StateClosed).Valid {
			return Resolution{NextState: StateClosed, Outcome: OutcomeTransitioned, BlockingReasons: []string{}}, nil
		}
		return held(current, fmt.Sprintf("full approval recorded, but %s has no direct path to CLOSED", current)), nil

	case ResponsePartialApproval, ResponseScopeReduction, ResponseDenial:
		if current == StateCarrierResponseReceived {
			return held(current, "claim is already in CARRIER_RESPONSE_RECEIVED; response recorded"), nil
		}
		if ValidateTransition(current, StateCarrierResponseReceived).Valid {
			return Resolution{NextState: StateCarrierResponseReceived, Outcome: OutcomeTransitioned, BlockingReasons: []string{}}, nil
		}
		return held(current, fmt.Sprintf("adverse response recorded, but %s has no direct path to CARRIER_RESPONSE_RECEIVED", current)), nil

	case ResponseAcknowledgment:
		return held(current, "acknowledgment only; the claim stays in place until a substantive response arrives"), nil
	case ResponseRequestForInformation:
		return held(current, "carrier requested information; the claim stays in place until the request is answered"), nil
	case ResponseDelay:
		return held(current, "carrier indicated a delay; the claim stays in place"), nil
	case ResponseNonResponse:
		return held(current, "no substantive response content; the claim stays in place"), nil
	default:
		return Resolution{}, fmt.Errorf("unknown response type %q", input.Classification.ResponseType)
	}
}

// CheckSupplementEligibility gates supplement preparation strictly on
// claim state, never on a classification alone.
func CheckSupplementEligibility(state ClaimState) EligibilityCheck {
	if state == StateDisputeIdentified {
		return EligibilityCheck{Eligible: true}
	}
	return EligibilityCheck{Reason: fmt.Sprintf("supplements require DISPUTE_IDENTIFIED; claim is in %s", state)}
}

// CheckEscalationEligibility gates escalation the same way.
func CheckEscalationEligibility(state ClaimState) EligibilityCheck {
	switch state {
	case StateDisputeIdentified, StateResubmitted:
		return EligibilityCheck{Eligible: true}
	default:
		return EligibilityCheck{Reason: fmt.Sprintf("escalation requires DISPUTE_IDENTIFIED or RESUBMITTED; claim is in %s", state)}
	}
}

// AvailableActions enumerates the concrete next actions legal from the
// resolved position.
func AvailableActions(state ClaimState, classification ResponseClassification) []ActionType {
	actions := make([]ActionType, 0, 3)

	if RequiresAction(classification) {
		actions = append(actions, ActionProvideRequestedInformation)
	}

	switch state {
	case StateSubmitted, StateResubmitted:
		actions = append(actions, ActionAwaitCarrierResponse)
	case StateCarrierResponseReceived:
		actions = append(actions, ActionReviewCarrierResponse)
	case StateDisputeIdentified:
		actions = append(actions, ActionPrepareSupplement, ActionResubmitClaim)
	case StateClosed:
		actions = append(actions, ActionCloseClaim)
	}
	return actions
}

func held(state ClaimState, reason string) Resolution {
	return Resolution{
		NextState:       state,
		Outcome:         OutcomeHeld,
		BlockingReasons: []string{reason},
	}
}
