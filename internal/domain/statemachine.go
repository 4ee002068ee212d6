package domain

import (
	"fmt"
	"sort"
	"time"
)

type TransitionCheck struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

type StateReadiness struct {
	Ready        bool  `json:"ready"`
	MissingSteps []int `json:"missing_steps"`
}

type StepCheck struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

type TransitionRequest struct {
	CurrentState   ClaimState
	NextState      ClaimState
	CompletedSteps []int
	UserID         string
	ClaimID        string
	Reason         string
}

type AvailableTransitions struct {
	// ReadyTransitions are edges whose step requirements are satisfied
	// right now. AvailableTransitions lists every legal edge regardless
	// of readiness.
	ReadyTransitions     []ClaimState `json:"ready_transitions"`
	AvailableTransitions []ClaimState `json:"available_transitions"`
}

// ValidateTransition reports whether the edge from -> to exists in the
// transition graph. CLOSED -> CLOSED is valid (terminal absorption);
// every other move out of CLOSED is not.
func ValidateTransition(from, to ClaimState) TransitionCheck {
	if !IsValidState(from) {
		return TransitionCheck{Reason: fmt.Sprintf("unknown state %q", from)}
	}
	if !IsValidState(to) {
		return TransitionCheck{Reason: fmt.Sprintf("unknown state %q", to)}
	}
	for _, next := range transitionGraph[from] {
		if next == to {
			return TransitionCheck{Valid: true}
		}
	}
	return TransitionCheck{Reason: fmt.Sprintf("transition %s -> %s is not permitted", from, to)}
}

// CheckStateReadiness compares the target state's required step set
// against the completed set. Missing steps come back in ascending order.
func CheckStateReadiness(target ClaimState, completedSteps []int) StateReadiness {
	required := requiredSteps[target]
	done := stepSet(completedSteps)

	missing := make([]int, 0)
	for _, step := range required {
		if !done[step] {
			missing = append(missing, step)
		}
	}
	sort.Ints(missing)
	return StateReadiness{Ready: len(missing) == 0, MissingSteps: missing}
}

// TransitionState validates the edge and the step requirements, then
// returns the new state alongside an audit record. The record is
// produced on failure too, marked unsuccessful; callers persist it
// either way. No other side effects occur here.
func TransitionState(req TransitionRequest, now time.Time) (ClaimState, TransitionRecord, error) {
	record := TransitionRecord{
		FromState:      req.CurrentState,
		ToState:        req.NextState,
		UserID:         req.UserID,
		ClaimID:        req.ClaimID,
		Reason:         req.Reason,
		CompletedSteps: sortedCopy(req.CompletedSteps),
		Timestamp:      now,
	}

	check := ValidateTransition(req.CurrentState, req.NextState)
	if !check.Valid {
		return req.CurrentState, record, fmt.Errorf("%s", check.Reason)
	}

	readiness := CheckStateReadiness(req.NextState, req.CompletedSteps)
	if !readiness.Ready {
		return req.CurrentState, record, fmt.Errorf("required steps not completed: missing %v", readiness.MissingSteps)
	}

	record.Succeeded = true
	return req.NextState, record, nil
}

// InferStateFromSteps maps the highest fully satisfied step threshold to
// its state. Display and recovery only; it never authorizes a move.
func InferStateFromSteps(completedSteps []int) ClaimState {
	inferred := StateIntake
	for _, state := range []ClaimState{StateDocumentCollection, StateEstimateReviewed, StateSubmissionReady} {
		if CheckStateReadiness(state, completedSteps).Ready {
			inferred = state
		}
	}
	return inferred
}

// IsStepAllowed locks steps that belong to a later lifecycle phase than
// the claim's current state.
func IsStepAllowed(step int, current ClaimState) StepCheck {
	if step < 1 || step > MaxWorkflowStep {
		return StepCheck{Reason: fmt.Sprintf("step %d is not a defined workflow step", step)}
	}
	unlock, ok := stepUnlockState[step]
	if !ok {
		return StepCheck{Reason: fmt.Sprintf("step %d has no phase assignment", step)}
	}
	if phaseRank[current] < phaseRank[unlock] {
		return StepCheck{Reason: fmt.Sprintf("step %d belongs to the %s phase and is locked while the claim is in %s", step, unlock, current)}
	}
	return StepCheck{Allowed: true}
}

// GetAvailableTransitions partitions the legal next states into those
// whose step requirements are already met and the full legal set.
func GetAvailableTransitions(current ClaimState, completedSteps []int) AvailableTransitions {
	result := AvailableTransitions{
		ReadyTransitions:     make([]ClaimState, 0),
		AvailableTransitions: make([]ClaimState, 0),
	}
	for _, next := range transitionGraph[current] {
		result.AvailableTransitions = append(result.AvailableTransitions, next)
		if CheckStateReadiness(next, completedSteps).Ready {
			result.ReadyTransitions = append(result.ReadyTransitions, next)
		}
	}
	return result
}

func stepSet(steps []int) map[int]bool {
	set := make(map[int]bool, len(steps))
	for _, s := range steps {
		set[s] = true
	}
	return set
}

func sortedCopy(steps []int) []int {
	out := make([]int, len(steps))
	copy(out, steps)
	sort.Ints(out)
	return out
}
