package domain

import (
	"fmt"
	"strings"
	"time"
)

// SubmissionStateError reports a submission attempted from a state
// outside the legal envelope. It is distinct from SubmissionBlockedError
// so callers can direct the user to the right remediation.
type SubmissionStateError struct {
	State ClaimState
}

func (e *SubmissionStateError) Error() string {
	return fmt.Sprintf("submission is not permitted from state %s; the claim must be in %s or %s",
		e.State, StateSubmissionReady, StateResubmitted)
}

// SubmissionBlockedError reports a claim in a legal state whose package
// is incomplete or unsafe.
type SubmissionBlockedError struct {
	Reasons []string
}

func (e *SubmissionBlockedError) Error() string {
	return "submission blocked: " + strings.Join(e.Reasons, "; ")
}

type EnforcementContext struct {
	Snapshot       ClaimSnapshot
	SubmissionType SubmissionType
	// CoverNarrative optionally carries a pre-drafted narrative. It must
	// already have cleared the negotiation boundary.
	CoverNarrative string
	Now            time.Time
}

type SubmissionDecision struct {
	Allowed bool     `json:"allowed"`
	Reasons []string `json:"reasons"`
}

type SubmissionStatus struct {
	State          ClaimState `json:"state"`
	Ready          bool       `json:"ready"`
	BlockingIssues []string   `json:"blocking_issues"`
	Holdbacks      []string   `json:"holdbacks"`
}

// ValidateSubmissionState enforces the legal state envelope for any
// submission attempt.
func ValidateSubmissionState(state ClaimState) error {
	switch state {
	case StateSubmissionReady, StateResubmitted:
		return nil
	default:
		return &SubmissionStateError{State: state}
	}
}

// EnforceAndSubmit is the sole authorized submission entry point. The
// order is fixed: state validation, then readiness, then packet build,
// then packet validation. A packet is never constructed for a claim the
// readiness check would reject.
func EnforceAndSubmit(ctx EnforcementContext) (SubmissionPacket, error) {
	if err := ValidateSubmissionState(ctx.Snapshot.State); err != nil {
		return SubmissionPacket{}, err
	}

	readiness := EvaluateSubmissionReadiness(ctx.Snapshot)
	if !readiness.Ready {
		return SubmissionPacket{}, &SubmissionBlockedError{Reasons: readiness.BlockingIssues}
	}

	if ctx.CoverNarrative != "" {
		if err := ValidateOutput(ctx.CoverNarrative); err != nil {
			return SubmissionPacket{}, err
		}
	}

	packet, err := BuildSubmissionPacket(PacketParams{
		ClaimID:        ctx.Snapshot.ClaimID,
		SubmissionType: ctx.SubmissionType,
		Documents:      submittableDocuments(ctx.Snapshot),
		CoverNarrative: ctx.CoverNarrative,
		GeneratedAt:    ctx.Now,
	})
	if err != nil {
		return SubmissionPacket{}, &SubmissionBlockedError{Reasons: []string{err.Error()}}
	}

	if err := ValidateSubmissionPacket(packet); err != nil {
		return SubmissionPacket{}, &SubmissionBlockedError{Reasons: []string{err.Error()}}
	}

	packet.Enforcement = &EnforcementMetadata{
		ClaimID:          ctx.Snapshot.ClaimID,
		StateValidation:  true,
		ReadinessCheck:   readiness,
		PacketValidation: true,
	}
	return packet, nil
}

// CheckSubmissionAllowed is the non-throwing variant for UI polling.
func CheckSubmissionAllowed(snapshot ClaimSnapshot) SubmissionDecision {
	if err := ValidateSubmissionState(snapshot.State); err != nil {
		return SubmissionDecision{Reasons: []string{err.Error()}}
	}
	readiness := EvaluateSubmissionReadiness(snapshot)
	if !readiness.Ready {
		return SubmissionDecision{Reasons: readiness.BlockingIssues}
	}
	return SubmissionDecision{Allowed: true, Reasons: []string{}}
}

// GetSubmissionStatus returns the same verdicts as the enforcement chain
// without raising.
func GetSubmissionStatus(snapshot ClaimSnapshot) SubmissionStatus {
	readiness := EvaluateSubmissionReadiness(snapshot)
	return SubmissionStatus{
		State:          snapshot.State,
		Ready:          readiness.Ready,
		BlockingIssues: readiness.BlockingIssues,
		Holdbacks:      readiness.Holdbacks,
	}
}

// submittableDocuments gathers the document pool for a packet: the
// claim's general documents plus complete ALE material. Holdback
// categories identified by the readiness engine stay out.
func submittableDocuments(snapshot ClaimSnapshot) []Document {
	docs := make([]Document, 0, len(snapshot.Documents)+len(snapshot.ALEDocs))
	docs = append(docs, snapshot.Documents...)
	for _, doc := range snapshot.ALEDocs {
		if doc.Status == DocStatusComplete {
			docs = append(docs, doc)
		}
	}
	return docs
}
