package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEnforceAndSubmitHappyPath(t *testing.T) {
	packet, err := EnforceAndSubmit(EnforcementContext{
		Snapshot:       readySnapshot(),
		SubmissionType: SubmissionInitial,
		Now:            time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if packet.Enforcement == nil {
		t.Fatalf("enforcement metadata must be attached")
	}
	if !packet.Enforcement.StateValidation || !packet.Enforcement.PacketValidation {
		t.Fatalf("metadata = %+v", packet.Enforcement)
	}
	if !packet.Enforcement.ReadinessCheck.Ready {
		t.Fatalf("readiness verdict must be carried on the packet")
	}
	if len(packet.IncludedDocuments) == 0 {
		t.Fatalf("expected included documents")
	}
}

func TestEnforceAndSubmitWrongStateIsAStateError(t *testing.T) {
	snapshot := readySnapshot()
	snapshot.State = StateIntake

	_, err := EnforceAndSubmit(EnforcementContext{
		Snapshot:       snapshot,
		SubmissionType: SubmissionInitial,
		Now:            time.Now(),
	})
	var stateErr *SubmissionStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("want SubmissionStateError, got %T: %v", err, err)
	}
	// The error cites the state, not data completeness.
	if !strings.Contains(stateErr.Error(), string(StateIntake)) {
		t.Fatalf("error must name the offending state: %v", stateErr)
	}
	var blockedErr *SubmissionBlockedError
	if errors.As(err, &blockedErr) {
		t.Fatalf("wrong state must not surface as a blocked error")
	}
}

func TestEnforceAndSubmitIncompleteDataIsABlockedError(t *testing.T) {
	snapshot := readySnapshot()
	snapshot.Photos = nil

	_, err := EnforceAndSubmit(EnforcementContext{
		Snapshot:       snapshot,
		SubmissionType: SubmissionInitial,
		Now:            time.Now(),
	})
	var blockedErr *SubmissionBlockedError
	if !errors.As(err, &blockedErr) {
		t.Fatalf("want SubmissionBlockedError, got %T: %v", err, err)
	}
	if len(blockedErr.Reasons) == 0 {
		t.Fatalf("blocked error must carry specific reasons")
	}
}

func TestEnforceAndSubmitRefusesUnsafeNarrative(t *testing.T) {
	_, err := EnforceAndSubmit(EnforcementContext{
		Snapshot:       readySnapshot(),
		SubmissionType: SubmissionInitial,
		CoverNarrative: "You should demand the carrier pay what you are entitled to.",
		Now:            time.Now(),
	})
	var refusal *BoundaryRefusal
	if !errors.As(err, &refusal) {
		t.Fatalf("want BoundaryRefusal, got %T: %v", err, err)
	}
}

func TestCheckSubmissionAllowedMirrorsEnforcement(t *testing.T) {
	if decision := CheckSubmissionAllowed(readySnapshot()); !decision.Allowed {
		t.Fatalf("decision = %+v", decision)
	}

	snapshot := readySnapshot()
	snapshot.State = StateSubmitted
	decision := CheckSubmissionAllowed(snapshot)
	if decision.Allowed || len(decision.Reasons) == 0 {
		t.Fatalf("decision = %+v", decision)
	}
}

func TestGetSubmissionStatus(t *testing.T) {
	snapshot := readySnapshot()
	snapshot.ALEDocs = []Document{{ID: "ale1", Name: "hotel.pdf", Type: "ale", Status: DocStatusDraft}}

	status := GetSubmissionStatus(snapshot)
	if status.State != StateSubmissionReady || !status.Ready {
		t.Fatalf("status = %+v", status)
	}
	if len(status.Holdbacks) != 1 {
		t.Fatalf("holdbacks = %v", status.Holdbacks)
	}
}
