package domain

import (
	"reflect"
	"testing"
)

func TestClassifyDenialWithCorroboratingDocument(t *testing.T) {
	artifacts := CarrierArtifacts{
		CarrierText: "Your claim has been denied as the damage is not covered under the terms of your policy.",
		ResponseDocuments: []Document{
			{ID: "d1", Name: "denial.pdf", Type: "denial_letter", Status: DocStatusComplete},
		},
	}

	c := ClassifyCarrierResponse(artifacts)
	if c.ResponseType != ResponseDenial {
		t.Fatalf("responseType = %s, want DENIAL (indicators: %v)", c.ResponseType, c.Indicators)
	}
	if c.Confidence != ConfidenceHigh {
		t.Fatalf("confidence = %s, want HIGH", c.Confidence)
	}
	if len(c.Indicators) == 0 {
		t.Fatalf("expected indicators")
	}
}

func TestClassifyNonResponse(t *testing.T) {
	c := ClassifyCarrierResponse(CarrierArtifacts{CarrierText: "   "})
	if c.ResponseType != ResponseNonResponse || c.Confidence != ConfidenceHigh {
		t.Fatalf("got %s/%s, want NON_RESPONSE/HIGH", c.ResponseType, c.Confidence)
	}
}

func TestClassifyMixedSignalsSurfaceLimitations(t *testing.T) {
	artifacts := CarrierArtifacts{
		CarrierText: "A portion of your claim has been approved, however several items have been excluded and will not be included.",
	}
	c := ClassifyCarrierResponse(artifacts)
	if len(c.Limitations) == 0 {
		t.Fatalf("mixed signals must populate limitations, got %+v", c)
	}
	if c.Confidence == ConfidenceHigh {
		t.Fatalf("mixed signals must not be confident")
	}
}

func TestClassifyScopeReductionWithEstimate(t *testing.T) {
	estimate := &Estimate{ID: "e2", Status: EstimateFinal}
	artifacts := CarrierArtifacts{
		CarrierText:     "The following items have been removed from the estimate.",
		CarrierEstimate: estimate,
	}
	c := ClassifyCarrierResponse(artifacts)
	if c.ResponseType != ResponseScopeReduction {
		t.Fatalf("responseType = %s, want SCOPE_REDUCTION", c.ResponseType)
	}
}

func TestClassifierIsDeterministic(t *testing.T) {
	artifacts := CarrierArtifacts{
		CarrierText: "We have received your claim. Please provide additional documentation for the contents inventory.",
		ResponseDocuments: []Document{
			{ID: "d2", Name: "letter.pdf", Type: "letter"},
		},
	}

	first := ClassifyCarrierResponse(artifacts)
	for i := 0; i < 3; i++ {
		if got := ClassifyCarrierResponse(artifacts); !reflect.DeepEqual(first, got) {
			t.Fatalf("classification differs across calls: %+v vs %+v", first, got)
		}
	}
}

func TestRequiresAction(t *testing.T) {
	rfi := ResponseClassification{ResponseType: ResponseRequestForInformation, Confidence: ConfidenceHigh, Indicators: []string{"x"}}
	if !RequiresAction(rfi) {
		t.Fatalf("information requests impose a duty")
	}
	ack := ResponseClassification{ResponseType: ResponseAcknowledgment, Confidence: ConfidenceHigh, Indicators: []string{"x"}}
	if RequiresAction(ack) {
		t.Fatalf("acknowledgments never require action")
	}
}

func TestValidateClassification(t *testing.T) {
	valid := ResponseClassification{ResponseType: ResponseDelay, Confidence: ConfidenceMedium, Indicators: []string{}}
	if err := ValidateClassification(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateClassification(ResponseClassification{Confidence: ConfidenceLow, Indicators: []string{}}); err == nil {
		t.Fatalf("missing response type must be rejected")
	}
	if err := ValidateClassification(ResponseClassification{ResponseType: ResponseDelay, Indicators: []string{}}); err == nil {
		t.Fatalf("missing confidence must be rejected")
	}
	if err := ValidateClassification(ResponseClassification{ResponseType: ResponseDelay, Confidence: ConfidenceLow}); err == nil {
		t.Fatalf("nil indicators must be rejected")
	}
}
