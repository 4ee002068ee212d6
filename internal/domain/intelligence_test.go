package domain

import (
	"reflect"
	"strings"
	"testing"
)

func TestClassifyNegotiationPosture(t *testing.T) {
	cases := []struct {
		text string
		want PostureType
	}{
		{text: "", want: PostureUnresponsive},
		{text: "The following items are not covered.", want: PostureRestrictive},
		{text: "We need additional time; your claim is under review.", want: PostureDilatory},
		{text: "Your claim has been approved and payment has been issued.", want: PostureCooperative},
		{text: "Your claim number is HX-2231 and has been assigned to an adjuster.", want: PostureProcedural},
		{text: "Dear claimant, thank you for writing.", want: PostureProcedural},
	}
	for _, tc := range cases {
		if got := ClassifyNegotiationPosture(tc.text); got != tc.want {
			t.Fatalf("posture(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestExtractLeverageSignalsCiteSources(t *testing.T) {
	delta := EstimateDelta{
		RemovedLineItems:        []LineItem{{Description: "fence"}},
		ReducedQuantities:       []QuantityReduction{},
		CategoryOmissions:       []string{},
		ValuationChangesPresent: true,
		ScopeRegressionDetected: true,
	}
	signals := ExtractLeverageSignals(IntelligenceInput{
		CarrierText:   "The fence has been removed and is excluded from the settlement.",
		EstimateDelta: &delta,
		ResponseDocuments: []Document{
			{ID: "d9", Name: "check.pdf", Type: "payment"},
		},
	})

	if len(signals) == 0 {
		t.Fatalf("expected signals")
	}
	for _, signal := range signals {
		if err := ValidateSignal(signal); err != nil {
			t.Fatalf("signal without source slipped through: %v", err)
		}
	}
}

func TestValidateSignalRejectsMissingSource(t *testing.T) {
	err := ValidateSignal(LeverageSignal{SignalType: "X", Description: "something"})
	if err == nil {
		t.Fatalf("missing source reference must be rejected")
	}
}

func TestSynthesizeIntelligenceIsDescriptiveAndDeterministic(t *testing.T) {
	input := SynthesisInput{
		Posture: PostureRestrictive,
		Signals: []LeverageSignal{
			{SignalType: "B_SIGNAL", Description: "quantity differs", SourceReference: "estimate comparison"},
			{SignalType: "A_SIGNAL", Description: "line item absent", SourceReference: "estimate comparison"},
		},
		ClaimState: StateCarrierResponseReceived,
	}

	first, err := SynthesizeIntelligence(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Signals[0].SignalType != "A_SIGNAL" {
		t.Fatalf("signals must be ordered deterministically, got %v", first.Signals)
	}
	for _, obs := range first.Observations {
		lower := strings.ToLower(obs)
		for _, verb := range []string{"should", "recommend", "consider negotiating"} {
			if strings.Contains(lower, verb) {
				t.Fatalf("observation recommends: %q", obs)
			}
		}
	}

	for i := 0; i < 3; i++ {
		got, err := SynthesizeIntelligence(input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, got) {
			t.Fatalf("synthesis differs across calls")
		}
	}
}

func TestSynthesizeIntelligenceRefusesUnsafeSignalText(t *testing.T) {
	input := SynthesisInput{
		Posture: PostureRestrictive,
		Signals: []LeverageSignal{
			{SignalType: "BAD", Description: "this gives you leverage over the adjuster", SourceReference: "carrier correspondence"},
		},
		ClaimState: StateDisputeIdentified,
	}
	if _, err := SynthesizeIntelligence(input); err == nil {
		t.Fatalf("boundary enforcement must refuse tactic language")
	}
}

func TestValidateIntelligence(t *testing.T) {
	bad := NegotiationIntelligence{Observations: []string{"The claimant should resubmit."}}
	if err := ValidateIntelligence(bad); err == nil {
		t.Fatalf("recommendation verb must be rejected")
	}
	good := NegotiationIntelligence{Observations: []string{"The carrier estimate omits two line items."}}
	if err := ValidateIntelligence(good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateIntelligenceMatchesWholeWordsOnly(t *testing.T) {
	intel := NegotiationIntelligence{Observations: []string{
		"Observed: the carrier estimate omits the shoulder flashing line item (source: estimate comparison).",
		"Observed: the claimant followed up on the suggested repair scope (source: carrier correspondence).",
	}}
	if err := ValidateIntelligence(intel); err != nil {
		t.Fatalf("words containing forbidden verbs must pass: %v", err)
	}
}

func TestSynthesizeIntelligenceAcceptsSignalTextWithEmbeddedVerbs(t *testing.T) {
	input := SynthesisInput{
		Posture: PostureRestrictive,
		Signals: []LeverageSignal{
			{SignalType: "UNEXPLAINED_LINE_ITEM_OMISSION", Description: "the carrier estimate omits the shoulder flashing line item", SourceReference: "estimate comparison"},
		},
		ClaimState: StateCarrierResponseReceived,
	}
	if _, err := SynthesizeIntelligence(input); err != nil {
		t.Fatalf("unexpected refusal: %v", err)
	}
}
