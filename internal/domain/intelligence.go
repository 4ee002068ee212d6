package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Posture vocabularies. Classification is descriptive only: it reports
// what the correspondence looks like, never what to do about it.
var postureSignals = []struct {
	posture PostureType
	phrases []string
}{
	{PostureRestrictive, []string{"not covered", "denied", "excluded", "has been removed", "will not be included"}},
	{PostureDilatory, []string{"additional time", "under review", "still reviewing", "extension", "delayed"}},
	{PostureCooperative, []string{"approved", "payment has been issued", "happy to assist", "please let us know"}},
	{PostureProcedural, []string{"per our process", "has been assigned", "reference number", "acknowledg", "claim number"}},
}

// recommendationVerbs are forbidden in synthesized observations. An
// observation states what exists; it never recommends. Matched as whole
// words so "should" never fires inside "shoulder".
var recommendationVerbs = []string{
	"should",
	"recommend",
	"consider negotiating",
	"advise",
	"suggest",
	"ought to",
}

var recommendationPatterns = compileWordPatterns(recommendationVerbs)

type IntelligenceInput struct {
	CarrierText       string
	ResponseDocuments []Document
	EstimateDelta     *EstimateDelta
}

type SynthesisInput struct {
	Posture    PostureType
	Signals    []LeverageSignal
	ClaimState ClaimState
}

// ClassifyNegotiationPosture is pattern-based over carrier text. The
// fixed precedence order makes the result deterministic when multiple
// vocabularies match.
func ClassifyNegotiationPosture(carrierText string) PostureType {
	if strings.TrimSpace(carrierText) == "" {
		return PostureUnresponsive
	}
	lower := strings.ToLower(carrierText)
	for _, candidate := range postureSignals {
		for _, phrase := range candidate.phrases {
			if strings.Contains(lower, phrase) {
				return candidate.posture
			}
		}
	}
	return PostureProcedural
}

// ExtractLeverageSignals returns descriptive observations about the
// carrier material. Every signal cites the document or text span it came
// from; a signal without a source reference is invalid by construction.
func ExtractLeverageSignals(input IntelligenceInput) []LeverageSignal {
	signals := make([]LeverageSignal, 0)

	if delta := input.EstimateDelta; delta != nil {
		if n := len(delta.RemovedLineItems); n > 0 {
			signals = append(signals, LeverageSignal{
				SignalType:      "UNEXPLAINED_LINE_ITEM_OMISSION",
				Description:     fmt.Sprintf("the carrier estimate omits %d line item(s) present in the original estimate", n),
				SourceReference: "estimate comparison",
			})
		}
		if n := len(delta.ReducedQuantities); n > 0 {
			signals = append(signals, LeverageSignal{
				SignalType:      "QUANTITY_DISCREPANCY",
				Description:     fmt.Sprintf("%d line item(s) carry lower quantities in the carrier estimate", n),
				SourceReference: "estimate comparison",
			})
		}
		if delta.ValuationChangesPresent {
			signals = append(signals, LeverageSignal{
				SignalType:      "VALUATION_DISCREPANCY",
				Description:     "valuation amounts differ between the original and carrier estimates",
				SourceReference: "estimate comparison",
			})
		}
	}

	lower := strings.ToLower(input.CarrierText)
	for _, phrase := range scopeRemovalPhrases {
		if strings.Contains(lower, phrase) {
			signals = append(signals, LeverageSignal{
				SignalType:      "EXPLICIT_EXCLUSION_LANGUAGE",
				Description:     fmt.Sprintf("the carrier correspondence contains the phrase %q", phrase),
				SourceReference: "carrier correspondence",
			})
		}
	}

	for _, doc := range input.ResponseDocuments {
		if strings.EqualFold(doc.Type, "payment") {
			signals = append(signals, LeverageSignal{
				SignalType:      "PAYMENT_DOCUMENT_PRESENT",
				Description:     fmt.Sprintf("a payment document (%s) accompanies the response", doc.Name),
				SourceReference: "response document " + doc.ID,
			})
		}
	}

	return signals
}

// ValidateSignal rejects signals lacking a source reference.
func ValidateSignal(signal LeverageSignal) error {
	if strings.TrimSpace(signal.SourceReference) == "" {
		return fmt.Errorf("signal %s has no source reference", signal.SignalType)
	}
	if strings.TrimSpace(signal.Description) == "" {
		return fmt.Errorf("signal %s has no description", signal.SignalType)
	}
	return nil
}

// SynthesizeIntelligence composes posture and signals into purely
// descriptive observations. Output ordering is deterministic and every
// sentence must clear the negotiation boundary before release.
func SynthesizeIntelligence(input SynthesisInput) (NegotiationIntelligence, error) {
	for _, signal := range input.Signals {
		if err := ValidateSignal(signal); err != nil {
			return NegotiationIntelligence{}, err
		}
	}

	observations := make([]string, 0, len(input.Signals)+2)
	observations = append(observations,
		fmt.Sprintf("The carrier correspondence reads as %s.", strings.ToLower(string(input.Posture))))

	sorted := append([]LeverageSignal{}, input.Signals...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SignalType != sorted[j].SignalType {
			return sorted[i].SignalType < sorted[j].SignalType
		}
		return sorted[i].Description < sorted[j].Description
	})
	for _, signal := range sorted {
		observations = append(observations,
			fmt.Sprintf("Observed: %s (source: %s).", signal.Description, signal.SourceReference))
	}
	observations = append(observations,
		fmt.Sprintf("The claim is currently in %s.", input.ClaimState))

	for _, obs := range observations {
		if _, err := EnforceBoundaries(obs); err != nil {
			return NegotiationIntelligence{}, err
		}
	}

	intel := NegotiationIntelligence{
		Posture:      input.Posture,
		Signals:      sorted,
		Observations: observations,
	}
	if err := ValidateIntelligence(intel); err != nil {
		return NegotiationIntelligence{}, err
	}
	return intel, nil
}

// ValidateIntelligence fails if any observation contains a verb of
// recommendation.
func ValidateIntelligence(intel NegotiationIntelligence) error {
	for _, obs := range intel.Observations {
		for _, verb := range recommendationVerbs {
			if recommendationPatterns[verb].MatchString(obs) {
				return fmt.Errorf("observation contains recommendation language")
			}
		}
	}
	return nil
}
