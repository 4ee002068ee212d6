package domain

import (
	"fmt"
	"strings"
)

// Signal vocabularies for each response category. Matching is
// case-insensitive substring containment over the carrier text; the
// category order in classificationOrder fixes precedence so identical
// input always yields identical output.
var (
	denialSignals = []string{
		"has been denied",
		"claim is denied",
		"denial of your claim",
		"not covered",
		"no coverage",
		"excluded under your policy",
		"unable to approve",
	}
	scopeReductionSignals = []string{
		"removed from the estimate",
		"not included in our estimate",
		"line item has been removed",
		"reduced the scope",
		"items have been excluded",
		"will not be included",
	}
	partialApprovalSignals = []string{
		"partial payment",
		"partially approved",
		"approved in part",
		"a portion of your claim",
		"remaining items are under review",
	}
	fullApprovalSignals = []string{
		"approved in full",
		"full payment",
		"has been approved",
		"payment has been issued",
		"settlement in full",
	}
	informationRequestSignals = []string{
		"please provide",
		"additional documentation",
		"we require the following",
		"submit proof",
		"send us a copy",
	}
	delaySignals = []string{
		"additional time",
		"still reviewing",
		"under review",
		"extension of time",
		"has been delayed",
	}
	acknowledgmentSignals = []string{
		"we have received",
		"acknowledg",
		"confirm receipt",
		"has been assigned",
		"claim number",
	}
)

type classificationRule struct {
	responseType ResponseType
	label        string
	signals      []string
	// corroborating document types that raise confidence to HIGH
	corroboratingDocs []string
}

// classificationOrder fixes signal-category precedence. Denial and scope
// reduction outrank approvals so that mixed letters surface the adverse
// reading with limitations rather than an optimistic confident label.
var classificationOrder = []classificationRule{
	{ResponseDenial, "denial language", denialSignals, []string{"denial_letter"}},
	{ResponseScopeReduction, "scope removal language", scopeReductionSignals, []string{"estimate", "revised_estimate"}},
	{ResponsePartialApproval, "partial approval language", partialApprovalSignals, []string{"payment"}},
	{ResponseFullApproval, "approval language", fullApprovalSignals, []string{"payment"}},
	{ResponseRequestForInformation, "information request language", informationRequestSignals, nil},
	{ResponseDelay, "delay language", delaySignals, nil},
	{ResponseAcknowledgment, "acknowledgment language", acknowledgmentSignals, nil},
}

// ClassifyCarrierResponse maps carrier correspondence to a canonical
// response type. Pure and order-independent: no clock, no randomness,
// identical artifacts produce byte-identical classifications.
func ClassifyCarrierResponse(artifacts CarrierArtifacts) ResponseClassification {
	text := strings.ToLower(artifacts.CarrierText)

	if strings.TrimSpace(text) == "" && len(artifacts.ResponseDocuments) == 0 && artifacts.CarrierEstimate == nil {
		return ResponseClassification{
			ResponseType: ResponseNonResponse,
			Confidence:   ConfidenceHigh,
			Indicators:   []string{"no carrier text, documents, or estimate supplied"},
			Limitations:  []string{},
		}
	}

	type categoryHit struct {
		rule       classificationRule
		indicators []string
	}
	hits := make([]categoryHit, 0, len(classificationOrder))
	for _, rule := range classificationOrder {
		var indicators []string
		for _, signal := range rule.signals {
			if strings.Contains(text, signal) {
				indicators = append(indicators, fmt.Sprintf("%s: %q", rule.label, signal))
			}
		}
		if len(indicators) > 0 {
			hits = append(hits, categoryHit{rule: rule, indicators: indicators})
		}
	}

	// An estimate alongside scope language is structural corroboration
	// even without a matching response document.
	if artifacts.CarrierEstimate != nil {
		for i := range hits {
			if hits[i].rule.responseType == ResponseScopeReduction {
				hits[i].indicators = append(hits[i].indicators, "carrier estimate supplied alongside scope removal language")
			}
		}
	}

	if len(hits) == 0 {
		limitations := []string{"carrier text contains no recognized response signals"}
		return ResponseClassification{
			ResponseType: ResponseAcknowledgment,
			Confidence:   ConfidenceLow,
			Indicators:   []string{},
			Limitations:  limitations,
		}
	}

	top := hits[0]
	classification := ResponseClassification{
		ResponseType: top.rule.responseType,
		Indicators:   append([]string{}, top.indicators...),
		Limitations:  []string{},
	}

	corroborated := hasCorroboratingDocument(artifacts.ResponseDocuments, top.rule.corroboratingDocs)
	if corroborated {
		classification.Indicators = append(classification.Indicators,
			fmt.Sprintf("corroborated by %s document", top.rule.corroboratingDocs[0]))
	}

	switch {
	case len(hits) > 1:
		// Genuinely mixed signals: report the precedence winner but be
		// honest about the ambiguity instead of forcing confidence.
		classification.Confidence = ConfidenceLow
		for _, other := range hits[1:] {
			classification.Limitations = append(classification.Limitations,
				fmt.Sprintf("also matched %s; classification is ambiguous", other.rule.label))
		}
	case corroborated:
		classification.Confidence = ConfidenceHigh
	case len(top.indicators) > 1:
		classification.Confidence = ConfidenceHigh
	default:
		classification.Confidence = ConfidenceMedium
	}

	return classification
}

// RequiresAction is true only for response types that impose an
// affirmative duty on the claimant.
func RequiresAction(c ResponseClassification) bool {
	return c.ResponseType == ResponseRequestForInformation
}

func ValidateClassification(c ResponseClassification) error {
	if c.ResponseType == "" {
		return fmt.Errorf("classification is missing a response type")
	}
	if c.Confidence == "" {
		return fmt.Errorf("classification is missing a confidence level")
	}
	if c.Indicators == nil {
		return fmt.Errorf("classification is missing its indicator list")
	}
	return nil
}

func hasCorroboratingDocument(docs []Document, wanted []string) bool {
	for _, doc := range docs {
		for _, docType := range wanted {
			if strings.EqualFold(doc.Type, docType) {
				return true
			}
		}
	}
	return false
}
