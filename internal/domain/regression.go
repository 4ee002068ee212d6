package domain

import (
	"fmt"
	"strings"
)

// highSeverityEvidenceCount is the evidence threshold at which a
// regression verdict escalates to HIGH severity.
const highSeverityEvidenceCount = 5

// Phrases in carrier correspondence that indicate scope removal even
// when no estimate pair was supplied for a structural diff.
var scopeRemovalPhrases = []string{
	"will not be covered",
	"has been removed",
	"not included",
	"no longer covered",
	"excluded from",
	"outside the scope",
}

type RegressionInput struct {
	CarrierText   string
	EstimateDelta *EstimateDelta
}

// DetectScopeRegression fuses structural evidence from the estimate
// delta with lexical evidence from the carrier text. Every piece of
// evidence cites where it came from.
func DetectScopeRegression(input RegressionInput) RegressionVerdict {
	verdict := RegressionVerdict{
		RegressionType: RegressionNone,
		Severity:       SeverityNone,
		Evidence:       make([]string, 0),
	}

	structuralTypes := make([]RegressionType, 0, 3)

	if delta := input.EstimateDelta; delta != nil {
		if len(delta.RemovedLineItems) > 0 {
			structuralTypes = append(structuralTypes, RegressionLineItemRemoval)
			for _, item := range delta.RemovedLineItems {
				verdict.Evidence = append(verdict.Evidence,
					fmt.Sprintf("estimate comparison: carrier estimate omits line item %q", item.Description))
			}
		}
		if len(delta.ReducedQuantities) > 0 {
			structuralTypes = append(structuralTypes, RegressionQuantityReduced)
			for _, reduction := range delta.ReducedQuantities {
				verdict.Evidence = append(verdict.Evidence,
					fmt.Sprintf("estimate comparison: quantity for %q reduced from %g to %g",
						reduction.Description, reduction.OriginalQuantity, reduction.CarrierQuantity))
			}
		}
		if len(delta.CategoryOmissions) > 0 {
			structuralTypes = append(structuralTypes, RegressionCategoryRemoval)
			for _, category := range delta.CategoryOmissions {
				verdict.Evidence = append(verdict.Evidence,
					fmt.Sprintf("estimate comparison: category %q has no matching items in the carrier estimate", category))
			}
		}
	}

	lexicalHits := scanScopeRemovalLanguage(input.CarrierText)
	verdict.Evidence = append(verdict.Evidence, lexicalHits...)

	switch {
	case len(structuralTypes) > 1:
		verdict.RegressionType = RegressionMixed
	case len(structuralTypes) == 1:
		verdict.RegressionType = structuralTypes[0]
	case len(lexicalHits) > 0:
		// Lexical evidence alone is treated as line-item removal; there
		// is no structural category to attribute it to.
		verdict.RegressionType = RegressionLineItemRemoval
	}

	verdict.RegressionDetected = len(verdict.Evidence) > 0
	verdict.Severity = RegressionSeverityFor(verdict)
	return verdict
}

// RegressionSeverityFor maps evidence volume to a severity level.
func RegressionSeverityFor(verdict RegressionVerdict) RegressionSeverity {
	if !verdict.RegressionDetected {
		return SeverityNone
	}
	if len(verdict.Evidence) >= highSeverityEvidenceCount {
		return SeverityHigh
	}
	return SeverityMedium
}

// ValidateRegressionVerdict rejects a verdict that claims detection
// without citing evidence. Detection must always be traceable.
func ValidateRegressionVerdict(verdict RegressionVerdict) error {
	if verdict.RegressionDetected && len(verdict.Evidence) == 0 {
		return fmt.Errorf("regression verdict claims detection but cites no evidence")
	}
	if !verdict.RegressionDetected && verdict.RegressionType != RegressionNone {
		return fmt.Errorf("regression verdict reports type %s without detection", verdict.RegressionType)
	}
	return nil
}

func scanScopeRemovalLanguage(carrierText string) []string {
	hits := make([]string, 0)
	lower := strings.ToLower(carrierText)
	for _, phrase := range scopeRemovalPhrases {
		if strings.Contains(lower, phrase) {
			hits = append(hits, fmt.Sprintf("carrier text: %q", phrase))
		}
	}
	return hits
}
