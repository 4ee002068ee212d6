package domain

import (
	"fmt"
	"strings"
)

// lineItemMatchThreshold is the minimum token-overlap score for two line
// item descriptions to be considered the same work. Chosen so minor
// rewordings ("Replace asphalt shingle roof" vs "Replace roof shingles")
// still match.
const lineItemMatchThreshold = 0.5

var descriptionStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true,
	"and": true, "to": true, "for": true, "with": true,
	"in": true, "on": true, "per": true,
}

// categoryKeywords derives a coarse trade category from description
// keywords. First match in categoryOrder wins; descriptions matching no
// keyword carry no category and stay out of omission accounting.
var categoryKeywords = map[string][]string{
	"roofing":    {"roof", "shingle", "ridge", "flashing", "underlayment"},
	"siding":     {"siding", "fascia", "soffit", "gutter"},
	"windows":    {"window", "glazing", "screen"},
	"interior":   {"drywall", "paint", "ceiling", "flooring", "carpet", "trim", "insulation"},
	"plumbing":   {"plumbing", "pipe", "faucet", "water heater"},
	"electrical": {"electrical", "wiring", "outlet", "panel", "fixture"},
	"contents":   {"content", "furniture", "appliance", "television", "clothing"},
}

var categoryOrder = []string{"roofing", "siding", "windows", "interior", "plumbing", "electrical", "contents"}

// CompareEstimates produces the structural diff between a claimant
// estimate and a carrier estimate. Matching is greedy on normalized
// description similarity; each carrier item pairs with at most one
// original item.
func CompareEstimates(original, carrier Estimate) EstimateDelta {
	delta := EstimateDelta{
		RemovedLineItems:  make([]LineItem, 0),
		ReducedQuantities: make([]QuantityReduction, 0),
		CategoryOmissions: make([]string, 0),
	}

	carrierUsed := make([]bool, len(carrier.LineItems))
	matchedByCategory := make(map[string]int)

	for _, origItem := range original.LineItems {
		bestIdx := -1
		bestScore := 0.0
		for i, carrierItem := range carrier.LineItems {
			if carrierUsed[i] {
				continue
			}
			score := descriptionSimilarity(origItem.Description, carrierItem.Description)
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		if bestIdx < 0 || bestScore < lineItemMatchThreshold {
			delta.RemovedLineItems = append(delta.RemovedLineItems, origItem)
			if origItem.Amount != 0 {
				delta.ValuationChangesPresent = true
			}
			continue
		}

		carrierUsed[bestIdx] = true
		matched := carrier.LineItems[bestIdx]
		if category := itemCategory(origItem.Description); category != "" {
			matchedByCategory[category]++
		}

		if matched.Quantity < origItem.Quantity {
			delta.ReducedQuantities = append(delta.ReducedQuantities, QuantityReduction{
				Description:      origItem.Description,
				OriginalQuantity: origItem.Quantity,
				CarrierQuantity:  matched.Quantity,
			})
		}
		if matched.Amount != origItem.Amount {
			delta.ValuationChangesPresent = true
		}
	}

	seen := make(map[string]bool)
	for _, origItem := range original.LineItems {
		category := itemCategory(origItem.Description)
		if category == "" || seen[category] {
			continue
		}
		seen[category] = true
		if matchedByCategory[category] == 0 {
			delta.CategoryOmissions = append(delta.CategoryOmissions, category)
		}
	}

	delta.ScopeRegressionDetected = len(delta.RemovedLineItems) > 0 ||
		len(delta.ReducedQuantities) > 0 ||
		len(delta.CategoryOmissions) > 0

	return delta
}

// DeltaSummary renders the delta as a neutral, count-based sentence. It
// describes what differs, never whether the difference is fair.
func DeltaSummary(delta EstimateDelta) string {
	if !delta.ScopeRegressionDetected && !delta.ValuationChangesPresent {
		return "No significant differences between the estimates."
	}

	parts := make([]string, 0, 4)
	if n := len(delta.RemovedLineItems); n > 0 {
		parts = append(parts, fmt.Sprintf("%d line item(s) present in the original estimate are absent from the carrier estimate", n))
	}
	if n := len(delta.ReducedQuantities); n > 0 {
		parts = append(parts, fmt.Sprintf("%d line item(s) show reduced quantities", n))
	}
	if n := len(delta.CategoryOmissions); n > 0 {
		parts = append(parts, fmt.Sprintf("%d categor(ies) have no matching items in the carrier estimate", n))
	}
	if delta.ValuationChangesPresent {
		parts = append(parts, "valuation amounts differ between the estimates")
	}
	return strings.Join(parts, "; ") + "."
}

func descriptionSimilarity(a, b string) float64 {
	tokensA := normalizeDescription(a)
	tokensB := normalizeDescription(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	setB := make(map[string]bool, len(tokensB))
	for _, t := range tokensB {
		setB[t] = true
	}

	shared := 0
	union := len(setB)
	seenA := make(map[string]bool, len(tokensA))
	for _, t := range tokensA {
		if seenA[t] {
			continue
		}
		seenA[t] = true
		if setB[t] {
			shared++
		} else {
			union++
		}
	}
	return float64(shared) / float64(union)
}

func normalizeDescription(desc string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(desc) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	tokens := make([]string, 0, 8)
	for _, tok := range strings.Fields(b.String()) {
		if descriptionStopwords[tok] {
			continue
		}
		// crude singularization so "shingles" matches "shingle"
		if len(tok) > 3 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") {
			tok = tok[:len(tok)-1]
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func itemCategory(description string) string {
	tokens := normalizeDescription(description)
	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}
	joined := strings.Join(tokens, " ")

	for _, category := range categoryOrder {
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(keyword, " ") {
				if strings.Contains(joined, keyword) {
					return category
				}
				continue
			}
			if tokenSet[keyword] {
				return category
			}
		}
	}
	return ""
}
