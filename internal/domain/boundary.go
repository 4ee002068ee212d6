package domain

import (
	"sort"
	"strings"
)

// boundaryPatterns is the fixed taxonomy of prohibited phrasing. Any
// generated text must clear every category before it can leave the
// system. Matching is case-insensitive substring containment.
var boundaryPatterns = map[BoundaryType][]string{
	BoundaryAdvice: {
		"you should",
		"you must",
		"you need to",
		"we recommend",
		"we advise",
		"your best option",
		"be sure to",
		"make sure you",
	},
	BoundaryNegotiationTactic: {
		"leverage",
		"counter-offer",
		"counteroffer",
		"push back",
		"hold firm",
		"stand your ground",
		"use this against",
		"bargaining position",
	},
	BoundaryEntitlementFraming: {
		"entitled to",
		"you are owed",
		"owed to you",
		"you deserve",
		"rightfully yours",
		"they owe you",
	},
	BoundaryCoverageInterpretation: {
		"your policy covers",
		"covered under your policy",
		"the policy requires them",
		"coverage applies to",
		"they are required to pay",
		"this means the carrier must",
	},
}

// boundaryTypeOrder fixes scan order so identical text always yields
// violations in identical order.
var boundaryTypeOrder = []BoundaryType{
	BoundaryAdvice,
	BoundaryNegotiationTactic,
	BoundaryEntitlementFraming,
	BoundaryCoverageInterpretation,
}

// BoundaryRefusal is returned when text cannot be released. The message
// stays neutral and never names which internal rule matched; the
// violation details are available to the caller for remediation.
type BoundaryRefusal struct {
	Violations []BoundaryViolation
}

func (r *BoundaryRefusal) Error() string {
	return "the generated text cannot be released because it contains phrasing outside the system's descriptive scope"
}

// The quick detectors match whole words so "owed" never fires inside
// "followed" and "you should" never fires inside "you shoulder".
var (
	imperativePhrases   = []string{"you should", "you must", "you need to", "you have to"}
	entitlementPhrases  = []string{"entitled to", "owed", "deserve"}
	imperativePatterns  = compileWordPatterns(imperativePhrases)
	entitlementPatterns = compileWordPatterns(entitlementPhrases)
)

// ContainsImperatives flags second-person directive phrasing.
func ContainsImperatives(text string) bool {
	for _, phrase := range imperativePhrases {
		if imperativePatterns[phrase].MatchString(text) {
			return true
		}
	}
	return false
}

// ContainsEntitlementFraming flags possessive or entitlement vocabulary.
func ContainsEntitlementFraming(text string) bool {
	for _, phrase := range entitlementPhrases {
		if entitlementPatterns[phrase].MatchString(text) {
			return true
		}
	}
	return false
}

// ComprehensiveBoundaryCheck runs every detector and returns all matches
// with their byte offsets, ordered by category then location.
func ComprehensiveBoundaryCheck(text string) []BoundaryViolation {
	lower := strings.ToLower(text)
	violations := make([]BoundaryViolation, 0)

	for _, boundaryType := range boundaryTypeOrder {
		typeHits := make([]BoundaryViolation, 0)
		for _, phrase := range boundaryPatterns[boundaryType] {
			offset := 0
			for {
				idx := strings.Index(lower[offset:], phrase)
				if idx < 0 {
					break
				}
				typeHits = append(typeHits, BoundaryViolation{
					BoundaryType:  boundaryType,
					MatchedPhrase: phrase,
					Location:      offset + idx,
				})
				offset += idx + len(phrase)
			}
		}
		sort.Slice(typeHits, func(i, j int) bool { return typeHits[i].Location < typeHits[j].Location })
		violations = append(violations, typeHits...)
	}
	return violations
}

// EnforceBoundaries either passes the text through unchanged or refuses
// it. There is no silent rewriting at this layer.
func EnforceBoundaries(text string) (string, error) {
	violations := ComprehensiveBoundaryCheck(text)
	if len(violations) > 0 {
		return "", &BoundaryRefusal{Violations: violations}
	}
	return text, nil
}

// ValidateOutput is the accept/refuse check without the pass-through,
// for callers that only need the verdict.
func ValidateOutput(text string) error {
	_, err := EnforceBoundaries(text)
	return err
}
