package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// prohibitedPhrases maps each phrase that must never reach a carrier to
// its neutral replacement. Replacements are chosen so that sanitizing
// already-sanitized text finds nothing (idempotence).
var prohibitedPhrases = map[string]string{
	"underpaid":    "paid below the documented amount",
	"missed":       "not present",
	"entitled":     "documented",
	"owed":         "outstanding per the documentation",
	"lowball":      "below the documented estimate",
	"shortchanged": "paid below the documented amount",
	"unfair":       "inconsistent with the documentation",
	"cheated":      "not paid per the documentation",
}

// prohibitedOrder fixes replacement order for determinism.
var prohibitedOrder = []string{
	"underpaid", "missed", "entitled", "owed",
	"lowball", "shortchanged", "unfair", "cheated",
}

// accusatoryRewrites converts accusatory framing into observational
// framing before sanitization runs.
var accusatoryRewrites = []struct{ from, to string }{
	{"failed to include", "does not include"},
	{"refused to pay", "did not pay"},
	{"ignored", "did not address"},
	{"deliberately", ""},
}

type SanitizedText struct {
	Sanitized  string   `json:"sanitized"`
	Violations []string `json:"violations"`
}

type DocumentPartition struct {
	Included []Document         `json:"included"`
	Excluded []ExcludedDocument `json:"excluded"`
}

type PacketParams struct {
	ClaimID        string
	SubmissionType SubmissionType
	Documents      []Document
	// CoverNarrative, when set, is a pre-drafted narrative; it is still
	// sanitized here. When empty a deterministic narrative is built.
	CoverNarrative string
	GeneratedAt    time.Time
}

// sanitizePatterns are the compiled whole-word matchers for every phrase
// the sanitizer rewrites. Whole-word matching keeps "owed" out of
// "followed" and "missed" out of "dismissed".
var sanitizePatterns = func() map[string]*regexp.Regexp {
	rewriteFroms := make([]string, 0, len(accusatoryRewrites))
	for _, rewrite := range accusatoryRewrites {
		rewriteFroms = append(rewriteFroms, rewrite.from)
	}
	return compileWordPatterns(prohibitedOrder, rewriteFroms)
}()

// SanitizeLanguage replaces every prohibited phrase with its neutral
// equivalent and records what was removed. Matching is case-insensitive
// on whole words only.
func SanitizeLanguage(text string) SanitizedText {
	sanitized := text
	violations := make([]string, 0)
	for _, phrase := range prohibitedOrder {
		var removed bool
		sanitized, removed = replaceWholeWord(sanitized, phrase, prohibitedPhrases[phrase])
		if removed {
			violations = append(violations, phrase)
		}
	}
	return SanitizedText{Sanitized: sanitized, Violations: violations}
}

// ConvertToCarrierProfessional rewrites accusatory framing into
// observational framing, then sanitizes.
func ConvertToCarrierProfessional(text string) SanitizedText {
	rewritten := text
	for _, rewrite := range accusatoryRewrites {
		rewritten, _ = replaceWholeWord(rewritten, rewrite.from, rewrite.to)
	}
	rewritten = strings.Join(strings.Fields(rewritten), " ")
	return SanitizeLanguage(rewritten)
}

// FilterDocumentsForSubmission partitions documents into those safe to
// send and those excluded. Exclusion rules are unconditional; nothing
// overrides them.
func FilterDocumentsForSubmission(docs []Document) DocumentPartition {
	partition := DocumentPartition{
		Included: make([]Document, 0, len(docs)),
		Excluded: make([]ExcludedDocument, 0),
	}
	for _, doc := range docs {
		if reason, excluded := exclusionReason(doc); excluded {
			partition.Excluded = append(partition.Excluded, ExcludedDocument{Document: doc, Reason: reason})
			continue
		}
		partition.Included = append(partition.Included, doc)
	}
	return partition
}

// StripSensitiveMetadata removes internal fields, keeping only content.
func StripSensitiveMetadata(doc Document) Document {
	doc.UserComments = ""
	doc.InternalNotes = ""
	doc.AIAnalysis = ""
	doc.UploadedBy = ""
	return doc
}

// BuildSubmissionPacket assembles a carrier-safe packet. Document
// partitioning and narrative content are deterministic; the timestamp in
// the audit metadata is the only field taken from the caller's clock.
func BuildSubmissionPacket(params PacketParams) (SubmissionPacket, error) {
	partition := FilterDocumentsForSubmission(params.Documents)

	included := make([]Document, 0, len(partition.Included))
	for _, doc := range partition.Included {
		included = append(included, StripSensitiveMetadata(doc))
	}

	narrative := params.CoverNarrative
	if strings.TrimSpace(narrative) == "" {
		narrative = defaultCoverNarrative(params.ClaimID, params.SubmissionType, len(included))
	}
	sanitized := ConvertToCarrierProfessional(narrative)

	packet := SubmissionPacket{
		CoverNarrative:    sanitized.Sanitized,
		IncludedDocuments: included,
		ExcludedDocuments: partition.Excluded,
		AuditMetadata: AuditMetadata{
			ClaimID:             params.ClaimID,
			SubmissionType:      params.SubmissionType,
			GeneratedAt:         params.GeneratedAt,
			DocumentCount:       len(included),
			SanitizationApplied: len(sanitized.Violations) > 0,
			RemovedPhrases:      sanitized.Violations,
		},
	}
	if err := ValidateSubmissionPacket(packet); err != nil {
		return SubmissionPacket{}, err
	}
	return packet, nil
}

// ValidateSubmissionPacket fails when the narrative still carries a
// prohibited phrase or when no documents survived filtering.
func ValidateSubmissionPacket(packet SubmissionPacket) error {
	for _, phrase := range prohibitedOrder {
		if sanitizePatterns[phrase].MatchString(packet.CoverNarrative) {
			return fmt.Errorf("cover narrative contains prohibited language")
		}
	}
	if len(packet.IncludedDocuments) == 0 {
		return fmt.Errorf("packet contains no documents eligible for submission")
	}
	return nil
}

func exclusionReason(doc Document) (string, bool) {
	switch {
	case doc.Status == DocStatusDraft:
		return "draft documents are never submitted", true
	case strings.EqualFold(doc.Type, "comment") || strings.EqualFold(doc.Type, "user_note"):
		return "user notes and comments are internal", true
	case strings.EqualFold(doc.Type, "ai_analysis") || strings.EqualFold(doc.Type, "tool_output") ||
		strings.EqualFold(doc.Source, "ai_analysis") || strings.EqualFold(doc.Source, "tool_output"):
		return "analysis output is internal", true
	case doc.Internal:
		return "document is marked internal", true
	case doc.Speculative:
		return "document is marked speculative", true
	default:
		return "", false
	}
}

func defaultCoverNarrative(claimID string, submissionType SubmissionType, docCount int) string {
	kind := "submission"
	switch submissionType {
	case SubmissionResubmission:
		kind = "resubmission"
	case SubmissionSupplement:
		kind = "supplemental submission"
	}
	return fmt.Sprintf(
		"Please find enclosed the %s for claim %s. The package contains %d supporting document(s), including the repair estimate and photographic evidence referenced therein. We request review of the enclosed materials at your earliest convenience.",
		kind, claimID, docCount)
}

// replaceWholeWord replaces every case-insensitive whole-word occurrence
// of phrase and reports whether any replacement happened.
func replaceWholeWord(text, phrase, replacement string) (string, bool) {
	pattern := sanitizePatterns[phrase]
	if !pattern.MatchString(text) {
		return text, false
	}
	return pattern.ReplaceAllLiteralString(text, replacement), true
}
