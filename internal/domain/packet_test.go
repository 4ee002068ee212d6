package domain

import (
	"strings"
	"testing"
	"time"
)

func TestSanitizeLanguage(t *testing.T) {
	in := "The carrier underpaid the roof and missed the fence; we are entitled to more."
	out := SanitizeLanguage(in)
	if len(out.Violations) != 3 {
		t.Fatalf("violations = %v", out.Violations)
	}
	lower := strings.ToLower(out.Sanitized)
	for _, phrase := range []string{"underpaid", "missed", "entitled"} {
		if strings.Contains(lower, phrase) {
			t.Fatalf("phrase %q survived sanitization: %q", phrase, out.Sanitized)
		}
	}
}

func TestSanitizeLanguageLeavesInnocentWordsAlone(t *testing.T) {
	in := "We followed up with the adjuster and discussed the dismissed items."
	out := SanitizeLanguage(in)
	if out.Sanitized != in {
		t.Fatalf("innocent words were mangled: %q", out.Sanitized)
	}
	if len(out.Violations) != 0 {
		t.Fatalf("violations = %v", out.Violations)
	}

	mixed := SanitizeLanguage("We followed up on the amount owed for the fence.")
	if len(mixed.Violations) != 1 || mixed.Violations[0] != "owed" {
		t.Fatalf("violations = %v", mixed.Violations)
	}
	if !strings.Contains(mixed.Sanitized, "followed up") {
		t.Fatalf("whole-word replacement clipped surrounding text: %q", mixed.Sanitized)
	}
}

func TestSanitizeLanguageIdempotent(t *testing.T) {
	in := "They underpaid us, missed the gutters, and owed interest on what we deserve."
	once := SanitizeLanguage(in)
	twice := SanitizeLanguage(once.Sanitized)
	if len(twice.Violations) != 0 {
		t.Fatalf("second pass found %v in %q", twice.Violations, once.Sanitized)
	}
}

func TestConvertToCarrierProfessional(t *testing.T) {
	in := "The adjuster failed to include the fence and deliberately ignored the contents inventory."
	out := ConvertToCarrierProfessional(in)
	lower := strings.ToLower(out.Sanitized)
	if strings.Contains(lower, "failed to include") || strings.Contains(lower, "ignored") || strings.Contains(lower, "deliberately") {
		t.Fatalf("accusatory framing survived: %q", out.Sanitized)
	}
	if !strings.Contains(lower, "does not include") {
		t.Fatalf("expected observational framing, got %q", out.Sanitized)
	}
}

func TestFilterDocumentsForSubmission(t *testing.T) {
	docs := []Document{
		{ID: "1", Name: "estimate.pdf", Type: "estimate", Status: DocStatusComplete},
		{ID: "2", Name: "notes.txt", Type: "comment", Status: DocStatusComplete},
		{ID: "3", Name: "draft.pdf", Type: "estimate", Status: DocStatusDraft},
		{ID: "4", Name: "analysis.json", Type: "report", Source: "ai_analysis", Status: DocStatusComplete},
		{ID: "5", Name: "memo.pdf", Type: "memo", Status: DocStatusComplete, Internal: true},
		{ID: "6", Name: "guess.pdf", Type: "estimate", Status: DocStatusComplete, Speculative: true},
		{ID: "7", Name: "photos.zip", Type: "photo_set", Status: DocStatusComplete},
	}

	partition := FilterDocumentsForSubmission(docs)
	if len(partition.Included) != 2 {
		t.Fatalf("included = %v", partition.Included)
	}
	if len(partition.Excluded) != 5 {
		t.Fatalf("excluded = %v", partition.Excluded)
	}
	for _, excluded := range partition.Excluded {
		if excluded.Reason == "" {
			t.Fatalf("exclusion must carry a reason")
		}
	}
	for _, included := range partition.Included {
		if included.ID == "3" {
			t.Fatalf("draft document leaked into included set")
		}
	}
}

func TestStripSensitiveMetadata(t *testing.T) {
	doc := Document{
		ID:            "d1",
		Name:          "estimate.pdf",
		Content:       "line items",
		UserComments:  "the adjuster is stalling",
		InternalNotes: "check with counsel",
		AIAnalysis:    "tool output",
		UploadedBy:    "user-9",
	}
	stripped := StripSensitiveMetadata(doc)
	if stripped.UserComments != "" || stripped.InternalNotes != "" || stripped.AIAnalysis != "" || stripped.UploadedBy != "" {
		t.Fatalf("metadata survived: %+v", stripped)
	}
	if stripped.Content != "line items" || stripped.Name != "estimate.pdf" {
		t.Fatalf("content fields must be preserved")
	}
}

func TestBuildSubmissionPacketDeterministicPartition(t *testing.T) {
	params := PacketParams{
		ClaimID:        "claim-3",
		SubmissionType: SubmissionInitial,
		Documents: []Document{
			{ID: "1", Name: "estimate.pdf", Type: "estimate", Status: DocStatusComplete},
			{ID: "2", Name: "draft.pdf", Type: "estimate", Status: DocStatusDraft},
		},
		GeneratedAt: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
	}

	first, err := BuildSubmissionPacket(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := BuildSubmissionPacket(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.CoverNarrative != second.CoverNarrative {
		t.Fatalf("narrative must be deterministic")
	}
	if len(first.IncludedDocuments) != 1 || len(first.ExcludedDocuments) != 1 {
		t.Fatalf("partition = %d included / %d excluded", len(first.IncludedDocuments), len(first.ExcludedDocuments))
	}
}

func TestBuildSubmissionPacketSanitizesNarrative(t *testing.T) {
	params := PacketParams{
		ClaimID:        "claim-3",
		SubmissionType: SubmissionResubmission,
		CoverNarrative: "The carrier underpaid this claim and missed the fence line items.",
		Documents: []Document{
			{ID: "1", Name: "estimate.pdf", Type: "estimate", Status: DocStatusComplete},
		},
		GeneratedAt: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
	}

	packet, err := BuildSubmissionPacket(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !packet.AuditMetadata.SanitizationApplied || len(packet.AuditMetadata.RemovedPhrases) == 0 {
		t.Fatalf("sanitization must be recorded, got %+v", packet.AuditMetadata)
	}
	if err := ValidateSubmissionPacket(packet); err != nil {
		t.Fatalf("built packet must validate: %v", err)
	}
}

func TestValidateSubmissionPacket(t *testing.T) {
	bad := SubmissionPacket{
		CoverNarrative:    "The carrier underpaid us.",
		IncludedDocuments: []Document{{ID: "1"}},
	}
	if err := ValidateSubmissionPacket(bad); err == nil {
		t.Fatalf("prohibited narrative must fail validation")
	}

	empty := SubmissionPacket{CoverNarrative: "Enclosed please find the claim package."}
	if err := ValidateSubmissionPacket(empty); err == nil {
		t.Fatalf("empty document set must fail validation")
	}

	innocent := SubmissionPacket{
		CoverNarrative:    "We followed up with the adjuster and the dismissed items are documented.",
		IncludedDocuments: []Document{{ID: "1"}},
	}
	if err := ValidateSubmissionPacket(innocent); err != nil {
		t.Fatalf("innocent words must not fail validation: %v", err)
	}
}

func TestBuildSubmissionPacketRejectsEmptyDocumentSet(t *testing.T) {
	_, err := BuildSubmissionPacket(PacketParams{
		ClaimID:        "claim-3",
		SubmissionType: SubmissionInitial,
		Documents:      []Document{{ID: "2", Name: "draft.pdf", Type: "estimate", Status: DocStatusDraft}},
		GeneratedAt:    time.Now(),
	})
	if err == nil {
		t.Fatalf("packet with no included documents must be rejected")
	}
}
