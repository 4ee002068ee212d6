package domain

import "time"

type EstimateStatus string

const (
	EstimateDraft      EstimateStatus = "draft"
	EstimateIncomplete EstimateStatus = "incomplete"
	EstimateFinal      EstimateStatus = "final"
)

type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit,omitempty"`
	Amount      float64 `json:"amount"`
}

type Estimate struct {
	ID        string         `json:"id"`
	Status    EstimateStatus `json:"status"`
	LineItems []LineItem     `json:"line_items"`
	Total     float64        `json:"total"`
}

type DocumentStatus string

const (
	DocStatusDraft    DocumentStatus = "draft"
	DocStatusComplete DocumentStatus = "complete"
)

type Document struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Type          string         `json:"type"`
	Status        DocumentStatus `json:"status"`
	Source        string         `json:"source,omitempty"`
	Internal      bool           `json:"internal,omitempty"`
	Speculative   bool           `json:"speculative,omitempty"`
	Content       string         `json:"content,omitempty"`
	UserComments  string         `json:"user_comments,omitempty"`
	InternalNotes string         `json:"internal_notes,omitempty"`
	AIAnalysis    string         `json:"ai_analysis,omitempty"`
	UploadedBy    string         `json:"uploaded_by,omitempty"`
}

type Photo struct {
	ID      string `json:"id"`
	Caption string `json:"caption,omitempty"`
}

type ContentsItem struct {
	Description string   `json:"description"`
	PhotoIDs    []string `json:"photo_ids,omitempty"`
}

// ClaimSnapshot is the immutable view of a claim handed into the engine.
// The engine never loads or mutates claim state itself; the surrounding
// layers own persistence.
type ClaimSnapshot struct {
	ClaimID           string       `json:"claim_id"`
	State             ClaimState   `json:"state"`
	CompletedSteps    []int        `json:"completed_steps"`
	Estimates         []Estimate   `json:"estimates"`
	Photos            []Photo      `json:"photos"`
	PolicyDocs        []Document   `json:"policy_docs"`
	PriorCarrierDocs  []Document   `json:"prior_carrier_docs"`
	ContentsInventory []ContentsItem `json:"contents_inventory"`
	ALEDocs           []Document   `json:"ale_docs"`
	Documents         []Document   `json:"documents"`
}

// CarrierArtifacts is one unit of inbound carrier correspondence.
type CarrierArtifacts struct {
	CarrierText       string     `json:"carrier_text"`
	CarrierEstimate   *Estimate  `json:"carrier_estimate,omitempty"`
	ResponseDocuments []Document `json:"response_documents"`
}

// TransitionRecord is an immutable audit entry, created on every
// attempted transition whether it succeeded or not.
type TransitionRecord struct {
	FromState      ClaimState `json:"from_state"`
	ToState        ClaimState `json:"to_state"`
	UserID         string     `json:"user_id"`
	ClaimID        string     `json:"claim_id"`
	Reason         string     `json:"reason"`
	CompletedSteps []int      `json:"completed_steps"`
	Succeeded      bool       `json:"succeeded"`
	Timestamp      time.Time  `json:"timestamp"`
}

type ResponseClassification struct {
	ResponseType ResponseType    `json:"response_type"`
	Confidence   ConfidenceLevel `json:"confidence"`
	Indicators   []string        `json:"indicators"`
	Limitations  []string        `json:"limitations"`
}

type QuantityReduction struct {
	Description      string  `json:"description"`
	OriginalQuantity float64 `json:"original_quantity"`
	CarrierQuantity  float64 `json:"carrier_quantity"`
}

type EstimateDelta struct {
	RemovedLineItems        []LineItem          `json:"removed_line_items"`
	ReducedQuantities       []QuantityReduction `json:"reduced_quantities"`
	CategoryOmissions       []string            `json:"category_omissions"`
	ValuationChangesPresent bool                `json:"valuation_changes_present"`
	ScopeRegressionDetected bool                `json:"scope_regression_detected"`
}

type RegressionVerdict struct {
	RegressionDetected bool               `json:"regression_detected"`
	RegressionType     RegressionType     `json:"regression_type"`
	Evidence           []string           `json:"evidence"`
	Severity           RegressionSeverity `json:"severity"`
}

type ReadinessResult struct {
	Ready                  bool             `json:"ready"`
	BlockingIssues         []string         `json:"blocking_issues"`
	Holdbacks              []string         `json:"holdbacks"`
	RiskFlags              []string         `json:"risk_flags"`
	AllowedSubmissionTypes []SubmissionType `json:"allowed_submission_types"`
}

type ExcludedDocument struct {
	Document Document `json:"document"`
	Reason   string   `json:"reason"`
}

type AuditMetadata struct {
	ClaimID             string         `json:"claim_id"`
	SubmissionType      SubmissionType `json:"submission_type"`
	GeneratedAt         time.Time      `json:"generated_at"`
	DocumentCount       int            `json:"document_count"`
	SanitizationApplied bool           `json:"sanitization_applied"`
	RemovedPhrases      []string       `json:"removed_phrases"`
}

// EnforcementMetadata is attached by the submission state enforcer after
// the full validation chain has run.
type EnforcementMetadata struct {
	ClaimID          string          `json:"claim_id"`
	StateValidation  bool            `json:"state_validation"`
	ReadinessCheck   ReadinessResult `json:"readiness_check"`
	PacketValidation bool            `json:"packet_validation"`
}

type SubmissionPacket struct {
	CoverNarrative    string               `json:"cover_narrative"`
	IncludedDocuments []Document           `json:"included_documents"`
	ExcludedDocuments []ExcludedDocument   `json:"excluded_documents"`
	AuditMetadata     AuditMetadata        `json:"audit_metadata"`
	Enforcement       *EnforcementMetadata `json:"enforcement,omitempty"`
}

type BoundaryViolation struct {
	BoundaryType  BoundaryType `json:"boundary_type"`
	MatchedPhrase string       `json:"matched_phrase"`
	Location      int          `json:"location"`
}

type LeverageSignal struct {
	SignalType      string `json:"signal_type"`
	Description     string `json:"description"`
	SourceReference string `json:"source_reference"`
}

type NegotiationIntelligence struct {
	Posture      PostureType      `json:"posture"`
	Signals      []LeverageSignal `json:"signals"`
	Observations []string         `json:"observations"`
}
