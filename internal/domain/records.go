package domain

import "time"

type ActionStatus string

const (
	ActionPending   ActionStatus = "PENDING"
	ActionResolved  ActionStatus = "RESOLVED"
	ActionDismissed ActionStatus = "DISMISSED"
)

// ClaimRecord is the persisted claim row. The snapshot column carries
// the full ClaimSnapshot as JSON; state and completed steps are also
// stored as columns so they can be queried without unpacking it.
type ClaimRecord struct {
	ID             string     `json:"id"`
	State          ClaimState `json:"state"`
	CompletedSteps []int      `json:"completed_steps"`
	Snapshot       []byte     `json:"snapshot"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CarrierResponseRecord is one stored unit of inbound carrier
// correspondence plus the classification the engine assigned to it.
type CarrierResponseRecord struct {
	ID           string          `json:"id"`
	ClaimID      string          `json:"claim_id"`
	ObjectKey    string          `json:"object_key"`
	RawText      string          `json:"raw_text"`
	ResponseType ResponseType    `json:"response_type"`
	Confidence   ConfidenceLevel `json:"confidence"`
	ReceivedAt   time.Time       `json:"received_at"`
}

// ActionQueueItem is a claimant-facing action awaiting resolution. A
// RESUBMIT or REVIEW action produced by the resolver sits here until
// the claimant resolves or dismisses it.
type ActionQueueItem struct {
	ID         string       `json:"id"`
	ClaimID    string       `json:"claim_id"`
	ResponseID string       `json:"response_id,omitempty"`
	ActionType ActionType   `json:"action_type"`
	Status     ActionStatus `json:"status"`
	Reason     string       `json:"reason"`
	CreatedAt  time.Time    `json:"created_at"`
}

// SubmissionRecord is the audit trail of a dispatched packet.
type SubmissionRecord struct {
	ID             string         `json:"id"`
	ClaimID        string         `json:"claim_id"`
	SubmissionType SubmissionType `json:"submission_type"`
	PacketJSON     []byte         `json:"packet_json"`
	ObjectKey      string         `json:"object_key"`
	SubmittedAt    time.Time      `json:"submitted_at"`
}
