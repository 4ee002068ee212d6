package temporal

import "claimflow/internal/domain"

const ActionResolvedSignalName = "actionResolved"

// ActionResolvedSignal is sent when the claimant resolves or dismisses
// a pending action. The carrier-response workflow blocks on it after
// queueing an information request.
type ActionResolvedSignal struct {
	ActionID   string              `json:"action_id"`
	Status     domain.ActionStatus `json:"status"`
	ResolvedBy string              `json:"resolved_by,omitempty"`
	Note       string              `json:"note,omitempty"`
}
