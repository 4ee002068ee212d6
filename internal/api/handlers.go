package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"claimflow/internal/config"
	"claimflow/internal/domain"
	"claimflow/internal/storage"
	appTemporal "claimflow/internal/temporal"
)

type Handler struct {
	cfg            config.Config
	store          *storage.PostgresStore
	blob           uploadBlobStore
	temporalClient client.Client
}

type uploadBlobStore interface {
	PutCarrierResponse(ctx context.Context, claimID, filename string, content []byte) (string, error)
}

type claimResponse struct {
	ClaimID        string           `json:"claim_id"`
	State          domain.ClaimState `json:"state"`
	CompletedSteps []int            `json:"completed_steps"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type transitionRequest struct {
	ToState string `json:"to_state"`
	UserID  string `json:"user_id"`
	Reason  string `json:"reason,omitempty"`
}

type submitRequest struct {
	SubmissionType string `json:"submission_type"`
	UserID         string `json:"user_id"`
}

type resolveActionRequest struct {
	ResponseID string `json:"response_id"`
	Status     string `json:"status"`
	ResolvedBy string `json:"resolved_by,omitempty"`
	Note       string `json:"note,omitempty"`
}

func NewHandler(cfg config.Config, store *storage.PostgresStore, blob uploadBlobStore, temporalClient client.Client) *Handler {
	return &Handler{cfg: cfg, store: store, blob: blob, temporalClient: temporalClient}
}

func (h *Handler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	claimID := uuid.NewString()
	if err := h.store.CreateClaim(ctx, claimID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to create claim"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"claim_id": claimID, "state": domain.StateIntake})
}

func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request, claimID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.store.GetClaim(ctx, claimID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "claim not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch claim"})
		return
	}
	writeJSON(w, http.StatusOK, claimResponse{
		ClaimID:        rec.ID,
		State:          rec.State,
		CompletedSteps: rec.CompletedSteps,
		UpdatedAt:      rec.UpdatedAt,
	})
}

func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request, claimID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var snapshot domain.ClaimSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	if err := h.store.SaveClaimSnapshot(ctx, claimID, snapshot); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to save snapshot"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"claim_id": claimID, "status": "snapshot_saved"})
}

// CompleteStep gates step completion on the claim's current phase; a
// step for a later phase is refused, not queued.
func (h *Handler) CompleteStep(w http.ResponseWriter, r *http.Request, claimID string, step int) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.store.GetClaim(ctx, claimID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "claim not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch claim"})
		return
	}

	check := domain.IsStepAllowed(step, rec.State)
	if !check.Allowed {
		writeJSON(w, http.StatusConflict, map[string]any{"error": check.Reason})
		return
	}

	if err := h.store.CompleteStep(ctx, claimID, step); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to record step"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"claim_id": claimID, "step": step, "status": "completed"})
}

func (h *Handler) RequestTransition(w http.ResponseWriter, r *http.Request, claimID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	target := domain.ClaimState(req.ToState)
	if !domain.IsValidState(target) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unknown target state"})
		return
	}

	rec, err := h.store.GetClaim(ctx, claimID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "claim not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch claim"})
		return
	}

	next, record, transitionErr := domain.TransitionState(domain.TransitionRequest{
		CurrentState:   rec.State,
		NextState:      target,
		CompletedSteps: rec.CompletedSteps,
		UserID:         req.UserID,
		ClaimID:        claimID,
		Reason:         req.Reason,
	}, time.Now().UTC())

	// The attempt lands on the audit trail either way.
	if err := h.store.ApplyTransition(ctx, record); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to record transition"})
		return
	}
	if transitionErr != nil {
		writeJSON(w, http.StatusConflict, map[string]any{"error": transitionErr.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"claim_id": claimID, "state": next})
}

func (h *Handler) ListTransitions(w http.ResponseWriter, r *http.Request, claimID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.store.ListTransitions(ctx, claimID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch transitions"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": records})
}

func (h *Handler) AvailableTransitions(w http.ResponseWriter, r *http.Request, claimID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.store.GetClaim(ctx, claimID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "claim not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch claim"})
		return
	}
	writeJSON(w, http.StatusOK, domain.GetAvailableTransitions(rec.State, rec.CompletedSteps))
}

func (h *Handler) GetReadiness(w http.ResponseWriter, r *http.Request, claimID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	snapshot, err := h.store.GetClaimSnapshot(ctx, claimID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "claim not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch claim"})
		return
	}

	result := domain.EvaluateSubmissionReadiness(snapshot)
	writeJSON(w, http.StatusOK, map[string]any{
		"claim_id":  claimID,
		"readiness": result,
		"summary":   domain.ReadinessSummary(result),
	})
}

// SubmitClaim starts the submission workflow; enforcement happens
// inside it. The endpoint only rejects requests that are malformed or
// trivially ineligible.
func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request, claimID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	submissionType := domain.SubmissionType(req.SubmissionType)
	switch submissionType {
	case domain.SubmissionInitial, domain.SubmissionResubmission, domain.SubmissionSupplement:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid submission type"})
		return
	}

	snapshot, err := h.store.GetClaimSnapshot(ctx, claimID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "claim not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch claim"})
		return
	}
	if decision := domain.CheckSubmissionAllowed(snapshot); !decision.Allowed {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "submission not allowed", "reasons": decision.Reasons})
		return
	}

	workflowID := h.submissionWorkflowID(claimID)
	run, err := h.temporalClient.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: h.cfg.TemporalTaskQueue,
	}, appTemporal.ClaimSubmissionWorkflowName, appTemporal.ClaimSubmissionWorkflowInput{
		ClaimID:        claimID,
		SubmissionType: submissionType,
		UserID:         req.UserID,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to start submission workflow"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"claim_id":    claimID,
		"workflow_id": workflowID,
		"run_id":      run.GetRunID(),
		"status":      "submission_started",
	})
}

// UploadCarrierResponse persists correspondence bytes to object storage
// and returns quickly. Workflow start is decoupled: the event handler
// listens for object-created events and starts the response workflow.
func (h *Handler) UploadCarrierResponse(w http.ResponseWriter, r *http.Request, claimID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if err := r.ParseMultipartForm(h.cfg.AllowedUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid multipart payload"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "file form field is required"})
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, h.cfg.AllowedUploadBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "failed to read file"})
		return
	}
	if int64(len(body)) > h.cfg.AllowedUploadBytes {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "file exceeds size limit"})
		return
	}
	if !isSupportedTextUpload(body) {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]any{"error": "only plain-text correspondence is accepted"})
		return
	}

	if _, err := h.store.GetClaim(ctx, claimID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "claim not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch claim"})
		return
	}

	objectKey, err := h.blob.PutCarrierResponse(ctx, claimID, header.Filename, body)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to upload file"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"claim_id":   claimID,
		"object_key": objectKey,
		"status":     "response_received",
	})
}

func (h *Handler) ListCarrierResponses(w http.ResponseWriter, r *http.Request, claimID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.store.ListCarrierResponses(ctx, claimID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch carrier responses"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": records})
}

func (h *Handler) PendingActions(w http.ResponseWriter, r *http.Request, claimID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.store.ListPendingActions(ctx, claimID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch pending actions"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ResolveAction signals the waiting response workflow. Signals do not
// start workflows; the event handler does.
func (h *Handler) ResolveAction(w http.ResponseWriter, r *http.Request, claimID string, actionID string) {
	var req resolveActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	status := domain.ActionStatus(req.Status)
	switch status {
	case domain.ActionResolved, domain.ActionDismissed:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid status"})
		return
	}
	if req.ResponseID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "response_id is required"})
		return
	}

	signal := appTemporal.ActionResolvedSignal{
		ActionID:   actionID,
		Status:     status,
		ResolvedBy: req.ResolvedBy,
		Note:       req.Note,
	}
	if err := h.temporalClient.SignalWorkflow(r.Context(), h.responseWorkflowID(claimID, req.ResponseID), "", appTemporal.ActionResolvedSignalName, signal); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to signal workflow"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"claim_id": claimID, "action_id": actionID, "status": "action_signal_sent"})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) submissionWorkflowID(claimID string) string {
	return fmt.Sprintf("%s-submit-%s", h.cfg.WorkflowIDPrefix, claimID)
}

func (h *Handler) responseWorkflowID(claimID, responseID string) string {
	return fmt.Sprintf("%s-response-%s-%s", h.cfg.WorkflowIDPrefix, claimID, responseID)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
