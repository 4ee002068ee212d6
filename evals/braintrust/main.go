package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	braintrust "github.com/braintrustdata/braintrust-sdk-go"
	"github.com/braintrustdata/braintrust-sdk-go/eval"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	stateSubmitted = "SUBMITTED"
	actionProvide  = "PROVIDE_REQUESTED_INFORMATION"
)

type evalInput struct {
	Name     string `json:"name"`
	FilePath string `json:"file_path"`
}

type evalOutput struct {
	ClaimID        string   `json:"claim_id,omitempty"`
	ResponseType   string   `json:"response_type,omitempty"`
	Confidence     string   `json:"confidence,omitempty"`
	FinalState     string   `json:"final_state,omitempty"`
	PendingActions []string `json:"pending_actions,omitempty"`
	ActionResolved bool     `json:"action_resolved,omitempty"`
	RequiresAction bool     `json:"requires_action,omitempty"`
}

type rawCase struct {
	Input    evalInput  `json:"input"`
	Expected evalOutput `json:"expected"`
}

type config struct {
	APIURL         string
	CasesPath      string
	Project        string
	Experiment     string
	ResolveActions bool
	PollInterval   time.Duration
	PollTimeout    time.Duration
	RequestTimeout time.Duration
	Parallelism    int
}

type evalRunner struct {
	cfg    config
	client *http.Client
}

type createClaimResponse struct {
	ClaimID string `json:"claim_id"`
	State   string `json:"state"`
}

type claimStateResponse struct {
	ClaimID string `json:"claim_id"`
	State   string `json:"state"`
}

type carrierResponseItem struct {
	ID           string `json:"id"`
	ResponseType string `json:"response_type"`
	Confidence   string `json:"confidence"`
}

type carrierResponseList struct {
	Items []carrierResponseItem `json:"items"`
}

type pendingActionItem struct {
	ID         string `json:"id"`
	ResponseID string `json:"response_id"`
	ActionType string `json:"action_type"`
}

type pendingActionList struct {
	Items []pendingActionItem `json:"items"`
}

func main() {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		fail(err)
	}

	if strings.TrimSpace(os.Getenv("BRAINTRUST_API_KEY")) == "" {
		fail(errors.New("BRAINTRUST_API_KEY is required"))
	}

	cases, err := loadCases(cfg.CasesPath)
	if err != nil {
		fail(err)
	}

	runner := &evalRunner{
		cfg:    cfg,
		client: &http.Client{},
	}

	if err := runner.healthCheck(ctx); err != nil {
		fail(err)
	}

	tp := sdktrace.NewTracerProvider()
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	bt, err := braintrust.New(
		tp,
		braintrust.WithProject(cfg.Project),
		braintrust.WithBlockingLogin(true),
	)
	if err != nil {
		fail(fmt.Errorf("failed to initialize Braintrust: %w", err))
	}

	evaluator := braintrust.NewEvaluator[evalInput, evalOutput](bt)

	result, err := evaluator.Run(ctx, eval.Opts[evalInput, evalOutput]{
		Experiment: cfg.Experiment,
		Dataset:    eval.NewDataset(cases),
		Task:       eval.T(runner.runCase),
		Scorers: []eval.Scorer[evalInput, evalOutput]{
			eval.NewScorer("response_type", scoreResponseType),
			eval.NewScorer("confidence", scoreConfidence),
			eval.NewScorer("state_resolution", scoreStateResolution),
			eval.NewScorer("action_queue", scoreActionQueue),
		},
		Tags: []string{"claim-lifecycle", "carrier-response", "workflow-api"},
		Metadata: map[string]any{
			"service":          "claimflow",
			"api_url":          cfg.APIURL,
			"resolve_actions":  cfg.ResolveActions,
			"poll_timeout_sec": int(cfg.PollTimeout.Seconds()),
		},
		Parallelism: cfg.Parallelism,
	})
	if err != nil {
		fail(fmt.Errorf("eval run failed: %w", err))
	}

	if runErr := result.Error(); runErr != nil {
		fail(fmt.Errorf("eval completed with errors: %w", runErr))
	}

	if link, err := result.Permalink(); err == nil && link != "" {
		fmt.Println("Braintrust report:", link)
	}

	fmt.Println(result.String())
}

func loadConfig() (config, error) {
	cfg := config{
		APIURL:         getenv("EVAL_API_URL", "http://localhost:8080"),
		CasesPath:      getenv("EVAL_CASES_PATH", "cases.json"),
		Project:        getenv("BRAINTRUST_PROJECT", "claimflow"),
		Experiment:     getenv("EVAL_EXPERIMENT", "carrier-response-classification-eval"),
		ResolveActions: getenvBool("EVAL_RESOLVE_ACTIONS", true),
		PollInterval:   time.Duration(getenvInt("EVAL_POLL_INTERVAL_SEC", 2)) * time.Second,
		PollTimeout:    time.Duration(getenvInt("EVAL_POLL_TIMEOUT_SEC", 180)) * time.Second,
		RequestTimeout: time.Duration(getenvInt("EVAL_REQUEST_TIMEOUT_SEC", 20)) * time.Second,
		Parallelism:    getenvInt("EVAL_PARALLELISM", 1),
	}

	if cfg.PollInterval <= 0 {
		return config{}, errors.New("EVAL_POLL_INTERVAL_SEC must be > 0")
	}
	if cfg.PollTimeout <= 0 {
		return config{}, errors.New("EVAL_POLL_TIMEOUT_SEC must be > 0")
	}
	if cfg.RequestTimeout <= 0 {
		return config{}, errors.New("EVAL_REQUEST_TIMEOUT_SEC must be > 0")
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}

	return cfg, nil
}

func loadCases(path string) ([]eval.Case[evalInput, evalOutput], error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read cases file %s: %w", resolved, err)
	}

	var raw []rawCase
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse cases file %s: %w", resolved, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("cases file is empty: %s", resolved)
	}

	cases := make([]eval.Case[evalInput, evalOutput], 0, len(raw))
	for _, row := range raw {
		cases = append(cases, eval.Case[evalInput, evalOutput]{
			Input:    row.Input,
			Expected: row.Expected,
			Metadata: map[string]any{"name": row.Input.Name, "file_path": row.Input.FilePath},
		})
	}
	return cases, nil
}

// runCase drives a fresh claim to SUBMITTED over the public API, uploads
// the case's carrier letter, and reads back the classification and the
// resolved claim state.
func (r *evalRunner) runCase(ctx context.Context, input evalInput) (evalOutput, error) {
	filePath, err := resolvePath(input.FilePath)
	if err != nil {
		return evalOutput{}, err
	}

	claimID, err := r.prepareSubmittedClaim(ctx)
	if err != nil {
		return evalOutput{}, err
	}

	if err := r.uploadResponse(ctx, claimID, filePath); err != nil {
		return evalOutput{}, err
	}

	classified, err := r.waitForClassification(ctx, claimID)
	if err != nil {
		return evalOutput{}, err
	}

	out := evalOutput{
		ClaimID:      claimID,
		ResponseType: classified.ResponseType,
		Confidence:   classified.Confidence,
	}

	pending, err := r.getPendingActions(ctx, claimID)
	if err != nil {
		return evalOutput{}, err
	}
	for _, item := range pending.Items {
		out.PendingActions = append(out.PendingActions, item.ActionType)
	}
	out.RequiresAction = len(pending.Items) > 0

	if r.cfg.ResolveActions {
		for _, item := range pending.Items {
			if err := r.resolveAction(ctx, claimID, item); err != nil {
				return evalOutput{}, err
			}
			out.ActionResolved = true
		}
	}

	finalState, err := r.waitForSettledState(ctx, claimID)
	if err != nil {
		return evalOutput{}, err
	}
	out.FinalState = finalState

	return out, nil
}

// prepareSubmittedClaim walks a claim through every lifecycle phase the
// same way a claimant would: snapshot, steps, transitions, submission.
func (r *evalRunner) prepareSubmittedClaim(ctx context.Context) (string, error) {
	var created createClaimResponse
	if err := r.doJSON(ctx, http.MethodPost, "/v1/claims", nil, &created, "application/json"); err != nil {
		return "", fmt.Errorf("create claim failed: %w", err)
	}
	if created.ClaimID == "" {
		return "", errors.New("create claim returned no claim_id")
	}
	claimID := created.ClaimID

	snapshot := map[string]any{
		"estimates": []map[string]any{{
			"id":     "est-1",
			"status": "final",
			"line_items": []map[string]any{
				{"description": "Replace roof shingles", "quantity": 30, "unit": "SQ", "amount": 15000},
			},
			"total": 15000,
		}},
		"photos": []map[string]any{{"id": "photo-1", "caption": "roof damage"}},
		"policy_docs": []map[string]any{
			{"id": "pol-1", "name": "policy.pdf", "type": "policy", "status": "complete"},
		},
		"documents": []map[string]any{
			{"id": "doc-1", "name": "estimate.pdf", "type": "estimate", "status": "complete"},
		},
	}
	if err := r.doJSON(ctx, http.MethodPut, "/v1/claims/"+claimID+"/snapshot", snapshot, nil, "application/json"); err != nil {
		return "", fmt.Errorf("save snapshot failed: %w", err)
	}

	phases := []struct {
		steps  []int
		target string
	}{
		{[]int{1, 2}, "DOCUMENT_COLLECTION"},
		{[]int{3, 4, 5}, "ESTIMATE_REVIEWED"},
		{[]int{6, 7, 8, 9, 10}, "SUBMISSION_READY"},
	}
	for _, phase := range phases {
		for _, step := range phase.steps {
			path := fmt.Sprintf("/v1/claims/%s/steps/%d", claimID, step)
			if err := r.doJSON(ctx, http.MethodPost, path, nil, nil, "application/json"); err != nil {
				return "", fmt.Errorf("complete step %d failed: %w", step, err)
			}
		}
		payload := map[string]any{"to_state": phase.target, "user_id": "braintrust-go-eval"}
		if err := r.doJSON(ctx, http.MethodPost, "/v1/claims/"+claimID+"/transitions", payload, nil, "application/json"); err != nil {
			return "", fmt.Errorf("transition to %s failed: %w", phase.target, err)
		}
	}
	for _, step := range []int{11, 12} {
		path := fmt.Sprintf("/v1/claims/%s/steps/%d", claimID, step)
		if err := r.doJSON(ctx, http.MethodPost, path, nil, nil, "application/json"); err != nil {
			return "", fmt.Errorf("complete step %d failed: %w", step, err)
		}
	}

	submitPayload := map[string]any{"submission_type": "INITIAL", "user_id": "braintrust-go-eval"}
	if err := r.doJSON(ctx, http.MethodPost, "/v1/claims/"+claimID+"/submit", submitPayload, nil, "application/json"); err != nil {
		return "", fmt.Errorf("submit failed: %w", err)
	}

	deadline := time.Now().Add(r.cfg.PollTimeout)
	for {
		state, err := r.getClaimState(ctx, claimID)
		if err != nil {
			return "", err
		}
		if state == stateSubmitted {
			return claimID, nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("claim %s did not reach %s (last state %s)", claimID, stateSubmitted, state)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.cfg.PollInterval):
		}
	}
}

func (r *evalRunner) waitForClassification(ctx context.Context, claimID string) (carrierResponseItem, error) {
	deadline := time.Now().Add(r.cfg.PollTimeout)
	for {
		var list carrierResponseList
		if err := r.doJSON(ctx, http.MethodGet, "/v1/claims/"+claimID+"/responses", nil, &list, ""); err != nil {
			return carrierResponseItem{}, err
		}
		for _, item := range list.Items {
			if item.ResponseType != "" {
				return item, nil
			}
		}
		if time.Now().After(deadline) {
			return carrierResponseItem{}, fmt.Errorf("no classified response for claim %s within %s", claimID, r.cfg.PollTimeout)
		}
		select {
		case <-ctx.Done():
			return carrierResponseItem{}, ctx.Err()
		case <-time.After(r.cfg.PollInterval):
		}
	}
}

// waitForSettledState polls until the claim state stops changing between
// two consecutive reads.
func (r *evalRunner) waitForSettledState(ctx context.Context, claimID string) (string, error) {
	deadline := time.Now().Add(r.cfg.PollTimeout)
	last := ""
	for {
		state, err := r.getClaimState(ctx, claimID)
		if err != nil {
			return "", err
		}
		if state == last {
			return state, nil
		}
		last = state
		if time.Now().After(deadline) {
			return last, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.cfg.PollInterval):
		}
	}
}

func (r *evalRunner) getClaimState(ctx context.Context, claimID string) (string, error) {
	var out claimStateResponse
	if err := r.doJSON(ctx, http.MethodGet, "/v1/claims/"+claimID+"/", nil, &out, ""); err != nil {
		return "", err
	}
	return out.State, nil
}

func (r *evalRunner) getPendingActions(ctx context.Context, claimID string) (pendingActionList, error) {
	var out pendingActionList
	if err := r.doJSON(ctx, http.MethodGet, "/v1/claims/"+claimID+"/actions/pending", nil, &out, ""); err != nil {
		return pendingActionList{}, err
	}
	return out, nil
}

func (r *evalRunner) resolveAction(ctx context.Context, claimID string, item pendingActionItem) error {
	payload := map[string]any{
		"response_id": item.ResponseID,
		"status":      "RESOLVED",
		"resolved_by": "braintrust-go-eval",
		"note":        "auto-resolve for eval progression",
	}
	return r.doJSON(ctx, http.MethodPost, "/v1/claims/"+claimID+"/actions/"+item.ID+"/resolve", payload, nil, "application/json")
}

func (r *evalRunner) healthCheck(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := r.doJSON(ctx, http.MethodGet, "/healthz", nil, &resp, ""); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if strings.ToLower(resp.Status) != "ok" {
		return fmt.Errorf("health check returned non-ok status: %s", resp.Status)
	}
	return nil
}

func (r *evalRunner) uploadResponse(ctx context.Context, claimID string, filePath string) error {
	fileBytes, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("failed to create multipart form: %w", err)
	}
	if _, err := part.Write(fileBytes); err != nil {
		return fmt.Errorf("failed to write multipart file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart form: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()

	url := strings.TrimRight(r.cfg.APIURL, "/") + "/v1/claims/" + claimID + "/responses"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("upload response read failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upload failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return nil
}

func (r *evalRunner) doJSON(ctx context.Context, method, path string, in any, out any, contentType string) error {
	reqCtx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, strings.TrimRight(r.cfg.APIURL, "/")+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request failed: method=%s path=%s status=%d body=%s", method, path, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode failed: %w (payload=%s)", err, string(payload))
		}
	}
	return nil
}

func scoreResponseType(_ context.Context, tr eval.TaskResult[evalInput, evalOutput]) (eval.Scores, error) {
	expected := normalizeString(tr.Expected.ResponseType)
	actual := normalizeString(tr.Output.ResponseType)
	if expected != "" && actual == expected {
		return eval.S(1), nil
	}
	return eval.S(0), nil
}

func scoreConfidence(_ context.Context, tr eval.TaskResult[evalInput, evalOutput]) (eval.Scores, error) {
	expected := normalizeString(tr.Expected.Confidence)
	if expected == "" {
		expected = "high"
	}
	if normalizeString(tr.Output.Confidence) == expected {
		return eval.S(1), nil
	}
	return eval.S(0), nil
}

func scoreStateResolution(_ context.Context, tr eval.TaskResult[evalInput, evalOutput]) (eval.Scores, error) {
	expected := normalizeString(tr.Expected.FinalState)
	if expected == "" {
		return eval.S(0), nil
	}
	if normalizeString(tr.Output.FinalState) == expected {
		return eval.S(1), nil
	}
	return eval.S(0), nil
}

func scoreActionQueue(_ context.Context, tr eval.TaskResult[evalInput, evalOutput]) (eval.Scores, error) {
	if tr.Expected.RequiresAction {
		for _, action := range tr.Output.PendingActions {
			if normalizeString(action) == normalizeString(actionProvide) {
				return eval.S(1), nil
			}
		}
		return eval.S(0), nil
	}
	if len(tr.Output.PendingActions) == 0 {
		return eval.S(1), nil
	}
	return eval.S(0), nil
}

func normalizeString(v any) string {
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprintf("%v", v)
	}
	return strings.ToLower(strings.TrimSpace(s))
}

func resolvePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("path is empty")
	}
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("path not found: %s", path)
	}

	candidates := []string{
		path,
		filepath.Join("..", "..", path),
	}

	for _, c := range candidates {
		absPath, err := filepath.Abs(c)
		if err != nil {
			continue
		}
		if _, err := os.Stat(absPath); err == nil {
			return absPath, nil
		}
	}

	return "", fmt.Errorf("path not found: %s", path)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out int
	if _, err := fmt.Sscanf(v, "%d", &out); err != nil {
		return fallback
	}
	return out
}

func getenvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "1") || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
