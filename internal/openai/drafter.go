package openai

import (
	"context"
	"fmt"

	"claimflow/internal/domain"
)

// Drafter turns claim facts into a boundary-safe cover narrative. A
// draft that trips the negotiation boundary gets one redraft attempt;
// if the redraft trips too, the caller falls back to the deterministic
// template narrative.
type Drafter struct {
	client Client
	model  string
}

func NewDrafter(client Client, model string) *Drafter {
	return &Drafter{client: client, model: model}
}

type DraftRequest struct {
	ClaimID        string
	SubmissionType domain.SubmissionType
	DocumentNames  []string
	ClaimFacts     string
}

// DraftCoverNarrative runs draft, boundary check, and at most one
// redraft. Every returned narrative has cleared ValidateOutput.
func (d *Drafter) DraftCoverNarrative(ctx context.Context, req DraftRequest) (string, error) {
	userPrompt := BuildNarrativeUserPrompt(req.ClaimID, string(req.SubmissionType), req.DocumentNames, req.ClaimFacts)

	raw, err := d.client.CompleteJSON(ctx, CompletionRequest{
		Model:        d.model,
		SystemPrompt: NARRATIVE_SYSTEM,
		UserPrompt:   userPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("narrative draft: %w", err)
	}

	draft, err := ParseNarrative(raw)
	if err != nil {
		return "", fmt.Errorf("narrative draft: %w", err)
	}

	violations := domain.ComprehensiveBoundaryCheck(draft.Narrative)
	if len(violations) == 0 {
		return draft.Narrative, nil
	}

	phrases := make([]string, 0, len(violations))
	for _, v := range violations {
		phrases = append(phrases, v.MatchedPhrase)
	}

	raw, err = d.client.CompleteJSON(ctx, CompletionRequest{
		Model:        d.model,
		SystemPrompt: REDRAFT_SYSTEM,
		UserPrompt:   BuildRedraftUserPrompt(draft.Narrative, phrases),
	})
	if err != nil {
		return "", fmt.Errorf("narrative redraft: %w", err)
	}

	redraft, err := ParseNarrative(raw)
	if err != nil {
		return "", fmt.Errorf("narrative redraft: %w", err)
	}
	if err := domain.ValidateOutput(redraft.Narrative); err != nil {
		return "", fmt.Errorf("narrative redraft: %w", err)
	}
	return redraft.Narrative, nil
}
