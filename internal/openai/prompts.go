package openai

import (
	"strings"
)

const NARRATIVE_SYSTEM = `You are a claim-submission narrative engine.
You describe the contents of an insurance claim package in neutral, factual language.
You must output ONLY valid JSON and nothing else.
No markdown. No comments. No extra keys.
You never give advice, never recommend actions, never address the reader as "you",
and never characterize any amount as owed, deserved, or unfair.
You state what the package contains and what the documents show. Nothing more.`

const NARRATIVE_USER_TEMPLATE = `Draft a short cover narrative for an insurance claim submission.
Return JSON that matches EXACTLY the schema below.

Rules:
- Output JSON only.
- Use the schema keys exactly: "narrative" (string) and "confidence" (number between 0 and 1).
- The narrative describes the enclosed documents and the claim facts in third person.
- No advice, no recommendations, no second-person phrasing, no entitlement language.
- Keep the narrative under 120 words.

Claim ID: {{CLAIM_ID}}
Submission type: {{SUBMISSION_TYPE}}

Enclosed documents:
{{DOCUMENT_LIST}}

Claim facts:
{{CLAIM_FACTS}}

Return JSON only.`

const REDRAFT_SYSTEM = `You are a strict narrative correction engine.
You receive a draft that contained advisory or entitlement phrasing.
You must return ONLY corrected JSON matching the schema exactly.
No markdown. No commentary. No extra keys.
Remove every directive, recommendation, and characterization of fairness or entitlement.
Keep only neutral description of the claim package.`

const REDRAFT_USER_TEMPLATE = `The previous narrative draft contained phrasing outside the descriptive scope.

Offending draft:
{{DRAFT}}

Phrases that must not appear:
{{OFFENDING_PHRASES}}

Rewrite the narrative as pure description of the enclosed documents.
Return JSON only with keys "narrative" and "confidence".`

func RenderTemplate(tpl string, vars map[string]string) string {
	rendered := tpl
	for k, v := range vars {
		rendered = strings.ReplaceAll(rendered, "{{"+k+"}}", v)
	}
	return rendered
}

func BuildNarrativeUserPrompt(claimID string, submissionType string, documentList []string, claimFacts string) string {
	return RenderTemplate(NARRATIVE_USER_TEMPLATE, map[string]string{
		"CLAIM_ID":        claimID,
		"SUBMISSION_TYPE": submissionType,
		"DOCUMENT_LIST":   "- " + strings.Join(documentList, "\n- "),
		"CLAIM_FACTS":     claimFacts,
	})
}

func BuildRedraftUserPrompt(draft string, offendingPhrases []string) string {
	return RenderTemplate(REDRAFT_USER_TEMPLATE, map[string]string{
		"DRAFT":             draft,
		"OFFENDING_PHRASES": strings.Join(offendingPhrases, ", "),
	})
}
