package openai

import (
	"strings"
	"testing"
)

func TestRenderTemplate(t *testing.T) {
	r := RenderTemplate("hello {{A}} {{B}}", map[string]string{
		"A": "one",
		"B": "two",
	})
	if r != "hello one two" {
		t.Fatalf("unexpected render result: %s", r)
	}
}

func TestBuildNarrativeUserPrompt(t *testing.T) {
	prompt := BuildNarrativeUserPrompt("claim-7", "INITIAL", []string{"estimate.pdf", "photos.zip"}, "wind damage to roof")
	for _, p := range []string{"Claim ID: claim-7", "Submission type: INITIAL", "- estimate.pdf", "- photos.zip", "wind damage to roof"} {
		if !strings.Contains(prompt, p) {
			t.Fatalf("prompt missing expected text %q", p)
		}
	}
}

func TestBuildRedraftUserPrompt(t *testing.T) {
	prompt := BuildRedraftUserPrompt("you should demand more", []string{"you should", "demand"})
	if !strings.Contains(prompt, "you should demand more") {
		t.Fatalf("prompt missing draft text")
	}
	if !strings.Contains(prompt, "you should, demand") {
		t.Fatalf("prompt missing offending phrases")
	}
}
