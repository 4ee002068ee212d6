package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// NarrativeDraft is the model's answer to a narrative prompt. The
// narrative still has to clear the negotiation boundary before it can
// be released; parsing only establishes structural validity.
type NarrativeDraft struct {
	Narrative  string  `json:"narrative"`
	Confidence float64 `json:"confidence"`
}

var narrativeAllowedKeys = map[string]struct{}{
	"narrative":  {},
	"confidence": {},
}

// ParseNarrative strictly decodes a model response into a NarrativeDraft.
// Unknown keys, trailing data, and out-of-range confidence all fail.
func ParseNarrative(raw string) (NarrativeDraft, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NarrativeDraft{}, fmt.Errorf("empty model output")
	}

	if err := validateKeys(trimmed, narrativeAllowedKeys, []string{"narrative", "confidence"}); err != nil {
		return NarrativeDraft{}, err
	}

	var draft NarrativeDraft
	if err := strictDecode([]byte(trimmed), &draft); err != nil {
		return NarrativeDraft{}, err
	}
	if strings.TrimSpace(draft.Narrative) == "" {
		return NarrativeDraft{}, fmt.Errorf("model returned a blank narrative")
	}
	if draft.Confidence < 0 || draft.Confidence > 1 {
		return NarrativeDraft{}, fmt.Errorf("confidence %v out of range", draft.Confidence)
	}
	return draft, nil
}

func strictDecode(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("unexpected trailing data")
	}
	return nil
}

func validateKeys(raw string, allowed map[string]struct{}, required []string) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &rawMap); err != nil {
		return err
	}
	for k := range rawMap {
		if _, ok := allowed[k]; !ok {
			keys := sortedKeys(allowed)
			return fmt.Errorf("unknown key %q, allowed: %v", k, keys)
		}
	}
	for _, req := range required {
		if _, ok := rawMap[req]; !ok {
			return fmt.Errorf("missing required key %q", req)
		}
	}
	return nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
