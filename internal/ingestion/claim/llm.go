package claim

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/neurobridge-backend/internal/llm"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// advisoryCap bounds every LLM-produced comparison: a model opinion about
// unstructured text never outranks a structural verdict.
const advisoryCap = 0.7

var comparisonSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"result":         map[string]any{"type": "string", "enum": []string{"SUPPORTS", "CONTRADICTS", "PARTIAL"}},
		"confidence":     map[string]any{"type": "number"},
		"reason_message": map[string]any{"type": "string"},
	},
	"required": []string{"result", "confidence", "reason_message"},
}

// FallbackComparer judges the pairs the deterministic engine refused
// (NEEDS_LLM) by showing the model the verbatim claim set.
type FallbackComparer struct {
	log *logger.Logger
	llm llm.Client
}

func NewFallbackComparer(log *logger.Logger, client llm.Client) (*FallbackComparer, error) {
	if log == nil {
		return nil, fmt.Errorf("claim: logger required")
	}
	return &FallbackComparer{log: log.With("component", "ClaimFallbackComparer"), llm: client}, nil
}

// Compare sends the assertion and the verbatim claims to the LLM. The
// verdict comes back advisory: confidence capped at 0.7, and an
// unavailable or unusable model yields NEEDS_LLM unchanged so the caller
// can surface "unverified" rather than a guess.
func (f *FallbackComparer) Compare(ctx context.Context, assertionText string, verbatimClaims []string) Explanation {
	refused := Explanation{
		Result:        NeedsLLM,
		ReasonCode:    "llm_unavailable",
		ReasonMessage: "no structured comparison possible and the LLM fallback is unavailable",
	}
	if f.llm == nil || strings.TrimSpace(assertionText) == "" || len(verbatimClaims) == 0 {
		return refused
	}

	var b strings.Builder
	b.WriteString("Judge whether the assertion is supported, contradicted, or partially matched by the claims below. Quote-level fidelity matters: do not treat different numbers as equivalent.\n")
	fmt.Fprintf(&b, "Assertion: %s\n\nClaims:\n", assertionText)
	for i, c := range verbatimClaims {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}

	raw, err := f.llm.GenerateJSON(ctx, b.String(), "claim_comparison", comparisonSchema)
	if err != nil {
		f.log.Warn("claim comparison llm call failed", "error", err)
		return refused
	}
	var parsed struct {
		Result        string  `json:"result"`
		Confidence    float64 `json:"confidence"`
		ReasonMessage string  `json:"reason_message"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		f.log.Warn("claim comparison llm output malformed", "error", err)
		return refused
	}

	var result Result
	switch parsed.Result {
	case string(Supports):
		result = Supports
	case string(Contradicts):
		result = Contradicts
	case string(Partial):
		result = Partial
	default:
		f.log.Warn("claim comparison llm verdict outside enum", "verdict", parsed.Result)
		return refused
	}

	confidence := parsed.Confidence
	if confidence > advisoryCap {
		confidence = advisoryCap
	}
	if confidence < 0 {
		confidence = 0
	}
	return Explanation{
		Result:        result,
		Confidence:    confidence,
		ReasonCode:    "llm_advisory",
		ReasonMessage: parsed.ReasonMessage,
	}
}
