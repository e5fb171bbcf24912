package claim

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/llm"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

var extractionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"claims": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text":           map[string]any{"type": "string"},
					"verbatim_quote": map[string]any{"type": "string"},
					"claim_type":     map[string]any{"type": "string"},
					"form_kind":      map[string]any{"type": "string", "enum": []string{"numeric", "range", "enum", "boolean", "text"}},
					"numeric_value":  map[string]any{"type": "number"},
					"unit":           map[string]any{"type": "string"},
					"range_low":      map[string]any{"type": "number"},
					"range_high":     map[string]any{"type": "number"},
					"enum_values":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"bool_value":     map[string]any{"type": "boolean"},
					"confidence":     map[string]any{"type": "number"},
				},
				"required": []string{"text", "form_kind", "confidence"},
			},
		},
	},
	"required": []string{"claims"},
}

type extractedClaim struct {
	Text          string   `json:"text"`
	VerbatimQuote string   `json:"verbatim_quote"`
	ClaimType     string   `json:"claim_type"`
	FormKind      string   `json:"form_kind"`
	NumericValue  *float64 `json:"numeric_value"`
	Unit          string   `json:"unit"`
	RangeLow      *float64 `json:"range_low"`
	RangeHigh     *float64 `json:"range_high"`
	EnumValues    []string `json:"enum_values"`
	BoolValue     *bool    `json:"bool_value"`
	Confidence    float64  `json:"confidence"`
}

// Extractor turns claim-bearing chunk text into structured MaterialClaim
// rows. Statements the model cannot structure come back as text forms and
// are later compared by the LLM fallback, never numerically.
type Extractor struct {
	log *logger.Logger
	llm llm.Client
}

func NewExtractor(log *logger.Logger, client llm.Client) (*Extractor, error) {
	if log == nil {
		return nil, fmt.Errorf("claim: logger required")
	}
	return &Extractor{log: log.With("component", "ClaimExtractor"), llm: client}, nil
}

// Extract produces claims for one chunk. Without an LLM there is nothing
// to extract: structured claims are never invented from heuristics alone.
func (e *Extractor) Extract(ctx context.Context, tenantID, setID, fileID uuid.UUID, chunkText, sourceType string) ([]*types.MaterialClaim, error) {
	if e.llm == nil || strings.TrimSpace(chunkText) == "" {
		return nil, nil
	}

	prompt := "Extract the verifiable claims from the following passage. For each claim return its text, a verbatim quote, " +
		"and the most structured form that faithfully represents it: numeric (value+unit), range (low+high+unit), " +
		"enum (the complete list of stated alternatives), boolean, or text when no structure applies. Do not invent values.\n\n" + chunkText
	raw, err := e.llm.GenerateJSON(ctx, prompt, "claim_extraction", extractionSchema)
	if err != nil {
		return nil, fmt.Errorf("claim: extraction call: %w", err)
	}
	var parsed struct {
		Claims []extractedClaim `json:"claims"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("claim: extraction output: %w", err)
	}

	authority := InferAuthority(sourceType)
	rows := make([]*types.MaterialClaim, 0, len(parsed.Claims))
	for _, c := range parsed.Claims {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		row := &types.MaterialClaim{
			ID:             uuid.New(),
			TenantID:       tenantID,
			MaterialSetID:  setID,
			MaterialFileID: fileID,
			Key:            claimKey(fileID, c.Text),
			Kind:           kindOrDefault(c.ClaimType),
			Content:        c.Text,
			VerbatimQuote:  c.VerbatimQuote,
			Confidence:     clamp01(c.Confidence),
			Authority:      authority,
			Metadata:       datatypes.JSON(`{}`),
		}
		applyForm(row, c)
		rows = append(rows, row)
	}
	return rows, nil
}

// applyForm fills the tagged-variant columns, degrading to text whenever
// the model claimed a structure it did not supply values for.
func applyForm(row *types.MaterialClaim, c extractedClaim) {
	switch types.ClaimFormKind(c.FormKind) {
	case types.ClaimFormNumeric:
		if c.NumericValue != nil {
			row.FormKind = types.ClaimFormNumeric
			row.NumericValue = c.NumericValue
			row.NumericUnit = c.Unit
			return
		}
	case types.ClaimFormRange:
		if c.RangeLow != nil && c.RangeHigh != nil {
			row.FormKind = types.ClaimFormRange
			row.RangeLow = c.RangeLow
			row.RangeHigh = c.RangeHigh
			row.NumericUnit = c.Unit
			return
		}
	case types.ClaimFormEnum:
		if len(c.EnumValues) > 0 {
			values, _ := json.Marshal(c.EnumValues)
			row.FormKind = types.ClaimFormEnum
			row.EnumValues = datatypes.JSON(values)
			return
		}
	case types.ClaimFormBoolean:
		if c.BoolValue != nil {
			row.FormKind = types.ClaimFormBoolean
			row.BoolValue = c.BoolValue
			return
		}
	}
	row.FormKind = types.ClaimFormText
	row.TextValue = c.Text
}

func claimKey(fileID uuid.UUID, text string) string {
	h := sha256.Sum256([]byte(fileID.String() + "|" + strings.Join(strings.Fields(strings.ToLower(text)), " ")))
	return "claim:" + hex.EncodeToString(h[:12])
}

func kindOrDefault(k string) string {
	if strings.TrimSpace(k) == "" {
		return "claim"
	}
	return k
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
