// Package claim extracts structured claim forms and compares assertions
// against them deterministically. The engine never invents a numeric
// match: values either compare structurally within an explicit tolerance
// or the pair is delegated to the LLM as advisory evidence.
package claim

import (
	"encoding/json"
	"strings"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
)

// Form is the tagged variant a comparison operates on. Exactly the fields
// for Kind are meaningful; everything else stays zero. The Kind switch in
// Compare is exhaustive.
type Form struct {
	Kind types.ClaimFormKind

	Value float64 // numeric
	Unit  string  // numeric, range

	Low  float64 // range
	High float64 // range

	Values []string // enum

	Bool bool // boolean

	Text string // text fallback, compared via LLM only

	Authority     types.ClaimAuthority
	TruthRegime   string
	HedgeStrength float64
	ScopeDims     map[string]string
}

// FromClaim projects a persisted MaterialClaim row into its comparison
// form. Rows with missing per-kind values degrade to text so they route to
// the LLM instead of comparing garbage zeroes.
func FromClaim(c *types.MaterialClaim) Form {
	f := Form{
		Kind:          c.FormKind,
		Authority:     c.Authority,
		TruthRegime:   c.TruthRegime,
		HedgeStrength: c.HedgeStrength,
		Text:          c.Content,
	}
	if len(c.ScopeDims) > 0 {
		_ = json.Unmarshal(c.ScopeDims, &f.ScopeDims)
	}
	if f.Authority == "" {
		f.Authority = types.AuthorityMedium
	}

	switch c.FormKind {
	case types.ClaimFormNumeric:
		if c.NumericValue == nil {
			f.Kind = types.ClaimFormText
			return f
		}
		f.Value = *c.NumericValue
		f.Unit = c.NumericUnit
	case types.ClaimFormRange:
		if c.RangeLow == nil || c.RangeHigh == nil {
			f.Kind = types.ClaimFormText
			return f
		}
		f.Low = *c.RangeLow
		f.High = *c.RangeHigh
		f.Unit = c.NumericUnit
	case types.ClaimFormEnum:
		if len(c.EnumValues) > 0 {
			_ = json.Unmarshal(c.EnumValues, &f.Values)
		}
		if len(f.Values) == 0 {
			f.Kind = types.ClaimFormText
			return f
		}
	case types.ClaimFormBoolean:
		if c.BoolValue == nil {
			f.Kind = types.ClaimFormText
			return f
		}
		f.Bool = *c.BoolValue
	default:
		f.Kind = types.ClaimFormText
		if strings.TrimSpace(c.TextValue) != "" {
			f.Text = c.TextValue
		}
	}
	return f
}

// InferAuthority maps claim provenance to an authority level: contracts,
// SLAs, and specs bind hardest; marketing and slideware bind least.
func InferAuthority(sourceType string) types.ClaimAuthority {
	switch strings.ToLower(strings.TrimSpace(sourceType)) {
	case "contract", "sla", "spec", "specification":
		return types.AuthorityHigh
	case "marketing", "slides", "slide", "pitch", "brochure":
		return types.AuthorityLow
	default:
		return types.AuthorityMedium
	}
}
