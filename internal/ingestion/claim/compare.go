package claim

import (
	"fmt"
	"math"
	"sort"
	"strings"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
)

// Result is the outcome of comparing one assertion against one claim.
type Result string

const (
	Supports    Result = "SUPPORTS"
	Contradicts Result = "CONTRADICTS"
	Partial     Result = "PARTIAL"
	// NeedsLLM marks a pair the deterministic engine refuses to judge: at
	// least one side is unstructured text. The caller routes it to the LLM
	// fallback and treats the answer as advisory.
	NeedsLLM Result = "NEEDS_LLM"
)

// Explanation carries the comparison verdict with its machine-readable
// reason and a human-readable message, always populated.
type Explanation struct {
	Result        Result
	Confidence    float64
	ReasonCode    string
	ReasonMessage string
}

// Compare runs the deterministic pairwise comparison of an assertion form
// against a claim form. Tolerance derives from the claim side (the claim
// is the reference being checked against); scope mismatches surface as
// PARTIAL regardless of the raw form verdict.
func Compare(assertion, cl Form) Explanation {
	if assertion.Kind == types.ClaimFormText || cl.Kind == types.ClaimFormText {
		return Explanation{
			Result:        NeedsLLM,
			Confidence:    0,
			ReasonCode:    "unstructured",
			ReasonMessage: "at least one side is unstructured text; deterministic comparison refused",
		}
	}

	tol := Tolerance(cl.Unit, cl.TruthRegime, cl.Authority, cl.HedgeStrength)
	expl := compareForms(assertion, cl, tol)

	if dim, mismatch := scopeMismatch(assertion, cl); mismatch {
		return Explanation{
			Result:        Partial,
			Confidence:    expl.Confidence * 0.8,
			ReasonCode:    "scope_mismatch",
			ReasonMessage: fmt.Sprintf("claim is constrained on %q but the assertion carries no scope for it", dim),
		}
	}
	return expl
}

func compareForms(assertion, cl Form, tol float64) Explanation {
	switch cl.Kind {
	case types.ClaimFormNumeric:
		switch assertion.Kind {
		case types.ClaimFormNumeric:
			return compareNumericNumeric(assertion.Value, cl.Value, tol)
		case types.ClaimFormRange:
			// An assertion range against a point claim: treat as identity
			// check against the range's bounds.
			if assertion.Low-tol <= cl.Value && cl.Value <= assertion.High+tol {
				return Explanation{Result: Supports, Confidence: 0.85, ReasonCode: "value_in_asserted_range",
					ReasonMessage: fmt.Sprintf("claimed value %v falls inside asserted range [%v, %v]", cl.Value, assertion.Low, assertion.High)}
			}
			return Explanation{Result: Contradicts, Confidence: 0.9, ReasonCode: "out_of_range",
				ReasonMessage: fmt.Sprintf("claimed value %v outside asserted range [%v, %v]", cl.Value, assertion.Low, assertion.High)}
		}
	case types.ClaimFormRange:
		switch assertion.Kind {
		case types.ClaimFormNumeric:
			if cl.Low-tol <= assertion.Value && assertion.Value <= cl.High+tol {
				return Explanation{Result: Supports, Confidence: 0.9, ReasonCode: "in_range",
					ReasonMessage: fmt.Sprintf("asserted value %v inside claimed range [%v, %v]", assertion.Value, cl.Low, cl.High)}
			}
			return Explanation{Result: Contradicts, Confidence: 0.95, ReasonCode: "out_of_range",
				ReasonMessage: fmt.Sprintf("asserted value %v outside claimed range [%v, %v]", assertion.Value, cl.Low, cl.High)}
		case types.ClaimFormRange:
			return compareRangeRange(assertion, cl, tol)
		}
	case types.ClaimFormEnum:
		if assertion.Kind == types.ClaimFormEnum {
			return compareEnums(assertion.Values, cl.Values)
		}
		if assertion.Kind == types.ClaimFormNumeric {
			// A numeric assertion against an enumerated set of allowed
			// values: membership is a partial match when alternatives
			// remain, per the enum subset rule.
			return compareEnums([]string{trimFloat(assertion.Value)}, cl.Values)
		}
	case types.ClaimFormBoolean:
		if assertion.Kind == types.ClaimFormBoolean {
			if assertion.Bool == cl.Bool {
				return Explanation{Result: Supports, Confidence: 0.95, ReasonCode: "boolean_equal",
					ReasonMessage: "boolean values agree"}
			}
			return Explanation{Result: Contradicts, Confidence: 0.95, ReasonCode: "boolean_mismatch",
				ReasonMessage: "boolean values disagree"}
		}
	}

	// Structurally incomparable kinds: refuse rather than guess.
	return Explanation{
		Result:        NeedsLLM,
		Confidence:    0,
		ReasonCode:    "form_mismatch",
		ReasonMessage: fmt.Sprintf("no structural comparison between %s assertion and %s claim", assertion.Kind, cl.Kind),
	}
}

func compareNumericNumeric(a, c, tol float64) Explanation {
	diff := math.Abs(a - c)
	if diff <= tol {
		return Explanation{Result: Supports, Confidence: 0.95, ReasonCode: "within_tolerance",
			ReasonMessage: fmt.Sprintf("|%v - %v| = %v within tolerance %v", a, c, diff, tol)}
	}
	return Explanation{Result: Contradicts, Confidence: 0.95, ReasonCode: "out_of_tolerance",
		ReasonMessage: fmt.Sprintf("|%v - %v| = %v exceeds tolerance %v", a, c, diff, tol)}
}

func compareRangeRange(a, c Form, tol float64) Explanation {
	identical := math.Abs(a.Low-c.Low) <= tol && math.Abs(a.High-c.High) <= tol
	if identical {
		return Explanation{Result: Supports, Confidence: 0.9, ReasonCode: "range_identity",
			ReasonMessage: fmt.Sprintf("ranges [%v, %v] and [%v, %v] coincide", a.Low, a.High, c.Low, c.High)}
	}
	disjoint := a.High+tol < c.Low || c.High+tol < a.Low
	if disjoint {
		return Explanation{Result: Contradicts, Confidence: 0.95, ReasonCode: "range_disjoint",
			ReasonMessage: fmt.Sprintf("ranges [%v, %v] and [%v, %v] do not overlap", a.Low, a.High, c.Low, c.High)}
	}
	return Explanation{Result: Partial, Confidence: 0.7, ReasonCode: "range_partial_overlap",
		ReasonMessage: fmt.Sprintf("ranges [%v, %v] and [%v, %v] overlap partially", a.Low, a.High, c.Low, c.High)}
}

// compareEnums: the assertion supports the claim only when it covers every
// claimed alternative; covering a strict subset leaves alternatives
// unaccounted for and is a partial match.
func compareEnums(asserted, claimed []string) Explanation {
	assertedSet := normalizeSet(asserted)
	claimedSet := normalizeSet(claimed)

	var missing []string
	overlap := 0
	for v := range claimedSet {
		if _, ok := assertedSet[v]; ok {
			overlap++
		} else {
			missing = append(missing, v)
		}
	}
	sort.Strings(missing)

	switch {
	case overlap == len(claimedSet) && overlap > 0:
		return Explanation{Result: Supports, Confidence: 0.9, ReasonCode: "enum_covered",
			ReasonMessage: "assertion covers every claimed alternative"}
	case overlap == 0:
		return Explanation{Result: Contradicts, Confidence: 0.9, ReasonCode: "enum_disjoint",
			ReasonMessage: "assertion shares no value with the claimed alternatives"}
	default:
		return Explanation{Result: Partial, Confidence: 0.75, ReasonCode: "enum_subset",
			ReasonMessage: fmt.Sprintf("assertion omits claimed alternative(s): %s", strings.Join(missing, ", "))}
	}
}

func normalizeSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out[v] = struct{}{}
		}
	}
	return out
}

// scopeMismatch reports the first dimension the claim constrains that the
// assertion carries no scope for.
func scopeMismatch(assertion, cl Form) (string, bool) {
	if len(cl.ScopeDims) == 0 {
		return "", false
	}
	dims := make([]string, 0, len(cl.ScopeDims))
	for d := range cl.ScopeDims {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	for _, d := range dims {
		if _, ok := assertion.ScopeDims[d]; !ok {
			return d, true
		}
	}
	return "", false
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%v", v)
	return s
}
