package claim

import (
	"sort"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
)

// Verdict is the final status after pooling evidence across claims.
type Verdict string

const (
	Confirmed    Verdict = "CONFIRMED"
	Contradicted Verdict = "CONTRADICTED"
	PartialMatch Verdict = "PARTIAL"
	// Unverified means no structured pair produced a verdict; the caller
	// falls through to the LLM with the verbatim claim set and treats the
	// answer as advisory.
	Unverified Verdict = "UNVERIFIED"
)

// Evidence is one compared pair feeding aggregation.
type Evidence struct {
	ClaimID   string
	DocID     string
	Authority types.ClaimAuthority
	Expl      Explanation
}

// Aggregated is the pooled outcome, always citing the claim ids it rests
// on -- an aggregation with no supporting evidence is an Unverified one.
type Aggregated struct {
	Verdict          Verdict
	Confidence       float64
	SupportingClaims []string
	ReasonCode       string
}

// Aggregate applies the evidence policy:
// a HIGH-authority contradiction dominates; unanimous support across at
// least two independent documents confirms with pooled confidence; a
// support/contradiction split at equal authority is partial; anything
// structurally undecidable stays unverified for the LLM fallback.
func Aggregate(evidence []Evidence) Aggregated {
	var supports, contradicts, partials []Evidence
	for _, e := range evidence {
		switch e.Expl.Result {
		case Supports:
			supports = append(supports, e)
		case Contradicts:
			contradicts = append(contradicts, e)
		case Partial:
			partials = append(partials, e)
		}
	}

	for _, e := range contradicts {
		if e.Authority == types.AuthorityHigh {
			return Aggregated{
				Verdict:          Contradicted,
				Confidence:       e.Expl.Confidence,
				SupportingClaims: []string{e.ClaimID},
				ReasonCode:       "high_authority_contradiction",
			}
		}
	}

	if len(supports) > 0 && len(contradicts) == 0 && len(partials) == 0 {
		docs := map[string]struct{}{}
		for _, e := range supports {
			docs[e.DocID] = struct{}{}
		}
		if len(docs) >= 2 {
			return Aggregated{
				Verdict:          Confirmed,
				Confidence:       pooledConfidence(supports),
				SupportingClaims: claimIDs(supports),
				ReasonCode:       "independent_support",
			}
		}
		return Aggregated{
			Verdict:          PartialMatch,
			Confidence:       supports[0].Expl.Confidence * 0.8,
			SupportingClaims: claimIDs(supports),
			ReasonCode:       "single_document_support",
		}
	}

	if len(supports) > 0 && len(contradicts) > 0 {
		return Aggregated{
			Verdict:          PartialMatch,
			Confidence:       0.5,
			SupportingClaims: claimIDs(append(append([]Evidence{}, supports...), contradicts...)),
			ReasonCode:       "mixed_evidence",
		}
	}

	if len(contradicts) > 0 {
		return Aggregated{
			Verdict:          Contradicted,
			Confidence:       contradicts[0].Expl.Confidence * 0.9,
			SupportingClaims: claimIDs(contradicts),
			ReasonCode:       "contradiction",
		}
	}

	if len(partials) > 0 {
		return Aggregated{
			Verdict:          PartialMatch,
			Confidence:       partials[0].Expl.Confidence,
			SupportingClaims: claimIDs(partials),
			ReasonCode:       partials[0].Expl.ReasonCode,
		}
	}

	return Aggregated{Verdict: Unverified, ReasonCode: "no_structured_match"}
}

func claimIDs(evidence []Evidence) []string {
	ids := make([]string, 0, len(evidence))
	seen := map[string]struct{}{}
	for _, e := range evidence {
		if _, dup := seen[e.ClaimID]; dup {
			continue
		}
		seen[e.ClaimID] = struct{}{}
		ids = append(ids, e.ClaimID)
	}
	sort.Strings(ids)
	return ids
}

// pooledConfidence combines independent supporting confidences as
// 1 - prod(1 - c_i), capped below 0.99.
func pooledConfidence(supports []Evidence) float64 {
	miss := 1.0
	for _, e := range supports {
		c := e.Expl.Confidence
		if c < 0 {
			c = 0
		}
		if c > 1 {
			c = 1
		}
		miss *= 1 - c
	}
	pooled := 1 - miss
	if pooled > 0.99 {
		pooled = 0.99
	}
	return pooled
}
