package temporal

import (
	"regexp"
	"sort"
	"strings"
)

// TimelineEntry groups the claims observed under one axis value.
type TimelineEntry struct {
	Context string
	Claims  []ClaimAtContext
}

// SinceWhenResult answers Question A. Refused is the typed "no" -- the
// axis was not validated, so no timeline is served. With an unknown
// ordering the contexts are returned without a timeline.
type SinceWhenResult struct {
	Refused          bool
	Reason           string
	Timeline         []TimelineEntry
	Contexts         []string
	SupportingClaims []string
}

// SinceWhen builds the ordered timeline of claims for a capability along a
// validated axis.
func SinceWhen(claims []ClaimAtContext, validation Validation) SinceWhenResult {
	if !validation.Validated {
		return SinceWhenResult{
			Refused: true,
			Reason: "axis not validated: timeline queries require at least 2 distinct documents and 2 distinct values " +
				"on the applicability axis",
		}
	}

	byContext := map[string][]ClaimAtContext{}
	var contexts []string
	for _, c := range claims {
		if _, seen := byContext[c.Context]; !seen {
			contexts = append(contexts, c.Context)
		}
		byContext[c.Context] = append(byContext[c.Context], c)
	}

	ordering := InferOrdering(contexts)
	supporting := claimIDs(claims)

	if ordering.Confidence != OrderingInferred {
		// Never a guessed order: hand back the set of contexts instead.
		return SinceWhenResult{
			Contexts:         ordering.Contexts,
			SupportingClaims: supporting,
		}
	}

	timeline := make([]TimelineEntry, 0, len(ordering.Contexts))
	for _, ctx := range ordering.Contexts {
		timeline = append(timeline, TimelineEntry{Context: ctx, Claims: byContext[ctx]})
	}
	return SinceWhenResult{
		Timeline:         timeline,
		Contexts:         ordering.Contexts,
		SupportingClaims: supporting,
	}
}

// Applicability is the Question B verdict.
type Applicability string

const (
	Applicable Applicability = "APPLICABLE"
	Removed    Applicability = "REMOVED"
	Superseded Applicability = "SUPERSEDED"
	Uncertain  Applicability = "UNCERTAIN"
)

// StillApplicableResult carries the verdict with the evidence it rests on.
type StillApplicableResult struct {
	Status           Applicability
	LatestContext    string
	Reason           string
	SupportingClaims []string
}

var removalEvidence = regexp.MustCompile(`(?i)\b(removed|deprecated|discontinued|replaced by|no longer)\b`)

// StillApplicable decides whether a claim still holds under the latest
// context of its cluster. Presence under the latest context wins; explicit
// removal language under the latest context means removed; contradicting
// claims mean superseded; silence means uncertain -- removal is never
// assumed.
func StillApplicable(claimKey string, cluster []ClaimAtContext, contradicting []ClaimAtContext, policy LatestPolicy) StillApplicableResult {
	if policy == nil {
		policy = OrderedLatest{}
	}
	var contexts []string
	for _, c := range cluster {
		contexts = append(contexts, c.Context)
	}
	latest, ok := policy.Latest(contexts)
	if !ok {
		return StillApplicableResult{
			Status: Uncertain,
			Reason: "no latest context could be selected for the cluster",
		}
	}

	var atLatest []ClaimAtContext
	for _, c := range cluster {
		if c.Context == latest {
			atLatest = append(atLatest, c)
		}
	}

	key := normalizeClaimKey(claimKey)
	for _, c := range atLatest {
		if normalizeClaimKey(c.Text) == key {
			return StillApplicableResult{
				Status:           Applicable,
				LatestContext:    latest,
				Reason:           "claim appears under the latest context",
				SupportingClaims: claimIDs([]ClaimAtContext{c}),
			}
		}
	}

	for _, c := range atLatest {
		if removalEvidence.MatchString(c.Text) {
			return StillApplicableResult{
				Status:           Removed,
				LatestContext:    latest,
				Reason:           "explicit removal evidence under the latest context",
				SupportingClaims: claimIDs([]ClaimAtContext{c}),
			}
		}
	}

	var contradictingAtLatest []ClaimAtContext
	for _, c := range contradicting {
		if c.Context == latest {
			contradictingAtLatest = append(contradictingAtLatest, c)
		}
	}
	if len(contradictingAtLatest) > 0 {
		return StillApplicableResult{
			Status:           Superseded,
			LatestContext:    latest,
			Reason:           "contradicting evidence under the latest context",
			SupportingClaims: claimIDs(contradictingAtLatest),
		}
	}

	return StillApplicableResult{
		Status:        Uncertain,
		LatestContext: latest,
		Reason:        "no evidence either way under the latest context; removal is never assumed",
	}
}

// CompareResult is the Question C set-diff, every bucket citing its claim ids.
type CompareResult struct {
	OnlyInA []ClaimAtContext
	OnlyInB []ClaimAtContext
	InBoth  []ClaimAtContext
}

// CompareContexts diffs the claims at two axis values by normalized claim
// text.
func CompareContexts(contextA, contextB string, claims []ClaimAtContext) CompareResult {
	atA := map[string]ClaimAtContext{}
	atB := map[string]ClaimAtContext{}
	for _, c := range claims {
		key := normalizeClaimKey(c.Text)
		switch c.Context {
		case contextA:
			atA[key] = c
		case contextB:
			atB[key] = c
		}
	}

	var out CompareResult
	for key, c := range atA {
		if _, both := atB[key]; both {
			out.InBoth = append(out.InBoth, c)
		} else {
			out.OnlyInA = append(out.OnlyInA, c)
		}
	}
	for key, c := range atB {
		if _, both := atA[key]; !both {
			out.OnlyInB = append(out.OnlyInB, c)
		}
	}
	sortByClaimID(out.OnlyInA)
	sortByClaimID(out.OnlyInB)
	sortByClaimID(out.InBoth)
	return out
}

func normalizeClaimKey(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func claimIDs(claims []ClaimAtContext) []string {
	ids := make([]string, 0, len(claims))
	seen := map[string]struct{}{}
	for _, c := range claims {
		if c.ClaimID == "" {
			continue
		}
		if _, dup := seen[c.ClaimID]; dup {
			continue
		}
		seen[c.ClaimID] = struct{}{}
		ids = append(ids, c.ClaimID)
	}
	sort.Strings(ids)
	return ids
}

func sortByClaimID(claims []ClaimAtContext) {
	sort.Slice(claims, func(i, j int) bool { return claims[i].ClaimID < claims[j].ClaimID })
}
