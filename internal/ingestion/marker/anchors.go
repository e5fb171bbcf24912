package marker

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// EntityAnchor is a candidate entity a marker may bind to, with the
// evidence that qualifies it.
type EntityAnchor struct {
	Name         string
	Role         string // primary|subject|mention|...
	MentionCount int
	Confidence   float64
}

// Strong reports whether the anchor passes the "strong" test: at least 3
// mentions, or a primary/subject role.
func (a EntityAnchor) Strong() bool {
	return a.MentionCount >= 3 || a.Role == "primary" || a.Role == "subject"
}

// AnchorSource reads candidate entity anchors for a document. The primary
// implementation queries the concept graph; tests and degraded paths use a
// static slice.
type AnchorSource interface {
	// CandidateAnchors returns concepts with >=2 mentions or a
	// primary/subject role, best first, capped at 5.
	CandidateAnchors(ctx context.Context, tenantID, fileID uuid.UUID) ([]EntityAnchor, error)
}

// EntityHint is a summary-supplied fallback anchor used when the graph has
// nothing for the document yet.
type EntityHint struct {
	Name       string
	Confidence float64
}

// SelectAnchor picks the entity a marker binds to. Graph candidates win
// over hints; hints are filtered at confidence >= 0.5. With
// singleEntityRequired, a tie at the top mention count means no anchor at
// all -- resolving against an ambiguous entity would invent semantics.
func SelectAnchor(candidates []EntityAnchor, hints []EntityHint, singleEntityRequired bool) (EntityAnchor, bool) {
	filtered := make([]EntityAnchor, 0, len(candidates))
	for _, c := range candidates {
		if c.MentionCount >= 2 || c.Role == "primary" || c.Role == "subject" {
			filtered = append(filtered, c)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].MentionCount > filtered[j].MentionCount
	})
	if len(filtered) > 5 {
		filtered = filtered[:5]
	}

	if len(filtered) > 0 {
		if singleEntityRequired && len(filtered) > 1 && filtered[0].MentionCount == filtered[1].MentionCount {
			return EntityAnchor{}, false
		}
		return filtered[0], true
	}

	best := EntityHint{}
	for _, h := range hints {
		if h.Confidence < 0.5 {
			continue
		}
		if h.Confidence > best.Confidence {
			best = h
		}
	}
	if best.Name == "" {
		return EntityAnchor{}, false
	}
	return EntityAnchor{Name: best.Name, Confidence: best.Confidence, MentionCount: 0, Role: "mention"}, true
}
