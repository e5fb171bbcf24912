// Package anchor builds and validates the minimal concept-anchor payloads
// attached to retrieval chunks. An anchor is a pointer from a chunk span to
// a concept id, never a copy of the concept: the payload carries exactly
// four fields and rejects anything richer at the boundary.
package anchor

import (
	"fmt"
	"sort"

	pkgerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
)

// Roles an anchor may carry. Unknown roles fall back to RoleMention.
const (
	RolePrimary    = "primary"
	RoleMention    = "mention"
	RoleDefinition = "definition"
	RoleExample    = "example"
)

var validRoles = map[string]struct{}{
	RolePrimary:    {},
	RoleMention:    {},
	RoleDefinition: {},
	RoleExample:    {},
}

// Payload is the complete anchor attachment: concept id, display label,
// role, and a chunk-local [start, end) span. No other field may exist.
type Payload struct {
	ConceptID string `json:"concept_id"`
	Label     string `json:"label"`
	Role      string `json:"role"`
	Span      [2]int `json:"span"`
}

var allowedKeys = map[string]struct{}{
	"concept_id": {},
	"label":      {},
	"role":       {},
	"span":       {},
}

// FromMap validates a raw payload map at the boundary. Any key outside the
// four-field contract is a schema violation and the payload is rejected,
// never persisted.
func FromMap(raw map[string]any) (Payload, error) {
	for k := range raw {
		if _, ok := allowedKeys[k]; !ok {
			return Payload{}, fmt.Errorf("anchor payload carries forbidden field %q: %w", k, pkgerrors.ErrInvalidArgument)
		}
	}
	var p Payload
	if v, ok := raw["concept_id"].(string); ok {
		p.ConceptID = v
	}
	if p.ConceptID == "" {
		return Payload{}, fmt.Errorf("anchor payload missing concept_id: %w", pkgerrors.ErrInvalidArgument)
	}
	if v, ok := raw["label"].(string); ok {
		p.Label = v
	}
	if v, ok := raw["role"].(string); ok {
		p.Role = v
	}
	p.Role = NormalizeRole(p.Role)

	span, err := spanFromAny(raw["span"])
	if err != nil {
		return Payload{}, err
	}
	p.Span = span
	return p, nil
}

func spanFromAny(v any) ([2]int, error) {
	toInt := func(x any) (int, bool) {
		switch n := x.(type) {
		case int:
			return n, true
		case int64:
			return int(n), true
		case float64:
			return int(n), true
		default:
			return 0, false
		}
	}
	var pair []any
	switch s := v.(type) {
	case []any:
		pair = s
	case []int:
		if len(s) == 2 {
			return [2]int{s[0], s[1]}, nil
		}
	case [2]int:
		return s, nil
	}
	if len(pair) == 2 {
		a, okA := toInt(pair[0])
		b, okB := toInt(pair[1])
		if okA && okB {
			if b < a {
				return [2]int{}, fmt.Errorf("anchor span end before start: %w", pkgerrors.ErrInvalidArgument)
			}
			return [2]int{a, b}, nil
		}
	}
	return [2]int{}, fmt.Errorf("anchor span must be [start, end]: %w", pkgerrors.ErrInvalidArgument)
}

// NormalizeRole maps an unknown role to "mention" instead of failing: role
// vocabularies drift across extractors, spans don't.
func NormalizeRole(role string) string {
	if _, ok := validRoles[role]; ok {
		return role
	}
	return RoleMention
}

// Dedupe collapses anchors with the same concept id whose spans overlap,
// keeping the widest span. Role preference on merge: the surviving anchor's
// role wins unless the merged one is primary (a primary mention must not be
// demoted by a wider plain mention).
func Dedupe(payloads []Payload) []Payload {
	if len(payloads) <= 1 {
		return payloads
	}
	sorted := make([]Payload, len(payloads))
	copy(sorted, payloads)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ConceptID != sorted[j].ConceptID {
			return sorted[i].ConceptID < sorted[j].ConceptID
		}
		return sorted[i].Span[0] < sorted[j].Span[0]
	})

	var out []Payload
	for _, p := range sorted {
		if len(out) > 0 {
			last := &out[len(out)-1]
			if last.ConceptID == p.ConceptID && p.Span[0] < last.Span[1] {
				if p.Span[1] > last.Span[1] {
					last.Span[1] = p.Span[1]
				}
				if p.Role == RolePrimary {
					last.Role = RolePrimary
				}
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// Validate checks an already-typed payload slice: non-empty concept ids,
// ordered spans, enumerated roles. Used before persistence by callers that
// construct payloads programmatically rather than from raw maps.
func Validate(payloads []Payload) error {
	for i, p := range payloads {
		if p.ConceptID == "" {
			return fmt.Errorf("anchor %d missing concept_id: %w", i, pkgerrors.ErrInvalidArgument)
		}
		if p.Span[1] < p.Span[0] {
			return fmt.Errorf("anchor %d span end before start: %w", i, pkgerrors.ErrInvalidArgument)
		}
		if _, ok := validRoles[p.Role]; !ok {
			return fmt.Errorf("anchor %d role %q outside enumeration: %w", i, p.Role, pkgerrors.ErrInvalidArgument)
		}
	}
	return nil
}
