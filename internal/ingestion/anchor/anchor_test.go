package anchor

import (
	"errors"
	"testing"

	pkgerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
)

func TestFromMapRejectsForbiddenFields(t *testing.T) {
	raw := map[string]any{
		"concept_id": "c1",
		"label":      "Zero Downtime Upgrade",
		"role":       "primary",
		"span":       []any{10, 42},
		"embedding":  []float64{0.1, 0.2},
	}
	if _, err := FromMap(raw); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument for extra field, got %v", err)
	}
}

func TestFromMapAcceptsExactPayload(t *testing.T) {
	p, err := FromMap(map[string]any{
		"concept_id": "c1",
		"label":      "Zero Downtime Upgrade",
		"role":       "definition",
		"span":       []any{float64(10), float64(42)},
	})
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	if p.ConceptID != "c1" || p.Role != RoleDefinition || p.Span != [2]int{10, 42} {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

func TestFromMapSpanValidation(t *testing.T) {
	cases := []struct {
		name string
		span any
	}{
		{"reversed", []any{float64(42), float64(10)}},
		{"missing", nil},
		{"wrong-len", []any{float64(1)}},
		{"wrong-type", "10-42"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromMap(map[string]any{"concept_id": "c1", "span": tc.span})
			if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
				t.Fatalf("want ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestUnknownRoleFallsBackToMention(t *testing.T) {
	p, err := FromMap(map[string]any{
		"concept_id": "c1",
		"role":       "protagonist",
		"span":       []any{float64(0), float64(5)},
	})
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	if p.Role != RoleMention {
		t.Fatalf("want fallback to mention, got %q", p.Role)
	}
}

func TestDedupeKeepsWidestOverlappingSpan(t *testing.T) {
	in := []Payload{
		{ConceptID: "c1", Role: RoleMention, Span: [2]int{10, 20}},
		{ConceptID: "c1", Role: RolePrimary, Span: [2]int{15, 40}},
		{ConceptID: "c1", Role: RoleMention, Span: [2]int{100, 110}}, // disjoint, kept
		{ConceptID: "c2", Role: RoleMention, Span: [2]int{12, 18}},   // other concept, kept
	}
	out := Dedupe(in)
	if len(out) != 3 {
		t.Fatalf("want 3 anchors after dedupe, got %d: %+v", len(out), out)
	}
	merged := out[0]
	if merged.ConceptID != "c1" || merged.Span != [2]int{10, 40} {
		t.Fatalf("merged span wrong: %+v", merged)
	}
	if merged.Role != RolePrimary {
		t.Fatalf("primary role lost in merge: %+v", merged)
	}
}

func TestValidate(t *testing.T) {
	ok := []Payload{{ConceptID: "c1", Role: RoleMention, Span: [2]int{0, 4}}}
	if err := Validate(ok); err != nil {
		t.Fatalf("Validate ok: %v", err)
	}
	bad := []Payload{{ConceptID: "c1", Role: "made-up", Span: [2]int{0, 4}}}
	if err := Validate(bad); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument for bad role, got %v", err)
	}
}
