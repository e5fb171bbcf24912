package temporal

import (
	"reflect"
	"strings"
	"testing"
)

func cluster() []ClaimAtContext {
	return []ClaimAtContext{
		{ClaimID: "c1", DocID: "d1", Context: "2311", Text: "feature foo is available"},
		{ClaimID: "c2", DocID: "d2", Context: "2402", Text: "feature foo is available"},
		{ClaimID: "c3", DocID: "d2", Context: "2402", Text: "feature bar is available"},
	}
}

func TestValidate(t *testing.T) {
	v := Validate(cluster())
	if !v.Validated || v.DistinctDocs != 2 || v.DistinctValues != 2 {
		t.Fatalf("validation: %+v", v)
	}

	oneDoc := []ClaimAtContext{
		{ClaimID: "c1", DocID: "d1", Context: "2311"},
		{ClaimID: "c2", DocID: "d1", Context: "2402"},
	}
	if Validate(oneDoc).Validated {
		t.Fatal("one document must not validate an axis")
	}
	oneValue := []ClaimAtContext{
		{ClaimID: "c1", DocID: "d1", Context: "2311"},
		{ClaimID: "c2", DocID: "d2", Context: "2311"},
	}
	if Validate(oneValue).Validated {
		t.Fatal("one value must not validate an axis")
	}
}

func TestSinceWhenRefusesUnvalidatedAxis(t *testing.T) {
	res := SinceWhen(cluster(), Validation{Validated: false})
	if !res.Refused {
		t.Fatalf("want refusal, got %+v", res)
	}
	if !strings.Contains(res.Reason, "not validated") {
		t.Fatalf("reason must say why: %q", res.Reason)
	}
	if res.Timeline != nil {
		t.Fatal("refusal must not carry a timeline")
	}
}

func TestSinceWhenOrderedTimeline(t *testing.T) {
	res := SinceWhen(cluster(), Validate(cluster()))
	if res.Refused {
		t.Fatalf("unexpected refusal: %+v", res)
	}
	if len(res.Timeline) != 2 || res.Timeline[0].Context != "2311" || res.Timeline[1].Context != "2402" {
		t.Fatalf("timeline order: %+v", res.Timeline)
	}
	if len(res.Timeline) > 0 && len(res.Timeline[1].Claims) != 2 {
		t.Fatalf("claims grouped by context: %+v", res.Timeline[1])
	}
	if !reflect.DeepEqual(res.SupportingClaims, []string{"c1", "c2", "c3"}) {
		t.Fatalf("traceability: %+v", res.SupportingClaims)
	}
}

func TestSinceWhenUnknownOrderingReturnsContextsOnly(t *testing.T) {
	claims := []ClaimAtContext{
		{ClaimID: "c1", DocID: "d1", Context: "aurora", Text: "x"},
		{ClaimID: "c2", DocID: "d2", Context: "borealis", Text: "x"},
	}
	res := SinceWhen(claims, Validate(claims))
	if res.Refused {
		t.Fatalf("unexpected refusal: %+v", res)
	}
	if res.Timeline != nil {
		t.Fatal("unorderable contexts must not produce a timeline")
	}
	if len(res.Contexts) != 2 {
		t.Fatalf("contexts still returned: %+v", res.Contexts)
	}
	if len(res.SupportingClaims) == 0 {
		t.Fatal("answers always cite sources")
	}
}

func TestInferOrdering(t *testing.T) {
	ord := InferOrdering([]string{"2402", "2311", "2308"})
	if ord.Confidence != OrderingInferred {
		t.Fatalf("numeric contexts must order: %+v", ord)
	}
	if !reflect.DeepEqual(ord.Contexts, []string{"2308", "2311", "2402"}) {
		t.Fatalf("order: %+v", ord.Contexts)
	}

	ord = InferOrdering([]string{"v2.1", "v2.0", "v1.9"})
	if ord.Confidence != OrderingInferred || ord.Contexts[0] != "v1.9" {
		t.Fatalf("dotted versions: %+v", ord)
	}

	ord = InferOrdering([]string{"2402", "everest"})
	if ord.Confidence != OrderingUnknown {
		t.Fatalf("mixed contexts must stay unknown: %+v", ord)
	}
}

func TestStillApplicable(t *testing.T) {
	// Present under the latest context.
	res := StillApplicable("feature foo is available", cluster(), nil, nil)
	if res.Status != Applicable || res.LatestContext != "2402" {
		t.Fatalf("applicable: %+v", res)
	}
	if !reflect.DeepEqual(res.SupportingClaims, []string{"c2"}) {
		t.Fatalf("citations: %+v", res.SupportingClaims)
	}

	// Explicit removal language under the latest context.
	removed := []ClaimAtContext{
		{ClaimID: "c1", DocID: "d1", Context: "2311", Text: "feature baz is available"},
		{ClaimID: "c4", DocID: "d2", Context: "2402", Text: "feature baz was removed in this release"},
	}
	res = StillApplicable("feature baz is available", removed, nil, nil)
	if res.Status != Removed {
		t.Fatalf("removed: %+v", res)
	}

	// Contradicting evidence without removal language.
	contradicting := []ClaimAtContext{{ClaimID: "c5", DocID: "d3", Context: "2402", Text: "feature baz requires an add-on"}}
	base := []ClaimAtContext{
		{ClaimID: "c1", DocID: "d1", Context: "2311", Text: "feature baz is available"},
		{ClaimID: "c6", DocID: "d2", Context: "2402", Text: "unrelated statement"},
	}
	res = StillApplicable("feature baz is available", base, contradicting, nil)
	if res.Status != Superseded {
		t.Fatalf("superseded: %+v", res)
	}

	// Silence: uncertain, never assumed removal.
	res = StillApplicable("feature baz is available", base, nil, nil)
	if res.Status != Uncertain {
		t.Fatalf("uncertain: %+v", res)
	}
}

func TestCompareContexts(t *testing.T) {
	claims := []ClaimAtContext{
		{ClaimID: "a1", Context: "2311", Text: "Feature foo is available"},
		{ClaimID: "a2", Context: "2311", Text: "limit is 100"},
		{ClaimID: "b1", Context: "2402", Text: "feature foo IS available"},
		{ClaimID: "b2", Context: "2402", Text: "limit is 200"},
	}
	res := CompareContexts("2311", "2402", claims)
	if len(res.InBoth) != 1 || res.InBoth[0].ClaimID != "a1" {
		t.Fatalf("in both: %+v", res.InBoth)
	}
	if len(res.OnlyInA) != 1 || res.OnlyInA[0].ClaimID != "a2" {
		t.Fatalf("only in A: %+v", res.OnlyInA)
	}
	if len(res.OnlyInB) != 1 || res.OnlyInB[0].ClaimID != "b2" {
		t.Fatalf("only in B: %+v", res.OnlyInB)
	}
}
