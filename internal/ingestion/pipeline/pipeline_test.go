package pipeline

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestDecodeCachedRejectsUnknownSchema(t *testing.T) {
	raw := []byte(`{"schema_version":"parsed-doc/99","document":{}}`)
	if _, err := DecodeCached(raw); err == nil || !strings.Contains(err.Error(), "unknown cache schema") {
		t.Fatalf("want schema rejection, got %v", err)
	}
}

func TestDecodeCachedRoundTrip(t *testing.T) {
	docID := uuid.New()
	tenantID := uuid.New()
	inner, err := json.Marshal(ParsedDocument{DocID: docID, TenantID: tenantID, Text: "hello"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	wrapper, err := json.Marshal(CacheLoadResult{SchemaVersion: CacheSchemaVersion, Document: inner})
	if err != nil {
		t.Fatalf("marshal wrapper: %v", err)
	}
	doc, err := DecodeCached(wrapper)
	if err != nil {
		t.Fatalf("DecodeCached: %v", err)
	}
	if doc.DocID != docID || doc.TenantID != tenantID || doc.Text != "hello" {
		t.Fatalf("round trip: %+v", doc)
	}
}

func TestMarkerCandidateScan(t *testing.T) {
	text := "Upgrade to 2402 or v2.1 before FPS3 ships; SP12 is out of support."
	var got []string
	for _, loc := range markerCandidate.FindAllStringIndex(text, -1) {
		got = append(got, text[loc[0]:loc[1]])
	}
	want := []string{"2402", "v2.1", "FPS3", "SP12"}
	if len(got) != len(want) {
		t.Fatalf("candidates: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidate %d: got %q want %q", i, got[i], want[i])
		}
	}
}
