package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

type memGraph struct {
	mu    sync.Mutex
	nodes map[string][]Node // key: tenant|doc|label
	relinked int
}

func newMemGraph() *memGraph {
	return &memGraph{nodes: map[string][]Node{}}
}

func key(tenantID, docID, label string) string { return tenantID + "|" + docID + "|" + label }

func (g *memGraph) seed(tenantID, docID, label string, count int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < count; i++ {
		g.nodes[key(tenantID, docID, label)] = append(g.nodes[key(tenantID, docID, label)], Node{
			Label: label,
			Props: map[string]any{
				"id":               fmt.Sprintf("%s-%03d", label, i),
				"tenant_id":        tenantID,
				"material_file_id": docID,
				"text":             fmt.Sprintf("payload %d", i),
			},
		})
	}
}

func (g *memGraph) ExportNodes(_ context.Context, tenantID, docID, label string) ([]Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	src := g.nodes[key(tenantID, docID, label)]
	out := make([]Node, len(src))
	copy(out, src)
	return out, nil
}

func (g *memGraph) DeleteNodes(_ context.Context, tenantID, docID, label string, _ int) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := key(tenantID, docID, label)
	n := len(g.nodes[k])
	delete(g.nodes, k)
	return n, nil
}

func (g *memGraph) RestoreNodes(_ context.Context, tenantID, docID string, nodes []Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, n := range nodes {
		k := key(tenantID, docID, n.Label)
		g.nodes[k] = append(g.nodes[k], n)
	}
	return nil
}

func (g *memGraph) RelinkRestored(context.Context, string, string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.relinked++
	return nil
}

func (g *memGraph) CountNodes(_ context.Context, tenantID, docID, label string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes[key(tenantID, docID, label)]), nil
}

type memFlags struct {
	mu       sync.Mutex
	archived map[uuid.UUID]string
}

func newMemFlags() *memFlags { return &memFlags{archived: map[uuid.UUID]string{}} }

func (f *memFlags) MarkArchived(_ context.Context, docID uuid.UUID, path string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived[docID] = path
	return nil
}

func (f *memFlags) ClearArchived(_ context.Context, docID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.archived, docID)
	return nil
}

func completeStatus() Status {
	return Status{
		Pass1Status:          "complete",
		Pass2Status:          "complete",
		Pass2PhasesCompleted: []string{"claims", "semantic_consolidation"},
		ConsolidatedAt:       time.Now().Add(-time.Hour),
	}
}

func newTestArchiver(t *testing.T, graph GraphStore, flags DocFlags, minAge time.Duration) *Archiver {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	a, err := New(log, graph, flags, t.TempDir(), minAge)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestArchiveRefusesIneligibleDocument(t *testing.T) {
	a := newTestArchiver(t, newMemGraph(), newMemFlags(), 0)
	cases := []Status{
		{Pass1Status: "running", Pass2Status: "complete", Pass2PhasesCompleted: []string{"semantic_consolidation"}},
		{Pass1Status: "complete", Pass2Status: "failed", Pass2PhasesCompleted: []string{"semantic_consolidation"}},
		{Pass1Status: "complete", Pass2Status: "complete", Pass2PhasesCompleted: []string{"claims"}},
	}
	for i, status := range cases {
		res, err := a.Archive(context.Background(), uuid.New(), uuid.New(), status)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if !res.Refused || res.Reason == "" {
			t.Fatalf("case %d: want typed refusal, got %+v", i, res)
		}
	}
}

func TestArchiveMinimumAge(t *testing.T) {
	a := newTestArchiver(t, newMemGraph(), newMemFlags(), 24*time.Hour)
	status := completeStatus()
	status.ConsolidatedAt = time.Now().Add(-time.Minute)
	res, err := a.Archive(context.Background(), uuid.New(), uuid.New(), status)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if !res.Refused {
		t.Fatalf("too-recent consolidation must refuse: %+v", res)
	}
}

func TestArchiveRestoreRoundTrip(t *testing.T) {
	graph := newMemGraph()
	flags := newMemFlags()
	a := newTestArchiver(t, graph, flags, 0)

	tenantID := uuid.New()
	docID := uuid.New()
	graph.seed(tenantID.String(), docID.String(), LabelDocItem, 10)
	graph.seed(tenantID.String(), docID.String(), LabelTypeAwareChunk, 5)
	graph.seed(tenantID.String(), docID.String(), LabelPageContext, 3)

	res, err := a.Archive(context.Background(), tenantID, docID, completeStatus())
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if res.Refused {
		t.Fatalf("unexpected refusal: %+v", res)
	}
	want := map[string]int{LabelDocItem: 10, LabelTypeAwareChunk: 5, LabelPageContext: 3}
	if !reflect.DeepEqual(res.Stats, want) {
		t.Fatalf("stats: %+v", res.Stats)
	}

	// Graph counts drop to zero, the flag is set, the manifest exists.
	for label := range want {
		if n, _ := graph.CountNodes(context.Background(), tenantID.String(), docID.String(), label); n != 0 {
			t.Fatalf("%s not deleted: %d remain", label, n)
		}
	}
	if flags.archived[docID] != res.Path {
		t.Fatalf("flag path: %q vs %q", flags.archived[docID], res.Path)
	}
	manifest, err := ReadManifest(res.Path)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if manifest.Version != ManifestVersion || !reflect.DeepEqual(manifest.Stats, want) {
		t.Fatalf("manifest: %+v", manifest)
	}

	// Byte-equality of a second export of identical state: re-archive a
	// twin document and compare file contents.
	twin := uuid.New()
	graph.seed(tenantID.String(), twin.String(), LabelDocItem, 2)
	firstExport, _ := a.Archive(context.Background(), tenantID, twin, completeStatus())
	firstBytes, err := os.ReadFile(filepath.Join(firstExport.Path, "doc_items.json"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if err := a.Restore(context.Background(), tenantID, twin); err != nil {
		t.Fatalf("Restore twin: %v", err)
	}
	secondExport, _ := a.Archive(context.Background(), tenantID, twin, completeStatus())
	secondBytes, err := os.ReadFile(filepath.Join(secondExport.Path, "doc_items.json"))
	if err != nil {
		t.Fatalf("read second export: %v", err)
	}
	if string(firstBytes) != string(secondBytes) {
		t.Fatal("round-trip exports are not byte-equal")
	}

	// Restore the original document: counts return, dir removed, flag cleared.
	if err := a.Restore(context.Background(), tenantID, docID); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	for label, n := range want {
		got, _ := graph.CountNodes(context.Background(), tenantID.String(), docID.String(), label)
		if got != n {
			t.Fatalf("%s after restore: got %d want %d", label, got, n)
		}
	}
	if _, err := os.Stat(res.Path); !os.IsNotExist(err) {
		t.Fatalf("archive dir must be removed: %v", err)
	}
	if _, still := flags.archived[docID]; still {
		t.Fatal("flag must be cleared after restore")
	}
	if graph.relinked == 0 {
		t.Fatal("restore must relink structural edges")
	}
}

func TestPreservedLabelsRefused(t *testing.T) {
	for _, label := range []string{"Document", "DocumentVersion", "SectionContext", "ProtoConcept", "CanonicalConcept"} {
		if !IsPreserved(label) {
			t.Fatalf("%s must be preserved", label)
		}
	}
	if IsPreserved(LabelDocItem) || IsPreserved(LabelTypeAwareChunk) || IsPreserved(LabelPageContext) {
		t.Fatal("archivable labels must not be preserved")
	}
}

func TestDocDirSanitizesID(t *testing.T) {
	a := newTestArchiver(t, newMemGraph(), newMemFlags(), 0)
	tenant := uuid.New()
	dir := a.DocDir(tenant, `docs/2024\q1`)
	base := filepath.Base(dir)
	if base != "docs_2024_q1" {
		t.Fatalf("sanitized dir: %q", base)
	}
}

func TestReadManifestRejectsUnknownVersion(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(`{"version":"9.9.9"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadManifest(dir); err == nil {
		t.Fatal("unknown manifest version must be rejected")
	}
}
