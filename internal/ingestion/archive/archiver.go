// Package archive implements reversible structural archiving: once a
// document's semantic consolidation is complete, its structural nodes
// (chunks, items, page contexts) are exported to JSON on disk, deleted
// from the graph in strict order, and restorable byte-for-byte later.
// Semantic nodes are preserved labels the archiver refuses to touch.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

const (
	ManifestVersion = "1.0.0"
	deleteBatchSize = 1000

	LabelDocItem        = "DocItem"
	LabelTypeAwareChunk = "TypeAwareChunk"
	LabelPageContext    = "PageContext"
)

// archiveOrder is the strict delete order: chunks first, then items, then
// page contexts.
var archiveOrder = []struct {
	label string
	file  string
}{
	{LabelTypeAwareChunk, "type_aware_chunks.json"},
	{LabelDocItem, "doc_items.json"},
	{LabelPageContext, "page_contexts.json"},
}

// preservedLabels are never archived; an attempt is refused at the boundary.
var preservedLabels = map[string]struct{}{
	"Document":         {},
	"DocumentVersion":  {},
	"SectionContext":   {},
	"ProtoConcept":     {},
	"CanonicalConcept": {},
	"MaterialFile":     {},
	"VectorChunk":      {},
}

// IsPreserved reports whether a label is off-limits to the archiver.
func IsPreserved(label string) bool {
	_, ok := preservedLabels[label]
	return ok
}

// Node is one exported graph node: its label plus every property,
// including "id". Export and restore round-trip this struct through JSON
// byte-for-byte.
type Node struct {
	Label string         `json:"label"`
	Props map[string]any `json:"props"`
}

// GraphStore is the graph surface the archiver drives. Implementations
// must scope every operation by (tenant, doc) and batch deletes.
type GraphStore interface {
	ExportNodes(ctx context.Context, tenantID, docID, label string) ([]Node, error)
	DeleteNodes(ctx context.Context, tenantID, docID, label string, batchSize int) (int, error)
	RestoreNodes(ctx context.Context, tenantID, docID string, nodes []Node) error
	// RelinkRestored re-creates SectionContext CONTAINS DocItem and
	// DocumentVersion HAS_CHUNK / HAS_PAGE edges for restored nodes.
	RelinkRestored(ctx context.Context, tenantID, docID string) error
	CountNodes(ctx context.Context, tenantID, docID, label string) (int, error)
}

// DocFlags persists the archive flags on the document row.
type DocFlags interface {
	MarkArchived(ctx context.Context, docID uuid.UUID, path string, at time.Time) error
	ClearArchived(ctx context.Context, docID uuid.UUID) error
}

// Status is the document lifecycle snapshot eligibility is judged on.
type Status struct {
	Pass1Status          string
	Pass2Status          string
	Pass2PhasesCompleted []string
	ConsolidatedAt       time.Time
}

// Manifest is written to disk before any deletion; a crash after the
// manifest exists can always roll forward via restore.
type Manifest struct {
	Version    string         `json:"version"`
	TenantID   string         `json:"tenant_id"`
	DocID      string         `json:"doc_id"`
	CreatedAt  time.Time      `json:"created_at"`
	Files      []string       `json:"files"`
	Stats      map[string]int `json:"stats"`
}

// Result is the typed outcome: a refused archive is a normal result with a
// reason, not an error.
type Result struct {
	Refused bool
	Reason  string
	Path    string
	Stats   map[string]int
}

type Archiver struct {
	log     *logger.Logger
	graph   GraphStore
	flags   DocFlags
	baseDir string
	// minAge is the optional minimum time since consolidation before a
	// document becomes archive-eligible.
	minAge time.Duration
	now    func() time.Time
}

func New(log *logger.Logger, graph GraphStore, flags DocFlags, baseDir string, minAge time.Duration) (*Archiver, error) {
	if log == nil {
		return nil, fmt.Errorf("archive: logger required")
	}
	if graph == nil || flags == nil {
		return nil, fmt.Errorf("archive: graph store and doc flags required")
	}
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("archive: base dir required")
	}
	return &Archiver{
		log:     log.With("component", "StructuralArchiver"),
		graph:   graph,
		flags:   flags,
		baseDir: baseDir,
		minAge:  minAge,
		now:     time.Now,
	}, nil
}

// Eligible applies the archive gate: both passes complete and the semantic
// consolidation phase reported done, plus the optional minimum age.
func (a *Archiver) Eligible(status Status) (bool, string) {
	if !strings.EqualFold(status.Pass1Status, "complete") {
		return false, "pass1 not complete"
	}
	if !strings.EqualFold(status.Pass2Status, "complete") {
		return false, "pass2 not complete"
	}
	found := false
	for _, phase := range status.Pass2PhasesCompleted {
		if phase == "semantic_consolidation" {
			found = true
			break
		}
	}
	if !found {
		return false, "semantic_consolidation phase not completed"
	}
	if a.minAge > 0 && a.now().Sub(status.ConsolidatedAt) < a.minAge {
		return false, "consolidation too recent"
	}
	return true, ""
}

// DocDir returns the on-disk directory for a document's archive. Path
// separators in the doc id are flattened so it stays a single directory.
func (a *Archiver) DocDir(tenantID uuid.UUID, docID string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(docID)
	return filepath.Join(a.baseDir, tenantID.String(), safe)
}

// Archive exports, manifests, deletes, and flags -- in that order. It is
// cancellable until the manifest is written; after that the delete phase
// runs to completion so the graph and the manifest never disagree about
// who owns the data.
func (a *Archiver) Archive(ctx context.Context, tenantID, docID uuid.UUID, status Status) (Result, error) {
	if ok, reason := a.Eligible(status); !ok {
		return Result{Refused: true, Reason: reason}, nil
	}

	dir := a.DocDir(tenantID, docID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("archive: mkdir: %w", err)
	}

	stats := map[string]int{}
	files := make([]string, 0, len(archiveOrder)+1)
	for _, step := range archiveOrder {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if IsPreserved(step.label) {
			return Result{}, fmt.Errorf("archive: label %s is preserved: %w", step.label, pkgerrors.ErrInvariantBreach)
		}
		nodes, err := a.graph.ExportNodes(ctx, tenantID.String(), docID.String(), step.label)
		if err != nil {
			return Result{}, fmt.Errorf("archive: export %s: %w", step.label, err)
		}
		if err := writeJSON(filepath.Join(dir, step.file), nodes); err != nil {
			return Result{}, err
		}
		stats[step.label] = len(nodes)
		files = append(files, step.file)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	manifest := Manifest{
		Version:   ManifestVersion,
		TenantID:  tenantID.String(),
		DocID:     docID.String(),
		CreatedAt: a.now().UTC(),
		Files:     files,
		Stats:     stats,
	}
	if err := writeJSON(filepath.Join(dir, "manifest.json"), manifest); err != nil {
		return Result{}, err
	}

	// Point of no return: from here the operation rolls forward. Deletes
	// run detached from the caller's cancellation.
	deleteCtx := context.WithoutCancel(ctx)
	for _, step := range archiveOrder {
		deleted, err := a.graph.DeleteNodes(deleteCtx, tenantID.String(), docID.String(), step.label, deleteBatchSize)
		if err != nil {
			return Result{}, fmt.Errorf("archive: delete %s (restore from manifest to recover): %w", step.label, err)
		}
		a.log.Info("archived label deleted", "doc_id", docID, "label", step.label, "count", deleted)
	}

	if err := a.flags.MarkArchived(deleteCtx, docID, dir, a.now().UTC()); err != nil {
		return Result{}, fmt.Errorf("archive: flag document: %w", err)
	}
	return Result{Path: dir, Stats: stats}, nil
}

// Restore reads the manifest, recreates every exported node, relinks the
// structural edges, removes the on-disk archive, and clears the flag.
func (a *Archiver) Restore(ctx context.Context, tenantID, docID uuid.UUID) error {
	dir := a.DocDir(tenantID, docID.String())
	manifest, err := ReadManifest(dir)
	if err != nil {
		return err
	}

	// Restore in reverse delete order so containers exist before content.
	steps := make([]struct{ label, file string }, len(archiveOrder))
	for i, s := range archiveOrder {
		steps[len(archiveOrder)-1-i] = struct{ label, file string }{s.label, s.file}
	}
	for _, step := range steps {
		var nodes []Node
		if err := readJSON(filepath.Join(dir, step.file), &nodes); err != nil {
			return err
		}
		if len(nodes) == 0 {
			continue
		}
		if err := a.graph.RestoreNodes(ctx, tenantID.String(), docID.String(), nodes); err != nil {
			return fmt.Errorf("archive: restore %s: %w", step.label, err)
		}
	}
	if err := a.graph.RelinkRestored(ctx, tenantID.String(), docID.String()); err != nil {
		return fmt.Errorf("archive: relink: %w", err)
	}

	for label, want := range manifest.Stats {
		got, err := a.graph.CountNodes(ctx, tenantID.String(), docID.String(), label)
		if err != nil {
			return fmt.Errorf("archive: verify %s: %w", label, err)
		}
		if got < want {
			return fmt.Errorf("archive: restore incomplete for %s: have %d want %d: %w",
				label, got, want, pkgerrors.ErrInvariantBreach)
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("archive: remove archive dir: %w", err)
	}
	if err := a.flags.ClearArchived(ctx, docID); err != nil {
		return fmt.Errorf("archive: clear flag: %w", err)
	}
	return nil
}

// ReadManifest loads and version-checks a manifest. Unknown versions are
// rejected rather than interpreted.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	if err := readJSON(filepath.Join(dir, "manifest.json"), &m); err != nil {
		return Manifest{}, err
	}
	if m.Version != ManifestVersion {
		return Manifest{}, fmt.Errorf("archive: unsupported manifest version %q: %w", m.Version, pkgerrors.ErrInvalidArgument)
	}
	return m, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(stableEncode(v), "", "  ")
	if err != nil {
		return fmt.Errorf("archive: encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("archive: write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("archive: read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("archive: decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// stableEncode sorts node slices by id so repeated exports of the same
// graph state produce byte-equal files.
func stableEncode(v any) any {
	nodes, ok := v.([]Node)
	if !ok {
		return v
	}
	sorted := make([]Node, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		iID, _ := sorted[i].Props["id"].(string)
		jID, _ := sorted[j].Props["id"].(string)
		return iID < jID
	})
	return sorted
}
