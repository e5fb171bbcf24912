// Package pipeline sequences the per-document passes: extraction
// (chunking, anchoring, canonicalization, markers, assertions), enrichment
// (topics, coverage), and the archive gate after semantic consolidation.
// Passes are sequential within a document and fully parallel across
// documents; a failure is returned from Run for that document only and
// never cascades to the rest of the batch. No per-pass status is recorded
// by this package.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	materialrepos "github.com/yungbote/neurobridge-backend/internal/data/repos/materials"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/ingestion/anchor"
	"github.com/yungbote/neurobridge-backend/internal/ingestion/canonical"
	"github.com/yungbote/neurobridge-backend/internal/ingestion/claim"
	"github.com/yungbote/neurobridge-backend/internal/ingestion/consolidate"
	"github.com/yungbote/neurobridge-backend/internal/ingestion/extractor"
	"github.com/yungbote/neurobridge-backend/internal/ingestion/marker"
	"github.com/yungbote/neurobridge-backend/internal/ingestion/topic"
	"github.com/yungbote/neurobridge-backend/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/vectorstore"
)

// CacheSchemaVersion tags cached parse results; unknown versions are
// rejected at load.
const CacheSchemaVersion = "parsed-doc/1"

// ParsedDocument is the inbound contract from upstream parsers.
type ParsedDocument struct {
	DocID    uuid.UUID
	TenantID uuid.UUID
	Text     string
	Sections []topic.SectionInput
	Segments []types.Segment
	Anchors  []anchor.Payload
	// ConceptLabels are the raw surface forms upstream extraction surfaced,
	// keyed by anchor concept id.
	ConceptLabels map[string]string
	Metadata      map[string]any
}

// CacheLoadResult wraps a cached ParsedDocument with its schema version.
type CacheLoadResult struct {
	SchemaVersion string          `json:"schema_version"`
	Document      json.RawMessage `json:"document"`
}

// DecodeCached rejects unknown cache schema versions instead of guessing
// at their layout.
func DecodeCached(raw []byte) (ParsedDocument, error) {
	var wrapper CacheLoadResult
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return ParsedDocument{}, fmt.Errorf("pipeline: decode cache wrapper: %w", err)
	}
	if wrapper.SchemaVersion != CacheSchemaVersion {
		return ParsedDocument{}, fmt.Errorf("pipeline: unknown cache schema %q", wrapper.SchemaVersion)
	}
	var doc ParsedDocument
	if err := json.Unmarshal(wrapper.Document, &doc); err != nil {
		return ParsedDocument{}, fmt.Errorf("pipeline: decode cached document: %w", err)
	}
	return doc, nil
}

type Pipeline struct {
	log *logger.Logger
	db  *gorm.DB

	extractor    *extractor.Extractor
	canonicalize *canonical.Canonicalizer
	store        *consolidate.Store
	normalizer   *marker.Normalizer
	markerConfig *marker.ConfigCache
	topics       *topic.Builder

	files         materialrepos.MaterialFileRepo
	sets          materialrepos.MaterialSetRepo
	entities      materialrepos.MaterialEntityRepo
	chunkEntities materialrepos.MaterialChunkEntityRepo
	markers       materialrepos.MarkerRepo
	assertions    materialrepos.AssertionRepo

	// vectors is optional; when configured, chunk placeholders are
	// upserted (idempotent on chunk id) and the embedding-hosting
	// collaborator backfills the actual vectors asynchronously.
	vectors   vectorstore.Store
	vectorDim int

	// claimExtractor and claimRepo are optional: without an LLM there is
	// nothing to extract, and pass-2 skips the claim phase.
	claimExtractor *claim.Extractor
	claims         materialrepos.MaterialClaimRepo
	chunkClaims    materialrepos.MaterialChunkClaimRepo

	tracer trace.Tracer
}

func New(
	log *logger.Logger,
	db *gorm.DB,
	ext *extractor.Extractor,
	canonicalizer *canonical.Canonicalizer,
	store *consolidate.Store,
	normalizer *marker.Normalizer,
	markerConfig *marker.ConfigCache,
	topics *topic.Builder,
	files materialrepos.MaterialFileRepo,
	sets materialrepos.MaterialSetRepo,
	entities materialrepos.MaterialEntityRepo,
	chunkEntities materialrepos.MaterialChunkEntityRepo,
	markers materialrepos.MarkerRepo,
	assertions materialrepos.AssertionRepo,
	vectors vectorstore.Store,
	vectorDim int,
	claimExtractor *claim.Extractor,
	claims materialrepos.MaterialClaimRepo,
	chunkClaims materialrepos.MaterialChunkClaimRepo,
) (*Pipeline, error) {
	if log == nil || db == nil {
		return nil, fmt.Errorf("pipeline: logger and db required")
	}
	if ext == nil || canonicalizer == nil || store == nil || normalizer == nil || topics == nil {
		return nil, fmt.Errorf("pipeline: all components required")
	}
	return &Pipeline{
		log:          log.With("component", "Pipeline"),
		db:           db,
		extractor:    ext,
		canonicalize: canonicalizer,
		store:        store,
		normalizer:   normalizer,
		markerConfig: markerConfig,
		topics:       topics,
		files:          files,
		sets:           sets,
		entities:       entities,
		chunkEntities:  chunkEntities,
		markers:        markers,
		assertions:     assertions,
		vectors:        vectors,
		vectorDim:      vectorDim,
		claimExtractor: claimExtractor,
		claims:         claims,
		chunkClaims:    chunkClaims,
		tracer:         otel.Tracer("ingestd/pipeline"),
	}, nil
}

// Run executes both passes for one document. Each pass gets its own span;
// pass failures are returned, not panicked, and leave the other documents
// of the batch untouched.
func (p *Pipeline) Run(ctx context.Context, doc ParsedDocument) error {
	if doc.DocID == uuid.Nil || doc.TenantID == uuid.Nil {
		return fmt.Errorf("pipeline: document needs doc_id and tenant_id")
	}
	ctx, span := p.tracer.Start(ctx, "document.ingest",
		trace.WithAttributes(
			attribute.String("doc_id", doc.DocID.String()),
			attribute.String("tenant_id", doc.TenantID.String()),
		))
	defer span.End()

	if err := p.pass1(ctx, doc); err != nil {
		return fmt.Errorf("pipeline: pass1: %w", err)
	}
	if err := p.pass2(ctx, doc); err != nil {
		return fmt.Errorf("pipeline: pass2: %w", err)
	}
	return nil
}

func (p *Pipeline) pass1(ctx context.Context, doc ParsedDocument) error {
	ctx, span := p.tracer.Start(ctx, "pass1.extraction")
	defer span.End()

	mf, err := p.loadFile(ctx, doc.DocID)
	if err != nil {
		return err
	}

	// Anchor payloads are validated and deduplicated at the boundary;
	// a payload with a forbidden shape fails the document, never persists.
	payloads := anchor.Dedupe(doc.Anchors)
	if err := anchor.Validate(payloads); err != nil {
		return err
	}
	anchors := make([]extractor.Anchor, 0, len(payloads))
	for _, a := range payloads {
		anchors = append(anchors, extractor.Anchor{
			ConceptID: a.ConceptID,
			Label:     a.Label,
			Role:      a.Role,
			Start:     a.Span[0],
			End:       a.Span[1],
		})
	}

	chunks, chunkAnchors, err := p.extractor.ChunkAndPersist(ctx, nil, mf, doc.Text, doc.Segments, anchors)
	if err != nil {
		return fmt.Errorf("chunking: %w", err)
	}
	span.SetAttributes(attribute.Int("chunks", len(chunks)))

	if err := p.upsertChunkVectors(ctx, doc, mf, chunks); err != nil {
		return err
	}
	if err := p.canonicalizeAnchors(ctx, doc, mf, chunks, chunkAnchors); err != nil {
		return err
	}
	return p.normalizeMarkers(ctx, doc, mf)
}

// upsertChunkVectors writes placeholder points for the new chunks. The
// payload stays within the stable subset; vectors are zero-filled until
// the embedding collaborator backfills them. A store failure here is a
// logged degradation, not a document failure: the chunk rows are the
// system of record.
func (p *Pipeline) upsertChunkVectors(ctx context.Context, doc ParsedDocument, mf *types.MaterialFile, chunks []*types.MaterialChunk) error {
	if p.vectors == nil || len(chunks) == 0 {
		return nil
	}
	ctx, span := p.tracer.Start(ctx, "pass1.vectors")
	defer span.End()

	dim := p.vectorDim
	if dim <= 0 {
		dim = 1536
	}
	points := make([]vectorstore.Vector, 0, len(chunks))
	for _, c := range chunks {
		chunkLoc := map[string]any{}
		if c.Page != nil {
			chunkLoc["page_no"] = *c.Page
		}
		if c.SectionID != nil {
			chunkLoc["section_id"] = c.SectionID.String()
		}
		points = append(points, vectorstore.Vector{
			ID:     c.ID.String(),
			Values: make([]float32, dim),
			Metadata: map[string]any{
				"text":     c.Text,
				"language": "und",
				"document": map[string]any{
					"source_name": mf.OriginalName,
					"source_type": mf.MimeType,
				},
				"chunk":            chunkLoc,
				"related_node_ids": map[string]any{"candidates": []string{}, "approved": []string{}},
				"related_facts":    map[string]any{"proposed": []string{}, "approved": []string{}},
				"sys":              map[string]any{"tags_tech": []string{}},
			},
		})
	}
	if err := p.vectors.Upsert(ctx, doc.TenantID.String(), points); err != nil {
		p.log.Warn("vector upsert failed, chunks stay unindexed until backfill", "doc_id", doc.DocID, "error", err)
	}
	span.SetAttributes(attribute.Int("points", len(points)))
	return nil
}

// canonicalizeAnchors turns anchored surface forms into proto concepts,
// resolves them (batch first), promotes each under the dedup lock, and
// persists the chunk-local anchor rows against the proto ids.
func (p *Pipeline) canonicalizeAnchors(ctx context.Context, doc ParsedDocument, mf *types.MaterialFile, chunks []*types.MaterialChunk, chunkAnchors [][]extractor.Anchor) error {
	ctx, span := p.tracer.Start(ctx, "pass1.canonicalize")
	defer span.End()

	// Group the chunk-local anchors by resolved surface form. A label's
	// chunk ids are exactly the chunks one of its anchors landed in.
	byLabel := map[string][]anchorOccurrence{}
	for i, list := range chunkAnchors {
		if i >= len(chunks) {
			break
		}
		for _, a := range list {
			label := a.Label
			if label == "" {
				label = doc.ConceptLabels[a.ConceptID]
			}
			if strings.TrimSpace(label) == "" {
				continue
			}
			byLabel[label] = append(byLabel[label], anchorOccurrence{chunkID: chunks[i].ID, a: a})
		}
	}
	if len(byLabel) == 0 {
		return nil
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	// Deterministic batch order.
	sort.Strings(labels)
	items := make([]canonical.Item, 0, len(labels))
	for _, label := range labels {
		items = append(items, canonical.Item{RawName: label, Context: canonical.TruncateContext(doc.Text, 500)})
	}

	results, err := p.canonicalize.ResolveBatch(ctx, doc.TenantID, items)
	if err != nil {
		return fmt.Errorf("canonicalize batch: %w", err)
	}

	for i, label := range labels {
		occurrences := byLabel[label]
		var chunkIDs []string
		seenChunk := map[uuid.UUID]struct{}{}
		for _, occ := range occurrences {
			if _, dup := seenChunk[occ.chunkID]; dup {
				continue
			}
			seenChunk[occ.chunkID] = struct{}{}
			chunkIDs = append(chunkIDs, occ.chunkID.String())
		}
		chunkJSON, _ := json.Marshal(chunkIDs)

		proto := &types.MaterialEntity{
			ID:               uuid.New(),
			TenantID:         doc.TenantID,
			MaterialSetID:    &mf.MaterialSetID,
			MaterialFileID:   mf.ID,
			Key:              canonical.NormalizeSurface(label),
			ConceptName:      label,
			ConceptType:      results[i].ConceptType,
			ExtractionMethod: results[i].Method,
			Confidence:       results[i].Confidence,
			ChunkIDs:         datatypes.JSON(chunkJSON),
			Aliases:          datatypes.JSON(`[]`),
			Metadata:         datatypes.JSON(`{}`),
		}
		if _, err := p.entities.Create(ctx, nil, []*types.MaterialEntity{proto}); err != nil {
			return fmt.Errorf("create proto %q: %w", label, err)
		}
		if err := p.persistAnchorRows(ctx, proto.ID, occurrences); err != nil {
			return fmt.Errorf("anchor rows for %q: %w", label, err)
		}
		canonicalRow, err := p.canonicalize.Promote(ctx, doc.TenantID, proto, results[i])
		if err != nil {
			return fmt.Errorf("promote %q: %w", label, err)
		}

		if p.assertions != nil {
			if _, err := p.assertions.Upsert(ctx, nil, []*types.Assertion{{
				ID:                 uuid.New(),
				TenantID:           doc.TenantID,
				MaterialEntityID:   proto.ID,
				MaterialFileID:     mf.ID,
				CanonicalConceptID: &canonicalRow.ID,
				Polarity:           types.PolarityAffirmed,
				Scope:              types.ScopeUnknown,
				Markers:            datatypes.JSON(`[]`),
				Confidence:         results[i].Confidence,
				Evidence:           datatypes.JSON(chunkJSON),
			}}); err != nil {
				return fmt.Errorf("assertion for %q: %w", label, err)
			}
		}
	}
	return nil
}

// anchorOccurrence is one chunk-local anchor observation awaiting
// persistence against its proto-concept id.
type anchorOccurrence struct {
	chunkID uuid.UUID
	a       extractor.Anchor
}

// persistAnchorRows writes one MaterialChunkEntity row per (chunk, proto)
// pair. Multiple anchors of the same concept inside one chunk collapse to
// the widest span; a primary role survives the collapse.
func (p *Pipeline) persistAnchorRows(ctx context.Context, protoID uuid.UUID, occurrences []anchorOccurrence) error {
	if p.chunkEntities == nil || len(occurrences) == 0 {
		return nil
	}
	perChunk := map[uuid.UUID]*types.MaterialChunkEntity{}
	order := make([]uuid.UUID, 0, len(occurrences))
	for _, occ := range occurrences {
		row, ok := perChunk[occ.chunkID]
		if !ok {
			perChunk[occ.chunkID] = &types.MaterialChunkEntity{
				ID:               uuid.New(),
				MaterialChunkID:  occ.chunkID,
				MaterialEntityID: protoID,
				Relation:         "mentions",
				Weight:           1,
				Label:            occ.a.Label,
				Role:             anchor.NormalizeRole(occ.a.Role),
				SpanStart:        occ.a.Start,
				SpanEnd:          occ.a.End,
			}
			order = append(order, occ.chunkID)
			continue
		}
		if occ.a.End-occ.a.Start > row.SpanEnd-row.SpanStart {
			row.SpanStart = occ.a.Start
			row.SpanEnd = occ.a.End
		}
		if anchor.NormalizeRole(occ.a.Role) == anchor.RolePrimary {
			row.Role = anchor.RolePrimary
		}
	}
	rows := make([]*types.MaterialChunkEntity, 0, len(perChunk))
	for _, id := range order {
		rows = append(rows, perChunk[id])
	}
	_, err := p.chunkEntities.Upsert(ctx, nil, rows)
	return err
}

var markerCandidate = regexp.MustCompile(`\b(?:v\d+(?:\.\d+)*|\d{4}|FPS\d+|SP\d+)\b`)

// normalizeMarkers scans the text for marker-shaped tokens and resolves
// them through the tenant rule document. A missing tenant config is a
// skip, not a failure: markers stay unresolved.
func (p *Pipeline) normalizeMarkers(ctx context.Context, doc ParsedDocument, mf *types.MaterialFile) error {
	if p.markerConfig == nil || p.markers == nil {
		return nil
	}
	ctx, span := p.tracer.Start(ctx, "pass1.markers")
	defer span.End()

	cfg, err := p.markerConfig.Get(doc.TenantID.String(), 0)
	if err != nil {
		p.log.Warn("no marker config for tenant, mentions stay unresolved", "tenant_id", doc.TenantID, "error", err)
		return nil
	}

	var mentions []types.MarkerMention
	seen := map[string]struct{}{}
	for _, loc := range markerCandidate.FindAllStringIndex(doc.Text, -1) {
		raw := doc.Text[loc[0]:loc[1]]
		dedupKey := fmt.Sprintf("%s@%d", raw, loc[0])
		if _, dup := seen[dedupKey]; dup {
			continue
		}
		seen[dedupKey] = struct{}{}
		mentions = append(mentions, types.MarkerMention{ID: uuid.New(), RawText: raw, Position: loc[0]})
	}
	if len(mentions) == 0 {
		return nil
	}

	dc, err := p.normalizer.ResolveDocContext(ctx, cfg, doc.TenantID, mf.ID, "", nil)
	if err != nil {
		return err
	}
	rows, err := p.normalizer.NormalizeMentions(ctx, cfg, doc.TenantID, mf.ID, mentions, dc)
	if err != nil {
		return err
	}
	if _, err := p.markers.UpsertMentions(ctx, nil, rows); err != nil {
		return fmt.Errorf("persist marker mentions: %w", err)
	}
	span.SetAttributes(attribute.Int("mentions", len(rows)))
	return nil
}

func (p *Pipeline) pass2(ctx context.Context, doc ParsedDocument) error {
	ctx, span := p.tracer.Start(ctx, "pass2.enrichment")
	defer span.End()

	mf, err := p.loadFile(ctx, doc.DocID)
	if err != nil {
		return err
	}

	userID := uuid.Nil
	if p.sets != nil {
		setRows, err := p.sets.GetByIDs(ctx, nil, []uuid.UUID{mf.MaterialSetID})
		if err != nil {
			return fmt.Errorf("load material set: %w", err)
		}
		if len(setRows) > 0 {
			userID = setRows[0].UserID
		}
	}

	topics := topic.Extract(doc.DocID.String(), mf.OriginalName, doc.Sections, doc.Text, topic.Options{})
	if err := p.topics.SyncTopics(ctx, doc.TenantID, mf.ID, topics); err != nil {
		return fmt.Errorf("sync topics: %w", err)
	}

	// Snapshot mention counts from this document's proto concepts; the
	// COVERS computation itself is pure.
	protos, err := p.entities.GetByMaterialFileIDs(ctx, nil, []uuid.UUID{mf.ID})
	if err != nil {
		return fmt.Errorf("read protos: %w", err)
	}
	counts := make([]topic.MentionCount, 0, len(protos))
	maxCount := 0
	for _, proto := range protos {
		var chunkIDs []string
		_ = json.Unmarshal(proto.ChunkIDs, &chunkIDs)
		n := len(chunkIDs)
		if n == 0 {
			n = 1
		}
		counts = append(counts, topic.MentionCount{ConceptKey: proto.Key, Count: n})
		if n > maxCount {
			maxCount = n
		}
	}

	for _, t := range topics {
		edges := topic.BuildCovers(t.ID, counts, maxCount, topic.CoversOptions{})
		if err := p.topics.PersistCovers(ctx, doc.TenantID, userID, mf.MaterialSetID, nil, edges); err != nil {
			return fmt.Errorf("persist covers for %s: %w", t.ID, err)
		}
	}
	span.SetAttributes(attribute.Int("topics", len(topics)))

	return p.extractClaims(ctx, doc, mf)
}

// extractClaims runs structured claim extraction over the document's
// relation-bearing and table chunks.
func (p *Pipeline) extractClaims(ctx context.Context, doc ParsedDocument, mf *types.MaterialFile) error {
	if p.claimExtractor == nil || p.claims == nil {
		return nil
	}
	ctx, span := p.tracer.Start(ctx, "pass2.claims")
	defer span.End()

	chunks, err := p.extractor.MaterialChunkRepo.GetByMaterialFileIDs(ctx, nil, []uuid.UUID{mf.ID})
	if err != nil {
		return fmt.Errorf("read chunks for claims: %w", err)
	}

	sourceType, _ := doc.Metadata["source_type"].(string)
	total := 0
	for _, c := range chunks {
		if !c.IsRelationBearing && c.Kind != "table_text" {
			continue
		}
		rows, err := p.claimExtractor.Extract(ctx, doc.TenantID, mf.MaterialSetID, mf.ID, c.Text, sourceType)
		if err != nil {
			// Claim extraction is enrichment; an LLM hiccup on one chunk
			// does not fail the document.
			p.log.Warn("claim extraction failed for chunk", "chunk_id", c.ID, "error", err)
			continue
		}
		if len(rows) == 0 {
			continue
		}
		persisted, err := p.claims.Upsert(ctx, nil, rows)
		if err != nil {
			return fmt.Errorf("persist claims: %w", err)
		}
		if p.chunkClaims != nil {
			links := make([]*types.MaterialChunkClaim, 0, len(persisted))
			for _, row := range persisted {
				links = append(links, &types.MaterialChunkClaim{
					ID:              uuid.New(),
					MaterialChunkID: c.ID,
					MaterialClaimID: row.ID,
					Relation:        "extracted_from",
					Weight:          1,
				})
			}
			if _, err := p.chunkClaims.Upsert(ctx, nil, links); err != nil {
				return fmt.Errorf("claim evidence links: %w", err)
			}
		}
		total += len(rows)
	}
	span.SetAttributes(attribute.Int("claims", total))
	return nil
}

func (p *Pipeline) loadFile(ctx context.Context, id uuid.UUID) (*types.MaterialFile, error) {
	rows, err := p.files.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("load material file: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("material file %s not found", id)
	}
	return rows[0], nil
}
