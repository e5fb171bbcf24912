// Package consolidate is the write path of canonicalization: proto-to-
// canonical promotion with append-only chunk/document aggregation, 1:1
// PROMOTED_TO enforcement, concept-to-concept edge upserts, and the Neo4j
// mirror of all of it. Relational rows are the system of record; graph
// upserts follow the committed transaction and never run inside it.
package consolidate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	materialrepos "github.com/yungbote/neurobridge-backend/internal/data/repos/materials"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
	pkgerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/platform/neo4jdb"
)

// Store persists canonical concepts and their relations. It satisfies the
// canonicalizer's Store interface and adds the edge/mention surfaces the
// coverage builder and claim engine write through.
type Store struct {
	log        *logger.Logger
	db         *gorm.DB
	globals    materialrepos.GlobalEntityRepo
	promotions materialrepos.MaterialEntityPromotionRepo
	graph      *neo4jdb.Client
}

func NewStore(log *logger.Logger, db *gorm.DB, globals materialrepos.GlobalEntityRepo, promotions materialrepos.MaterialEntityPromotionRepo, graph *neo4jdb.Client) (*Store, error) {
	if log == nil {
		return nil, fmt.Errorf("consolidate: logger required")
	}
	if db == nil {
		return nil, fmt.Errorf("consolidate: db required")
	}
	if globals == nil || promotions == nil {
		return nil, fmt.Errorf("consolidate: repos required")
	}
	return &Store{
		log:        log.With("component", "ConsolidationStore"),
		db:         db,
		globals:    globals,
		promotions: promotions,
		graph:      graph,
	}, nil
}

func (s *Store) GetCanonicalByKey(ctx context.Context, tenantID uuid.UUID, key string) (*types.GlobalEntity, error) {
	return s.globals.GetByTenantAndKey(ctx, nil, tenantID, key)
}

func (s *Store) CreateCanonical(ctx context.Context, row *types.GlobalEntity) (*types.GlobalEntity, error) {
	if row == nil {
		return nil, fmt.Errorf("consolidate: nil canonical row: %w", pkgerrors.ErrInvalidArgument)
	}
	if row.TenantID == uuid.Nil {
		return nil, fmt.Errorf("consolidate: canonical without tenant: %w", pkgerrors.ErrInvalidArgument)
	}
	if len(row.ChunkIDs) == 0 {
		row.ChunkIDs = datatypes.JSON(`[]`)
	}
	if len(row.DocumentIDs) == 0 {
		row.DocumentIDs = datatypes.JSON(`[]`)
	}
	if len(row.Aliases) == 0 {
		row.Aliases = datatypes.JSON(`[]`)
	}
	if len(row.Metadata) == 0 {
		row.Metadata = datatypes.JSON(`{}`)
	}
	created, err := s.globals.Create(ctx, nil, []*types.GlobalEntity{row})
	if err != nil {
		return nil, err
	}
	s.mirrorCanonical(ctx, created[0])
	return created[0], nil
}

// AppendPromotion links proto to canonical and folds the proto's evidence
// into the canonical row: chunk-id union (order preserved, no duplicates),
// document-id append, support+1. Replays are idempotent; promoting an
// already-promoted proto to a different canonical is an invariant breach.
func (s *Store) AppendPromotion(ctx context.Context, canonicalID uuid.UUID, proto *types.MaterialEntity) error {
	if proto == nil || canonicalID == uuid.Nil {
		return fmt.Errorf("consolidate: promotion needs proto and canonical: %w", pkgerrors.ErrInvalidArgument)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.promotions.GetByEntityID(ctx, tx, proto.ID)
		if err != nil {
			return fmt.Errorf("consolidate: read promotion: %w", err)
		}
		if existing != nil {
			if existing.GlobalEntityID == canonicalID {
				return nil // replay
			}
			return fmt.Errorf("consolidate: proto %s already promoted to %s: %w",
				proto.ID, existing.GlobalEntityID, pkgerrors.ErrInvariantBreach)
		}

		canonical, err := s.globals.GetByID(ctx, tx, canonicalID)
		if err != nil {
			return fmt.Errorf("consolidate: read canonical: %w", err)
		}
		if canonical == nil {
			return fmt.Errorf("consolidate: canonical %s: %w", canonicalID, pkgerrors.ErrNotFound)
		}

		var protoChunks []string
		_ = json.Unmarshal(proto.ChunkIDs, &protoChunks)
		mergedChunks := unionOrdered(jsonStrings(canonical.ChunkIDs), protoChunks)
		mergedDocs := unionOrdered(jsonStrings(canonical.DocumentIDs), []string{proto.MaterialFileID.String()})

		chunksJSON, _ := json.Marshal(mergedChunks)
		docsJSON, _ := json.Marshal(mergedDocs)

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"chunk_ids":    datatypes.JSON(chunksJSON),
			"document_ids": datatypes.JSON(docsJSON),
			"support":      gorm.Expr("support + 1"),
			"updated_at":   now,
		}
		if canonical.PromotedAt == nil {
			updates["promoted_at"] = now
		}
		if err := s.globals.UpdateFields(ctx, tx, canonicalID, updates); err != nil {
			return fmt.Errorf("consolidate: update canonical: %w", err)
		}

		return s.promotions.Create(ctx, tx, &types.MaterialEntityPromotion{
			ID:               uuid.New(),
			MaterialEntityID: proto.ID,
			GlobalEntityID:   canonicalID,
		})
	})
	if err != nil {
		return err
	}

	s.mirrorPromotion(ctx, canonicalID, proto)
	return nil
}

// ConceptEdge is one concept-to-concept relation write. Metadata keys land
// on the edge as metadata_<k> properties; weight is the stored value from
// the latest write.
type ConceptEdge struct {
	TenantID uuid.UUID
	FromID   uuid.UUID
	ToID     uuid.UUID
	Relation string
	Weight   float64
	Metadata map[string]any
}

// UpsertConceptEdges merges edges into the graph. MERGE on (from, to,
// relation) so repeated writes update in place.
func (s *Store) UpsertConceptEdges(ctx context.Context, edges []ConceptEdge) error {
	if s.graph == nil || s.graph.Driver == nil || len(edges) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	rels := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e.FromID == uuid.Nil || e.ToID == uuid.Nil || e.Relation == "" {
			continue
		}
		props := map[string]any{
			"weight":     e.Weight,
			"created_at": now,
		}
		for k, v := range e.Metadata {
			props["metadata_"+k] = v
		}
		rels = append(rels, map[string]any{
			"from_id":   e.FromID.String(),
			"to_id":     e.ToID.String(),
			"relation":  e.Relation,
			"tenant_id": e.TenantID.String(),
			"props":     props,
		})
	}
	if len(rels) == 0 {
		return nil
	}

	session := s.graph.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.graph.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $rels AS r
MERGE (a:CanonicalConcept {id: r.from_id})
MERGE (b:CanonicalConcept {id: r.to_id})
MERGE (a)-[e:CONCEPT_REL {relation: r.relation}]->(b)
SET e += r.props, e.tenant_id = r.tenant_id
`, map[string]any{"rels": rels})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	return err
}

// Mention is one CanonicalConcept-to-SectionContext observation; Count
// accumulates on the MENTIONED_IN edge.
type Mention struct {
	TenantID  uuid.UUID
	ConceptID uuid.UUID
	SectionID uuid.UUID
	FileID    uuid.UUID
	Count     int
}

// RecordMentions accumulates MENTIONED_IN counts in the graph.
func (s *Store) RecordMentions(ctx context.Context, mentions []Mention) error {
	if s.graph == nil || s.graph.Driver == nil || len(mentions) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(mentions))
	for _, m := range mentions {
		if m.ConceptID == uuid.Nil || m.SectionID == uuid.Nil || m.Count <= 0 {
			continue
		}
		rows = append(rows, map[string]any{
			"concept_id": m.ConceptID.String(),
			"section_id": m.SectionID.String(),
			"file_id":    m.FileID.String(),
			"tenant_id":  m.TenantID.String(),
			"count":      m.Count,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	session := s.graph.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.graph.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $rows AS r
MERGE (c:CanonicalConcept {id: r.concept_id})
MERGE (s:SectionContext {id: r.section_id})
SET s.material_file_id = r.file_id, s.tenant_id = r.tenant_id
MERGE (c)-[e:MENTIONED_IN]->(s)
ON CREATE SET e.count = r.count
ON MATCH SET e.count = e.count + r.count
`, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	return err
}

// mirrorCanonical merges the canonical node into the graph; failures are
// logged and retried by the next promotion touching the node, never
// surfaced as a document failure.
func (s *Store) mirrorCanonical(ctx context.Context, row *types.GlobalEntity) {
	if s.graph == nil || s.graph.Driver == nil || row == nil {
		return
	}
	session := s.graph.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.graph.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (c:CanonicalConcept {id: $id})
SET c.tenant_id = $tenant_id,
    c.canonical_name = $canonical_name,
    c.concept_type = $concept_type,
    c.quality_score = $quality_score
`, map[string]any{
			"id":             row.ID.String(),
			"tenant_id":      row.TenantID.String(),
			"canonical_name": row.CanonicalName,
			"concept_type":   row.ConceptType,
			"quality_score":  row.QualityScore,
		})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		s.log.Warn("canonical graph mirror failed", "canonical_id", row.ID, "error", err)
	}
}

func (s *Store) mirrorPromotion(ctx context.Context, canonicalID uuid.UUID, proto *types.MaterialEntity) {
	if s.graph == nil || s.graph.Driver == nil {
		return
	}
	session := s.graph.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.graph.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (p:ProtoConcept {id: $proto_id})
SET p.tenant_id = $tenant_id, p.concept_name = $concept_name
MERGE (c:CanonicalConcept {id: $canonical_id})
MERGE (p)-[:PROMOTED_TO]->(c)
MERGE (p)-[:INSTANCE_OF]->(c)
MERGE (d:MaterialFile {id: $file_id})
MERGE (p)-[:EXTRACTED_FROM]->(d)
`, map[string]any{
			"proto_id":     proto.ID.String(),
			"tenant_id":    proto.TenantID.String(),
			"concept_name": proto.ConceptName,
			"canonical_id": canonicalID.String(),
			"file_id":      proto.MaterialFileID.String(),
		})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		s.log.Warn("promotion graph mirror failed", "proto_id", proto.ID, "canonical_id", canonicalID, "error", err)
	}
}

func jsonStrings(raw datatypes.JSON) []string {
	var out []string
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

// unionOrdered appends the members of add that base does not already
// contain, preserving first-seen order.
func unionOrdered(base, add []string) []string {
	seen := make(map[string]struct{}, len(base))
	out := make([]string, 0, len(base)+len(add))
	for _, v := range base {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, v := range add {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
