package topic

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
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/platform/neo4jdb"
)

// Builder persists extracted topics and their COVERS edges: coverage rows
// relationally, topic nodes plus HAS_TOPIC/SUBTOPIC_OF/COVERS in the
// graph, and the cross-set rollup per canonical concept.
type Builder struct {
	log      *logger.Logger
	db       *gorm.DB
	coverage materialrepos.MaterialSetConceptCoverageRepo
	rollup   materialrepos.GlobalConceptCoverageRepo
	graph    *neo4jdb.Client
}

func NewBuilder(log *logger.Logger, db *gorm.DB, coverage materialrepos.MaterialSetConceptCoverageRepo, rollup materialrepos.GlobalConceptCoverageRepo, graph *neo4jdb.Client) (*Builder, error) {
	if log == nil {
		return nil, fmt.Errorf("topic: logger required")
	}
	if db == nil || coverage == nil {
		return nil, fmt.Errorf("topic: db and coverage repo required")
	}
	return &Builder{
		log:      log.With("component", "CoversBuilder"),
		db:       db,
		coverage: coverage,
		rollup:   rollup,
		graph:    graph,
	}, nil
}

// PersistCovers upserts the edges for one material set. Existing rows
// merge by max(salience) and summed mention_count, mirroring the graph's
// concurrent-rewrite semantics. userID feeds the cross-set rollup; pass
// uuid.Nil to skip it.
func (b *Builder) PersistCovers(ctx context.Context, tenantID, userID, materialSetID uuid.UUID, topicUUID *uuid.UUID, edges []CoversEdge) error {
	if len(edges) == 0 {
		return nil
	}

	existing, err := b.coverage.GetByMaterialSetID(ctx, b.db, materialSetID)
	if err != nil {
		return fmt.Errorf("topic: read coverage snapshot: %w", err)
	}
	prior := make(map[string]*types.MaterialSetConceptCoverage, len(existing))
	for _, row := range existing {
		prior[row.ConceptKey] = row
	}

	rows := make([]*types.MaterialSetConceptCoverage, 0, len(edges))
	for _, e := range edges {
		salience := e.Salience
		mentions := e.MentionCount
		if p, ok := prior[e.ConceptKey]; ok {
			if p.Salience > salience {
				salience = p.Salience
			}
			mentions += p.MentionCount
		}
		var conceptID *uuid.UUID
		if e.ConceptID != "" {
			if parsed, err := uuid.Parse(e.ConceptID); err == nil {
				conceptID = &parsed
			}
		}
		rows = append(rows, &types.MaterialSetConceptCoverage{
			ID:                    uuid.New(),
			MaterialSetID:         materialSetID,
			TopicID:               topicUUID,
			ConceptKey:            e.ConceptKey,
			CanonicalConceptID:    conceptID,
			CoverageType:          "covers",
			Salience:              salience,
			MentionCount:          mentions,
			Method:                e.Method,
			Version:               e.Version,
			SourceMaterialFileIDs: datatypes.JSON(`[]`),
			Metadata:              datatypes.JSON(`{}`),
		})
	}
	if _, err := b.coverage.Upsert(ctx, b.db, rows); err != nil {
		return fmt.Errorf("topic: upsert coverage: %w", err)
	}
	if err := b.rollupCoverage(ctx, userID, materialSetID, rows); err != nil {
		return err
	}

	b.mirrorCovers(ctx, tenantID, edges)
	return nil
}

// rollupCoverage folds a set's coverage rows into the per-user cross-set
// rollup: one row per canonical concept, with the set-id list unioned,
// exposure at the max salience seen, and cross-set relevance tracking how
// many sets mention the concept.
func (b *Builder) rollupCoverage(ctx context.Context, userID, materialSetID uuid.UUID, rows []*types.MaterialSetConceptCoverage) error {
	if b.rollup == nil || userID == uuid.Nil {
		return nil
	}
	var conceptIDs []uuid.UUID
	bestSalience := map[uuid.UUID]float64{}
	for _, row := range rows {
		if row.CanonicalConceptID == nil {
			continue
		}
		id := *row.CanonicalConceptID
		if _, seen := bestSalience[id]; !seen {
			conceptIDs = append(conceptIDs, id)
		}
		if row.Salience > bestSalience[id] {
			bestSalience[id] = row.Salience
		}
	}
	if len(conceptIDs) == 0 {
		return nil
	}

	existing, err := b.rollup.GetByUserAndConceptIDs(ctx, b.db, userID, conceptIDs)
	if err != nil {
		return fmt.Errorf("topic: read coverage rollup: %w", err)
	}
	prior := make(map[uuid.UUID]*types.GlobalConceptCoverage, len(existing))
	for _, row := range existing {
		prior[row.GlobalConceptID] = row
	}

	upserts := make([]*types.GlobalConceptCoverage, 0, len(conceptIDs))
	for _, id := range conceptIDs {
		setIDs := []string{materialSetID.String()}
		exposure := bestSalience[id]
		if p, ok := prior[id]; ok {
			var priorSets []string
			_ = json.Unmarshal(p.MaterialSetIDs, &priorSets)
			for _, s := range priorSets {
				if s != materialSetID.String() {
					setIDs = append(setIDs, s)
				}
			}
			if p.ExposureScore > exposure {
				exposure = p.ExposureScore
			}
		}
		setsJSON, _ := json.Marshal(setIDs)
		upserts = append(upserts, &types.GlobalConceptCoverage{
			ID:                uuid.New(),
			UserID:            userID,
			GlobalConceptID:   id,
			MaterialSetIDs:    setsJSON,
			CoverageDepth:     exposure,
			ExposureScore:     exposure,
			CrossSetRelevance: float64(len(setIDs)),
			Metadata:          datatypes.JSON(`{}`),
		})
	}
	if _, err := b.rollup.Upsert(ctx, b.db, upserts); err != nil {
		return fmt.Errorf("topic: upsert coverage rollup: %w", err)
	}
	return nil
}


// SyncTopics mirrors topic nodes and their document/parent edges into the
// graph. Topic ids are deterministic, so concurrent emitters MERGE onto
// the same node.
func (b *Builder) SyncTopics(ctx context.Context, tenantID uuid.UUID, fileID uuid.UUID, topics []Topic) error {
	if b.graph == nil || b.graph.Driver == nil || len(topics) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	nodes := make([]map[string]any, 0, len(topics))
	subtopic := make([]map[string]any, 0, len(topics))
	for _, t := range topics {
		nodes = append(nodes, map[string]any{
			"id":               t.ID,
			"tenant_id":        tenantID.String(),
			"normalized_title": t.NormalizedTitle,
			"title":            t.Title,
			"level":            t.Level,
			"section_path":     t.SectionPath,
			"first_document_id": t.DocID,
			"synced_at":        now,
		})
		if t.ParentID != "" {
			subtopic = append(subtopic, map[string]any{"from_id": t.ID, "to_id": t.ParentID})
		}
	}

	session := b.graph.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: b.graph.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $nodes AS n
MERGE (t:Topic {id: n.id})
ON CREATE SET t.first_document_id = n.first_document_id, t.support = 1
ON MATCH SET t.support = coalesce(t.support, 0) + 1
SET t.tenant_id = n.tenant_id,
    t.normalized_title = n.normalized_title,
    t.title = n.title,
    t.level = n.level,
    t.section_path = n.section_path,
    t.synced_at = n.synced_at
WITH t, n
MERGE (d:MaterialFile {id: $file_id})
MERGE (d)-[:HAS_TOPIC]->(t)
`, map[string]any{"nodes": nodes, "file_id": fileID.String()})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		if len(subtopic) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $rels AS r
MATCH (a:Topic {id: r.from_id})
MATCH (b:Topic {id: r.to_id})
MERGE (a)-[:SUBTOPIC_OF]->(b)
`, map[string]any{"rels": subtopic})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (b *Builder) mirrorCovers(ctx context.Context, tenantID uuid.UUID, edges []CoversEdge) {
	if b.graph == nil || b.graph.Driver == nil {
		return
	}
	rels := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e.ConceptID == "" {
			continue
		}
		rels = append(rels, map[string]any{
			"topic_id":      e.TopicID,
			"concept_id":    e.ConceptID,
			"salience":      e.Salience,
			"mention_count": e.MentionCount,
			"method":        e.Method,
			"version":       e.Version,
			"tenant_id":     tenantID.String(),
		})
	}
	if len(rels) == 0 {
		return
	}

	session := b.graph.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: b.graph.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $rels AS r
MERGE (t:Topic {id: r.topic_id})
MERGE (c:CanonicalConcept {id: r.concept_id})
MERGE (t)-[e:COVERS]->(c)
ON CREATE SET e.salience = r.salience, e.mention_count = r.mention_count
ON MATCH SET e.salience = CASE WHEN r.salience > e.salience THEN r.salience ELSE e.salience END,
             e.mention_count = e.mention_count + r.mention_count
SET e.method = r.method, e.version = r.version, e.tenant_id = r.tenant_id
`, map[string]any{"rels": rels})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		b.log.Warn("covers graph mirror failed", "edges", len(rels), "error", err)
	}
}
