package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	pkgerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
	"github.com/yungbote/neurobridge-backend/internal/platform/neo4jdb"
)

// Neo4jStore drives structural archiving against the live graph. All
// queries scope by tenant_id and material_file_id.
type Neo4jStore struct {
	client *neo4jdb.Client
}

func NewNeo4jStore(client *neo4jdb.Client) (*Neo4jStore, error) {
	if client == nil || client.Driver == nil {
		return nil, fmt.Errorf("archive: neo4j client required")
	}
	return &Neo4jStore{client: client}, nil
}

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.client.Database,
	})
}

func (s *Neo4jStore) ExportNodes(ctx context.Context, tenantID, docID, label string) ([]Node, error) {
	if IsPreserved(label) {
		return nil, fmt.Errorf("archive: label %s is preserved: %w", label, pkgerrors.ErrInvariantBreach)
	}
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf(`
MATCH (n:%s {tenant_id: $tenant_id, material_file_id: $doc_id})
RETURN properties(n) AS props
ORDER BY n.id
`, label), map[string]any{"tenant_id": tenantID, "doc_id": docID})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	var out []Node
	for _, rec := range records.([]*neo4j.Record) {
		raw, _ := rec.Get("props")
		props, _ := raw.(map[string]any)
		out = append(out, Node{Label: label, Props: props})
	}
	return out, nil
}

func (s *Neo4jStore) DeleteNodes(ctx context.Context, tenantID, docID, label string, batchSize int) (int, error) {
	if IsPreserved(label) {
		return 0, fmt.Errorf("archive: label %s is preserved: %w", label, pkgerrors.ErrInvariantBreach)
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	total := 0
	for {
		session := s.session(ctx, neo4j.AccessModeWrite)
		deleted, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, fmt.Sprintf(`
MATCH (n:%s {tenant_id: $tenant_id, material_file_id: $doc_id})
WITH n LIMIT $batch
DETACH DELETE n
RETURN count(*) AS deleted
`, label), map[string]any{"tenant_id": tenantID, "doc_id": docID, "batch": batchSize})
			if err != nil {
				return 0, err
			}
			rec, err := res.Single(ctx)
			if err != nil {
				return 0, err
			}
			v, _ := rec.Get("deleted")
			n, _ := v.(int64)
			return int(n), nil
		})
		closeErr := session.Close(ctx)
		if err != nil {
			return total, err
		}
		if closeErr != nil {
			return total, closeErr
		}
		n := deleted.(int)
		total += n
		if n < batchSize {
			return total, nil
		}
	}
}

func (s *Neo4jStore) RestoreNodes(ctx context.Context, tenantID, docID string, nodes []Node) error {
	if len(nodes) == 0 {
		return nil
	}
	label := nodes[0].Label
	if IsPreserved(label) {
		return fmt.Errorf("archive: label %s is preserved: %w", label, pkgerrors.ErrInvariantBreach)
	}
	rows := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, n.Props)
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf(`
UNWIND $rows AS props
MERGE (n:%s {id: props.id})
SET n = props
`, label), map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	return err
}

func (s *Neo4jStore) RelinkRestored(ctx context.Context, tenantID, docID string) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, q := range []string{
			`
MATCH (i:DocItem {tenant_id: $tenant_id, material_file_id: $doc_id})
WHERE i.section_id IS NOT NULL
MATCH (s:SectionContext {id: i.section_id})
MERGE (s)-[:CONTAINS]->(i)
`,
			`
MATCH (c:TypeAwareChunk {tenant_id: $tenant_id, material_file_id: $doc_id})
MATCH (v:DocumentVersion {material_file_id: $doc_id})
MERGE (v)-[:HAS_CHUNK]->(c)
`,
			`
MATCH (p:PageContext {tenant_id: $tenant_id, material_file_id: $doc_id})
MATCH (v:DocumentVersion {material_file_id: $doc_id})
MERGE (v)-[:HAS_PAGE]->(p)
`,
		} {
			res, err := tx.Run(ctx, q, map[string]any{"tenant_id": tenantID, "doc_id": docID})
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

func (s *Neo4jStore) CountNodes(ctx context.Context, tenantID, docID, label string) (int, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	count, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf(`
MATCH (n:%s {tenant_id: $tenant_id, material_file_id: $doc_id})
RETURN count(n) AS c
`, label), map[string]any{"tenant_id": tenantID, "doc_id": docID})
		if err != nil {
			return 0, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return 0, err
		}
		v, _ := rec.Get("c")
		n, _ := v.(int64)
		return int(n), nil
	})
	if err != nil {
		return 0, err
	}
	return count.(int), nil
}

// GormDocFlags persists archive flags on the material_file row.
type GormDocFlags struct {
	db *gorm.DB
}

func NewGormDocFlags(db *gorm.DB) (*GormDocFlags, error) {
	if db == nil {
		return nil, fmt.Errorf("archive: db required")
	}
	return &GormDocFlags{db: db}, nil
}

func (f *GormDocFlags) MarkArchived(ctx context.Context, docID uuid.UUID, path string, at time.Time) error {
	return f.db.WithContext(ctx).
		Model(&types.MaterialFile{}).
		Where("id = ?", docID).
		Updates(map[string]interface{}{
			"structural_archived":      true,
			"structural_archived_at":   at,
			"structural_archive_path":  path,
			"updated_at":               time.Now().UTC(),
		}).Error
}

func (f *GormDocFlags) ClearArchived(ctx context.Context, docID uuid.UUID) error {
	return f.db.WithContext(ctx).
		Model(&types.MaterialFile{}).
		Where("id = ?", docID).
		Updates(map[string]interface{}{
			"structural_archived":     false,
			"structural_archived_at":  nil,
			"structural_archive_path": "",
			"updated_at":              time.Now().UTC(),
		}).Error
}
