package marker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"gorm.io/gorm"

	materialrepos "github.com/yungbote/neurobridge-backend/internal/data/repos/materials"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/neo4jdb"
)

// graphAnchorSource reads candidate entity anchors from the concept graph:
// concepts mentioned in the document's section contexts, best first.
type graphAnchorSource struct {
	client *neo4jdb.Client
}

func NewGraphAnchorSource(client *neo4jdb.Client) AnchorSource {
	return &graphAnchorSource{client: client}
}

func (g *graphAnchorSource) CandidateAnchors(ctx context.Context, tenantID, fileID uuid.UUID) ([]EntityAnchor, error) {
	if g.client == nil || g.client.Driver == nil {
		return nil, nil
	}
	session := g.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: g.client.Database,
	})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (c:CanonicalConcept {tenant_id: $tenant_id})-[e:MENTIONED_IN]->(s:SectionContext {material_file_id: $file_id})
WITH c, sum(e.count) AS mentions
WHERE mentions >= 2
RETURN c.canonical_name AS name, mentions
ORDER BY mentions DESC
LIMIT 5
`, map[string]any{
			"tenant_id": tenantID.String(),
			"file_id":   fileID.String(),
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	var out []EntityAnchor
	for _, rec := range records.([]*neo4j.Record) {
		name, _ := rec.Get("name")
		mentions, _ := rec.Get("mentions")
		n, _ := name.(string)
		m, _ := mentions.(int64)
		if n == "" {
			continue
		}
		out = append(out, EntityAnchor{Name: n, MentionCount: int(m), Role: "mention", Confidence: 1.0})
	}
	return out, nil
}

// repoCanonicalWriter adapts the marker repo to the normalizer's
// CanonicalWriter surface.
type repoCanonicalWriter struct {
	db   *gorm.DB
	repo materialrepos.MarkerRepo
}

func NewRepoCanonicalWriter(db *gorm.DB, repo materialrepos.MarkerRepo) CanonicalWriter {
	return &repoCanonicalWriter{db: db, repo: repo}
}

func (w *repoCanonicalWriter) EnsureCanonicalMarker(ctx context.Context, tenantID uuid.UUID, canonicalForm, entityAnchor, markerType, createdBy string, confidence float64) (uuid.UUID, error) {
	row, err := w.repo.EnsureCanonical(ctx, w.db, &types.CanonicalMarker{
		ID:            uuid.New(),
		TenantID:      tenantID,
		CanonicalForm: canonicalForm,
		EntityAnchor:  entityAnchor,
		MarkerType:    markerType,
		CreatedBy:     createdBy,
		Confidence:    confidence,
	})
	if err != nil {
		return uuid.Nil, err
	}
	if row == nil {
		return uuid.Nil, fmt.Errorf("marker: canonical %q not found after ensure", canonicalForm)
	}
	return row.ID, nil
}
