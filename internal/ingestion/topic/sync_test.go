package topic

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	materialrepos "github.com/yungbote/neurobridge-backend/internal/data/repos/materials"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
)

func TestPersistCoversMergesAndRollsUp(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	coverageRepo := materialrepos.NewMaterialSetConceptCoverageRepo(tx, log)
	rollupRepo := materialrepos.NewGlobalConceptCoverageRepo(tx, log)
	b, err := NewBuilder(log, tx, coverageRepo, rollupRepo, nil)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	tenantID := uuid.New()
	userID := uuid.New()
	ms := testutil.SeedMaterialSet(t, ctx, tx, tenantID, userID)

	canonical := &types.GlobalEntity{
		ID:            uuid.New(),
		TenantID:      tenantID,
		UserID:        userID,
		Key:           "kubernetes",
		CanonicalName: "Kubernetes",
		ConceptType:   "platform",
		ChunkIDs:      datatypes.JSON(`[]`),
		DocumentIDs:   datatypes.JSON(`[]`),
		Aliases:       datatypes.JSON(`[]`),
		Metadata:      datatypes.JSON(`{}`),
	}
	if err := tx.WithContext(ctx).Create(canonical).Error; err != nil {
		t.Fatalf("seed canonical: %v", err)
	}

	edges := []CoversEdge{{
		TopicID:      "topic-1",
		ConceptKey:   "kubernetes",
		ConceptID:    canonical.ID.String(),
		Salience:     0.6,
		MentionCount: 4,
		Method:       CoversMethod,
		Version:      CoversVersion,
	}}
	if err := b.PersistCovers(ctx, tenantID, userID, ms.ID, nil, edges); err != nil {
		t.Fatalf("PersistCovers: %v", err)
	}

	// Rebuild with a lower salience: the row keeps the max, counts add.
	edges[0].Salience = 0.4
	edges[0].MentionCount = 2
	if err := b.PersistCovers(ctx, tenantID, userID, ms.ID, nil, edges); err != nil {
		t.Fatalf("PersistCovers again: %v", err)
	}

	rows, err := coverageRepo.GetByMaterialSetID(ctx, tx, ms.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("coverage rows: err=%v len=%d", err, len(rows))
	}
	if rows[0].Salience != 0.6 {
		t.Fatalf("salience must merge by max: %v", rows[0].Salience)
	}
	if rows[0].MentionCount != 6 {
		t.Fatalf("mention counts must accumulate: %d", rows[0].MentionCount)
	}
	if rows[0].Method != CoversMethod || rows[0].Version != CoversVersion {
		t.Fatalf("method/version tags: %+v", rows[0])
	}

	rollup, err := rollupRepo.GetByUserAndConceptIDs(ctx, tx, userID, []uuid.UUID{canonical.ID})
	if err != nil || len(rollup) != 1 {
		t.Fatalf("rollup rows: err=%v len=%d", err, len(rollup))
	}
	var setIDs []string
	_ = json.Unmarshal(rollup[0].MaterialSetIDs, &setIDs)
	if len(setIDs) != 1 || setIDs[0] != ms.ID.String() {
		t.Fatalf("rollup set ids: %v", setIDs)
	}
	if rollup[0].ExposureScore != 0.6 {
		t.Fatalf("rollup exposure must keep the max salience: %v", rollup[0].ExposureScore)
	}

	// A second set mentioning the same concept unions into the rollup.
	ms2 := testutil.SeedMaterialSet(t, ctx, tx, tenantID, userID)
	if err := b.PersistCovers(ctx, tenantID, userID, ms2.ID, nil, edges); err != nil {
		t.Fatalf("PersistCovers second set: %v", err)
	}
	rollup, err = rollupRepo.GetByUserAndConceptIDs(ctx, tx, userID, []uuid.UUID{canonical.ID})
	if err != nil || len(rollup) != 1 {
		t.Fatalf("rollup after second set: err=%v len=%d", err, len(rollup))
	}
	_ = json.Unmarshal(rollup[0].MaterialSetIDs, &setIDs)
	if len(setIDs) != 2 {
		t.Fatalf("rollup must union both sets: %v", setIDs)
	}
	if rollup[0].CrossSetRelevance != 2 {
		t.Fatalf("cross-set relevance tracks set count: %v", rollup[0].CrossSetRelevance)
	}
}
