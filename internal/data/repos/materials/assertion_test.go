package materials

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"gorm.io/datatypes"
)

func TestAssertionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewAssertionRepo(db, testutil.Logger(t))

	tenantID := uuid.New()
	userID := uuid.New()
	ms := testutil.SeedMaterialSet(t, ctx, tx, tenantID, userID)
	mf := testutil.SeedMaterialFile(t, ctx, tx, ms.ID, "doc.pdf")

	entity := &types.MaterialEntity{
		ID:             uuid.New(),
		TenantID:       tenantID,
		MaterialFileID: mf.ID,
		Key:            "zero downtime upgrade",
		ConceptName:    "Zero Downtime Upgrade",
		ChunkIDs:       datatypes.JSON([]byte("[]")),
		Aliases:        datatypes.JSON([]byte("[]")),
		Metadata:       datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(entity).Error; err != nil {
		t.Fatalf("seed entity: %v", err)
	}
	canonicalID := uuid.New()

	rows := []*types.Assertion{{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		MaterialEntityID:   entity.ID,
		MaterialFileID:     mf.ID,
		CanonicalConceptID: &canonicalID,
		Polarity:           types.PolarityAffirmed,
		Scope:              types.ScopeConstrained,
		Markers:            datatypes.JSON([]byte(`["2402"]`)),
		Confidence:         0.8,
		Evidence:           datatypes.JSON([]byte(`["chunk-1"]`)),
	}}
	if _, err := repo.Upsert(ctx, tx, rows); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Idempotent on (entity, file): re-upsert flips polarity in place.
	rows[0].Polarity = types.PolarityNegated
	if _, err := repo.Upsert(ctx, tx, rows); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	byFile, err := repo.GetByFileID(ctx, tx, mf.ID)
	if err != nil || len(byFile) != 1 {
		t.Fatalf("GetByFileID: err=%v len=%d", err, len(byFile))
	}
	if byFile[0].Polarity != types.PolarityNegated {
		t.Fatalf("polarity not updated: %s", byFile[0].Polarity)
	}

	byConcept, err := repo.GetByCanonicalConceptIDs(ctx, tx, tenantID, []uuid.UUID{canonicalID})
	if err != nil || len(byConcept) != 1 {
		t.Fatalf("GetByCanonicalConceptIDs: err=%v len=%d", err, len(byConcept))
	}
	if other, err := repo.GetByCanonicalConceptIDs(ctx, tx, uuid.New(), []uuid.UUID{canonicalID}); err != nil || len(other) != 0 {
		t.Fatalf("tenant isolation: err=%v len=%d", err, len(other))
	}

	if err := repo.UpdateFields(ctx, tx, byFile[0].ID, map[string]interface{}{"confidence": 0.95}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if err := repo.FullDeleteByFileID(ctx, tx, mf.ID); err != nil {
		t.Fatalf("FullDeleteByFileID: %v", err)
	}
	if left, err := repo.GetByFileID(ctx, tx, mf.ID); err != nil || len(left) != 0 {
		t.Fatalf("delete incomplete: err=%v len=%d", err, len(left))
	}
}
