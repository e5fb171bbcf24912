package materials

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"gorm.io/datatypes"
)

func TestMaterialChunkEntityRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewMaterialChunkEntityRepo(db, testutil.Logger(t))

	tenantID := uuid.New()
	userID := uuid.New()
	ms := testutil.SeedMaterialSet(t, ctx, tx, tenantID, userID)
	mf := testutil.SeedMaterialFile(t, ctx, tx, ms.ID, "doc.pdf")
	chunk := testutil.SeedMaterialChunk(t, ctx, tx, mf.ID, 0)

	entity := &types.MaterialEntity{
		ID:             uuid.New(),
		TenantID:       tenantID,
		MaterialFileID: mf.ID,
		Key:            "zero downtime upgrade",
		ConceptName:    "Zero Downtime Upgrade",
		ChunkIDs:       datatypes.JSON(`[]`),
		Aliases:        datatypes.JSON(`[]`),
		Metadata:       datatypes.JSON(`{}`),
	}
	if err := tx.WithContext(ctx).Create(entity).Error; err != nil {
		t.Fatalf("seed entity: %v", err)
	}

	rows := []*types.MaterialChunkEntity{{
		ID:               uuid.New(),
		MaterialChunkID:  chunk.ID,
		MaterialEntityID: entity.ID,
		Relation:         "mentions",
		Weight:           1,
		Label:            "Zero Downtime Upgrade",
		Role:             "primary",
		SpanStart:        12,
		SpanEnd:          33,
	}}
	if _, err := repo.Upsert(ctx, tx, rows); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Re-anchoring the same (chunk, entity) updates span/role in place.
	rows[0].Role = "mention"
	rows[0].SpanStart = 40
	rows[0].SpanEnd = 61
	if _, err := repo.Upsert(ctx, tx, rows); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}

	got, err := repo.GetByChunkIDs(ctx, tx, []uuid.UUID{chunk.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("GetByChunkIDs: err=%v len=%d", err, len(got))
	}
	if got[0].Role != "mention" || got[0].SpanStart != 40 {
		t.Fatalf("upsert did not update in place: %+v", got[0])
	}

	byEntity, err := repo.GetByMaterialEntityIDs(ctx, tx, []uuid.UUID{entity.ID})
	if err != nil || len(byEntity) != 1 {
		t.Fatalf("GetByMaterialEntityIDs: err=%v len=%d", err, len(byEntity))
	}

	if err := repo.FullDeleteByChunkIDs(ctx, tx, []uuid.UUID{chunk.ID}); err != nil {
		t.Fatalf("FullDeleteByChunkIDs: %v", err)
	}
	if left, err := repo.GetByChunkIDs(ctx, tx, []uuid.UUID{chunk.ID}); err != nil || len(left) != 0 {
		t.Fatalf("delete incomplete: err=%v len=%d", err, len(left))
	}
}
