package materials

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
)

func TestMaterialSetSummaryRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewMaterialSetSummaryRepo(db, testutil.Logger(t))

	tenantID := uuid.New()
	userID := uuid.New()
	ms := &types.MaterialSet{ID: uuid.New(), TenantID: tenantID, UserID: userID, Title: "set", Status: "ready"}
	if err := tx.WithContext(ctx).Create(ms).Error; err != nil {
		t.Fatalf("seed set: %v", err)
	}

	sum := &types.MaterialSetSummary{
		MaterialSetID: ms.ID,
		UserID:        userID,
		Subject:       "machine learning",
		Level:         "intro",
		SummaryMD:     "an introductory overview",
	}
	if err := repo.UpsertByMaterialSetID(ctx, tx, sum); err != nil {
		t.Fatalf("UpsertByMaterialSetID: %v", err)
	}

	if rows, err := repo.GetByMaterialSetIDs(ctx, tx, []uuid.UUID{ms.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByMaterialSetIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByUserIDs(ctx, tx, []uuid.UUID{userID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByUserIDs: err=%v len=%d", err, len(rows))
	}
	if got, err := repo.GetByID(ctx, tx, sum.ID); err != nil || got == nil || got.ID != sum.ID {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}

	sum2 := &types.MaterialSetSummary{
		MaterialSetID: ms.ID,
		UserID:        userID,
		Subject:       "machine learning",
		Level:         "advanced",
		SummaryMD:     "a deeper overview",
	}
	if err := repo.UpsertByMaterialSetID(ctx, tx, sum2); err != nil {
		t.Fatalf("UpsertByMaterialSetID (re-run): %v", err)
	}
	rows, err := repo.GetByMaterialSetIDs(ctx, tx, []uuid.UUID{ms.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("after re-run GetByMaterialSetIDs: err=%v len=%d", err, len(rows))
	}
	if rows[0].Level != "advanced" {
		t.Fatalf("expected updated level, got %+v", rows[0])
	}

	if err := repo.UpdateFields(ctx, tx, rows[0].ID, map[string]interface{}{"subject": "deep learning"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	if err := repo.SoftDeleteByMaterialSetIDs(ctx, tx, []uuid.UUID{ms.ID}); err != nil {
		t.Fatalf("SoftDeleteByMaterialSetIDs: %v", err)
	}
	if rows, err := repo.GetByMaterialSetIDs(ctx, tx, []uuid.UUID{ms.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("after SoftDeleteByMaterialSetIDs: err=%v len=%d", err, len(rows))
	}

	b1 := &types.MaterialSetSummary{MaterialSetID: ms.ID, UserID: userID, Subject: "stats", Level: "intro", SummaryMD: "x"}
	if _, err := repo.Create(ctx, tx, []*types.MaterialSetSummary{b1}); err != nil {
		t.Fatalf("seed b1: %v", err)
	}
	if err := repo.FullDeleteByIDs(ctx, tx, []uuid.UUID{b1.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
}
