package materials

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/dbctx"
)

func TestMaterialSetFileRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewMaterialSetFileRepo(db, testutil.Logger(t))

	tenantID := uuid.New()
	userID := uuid.New()
	source := &types.MaterialSet{ID: uuid.New(), TenantID: tenantID, UserID: userID, Title: "source", Status: "ready"}
	derived := &types.MaterialSet{ID: uuid.New(), TenantID: tenantID, UserID: userID, Title: "derived", Status: "pending"}
	if err := tx.WithContext(ctx).Create(source).Error; err != nil {
		t.Fatalf("seed source set: %v", err)
	}
	if err := tx.WithContext(ctx).Create(derived).Error; err != nil {
		t.Fatalf("seed derived set: %v", err)
	}
	mf1 := &types.MaterialFile{ID: uuid.New(), MaterialSetID: source.ID, OriginalName: "a.pdf", StorageKey: "a", Status: "uploaded"}
	mf2 := &types.MaterialFile{ID: uuid.New(), MaterialSetID: source.ID, OriginalName: "b.pdf", StorageKey: "b", Status: "uploaded"}
	if err := tx.WithContext(ctx).Create(mf1).Error; err != nil {
		t.Fatalf("seed mf1: %v", err)
	}
	if err := tx.WithContext(ctx).Create(mf2).Error; err != nil {
		t.Fatalf("seed mf2: %v", err)
	}

	links := []*types.MaterialSetFile{
		{ID: uuid.New(), MaterialSetID: derived.ID, MaterialFileID: mf1.ID},
		{ID: uuid.New(), MaterialSetID: derived.ID, MaterialFileID: mf2.ID},
	}
	if err := repo.CreateIgnoreDuplicates(dbc, links); err != nil {
		t.Fatalf("CreateIgnoreDuplicates: %v", err)
	}

	// Re-inserting the same pair should be ignored, not error.
	dup := []*types.MaterialSetFile{{ID: uuid.New(), MaterialSetID: derived.ID, MaterialFileID: mf1.ID}}
	if err := repo.CreateIgnoreDuplicates(dbc, dup); err != nil {
		t.Fatalf("CreateIgnoreDuplicates (dup): %v", err)
	}

	rows, err := repo.GetByMaterialSetIDs(dbc, []uuid.UUID{derived.ID})
	if err != nil || len(rows) != 2 {
		t.Fatalf("GetByMaterialSetIDs: err=%v len=%d", err, len(rows))
	}
}
