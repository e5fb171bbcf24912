package materials

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/dbctx"
)

func TestMaterialFileSectionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewMaterialFileSectionRepo(db, testutil.Logger(t))

	tenantID := uuid.New()
	userID := uuid.New()
	ms := &types.MaterialSet{ID: uuid.New(), TenantID: tenantID, UserID: userID, Title: "set", Status: "pending"}
	if err := tx.WithContext(ctx).Create(ms).Error; err != nil {
		t.Fatalf("seed set: %v", err)
	}
	mf := &types.MaterialFile{ID: uuid.New(), MaterialSetID: ms.ID, OriginalName: "file.pdf", StorageKey: "key", Status: "uploaded"}
	if err := tx.WithContext(ctx).Create(mf).Error; err != nil {
		t.Fatalf("seed file: %v", err)
	}

	s1 := &types.MaterialFileSection{MaterialFileID: mf.ID, SectionIndex: 0, Title: "root", Level: 0}
	s2 := &types.MaterialFileSection{MaterialFileID: mf.ID, SectionIndex: 1, Title: "Introduction", Level: 1}
	if err := repo.BulkUpsert(dbc, []*types.MaterialFileSection{s1, s2}); err != nil {
		t.Fatalf("BulkUpsert: %v", err)
	}

	rows, err := repo.GetByMaterialFileIDs(dbc, []uuid.UUID{mf.ID})
	if err != nil || len(rows) != 2 {
		t.Fatalf("GetByMaterialFileIDs: err=%v len=%d", err, len(rows))
	}
	if rows[0].SectionIndex != 0 || rows[1].SectionIndex != 1 {
		t.Fatalf("expected section_index ASC ordering, got %+v", rows)
	}

	// Re-running BulkUpsert on the same (material_file_id, section_index) updates in place.
	s1Updated := &types.MaterialFileSection{MaterialFileID: mf.ID, SectionIndex: 0, Title: "root (revised)", Level: 0}
	if err := repo.BulkUpsert(dbc, []*types.MaterialFileSection{s1Updated}); err != nil {
		t.Fatalf("BulkUpsert (re-run): %v", err)
	}
	rows, err = repo.GetByMaterialFileIDs(dbc, []uuid.UUID{mf.ID})
	if err != nil || len(rows) != 2 {
		t.Fatalf("after re-run GetByMaterialFileIDs: err=%v len=%d", err, len(rows))
	}
	if rows[0].Title != "root (revised)" {
		t.Fatalf("expected updated title, got %q", rows[0].Title)
	}

	if err := repo.DeleteByMaterialFileID(dbc, mf.ID); err != nil {
		t.Fatalf("DeleteByMaterialFileID: %v", err)
	}
	if rows, err := repo.GetByMaterialFileIDs(dbc, []uuid.UUID{mf.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("after DeleteByMaterialFileID: err=%v len=%d", err, len(rows))
	}
}
