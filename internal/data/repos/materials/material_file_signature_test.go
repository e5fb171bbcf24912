package materials

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/dbctx"
)

func TestMaterialFileSignatureRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewMaterialFileSignatureRepo(db, testutil.Logger(t))

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

	sig := &types.MaterialFileSignature{
		MaterialFileID: mf.ID,
		MaterialSetID:  ms.ID,
		Version:        1,
		Language:       "en",
		Difficulty:     "intro",
		Fingerprint:    "abc123",
	}
	if err := repo.UpsertByMaterialFileID(dbc, sig); err != nil {
		t.Fatalf("UpsertByMaterialFileID: %v", err)
	}

	rows, err := repo.GetByMaterialFileIDs(dbc, []uuid.UUID{mf.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByMaterialFileIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByMaterialSetID(dbc, ms.ID); err != nil || len(rows) != 1 {
		t.Fatalf("GetByMaterialSetID: err=%v len=%d", err, len(rows))
	}

	// Re-running UpsertByMaterialFileID on the same file updates in place.
	sig2 := &types.MaterialFileSignature{
		MaterialFileID: mf.ID,
		MaterialSetID:  ms.ID,
		Version:        2,
		Language:       "en",
		Difficulty:     "advanced",
		Fingerprint:    "abc456",
	}
	if err := repo.UpsertByMaterialFileID(dbc, sig2); err != nil {
		t.Fatalf("UpsertByMaterialFileID (re-run): %v", err)
	}
	rows, err = repo.GetByMaterialFileIDs(dbc, []uuid.UUID{mf.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("after re-run GetByMaterialFileIDs: err=%v len=%d", err, len(rows))
	}
	if rows[0].Version != 2 || rows[0].Difficulty != "advanced" {
		t.Fatalf("expected updated fields, got %+v", rows[0])
	}

	if err := repo.UpdateFields(dbc, rows[0].ID, map[string]interface{}{"language": "fr"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	rows, err = repo.GetByMaterialFileIDs(dbc, []uuid.UUID{mf.ID})
	if err != nil || rows[0].Language != "fr" {
		t.Fatalf("after UpdateFields: err=%v got=%+v", err, rows)
	}
}
