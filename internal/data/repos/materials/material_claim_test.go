package materials

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"gorm.io/datatypes"
)

func TestMaterialClaimRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewMaterialClaimRepo(db, testutil.Logger(t))

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

	numeric := 0.01
	c1 := &types.MaterialClaim{
		ID:             uuid.New(),
		TenantID:       tenantID,
		MaterialSetID:  ms.ID,
		MaterialFileID: mf.ID,
		Key:            "claim-learning-rate",
		Kind:           "claim",
		Content:        "the learning rate is 0.01",
		FormKind:       types.ClaimFormNumeric,
		NumericUnit:    "",
		NumericValue:   &numeric,
		Authority:      types.AuthorityHigh,
		Metadata:       datatypes.JSON([]byte("{}")),
	}
	c2 := &types.MaterialClaim{
		ID:             uuid.New(),
		TenantID:       tenantID,
		MaterialSetID:  ms.ID,
		MaterialFileID: mf.ID,
		Key:            "claim-convergence",
		Kind:           "claim",
		Content:        "the model converges within 100 epochs",
		FormKind:       types.ClaimFormText,
		Authority:      types.AuthorityMedium,
		Metadata:       datatypes.JSON([]byte("{}")),
	}
	if _, err := repo.Create(ctx, tx, []*types.MaterialClaim{c1, c2}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got, err := repo.GetByID(ctx, tx, c1.ID); err != nil || got == nil || got.ID != c1.ID {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if rows, err := repo.GetByIDs(ctx, tx, []uuid.UUID{c1.ID, c2.ID}); err != nil || len(rows) != 2 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByMaterialFileIDs(ctx, tx, []uuid.UUID{mf.ID}); err != nil || len(rows) != 2 {
		t.Fatalf("GetByMaterialFileIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByMaterialSetID(ctx, tx, ms.ID); err != nil || len(rows) != 2 {
		t.Fatalf("GetByMaterialSetID: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetBySetAndKeys(ctx, tx, ms.ID, []string{"claim-learning-rate"}); err != nil || len(rows) != 1 {
		t.Fatalf("GetBySetAndKeys: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByFormKind(ctx, tx, ms.ID, types.ClaimFormNumeric); err != nil || len(rows) != 1 {
		t.Fatalf("GetByFormKind: err=%v len=%d", err, len(rows))
	}

	if err := repo.UpdateFields(ctx, tx, c2.ID, map[string]interface{}{"confidence": 0.85}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	c1.VerbatimQuote = "learning rate = 0.01"
	if err := repo.Update(ctx, tx, c1); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := repo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{c1.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if rows, err := repo.GetByIDs(ctx, tx, []uuid.UUID{c1.ID, c2.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("after SoftDeleteByIDs GetByIDs: err=%v len=%d", err, len(rows))
	}

	if err := repo.SoftDeleteByMaterialFileIDs(ctx, tx, []uuid.UUID{mf.ID}); err != nil {
		t.Fatalf("SoftDeleteByMaterialFileIDs: %v", err)
	}
	if rows, err := repo.GetByMaterialFileIDs(ctx, tx, []uuid.UUID{mf.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("after SoftDeleteByMaterialFileIDs: err=%v len=%d", err, len(rows))
	}

	b1 := &types.MaterialClaim{
		ID:             uuid.New(),
		TenantID:       tenantID,
		MaterialSetID:  ms.ID,
		MaterialFileID: mf.ID,
		Key:            "claim-throwaway",
		Kind:           "claim",
		Content:        "throwaway",
		FormKind:       types.ClaimFormBoolean,
		Authority:      types.AuthorityLow,
		Metadata:       datatypes.JSON([]byte("{}")),
	}
	if _, err := repo.Create(ctx, tx, []*types.MaterialClaim{b1}); err != nil {
		t.Fatalf("seed b1: %v", err)
	}
	if err := repo.FullDeleteByMaterialFileIDs(ctx, tx, []uuid.UUID{mf.ID}); err != nil {
		t.Fatalf("FullDeleteByMaterialFileIDs: %v", err)
	}
}
