package jobs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"gorm.io/datatypes"
)

func TestSagaActionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewSagaActionRepo(db, testutil.Logger(t))

	sagaID := uuid.New()

	a1 := &types.SagaAction{ID: uuid.New(), SagaID: sagaID, Seq: 1, Kind: "vector_delete_ids", Payload: datatypes.JSON([]byte("{}")), Status: "done"}
	a2 := &types.SagaAction{ID: uuid.New(), SagaID: sagaID, Seq: 2, Kind: "gcs_delete_key", Payload: datatypes.JSON([]byte("{}")), Status: "pending"}
	if _, err := repo.Create(ctx, tx, []*types.SagaAction{a1, a2}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if rows, err := repo.GetByIDs(ctx, tx, []uuid.UUID{a1.ID, a2.ID}); err != nil || len(rows) != 2 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}

	rows, err := repo.ListBySagaIDDesc(ctx, tx, sagaID)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListBySagaIDDesc: err=%v len=%d", err, len(rows))
	}
	if rows[0].Seq != 2 || rows[1].Seq != 1 {
		t.Fatalf("expected seq DESC ordering, got %+v", rows)
	}

	maxSeq, err := repo.GetMaxSeq(ctx, tx, sagaID)
	if err != nil || maxSeq != 2 {
		t.Fatalf("GetMaxSeq: got=%d err=%v", maxSeq, err)
	}

	if err := repo.UpdateFields(ctx, tx, a2.ID, map[string]interface{}{"status": "done"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	emptySagaMax, err := repo.GetMaxSeq(ctx, tx, uuid.New())
	if err != nil || emptySagaMax != 0 {
		t.Fatalf("GetMaxSeq (no actions): got=%d err=%v", emptySagaMax, err)
	}
}
