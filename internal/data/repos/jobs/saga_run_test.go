package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
)

func TestSagaRunRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewSagaRunRepo(db, testutil.Logger(t))

	ownerUserID := uuid.New()
	rootJobID := uuid.New()

	saga := &types.SagaRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		RootJobID:   rootJobID,
		Status:      "running",
	}
	if _, err := repo.Create(ctx, tx, []*types.SagaRun{saga}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got, err := repo.GetByID(ctx, tx, saga.ID); err != nil || got == nil || got.ID != saga.ID {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if rows, err := repo.GetByIDs(ctx, tx, []uuid.UUID{saga.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	if got, err := repo.GetByRootJobID(ctx, tx, rootJobID); err != nil || got == nil || got.ID != saga.ID {
		t.Fatalf("GetByRootJobID: got=%v err=%v", got, err)
	}

	if got, err := repo.LockByID(ctx, tx, saga.ID); err != nil || got == nil || got.ID != saga.ID {
		t.Fatalf("LockByID: got=%v err=%v", got, err)
	}

	if err := repo.UpdateFields(ctx, tx, saga.ID, map[string]interface{}{"status": "compensating"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	stale := &types.SagaRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		RootJobID:   uuid.New(),
		Status:      "compensating",
	}
	if _, err := repo.Create(ctx, tx, []*types.SagaRun{stale}); err != nil {
		t.Fatalf("seed stale: %v", err)
	}
	// GORM stamps updated_at with the current time on create, so backdate it
	// with a raw update that bypasses the auto-timestamp callback.
	if err := tx.Exec("UPDATE saga_run SET updated_at = ? WHERE id = ?", time.Now().UTC().Add(-2*time.Hour), stale.ID).Error; err != nil {
		t.Fatalf("backdate stale.updated_at: %v", err)
	}
	rows, err := repo.ListByStatusBefore(ctx, tx, []string{"compensating"}, time.Now().UTC().Add(-1*time.Hour), 10)
	if err != nil {
		t.Fatalf("ListByStatusBefore: %v", err)
	}
	found := false
	for _, row := range rows {
		if row.ID == stale.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("ListByStatusBefore: expected stale saga in results, got %+v", rows)
	}
}
