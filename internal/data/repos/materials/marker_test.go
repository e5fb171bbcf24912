package materials

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
)

func TestMarkerRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewMarkerRepo(db, testutil.Logger(t))

	tenantID := uuid.New()
	userID := uuid.New()
	ms := testutil.SeedMaterialSet(t, ctx, tx, tenantID, userID)
	mf := testutil.SeedMaterialFile(t, ctx, tx, ms.ID, "markers.pdf")

	canonical, err := repo.EnsureCanonical(ctx, tx, &types.CanonicalMarker{
		ID:            uuid.New(),
		TenantID:      tenantID,
		CanonicalForm: "S/4HANA Cloud 2402",
		EntityAnchor:  "SAP S/4HANA Cloud",
		MarkerType:    "release",
		CreatedBy:     "rule:release-quarter",
		Confidence:    0.9,
	})
	if err != nil || canonical == nil {
		t.Fatalf("EnsureCanonical: got=%v err=%v", canonical, err)
	}

	// Ensuring the same (form, anchor) reuses the existing row and keeps the
	// highest confidence seen.
	again, err := repo.EnsureCanonical(ctx, tx, &types.CanonicalMarker{
		ID:            uuid.New(),
		TenantID:      tenantID,
		CanonicalForm: "S/4HANA Cloud 2402",
		EntityAnchor:  "SAP S/4HANA Cloud",
		MarkerType:    "release",
		CreatedBy:     "alias:exact",
		Confidence:    0.95,
	})
	if err != nil || again == nil || again.ID != canonical.ID {
		t.Fatalf("EnsureCanonical reuse: got=%v want id=%s err=%v", again, canonical.ID, err)
	}
	if again.Confidence != 0.95 {
		t.Fatalf("EnsureCanonical confidence: got=%v want 0.95", again.Confidence)
	}

	mentions := []*types.MarkerMention{
		{ID: uuid.New(), TenantID: tenantID, MaterialFileID: mf.ID, RawText: "2402", Position: 120, Status: types.MarkerResolved, CanonicalMarkerID: &canonical.ID, RuleID: "release-quarter", Confidence: 0.9},
		{ID: uuid.New(), TenantID: tenantID, MaterialFileID: mf.ID, RawText: "v1", Position: 40, Status: types.MarkerUnresolved},
	}
	if _, err := repo.UpsertMentions(ctx, tx, mentions); err != nil {
		t.Fatalf("UpsertMentions: %v", err)
	}

	rows, err := repo.GetMentionsByFileID(ctx, tx, mf.ID)
	if err != nil || len(rows) != 2 {
		t.Fatalf("GetMentionsByFileID: err=%v len=%d", err, len(rows))
	}
	if rows[0].RawText != "v1" {
		t.Fatalf("mentions not ordered by position: first=%q", rows[0].RawText)
	}

	// Re-running normalization for the file updates the same mention row.
	mentions[1].Status = types.MarkerResolved
	mentions[1].CanonicalMarkerID = &canonical.ID
	mentions[1].RuleID = "alias"
	if _, err := repo.UpsertMentions(ctx, tx, mentions[1:]); err != nil {
		t.Fatalf("UpsertMentions again: %v", err)
	}
	unresolved, err := repo.GetMentionsByStatus(ctx, tx, tenantID, types.MarkerUnresolved, 10)
	if err != nil || len(unresolved) != 0 {
		t.Fatalf("GetMentionsByStatus unresolved: err=%v len=%d", err, len(unresolved))
	}

	got, err := repo.GetCanonicalByIDs(ctx, tx, []uuid.UUID{canonical.ID})
	if err != nil || len(got) != 1 || got[0].CanonicalForm != "S/4HANA Cloud 2402" {
		t.Fatalf("GetCanonicalByIDs: err=%v rows=%v", err, got)
	}
}
