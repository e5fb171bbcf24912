package consolidate

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	materialrepos "github.com/yungbote/neurobridge-backend/internal/data/repos/materials"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
	pkgerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
)

func TestUnionOrdered(t *testing.T) {
	got := unionOrdered([]string{"a", "b"}, []string{"b", "c", "a", "c"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unionOrdered: got %v want %v", got, want)
	}
	if got := unionOrdered(nil, nil); len(got) != 0 {
		t.Fatalf("empty union: %v", got)
	}
}

func TestAppendPromotion(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	store, err := NewStore(log, tx,
		materialrepos.NewGlobalEntityRepo(tx, log),
		materialrepos.NewMaterialEntityPromotionRepo(tx, log),
		nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	tenantID := uuid.New()
	userID := uuid.New()
	ms := testutil.SeedMaterialSet(t, ctx, tx, tenantID, userID)
	mf := testutil.SeedMaterialFile(t, ctx, tx, ms.ID, "doc.pdf")

	canonical, err := store.CreateCanonical(ctx, &types.GlobalEntity{
		ID:            uuid.New(),
		TenantID:      tenantID,
		UserID:        userID,
		Key:           "sap s/4hana cloud",
		CanonicalName: "SAP S/4HANA Cloud",
		ConceptType:   "product",
		ChunkIDs:      datatypes.JSON(`["c1"]`),
	})
	if err != nil {
		t.Fatalf("CreateCanonical: %v", err)
	}

	proto := &types.MaterialEntity{
		ID:             uuid.New(),
		TenantID:       tenantID,
		MaterialFileID: mf.ID,
		Key:            "s/4hana cloud's",
		ConceptName:    "S/4HANA Cloud's",
		ChunkIDs:       datatypes.JSON(`["c1","c2"]`),
		Aliases:        datatypes.JSON(`[]`),
		Metadata:       datatypes.JSON(`{}`),
	}
	if err := tx.WithContext(ctx).Create(proto).Error; err != nil {
		t.Fatalf("seed proto: %v", err)
	}

	if err := store.AppendPromotion(ctx, canonical.ID, proto); err != nil {
		t.Fatalf("AppendPromotion: %v", err)
	}
	// Replay is idempotent: no second support increment.
	if err := store.AppendPromotion(ctx, canonical.ID, proto); err != nil {
		t.Fatalf("AppendPromotion replay: %v", err)
	}

	var after types.GlobalEntity
	if err := tx.WithContext(ctx).First(&after, "id = ?", canonical.ID).Error; err != nil {
		t.Fatalf("re-read canonical: %v", err)
	}
	var chunks []string
	_ = json.Unmarshal(after.ChunkIDs, &chunks)
	if !reflect.DeepEqual(chunks, []string{"c1", "c2"}) {
		t.Fatalf("chunk union: %v", chunks)
	}
	var docs []string
	_ = json.Unmarshal(after.DocumentIDs, &docs)
	if !reflect.DeepEqual(docs, []string{mf.ID.String()}) {
		t.Fatalf("document ids: %v", docs)
	}
	if after.Support != 1 {
		t.Fatalf("support after replay: got %d want 1", after.Support)
	}
	if after.PromotedAt == nil {
		t.Fatal("promoted_at not set")
	}

	// Promoting the same proto to a different canonical breaches 1:1.
	other, err := store.CreateCanonical(ctx, &types.GlobalEntity{
		ID:            uuid.New(),
		TenantID:      tenantID,
		UserID:        userID,
		Key:           "something else",
		CanonicalName: "Something Else",
	})
	if err != nil {
		t.Fatalf("CreateCanonical other: %v", err)
	}
	if err := store.AppendPromotion(ctx, other.ID, proto); !errors.Is(err, pkgerrors.ErrInvariantBreach) {
		t.Fatalf("want ErrInvariantBreach, got %v", err)
	}
}
