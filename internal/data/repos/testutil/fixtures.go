package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedMaterialSet(tb testing.TB, ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) *types.MaterialSet {
	tb.Helper()
	ms := &types.MaterialSet{
		ID:       uuid.New(),
		TenantID: tenantID,
		UserID:   userID,
		Title:    "set",
		Status:   "pending",
	}
	if err := tx.WithContext(ctx).Create(ms).Error; err != nil {
		tb.Fatalf("seed material set: %v", err)
	}
	return ms
}

func SeedMaterialFile(tb testing.TB, ctx context.Context, tx *gorm.DB, setID uuid.UUID, storageKey string) *types.MaterialFile {
	tb.Helper()
	mf := &types.MaterialFile{
		ID:            uuid.New(),
		MaterialSetID: setID,
		OriginalName:  "file.pdf",
		StorageKey:    storageKey,
		Status:        "uploaded",
		AIType:        "",
		AITopics:      datatypes.JSON([]byte("[]")),
	}
	if err := tx.WithContext(ctx).Create(mf).Error; err != nil {
		tb.Fatalf("seed material file: %v", err)
	}
	return mf
}

func SeedMaterialChunk(tb testing.TB, ctx context.Context, tx *gorm.DB, fileID uuid.UUID, index int) *types.MaterialChunk {
	tb.Helper()
	c := &types.MaterialChunk{
		ID:             uuid.New(),
		MaterialFileID: fileID,
		Index:          index,
		Text:           "chunk",
		Embedding:      datatypes.JSON([]byte("[]")),
		Metadata:       datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed material chunk: %v", err)
	}
	return c
}

func SeedMaterialFileSection(tb testing.TB, ctx context.Context, tx *gorm.DB, fileID uuid.UUID, index, level int, title string) *types.MaterialFileSection {
	tb.Helper()
	s := &types.MaterialFileSection{
		ID:             uuid.New(),
		MaterialFileID: fileID,
		SectionIndex:   index,
		Level:          level,
		Title:          title,
		Path:           title,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed material file section: %v", err)
	}
	return s
}

func SeedMaterialEntity(tb testing.TB, ctx context.Context, tx *gorm.DB, tenantID, fileID uuid.UUID, name string) *types.MaterialEntity {
	tb.Helper()
	e := &types.MaterialEntity{
		ID:             uuid.New(),
		TenantID:       tenantID,
		MaterialFileID: fileID,
		ConceptName:    name,
		ConceptType:    "generic",
		Confidence:     0.8,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed material entity: %v", err)
	}
	return e
}

func SeedGlobalEntity(tb testing.TB, ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, canonicalName string) *types.GlobalEntity {
	tb.Helper()
	g := &types.GlobalEntity{
		ID:            uuid.New(),
		TenantID:      tenantID,
		CanonicalName: canonicalName,
		ConceptType:   "generic",
		QualityScore:  0.8,
	}
	if err := tx.WithContext(ctx).Create(g).Error; err != nil {
		tb.Fatalf("seed global entity: %v", err)
	}
	return g
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
