package materials

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// MaterialChunkEntityRepo stores the persisted anchor rows: which chunk
// mentions which proto-concept, at which chunk-local span and role. Upsert
// is keyed on (chunk, entity) so re-anchoring a document is idempotent.
type MaterialChunkEntityRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.MaterialChunkEntity) ([]*types.MaterialChunkEntity, error)

	GetByChunkIDs(ctx context.Context, tx *gorm.DB, chunkIDs []uuid.UUID) ([]*types.MaterialChunkEntity, error)
	GetByMaterialEntityIDs(ctx context.Context, tx *gorm.DB, entityIDs []uuid.UUID) ([]*types.MaterialChunkEntity, error)

	FullDeleteByChunkIDs(ctx context.Context, tx *gorm.DB, chunkIDs []uuid.UUID) error
}

type materialChunkEntityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialChunkEntityRepo(db *gorm.DB, baseLog *logger.Logger) MaterialChunkEntityRepo {
	return &materialChunkEntityRepo{db: db, log: baseLog.With("repo", "MaterialChunkEntityRepo")}
}

func (r *materialChunkEntityRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.MaterialChunkEntity) ([]*types.MaterialChunkEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.MaterialChunkEntity{}, nil
	}
	if err := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "material_chunk_id"}, {Name: "material_entity_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"relation", "weight", "label", "role", "span_start", "span_end", "updated_at"}),
	}).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *materialChunkEntityRepo) GetByChunkIDs(ctx context.Context, tx *gorm.DB, chunkIDs []uuid.UUID) ([]*types.MaterialChunkEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialChunkEntity
	if len(chunkIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("material_chunk_id IN ?", chunkIDs).
		Order("span_start ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialChunkEntityRepo) GetByMaterialEntityIDs(ctx context.Context, tx *gorm.DB, entityIDs []uuid.UUID) ([]*types.MaterialChunkEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialChunkEntity
	if len(entityIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("material_entity_id IN ?", entityIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialChunkEntityRepo) FullDeleteByChunkIDs(ctx context.Context, tx *gorm.DB, chunkIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(chunkIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Unscoped().Where("material_chunk_id IN ?", chunkIDs).Delete(&types.MaterialChunkEntity{}).Error
}
