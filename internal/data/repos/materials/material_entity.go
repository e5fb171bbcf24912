package materials

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// MaterialEntityRepo stores proto-concept extractions, one row per
// document-local mention before canonicalization resolves it to a
// GlobalEntity.
type MaterialEntityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.MaterialEntity) ([]*types.MaterialEntity, error)

	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.MaterialEntity, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MaterialEntity, error)
	GetByMaterialFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) ([]*types.MaterialEntity, error)
	GetByMaterialSetID(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID) ([]*types.MaterialEntity, error)
	GetByFileAndKeys(ctx context.Context, tx *gorm.DB, fileID uuid.UUID, keys []string) ([]*types.MaterialEntity, error)

	Update(ctx context.Context, tx *gorm.DB, row *types.MaterialEntity) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error

	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	SoftDeleteByMaterialFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	FullDeleteByMaterialFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) error
}

type materialEntityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialEntityRepo(db *gorm.DB, baseLog *logger.Logger) MaterialEntityRepo {
	return &materialEntityRepo{db: db, log: baseLog.With("repo", "MaterialEntityRepo")}
}

func (r *materialEntityRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.MaterialEntity) ([]*types.MaterialEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.MaterialEntity{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *materialEntityRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.MaterialEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialEntity
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialEntityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MaterialEntity, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *materialEntityRepo) GetByMaterialFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) ([]*types.MaterialEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialEntity
	if len(fileIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("material_file_id IN ?", fileIDs).
		Order("material_file_id ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialEntityRepo) GetByMaterialSetID(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID) ([]*types.MaterialEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialEntity
	if materialSetID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("material_set_id = ?", materialSetID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialEntityRepo) GetByFileAndKeys(ctx context.Context, tx *gorm.DB, fileID uuid.UUID, keys []string) ([]*types.MaterialEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialEntity
	if fileID == uuid.Nil || len(keys) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("material_file_id = ? AND key IN ?", fileID, keys).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialEntityRepo) Update(ctx context.Context, tx *gorm.DB, row *types.MaterialEntity) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *materialEntityRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(ctx).
		Model(&types.MaterialEntity{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *materialEntityRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.MaterialEntity{}).Error
}

func (r *materialEntityRepo) SoftDeleteByMaterialFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(fileIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("material_file_id IN ?", fileIDs).Delete(&types.MaterialEntity{}).Error
}

func (r *materialEntityRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Unscoped().Where("id IN ?", ids).Delete(&types.MaterialEntity{}).Error
}

func (r *materialEntityRepo) FullDeleteByMaterialFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(fileIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Unscoped().Where("material_file_id IN ?", fileIDs).Delete(&types.MaterialEntity{}).Error
}
