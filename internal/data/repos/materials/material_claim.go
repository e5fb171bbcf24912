package materials

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// MaterialClaimRepo stores atomic grounded claims extracted from a document.
type MaterialClaimRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.MaterialClaim) ([]*types.MaterialClaim, error)
	// Upsert is keyed on (material_set_id, key) so re-extracting a
	// document's claims is idempotent.
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.MaterialClaim) ([]*types.MaterialClaim, error)

	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.MaterialClaim, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MaterialClaim, error)
	GetByMaterialFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) ([]*types.MaterialClaim, error)
	GetByMaterialSetID(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID) ([]*types.MaterialClaim, error)
	GetBySetAndKeys(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID, keys []string) ([]*types.MaterialClaim, error)
	GetByFormKind(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID, kind types.ClaimFormKind) ([]*types.MaterialClaim, error)

	Update(ctx context.Context, tx *gorm.DB, row *types.MaterialClaim) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error

	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	SoftDeleteByMaterialFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	FullDeleteByMaterialFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) error
}

type materialClaimRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialClaimRepo(db *gorm.DB, baseLog *logger.Logger) MaterialClaimRepo {
	return &materialClaimRepo{db: db, log: baseLog.With("repo", "MaterialClaimRepo")}
}

func (r *materialClaimRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.MaterialClaim) ([]*types.MaterialClaim, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.MaterialClaim{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *materialClaimRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.MaterialClaim) ([]*types.MaterialClaim, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.MaterialClaim{}, nil
	}
	if err := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "material_set_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"kind", "content", "verbatim_quote", "confidence",
			"form_kind", "numeric_unit", "numeric_value", "range_low", "range_high",
			"enum_values", "bool_value", "text_value",
			"authority", "truth_regime", "hedge_strength", "scope_dims",
			"updated_at",
		}),
	}).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *materialClaimRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.MaterialClaim, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialClaim
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialClaimRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MaterialClaim, error) {
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

func (r *materialClaimRepo) GetByMaterialFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) ([]*types.MaterialClaim, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialClaim
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

func (r *materialClaimRepo) GetByMaterialSetID(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID) ([]*types.MaterialClaim, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialClaim
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

func (r *materialClaimRepo) GetBySetAndKeys(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID, keys []string) ([]*types.MaterialClaim, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialClaim
	if materialSetID == uuid.Nil || len(keys) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("material_set_id = ? AND key IN ?", materialSetID, keys).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialClaimRepo) GetByFormKind(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID, kind types.ClaimFormKind) ([]*types.MaterialClaim, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialClaim
	if materialSetID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("material_set_id = ? AND form_kind = ?", materialSetID, kind).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialClaimRepo) Update(ctx context.Context, tx *gorm.DB, row *types.MaterialClaim) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *materialClaimRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.MaterialClaim{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *materialClaimRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.MaterialClaim{}).Error
}

func (r *materialClaimRepo) SoftDeleteByMaterialFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(fileIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("material_file_id IN ?", fileIDs).Delete(&types.MaterialClaim{}).Error
}

func (r *materialClaimRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Unscoped().Where("id IN ?", ids).Delete(&types.MaterialClaim{}).Error
}

func (r *materialClaimRepo) FullDeleteByMaterialFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(fileIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Unscoped().Where("material_file_id IN ?", fileIDs).Delete(&types.MaterialClaim{}).Error
}
