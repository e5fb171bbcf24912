package materials

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// MaterialEntityPromotionRepo stores the 1:1 proto-to-canonical promotion
// links. Create uses DoNothing on the unique material_entity_id so a
// replayed promotion is idempotent; the caller re-reads to learn which
// canonical actually won.
type MaterialEntityPromotionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.MaterialEntityPromotion) error
	GetByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.MaterialEntityPromotion, error)
	GetByGlobalEntityID(ctx context.Context, tx *gorm.DB, globalID uuid.UUID) ([]*types.MaterialEntityPromotion, error)
}

type materialEntityPromotionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialEntityPromotionRepo(db *gorm.DB, baseLog *logger.Logger) MaterialEntityPromotionRepo {
	return &materialEntityPromotionRepo{db: db, log: baseLog.With("repo", "MaterialEntityPromotionRepo")}
}

func (r *materialEntityPromotionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.MaterialEntityPromotion) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "material_entity_id"}},
		DoNothing: true,
	}).Create(row).Error
}

func (r *materialEntityPromotionRepo) GetByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.MaterialEntityPromotion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialEntityPromotion
	if err := t.WithContext(ctx).
		Where("material_entity_id = ?", entityID).
		Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *materialEntityPromotionRepo) GetByGlobalEntityID(ctx context.Context, tx *gorm.DB, globalID uuid.UUID) ([]*types.MaterialEntityPromotion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialEntityPromotion
	if err := t.WithContext(ctx).
		Where("global_entity_id = ?", globalID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
