package materials

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// MaterialClaimEntityRepo links claims to the proto-concepts (pre-canonicalization)
// they are about, used before a MaterialEntity has been promoted to a GlobalEntity.
type MaterialClaimEntityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.MaterialClaimEntity) ([]*types.MaterialClaimEntity, error)

	GetByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) ([]*types.MaterialClaimEntity, error)
	GetByMaterialEntityIDs(ctx context.Context, tx *gorm.DB, entityIDs []uuid.UUID) ([]*types.MaterialClaimEntity, error)

	SoftDeleteByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) error
	FullDeleteByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) error
}

type materialClaimEntityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialClaimEntityRepo(db *gorm.DB, baseLog *logger.Logger) MaterialClaimEntityRepo {
	return &materialClaimEntityRepo{db: db, log: baseLog.With("repo", "MaterialClaimEntityRepo")}
}

func (r *materialClaimEntityRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.MaterialClaimEntity) ([]*types.MaterialClaimEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.MaterialClaimEntity{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *materialClaimEntityRepo) GetByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) ([]*types.MaterialClaimEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialClaimEntity
	if len(claimIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("material_claim_id IN ?", claimIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialClaimEntityRepo) GetByMaterialEntityIDs(ctx context.Context, tx *gorm.DB, entityIDs []uuid.UUID) ([]*types.MaterialClaimEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialClaimEntity
	if len(entityIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("material_entity_id IN ?", entityIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialClaimEntityRepo) SoftDeleteByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(claimIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("material_claim_id IN ?", claimIDs).Delete(&types.MaterialClaimEntity{}).Error
}

func (r *materialClaimEntityRepo) FullDeleteByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(claimIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Unscoped().Where("material_claim_id IN ?", claimIDs).Delete(&types.MaterialClaimEntity{}).Error
}
