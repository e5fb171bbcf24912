package materials

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// MaterialClaimConceptRepo links claims to the canonical concepts they are about.
type MaterialClaimConceptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.MaterialClaimConcept) ([]*types.MaterialClaimConcept, error)

	GetByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) ([]*types.MaterialClaimConcept, error)
	GetByConceptIDs(ctx context.Context, tx *gorm.DB, conceptIDs []uuid.UUID) ([]*types.MaterialClaimConcept, error)

	SoftDeleteByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) error
	FullDeleteByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) error
}

type materialClaimConceptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialClaimConceptRepo(db *gorm.DB, baseLog *logger.Logger) MaterialClaimConceptRepo {
	return &materialClaimConceptRepo{db: db, log: baseLog.With("repo", "MaterialClaimConceptRepo")}
}

func (r *materialClaimConceptRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.MaterialClaimConcept) ([]*types.MaterialClaimConcept, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.MaterialClaimConcept{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *materialClaimConceptRepo) GetByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) ([]*types.MaterialClaimConcept, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialClaimConcept
	if len(claimIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("material_claim_id IN ?", claimIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialClaimConceptRepo) GetByConceptIDs(ctx context.Context, tx *gorm.DB, conceptIDs []uuid.UUID) ([]*types.MaterialClaimConcept, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialClaimConcept
	if len(conceptIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("concept_id IN ?", conceptIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialClaimConceptRepo) SoftDeleteByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(claimIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("material_claim_id IN ?", claimIDs).Delete(&types.MaterialClaimConcept{}).Error
}

func (r *materialClaimConceptRepo) FullDeleteByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(claimIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Unscoped().Where("material_claim_id IN ?", claimIDs).Delete(&types.MaterialClaimConcept{}).Error
}
