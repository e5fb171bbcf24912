package materials

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// MaterialChunkClaimRepo stores the evidence links from claims to the
// chunks they were extracted from. Upsert is keyed on (chunk, claim) so
// re-extraction never duplicates an evidence edge.
type MaterialChunkClaimRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.MaterialChunkClaim) ([]*types.MaterialChunkClaim, error)

	GetByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) ([]*types.MaterialChunkClaim, error)
	GetByChunkIDs(ctx context.Context, tx *gorm.DB, chunkIDs []uuid.UUID) ([]*types.MaterialChunkClaim, error)
}

type materialChunkClaimRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialChunkClaimRepo(db *gorm.DB, baseLog *logger.Logger) MaterialChunkClaimRepo {
	return &materialChunkClaimRepo{db: db, log: baseLog.With("repo", "MaterialChunkClaimRepo")}
}

func (r *materialChunkClaimRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.MaterialChunkClaim) ([]*types.MaterialChunkClaim, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.MaterialChunkClaim{}, nil
	}
	if err := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "material_chunk_id"}, {Name: "material_claim_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"relation", "weight", "updated_at"}),
	}).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *materialChunkClaimRepo) GetByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) ([]*types.MaterialChunkClaim, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialChunkClaim
	if len(claimIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("material_claim_id IN ?", claimIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialChunkClaimRepo) GetByChunkIDs(ctx context.Context, tx *gorm.DB, chunkIDs []uuid.UUID) ([]*types.MaterialChunkClaim, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialChunkClaim
	if len(chunkIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("material_chunk_id IN ?", chunkIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
