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

// GlobalConceptCoverageRepo aggregates per-user, cross-set concept coverage
// rolled up from MaterialSetConceptCoverage rows.
type GlobalConceptCoverageRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.GlobalConceptCoverage) ([]*types.GlobalConceptCoverage, error)

	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.GlobalConceptCoverage, error)
	GetByUserAndConceptIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, conceptIDs []uuid.UUID) ([]*types.GlobalConceptCoverage, error)

	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error

	SoftDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type globalConceptCoverageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGlobalConceptCoverageRepo(db *gorm.DB, baseLog *logger.Logger) GlobalConceptCoverageRepo {
	return &globalConceptCoverageRepo{db: db, log: baseLog.With("repo", "GlobalConceptCoverageRepo")}
}

func (r *globalConceptCoverageRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.GlobalConceptCoverage) ([]*types.GlobalConceptCoverage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.GlobalConceptCoverage{}, nil
	}
	err := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "global_concept_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"material_set_ids", "coverage_depth", "exposure_score", "cross_set_relevance", "metadata", "updated_at",
		}),
	}).Create(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *globalConceptCoverageRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.GlobalConceptCoverage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.GlobalConceptCoverage
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("cross_set_relevance DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *globalConceptCoverageRepo) GetByUserAndConceptIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, conceptIDs []uuid.UUID) ([]*types.GlobalConceptCoverage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.GlobalConceptCoverage
	if userID == uuid.Nil || len(conceptIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("user_id = ? AND global_concept_id IN ?", userID, conceptIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *globalConceptCoverageRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.GlobalConceptCoverage{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *globalConceptCoverageRepo) SoftDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).Where("user_id = ?", userID).Delete(&types.GlobalConceptCoverage{}).Error
}

func (r *globalConceptCoverageRepo) FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).Unscoped().Where("user_id = ?", userID).Delete(&types.GlobalConceptCoverage{}).Error
}
