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

// MaterialSetConceptCoverageRepo stores COVERS edges between a material set
// and the concepts it mentions. Upsert is keyed on (material_set_id, concept_key)
// so re-running the coverage builder for a set is idempotent.
type MaterialSetConceptCoverageRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.MaterialSetConceptCoverage) ([]*types.MaterialSetConceptCoverage, error)

	GetByMaterialSetID(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID) ([]*types.MaterialSetConceptCoverage, error)
	GetByConceptKeys(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID, conceptKeys []string) ([]*types.MaterialSetConceptCoverage, error)
	GetByCanonicalConceptID(ctx context.Context, tx *gorm.DB, conceptID uuid.UUID) ([]*types.MaterialSetConceptCoverage, error)

	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error

	SoftDeleteByMaterialSetID(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID) error
	FullDeleteByMaterialSetID(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID) error
}

type materialSetConceptCoverageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialSetConceptCoverageRepo(db *gorm.DB, baseLog *logger.Logger) MaterialSetConceptCoverageRepo {
	return &materialSetConceptCoverageRepo{db: db, log: baseLog.With("repo", "MaterialSetConceptCoverageRepo")}
}

func (r *materialSetConceptCoverageRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.MaterialSetConceptCoverage) ([]*types.MaterialSetConceptCoverage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.MaterialSetConceptCoverage{}, nil
	}
	err := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "material_set_id"}, {Name: "concept_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"canonical_concept_id", "coverage_type", "depth", "score",
			"salience", "mention_count", "method", "version",
			"source_material_file_ids", "metadata", "updated_at",
		}),
	}).Create(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *materialSetConceptCoverageRepo) GetByMaterialSetID(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID) ([]*types.MaterialSetConceptCoverage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialSetConceptCoverage
	if materialSetID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("material_set_id = ?", materialSetID).
		Order("salience DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialSetConceptCoverageRepo) GetByConceptKeys(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID, conceptKeys []string) ([]*types.MaterialSetConceptCoverage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialSetConceptCoverage
	if materialSetID == uuid.Nil || len(conceptKeys) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("material_set_id = ? AND concept_key IN ?", materialSetID, conceptKeys).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialSetConceptCoverageRepo) GetByCanonicalConceptID(ctx context.Context, tx *gorm.DB, conceptID uuid.UUID) ([]*types.MaterialSetConceptCoverage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialSetConceptCoverage
	if conceptID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("canonical_concept_id = ?", conceptID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialSetConceptCoverageRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.MaterialSetConceptCoverage{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *materialSetConceptCoverageRepo) SoftDeleteByMaterialSetID(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if materialSetID == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).Where("material_set_id = ?", materialSetID).Delete(&types.MaterialSetConceptCoverage{}).Error
}

func (r *materialSetConceptCoverageRepo) FullDeleteByMaterialSetID(ctx context.Context, tx *gorm.DB, materialSetID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if materialSetID == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).Unscoped().Where("material_set_id = ?", materialSetID).Delete(&types.MaterialSetConceptCoverage{}).Error
}
