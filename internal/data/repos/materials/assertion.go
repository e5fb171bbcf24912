package materials

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// AssertionRepo persists the polarity/scope attachment each proto-concept
// extraction carries. Upsert is keyed on (material_entity_id,
// material_file_id) so re-running extraction for a document is idempotent.
type AssertionRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Assertion) ([]*types.Assertion, error)

	GetByFileID(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) ([]*types.Assertion, error)
	GetByCanonicalConceptIDs(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, conceptIDs []uuid.UUID) ([]*types.Assertion, error)
	GetByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.Assertion, error)

	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	FullDeleteByFileID(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) error
}

type assertionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssertionRepo(db *gorm.DB, baseLog *logger.Logger) AssertionRepo {
	return &assertionRepo{db: db, log: baseLog.With("repo", "AssertionRepo")}
}

func (r *assertionRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Assertion) ([]*types.Assertion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Assertion{}, nil
	}
	for _, row := range rows {
		if len(row.Markers) == 0 {
			row.Markers = datatypes.JSON(`[]`)
		}
		if len(row.Evidence) == 0 {
			row.Evidence = datatypes.JSON(`[]`)
		}
		if row.Polarity == "" {
			row.Polarity = types.PolarityUnknown
		}
		if row.Scope == "" {
			row.Scope = types.ScopeUnknown
		}
	}
	if err := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "material_entity_id"}, {Name: "material_file_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"canonical_concept_id", "polarity", "scope", "markers", "confidence", "evidence", "updated_at"}),
	}).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *assertionRepo) GetByFileID(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) ([]*types.Assertion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Assertion
	if err := t.WithContext(ctx).Where("material_file_id = ?", fileID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assertionRepo) GetByCanonicalConceptIDs(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, conceptIDs []uuid.UUID) ([]*types.Assertion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Assertion
	if len(conceptIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("tenant_id = ? AND canonical_concept_id IN ?", tenantID, conceptIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assertionRepo) GetByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.Assertion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Assertion
	if err := t.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assertionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Model(&types.Assertion{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *assertionRepo) FullDeleteByFileID(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Unscoped().Where("material_file_id = ?", fileID).Delete(&types.Assertion{}).Error
}
