package materials

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// OntologyRepo reads and seeds the tenant ontology the canonicalizer
// consults before falling back to the LLM. Lookup is by normalized surface
// form, optionally filtered by entity type.
type OntologyRepo interface {
	UpsertEntities(ctx context.Context, tx *gorm.DB, rows []*types.OntologyEntity) ([]*types.OntologyEntity, error)
	UpsertAliases(ctx context.Context, tx *gorm.DB, rows []*types.OntologyAlias) ([]*types.OntologyAlias, error)

	GetEntityByEntityID(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, entityID string) (*types.OntologyEntity, error)
	// LookupAlias resolves a normalized surface form. entityType == ""
	// matches any type; when multiple types match, the first by entity_type
	// sort order wins so repeat lookups stay deterministic.
	LookupAlias(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, normalized, entityType string) (*types.OntologyAlias, error)
}

type ontologyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOntologyRepo(db *gorm.DB, baseLog *logger.Logger) OntologyRepo {
	return &ontologyRepo{db: db, log: baseLog.With("repo", "OntologyRepo")}
}

func (r *ontologyRepo) UpsertEntities(ctx context.Context, tx *gorm.DB, rows []*types.OntologyEntity) ([]*types.OntologyEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.OntologyEntity{}, nil
	}
	for _, row := range rows {
		if len(row.Metadata) == 0 {
			row.Metadata = datatypes.JSON(`{}`)
		}
	}
	if err := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"canonical_name", "entity_type", "metadata", "updated_at"}),
	}).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ontologyRepo) UpsertAliases(ctx context.Context, tx *gorm.DB, rows []*types.OntologyAlias) ([]*types.OntologyAlias, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.OntologyAlias{}, nil
	}
	for _, row := range rows {
		row.Normalized = strings.ToLower(strings.TrimSpace(row.Normalized))
	}
	if err := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "normalized"}, {Name: "entity_type"}, {Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"entity_id", "updated_at"}),
	}).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ontologyRepo) GetEntityByEntityID(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, entityID string) (*types.OntologyEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if entityID == "" {
		return nil, nil
	}
	var out []*types.OntologyEntity
	if err := t.WithContext(ctx).
		Where("tenant_id = ? AND entity_id = ?", tenantID, entityID).
		Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *ontologyRepo) LookupAlias(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, normalized, entityType string) (*types.OntologyAlias, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	normalized = strings.ToLower(strings.TrimSpace(normalized))
	if normalized == "" {
		return nil, nil
	}
	q := t.WithContext(ctx).Where("tenant_id = ? AND normalized = ?", tenantID, normalized)
	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}
	var out []*types.OntologyAlias
	if err := q.Order("entity_type ASC").Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
