package materials

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// MarkerRepo persists marker mentions and the canonical markers they
// resolve to. EnsureCanonical is the many-mentions-to-one-canonical path:
// an existing (tenant, canonical_form, entity_anchor) row is reused, never
// duplicated.
type MarkerRepo interface {
	UpsertMentions(ctx context.Context, tx *gorm.DB, rows []*types.MarkerMention) ([]*types.MarkerMention, error)
	GetMentionsByFileID(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) ([]*types.MarkerMention, error)
	GetMentionsByStatus(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, status types.MarkerStatus, limit int) ([]*types.MarkerMention, error)

	EnsureCanonical(ctx context.Context, tx *gorm.DB, row *types.CanonicalMarker) (*types.CanonicalMarker, error)
	GetCanonicalByForm(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, canonicalForm, entityAnchor string) (*types.CanonicalMarker, error)
	GetCanonicalByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CanonicalMarker, error)
}

type markerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMarkerRepo(db *gorm.DB, baseLog *logger.Logger) MarkerRepo {
	return &markerRepo{db: db, log: baseLog.With("repo", "MarkerRepo")}
}

func (r *markerRepo) UpsertMentions(ctx context.Context, tx *gorm.DB, rows []*types.MarkerMention) ([]*types.MarkerMention, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.MarkerMention{}, nil
	}
	if err := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "material_file_id"}, {Name: "raw_text"}, {Name: "position"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "canonical_marker_id", "rule_id", "confidence", "updated_at"}),
	}).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *markerRepo) GetMentionsByFileID(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) ([]*types.MarkerMention, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MarkerMention
	if err := t.WithContext(ctx).
		Where("material_file_id = ?", fileID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *markerRepo) GetMentionsByStatus(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, status types.MarkerStatus, limit int) ([]*types.MarkerMention, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 100
	}
	var out []*types.MarkerMention
	if err := t.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, status).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *markerRepo) EnsureCanonical(ctx context.Context, tx *gorm.DB, row *types.CanonicalMarker) (*types.CanonicalMarker, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil, nil
	}
	if len(row.Metadata) == 0 {
		row.Metadata = datatypes.JSON(`{}`)
	}
	existing, err := r.GetCanonicalByForm(ctx, t, row.TenantID, row.CanonicalForm, row.EntityAnchor)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// Keep the highest confidence seen for the canonical.
		if row.Confidence > existing.Confidence {
			if err := t.WithContext(ctx).Model(existing).
				Updates(map[string]interface{}{"confidence": row.Confidence, "updated_at": time.Now().UTC()}).Error; err != nil {
				return nil, err
			}
			existing.Confidence = row.Confidence
		}
		return existing, nil
	}
	if err := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "canonical_form"}, {Name: "entity_anchor"}},
		DoNothing: true,
	}).Create(row).Error; err != nil {
		return nil, err
	}
	// A concurrent writer may have won the insert race; re-read to get the
	// surviving row's id.
	return r.GetCanonicalByForm(ctx, t, row.TenantID, row.CanonicalForm, row.EntityAnchor)
}

func (r *markerRepo) GetCanonicalByForm(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, canonicalForm, entityAnchor string) (*types.CanonicalMarker, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if canonicalForm == "" {
		return nil, nil
	}
	var out []*types.CanonicalMarker
	if err := t.WithContext(ctx).
		Where("tenant_id = ? AND canonical_form = ? AND entity_anchor = ?", tenantID, canonicalForm, entityAnchor).
		Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *markerRepo) GetCanonicalByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CanonicalMarker, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CanonicalMarker
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
