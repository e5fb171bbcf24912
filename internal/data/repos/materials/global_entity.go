package materials

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// GlobalEntityRepo stores canonical concepts. Mutation is append-only by
// convention: callers should route growth of ChunkIDs/DocumentIDs/Support
// through UpdateFields rather than re-Save-ing a stale in-memory copy.
type GlobalEntityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.GlobalEntity) ([]*types.GlobalEntity, error)

	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.GlobalEntity, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.GlobalEntity, error)
	GetByTenantAndKeys(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, keys []string) ([]*types.GlobalEntity, error)
	GetByTenantAndKey(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, key string) (*types.GlobalEntity, error)
	SearchByCanonicalName(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, conceptType string, nameLike string, limit int) ([]*types.GlobalEntity, error)

	Update(ctx context.Context, tx *gorm.DB, row *types.GlobalEntity) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error

	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type globalEntityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGlobalEntityRepo(db *gorm.DB, baseLog *logger.Logger) GlobalEntityRepo {
	return &globalEntityRepo{db: db, log: baseLog.With("repo", "GlobalEntityRepo")}
}

func (r *globalEntityRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.GlobalEntity) ([]*types.GlobalEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.GlobalEntity{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *globalEntityRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.GlobalEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.GlobalEntity
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *globalEntityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.GlobalEntity, error) {
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

func (r *globalEntityRepo) GetByTenantAndKeys(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, keys []string) ([]*types.GlobalEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.GlobalEntity
	if len(keys) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("tenant_id = ? AND key IN ?", tenantID, keys).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *globalEntityRepo) GetByTenantAndKey(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, key string) (*types.GlobalEntity, error) {
	if key == "" {
		return nil, nil
	}
	rows, err := r.GetByTenantAndKeys(ctx, tx, tenantID, []string{key})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *globalEntityRepo) SearchByCanonicalName(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, conceptType string, nameLike string, limit int) ([]*types.GlobalEntity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 20
	}
	q := t.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if conceptType != "" {
		q = q.Where("concept_type = ?", conceptType)
	}
	if nameLike != "" {
		q = q.Where("canonical_name ILIKE ?", "%"+nameLike+"%")
	}
	var out []*types.GlobalEntity
	if err := q.Order("quality_score DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *globalEntityRepo) Update(ctx context.Context, tx *gorm.DB, row *types.GlobalEntity) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *globalEntityRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.GlobalEntity{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *globalEntityRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.GlobalEntity{}).Error
}

func (r *globalEntityRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Unscoped().Where("id IN ?", ids).Delete(&types.GlobalEntity{}).Error
}
