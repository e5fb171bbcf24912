package materials

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GlobalEntity is the canonical, tenant-deduplicated identity a MaterialEntity
// (proto-concept) is promoted to. Mutation is append-only: ChunkIDs and
// DocumentIDs only ever grow, Support only ever increments.
type GlobalEntity struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;column:tenant_id;not null;index:idx_global_entity_tenant_key,unique,priority:1;index" json:"tenant_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Key           string         `gorm:"type:text;not null;index:idx_global_entity_tenant_key,unique,priority:2" json:"key"`
	CanonicalName string         `gorm:"column:canonical_name;type:text;not null;index" json:"canonical_name"`
	SurfaceForm   string         `gorm:"column:surface_form;type:text" json:"surface_form,omitempty"`
	ConceptType   string         `gorm:"column:concept_type;type:text;not null;default:'unknown';index" json:"concept_type"`
	Description   string         `gorm:"type:text;not null;default:''" json:"description"`
	Aliases       datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"aliases"`
	Embedding     datatypes.JSON `gorm:"type:jsonb" json:"embedding,omitempty"`
	Metadata      datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`

	QualityScore  float64        `gorm:"column:quality_score;not null;default:0;index" json:"quality_score"`
	ChunkIDs      datatypes.JSON `gorm:"column:chunk_ids;type:jsonb;not null;default:'[]'" json:"chunk_ids"`
	DocumentIDs   datatypes.JSON `gorm:"column:document_ids;type:jsonb;not null;default:'[]'" json:"document_ids"`
	Support       int            `gorm:"column:support;not null;default:0" json:"support"`
	PromotedAt    *time.Time     `gorm:"column:promoted_at" json:"promoted_at,omitempty"`
	DecisionTrace datatypes.JSON `gorm:"column:decision_trace;type:jsonb" json:"decision_trace,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GlobalEntity) TableName() string { return "global_entity" }
