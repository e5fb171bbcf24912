package materials

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaterialEntity is a proto-concept: a raw, document-local extraction of a
// concept mention before it has been resolved to a canonical identity. It is
// immutable once created; canonicalization links it to a GlobalEntity via
// MaterialClaimConcept-style join rows, never by mutating this row's identity.
type MaterialEntity struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	TenantID uuid.UUID `gorm:"type:uuid;column:tenant_id;not null;index" json:"tenant_id"`

	MaterialSetID  *uuid.UUID   `gorm:"type:uuid;index" json:"material_set_id,omitempty"`
	MaterialSet    *MaterialSet `gorm:"constraint:OnDelete:CASCADE;foreignKey:MaterialSetID;references:ID" json:"material_set,omitempty"`
	MaterialFileID uuid.UUID    `gorm:"type:uuid;column:material_file_id;not null;index;index:idx_material_entity_file_key,unique,priority:1" json:"material_file_id"`

	SegmentID *uuid.UUID `gorm:"type:uuid;column:segment_id;index" json:"segment_id,omitempty"`

	// Key is a stable normalized identifier (e.g., lowercased name) used for idempotent upserts.
	Key string `gorm:"type:text;not null;index:idx_material_entity_file_key,unique,priority:2" json:"key"`

	ConceptName      string         `gorm:"column:concept_name;type:text;not null;index" json:"concept_name"`
	ConceptType      string         `gorm:"column:concept_type;type:text;not null;default:'unknown';index" json:"concept_type"`
	ExtractionMethod string         `gorm:"column:extraction_method;type:text;not null;default:'heuristic'" json:"extraction_method"`
	Confidence       float64        `gorm:"column:confidence;not null;default:0" json:"confidence"`
	Description      string         `gorm:"type:text;not null;default:''" json:"description"`
	Aliases          datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"aliases"`
	ChunkIDs         datatypes.JSON `gorm:"column:chunk_ids;type:jsonb;not null;default:'[]'" json:"chunk_ids"`
	Metadata         datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MaterialEntity) TableName() string { return "material_entity" }

