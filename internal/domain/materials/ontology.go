package materials

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OntologyEntity is a cataloged canonical identity loaded from a tenant's
// ontology. It is the fast path of canonicalization: a surface form that
// resolves through an alias never reaches the LLM. Ontology rows survive
// every purge operation.
type OntologyEntity struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;column:tenant_id;not null;index" json:"tenant_id"`

	// EntityID is the tenant-supplied stable identifier, unique globally.
	EntityID      string `gorm:"column:entity_id;type:text;not null;uniqueIndex" json:"entity_id"`
	CanonicalName string `gorm:"column:canonical_name;type:text;not null;index" json:"canonical_name"`
	EntityType    string `gorm:"column:entity_type;type:text;not null;default:'unknown';index" json:"entity_type"`

	Metadata datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (OntologyEntity) TableName() string { return "ontology_entity" }

// OntologyAlias maps a normalized surface form to an OntologyEntity. The
// (normalized, entity_type, tenant_id) triple is unique so a lookup with a
// type hint can hit at most one row; lookups without the hint scan all
// types for the normalized form.
type OntologyAlias struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;column:tenant_id;not null;index;index:idx_ontology_alias,unique,priority:3" json:"tenant_id"`

	EntityID string `gorm:"column:entity_id;type:text;not null;index" json:"entity_id"`

	// Normalized is the lowercased, trimmed surface form.
	Normalized string `gorm:"column:normalized;type:text;not null;index:idx_ontology_alias,unique,priority:1" json:"normalized"`
	EntityType string `gorm:"column:entity_type;type:text;not null;default:'unknown';index:idx_ontology_alias,unique,priority:2" json:"entity_type"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (OntologyAlias) TableName() string { return "ontology_alias" }
