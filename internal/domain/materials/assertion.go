package materials

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Polarity is the stance a document takes on a concept in an assertion.
type Polarity string

const (
	PolarityAffirmed Polarity = "affirmed"
	PolarityNegated  Polarity = "negated"
	PolarityHedged   Polarity = "hedged"
	PolarityAbsent   Polarity = "absent"
	PolarityUnknown  Polarity = "unknown"
)

// AssertionScope records whether an assertion holds generally or only under
// the applicability contexts named by its markers.
type AssertionScope string

const (
	ScopeGeneral     AssertionScope = "general"
	ScopeConstrained AssertionScope = "constrained"
	ScopeUnknown     AssertionScope = "unknown"
)

// Assertion is the attachment every proto-concept-to-document extraction
// carries: polarity, scope, the markers it is parameterized by, and the
// evidence chunks backing it.
type Assertion struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;column:tenant_id;not null;index" json:"tenant_id"`

	MaterialEntityID uuid.UUID       `gorm:"type:uuid;column:material_entity_id;not null;index;index:idx_assertion,unique,priority:1" json:"material_entity_id"`
	MaterialEntity   *MaterialEntity `gorm:"constraint:OnDelete:CASCADE;foreignKey:MaterialEntityID;references:ID" json:"material_entity,omitempty"`

	MaterialFileID uuid.UUID `gorm:"type:uuid;column:material_file_id;not null;index;index:idx_assertion,unique,priority:2" json:"material_file_id"`

	// CanonicalConceptID is filled once the proto has been promoted, so
	// polarity/scope queries can group by canonical identity.
	CanonicalConceptID *uuid.UUID `gorm:"type:uuid;column:canonical_concept_id;index" json:"canonical_concept_id,omitempty"`

	Polarity Polarity       `gorm:"column:polarity;type:text;not null;default:'unknown';index" json:"polarity"`
	Scope    AssertionScope `gorm:"column:scope;type:text;not null;default:'unknown';index" json:"scope"`

	// Markers holds the canonical marker forms this assertion is scoped by.
	Markers    datatypes.JSON `gorm:"column:markers;type:jsonb;not null;default:'[]'" json:"markers"`
	Confidence float64        `gorm:"column:confidence;not null;default:0" json:"confidence"`
	Evidence   datatypes.JSON `gorm:"column:evidence;type:jsonb;not null;default:'[]'" json:"evidence"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Assertion) TableName() string { return "assertion" }
