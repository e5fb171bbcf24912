package materials

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ClaimFormKind tags which variant of ClaimForm a MaterialClaim carries.
// Exactly one of the per-kind value fields on MaterialClaim is meaningful
// for a given Kind; the rest stay at their zero value.
type ClaimFormKind string

const (
	ClaimFormNumeric ClaimFormKind = "numeric"
	ClaimFormRange   ClaimFormKind = "range"
	ClaimFormEnum    ClaimFormKind = "enum"
	ClaimFormBoolean ClaimFormKind = "boolean"
	ClaimFormText    ClaimFormKind = "text" // fallback; compared via LLM, never structurally
)

type ClaimAuthority string

const (
	AuthorityHigh   ClaimAuthority = "HIGH"
	AuthorityMedium ClaimAuthority = "MEDIUM"
	AuthorityLow    ClaimAuthority = "LOW"
)

// MaterialClaim is an atomic, grounded statement extracted from a document.
// Claims are referenced by evidence chunks and can be linked to entities/concepts.
type MaterialClaim struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	TenantID uuid.UUID `gorm:"type:uuid;column:tenant_id;not null;index" json:"tenant_id"`

	MaterialSetID  uuid.UUID    `gorm:"type:uuid;not null;index;index:idx_material_claim_set_key,unique,priority:1" json:"material_set_id"`
	MaterialSet    *MaterialSet `gorm:"constraint:OnDelete:CASCADE;foreignKey:MaterialSetID;references:ID" json:"material_set,omitempty"`
	MaterialFileID uuid.UUID    `gorm:"type:uuid;column:material_file_id;not null;index" json:"material_file_id"`

	// Key is a stable normalized identifier (e.g., a content hash) used for idempotent upserts.
	Key string `gorm:"type:text;not null;index:idx_material_claim_set_key,unique,priority:2" json:"key"`

	Kind          string  `gorm:"type:text;not null;default:'claim';index" json:"kind"` // claim_type
	Content       string  `gorm:"type:text;not null" json:"content"`                     // text
	VerbatimQuote string  `gorm:"column:verbatim_quote;type:text" json:"verbatim_quote,omitempty"`
	Confidence    float64 `gorm:"not null;default:0.7" json:"confidence"`

	// ClaimForm: tagged variant, exhaustively matched on FormKind by the comparison engine.
	FormKind    ClaimFormKind  `gorm:"column:form_kind;type:text;not null;default:'text';index" json:"form_kind"`
	NumericUnit string         `gorm:"column:numeric_unit;type:text" json:"numeric_unit,omitempty"`
	NumericValue *float64      `gorm:"column:numeric_value" json:"numeric_value,omitempty"`
	RangeLow     *float64      `gorm:"column:range_low" json:"range_low,omitempty"`
	RangeHigh    *float64      `gorm:"column:range_high" json:"range_high,omitempty"`
	EnumValues   datatypes.JSON `gorm:"column:enum_values;type:jsonb" json:"enum_values,omitempty"`
	BoolValue    *bool          `gorm:"column:bool_value" json:"bool_value,omitempty"`
	TextValue    string         `gorm:"column:text_value;type:text" json:"text_value,omitempty"`

	Authority     ClaimAuthority `gorm:"column:authority;type:text;not null;default:'MEDIUM'" json:"authority"`
	TruthRegime   string         `gorm:"column:truth_regime;type:text" json:"truth_regime,omitempty"`
	HedgeStrength float64        `gorm:"column:hedge_strength;not null;default:0" json:"hedge_strength"`
	ScopeDims     datatypes.JSON `gorm:"column:scope_dims;type:jsonb" json:"scope_dims,omitempty"`

	Metadata datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MaterialClaim) TableName() string { return "material_claim" }
