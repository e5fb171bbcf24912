package materials

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MarkerStatus is the terminal state of a marker mention after tenant-rule
// normalization. Uncertain normalizations stay UNRESOLVED: normalization
// never invents semantics.
type MarkerStatus string

const (
	MarkerResolved    MarkerStatus = "resolved"
	MarkerUnresolved  MarkerStatus = "unresolved"
	MarkerBlacklisted MarkerStatus = "blacklisted"
)

// MarkerMention is a raw version/release/edition marker observed at a
// position in a document. Many mentions can resolve to one CanonicalMarker;
// the (rule_id, confidence) pair lives on the mention, recording which rule
// produced the link.
type MarkerMention struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;column:tenant_id;not null;index" json:"tenant_id"`

	MaterialFileID uuid.UUID `gorm:"type:uuid;column:material_file_id;not null;index;index:idx_marker_mention,unique,priority:1" json:"material_file_id"`

	RawText  string `gorm:"column:raw_text;type:text;not null;index:idx_marker_mention,unique,priority:2" json:"raw_text"`
	Position int    `gorm:"column:position;not null;default:0;index:idx_marker_mention,unique,priority:3" json:"position"`

	Status MarkerStatus `gorm:"column:status;type:text;not null;default:'unresolved';index" json:"status"`

	CanonicalMarkerID *uuid.UUID       `gorm:"type:uuid;column:canonical_marker_id;index" json:"canonical_marker_id,omitempty"`
	CanonicalMarker   *CanonicalMarker `gorm:"foreignKey:CanonicalMarkerID;references:ID" json:"canonical_marker,omitempty"`

	RuleID     string  `gorm:"column:rule_id;type:text" json:"rule_id,omitempty"`
	Confidence float64 `gorm:"column:confidence;not null;default:0" json:"confidence"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MarkerMention) TableName() string { return "marker_mention" }

// CanonicalMarker is the normalized form a group of mentions resolves to.
// CreatedBy records provenance: "alias:exact", "rule:<id>", or "manual".
type CanonicalMarker struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;column:tenant_id;not null;index;index:idx_canonical_marker,unique,priority:1" json:"tenant_id"`

	CanonicalForm string `gorm:"column:canonical_form;type:text;not null;index:idx_canonical_marker,unique,priority:2" json:"canonical_form"`
	EntityAnchor  string `gorm:"column:entity_anchor;type:text;not null;default:'';index:idx_canonical_marker,unique,priority:3" json:"entity_anchor"`

	MarkerType string  `gorm:"column:marker_type;type:text;not null;default:'version';index" json:"marker_type"`
	CreatedBy  string  `gorm:"column:created_by;type:text;not null;default:'manual'" json:"created_by"`
	Confidence float64 `gorm:"column:confidence;not null;default:0" json:"confidence"`

	Metadata datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CanonicalMarker) TableName() string { return "canonical_marker" }
