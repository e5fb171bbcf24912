package materials

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MaterialChunk struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MaterialFileID uuid.UUID     `gorm:"type:uuid;not null;index" json:"material_file_id"`
	MaterialFile   *MaterialFile `gorm:"constraint:OnDelete:CASCADE;foreignKey:MaterialFileID;references:ID" json:"material_file,omitempty"`

	Index     int            `gorm:"column:index;not null" json:"index"`
	Text      string         `gorm:"column:text;type:text;not null" json:"text"`
	Embedding datatypes.JSON `gorm:"type:jsonb;column:embedding" json:"embedding"`

	// queryable provenance
	Kind       string   `gorm:"column:kind;index" json:"kind,omitempty"` // narrative|figure_text|table_text|heading
	Provider   string   `gorm:"column:provider;index" json:"provider,omitempty"`
	Page       *int     `gorm:"column:page;index" json:"page,omitempty"`
	StartSec   *float64 `gorm:"column:start_sec;index" json:"start_sec,omitempty"`
	EndSec     *float64 `gorm:"column:end_sec;index" json:"end_sec,omitempty"`
	SpeakerTag *int     `gorm:"column:speaker_tag;index" json:"speaker_tag,omitempty"`
	Confidence *float64 `gorm:"column:confidence" json:"confidence,omitempty"`
	AssetKey   string   `gorm:"column:asset_key;index" json:"asset_key,omitempty"`

	// layout-aware chunking: section mapping and atomic-region tracking
	SectionID           *uuid.UUID     `gorm:"type:uuid;column:section_id;index" json:"section_id,omitempty"`
	ItemIDs             datatypes.JSON `gorm:"type:jsonb;column:item_ids" json:"item_ids,omitempty"`
	IsRelationBearing   bool           `gorm:"column:is_relation_bearing;not null;default:false;index" json:"is_relation_bearing"`
	IsAtomic            bool           `gorm:"column:is_atomic;not null;default:false;index" json:"is_atomic"`
	RegionType          string         `gorm:"column:region_type;index" json:"region_type,omitempty"` // table|figure|narrative
	SegmentOverlapChars int            `gorm:"column:segment_overlap_chars" json:"segment_overlap_chars,omitempty"`
	ParseConfidence     *float64       `gorm:"column:parse_confidence" json:"parse_confidence,omitempty"`
	ConfidenceSignals   datatypes.JSON `gorm:"type:jsonb;column:confidence_signals" json:"confidence_signals,omitempty"`

	// still keep for extras
	Metadata datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MaterialChunk) TableName() string { return "material_chunk" }
