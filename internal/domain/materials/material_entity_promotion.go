package materials

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaterialEntityPromotion is the PROMOTED_TO link from a proto-concept to
// its canonical identity. One-to-one from the proto side: the unique index
// on material_entity_id makes a second promotion of the same proto a
// conflict, not a second row.
type MaterialEntityPromotion struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	MaterialEntityID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"material_entity_id"`
	MaterialEntity   *MaterialEntity `gorm:"constraint:OnDelete:CASCADE;foreignKey:MaterialEntityID;references:ID" json:"material_entity,omitempty"`

	GlobalEntityID uuid.UUID     `gorm:"type:uuid;not null;index" json:"global_entity_id"`
	GlobalEntity   *GlobalEntity `gorm:"constraint:OnDelete:CASCADE;foreignKey:GlobalEntityID;references:ID" json:"global_entity,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MaterialEntityPromotion) TableName() string { return "material_entity_promotion" }
