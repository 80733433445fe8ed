package entity

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Attributes is an N:M JSON payload that may be shared across several
// Object/HistoricalObject rows — identical payloads are not duplicated,
// they are linked by content.
type Attributes struct {
	ID      uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Payload datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
}

func (Attributes) TableName() string { return "attributes" }

// ObjectAttributes is the link table between Object and Attributes.
type ObjectAttributes struct {
	ObjectID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	AttributesID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (ObjectAttributes) TableName() string { return "object_attributes" }

// HistoricalObjectAttributes is the link table between HistoricalObject
// and Attributes.
type HistoricalObjectAttributes struct {
	HistoricalObjectID uuid.UUID `gorm:"type:uuid;primaryKey"`
	AttributesID       uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (HistoricalObjectAttributes) TableName() string { return "historical_object_attributes" }
