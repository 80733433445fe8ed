package entity

import "github.com/google/uuid"

// Checksum is N:1 with an Object or a HistoricalObject (never both). The
// owner plus name is unique, and SetChecksum's upsert on that pair
// replaces the value.
type Checksum struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ObjectID           *uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_checksum_object_name" json:"object_id,omitempty"`
	HistoricalObjectID *uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_checksum_historical_name" json:"historical_object_id,omitempty"`
	Name               string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_checksum_object_name;uniqueIndex:idx_checksum_historical_name" json:"name"`
	Value              string     `gorm:"type:varchar(512);not null" json:"value"`
}

func (Checksum) TableName() string { return "checksum" }
