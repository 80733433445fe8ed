package entity

import (
	"time"

	"github.com/google/uuid"
)

// HistoricalObject is a closed record for a (bucket, key, version_id) that
// was once current but has since been superseded. It is created exactly
// when an Object ceases to be current (§3 Lifecycles).
type HistoricalObject struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Bucket    string    `gorm:"type:varchar(255);not null;index:idx_historical_bucket_key" json:"bucket"`
	Key       string    `gorm:"type:varchar(1536);not null;index:idx_historical_bucket_key" json:"key"`
	VersionID string    `gorm:"type:varchar(255);not null;default:'null'" json:"version_id"`
	Created   time.Time `gorm:"not null" json:"created"`
	Deleted   time.Time `gorm:"not null;index" json:"deleted"`
	LineageID uuid.UUID `gorm:"type:uuid;not null;index" json:"lineage_id"`
	Ordering  *string   `gorm:"type:varchar(64)" json:"ordering"`

	Metadata   *S3Metadata  `gorm:"foreignKey:HistoricalObjectID" json:"metadata,omitempty"`
	Checksums  []Checksum   `gorm:"foreignKey:HistoricalObjectID" json:"checksums,omitempty"`
	Attributes []Attributes `gorm:"many2many:historical_object_attributes;joinForeignKey:HistoricalObjectID;joinReferences:AttributesID" json:"attributes,omitempty"`
}

func (HistoricalObject) TableName() string { return "historical_object" }
