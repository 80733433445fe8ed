package entity

import (
	"time"

	"github.com/google/uuid"
)

// Object is the current-state row for a (bucket, key, version_id). At most
// one Object per (bucket, key, version_id) exists, and at most one Object
// per (bucket, key) across all its version rows has IsCurrentState=true.
type Object struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Bucket         string    `gorm:"type:varchar(255);not null;index:idx_object_bucket_key;uniqueIndex:idx_object_version" json:"bucket"`
	Key            string    `gorm:"type:varchar(1536);not null;index:idx_object_bucket_key;uniqueIndex:idx_object_version" json:"key"`
	VersionID      string    `gorm:"type:varchar(255);not null;default:'null';uniqueIndex:idx_object_version" json:"version_id"`
	Created        time.Time `gorm:"not null" json:"created"`
	LineageID      uuid.UUID `gorm:"type:uuid;not null;index" json:"lineage_id"`
	Ordering       *string   `gorm:"type:varchar(64)" json:"ordering"`
	IsCurrentState bool      `gorm:"not null;default:false;index" json:"is_current_state"`

	Metadata   *S3Metadata  `gorm:"foreignKey:ObjectID" json:"metadata,omitempty"`
	Checksums  []Checksum   `gorm:"foreignKey:ObjectID" json:"checksums,omitempty"`
	Attributes []Attributes `gorm:"many2many:object_attributes;joinForeignKey:ObjectID;joinReferences:AttributesID" json:"attributes,omitempty"`
}

func (Object) TableName() string { return "object" }

// ToHistorical closes out this Object into a HistoricalObject, carrying
// forward ownership of its metadata, checksums, and attribute links. The
// caller is responsible for persisting the metadata/checksum FK rewrite;
// this only builds the HistoricalObject shell.
func (o *Object) ToHistorical(deleted time.Time) *HistoricalObject {
	return &HistoricalObject{
		ID:        o.ID,
		Bucket:    o.Bucket,
		Key:       o.Key,
		VersionID: o.VersionID,
		Created:   o.Created,
		Deleted:   deleted,
		LineageID: o.LineageID,
		Ordering:  o.Ordering,
	}
}
