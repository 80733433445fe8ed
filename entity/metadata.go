package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StorageClass holds a storage class as the object store reports it (e.g.
// "GLACIER", "DEEP_ARCHIVE"); the constants below name the same classes in
// CamelCase, and IsAccessible matches either spelling, ignoring case and
// underscores. A nil
// *StorageClass means "unknown" per §3, which is treated as accessible —
// absence of information is not the same as unavailability.
type StorageClass string

const (
	StorageClassStandard           StorageClass = "Standard"
	StorageClassStandardIa         StorageClass = "StandardIa"
	StorageClassOnezoneIa          StorageClass = "OnezoneIa"
	StorageClassIntelligentTiering StorageClass = "IntelligentTiering"
	StorageClassGlacier            StorageClass = "Glacier"
	StorageClassGlacierIr          StorageClass = "GlacierIr"
	StorageClassDeepArchive        StorageClass = "DeepArchive"
	StorageClassOutposts           StorageClass = "Outposts"
	StorageClassReducedRedundancy  StorageClass = "ReducedRedundancy"
	StorageClassSnow               StorageClass = "Snow"
)

// ArchiveStatus mirrors the two archive-access states the store reports
// for objects restored out of intelligent-tiering archive access tiers.
type ArchiveStatus string

const (
	ArchiveAccess     ArchiveStatus = "ArchiveAccess"
	DeepArchiveAccess ArchiveStatus = "DeepArchiveAccess"
)

// S3Metadata is 1:1 with exactly one of Object or HistoricalObject, never
// both — ownership transfers atomically when a row closes out to history.
type S3Metadata struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ObjectID           *uuid.UUID     `gorm:"type:uuid;uniqueIndex:idx_metadata_object" json:"object_id,omitempty"`
	HistoricalObjectID *uuid.UUID     `gorm:"type:uuid;uniqueIndex:idx_metadata_historical_object" json:"historical_object_id,omitempty"`
	StorageClass       *StorageClass  `gorm:"type:varchar(32)" json:"storage_class"`
	LastModifiedDate   *time.Time     `json:"last_modified_date"`
	ETag               *string        `gorm:"type:varchar(255)" json:"e_tag"`
	IsDeleteMarker     bool           `gorm:"not null;default:false" json:"is_delete_marker"`
	Expiration         *time.Time     `json:"expiration"`
	Restored           bool           `gorm:"not null;default:false" json:"restored"`
	ArchiveStatus      *ArchiveStatus `gorm:"type:varchar(32)" json:"archive_status"`
	Metadata           datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`
	Tags               datatypes.JSONMap `gorm:"type:jsonb" json:"tags"`
	IsAccessible       bool           `gorm:"not null;default:false;index" json:"is_accessible"`
}

func (S3Metadata) TableName() string { return "s3_metadata" }

// IsAccessible implements the §3 computed column: a row is accessible iff
// its owning record is the current state, and the storage class does not
// place the object out of immediate reach.
//
//	is_accessible = is_current_state AND
//	  (storage_class IS NULL OR
//	   (storage_class != Glacier AND
//	    (storage_class != DeepArchive OR reason IN (Restored, CrawlRestored)) AND
//	    (storage_class != IntelligentTiering OR archive_status IS NULL)))
func IsAccessible(isCurrentState bool, storageClass *StorageClass, reason EventType, archiveStatus *ArchiveStatus) bool {
	if !isCurrentState {
		return false
	}
	if storageClass == nil {
		return true
	}
	switch strings.ReplaceAll(strings.ToLower(string(*storageClass)), "_", "") {
	case strings.ToLower(string(StorageClassGlacier)):
		return false
	case strings.ToLower(string(StorageClassDeepArchive)):
		return reason == EventRestored || reason == EventCrawlRestored
	case strings.ToLower(string(StorageClassIntelligentTiering)):
		return archiveStatus == nil
	default:
		return true
	}
}
