package entity

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates the kinds of notifications the three ingestion
// sources can produce. It doubles as the "reason" referenced by the
// accessibility rule in S3Metadata.
type EventType string

const (
	EventCreated             EventType = "Created"
	EventDeleted             EventType = "Deleted"
	EventDeletedLifecycle    EventType = "DeletedLifecycle"
	EventRestored            EventType = "Restored"
	EventRestoreExpired      EventType = "RestoreExpired"
	EventStorageClassChanged EventType = "StorageClassChanged"
	EventCrawl               EventType = "Crawl"
	EventCrawlRestored       EventType = "CrawlRestored"
	EventTaggingCreated      EventType = "TaggingCreated"
	EventTaggingDeleted      EventType = "TaggingDeleted"
)

// IsTerminal reports whether this event type always retires its version:
// true only for DeletedLifecycle. Whether a plain Deleted is a delete
// marker or a permanent version delete is not decided here; that
// distinction is carried explicitly on FlatEvent/StoreEvent.IsDeleteMarker,
// since the source notification already tells us which one occurred.
func (e EventType) IsTerminal() bool {
	return e == EventDeletedLifecycle
}

// DefaultVersionID is the sentinel used for objects in non-versioned
// buckets so that (bucket, key, version_id) stays a total key.
const DefaultVersionID = "null"

// StoreEvent is the ephemeral, append-only event log. Rows here may be
// pruned once they are no longer needed for history fidelity; the
// Object/HistoricalObject projection is always deterministically
// re-derivable from a surviving window of this table.
type StoreEvent struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey" json:"event_id"`
	EventType             EventType `gorm:"type:varchar(32);not null;index" json:"event_type"`
	EventTime             time.Time `gorm:"not null" json:"event_time"`
	Sequencer             *string   `gorm:"type:varchar(64)" json:"sequencer"`
	Bucket                string    `gorm:"type:varchar(255);not null;index:idx_store_event_bucket_key" json:"bucket"`
	Key                   string    `gorm:"type:varchar(1536);not null;index:idx_store_event_bucket_key" json:"key"`
	VersionID             string    `gorm:"type:varchar(255);not null;default:'null'" json:"version_id"`
	Size                  *int64    `json:"size"`
	ETag                  *string   `gorm:"type:varchar(255)" json:"e_tag"`
	IsDeleteMarker        bool      `gorm:"not null;default:false" json:"is_delete_marker"`
	NumberDuplicateEvents int       `gorm:"not null;default:0" json:"number_duplicate_events"`
	NumberReordered       int       `gorm:"not null;default:0" json:"number_reordered"`
	CreatedAt             time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (StoreEvent) TableName() string { return "store_event" }

// DedupKey is the tuple on which duplicate StoreEvent deliveries collapse.
// A NULL sequencer still participates in the key: two deliveries with no
// sequencer and the same event_type for the same version are duplicates.
type DedupKey struct {
	Bucket    string
	Key       string
	VersionID string
	Sequencer string
	EventType EventType
}

func (s *StoreEvent) DedupKey() DedupKey {
	seq := ""
	if s.Sequencer != nil {
		seq = *s.Sequencer
	}
	return DedupKey{
		Bucket:    s.Bucket,
		Key:       s.Key,
		VersionID: s.VersionID,
		Sequencer: seq,
		EventType: s.EventType,
	}
}

// CompareSequencer orders two possibly-NULL sequencers with NULL sorting
// last (i.e. treated as the latest-known event), per §3's invariant. Ties
// are broken by the caller using event_time then event_id.
func CompareSequencer(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}
