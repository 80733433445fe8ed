package entity

import (
	"time"

	"github.com/google/uuid"
)

// FlatEvent is the normalized internal record produced by the Event
// Decoder (4.A) and carried through enrichment, sequencing, and writing.
// It holds every StoreEvent field plus enrichment hints that are not
// persisted on StoreEvent itself but are needed by the Ingest Writer and
// Move Tracker.
type FlatEvent struct {
	EventID   uuid.UUID
	EventType EventType
	EventTime time.Time
	Sequencer *string
	Bucket    string
	Key       string
	VersionID string
	Size      *int64
	ETag      *string

	// Enrichment hints, set by the Metadata Enricher (4.B). Nil/zero until
	// enrichment runs or when enrichment is skipped for this event type.
	StorageClass    *StorageClass
	ArchiveStatus   *ArchiveStatus
	LastModified    *time.Time
	IsDeleteMarker  bool
	ExistingTags    map[string]string
	EnrichmentTried bool
	EnrichmentError error

	// Move Tracker hints, set once a lineage has been resolved.
	LineageID       uuid.UUID
	LineageFromTag  bool // true if LineageID came from a pre-existing tag
	LineageTagWrite bool // true if the tag still needs to be written back

	// Dedup/reorder bookkeeping filled in by the Sequencer (4.C).
	NumberDuplicateEvents int
	NumberReordered       int
}

// NewFlatEventID generates a fresh identifier for an event synthesized by
// the Crawler or the Inventory Reader, which do not originate from the
// event stream's own event_id.
func NewFlatEventID() uuid.UUID {
	return uuid.New()
}

// StoreEvent converts the decoded record into its persisted log shape.
func (f *FlatEvent) StoreEvent() *StoreEvent {
	return &StoreEvent{
		ID:                    f.EventID,
		EventType:             f.EventType,
		EventTime:             f.EventTime,
		Sequencer:             f.Sequencer,
		Bucket:                f.Bucket,
		Key:                   f.Key,
		VersionID:             f.VersionID,
		Size:                  f.Size,
		ETag:                  f.ETag,
		IsDeleteMarker:        f.IsDeleteMarker,
		NumberDuplicateEvents: f.NumberDuplicateEvents,
		NumberReordered:       f.NumberReordered,
	}
}

// IsDeleteEvent reports whether this event type represents any flavor of
// object removal (delete marker, permanent delete, or lifecycle delete).
func (f *FlatEvent) IsDeleteEvent() bool {
	switch f.EventType {
	case EventDeleted, EventDeletedLifecycle:
		return true
	default:
		return false
	}
}

// QuoteETag normalizes an eTag the way the object store returns it for
// ordinary PUTs (quoted) versus some multipart-upload responses that
// arrive unquoted in notifications.
func QuoteETag(eTag string) string {
	if eTag == "" {
		return eTag
	}
	if eTag[0] == '"' {
		return eTag
	}
	return `"` + eTag + `"`
}
