package inventory

import (
	"strconv"
	"strings"
	"time"

	"github.com/OrcaBus/service-filemanager/entity"
)

// rowToFlatEvent projects a decoded row (column name -> string value) into
// a synthetic Crawl FlatEvent per §4.F: event_time is the data file's own
// last-modified time, and sequencer is always NULL. Under §3's
// NULL-sorts-last rule (entity.CompareSequencer) the Sequencer therefore
// treats an inventory row as "latest known", later than any sequencered
// event for the same version, so it is never flagged as reordered.
//
// The inventory schema (§6) carries no restore-status column, only
// StorageClass, so CrawlRestored cannot be distinguished from the row data
// alone; every inventory row is emitted as a plain Crawl and the Metadata
// Enricher's HEAD lookup (Crawl is an eligible event type) fills in
// ArchiveStatus/Restored state the same way it would for a live crawl.
func rowToFlatEvent(get func(col string) string, fileLastModified time.Time) (*entity.FlatEvent, bool) {
	bucket := get("Bucket")
	key := get("Key")
	if bucket == "" || key == "" {
		return nil, false
	}

	versionID := get("VersionId")
	if versionID == "" {
		versionID = entity.DefaultVersionID
	}

	fe := &entity.FlatEvent{
		EventID:   entity.NewFlatEventID(),
		EventType: entity.EventCrawl,
		EventTime: fileLastModified,
		Sequencer: nil,
		Bucket:    bucket,
		Key:       key,
		VersionID: versionID,
	}

	if sizeStr := get("Size"); sizeStr != "" {
		if n, err := strconv.ParseInt(sizeStr, 10, 64); err == nil {
			fe.Size = &n
		}
	}
	if eTag := get("ETag"); eTag != "" {
		q := entity.QuoteETag(eTag)
		fe.ETag = &q
	}
	if sc := get("StorageClass"); sc != "" {
		s := entity.StorageClass(sc)
		fe.StorageClass = &s
	}
	if lm := get("LastModifiedDate"); lm != "" {
		if t, err := time.Parse(time.RFC3339, lm); err == nil {
			fe.LastModified = &t
		}
	}
	fe.IsDeleteMarker = parseLooseBool(get("IsDeleteMarker"))
	fe.EnrichmentTried = false

	return fe, true
}

func parseLooseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
