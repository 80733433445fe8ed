// Package crawl implements the Crawler (§4.G): walking a bucket prefix
// and emitting synthetic Crawl records for every latest object version
// found, grounded on the original's events/aws/crawl.rs::crawl_s3.
package crawl

import (
	"context"
	"time"

	"github.com/OrcaBus/service-filemanager/entity"
	"github.com/OrcaBus/service-filemanager/store"
)

// Crawler lists a prefix and turns every latest version into a Crawl
// FlatEvent, leaving the Metadata Enricher and Ingest Writer to fill in
// the rest via the normal pipeline.
type Crawler struct {
	store *store.Client
}

func NewCrawler(client *store.Client) *Crawler {
	return &Crawler{store: client}
}

// Summary is the {nObjects, nBytes} report §4.G and §6's crawl control
// message response both call for.
type Summary struct {
	NObjects int
	NBytes   int64
}

// Crawl lists every version under (bucket, prefix) and emits one Crawl (or
// CrawlRestored, when the listing shows an active archive restore) record
// per latest version. Crawl records never alter lineage_id themselves —
// that decision belongs entirely to the Move Tracker the Ingest Writer
// invokes for any newly-seen version, per §4.G's "only fill in missing
// rows" rule.
func (c *Crawler) Crawl(ctx context.Context, bucket, prefix string) ([]*entity.FlatEvent, Summary, error) {
	listed, err := c.store.ListPrefix(ctx, bucket, prefix)
	if err != nil {
		return nil, Summary{}, err
	}

	var out []*entity.FlatEvent
	var summary Summary
	for _, obj := range listed {
		if !obj.IsLatest {
			continue
		}

		fe := toFlatEvent(bucket, obj)
		out = append(out, fe)
		summary.NObjects++
		if fe.Size != nil {
			summary.NBytes += *fe.Size
		}
	}

	return out, summary, nil
}

func toFlatEvent(bucket string, obj store.ListedObject) *entity.FlatEvent {
	versionID := obj.VersionID
	if versionID == "" {
		versionID = entity.DefaultVersionID
	}

	eventType := entity.EventCrawl
	if obj.RestoreExpiry {
		eventType = entity.EventCrawlRestored
	}

	fe := &entity.FlatEvent{
		EventID:        entity.NewFlatEventID(),
		EventType:      eventType,
		EventTime:      time.Now().UTC(),
		Bucket:         bucket,
		Key:            obj.Key,
		VersionID:      versionID,
		IsDeleteMarker: obj.IsDeleteMarker,
	}
	if obj.Size > 0 {
		size := obj.Size
		fe.Size = &size
	}
	if obj.ETag != "" {
		q := entity.QuoteETag(obj.ETag)
		fe.ETag = &q
	}
	if obj.StorageClass != "" {
		sc := entity.StorageClass(obj.StorageClass)
		fe.StorageClass = &sc
	}
	return fe
}
