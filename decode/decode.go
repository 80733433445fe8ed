// Package decode implements the Event Decoder (§4.A): turning raw
// object-store event notifications into normalized entity.FlatEvent
// records. It is the only package that knows the EventBridge JSON shape.
package decode

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/OrcaBus/service-filemanager/entity"
	"github.com/OrcaBus/service-filemanager/ingesterr"
)

// rawNotification mirrors the EventBridge shape described in §6:
// detail.bucket.name, detail.object.{key,size,etag,version-id,sequencer},
// detail-type, time, detail.reason. Unknown fields are ignored by
// encoding/json's default decoding — no extra bookkeeping needed.
type rawNotification struct {
	DetailType string    `json:"detail-type"`
	Time       time.Time `json:"time"`
	Detail     struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key       string `json:"key"`
			Size      *int64 `json:"size"`
			ETag      string `json:"etag"`
			VersionID string `json:"version-id"`
			Sequencer string `json:"sequencer"`
		} `json:"object"`
		Reason string `json:"reason"`
	} `json:"detail"`
}

// detailTypeTable maps the fixed set of EventBridge detail-types onto
// entity.EventType; the reason field is not consulted. The distinction
// between a permanent object deletion and a delete-marker creation per
// §4.A is taken from the detail-type by isDeleteMarkerDetailType.
var detailTypeTable = map[string]entity.EventType{
	"Object Created":                        entity.EventCreated,
	"ObjectCreated:Put":                      entity.EventCreated,
	"ObjectCreated:Post":                     entity.EventCreated,
	"ObjectCreated:Copy":                     entity.EventCreated,
	"ObjectCreated:CompleteMultipartUpload":  entity.EventCreated,
	"Object Deleted":                        entity.EventDeleted,
	"ObjectRemoved:Delete":                   entity.EventDeleted,
	"ObjectRemoved:DeleteMarkerCreated":      entity.EventDeleted,
	"ObjectRemoved:LifecycleDeleteMarkerCreated": entity.EventDeleted,
	"LifecycleExpiration:Delete":             entity.EventDeletedLifecycle,
	"LifecycleExpiration:DeleteMarkerCreated": entity.EventDeletedLifecycle,
	"Object Restore Completed":               entity.EventRestored,
	"ObjectRestore:Completed":                entity.EventRestored,
	"Object Restore Expired":                 entity.EventRestoreExpired,
	"ObjectRestore:Expired":                  entity.EventRestoreExpired,
	"Object Storage Class Changed":           entity.EventStorageClassChanged,
	"ObjectStorageClass:Changed":             entity.EventStorageClassChanged,
	"Object Tags Added":                      entity.EventTaggingCreated,
	"ObjectTagging:Put":                      entity.EventTaggingCreated,
	"Object Tags Deleted":                    entity.EventTaggingDeleted,
	"ObjectTagging:Delete":                   entity.EventTaggingDeleted,
}

// isDeleteMarkerDetailType reports whether a Deleted-family event is a delete
// marker rather than a permanent version delete. S3 reports this via the
// detail-type suffix ("DeleteMarkerCreated") rather than via the reason
// field, so the mapping is done on the raw detail-type, not on the
// normalized EventType.
func isDeleteMarkerDetailType(detailType string) bool {
	return strings.Contains(detailType, "DeleteMarkerCreated")
}

// DecodeStoreEvent implements the Event Decoder for object-store event
// notifications. Policy per §4.A: unknown fields are ignored (handled by
// encoding/json itself); missing bucket/key fails the record, not the
// batch; percent-encoded keys are decoded exactly once.
func DecodeStoreEvent(raw []byte) (*entity.FlatEvent, error) {
	var n rawNotification
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, ingesterr.New(ingesterr.KindMalformed, "invalid event JSON", err)
	}

	bucket := n.Detail.Bucket.Name
	key := n.Detail.Object.Key
	if bucket == "" || key == "" {
		return nil, ingesterr.New(ingesterr.KindMalformed, "missing bucket or key", nil)
	}

	decodedKey, err := url.QueryUnescape(key)
	if err != nil {
		// A key that fails to percent-decode is still a key; better to
		// keep the raw form than drop the record entirely.
		decodedKey = key
	}

	eventType, ok := detailTypeTable[n.DetailType]
	if !ok {
		return nil, ingesterr.New(ingesterr.KindMalformed, fmt.Sprintf("unknown detail-type %q", n.DetailType), nil)
	}

	versionID := n.Detail.Object.VersionID
	if versionID == "" {
		versionID = entity.DefaultVersionID
	}

	var seq *string
	if n.Detail.Object.Sequencer != "" {
		s := n.Detail.Object.Sequencer
		seq = &s
	}

	var eTag *string
	if n.Detail.Object.ETag != "" {
		q := entity.QuoteETag(n.Detail.Object.ETag)
		eTag = &q
	}

	fe := &entity.FlatEvent{
		EventID:        uuid.New(),
		EventType:      eventType,
		EventTime:      n.Time,
		Sequencer:      seq,
		Bucket:         bucket,
		Key:            decodedKey,
		VersionID:      versionID,
		Size:           n.Detail.Object.Size,
		ETag:           eTag,
		IsDeleteMarker: eventType == entity.EventDeleted && isDeleteMarkerDetailType(n.DetailType),
	}
	if fe.EventTime.IsZero() {
		fe.EventTime = time.Now().UTC()
	}

	return fe, nil
}
