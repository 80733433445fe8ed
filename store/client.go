// Package store wraps the object-store client (S3-compatible, via MinIO)
// behind the narrow surface the engine actually needs: HEAD-equivalent
// lookups for enrichment, tag get/put for the Move Tracker, and prefix
// listing for the Crawler. Mirrors the teacher's infra/minio.go client
// shape (panic on misconfiguration at startup, thin method wrappers
// returning %w-wrapped errors) but trims the IAM/bucket-admin surface
// that has no home in this domain.
package store

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/tags"

	"github.com/OrcaBus/service-filemanager/config"
)

// Client wraps the underlying MinIO client. It is the sole implementation
// of object-store access used by the Metadata Enricher, Move Tracker, and
// Crawler.
type Client struct {
	inner *minio.Client
}

// MaxListIterations bounds the crawl listing loop the way the original
// implementation's Client::list_objects bounds ListObjectVersions
// pagination, so a misbehaving store can never wedge the crawler forever.
const MaxListIterations = 1_000_000

func InitClient(cfg *config.EnvConfig) *Client {
	endpoint := cfg.ObjectStore.Endpoint
	if endpoint == "" {
		panic("object store endpoint is not configured")
	}

	inner, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ObjectStore.AccessKeyID, cfg.ObjectStore.SecretAccessKey, ""),
		Secure: cfg.ObjectStore.UseSSL,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize object store client: %v", err))
	}

	return &Client{inner: inner}
}

// ObjectHead is the subset of a HEAD response the Metadata Enricher needs.
type ObjectHead struct {
	StorageClass     string
	ETag             string
	Size             int64
	LastModified     string
	IsDeleteMarker   bool
	ArchiveStatus    string
	ExistingTags     map[string]string
}

// versionOpt turns the engine's version-id sentinel into the empty string
// MinIO expects for "no version qualifier" on non-versioned buckets.
func versionOpt(versionID string) string {
	if versionID == "" || versionID == "null" {
		return ""
	}
	return versionID
}

// Head performs the HEAD-equivalent lookup the Metadata Enricher (§4.B)
// issues for Created/Restored/Crawl/CrawlRestored/StorageClassChanged
// events. Errors are returned unwrapped so the caller can classify them
// (permission, not-found, transient) per §7.
func (c *Client) Head(ctx context.Context, bucket, key, versionID string) (*ObjectHead, error) {
	info, err := c.inner.StatObject(ctx, bucket, key, minio.StatObjectOptions{VersionID: versionOpt(versionID)})
	if err != nil {
		return nil, err
	}

	head := &ObjectHead{
		StorageClass:   info.StorageClass,
		ETag:           info.ETag,
		Size:           info.Size,
		IsDeleteMarker: info.IsDeleteMarker,
	}
	if !info.LastModified.IsZero() {
		head.LastModified = info.LastModified.Format("2006-01-02T15:04:05Z07:00")
	}
	if info.Restore != nil && info.Restore.OngoingRestore == false && !info.Restore.ExpiryTime.IsZero() {
		head.ArchiveStatus = "ArchiveAccess"
	}

	tagSet, err := c.inner.GetObjectTagging(ctx, bucket, key, minio.GetObjectTaggingOptions{VersionID: versionOpt(versionID)})
	if err == nil && tagSet != nil {
		head.ExistingTags = tagSet.ToMap()
	}

	return head, nil
}

// GetTag reads a single tag value by key for a (bucket, key, version_id).
// It fetches the whole tag set and returns the one entry; the Move Tracker
// does not call it and reads existing tags from the HEAD result instead.
func (c *Client) GetTag(ctx context.Context, bucket, key, versionID, tagKey string) (string, bool, error) {
	tagSet, err := c.inner.GetObjectTagging(ctx, bucket, key, minio.GetObjectTaggingOptions{VersionID: versionOpt(versionID)})
	if err != nil {
		return "", false, err
	}
	m := tagSet.ToMap()
	v, ok := m[tagKey]
	return v, ok, nil
}

// PutTag writes a single tag key/value onto an object, merged with the
// existing map the caller passes in; the object's whole tag set is
// replaced by the result, so tags not in that map are dropped. The
// ingestion path calls this only where no lineage tag was found; the
// operator ingest-id patch (annotate.PatchIngestID) overwrites it.
func (c *Client) PutTag(ctx context.Context, bucket, key, versionID string, existing map[string]string, tagKey, tagValue string) error {
	merged := make(map[string]string, len(existing)+1)
	for k, v := range existing {
		merged[k] = v
	}
	merged[tagKey] = tagValue

	newTags, err := tags.MapToObjectTags(merged)
	if err != nil {
		return fmt.Errorf("building tag set: %w", err)
	}

	if err := c.inner.PutObjectTagging(ctx, bucket, key, newTags, minio.PutObjectTaggingOptions{VersionID: versionOpt(versionID)}); err != nil {
		return fmt.Errorf("writing lineage tag: %w", err)
	}
	return nil
}

// GetObject opens a streaming read of a data file, used by the Inventory
// Reader (§4.F) to pull manifest files from the destination bucket; the
// reader reads each file fully into memory for MD5 verification before
// decoding rows.
func (c *Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := c.inner.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// ListedObject is the subset of a listing entry the Crawler turns into a
// synthetic Crawl record.
type ListedObject struct {
	Key            string
	VersionID      string
	Size           int64
	ETag           string
	StorageClass   string
	IsLatest       bool
	IsDeleteMarker bool
	RestoreOngoing bool
	RestoreExpiry  bool
}

// ListPrefix streams every version of every object under prefix, the way
// the original's Client::list_objects pages through ListObjectVersions —
// MinIO's ListObjects already streams internally over a channel, so this
// degrades to a bounded iteration guard rather than manual marker
// juggling, keeping the "never loop forever" invariant from the original.
func (c *Client) ListPrefix(ctx context.Context, bucket, prefix string) ([]ListedObject, error) {
	opts := minio.ListObjectsOptions{
		Prefix:       prefix,
		Recursive:    true,
		WithVersions: true,
		WithMetadata: true,
	}

	out := make([]ListedObject, 0, 256)
	iterations := 0
	for obj := range c.inner.ListObjects(ctx, bucket, opts) {
		iterations++
		if iterations > MaxListIterations {
			break
		}
		if obj.Err != nil {
			return out, obj.Err
		}
		listed := ListedObject{
			Key:            obj.Key,
			VersionID:      obj.VersionID,
			Size:           obj.Size,
			ETag:           obj.ETag,
			StorageClass:   obj.StorageClass,
			IsLatest:       obj.IsLatest,
			IsDeleteMarker: obj.IsDeleteMarker,
		}
		if obj.Restore != nil {
			listed.RestoreOngoing = obj.Restore.OngoingRestore
			listed.RestoreExpiry = !obj.Restore.OngoingRestore && !obj.Restore.ExpiryTime.IsZero()
		}
		out = append(out, listed)
	}
	return out, nil
}
