// Package enrich implements the Metadata Enricher (§4.B): best-effort
// HEAD-equivalent lookups against the object store for events that need
// storage-class/archive/tag information the notification itself did not
// carry.
package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/OrcaBus/service-filemanager/entity"
	"github.com/OrcaBus/service-filemanager/ingesterr"
	"github.com/OrcaBus/service-filemanager/store"
)

// eligibleEventTypes are the event types the enricher will attempt to
// look up, per §4.B. All others pass through untouched.
var eligibleEventTypes = map[entity.EventType]bool{
	entity.EventCreated:             true,
	entity.EventRestored:            true,
	entity.EventCrawl:               true,
	entity.EventCrawlRestored:       true,
	entity.EventStorageClassChanged: true,
}

// Enricher issues bounded, retrying HEAD lookups. It carries no mutable
// state beyond the store client and a semaphore limiting concurrent
// requests against the object store, per §5's "bounded HTTP client pool"
// resource model.
type Enricher struct {
	store         *store.Client
	maxAttempts   int
	timeout       time.Duration
	sem           chan struct{}
	permissionLog permissionLogger
	logger        Logger
}

// permissionLogger abstracts the "log once per day per bucket" latch
// (§7) so the enricher does not depend directly on Redis.
type permissionLogger interface {
	ClaimDailyPermissionLogSlot(ctx context.Context, bucket string) (bool, error)
}

// Logger is the narrow logging slice the enricher needs to actually emit
// the once-per-day permission warning the Redis latch gates the decision
// for.
type Logger interface {
	WarningWithContextf(ctx context.Context, format string, args ...any)
}

// NewEnricher builds an Enricher. maxConcurrent caps how many store
// lookups run at the same time; there is no per-time-window request
// budget.
func NewEnricher(client *store.Client, maxAttempts int, timeout time.Duration, maxConcurrent int, permissionLog permissionLogger, logger Logger) *Enricher {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Enricher{
		store:         client,
		maxAttempts:   maxAttempts,
		timeout:       timeout,
		sem:           make(chan struct{}, maxConcurrent),
		permissionLog: permissionLog,
		logger:        logger,
	}
}

// Enrich mutates fe in place with enrichment hints. It never fails the
// record: on permission error, not-found, or retry exhaustion, the event
// is still returned with EnrichmentError recorded for observability and
// all metadata hints left nil, per §4.B's failure semantics.
func (e *Enricher) Enrich(ctx context.Context, fe *entity.FlatEvent) {
	if !eligibleEventTypes[fe.EventType] {
		return
	}

	e.sem <- struct{}{}
	defer func() { <-e.sem }()

	fe.EnrichmentTried = true

	var head *store.ObjectHead
	var err error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		head, err = e.store.Head(callCtx, fe.Bucket, fe.Key, fe.VersionID)
		cancel()

		if err == nil {
			break
		}
		if !isTransient(err) {
			break
		}
		if attempt < e.maxAttempts {
			time.Sleep(backoff(attempt))
		}
	}

	if err != nil {
		fe.EnrichmentError = AsIngestError(err)
		if isPermissionDenied(err) {
			e.logPermissionOnce(ctx, fe.Bucket, err)
		}
		// Access denied / not found / retry exhaustion: event is still
		// persisted with NULL metadata. Absence of information is not
		// treated as unavailability (§4.B design rationale).
		return
	}

	sc := entity.StorageClass(head.StorageClass)
	if head.StorageClass != "" {
		fe.StorageClass = &sc
	}
	if head.ArchiveStatus != "" {
		as := entity.ArchiveStatus(head.ArchiveStatus)
		fe.ArchiveStatus = &as
	}
	fe.IsDeleteMarker = fe.IsDeleteMarker || head.IsDeleteMarker
	fe.ExistingTags = head.ExistingTags
	if head.ETag != "" {
		q := entity.QuoteETag(head.ETag)
		fe.ETag = &q
	}
	if head.Size > 0 && fe.Size == nil {
		fe.Size = &head.Size
	}
}

func (e *Enricher) logPermissionOnce(ctx context.Context, bucket string, cause error) {
	if e.permissionLog == nil {
		return
	}
	claimed, err := e.permissionLog.ClaimDailyPermissionLogSlot(ctx, bucket)
	if err != nil || !claimed {
		return
	}
	if e.logger != nil {
		e.logger.WarningWithContextf(ctx, "permission denied on bucket %s, suppressing further occurrences today: %v", bucket, cause)
	}
}

// isTransient classifies throttling/5xx-style errors as retryable, per
// the §7 "Transient store error" row. Anything else (permission,
// not-found) is terminal for this attempt loop.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "SlowDown", "ServiceUnavailable", "InternalError", "RequestTimeout":
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func isPermissionDenied(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "AccessDenied"
}

func backoff(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * 100 * time.Millisecond
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

// AsIngestError classifies an enrichment error into the §7 error-kind
// table for callers that need to report it alongside other pipeline
// errors rather than silently swallow it.
func AsIngestError(err error) error {
	if err == nil {
		return nil
	}
	if isPermissionDenied(err) {
		return ingesterr.New(ingesterr.KindPermission, "object store permission denied", err)
	}
	return ingesterr.New(ingesterr.KindTransientStore, "object store lookup failed", err)
}
