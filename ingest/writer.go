package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/OrcaBus/service-filemanager/entity"
	"github.com/OrcaBus/service-filemanager/ingesterr"
	"github.com/OrcaBus/service-filemanager/lineage"
	"github.com/OrcaBus/service-filemanager/repository"
	"github.com/OrcaBus/service-filemanager/sequence"
)

// Logger is the narrow slice of infra.LoggerClient the writer needs,
// kept as an interface so this package does not import infra directly.
type Logger interface {
	InfoWithContextf(ctx context.Context, format string, args ...any)
	WarningWithContextf(ctx context.Context, format string, args ...any)
	ErrorWithContextf(ctx context.Context, err error, format string, args ...any)
}

// Metrics is the narrow slice of infra.MetricsClient the writer needs,
// kept as an interface for the same reason as Logger. A nil Metrics is
// valid: callers that don't care about throughput counters pass nil and
// every increment call below becomes a no-op.
type Metrics interface {
	IncEventsWritten(ctx context.Context, n int64)
	IncDuplicates(ctx context.Context, n int64)
	IncReordered(ctx context.Context, n int64)
	IncEnrichmentErrors(ctx context.Context, n int64)
}

// Tracer is the narrow slice of infra.TracerClient the writer needs. A
// nil Tracer is valid: WriteBatch then runs without a span.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, trace.Span)
}

// Writer is the Ingest Writer (§4.D): it owns the one-transaction-per-
// (bucket,key)-group write path spanning event insert, object upsert,
// and metadata upsert, per §5's transactional discipline.
type Writer struct {
	repo    *repository.Repository
	tracker *lineage.Tracker
	logger  Logger
	metrics Metrics
	tracer  Tracer
}

func NewWriter(repo *repository.Repository, tracker *lineage.Tracker, logger Logger, metrics Metrics, tracer Tracer) *Writer {
	return &Writer{repo: repo, tracker: tracker, logger: logger, metrics: metrics, tracer: tracer}
}

// txLookup adapts StoreEventRepo's transaction-scoped methods to
// sequence.ExistingEventLookup so the Sequencer's dedup/reorder checks
// run inside the same transaction as the writes they gate.
type txLookup struct {
	tx   *gorm.DB
	repo *repository.StoreEventRepo
}

func (l *txLookup) FindByDedupKey(ctx context.Context, key entity.DedupKey) (*entity.StoreEvent, bool, error) {
	return l.repo.FindByDedupKeyTx(ctx, l.tx, key)
}

func (l *txLookup) LatestForVersion(ctx context.Context, bucket, key, versionID string) (*entity.StoreEvent, bool, error) {
	return l.repo.LatestForVersionTx(ctx, l.tx, bucket, key, versionID)
}

// WriteBatch groups events by (bucket, key) and applies each group in its
// own transaction. It returns lineage tag write-backs still pending after
// commit, for the caller to perform outside the transaction per §4.E step
// 4 and §5's rule
// that tag writes are not required for commit correctness.
func (w *Writer) WriteBatch(ctx context.Context, events []*entity.FlatEvent) ([]lineage.PendingTagWrite, error) {
	if w.tracer != nil {
		var span trace.Span
		ctx, span = w.tracer.Start(ctx, "ingest.WriteBatch")
		defer span.End()
	}

	groups := groupByBucketKey(events)

	var allPending []lineage.PendingTagWrite
	for _, group := range groups {
		pending, err := w.writeGroup(ctx, group)
		if err != nil {
			return allPending, err
		}
		allPending = append(allPending, pending...)
	}
	return allPending, nil
}

func (w *Writer) writeGroup(ctx context.Context, group []*entity.FlatEvent) ([]lineage.PendingTagWrite, error) {
	bucket, key := group[0].Bucket, group[0].Key
	var pending []lineage.PendingTagWrite

	err := w.repo.Transaction(func(tx *gorm.DB) error {
		lookup := &txLookup{tx: tx, repo: w.repo.StoreEvent}
		outcomes, err := sequence.ResolveBatch(ctx, lookup, group)
		if err != nil {
			return err
		}

		for _, outcome := range outcomes {
			fe := outcome.Event

			if outcome.IsDuplicate {
				if err := w.repo.StoreEvent.IncrementDuplicate(tx, outcome.DuplicateOfID.ID); err != nil {
					return err
				}
				w.logger.InfoWithContextf(ctx, "duplicate event suppressed for %s/%s version=%s", fe.Bucket, fe.Key, fe.VersionID)
				w.incMetric(func(m Metrics) { m.IncDuplicates(ctx, 1) })
				continue
			}

			if outcome.IsReordered {
				fe.NumberReordered = 1
				w.logger.WarningWithContextf(ctx, "out-of-order event for %s/%s version=%s", fe.Bucket, fe.Key, fe.VersionID)
				w.incMetric(func(m Metrics) { m.IncReordered(ctx, 1) })
			}

			// First-sight lineage resolution happens before insert so
			// FlatEvent.LineageID is available to the upsert below.
			if isCreationLike(fe.EventType) {
				_, exists, err := w.repo.Object.FindByVersion(ctx, tx, fe.Bucket, fe.Key, fe.VersionID)
				if err != nil {
					return err
				}
				if !exists {
					w.tracker.Resolve(fe)
					if fe.LineageTagWrite {
						pending = append(pending, lineage.PendingTagWrite{
							Bucket: fe.Bucket, Key: fe.Key, VersionID: fe.VersionID,
							LineageID: fe.LineageID, Existing: fe.ExistingTags,
						})
					}
				}
			}

			if err := w.repo.StoreEvent.Insert(tx, fe.StoreEvent()); err != nil {
				return err
			}
			w.incMetric(func(m Metrics) { m.IncEventsWritten(ctx, 1) })

			if fe.EnrichmentError != nil {
				w.incMetric(func(m Metrics) { m.IncEnrichmentErrors(ctx, 1) })
				// Permission errors already get their once-per-day-per-bucket
				// warning out of the enricher's Redis latch (§7); logging
				// again here for every occurrence would defeat that latch.
				if !ingesterr.Is(fe.EnrichmentError, ingesterr.KindPermission) {
					w.logger.WarningWithContextf(ctx, "enrichment failed for %s/%s: %v", fe.Bucket, fe.Key, fe.EnrichmentError)
				}
			}
		}

		return w.recomputeKey(ctx, tx, bucket, key, group)
	})

	return pending, err
}

// incMetric guards every counter increment behind a nil check: Metrics is
// optional, and a nil interface value (as opposed to a typed nil client)
// would otherwise panic on method dispatch.
func (w *Writer) incMetric(fn func(Metrics)) {
	if w.metrics == nil {
		return
	}
	fn(w.metrics)
}

// isCreationLike reports whether this event type is the kind that
// establishes a (bucket, key, version_id) for the first time, per §4.E
// step 1/2 and §3's Lifecycles note.
func isCreationLike(et entity.EventType) bool {
	switch et {
	case entity.EventCreated, entity.EventCrawl, entity.EventCrawlRestored:
		return true
	default:
		return false
	}
}

// recomputeKey runs the State Projector for (bucket, key) and applies its
// verdict to the Object/HistoricalObject/S3Metadata tables: reset
// current-state, promote the winner, demote everything else.
func (w *Writer) recomputeKey(ctx context.Context, tx *gorm.DB, bucket, key string, group []*entity.FlatEvent) error {
	proj, err := Project(ctx, tx, w.repo, bucket, key)
	if err != nil {
		return err
	}

	// Remember which versions were current before the reset below, so a
	// version that loses current state can still be closed out to history.
	prior, err := w.repo.Object.VersionsForKey(ctx, tx, bucket, key)
	if err != nil {
		return err
	}
	wasCurrent := make(map[string]bool, len(prior))
	for _, o := range prior {
		wasCurrent[o.VersionID] = o.IsCurrentState
	}

	if err := w.repo.Object.ResetCurrentState(ctx, tx, []string{bucket}, []string{key}); err != nil {
		return err
	}

	byID := flatEventByID(group)

	for _, head := range proj.Heads {
		isCurrent := head.VersionID == proj.CurrentVersionID
		if err := w.applyVersionHead(ctx, tx, bucket, key, head, isCurrent, wasCurrent[head.VersionID], proj.CurrentReason, byID[head.Event.ID]); err != nil {
			return err
		}
	}

	return nil
}

// applyVersionHead reconciles a single version_id's Object/
// HistoricalObject row against the projector's verdict for it.
func (w *Writer) applyVersionHead(ctx context.Context, tx *gorm.DB, bucket, key string, head VersionHead, isCurrent, wasCurrent bool, reason entity.EventType, latest *entity.FlatEvent) error {
	existing, found, err := w.repo.Object.FindByVersion(ctx, tx, bucket, key, head.VersionID)
	if err != nil {
		return err
	}

	switch {
	case isCurrent:
		obj := existing
		if !found {
			hist, wasHistorical, err := w.repo.HistoricalObject.FindByVersion(tx, bucket, key, head.VersionID)
			if err != nil {
				return err
			}

			obj = &entity.Object{
				Bucket:    bucket,
				Key:       key,
				VersionID: head.VersionID,
				Created:   head.Event.EventTime,
				LineageID: lineageFor(latest, head),
			}
			if wasHistorical {
				// Reuse the closed-out record's identity and reclaim
				// ownership of its metadata/checksums/attributes, rather
				// than minting a disconnected new row — a version coming
				// back to life (e.g. its delete marker was itself
				// permanently removed) is the same logical object.
				obj.ID = hist.ID
				obj.LineageID = hist.LineageID
				if err := w.repo.Metadata.TransferFromHistorical(tx, hist.ID, obj.ID); err != nil {
					return err
				}
				if err := w.repo.Checksum.TransferFromHistorical(tx, hist.ID, obj.ID); err != nil {
					return err
				}
				if err := w.repo.Attributes.TransferFromHistorical(tx, hist.ID, obj.ID); err != nil {
					return err
				}
				if err := w.repo.HistoricalObject.Delete(tx, hist.ID); err != nil {
					return err
				}
			} else {
				obj.ID = uuid.New()
			}
		}
		obj.IsCurrentState = true
		obj.Ordering = head.Event.Sequencer
		if err := w.repo.Object.Upsert(tx, obj); err != nil {
			return err
		}
		return w.upsertMetadata(tx, obj.ID, latest, true, reason)

	case found && wasCurrent:
		// Was current, no longer is: close out to history.
		return w.demoteToHistory(tx, existing, head.Event.EventTime, reason)

	case found && !head.IsEligible:
		// A previously-known version has now been terminally retired
		// (permanent delete / lifecycle delete) without ever being the
		// current-state winner in this batch — still needs closing out
		// if it hadn't already been moved to history by an earlier pass.
		return w.demoteToHistory(tx, existing, head.Event.EventTime, reason)

	default:
		return nil
	}
}

func lineageFor(latest *entity.FlatEvent, head VersionHead) uuid.UUID {
	if latest != nil && latest.LineageID != uuid.Nil {
		return latest.LineageID
	}
	return uuid.New()
}

// demoteToHistory implements §3's Lifecycles: an Object is demoted to
// HistoricalObject exactly when a later event invalidates it, carrying
// ownership of its metadata, checksums, and attribute links along.
func (w *Writer) demoteToHistory(tx *gorm.DB, obj *entity.Object, deletedAt time.Time, reason entity.EventType) error {
	hist := obj.ToHistorical(deletedAt)
	if err := w.repo.HistoricalObject.Insert(tx, hist); err != nil {
		return err
	}

	if err := w.repo.Metadata.TransferToHistorical(tx, obj.ID, hist.ID); err != nil {
		return err
	}
	if err := w.repo.Checksum.TransferToHistorical(tx, obj.ID, hist.ID); err != nil {
		return err
	}
	if err := w.repo.Attributes.TransferToHistorical(tx, obj.ID, hist.ID); err != nil {
		return err
	}

	if meta, found, err := w.repo.Metadata.FindByHistoricalObjectID(tx, hist.ID); err != nil {
		return err
	} else if found {
		RecomputeAccessibility(meta, false, reason)
		if err := w.repo.Metadata.Upsert(tx, meta); err != nil {
			return err
		}
	}

	return w.repo.Object.Delete(tx, obj.ID)
}

// upsertMetadata builds or updates the S3Metadata row for the current
// object, applying the enrichment hints carried on the latest FlatEvent
// for this version and recomputing is_accessible per §3.
func (w *Writer) upsertMetadata(tx *gorm.DB, objectID uuid.UUID, latest *entity.FlatEvent, isCurrent bool, reason entity.EventType) error {
	meta, found, err := w.repo.Metadata.FindByObjectID(tx, objectID)
	if err != nil {
		return err
	}
	if !found {
		meta = &entity.S3Metadata{ID: uuid.New(), ObjectID: &objectID}
	}

	if latest != nil {
		meta.StorageClass = latest.StorageClass
		meta.ArchiveStatus = latest.ArchiveStatus
		meta.ETag = latest.ETag
		meta.IsDeleteMarker = latest.IsDeleteMarker
		if latest.LastModified != nil {
			meta.LastModifiedDate = latest.LastModified
		}
	}

	RecomputeAccessibility(meta, isCurrent, reason)
	return w.repo.Metadata.Upsert(tx, meta)
}

func groupByBucketKey(events []*entity.FlatEvent) [][]*entity.FlatEvent {
	order := make([]string, 0)
	groups := make(map[string][]*entity.FlatEvent)
	for _, e := range events {
		k := e.Bucket + "\x00" + e.Key
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}

	out := make([][]*entity.FlatEvent, 0, len(order))
	for _, k := range order {
		out = append(out, groups[k])
	}
	return out
}

// flatEventByID indexes this batch's events by EventID so recomputeKey can
// look up the exact batch event backing a VersionHead's winning StoreEvent,
// per §4.H — the head the State Projector just selected from the full
// event log, not merely the sequencer-max of what happens to be in this
// batch. An event the Sequencer flagged as delivered out of order
// (NumberReordered == 1) is never authoritative for metadata: per §4.C a
// record whose sequencer compares strictly older than the current head
// does not alter current-state, even when it is the only batch event for
// that version_id. Excluding it here makes applyVersionHead fall back to
// leaving existing metadata untouched, the same as when the version isn't
// in the batch at all.
func flatEventByID(group []*entity.FlatEvent) map[uuid.UUID]*entity.FlatEvent {
	out := make(map[uuid.UUID]*entity.FlatEvent, len(group))
	for _, fe := range group {
		if fe.NumberReordered == 1 {
			continue
		}
		out[fe.EventID] = fe
	}
	return out
}
