// Package sequence implements the Sequencer / Deduplicator (§4.C):
// duplicate detection against already-persisted StoreEvent rows, and
// per-(bucket,key,version_id) reordering bookkeeping ahead of the Ingest
// Writer.
package sequence

import (
	"context"
	"sort"

	"github.com/OrcaBus/service-filemanager/entity"
)

// ExistingEventLookup abstracts the persisted-event lookup the
// Deduplicator needs, so this package has no direct repository
// dependency — it is satisfied by repository.StoreEventRepo in
// production and by a fake in tests.
type ExistingEventLookup interface {
	// FindByDedupKey returns the persisted StoreEvent matching key, and
	// whether one was found.
	FindByDedupKey(ctx context.Context, key entity.DedupKey) (*entity.StoreEvent, bool, error)
	// LatestForVersion returns the current latest surviving StoreEvent
	// for (bucket, key, version_id), if any, so reordering can be
	// detected against what is already persisted.
	LatestForVersion(ctx context.Context, bucket, key, versionID string) (*entity.StoreEvent, bool, error)
}

// Outcome is the per-record verdict the Sequencer hands to the Ingest
// Writer: whether this is a fresh insert, a duplicate (and which existing
// row absorbs the counter bump), or an out-of-order arrival relative to
// what is already current for its version.
type Outcome struct {
	Event          *entity.FlatEvent
	IsDuplicate    bool
	DuplicateOfID  *entity.StoreEvent // existing row to bump NumberDuplicateEvents on
	IsReordered    bool               // arrived older than the current latest for its version
	SupersededID   *entity.StoreEvent // the event this one is older than, for counting
}

// Resolve classifies a single incoming FlatEvent against already-persisted
// state. It does not mutate any storage; the Ingest Writer applies the
// resulting counters inside its transaction.
func Resolve(ctx context.Context, lookup ExistingEventLookup, fe *entity.FlatEvent) (Outcome, error) {
	key := fe.StoreEvent().DedupKey()

	existing, found, err := lookup.FindByDedupKey(ctx, key)
	if err != nil {
		return Outcome{}, err
	}
	if found {
		return Outcome{Event: fe, IsDuplicate: true, DuplicateOfID: existing}, nil
	}

	latest, found, err := lookup.LatestForVersion(ctx, fe.Bucket, fe.Key, fe.VersionID)
	if err != nil {
		return Outcome{}, err
	}
	if found && entity.CompareSequencer(fe.Sequencer, latest.Sequencer) < 0 {
		return Outcome{Event: fe, IsReordered: true, SupersededID: latest}, nil
	}
	if found && entity.CompareSequencer(fe.Sequencer, latest.Sequencer) == 0 {
		// Equal sequencer but different dedup key (different event_type,
		// e.g. TaggingCreated alongside Created) breaks the tie by
		// event_time ascending then event_id ascending, per §4.C.
		if tieBreakOlder(fe, latest) {
			return Outcome{Event: fe, IsReordered: true, SupersededID: latest}, nil
		}
	}

	return Outcome{Event: fe}, nil
}

// ResolveBatch classifies every record in a (bucket,key) group, ordering
// the group by sequencer first so events for the same version are resolved
// in sequencer order whatever their delivery order. Two events delivered
// out of order within one batch are therefore not flagged as reordered;
// only a record older than what the database already holds is.
func ResolveBatch(ctx context.Context, lookup ExistingEventLookup, group []*entity.FlatEvent) ([]Outcome, error) {
	sorted := make([]*entity.FlatEvent, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessByArrivalOrder(sorted[i], sorted[j])
	})

	outcomes := make([]Outcome, 0, len(sorted))
	// Track the running "latest seen so far" per version within this
	// batch. Because the group is already sorted by sequencer, a record
	// never compares lower than the one before it, so this check does not
	// flag records delivered out of order within the batch.
	runningLatest := map[string]*entity.FlatEvent{}

	for _, fe := range sorted {
		outcome, err := Resolve(ctx, lookup, fe)
		if err != nil {
			return nil, err
		}

		if !outcome.IsDuplicate && !outcome.IsReordered {
			vkey := fe.Bucket + "\x00" + fe.Key + "\x00" + fe.VersionID
			if prior, ok := runningLatest[vkey]; ok && entity.CompareSequencer(fe.Sequencer, prior.Sequencer) < 0 {
				outcome.IsReordered = true
			} else {
				runningLatest[vkey] = fe
			}
		}

		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// lessByArrivalOrder orders records for batch-internal processing: by
// sequencer (NULL last), then event_time ascending, then event_id
// ascending, matching §4.C's tie-break rule so the "latest" within a
// batch is resolved deterministically regardless of delivery order.
func lessByArrivalOrder(a, b *entity.FlatEvent) bool {
	if c := entity.CompareSequencer(a.Sequencer, b.Sequencer); c != 0 {
		return c < 0
	}
	if !a.EventTime.Equal(b.EventTime) {
		return a.EventTime.Before(b.EventTime)
	}
	return a.EventID.String() < b.EventID.String()
}

func tieBreakOlder(fe *entity.FlatEvent, existing *entity.StoreEvent) bool {
	if !fe.EventTime.Equal(existing.EventTime) {
		return fe.EventTime.Before(existing.EventTime)
	}
	return fe.EventID.String() < existing.ID.String()
}
