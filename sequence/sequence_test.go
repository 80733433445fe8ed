package sequence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OrcaBus/service-filemanager/entity"
	"github.com/OrcaBus/service-filemanager/sequence"
)

// fakeLookup is an in-memory stand-in for sequence.ExistingEventLookup,
// keyed the same way the real repository is, so Resolve/ResolveBatch can be
// exercised without a database.
type fakeLookup struct {
	byDedupKey map[entity.DedupKey]*entity.StoreEvent
	latest     map[string]*entity.StoreEvent
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		byDedupKey: make(map[entity.DedupKey]*entity.StoreEvent),
		latest:     make(map[string]*entity.StoreEvent),
	}
}

func (f *fakeLookup) FindByDedupKey(ctx context.Context, key entity.DedupKey) (*entity.StoreEvent, bool, error) {
	se, ok := f.byDedupKey[key]
	return se, ok, nil
}

func (f *fakeLookup) LatestForVersion(ctx context.Context, bucket, key, versionID string) (*entity.StoreEvent, bool, error) {
	se, ok := f.latest[bucket+"\x00"+key+"\x00"+versionID]
	return se, ok, nil
}

func (f *fakeLookup) seedLatest(se *entity.StoreEvent) {
	f.latest[se.Bucket+"\x00"+se.Key+"\x00"+se.VersionID] = se
	f.byDedupKey[se.DedupKey()] = se
}

func seqPtr(s string) *string { return &s }

func TestResolve_FreshEventIsNeitherDuplicateNorReordered(t *testing.T) {
	lookup := newFakeLookup()
	fe := &entity.FlatEvent{
		EventID: uuid.New(), EventType: entity.EventCreated, Bucket: "b", Key: "k",
		VersionID: "v1", Sequencer: seqPtr("002"), EventTime: time.Now(),
	}

	outcome, err := sequence.Resolve(context.Background(), lookup, fe)
	require.NoError(t, err)
	assert.False(t, outcome.IsDuplicate)
	assert.False(t, outcome.IsReordered)
}

func TestResolve_DuplicateDedupKeyIsFlagged(t *testing.T) {
	lookup := newFakeLookup()
	existing := &entity.StoreEvent{
		ID: uuid.New(), EventType: entity.EventCreated, Bucket: "b", Key: "k",
		VersionID: "v1", Sequencer: seqPtr("002"), EventTime: time.Now(),
	}
	lookup.seedLatest(existing)

	fe := &entity.FlatEvent{
		EventID: uuid.New(), EventType: entity.EventCreated, Bucket: "b", Key: "k",
		VersionID: "v1", Sequencer: seqPtr("002"), EventTime: existing.EventTime,
	}

	outcome, err := sequence.Resolve(context.Background(), lookup, fe)
	require.NoError(t, err)
	assert.True(t, outcome.IsDuplicate)
	assert.Equal(t, existing, outcome.DuplicateOfID)
}

func TestResolve_LowerSequencerThanLatestIsReordered(t *testing.T) {
	lookup := newFakeLookup()
	latest := &entity.StoreEvent{
		ID: uuid.New(), EventType: entity.EventStorageClassChanged, Bucket: "b", Key: "k",
		VersionID: "v1", Sequencer: seqPtr("005"), EventTime: time.Now(),
	}
	lookup.seedLatest(latest)

	fe := &entity.FlatEvent{
		EventID: uuid.New(), EventType: entity.EventCreated, Bucket: "b", Key: "k",
		VersionID: "v1", Sequencer: seqPtr("002"), EventTime: latest.EventTime.Add(-time.Hour),
	}

	outcome, err := sequence.Resolve(context.Background(), lookup, fe)
	require.NoError(t, err)
	assert.False(t, outcome.IsDuplicate)
	assert.True(t, outcome.IsReordered)
}

func TestResolve_NilSequencerSortsAfterAnyKnownSequencer(t *testing.T) {
	lookup := newFakeLookup()
	latest := &entity.StoreEvent{
		ID: uuid.New(), EventType: entity.EventCreated, Bucket: "b", Key: "k",
		VersionID: "v1", Sequencer: seqPtr("005"), EventTime: time.Now(),
	}
	lookup.seedLatest(latest)

	fe := &entity.FlatEvent{
		EventID: uuid.New(), EventType: entity.EventStorageClassChanged, Bucket: "b", Key: "k",
		VersionID: "v1", Sequencer: nil, EventTime: latest.EventTime.Add(time.Hour),
	}

	outcome, err := sequence.Resolve(context.Background(), lookup, fe)
	require.NoError(t, err)
	assert.False(t, outcome.IsReordered)
}

func TestResolveBatch_ProcessesInSequencerOrderRegardlessOfDeliveryOrder(t *testing.T) {
	lookup := newFakeLookup()

	older := &entity.FlatEvent{
		EventID: uuid.New(), EventType: entity.EventCreated, Bucket: "b", Key: "k",
		VersionID: "v1", Sequencer: seqPtr("001"), EventTime: time.Now(),
	}
	newer := &entity.FlatEvent{
		EventID: uuid.New(), EventType: entity.EventStorageClassChanged, Bucket: "b", Key: "k",
		VersionID: "v1", Sequencer: seqPtr("002"), EventTime: time.Now().Add(time.Minute),
	}

	// Deliver out of order: newer arrives in the slice before older. Both
	// are still fresh against the (empty) database, so neither is flagged
	// reordered once the batch is resorted by sequencer ahead of Resolve.
	outcomes, err := sequence.ResolveBatch(context.Background(), lookup, []*entity.FlatEvent{newer, older})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	for _, o := range outcomes {
		assert.False(t, o.IsDuplicate)
		assert.False(t, o.IsReordered)
	}
}

func TestResolveBatch_ReordersAgainstAlreadyPersistedLatest(t *testing.T) {
	lookup := newFakeLookup()
	latest := &entity.StoreEvent{
		ID: uuid.New(), EventType: entity.EventStorageClassChanged, Bucket: "b", Key: "k",
		VersionID: "v1", Sequencer: seqPtr("005"), EventTime: time.Now(),
	}
	lookup.seedLatest(latest)

	stale := &entity.FlatEvent{
		EventID: uuid.New(), EventType: entity.EventCreated, Bucket: "b", Key: "k",
		VersionID: "v1", Sequencer: seqPtr("002"), EventTime: latest.EventTime.Add(-time.Hour),
	}

	outcomes, err := sequence.ResolveBatch(context.Background(), lookup, []*entity.FlatEvent{stale})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].IsReordered)
}

func TestResolveBatch_DistinctVersionsDoNotInterfere(t *testing.T) {
	lookup := newFakeLookup()

	v1 := &entity.FlatEvent{EventID: uuid.New(), EventType: entity.EventCreated, Bucket: "b", Key: "k", VersionID: "v1", Sequencer: seqPtr("001"), EventTime: time.Now()}
	v2 := &entity.FlatEvent{EventID: uuid.New(), EventType: entity.EventCreated, Bucket: "b", Key: "k", VersionID: "v2", Sequencer: seqPtr("000"), EventTime: time.Now()}

	outcomes, err := sequence.ResolveBatch(context.Background(), lookup, []*entity.FlatEvent{v1, v2})
	require.NoError(t, err)
	for _, o := range outcomes {
		assert.False(t, o.IsReordered)
	}
}
