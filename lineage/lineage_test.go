package lineage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OrcaBus/service-filemanager/entity"
	"github.com/OrcaBus/service-filemanager/lineage"
)

// fakeTagWriter records PutTag calls and can be made to fail a configured
// number of times, to exercise Tracker.Reconcile's retry path.
type fakeTagWriter struct {
	calls     []string
	failUntil int
}

func (f *fakeTagWriter) PutTag(ctx context.Context, bucket, key, versionID string, existing map[string]string, tagKey, tagValue string) error {
	f.calls = append(f.calls, bucket+"/"+key+"@"+versionID)
	if len(f.calls) <= f.failUntil {
		return errors.New("transient write failure")
	}
	return nil
}

func TestTracker_ResolveAdoptsExistingTag(t *testing.T) {
	tracker := lineage.NewTracker(&fakeTagWriter{}, "lineage-tag")
	existing := uuid.New()

	fe := &entity.FlatEvent{
		Bucket: "b", Key: "k", VersionID: "v1",
		ExistingTags: map[string]string{"lineage-tag": existing.String()},
	}

	tracker.Resolve(fe)
	assert.Equal(t, existing, fe.LineageID)
	assert.True(t, fe.LineageFromTag)
	assert.False(t, fe.LineageTagWrite)
}

func TestTracker_ResolveMintsFreshLineageWhenNoTagPresent(t *testing.T) {
	tracker := lineage.NewTracker(&fakeTagWriter{}, "lineage-tag")
	fe := &entity.FlatEvent{Bucket: "b", Key: "k", VersionID: "v1"}

	tracker.Resolve(fe)
	assert.NotEqual(t, uuid.Nil, fe.LineageID)
	assert.False(t, fe.LineageFromTag)
	assert.True(t, fe.LineageTagWrite)
}

func TestTracker_ResolveIgnoresUnparsableExistingTag(t *testing.T) {
	tracker := lineage.NewTracker(&fakeTagWriter{}, "lineage-tag")
	fe := &entity.FlatEvent{
		Bucket: "b", Key: "k", VersionID: "v1",
		ExistingTags: map[string]string{"lineage-tag": "not-a-uuid"},
	}

	tracker.Resolve(fe)
	assert.NotEqual(t, uuid.Nil, fe.LineageID)
	assert.True(t, fe.LineageTagWrite)
}

func TestTracker_WriteBackSkipsWhenNotNeeded(t *testing.T) {
	writer := &fakeTagWriter{}
	tracker := lineage.NewTracker(writer, "lineage-tag")

	fe := &entity.FlatEvent{Bucket: "b", Key: "k", VersionID: "v1", LineageTagWrite: false}
	require.NoError(t, tracker.WriteBack(context.Background(), fe))
	assert.Empty(t, writer.calls)
}

func TestTracker_WriteBackCallsPutTagWhenNeeded(t *testing.T) {
	writer := &fakeTagWriter{}
	tracker := lineage.NewTracker(writer, "lineage-tag")

	fe := &entity.FlatEvent{Bucket: "b", Key: "k", VersionID: "v1", LineageID: uuid.New(), LineageTagWrite: true}
	require.NoError(t, tracker.WriteBack(context.Background(), fe))
	assert.Len(t, writer.calls, 1)
}

func TestTracker_ReconcileDropsSucceedingWrites(t *testing.T) {
	writer := &fakeTagWriter{failUntil: 0}
	tracker := lineage.NewTracker(writer, "lineage-tag")

	pending := []lineage.PendingTagWrite{
		{Bucket: "b", Key: "k1", VersionID: "v1", LineageID: uuid.New()},
	}

	stillPending := tracker.Reconcile(context.Background(), pending)
	assert.Empty(t, stillPending)
}

func TestTracker_ReconcileKeepsPersistentFailures(t *testing.T) {
	writer := &fakeTagWriter{failUntil: 10}
	tracker := lineage.NewTracker(writer, "lineage-tag")

	pending := []lineage.PendingTagWrite{
		{Bucket: "b", Key: "k1", VersionID: "v1", LineageID: uuid.New()},
	}

	stillPending := tracker.Reconcile(context.Background(), pending)
	assert.Len(t, stillPending, 1)
}
