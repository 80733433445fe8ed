package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/OrcaBus/service-filemanager/entity"
)

func TestIsCreationLike(t *testing.T) {
	tests := []struct {
		eventType entity.EventType
		want      bool
	}{
		{entity.EventCreated, true},
		{entity.EventCrawl, true},
		{entity.EventCrawlRestored, true},
		{entity.EventDeleted, false},
		{entity.EventRestored, false},
		{entity.EventStorageClassChanged, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isCreationLike(tt.eventType), "event type %s", tt.eventType)
	}
}

func TestGroupByBucketKey_PreservesFirstSeenOrderAndGroupsCorrectly(t *testing.T) {
	events := []*entity.FlatEvent{
		{Bucket: "b1", Key: "k1", VersionID: "v1"},
		{Bucket: "b2", Key: "k1", VersionID: "v1"},
		{Bucket: "b1", Key: "k1", VersionID: "v2"},
		{Bucket: "b1", Key: "k2", VersionID: "v1"},
	}

	groups := groupByBucketKey(events)
	assert.Len(t, groups, 3)
	assert.Len(t, groups[0], 2, "b1/k1 group has two entries")
	assert.Equal(t, "b1", groups[0][0].Bucket)
	assert.Equal(t, "k1", groups[0][0].Key)
	assert.Equal(t, "b2", groups[1][0].Bucket)
	assert.Equal(t, "b1", groups[2][0].Bucket)
	assert.Equal(t, "k2", groups[2][0].Key)
}

func TestFlatEventByID_IndexesByEventID(t *testing.T) {
	idA := uuid.New()
	idB := uuid.New()
	a := &entity.FlatEvent{EventID: idA, VersionID: "v1"}
	b := &entity.FlatEvent{EventID: idB, VersionID: "v2"}

	byID := flatEventByID([]*entity.FlatEvent{a, b})
	assert.Same(t, a, byID[idA])
	assert.Same(t, b, byID[idB])
}

func TestFlatEventByID_ExcludesReorderedEvents(t *testing.T) {
	id := uuid.New()
	reordered := &entity.FlatEvent{EventID: id, VersionID: "v1", NumberReordered: 1}

	byID := flatEventByID([]*entity.FlatEvent{reordered})
	_, present := byID[id]
	assert.False(t, present, "a reordered delivery must never be authoritative for metadata even as the sole batch entry for its version")
}

func TestLineageFor_PrefersLatestEventLineageWhenPresent(t *testing.T) {
	lid := uuid.New()
	latest := &entity.FlatEvent{LineageID: lid}
	head := VersionHead{Event: entity.StoreEvent{EventTime: time.Now()}}

	assert.Equal(t, lid, lineageFor(latest, head))
}

func TestLineageFor_MintsFreshIDWhenLatestIsNilOrEmpty(t *testing.T) {
	head := VersionHead{Event: entity.StoreEvent{EventTime: time.Now()}}

	got := lineageFor(nil, head)
	assert.NotEqual(t, uuid.Nil, got)

	gotFromEmpty := lineageFor(&entity.FlatEvent{}, head)
	assert.NotEqual(t, uuid.Nil, gotFromEmpty)
}

func TestWriter_IncMetric_SkipsCallbackWhenMetricsIsNil(t *testing.T) {
	w := &Writer{}
	called := false

	w.incMetric(func(m Metrics) { called = true })
	assert.False(t, called)
}

type countingMetrics struct{ calls int }

func (c *countingMetrics) IncEventsWritten(_ context.Context, n int64)    { c.calls++ }
func (c *countingMetrics) IncDuplicates(_ context.Context, n int64)       { c.calls++ }
func (c *countingMetrics) IncReordered(_ context.Context, n int64)        { c.calls++ }
func (c *countingMetrics) IncEnrichmentErrors(_ context.Context, n int64) { c.calls++ }

func TestWriter_IncMetric_InvokesCallbackWhenMetricsIsSet(t *testing.T) {
	cm := &countingMetrics{}
	w := &Writer{metrics: cm}

	w.incMetric(func(m Metrics) { m.IncEventsWritten(context.Background(), 1) })
	assert.Equal(t, 1, cm.calls)
}
