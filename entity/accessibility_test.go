package entity_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/OrcaBus/service-filemanager/entity"
)

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

func storageClassPtr(sc entity.StorageClass) *entity.StorageClass { return &sc }
func archiveStatusPtr(as entity.ArchiveStatus) *entity.ArchiveStatus { return &as }

func TestIsAccessible(t *testing.T) {
	tests := []struct {
		name           string
		isCurrentState bool
		storageClass   *entity.StorageClass
		reason         entity.EventType
		archiveStatus  *entity.ArchiveStatus
		want           bool
	}{
		{name: "not current state is never accessible", isCurrentState: false, want: false},
		{name: "nil storage class is accessible", isCurrentState: true, storageClass: nil, want: true},
		{name: "standard storage class is accessible", isCurrentState: true, storageClass: storageClassPtr(entity.StorageClassStandard), want: true},
		{name: "glacier is never accessible", isCurrentState: true, storageClass: storageClassPtr(entity.StorageClassGlacier), want: false},
		{name: "deep archive restored is accessible", isCurrentState: true, storageClass: storageClassPtr(entity.StorageClassDeepArchive), reason: entity.EventRestored, want: true},
		{name: "deep archive crawl restored is accessible", isCurrentState: true, storageClass: storageClassPtr(entity.StorageClassDeepArchive), reason: entity.EventCrawlRestored, want: true},
		{name: "deep archive created is not accessible", isCurrentState: true, storageClass: storageClassPtr(entity.StorageClassDeepArchive), reason: entity.EventCreated, want: false},
		{name: "intelligent tiering with no archive status is accessible", isCurrentState: true, storageClass: storageClassPtr(entity.StorageClassIntelligentTiering), archiveStatus: nil, want: true},
		{name: "intelligent tiering in archive access is not accessible", isCurrentState: true, storageClass: storageClassPtr(entity.StorageClassIntelligentTiering), archiveStatus: archiveStatusPtr(entity.ArchiveAccess), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := entity.IsAccessible(tt.isCurrentState, tt.storageClass, tt.reason, tt.archiveStatus)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareSequencer(t *testing.T) {
	a, b := "000001", "000002"

	tests := []struct {
		name string
		a, b *string
		want int
	}{
		{name: "both nil are equal", a: nil, b: nil, want: 0},
		{name: "nil sorts after any value", a: nil, b: &a, want: 1},
		{name: "value sorts before nil", a: &a, b: nil, want: -1},
		{name: "lesser value", a: &a, b: &b, want: -1},
		{name: "greater value", a: &b, b: &a, want: 1},
		{name: "equal values", a: &a, b: &a, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entity.CompareSequencer(tt.a, tt.b))
		})
	}
}

func TestStoreEventDedupKey(t *testing.T) {
	seq := "00001"
	se := &entity.StoreEvent{
		Bucket: "b", Key: "k", VersionID: "v1", Sequencer: &seq, EventType: entity.EventCreated,
	}
	assert.Equal(t, entity.DedupKey{Bucket: "b", Key: "k", VersionID: "v1", Sequencer: "00001", EventType: entity.EventCreated}, se.DedupKey())

	seNoSeq := &entity.StoreEvent{Bucket: "b", Key: "k", VersionID: "v1", EventType: entity.EventCreated}
	assert.Equal(t, "", seNoSeq.DedupKey().Sequencer)
}

func TestObjectToHistorical(t *testing.T) {
	obj := &entity.Object{
		ID:        mustUUID(t),
		Bucket:    "bucket",
		Key:       "key",
		VersionID: "v1",
		LineageID: mustUUID(t),
	}
	deleted := obj.Created
	hist := obj.ToHistorical(deleted)
	assert.Equal(t, obj.ID, hist.ID)
	assert.Equal(t, obj.Bucket, hist.Bucket)
	assert.Equal(t, obj.Key, hist.Key)
	assert.Equal(t, obj.VersionID, hist.VersionID)
	assert.Equal(t, obj.LineageID, hist.LineageID)
	assert.Equal(t, deleted, hist.Deleted)
}
