package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OrcaBus/service-filemanager/entity"
)

func TestTerminalForVersion(t *testing.T) {
	tests := []struct {
		name           string
		eventType      entity.EventType
		isDeleteMarker bool
		want           bool
	}{
		{name: "plain delete retires the version", eventType: entity.EventDeleted, isDeleteMarker: false, want: true},
		{name: "lifecycle delete retires the version", eventType: entity.EventDeletedLifecycle, isDeleteMarker: false, want: true},
		{name: "delete marker never retires the version", eventType: entity.EventDeleted, isDeleteMarker: true, want: false},
		{name: "restored never retires the version", eventType: entity.EventRestored, isDeleteMarker: false, want: false},
		{name: "storage class change never retires the version", eventType: entity.EventStorageClassChanged, isDeleteMarker: false, want: false},
		{name: "created never retires the version", eventType: entity.EventCreated, isDeleteMarker: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, terminalForVersion(tt.eventType, tt.isDeleteMarker))
		})
	}
}

func TestRecomputeAccessibility(t *testing.T) {
	sc := entity.StorageClassGlacier
	meta := &entity.S3Metadata{StorageClass: &sc}

	RecomputeAccessibility(meta, true, entity.EventCreated)
	assert.False(t, meta.IsAccessible)

	meta.StorageClass = nil
	RecomputeAccessibility(meta, true, entity.EventCreated)
	assert.True(t, meta.IsAccessible)

	RecomputeAccessibility(meta, false, entity.EventCreated)
	assert.False(t, meta.IsAccessible)
}
