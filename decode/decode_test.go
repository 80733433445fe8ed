package decode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OrcaBus/service-filemanager/decode"
	"github.com/OrcaBus/service-filemanager/entity"
	"github.com/OrcaBus/service-filemanager/ingesterr"
)

func TestDecodeStoreEvent_Created(t *testing.T) {
	raw := []byte(`{
		"detail-type": "Object Created",
		"time": "2024-01-02T03:04:05Z",
		"detail": {
			"bucket": {"name": "my-bucket"},
			"object": {"key": "some/key.txt", "size": 1024, "etag": "abc123", "version-id": "v1", "sequencer": "0055A"}
		}
	}`)

	fe, err := decode.DecodeStoreEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, entity.EventCreated, fe.EventType)
	assert.Equal(t, "my-bucket", fe.Bucket)
	assert.Equal(t, "some/key.txt", fe.Key)
	assert.Equal(t, "v1", fe.VersionID)
	require.NotNil(t, fe.Size)
	assert.Equal(t, int64(1024), *fe.Size)
	require.NotNil(t, fe.ETag)
	assert.Equal(t, `"abc123"`, *fe.ETag)
	require.NotNil(t, fe.Sequencer)
	assert.Equal(t, "0055A", *fe.Sequencer)
	assert.False(t, fe.IsDeleteMarker)
}

func TestDecodeStoreEvent_DeleteMarkerVsPermanentDelete(t *testing.T) {
	markerRaw := []byte(`{
		"detail-type": "ObjectRemoved:DeleteMarkerCreated",
		"time": "2024-01-02T03:04:05Z",
		"detail": {"bucket": {"name": "b"}, "object": {"key": "k"}}
	}`)
	fe, err := decode.DecodeStoreEvent(markerRaw)
	require.NoError(t, err)
	assert.Equal(t, entity.EventDeleted, fe.EventType)
	assert.True(t, fe.IsDeleteMarker)

	permanentRaw := []byte(`{
		"detail-type": "ObjectRemoved:Delete",
		"time": "2024-01-02T03:04:05Z",
		"detail": {"bucket": {"name": "b"}, "object": {"key": "k", "version-id": "v1"}}
	}`)
	fe, err = decode.DecodeStoreEvent(permanentRaw)
	require.NoError(t, err)
	assert.Equal(t, entity.EventDeleted, fe.EventType)
	assert.False(t, fe.IsDeleteMarker)
}

func TestDecodeStoreEvent_NoVersionIDGetsSentinel(t *testing.T) {
	raw := []byte(`{
		"detail-type": "Object Created",
		"time": "2024-01-02T03:04:05Z",
		"detail": {"bucket": {"name": "b"}, "object": {"key": "k"}}
	}`)
	fe, err := decode.DecodeStoreEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultVersionID, fe.VersionID)
}

func TestDecodeStoreEvent_PercentEncodedKey(t *testing.T) {
	raw := []byte(`{
		"detail-type": "Object Created",
		"time": "2024-01-02T03:04:05Z",
		"detail": {"bucket": {"name": "b"}, "object": {"key": "some%20key.txt"}}
	}`)
	fe, err := decode.DecodeStoreEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "some key.txt", fe.Key)
}

func TestDecodeStoreEvent_MissingBucketOrKeyFails(t *testing.T) {
	raw := []byte(`{
		"detail-type": "Object Created",
		"time": "2024-01-02T03:04:05Z",
		"detail": {"bucket": {"name": ""}, "object": {"key": "k"}}
	}`)
	_, err := decode.DecodeStoreEvent(raw)
	require.Error(t, err)
	assert.True(t, ingesterr.Is(err, ingesterr.KindMalformed))
}

func TestDecodeStoreEvent_UnknownDetailTypeFails(t *testing.T) {
	raw := []byte(`{
		"detail-type": "Something Unexpected",
		"time": "2024-01-02T03:04:05Z",
		"detail": {"bucket": {"name": "b"}, "object": {"key": "k"}}
	}`)
	_, err := decode.DecodeStoreEvent(raw)
	require.Error(t, err)
	assert.True(t, ingesterr.Is(err, ingesterr.KindMalformed))
}

func TestDecodeStoreEvent_InvalidJSONFails(t *testing.T) {
	_, err := decode.DecodeStoreEvent([]byte(`not json`))
	require.Error(t, err)
	assert.True(t, ingesterr.Is(err, ingesterr.KindMalformed))
}

func TestDecodeStoreEvent_LifecycleDeleteIsDistinctFromOrdinaryDelete(t *testing.T) {
	raw := []byte(`{
		"detail-type": "LifecycleExpiration:Delete",
		"time": "2024-01-02T03:04:05Z",
		"detail": {"bucket": {"name": "b"}, "object": {"key": "k", "version-id": "v1"}}
	}`)
	fe, err := decode.DecodeStoreEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, entity.EventDeletedLifecycle, fe.EventType)
}
