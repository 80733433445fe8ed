package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OrcaBus/service-filemanager/ingesterr"
)

func TestParseManifest_Valid(t *testing.T) {
	raw := []byte(`{
		"sourceBucket": "src",
		"destinationBucket": "dst",
		"fileSchema": ["Bucket", "Key", "VersionId", "Size", "LastModifiedDate", "ETag", "StorageClass", "IsDeleteMarker"],
		"files": [{"key": "data/1.csv.gz", "size": 100, "MD5checksum": "abc"}]
	}`)

	m, err := ParseManifest(raw)
	require.NoError(t, err)
	assert.Equal(t, "src", m.SourceBucket)
	assert.Equal(t, "dst", m.DestinationBucket)
	assert.Len(t, m.FileSchema, 8)
	require.Len(t, m.Files, 1)
	assert.Equal(t, "data/1.csv.gz", m.Files[0].Key)
}

func TestParseManifest_MissingBucketsFails(t *testing.T) {
	raw := []byte(`{"fileSchema": ["Bucket"]}`)
	_, err := ParseManifest(raw)
	require.Error(t, err)
	assert.True(t, ingesterr.Is(err, ingesterr.KindMalformed))
}

func TestParseManifest_MissingFileSchemaFails(t *testing.T) {
	raw := []byte(`{"sourceBucket": "src", "destinationBucket": "dst"}`)
	_, err := ParseManifest(raw)
	require.Error(t, err)
	assert.True(t, ingesterr.Is(err, ingesterr.KindMalformed))
}

func TestParseManifest_InvalidJSONFails(t *testing.T) {
	_, err := ParseManifest([]byte(`not json`))
	require.Error(t, err)
	assert.True(t, ingesterr.Is(err, ingesterr.KindMalformed))
}
