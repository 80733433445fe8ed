package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OrcaBus/service-filemanager/entity"
)

func columnGetter(row map[string]string) func(string) string {
	return func(col string) string { return row[col] }
}

func TestRowToFlatEvent_ValidRowMapsAllFields(t *testing.T) {
	lastModified := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	row := map[string]string{
		"Bucket":           "my-bucket",
		"Key":              "path/to/object.txt",
		"VersionId":        "v123",
		"Size":             "2048",
		"ETag":             "abcdef1234567890",
		"StorageClass":     "STANDARD_IA",
		"LastModifiedDate": "2026-01-01T00:00:00Z",
		"IsDeleteMarker":   "false",
	}

	fe, ok := rowToFlatEvent(columnGetter(row), lastModified)
	require.True(t, ok)
	assert.Equal(t, entity.EventCrawl, fe.EventType)
	assert.Equal(t, lastModified, fe.EventTime)
	assert.Nil(t, fe.Sequencer)
	assert.Equal(t, "my-bucket", fe.Bucket)
	assert.Equal(t, "path/to/object.txt", fe.Key)
	assert.Equal(t, "v123", fe.VersionID)
	require.NotNil(t, fe.Size)
	assert.Equal(t, int64(2048), *fe.Size)
	require.NotNil(t, fe.ETag)
	assert.Equal(t, entity.QuoteETag("abcdef1234567890"), *fe.ETag)
	require.NotNil(t, fe.StorageClass)
	assert.Equal(t, entity.StorageClass("STANDARD_IA"), *fe.StorageClass)
	require.NotNil(t, fe.LastModified)
	assert.False(t, fe.IsDeleteMarker)
}

func TestRowToFlatEvent_MissingBucketOrKeyIsSkipped(t *testing.T) {
	_, ok := rowToFlatEvent(columnGetter(map[string]string{"Key": "k"}), time.Now())
	assert.False(t, ok)

	_, ok = rowToFlatEvent(columnGetter(map[string]string{"Bucket": "b"}), time.Now())
	assert.False(t, ok)
}

func TestRowToFlatEvent_MissingVersionIDUsesSentinel(t *testing.T) {
	row := map[string]string{"Bucket": "b", "Key": "k"}
	fe, ok := rowToFlatEvent(columnGetter(row), time.Now())
	require.True(t, ok)
	assert.Equal(t, entity.DefaultVersionID, fe.VersionID)
}

func TestRowToFlatEvent_UnparsableSizeAndDateAreLeftNil(t *testing.T) {
	row := map[string]string{
		"Bucket":           "b",
		"Key":              "k",
		"Size":             "not-a-number",
		"LastModifiedDate": "not-a-date",
	}
	fe, ok := rowToFlatEvent(columnGetter(row), time.Now())
	require.True(t, ok)
	assert.Nil(t, fe.Size)
	assert.Nil(t, fe.LastModified)
}

func TestParseLooseBool(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{" Yes ", true},
		{"false", false},
		{"0", false},
		{"", false},
		{"garbage", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLooseBool(tt.in), "input %q", tt.in)
	}
}
