package inventory

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipCSV(t *testing.T, rows [][]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	w := csv.NewWriter(gz)
	for _, row := range rows {
		require.NoError(t, w.Write(row))
	}
	w.Flush()
	require.NoError(t, w.Error())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestCSVRowReader_DecodesRowsByColumnPosition(t *testing.T) {
	schema := []string{"Bucket", "Key", "Size"}
	data := gzipCSV(t, [][]string{
		{"b1", "k1", "100"},
		{"b1", "k2", "200"},
	})

	r, err := newCSVRowReader(data, schema)
	require.NoError(t, err)
	defer r.Close()

	row, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b1", row["Bucket"])
	assert.Equal(t, "k1", row["Key"])
	assert.Equal(t, "100", row["Size"])

	row, ok, err = r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "k2", row["Key"])

	_, ok, err = r.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCSVRowReader_ShortRowsLeaveTrailingColumnsUnset(t *testing.T) {
	schema := []string{"Bucket", "Key", "Size"}
	data := gzipCSV(t, [][]string{
		{"b1", "k1"},
	})

	r, err := newCSVRowReader(data, schema)
	require.NoError(t, err)
	defer r.Close()

	row, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b1", row["Bucket"])
	assert.Equal(t, "k1", row["Key"])
	_, present := row["Size"]
	assert.False(t, present)
}

func TestNewCSVRowReader_InvalidGzipFails(t *testing.T) {
	_, err := newCSVRowReader([]byte("not gzip data"), []string{"Bucket"})
	assert.Error(t, err)
}
