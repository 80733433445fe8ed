package inventory

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
)

// csvRowReader decodes the gzip-CSV inventory container. Columns have no
// header row; position within fileSchema is the only way to name a field.
type csvRowReader struct {
	reader  *csv.Reader
	closer  io.Closer
	columns []string
}

func newCSVRowReader(data []byte, schema []string) (*csvRowReader, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	r := csv.NewReader(bufio.NewReader(gz))
	r.FieldsPerRecord = -1
	return &csvRowReader{reader: r, closer: gz, columns: schema}, nil
}

func (c *csvRowReader) Next() (map[string]string, bool, error) {
	record, err := c.reader.Read()
	if err == io.EOF {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	row := make(map[string]string, len(c.columns))
	for i, col := range c.columns {
		if i < len(record) {
			row[col] = record[i]
		}
	}
	return row, true, nil
}

func (c *csvRowReader) Close() error { return c.closer.Close() }
