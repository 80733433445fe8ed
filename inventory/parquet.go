package inventory

import (
	"bytes"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// parquetRowReader decodes the Parquet container through a generic reader
// into loosely-typed rows, refilling a small internal buffer rather than
// materializing every row up front.
type parquetRowReader struct {
	reader  *parquet.GenericReader[map[string]any]
	columns []string
	buf     []map[string]any
	pos     int
	n       int
	done    bool
}

func newParquetRowReader(data []byte, schema []string) (*parquetRowReader, error) {
	return &parquetRowReader{
		reader:  parquet.NewGenericReader[map[string]any](bytes.NewReader(data)),
		columns: schema,
		buf:     make([]map[string]any, 128),
	}, nil
}

func (p *parquetRowReader) Next() (map[string]string, bool, error) {
	if p.pos >= p.n && !p.done {
		for i := range p.buf {
			p.buf[i] = map[string]any{}
		}
		n, err := p.reader.Read(p.buf)
		p.n = n
		p.pos = 0
		if err != nil && err != io.EOF {
			return nil, false, err
		}
		if err == io.EOF {
			p.done = true
		}
	}
	if p.pos >= p.n {
		return nil, false, nil
	}

	record := p.buf[p.pos]
	p.pos++

	row := make(map[string]string, len(p.columns))
	for _, col := range p.columns {
		if v, ok := record[col]; ok && v != nil {
			row[col] = fmt.Sprintf("%v", v)
		}
	}
	return row, true, nil
}

func (p *parquetRowReader) Close() error { return p.reader.Close() }
