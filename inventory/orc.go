package inventory

import (
	"bytes"
	"fmt"

	"github.com/scritchley/orc"
)

// orcRowReader decodes the ORC container via a cursor selecting exactly
// the manifest's fileSchema columns, preserving the requested order so
// row values line up positionally with schema names.
type orcRowReader struct {
	cursor *orc.Cursor
	schema []string
}

func newORCRowReader(data []byte, schema []string) (*orcRowReader, error) {
	r, err := orc.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening orc file: %w", err)
	}
	cursor := r.Select(schema...)
	return &orcRowReader{cursor: cursor, schema: schema}, nil
}

func (o *orcRowReader) Next() (map[string]string, bool, error) {
	if !o.cursor.Next() {
		if err := o.cursor.Err(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	values := o.cursor.Row()
	row := make(map[string]string, len(o.schema))
	for i, col := range o.schema {
		if i < len(values) && values[i] != nil {
			row[col] = fmt.Sprintf("%v", values[i])
		}
	}
	return row, true, nil
}

func (o *orcRowReader) Close() error { return nil }
