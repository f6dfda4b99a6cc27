// Package table parses published spreadsheet exports into header-keyed records.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Record maps a header cell to its raw value in one data row.
type Record map[string]string

// Table is the parsed form of one export: a header and its data rows.
// Rows are always len(Headers) wide.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// Records zips every row against the header. When a header repeats, the
// rightmost column wins.
func (t Table) Records() []Record {
	out := make([]Record, len(t.Rows))
	for i, row := range t.Rows {
		rec := make(Record, len(t.Headers))
		for j, h := range t.Headers {
			rec[h] = row[j]
		}
		out[i] = rec
	}
	return out
}

// Parse turns raw CSV text into a Table. Blank rows are dropped, the first
// remaining row becomes the header and later rows are padded or cut to its
// width. Input that is empty after trimming yields an empty Table.
func Parse(raw []byte) (Table, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	raw = bytes.ReplaceAll(raw, []byte("\r"), []byte("\n"))
	if len(bytes.TrimSpace(raw)) == 0 {
		return Table{}, nil
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = false

	var t Table
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if blank(row) {
			continue
		}
		if t.Headers == nil {
			t.Headers = make([]string, len(row))
			for i, h := range row {
				t.Headers[i] = strings.TrimSpace(h)
			}
			continue
		}
		t.Rows = append(t.Rows, fit(row, len(t.Headers)))
	}
	return t, nil
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func fit(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}
