// Package tabular parses user-supplied CSV content into a header row and an
// ordered sequence of raw rows. It has no knowledge of the target schema.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// ParseError indicates the input is not a well-formed tabular file. A session
// cannot proceed past file selection once one is reported.
type ParseError struct {
	msg string
}

func (e *ParseError) Error() string { return e.msg }

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{msg: fmt.Sprintf(format, args...)}
}

// Row is one parsed data row: its 1-based position among the data rows and
// the cell values keyed by header.
type Row struct {
	Index  int
	Values map[string]string
}

// Get returns the trimmed cell value for the given header.
func (r Row) Get(header string) string {
	return strings.TrimSpace(r.Values[header])
}

// Document holds the parse result for one file.
type Document struct {
	Headers []string
	Rows    []Row
}

// Preview returns up to k rows for interactive mapping UIs without
// re-parsing the file.
func (d *Document) Preview(k int) []Row {
	if k <= 0 || k >= len(d.Rows) {
		return d.Rows
	}
	return d.Rows[:k]
}

// Parse reads comma-separated content from r. The first non-empty line is
// treated as headers; fully empty lines are skipped. Malformed input returns
// a *ParseError and no rows.
func Parse(r io.Reader) (*Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are padded, not rejected
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(parseErrorf("tabular: malformed csv: %v", err), "tabular: parse")
	}

	var headers []string
	var rows []Row
	idx := 0
	for _, record := range records {
		if isEmptyRecord(record) {
			continue
		}
		if headers == nil {
			headers = make([]string, len(record))
			for i, h := range record {
				headers[i] = strings.TrimSpace(h)
			}
			continue
		}
		idx++
		rows = append(rows, Row{Index: idx, Values: mapRow(headers, record)})
	}

	if len(headers) == 0 {
		return nil, eris.Wrap(parseErrorf("tabular: no header row found"), "tabular: parse")
	}

	return &Document{Headers: headers, Rows: rows}, nil
}

// mapRow pairs each header with the corresponding value in the record. Rows
// with fewer columns than headers get empty strings for the missing cells.
func mapRow(headers []string, record []string) map[string]string {
	values := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(record) {
			values[h] = record[i]
		} else {
			values[h] = ""
		}
	}
	return values
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
