package model

// RowError pairs a 1-based row index with the message that failed it.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportProgress accumulates per-session validation and upload results.
// It is scoped to one import session and returned to the caller as the
// final report.
type ImportProgress struct {
	Total     int        `json:"total"`
	Processed int        `json:"processed"`
	Success   int        `json:"success"`
	Failed    int        `json:"failed"`
	Errors    []RowError `json:"errors"`
}

// RecordSuccess marks one row processed successfully.
func (p *ImportProgress) RecordSuccess() {
	p.Processed++
	p.Success++
}

// RecordFailure marks one row failed with the given message. Row indices are
// 1-based positions in the original input file.
func (p *ImportProgress) RecordFailure(row int, msg string) {
	p.Processed++
	p.Failed++
	p.Errors = append(p.Errors, RowError{Row: row, Error: msg})
}
