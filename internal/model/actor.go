package model

import "time"

// Actor identifies who is running an import and under which organization.
// UploadLimit is the plan-derived monthly upload cap; zero means the caller
// could not resolve the plan and the ledger falls back to its default.
type Actor struct {
	UserID      string
	OrgID       string
	UploadLimit int
}

// UploadLimit is the per-organization, per-calendar-month upload counter.
// Month is formatted as "2006-01" in UTC.
type UploadLimit struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"org_id"`
	Month        string    `json:"month"`
	UploadsUsed  int       `json:"uploads_used"`
	UploadsLimit int       `json:"uploads_limit"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MonthKey returns the calendar-month key for t in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
