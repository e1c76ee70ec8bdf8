package models

import "time"

// UploadFile is a registry entry for a processed upload. Deleting it (and
// the stored artifact) never retracts the Student/MarkRecord rows the file
// introduced; the registry is an audit surface, not a data lifecycle.
type UploadFile struct {
	ID            string    `db:"id" json:"-"`
	Name          string    `db:"name" json:"name"`
	SizeBytes     int64     `db:"size_bytes" json:"size_bytes"`
	UploadedBy    string    `db:"uploaded_by" json:"uploaded_by"`
	ModifiedAt    time.Time `db:"modified_at" json:"modified_at"`
	RowsTotal     int       `db:"rows_total" json:"rows_total"`
	RowsSucceeded int       `db:"rows_succeeded" json:"rows_succeeded"`
	RowsFailed    int       `db:"rows_failed" json:"rows_failed"`
}

// RowFailure reports why a single upload row was rejected.
type RowFailure struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Row failure reasons.
const (
	ReasonMissingField = "MissingField"
	ReasonInvalidMarks = "InvalidMarks"
	ReasonInvalidDob   = "InvalidDob"
)

// UploadSummary is the per-upload processing result.
type UploadSummary struct {
	RowsTotal     int          `json:"rows_total"`
	RowsSucceeded int          `json:"rows_succeeded"`
	RowsFailed    int          `json:"rows_failed"`
	Errors        []RowFailure `json:"errors"`
}
