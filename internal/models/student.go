package models

import "time"

// Student is keyed by the institution-issued register number. Name and date
// of birth follow the most recent upload (last write wins).
type Student struct {
	RegisterNumber string    `db:"register_number" json:"register_number"`
	StudentName    string    `db:"student_name" json:"student_name"`
	DateOfBirth    time.Time `db:"date_of_birth" json:"date_of_birth"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// MarkRecord holds one subject score for a student. At most one record
// exists per (register_number, subject_code); re-uploads overwrite it.
type MarkRecord struct {
	ID             string    `db:"id" json:"-"`
	RegisterNumber string    `db:"register_number" json:"register_number"`
	SubjectCode    string    `db:"subject_code" json:"subject_code"`
	Marks          float64   `db:"marks" json:"marks"`
	UploadedBy     string    `db:"uploaded_by" json:"uploaded_by"`
	UploadedAt     time.Time `db:"uploaded_at" json:"uploaded_at"`
	SourceFile     string    `db:"source_file" json:"-"`
}

// LookupRequest is the public self-service query payload.
type LookupRequest struct {
	RegisterNumber string `json:"register_number" binding:"required"`
	DOB            string `json:"dob" binding:"required"`
}

// MarkInfo is the per-subject entry returned to students.
type MarkInfo struct {
	SubjectCode string    `json:"subject_code"`
	Marks       float64   `json:"marks"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// LookupResponse is returned for both matches and non-matches. A non-match
// carries an empty name and empty marks so the two cases are shaped alike.
type LookupResponse struct {
	StudentName string     `json:"student_name"`
	Marks       []MarkInfo `json:"marks"`
}
