package models

import "time"

// AdmissionStatus represents the lifecycle of a student admission.
type AdmissionStatus string

// Possible admission statuses. APPROVED and REJECTED are terminal.
const (
	AdmissionStatusPending  AdmissionStatus = "PENDING"
	AdmissionStatusApproved AdmissionStatus = "APPROVED"
	AdmissionStatusRejected AdmissionStatus = "REJECTED"
)

// StudentAdmission records a student's request for a place in a school and
// grade. Approval assigns the student to the school; rejection ends the
// record. Re-admission requires a new record.
type StudentAdmission struct {
	ID            string          `db:"id" json:"id"`
	StudentID     string          `db:"student_id" json:"student_id"`
	SchoolID      string          `db:"school_id" json:"school_id"`
	GradeID       string          `db:"grade_id" json:"grade_id"`
	AdmissionDate time.Time       `db:"admission_date" json:"admission_date"`
	Status        AdmissionStatus `db:"status" json:"status"`
	Remarks       string          `db:"remarks" json:"remarks"`
	DecidedAt     *time.Time      `db:"decided_at" json:"decided_at,omitempty"`
	DecidedBy     *string         `db:"decided_by" json:"decided_by,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// AdmissionDetail enriches StudentAdmission with student and school info.
type AdmissionDetail struct {
	StudentAdmission
	StudentName string `db:"student_name" json:"student_name"`
	SchoolName  string `db:"school_name" json:"school_name"`
	GradeName   string `db:"grade_name" json:"grade_name"`
}

// AdmissionFilter provides filters for listing admissions.
type AdmissionFilter struct {
	SchoolID  string
	GradeID   string
	StudentID string
	Status    AdmissionStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
