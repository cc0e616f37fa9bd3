package models

import "time"

// EnrollmentStatus represents the lifecycle of a section enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. TRANSFERRED and WITHDRAWN are terminal.
const (
	EnrollmentStatusActive      EnrollmentStatus = "ACTIVE"
	EnrollmentStatusTransferred EnrollmentStatus = "TRANSFERRED"
	EnrollmentStatusWithdrawn   EnrollmentStatus = "WITHDRAWN"
)

// Enrollment captures a student's placement into a section for an academic
// session. At most one ACTIVE enrollment exists per (student, section).
type Enrollment struct {
	ID                string           `db:"id" json:"id"`
	SectionID         string           `db:"section_id" json:"section_id"`
	StudentID         string           `db:"student_id" json:"student_id"`
	AcademicSessionID string           `db:"academic_session_id" json:"academic_session_id"`
	EnrolledAt        time.Time        `db:"enrolled_at" json:"enrolled_at"`
	LeftAt            *time.Time       `db:"left_at" json:"left_at,omitempty"`
	Status            EnrollmentStatus `db:"status" json:"status"`
}

// EnrollmentDetail enriches Enrollment with student and section info.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	AdmissionNo string `db:"admission_no" json:"admission_no"`
	SectionName string `db:"section_name" json:"section_name"`
	GradeName   string `db:"grade_name" json:"grade_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID         string
	SectionID         string
	AcademicSessionID string
	Status            EnrollmentStatus
	Page              int
	PageSize          int
	SortBy            string
	SortOrder         string
}
