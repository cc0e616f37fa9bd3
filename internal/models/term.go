package models

import "time"

// Term is a sub-period of an academic session, such as a semester. Its date
// range nests entirely within the parent session's range.
type Term struct {
	ID                string    `db:"id" json:"id"`
	AcademicSessionID string    `db:"academic_session_id" json:"academic_session_id"`
	Name              string    `db:"name" json:"name"`
	StartDate         time.Time `db:"start_date" json:"start_date"`
	EndDate           time.Time `db:"end_date" json:"end_date"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// TermFilter defines filters supported by term list endpoints.
type TermFilter struct {
	AcademicSessionID string
	Page              int
	PageSize          int
	SortBy            string
	SortOrder         string
}
