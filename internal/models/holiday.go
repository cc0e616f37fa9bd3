package models

import "time"

// Holiday is a single-date exception inside an academic session.
type Holiday struct {
	ID                string    `db:"id" json:"id"`
	AcademicSessionID string    `db:"academic_session_id" json:"academic_session_id"`
	Name              string    `db:"name" json:"name"`
	Date              time.Time `db:"date" json:"date"`
	Description       *string   `db:"description" json:"description,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// HolidayFilter defines filters supported by holiday list endpoints.
type HolidayFilter struct {
	AcademicSessionID string
	Page              int
	PageSize          int
	SortBy            string
	SortOrder         string
}
