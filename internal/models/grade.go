package models

import "time"

// Grade is an ordered level within a school (e.g. "Grade 5" at level 5).
// Level is unique within its school.
type Grade struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	Name      string    `db:"name" json:"name"`
	Level     int       `db:"level" json:"level"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GradeFilter narrows grade listings.
type GradeFilter struct {
	SchoolID  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Section is a named division of a grade holding enrolled students.
type Section struct {
	ID        string    `db:"id" json:"id"`
	GradeID   string    `db:"grade_id" json:"grade_id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SectionFilter narrows section listings.
type SectionFilter struct {
	GradeID   string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
