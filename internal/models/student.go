package models

import "time"

// Student represents a learner registered with a tenant. SchoolID stays
// empty until an admission for the student is approved.
type Student struct {
	ID            string     `db:"id" json:"id"`
	TenantID      string     `db:"tenant_id" json:"tenant_id"`
	SchoolID      *string    `db:"school_id" json:"school_id,omitempty"`
	AdmissionNo   string     `db:"admission_no" json:"admission_no"`
	FullName      string     `db:"full_name" json:"full_name"`
	Gender        string     `db:"gender" json:"gender"`
	BirthDate     *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	GuardianName  string     `db:"guardian_name" json:"guardian_name"`
	GuardianPhone string     `db:"guardian_phone" json:"guardian_phone"`
	Address       string     `db:"address" json:"address"`
	Active        bool       `db:"active" json:"active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	TenantID  string
	SchoolID  string
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
