package models

import "time"

// AcademicSession is a tenant's top-level calendar period, usually a school
// year (April through March in most Indian boards). At most one session per
// tenant is active at a time.
type AcademicSession struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SessionFilter defines filters supported by session list endpoints.
type SessionFilter struct {
	TenantID  string
	IsActive  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// PeriodBounds is the envelope spanned by a session's terms and holidays:
// the earliest start and the latest end across all of them.
type PeriodBounds struct {
	Start time.Time `db:"start_date"`
	End   time.Time `db:"end_date"`
}

// SessionCalendar aggregates a session with its nested periods for
// calendar reads.
type SessionCalendar struct {
	Session  AcademicSession `json:"session"`
	Terms    []Term          `json:"terms"`
	Holidays []Holiday       `json:"holidays"`
}
