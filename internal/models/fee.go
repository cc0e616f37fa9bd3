package models

import "time"

// FeeFrequency is the billing cadence of a fee structure.
type FeeFrequency string

const (
	FeeFrequencyMonthly FeeFrequency = "MONTHLY"
	FeeFrequencyTermly  FeeFrequency = "TERMLY"
	FeeFrequencyAnnual  FeeFrequency = "ANNUAL"
)

// FeeStructure defines a charge applied to a grade for an academic session.
// Amounts are stored in paise to avoid floating point rounding.
type FeeStructure struct {
	ID                string       `db:"id" json:"id"`
	SchoolID          string       `db:"school_id" json:"school_id"`
	AcademicSessionID string       `db:"academic_session_id" json:"academic_session_id"`
	GradeID           string       `db:"grade_id" json:"grade_id"`
	Name              string       `db:"name" json:"name"`
	AmountPaise       int64        `db:"amount_paise" json:"amount_paise"`
	Frequency         FeeFrequency `db:"frequency" json:"frequency"`
	Active            bool         `db:"active" json:"active"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

// FeeStructureFilter narrows fee structure listings.
type FeeStructureFilter struct {
	SchoolID          string
	AcademicSessionID string
	GradeID           string
	Active            *bool
	Page              int
	PageSize          int
	SortBy            string
	SortOrder         string
}
