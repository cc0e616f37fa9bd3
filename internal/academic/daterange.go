// Package academic holds the pure consistency rules for the academic
// calendar and the admission/enrollment lifecycles. Functions here operate
// on in-memory values only; services wire them to storage.
package academic

import (
	"time"

	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// DateOnly strips the time-of-day component, leaving a UTC calendar date.
// All range comparisons in this package go through it so that submissions
// carrying a timezone or timestamp compare on the date alone.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO-8601 calendar date string.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date, expected YYYY-MM-DD")
	}
	return t, nil
}

// DateRange is an inclusive calendar date range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range, rejecting start after end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	start, end = DateOnly(start), DateOnly(end)
	if start.After(end) {
		return DateRange{}, appErrors.ErrInvalidRange
	}
	return DateRange{Start: start, End: end}, nil
}

// Contains reports whether the date falls within the range, boundaries
// included.
func (r DateRange) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(r.Start) && !d.After(r.End)
}

// ContainsRange reports whether inner nests entirely within r, boundaries
// included.
func (r DateRange) ContainsRange(inner DateRange) bool {
	return !inner.Start.Before(r.Start) && !inner.End.After(r.End)
}

// ValidateSessionPeriod checks a candidate academic session's date range.
func ValidateSessionPeriod(start, end time.Time) error {
	_, err := NewDateRange(start, end)
	return err
}

// ValidateTermPeriod checks a candidate term against its parent session
// range. The term's own range must be well formed and nest inside the
// session, boundaries included.
func ValidateTermPeriod(termStart, termEnd time.Time, session DateRange) error {
	term, err := NewDateRange(termStart, termEnd)
	if err != nil {
		return err
	}
	if !session.ContainsRange(term) {
		return appErrors.ErrOutOfSessionBounds
	}
	return nil
}

// ValidateHolidayDate checks that a holiday falls within its parent session.
func ValidateHolidayDate(date time.Time, session DateRange) error {
	if !session.Contains(date) {
		return appErrors.ErrOutOfSessionBounds
	}
	return nil
}
