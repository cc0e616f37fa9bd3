package academic

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

func date(raw string) time.Time {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		panic(err)
	}
	return t
}

func sessionRange(t *testing.T, start, end string) DateRange {
	t.Helper()
	r, err := NewDateRange(date(start), date(end))
	require.NoError(t, err)
	return r
}

func TestValidateSessionPeriod(t *testing.T) {
	assert.NoError(t, ValidateSessionPeriod(date("2025-04-01"), date("2026-03-31")))
	assert.NoError(t, ValidateSessionPeriod(date("2025-04-01"), date("2025-04-01")))

	err := ValidateSessionPeriod(date("2026-03-31"), date("2025-04-01"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErr.Code)
}

func TestDateOnlyIgnoresTimeOfDay(t *testing.T) {
	session := sessionRange(t, "2025-04-01", "2026-03-31")

	late := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	assert.True(t, session.Contains(late))

	ist := time.FixedZone("IST", 5*3600+1800)
	assert.True(t, session.Contains(time.Date(2025, 4, 1, 5, 0, 0, 0, ist)))
}

func TestValidateTermPeriod(t *testing.T) {
	session := sessionRange(t, "2025-04-01", "2026-03-31")

	t.Run("nested", func(t *testing.T) {
		assert.NoError(t, ValidateTermPeriod(date("2025-04-01"), date("2025-09-30"), session))
	})

	t.Run("exact session bounds accepted", func(t *testing.T) {
		assert.NoError(t, ValidateTermPeriod(date("2025-04-01"), date("2026-03-31"), session))
	})

	t.Run("starts before session", func(t *testing.T) {
		err := ValidateTermPeriod(date("2025-03-01"), date("2025-06-01"), session)
		assert.ErrorIs(t, err, appErrors.ErrOutOfSessionBounds)
	})

	t.Run("ends after session", func(t *testing.T) {
		err := ValidateTermPeriod(date("2025-10-01"), date("2026-04-15"), session)
		assert.ErrorIs(t, err, appErrors.ErrOutOfSessionBounds)
	})

	t.Run("inverted range beats bounds check", func(t *testing.T) {
		err := ValidateTermPeriod(date("2025-06-01"), date("2025-05-01"), session)
		assert.ErrorIs(t, err, appErrors.ErrInvalidRange)
	})
}

func TestValidateHolidayDate(t *testing.T) {
	session := sessionRange(t, "2025-04-01", "2026-03-31")

	assert.NoError(t, ValidateHolidayDate(date("2025-12-25"), session))
	assert.NoError(t, ValidateHolidayDate(date("2025-04-01"), session))
	assert.NoError(t, ValidateHolidayDate(date("2026-03-31"), session))

	assert.ErrorIs(t, ValidateHolidayDate(date("2025-03-31"), session), appErrors.ErrOutOfSessionBounds)
	assert.ErrorIs(t, ValidateHolidayDate(date("2026-04-01"), session), appErrors.ErrOutOfSessionBounds)
}

func TestParseDate(t *testing.T) {
	parsed, err := ParseDate("2025-04-01")
	require.NoError(t, err)
	assert.Equal(t, date("2025-04-01"), parsed)

	_, err = ParseDate("01/04/2025")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
