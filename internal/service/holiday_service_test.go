package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

type mockHolidayRepo struct {
	holidays map[string]models.Holiday
	created  *models.Holiday
}

func (m *mockHolidayRepo) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, int, error) {
	return nil, 0, nil
}

func (m *mockHolidayRepo) FindByID(ctx context.Context, id string) (*models.Holiday, error) {
	if h, ok := m.holidays[id]; ok {
		return &h, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockHolidayRepo) Create(ctx context.Context, holiday *models.Holiday) error {
	if m.holidays == nil {
		m.holidays = make(map[string]models.Holiday)
	}
	if holiday.ID == "" {
		holiday.ID = "new-holiday"
	}
	m.holidays[holiday.ID] = *holiday
	m.created = holiday
	return nil
}

func (m *mockHolidayRepo) Update(ctx context.Context, holiday *models.Holiday) error {
	m.holidays[holiday.ID] = *holiday
	return nil
}

func (m *mockHolidayRepo) Delete(ctx context.Context, id string) error {
	delete(m.holidays, id)
	return nil
}

func TestHolidayServiceCreateInsideSession(t *testing.T) {
	repo := &mockHolidayRepo{}
	sessions := &mockSessionLoader{sessions: map[string]models.AcademicSession{"ses-1": schoolYearSession("ses-1")}}
	calendars := &mockCalendarInvalidator{}
	svc := NewHolidayService(repo, sessions, calendars, nil, nil)

	holiday, err := svc.Create(context.Background(), CreateHolidayRequest{
		AcademicSessionID: "ses-1",
		Name:              "Christmas",
		Date:              "2025-12-25",
	})
	require.NoError(t, err)
	assert.Equal(t, time.December, holiday.Date.Month())
	assert.Equal(t, []string{"ses-1"}, calendars.invalidated)
}

func TestHolidayServiceCreateAcceptsBoundaryDates(t *testing.T) {
	repo := &mockHolidayRepo{}
	sessions := &mockSessionLoader{sessions: map[string]models.AcademicSession{"ses-1": schoolYearSession("ses-1")}}
	svc := NewHolidayService(repo, sessions, nil, nil, nil)

	for _, date := range []string{"2025-04-01", "2026-03-31"} {
		_, err := svc.Create(context.Background(), CreateHolidayRequest{
			AcademicSessionID: "ses-1",
			Name:              "Boundary",
			Date:              date,
		})
		require.NoError(t, err, "date %s should be accepted", date)
	}
}

func TestHolidayServiceCreateRejectsDateOutsideSession(t *testing.T) {
	repo := &mockHolidayRepo{}
	sessions := &mockSessionLoader{sessions: map[string]models.AcademicSession{"ses-1": schoolYearSession("ses-1")}}
	svc := NewHolidayService(repo, sessions, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateHolidayRequest{
		AcademicSessionID: "ses-1",
		Name:              "Too Late",
		Date:              "2026-04-01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOutOfSessionBounds.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestHolidayServiceUpdateRevalidatesDate(t *testing.T) {
	repo := &mockHolidayRepo{holidays: map[string]models.Holiday{
		"hol-1": {
			ID:                "hol-1",
			AcademicSessionID: "ses-1",
			Name:              "Christmas",
			Date:              time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC),
		},
	}}
	sessions := &mockSessionLoader{sessions: map[string]models.AcademicSession{"ses-1": schoolYearSession("ses-1")}}
	svc := NewHolidayService(repo, sessions, nil, nil, nil)

	_, err := svc.Update(context.Background(), "hol-1", UpdateHolidayRequest{
		Name: "Christmas",
		Date: "2026-12-25",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOutOfSessionBounds.Code, appErrors.FromError(err).Code)
}
