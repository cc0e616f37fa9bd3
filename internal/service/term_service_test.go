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

type mockTermRepo struct {
	terms   map[string]models.Term
	created *models.Term
}

func (m *mockTermRepo) List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error) {
	return nil, 0, nil
}

func (m *mockTermRepo) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if t, ok := m.terms[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTermRepo) Create(ctx context.Context, term *models.Term) error {
	if m.terms == nil {
		m.terms = make(map[string]models.Term)
	}
	if term.ID == "" {
		term.ID = "new-term"
	}
	m.terms[term.ID] = *term
	m.created = term
	return nil
}

func (m *mockTermRepo) Update(ctx context.Context, term *models.Term) error {
	m.terms[term.ID] = *term
	return nil
}

func (m *mockTermRepo) Delete(ctx context.Context, id string) error {
	delete(m.terms, id)
	return nil
}

type mockSessionLoader struct {
	sessions map[string]models.AcademicSession
}

func (m *mockSessionLoader) FindByID(ctx context.Context, id string) (*models.AcademicSession, error) {
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockCalendarInvalidator struct {
	invalidated []string
}

func (m *mockCalendarInvalidator) Invalidate(ctx context.Context, sessionID string) error {
	m.invalidated = append(m.invalidated, sessionID)
	return nil
}

func schoolYearSession(id string) models.AcademicSession {
	return models.AcademicSession{
		ID:        id,
		TenantID:  "ten-1",
		Name:      "2025-26",
		StartDate: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestTermServiceCreateNestedTerm(t *testing.T) {
	repo := &mockTermRepo{}
	sessions := &mockSessionLoader{sessions: map[string]models.AcademicSession{"ses-1": schoolYearSession("ses-1")}}
	calendars := &mockCalendarInvalidator{}
	svc := NewTermService(repo, sessions, calendars, nil, nil)

	term, err := svc.Create(context.Background(), CreateTermRequest{
		AcademicSessionID: "ses-1",
		Name:              "Term 1",
		StartDate:         "2025-04-01",
		EndDate:           "2025-09-30",
	})
	require.NoError(t, err)
	assert.Equal(t, "Term 1", term.Name)
	assert.Equal(t, []string{"ses-1"}, calendars.invalidated)
}

func TestTermServiceCreateAcceptsExactSessionBounds(t *testing.T) {
	repo := &mockTermRepo{}
	sessions := &mockSessionLoader{sessions: map[string]models.AcademicSession{"ses-1": schoolYearSession("ses-1")}}
	svc := NewTermService(repo, sessions, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateTermRequest{
		AcademicSessionID: "ses-1",
		Name:              "Full Year",
		StartDate:         "2025-04-01",
		EndDate:           "2026-03-31",
	})
	require.NoError(t, err)
}

func TestTermServiceCreateRejectsTermStartingBeforeSession(t *testing.T) {
	repo := &mockTermRepo{}
	sessions := &mockSessionLoader{sessions: map[string]models.AcademicSession{"ses-1": schoolYearSession("ses-1")}}
	svc := NewTermService(repo, sessions, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateTermRequest{
		AcademicSessionID: "ses-1",
		Name:              "Early Term",
		StartDate:         "2025-03-15",
		EndDate:           "2025-09-30",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOutOfSessionBounds.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestTermServiceCreateRejectsInvertedRangeBeforeBoundsCheck(t *testing.T) {
	repo := &mockTermRepo{}
	sessions := &mockSessionLoader{sessions: map[string]models.AcademicSession{"ses-1": schoolYearSession("ses-1")}}
	svc := NewTermService(repo, sessions, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateTermRequest{
		AcademicSessionID: "ses-1",
		Name:              "Backwards",
		StartDate:         "2025-09-30",
		EndDate:           "2025-04-01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)
}

func TestTermServiceCreateUnknownSession(t *testing.T) {
	repo := &mockTermRepo{}
	sessions := &mockSessionLoader{}
	svc := NewTermService(repo, sessions, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateTermRequest{
		AcademicSessionID: "missing",
		Name:              "Term 1",
		StartDate:         "2025-04-01",
		EndDate:           "2025-09-30",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTermServiceUpdateRevalidatesBounds(t *testing.T) {
	repo := &mockTermRepo{terms: map[string]models.Term{
		"term-1": {
			ID:                "term-1",
			AcademicSessionID: "ses-1",
			Name:              "Term 1",
			StartDate:         time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
			EndDate:           time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC),
		},
	}}
	sessions := &mockSessionLoader{sessions: map[string]models.AcademicSession{"ses-1": schoolYearSession("ses-1")}}
	svc := NewTermService(repo, sessions, nil, nil, nil)

	_, err := svc.Update(context.Background(), "term-1", UpdateTermRequest{
		Name:      "Term 1",
		StartDate: "2025-04-01",
		EndDate:   "2026-04-15",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOutOfSessionBounds.Code, appErrors.FromError(err).Code)
	assert.Equal(t, time.September, repo.terms["term-1"].EndDate.Month())
}
