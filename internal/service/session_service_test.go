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

type mockSessionRepo struct {
	sessions   map[string]models.AcademicSession
	names      map[string]bool
	created    *models.AcademicSession
	activated  []string
	subPeriods map[string]int
	bounds     map[string]*models.PeriodBounds
}

func (m *mockSessionRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.AcademicSession, int, error) {
	return nil, 0, nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.AcademicSession, error) {
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) FindActiveByTenant(ctx context.Context, tenantID string) (*models.AcademicSession, error) {
	for _, s := range m.sessions {
		if s.TenantID == tenantID && s.IsActive {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) ExistsByName(ctx context.Context, tenantID, name, excludeID string) (bool, error) {
	return m.names[tenantID+"/"+name], nil
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.AcademicSession) error {
	if m.sessions == nil {
		m.sessions = make(map[string]models.AcademicSession)
	}
	if session.ID == "" {
		session.ID = "new-session"
	}
	m.sessions[session.ID] = *session
	m.created = session
	return nil
}

func (m *mockSessionRepo) Update(ctx context.Context, session *models.AcademicSession) error {
	m.sessions[session.ID] = *session
	return nil
}

func (m *mockSessionRepo) Activate(ctx context.Context, tenantID, id string) error {
	target, ok := m.sessions[id]
	if !ok || target.TenantID != tenantID {
		return sql.ErrNoRows
	}
	for key, s := range m.sessions {
		if s.TenantID == tenantID {
			s.IsActive = key == id
			m.sessions[key] = s
		}
	}
	m.activated = append(m.activated, id)
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) CountSubPeriods(ctx context.Context, id string) (int, error) {
	return m.subPeriods[id], nil
}

func (m *mockSessionRepo) SubPeriodBounds(ctx context.Context, id string) (*models.PeriodBounds, error) {
	return m.bounds[id], nil
}

type mockAuditWriter struct {
	entries []models.AuditLog
}

func (m *mockAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.entries = append(m.entries, *log)
	return nil
}

func TestSessionServiceCreateRejectsInvertedRange(t *testing.T) {
	repo := &mockSessionRepo{}
	svc := NewSessionService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateSessionRequest{
		TenantID:  "ten-1",
		Name:      "2025-26",
		StartDate: "2026-03-31",
		EndDate:   "2025-04-01",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErr.Code)
	assert.Nil(t, repo.created)
}

func TestSessionServiceCreateStartsInactive(t *testing.T) {
	repo := &mockSessionRepo{}
	svc := NewSessionService(repo, nil, nil, nil, nil)

	session, err := svc.Create(context.Background(), CreateSessionRequest{
		TenantID:  "ten-1",
		Name:      "2025-26",
		StartDate: "2025-04-01",
		EndDate:   "2026-03-31",
	})
	require.NoError(t, err)
	assert.False(t, session.IsActive)
	assert.Equal(t, time.April, session.StartDate.Month())
}

func TestSessionServiceCreateRejectsDuplicateName(t *testing.T) {
	repo := &mockSessionRepo{names: map[string]bool{"ten-1/2025-26": true}}
	svc := NewSessionService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateSessionRequest{
		TenantID:  "ten-1",
		Name:      "2025-26",
		StartDate: "2025-04-01",
		EndDate:   "2026-03-31",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceActivateSwapsActiveSession(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]models.AcademicSession{
		"ses-1": {ID: "ses-1", TenantID: "ten-1", Name: "2024-25", IsActive: true},
		"ses-2": {ID: "ses-2", TenantID: "ten-1", Name: "2025-26"},
	}}
	audits := &mockAuditWriter{}
	svc := NewSessionService(repo, audits, nil, nil, nil)

	session, err := svc.Activate(context.Background(), ActivateSessionRequest{TenantID: "ten-1", SessionID: "ses-2"}, "user-1")
	require.NoError(t, err)
	assert.True(t, session.IsActive)

	active, err := repo.FindActiveByTenant(context.Background(), "ten-1")
	require.NoError(t, err)
	assert.Equal(t, "ses-2", active.ID)
	assert.False(t, repo.sessions["ses-1"].IsActive)

	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionSessionActivate, audits.entries[0].Action)
}

func TestSessionServiceActivateRejectsForeignTenant(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]models.AcademicSession{
		"ses-1": {ID: "ses-1", TenantID: "ten-2", Name: "2025-26"},
	}}
	svc := NewSessionService(repo, nil, nil, nil, nil)

	_, err := svc.Activate(context.Background(), ActivateSessionRequest{TenantID: "ten-1", SessionID: "ses-1"}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.activated)
}

func TestSessionServiceUpdateRejectsRangeExcludingSubPeriods(t *testing.T) {
	repo := &mockSessionRepo{
		sessions: map[string]models.AcademicSession{
			"ses-1": {
				ID:        "ses-1",
				TenantID:  "ten-1",
				Name:      "2025-26",
				StartDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
			},
		},
		bounds: map[string]*models.PeriodBounds{
			"ses-1": {
				Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC),
			},
		},
	}
	svc := NewSessionService(repo, nil, nil, nil, nil)

	// Shrinking past the first term's start would orphan it.
	_, err := svc.Update(context.Background(), "ses-1", UpdateSessionRequest{
		Name:      "2025-26",
		StartDate: "2025-04-01",
		EndDate:   "2025-05-31",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOutOfSessionBounds.Code, appErrors.FromError(err).Code)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), repo.sessions["ses-1"].EndDate)

	// A narrower range that still holds every sub-period is fine.
	updated, err := svc.Update(context.Background(), "ses-1", UpdateSessionRequest{
		Name:      "2025-26",
		StartDate: "2025-05-01",
		EndDate:   "2025-10-31",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC), updated.EndDate)
}

func TestSessionServiceWritesInvalidateCalendar(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]models.AcademicSession{
		"ses-1": {
			ID:        "ses-1",
			TenantID:  "ten-1",
			Name:      "2025-26",
			StartDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		},
	}}
	calendars := &mockCalendarInvalidator{}
	svc := NewSessionService(repo, nil, calendars, nil, nil)

	_, err := svc.Update(context.Background(), "ses-1", UpdateSessionRequest{
		Name:      "2025-26 revised",
		StartDate: "2025-04-01",
		EndDate:   "2026-03-31",
	})
	require.NoError(t, err)

	_, err = svc.Activate(context.Background(), ActivateSessionRequest{TenantID: "ten-1", SessionID: "ses-1"}, "user-1")
	require.NoError(t, err)

	repo.sessions["ses-1"] = models.AcademicSession{ID: "ses-1", TenantID: "ten-1", Name: "2025-26 revised"}
	require.NoError(t, svc.Delete(context.Background(), "ses-1"))

	assert.Equal(t, []string{"ses-1", "ses-1", "ses-1"}, calendars.invalidated)
}

func TestSessionServiceDeleteGuards(t *testing.T) {
	repo := &mockSessionRepo{
		sessions: map[string]models.AcademicSession{
			"active": {ID: "active", TenantID: "ten-1", IsActive: true},
			"busy":   {ID: "busy", TenantID: "ten-1"},
			"empty":  {ID: "empty", TenantID: "ten-1"},
		},
		subPeriods: map[string]int{"busy": 3},
	}
	svc := NewSessionService(repo, nil, nil, nil, nil)

	err := svc.Delete(context.Background(), "active")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), "busy")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), "empty"))
	_, ok := repo.sessions["empty"]
	assert.False(t, ok)
}
