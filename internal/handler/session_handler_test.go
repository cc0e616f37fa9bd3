package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikshahub/shiksha-api/internal/middleware"
	"github.com/shikshahub/shiksha-api/internal/models"
	"github.com/shikshahub/shiksha-api/internal/service"
)

type sessionRepoStub struct {
	sessions  map[string]*models.AcademicSession
	created   *models.AcademicSession
	activated string
}

func (s *sessionRepoStub) List(ctx context.Context, filter models.SessionFilter) ([]models.AcademicSession, int, error) {
	out := make([]models.AcademicSession, 0, len(s.sessions))
	for _, ses := range s.sessions {
		out = append(out, *ses)
	}
	return out, len(out), nil
}

func (s *sessionRepoStub) FindByID(ctx context.Context, id string) (*models.AcademicSession, error) {
	if ses, ok := s.sessions[id]; ok {
		copied := *ses
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *sessionRepoStub) FindActiveByTenant(ctx context.Context, tenantID string) (*models.AcademicSession, error) {
	for _, ses := range s.sessions {
		if ses.TenantID == tenantID && ses.IsActive {
			copied := *ses
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *sessionRepoStub) ExistsByName(ctx context.Context, tenantID, name, excludeID string) (bool, error) {
	return false, nil
}

func (s *sessionRepoStub) Create(ctx context.Context, session *models.AcademicSession) error {
	s.created = session
	return nil
}

func (s *sessionRepoStub) Update(ctx context.Context, session *models.AcademicSession) error {
	return nil
}

func (s *sessionRepoStub) Activate(ctx context.Context, tenantID, id string) error {
	s.activated = id
	return nil
}

func (s *sessionRepoStub) Delete(ctx context.Context, id string) error { return nil }

func (s *sessionRepoStub) CountSubPeriods(ctx context.Context, id string) (int, error) {
	return 0, nil
}

func (s *sessionRepoStub) SubPeriodBounds(ctx context.Context, id string) (*models.PeriodBounds, error) {
	return nil, nil
}

func newSessionTestHandler(repo *sessionRepoStub) *SessionHandler {
	svc := service.NewSessionService(repo, nil, nil, nil, nil)
	return NewSessionHandler(svc, nil)
}

func TestSessionHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &sessionRepoStub{sessions: map[string]*models.AcademicSession{}}
	handler := newSessionTestHandler(repo)

	payload, _ := json.Marshal(service.CreateSessionRequest{
		TenantID:  "ten-1",
		Name:      "2025-26",
		StartDate: "2025-04-01",
		EndDate:   "2026-03-31",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, repo.created)
	assert.False(t, repo.created.IsActive)
}

func TestSessionHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSessionTestHandler(&sessionRepoStub{sessions: map[string]*models.AcademicSession{}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/sessions", bytes.NewBufferString(`{"name":"2025-26"`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerCreateInvertedRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSessionTestHandler(&sessionRepoStub{sessions: map[string]*models.AcademicSession{}})

	payload, _ := json.Marshal(service.CreateSessionRequest{
		TenantID:  "ten-1",
		Name:      "2025-26",
		StartDate: "2026-03-31",
		EndDate:   "2025-04-01",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_RANGE")
}

func TestSessionHandlerActivate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &sessionRepoStub{sessions: map[string]*models.AcademicSession{
		"ses-1": {ID: "ses-1", TenantID: "ten-1", Name: "2025-26"},
	}}
	handler := newSessionTestHandler(repo)

	payload, _ := json.Marshal(service.ActivateSessionRequest{TenantID: "ten-1", SessionID: "ses-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/sessions/activate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleTenantAdmin})

	handler.Activate(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ses-1", repo.activated)
}

func TestSessionHandlerActivateForeignTenant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &sessionRepoStub{sessions: map[string]*models.AcademicSession{
		"ses-1": {ID: "ses-1", TenantID: "ten-2", Name: "2025-26"},
	}}
	handler := newSessionTestHandler(repo)

	payload, _ := json.Marshal(service.ActivateSessionRequest{TenantID: "ten-1", SessionID: "ses-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/sessions/activate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleTenantAdmin})

	handler.Activate(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, repo.activated)
}
