package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shikshahub/shiksha-api/internal/academic"
	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.AcademicSession, int, error)
	FindByID(ctx context.Context, id string) (*models.AcademicSession, error)
	FindActiveByTenant(ctx context.Context, tenantID string) (*models.AcademicSession, error)
	ExistsByName(ctx context.Context, tenantID, name, excludeID string) (bool, error)
	Create(ctx context.Context, session *models.AcademicSession) error
	Update(ctx context.Context, session *models.AcademicSession) error
	Activate(ctx context.Context, tenantID, id string) error
	Delete(ctx context.Context, id string) error
	CountSubPeriods(ctx context.Context, id string) (int, error)
	SubPeriodBounds(ctx context.Context, id string) (*models.PeriodBounds, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type calendarInvalidator interface {
	Invalidate(ctx context.Context, sessionID string) error
}

// CreateSessionRequest describes payload for creating academic sessions.
type CreateSessionRequest struct {
	TenantID  string `json:"tenant_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// UpdateSessionRequest updates mutable fields on a session. Activation is a
// separate operation and never part of an update.
type UpdateSessionRequest struct {
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// ActivateSessionRequest designates the tenant's active session.
type ActivateSessionRequest struct {
	TenantID  string `json:"tenant_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
}

// SessionService orchestrates academic session workflows.
type SessionService struct {
	repo      sessionRepository
	audits    auditWriter
	calendars calendarInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService creates a new session service instance.
func NewSessionService(repo sessionRepository, audits auditWriter, calendars calendarInvalidator, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, audits: audits, calendars: calendars, validator: validate, logger: logger}
}

// List returns paginated sessions.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.AcademicSession, *models.Pagination, error) {
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	pagination := &models.Pagination{
		Page:       page,
		PageSize:   size,
		TotalCount: total,
	}
	return sessions, pagination, nil
}

// Get returns a session by ID.
func (s *SessionService) Get(ctx context.Context, id string) (*models.AcademicSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// GetActive returns the tenant's currently active session.
func (s *SessionService) GetActive(ctx context.Context, tenantID string) (*models.AcademicSession, error) {
	session, err := s.repo.FindActiveByTenant(ctx, tenantID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active session for tenant")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active session")
	}
	return session, nil
}

// Create adds a new session after validating its date range and name
// uniqueness within the tenant. New sessions always start inactive.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*models.AcademicSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	start, err := academic.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := academic.ParseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if err := academic.ValidateSessionPeriod(start, end); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, req.TenantID, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check session uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "session name already used for tenant")
	}

	session := &models.AcademicSession{
		TenantID:  req.TenantID,
		Name:      req.Name,
		StartDate: academic.DateOnly(start),
		EndDate:   academic.DateOnly(end),
		IsActive:  false,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	return session, nil
}

// Update modifies a session's name and date range. The new range must still
// contain every term and holiday already accepted under the session.
func (s *SessionService) Update(ctx context.Context, id string, req UpdateSessionRequest) (*models.AcademicSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	start, err := academic.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := academic.ParseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	sessionRange, err := academic.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	exists, err := s.repo.ExistsByName(ctx, session.TenantID, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check session uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "session name already used for tenant")
	}

	bounds, err := s.repo.SubPeriodBounds(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check session sub-periods")
	}
	if bounds != nil {
		span := academic.DateRange{Start: academic.DateOnly(bounds.Start), End: academic.DateOnly(bounds.End)}
		if !sessionRange.ContainsRange(span) {
			return nil, appErrors.Clone(appErrors.ErrOutOfSessionBounds, "new range excludes existing terms or holidays")
		}
	}

	session.Name = req.Name
	session.StartDate = sessionRange.Start
	session.EndDate = sessionRange.End

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}

	s.invalidateCalendar(ctx, session.ID)
	return session, nil
}

// Activate designates the session as the tenant's active one. The repository
// flips the previous active session off and the target on in a single
// transaction, so readers never observe zero or two active sessions.
func (s *SessionService) Activate(ctx context.Context, req ActivateSessionRequest, actorID string) (*models.AcademicSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activate payload")
	}

	session, err := s.repo.FindByID(ctx, req.SessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.TenantID != req.TenantID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}

	if err := s.repo.Activate(ctx, req.TenantID, req.SessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate session")
	}
	session.IsActive = true

	s.recordActivation(ctx, session, actorID)
	s.invalidateCalendar(ctx, session.ID)
	return session, nil
}

func (s *SessionService) invalidateCalendar(ctx context.Context, sessionID string) {
	if s.calendars == nil {
		return
	}
	if err := s.calendars.Invalidate(ctx, sessionID); err != nil {
		s.logger.Warn("failed to invalidate calendar cache", zap.Error(err), zap.String("session_id", sessionID))
	}
}

func (s *SessionService) recordActivation(ctx context.Context, session *models.AcademicSession, actorID string) {
	if s.audits == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{"tenant_id": session.TenantID, "name": session.Name})
	entry := &models.AuditLog{
		Action:     models.AuditActionSessionActivate,
		Resource:   "academic_session",
		ResourceID: &session.ID,
		NewValues:  payload,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record session activation audit", zap.Error(err), zap.String("session_id", session.ID))
	}
}

// Delete removes a session when it is inactive and has no terms or holidays.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	if session.IsActive {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot delete active session")
	}

	count, err := s.repo.CountSubPeriods(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check session dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "session has terms or holidays associated")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}

	s.invalidateCalendar(ctx, id)
	return nil
}
