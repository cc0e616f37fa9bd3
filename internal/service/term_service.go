package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shikshahub/shiksha-api/internal/academic"
	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

type termRepository interface {
	List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error)
	FindByID(ctx context.Context, id string) (*models.Term, error)
	Create(ctx context.Context, term *models.Term) error
	Update(ctx context.Context, term *models.Term) error
	Delete(ctx context.Context, id string) error
}

type sessionLoader interface {
	FindByID(ctx context.Context, id string) (*models.AcademicSession, error)
}

// CreateTermRequest describes payload for creating terms within a session.
type CreateTermRequest struct {
	AcademicSessionID string `json:"academic_session_id" validate:"required"`
	Name              string `json:"name" validate:"required"`
	StartDate         string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate           string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// UpdateTermRequest updates mutable fields on a term.
type UpdateTermRequest struct {
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// TermService orchestrates term workflows within academic sessions.
type TermService struct {
	repo      termRepository
	sessions  sessionLoader
	calendars calendarInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTermService creates a new term service instance.
func NewTermService(repo termRepository, sessions sessionLoader, calendars calendarInvalidator, validate *validator.Validate, logger *zap.Logger) *TermService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{repo: repo, sessions: sessions, calendars: calendars, validator: validate, logger: logger}
}

// List returns paginated terms.
func (s *TermService) List(ctx context.Context, filter models.TermFilter) ([]models.Term, *models.Pagination, error) {
	terms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
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
	return terms, pagination, nil
}

// Get returns a term by ID.
func (s *TermService) Get(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

func (s *TermService) sessionRange(ctx context.Context, sessionID string) (academic.DateRange, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return academic.DateRange{}, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return academic.DateRange{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return academic.NewDateRange(session.StartDate, session.EndDate)
}

// Create adds a term after checking that its range nests inside the parent
// session.
func (s *TermService) Create(ctx context.Context, req CreateTermRequest) (*models.Term, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}

	start, err := academic.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := academic.ParseDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	bounds, err := s.sessionRange(ctx, req.AcademicSessionID)
	if err != nil {
		return nil, err
	}
	if err := academic.ValidateTermPeriod(start, end, bounds); err != nil {
		return nil, err
	}

	term := &models.Term{
		AcademicSessionID: req.AcademicSessionID,
		Name:              req.Name,
		StartDate:         academic.DateOnly(start),
		EndDate:           academic.DateOnly(end),
	}

	if err := s.repo.Create(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create term")
	}

	s.invalidateCalendar(ctx, term.AcademicSessionID)
	return term, nil
}

// Update modifies a term record, revalidating against the parent session.
func (s *TermService) Update(ctx context.Context, id string, req UpdateTermRequest) (*models.Term, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}

	start, err := academic.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := academic.ParseDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	bounds, err := s.sessionRange(ctx, term.AcademicSessionID)
	if err != nil {
		return nil, err
	}
	if err := academic.ValidateTermPeriod(start, end, bounds); err != nil {
		return nil, err
	}

	term.Name = req.Name
	term.StartDate = academic.DateOnly(start)
	term.EndDate = academic.DateOnly(end)

	if err := s.repo.Update(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update term")
	}

	s.invalidateCalendar(ctx, term.AcademicSessionID)
	return term, nil
}

// Delete removes a term permanently.
func (s *TermService) Delete(ctx context.Context, id string) error {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete term")
	}

	s.invalidateCalendar(ctx, term.AcademicSessionID)
	return nil
}

func (s *TermService) invalidateCalendar(ctx context.Context, sessionID string) {
	if s.calendars == nil {
		return
	}
	if err := s.calendars.Invalidate(ctx, sessionID); err != nil {
		s.logger.Warn("failed to invalidate calendar cache", zap.Error(err), zap.String("session_id", sessionID))
	}
}
