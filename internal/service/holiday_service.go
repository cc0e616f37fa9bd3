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

type holidayRepository interface {
	List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, int, error)
	FindByID(ctx context.Context, id string) (*models.Holiday, error)
	Create(ctx context.Context, holiday *models.Holiday) error
	Update(ctx context.Context, holiday *models.Holiday) error
	Delete(ctx context.Context, id string) error
}

// CreateHolidayRequest describes payload for declaring a holiday.
type CreateHolidayRequest struct {
	AcademicSessionID string  `json:"academic_session_id" validate:"required"`
	Name              string  `json:"name" validate:"required"`
	Date              string  `json:"date" validate:"required,datetime=2006-01-02"`
	Description       *string `json:"description"`
}

// UpdateHolidayRequest updates mutable fields on a holiday.
type UpdateHolidayRequest struct {
	Name        string  `json:"name" validate:"required"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Description *string `json:"description"`
}

// HolidayService orchestrates holiday workflows within academic sessions.
type HolidayService struct {
	repo      holidayRepository
	sessions  sessionLoader
	calendars calendarInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHolidayService creates a new holiday service instance.
func NewHolidayService(repo holidayRepository, sessions sessionLoader, calendars calendarInvalidator, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolidayService{repo: repo, sessions: sessions, calendars: calendars, validator: validate, logger: logger}
}

// List returns paginated holidays.
func (s *HolidayService) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, *models.Pagination, error) {
	holidays, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list holidays")
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
	return holidays, pagination, nil
}

// Get returns a holiday by ID.
func (s *HolidayService) Get(ctx context.Context, id string) (*models.Holiday, error) {
	holiday, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holiday")
	}
	return holiday, nil
}

func (s *HolidayService) sessionRange(ctx context.Context, sessionID string) (academic.DateRange, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return academic.DateRange{}, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return academic.DateRange{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return academic.NewDateRange(session.StartDate, session.EndDate)
}

// Create declares a holiday after checking it falls inside the parent
// session's range, boundaries included.
func (s *HolidayService) Create(ctx context.Context, req CreateHolidayRequest) (*models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}

	date, err := academic.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	bounds, err := s.sessionRange(ctx, req.AcademicSessionID)
	if err != nil {
		return nil, err
	}
	if err := academic.ValidateHolidayDate(date, bounds); err != nil {
		return nil, err
	}

	holiday := &models.Holiday{
		AcademicSessionID: req.AcademicSessionID,
		Name:              req.Name,
		Date:              academic.DateOnly(date),
		Description:       req.Description,
	}

	if err := s.repo.Create(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create holiday")
	}

	s.invalidateCalendar(ctx, holiday.AcademicSessionID)
	return holiday, nil
}

// Update modifies a holiday, revalidating against the parent session.
func (s *HolidayService) Update(ctx context.Context, id string, req UpdateHolidayRequest) (*models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}

	date, err := academic.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	holiday, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holiday")
	}

	bounds, err := s.sessionRange(ctx, holiday.AcademicSessionID)
	if err != nil {
		return nil, err
	}
	if err := academic.ValidateHolidayDate(date, bounds); err != nil {
		return nil, err
	}

	holiday.Name = req.Name
	holiday.Date = academic.DateOnly(date)
	holiday.Description = req.Description

	if err := s.repo.Update(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update holiday")
	}

	s.invalidateCalendar(ctx, holiday.AcademicSessionID)
	return holiday, nil
}

// Delete removes a holiday permanently.
func (s *HolidayService) Delete(ctx context.Context, id string) error {
	holiday, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holiday")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete holiday")
	}

	s.invalidateCalendar(ctx, holiday.AcademicSessionID)
	return nil
}

func (s *HolidayService) invalidateCalendar(ctx context.Context, sessionID string) {
	if s.calendars == nil {
		return
	}
	if err := s.calendars.Invalidate(ctx, sessionID); err != nil {
		s.logger.Warn("failed to invalidate calendar cache", zap.Error(err), zap.String("session_id", sessionID))
	}
}
