package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

type feeStructureRepository interface {
	List(ctx context.Context, filter models.FeeStructureFilter) ([]models.FeeStructure, int, error)
	FindByID(ctx context.Context, id string) (*models.FeeStructure, error)
	Create(ctx context.Context, fee *models.FeeStructure) error
	Update(ctx context.Context, fee *models.FeeStructure) error
	Delete(ctx context.Context, id string) error
}

// CreateFeeStructureRequest defines a charge for a grade within a session.
// Amounts are rupees expressed in paise.
type CreateFeeStructureRequest struct {
	SchoolID          string              `json:"school_id" validate:"required"`
	AcademicSessionID string              `json:"academic_session_id" validate:"required"`
	GradeID           string              `json:"grade_id" validate:"required"`
	Name              string              `json:"name" validate:"required"`
	AmountPaise       int64               `json:"amount_paise" validate:"required,min=1"`
	Frequency         models.FeeFrequency `json:"frequency" validate:"required,oneof=MONTHLY TERMLY ANNUAL"`
}

// UpdateFeeStructureRequest updates mutable fields on a fee structure.
type UpdateFeeStructureRequest struct {
	Name        string              `json:"name" validate:"required"`
	AmountPaise int64               `json:"amount_paise" validate:"required,min=1"`
	Frequency   models.FeeFrequency `json:"frequency" validate:"required,oneof=MONTHLY TERMLY ANNUAL"`
	Active      *bool               `json:"active"`
}

// FeeStructureService orchestrates fee structure workflows.
type FeeStructureService struct {
	repo      feeStructureRepository
	grades    gradeLoader
	sessions  sessionLoader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeStructureService creates a new fee structure service instance.
func NewFeeStructureService(repo feeStructureRepository, grades gradeLoader, sessions sessionLoader, validate *validator.Validate, logger *zap.Logger) *FeeStructureService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeStructureService{repo: repo, grades: grades, sessions: sessions, validator: validate, logger: logger}
}

// List returns paginated fee structures.
func (s *FeeStructureService) List(ctx context.Context, filter models.FeeStructureFilter) ([]models.FeeStructure, *models.Pagination, error) {
	fees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee structures")
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
	return fees, pagination, nil
}

// Get returns a fee structure by ID.
func (s *FeeStructureService) Get(ctx context.Context, id string) (*models.FeeStructure, error) {
	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structure")
	}
	return fee, nil
}

// Create defines a new fee structure, checking the grade and session exist
// and that the grade belongs to the school.
func (s *FeeStructureService) Create(ctx context.Context, req CreateFeeStructureRequest) (*models.FeeStructure, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee structure payload")
	}

	grade, err := s.grades.FindByID(ctx, req.GradeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if grade.SchoolID != req.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade does not belong to school")
	}

	if _, err := s.sessions.FindByID(ctx, req.AcademicSessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	fee := &models.FeeStructure{
		SchoolID:          req.SchoolID,
		AcademicSessionID: req.AcademicSessionID,
		GradeID:           req.GradeID,
		Name:              req.Name,
		AmountPaise:       req.AmountPaise,
		Frequency:         req.Frequency,
		Active:            true,
	}

	if err := s.repo.Create(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee structure")
	}
	return fee, nil
}

// Update modifies a fee structure record.
func (s *FeeStructureService) Update(ctx context.Context, id string, req UpdateFeeStructureRequest) (*models.FeeStructure, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee structure payload")
	}

	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structure")
	}

	fee.Name = req.Name
	fee.AmountPaise = req.AmountPaise
	fee.Frequency = req.Frequency
	if req.Active != nil {
		fee.Active = *req.Active
	}

	if err := s.repo.Update(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee structure")
	}
	return fee, nil
}

// Delete removes a fee structure permanently.
func (s *FeeStructureService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fee structure")
	}
	return nil
}
