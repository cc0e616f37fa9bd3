package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shikshahub/shiksha-api/internal/academic"
	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByAdmissionNo(ctx context.Context, tenantID, admissionNo, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest registers a learner with a tenant. School assignment
// happens later through admission approval, never here.
type CreateStudentRequest struct {
	TenantID      string `json:"tenant_id" validate:"required"`
	AdmissionNo   string `json:"admission_no" validate:"required"`
	FullName      string `json:"full_name" validate:"required"`
	Gender        string `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	BirthDate     string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
	Address       string `json:"address"`
}

// UpdateStudentRequest updates mutable fields on a student.
type UpdateStudentRequest struct {
	FullName      string `json:"full_name" validate:"required"`
	Gender        string `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	BirthDate     string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
	Address       string `json:"address"`
	Active        *bool  `json:"active"`
}

// StudentService orchestrates student workflows.
type StudentService struct {
	repo      studentRepository
	tenants   tenantLoader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService creates a new student service instance.
func NewStudentService(repo studentRepository, tenants tenantLoader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, tenants: tenants, validator: validate, logger: logger}
}

// List returns paginated students.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
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
	return students, pagination, nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := academic.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	d := academic.DateOnly(t)
	return &d, nil
}

// Create registers a student. Admission numbers are unique per tenant.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	if _, err := s.tenants.FindByID(ctx, req.TenantID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tenant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tenant")
	}

	exists, err := s.repo.ExistsByAdmissionNo(ctx, req.TenantID, req.AdmissionNo, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check admission number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "admission number already used for tenant")
	}

	birthDate, err := parseOptionalDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	student := &models.Student{
		TenantID:      req.TenantID,
		AdmissionNo:   req.AdmissionNo,
		FullName:      req.FullName,
		Gender:        req.Gender,
		BirthDate:     birthDate,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		Address:       req.Address,
		Active:        true,
	}

	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies a student's personal details. School assignment is driven
// by admission decisions and is not touched here.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	birthDate, err := parseOptionalDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	student.FullName = req.FullName
	student.Gender = req.Gender
	student.BirthDate = birthDate
	student.GuardianName = req.GuardianName
	student.GuardianPhone = req.GuardianPhone
	student.Address = req.Address
	if req.Active != nil {
		student.Active = *req.Active
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student permanently.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}
