package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

type schoolRepository interface {
	List(ctx context.Context, filter models.SchoolFilter) ([]models.School, int, error)
	FindByID(ctx context.Context, id string) (*models.School, error)
	ExistsByCode(ctx context.Context, tenantID, code, excludeID string) (bool, error)
	Create(ctx context.Context, school *models.School) error
	Update(ctx context.Context, school *models.School) error
	Delete(ctx context.Context, id string) error
}

type tenantLoader interface {
	FindByID(ctx context.Context, id string) (*models.Tenant, error)
}

// CreateSchoolRequest describes payload for registering a school.
type CreateSchoolRequest struct {
	TenantID string `json:"tenant_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Code     string `json:"code" validate:"required"`
	Address  string `json:"address"`
}

// UpdateSchoolRequest updates mutable fields on a school.
type UpdateSchoolRequest struct {
	Name    string `json:"name" validate:"required"`
	Code    string `json:"code" validate:"required"`
	Address string `json:"address"`
	Active  *bool  `json:"active"`
}

// SchoolService orchestrates school workflows.
type SchoolService struct {
	repo      schoolRepository
	tenants   tenantLoader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolService creates a new school service instance.
func NewSchoolService(repo schoolRepository, tenants tenantLoader, validate *validator.Validate, logger *zap.Logger) *SchoolService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchoolService{repo: repo, tenants: tenants, validator: validate, logger: logger}
}

// List returns paginated schools.
func (s *SchoolService) List(ctx context.Context, filter models.SchoolFilter) ([]models.School, *models.Pagination, error) {
	schools, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schools")
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
	return schools, pagination, nil
}

// Get returns a school by ID.
func (s *SchoolService) Get(ctx context.Context, id string) (*models.School, error) {
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	return school, nil
}

// Create registers a school under an existing tenant with a code unique
// within that tenant.
func (s *SchoolService) Create(ctx context.Context, req CreateSchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}

	if _, err := s.tenants.FindByID(ctx, req.TenantID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tenant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tenant")
	}

	exists, err := s.repo.ExistsByCode(ctx, req.TenantID, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check school code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "school code already used for tenant")
	}

	school := &models.School{
		TenantID: req.TenantID,
		Name:     req.Name,
		Code:     req.Code,
		Address:  req.Address,
		Active:   true,
	}

	if err := s.repo.Create(ctx, school); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create school")
	}
	return school, nil
}

// Update modifies a school record.
func (s *SchoolService) Update(ctx context.Context, id string, req UpdateSchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}

	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}

	exists, err := s.repo.ExistsByCode(ctx, school.TenantID, req.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check school code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "school code already used for tenant")
	}

	school.Name = req.Name
	school.Code = req.Code
	school.Address = req.Address
	if req.Active != nil {
		school.Active = *req.Active
	}

	if err := s.repo.Update(ctx, school); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update school")
	}
	return school, nil
}

// Delete removes a school permanently.
func (s *SchoolService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete school")
	}
	return nil
}
