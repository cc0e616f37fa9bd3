package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

type tenantRepository interface {
	List(ctx context.Context, filter models.TenantFilter) ([]models.Tenant, int, error)
	FindByID(ctx context.Context, id string) (*models.Tenant, error)
	ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, tenant *models.Tenant) error
	Update(ctx context.Context, tenant *models.Tenant) error
	Delete(ctx context.Context, id string) error
	CountSchools(ctx context.Context, id string) (int, error)
}

// CreateTenantRequest describes payload for onboarding a tenant.
type CreateTenantRequest struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required,lowercase"`
}

// UpdateTenantRequest updates mutable fields on a tenant.
type UpdateTenantRequest struct {
	Name   string `json:"name" validate:"required"`
	Active *bool  `json:"active"`
}

// TenantService orchestrates tenant workflows.
type TenantService struct {
	repo      tenantRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTenantService creates a new tenant service instance.
func NewTenantService(repo tenantRepository, validate *validator.Validate, logger *zap.Logger) *TenantService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated tenants.
func (s *TenantService) List(ctx context.Context, filter models.TenantFilter) ([]models.Tenant, *models.Pagination, error) {
	tenants, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tenants")
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
	return tenants, pagination, nil
}

// Get returns a tenant by ID.
func (s *TenantService) Get(ctx context.Context, id string) (*models.Tenant, error) {
	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tenant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tenant")
	}
	return tenant, nil
}

// Create onboards a new tenant with a unique slug.
func (s *TenantService) Create(ctx context.Context, req CreateTenantRequest) (*models.Tenant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tenant payload")
	}

	exists, err := s.repo.ExistsBySlug(ctx, req.Slug, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check tenant slug")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "tenant slug already in use")
	}

	tenant := &models.Tenant{
		Name:   req.Name,
		Slug:   req.Slug,
		Active: true,
	}

	if err := s.repo.Create(ctx, tenant); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tenant")
	}
	return tenant, nil
}

// Update modifies a tenant's name and active flag. Slugs are immutable.
func (s *TenantService) Update(ctx context.Context, id string, req UpdateTenantRequest) (*models.Tenant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tenant payload")
	}

	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tenant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tenant")
	}

	tenant.Name = req.Name
	if req.Active != nil {
		tenant.Active = *req.Active
	}

	if err := s.repo.Update(ctx, tenant); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tenant")
	}
	return tenant, nil
}

// Delete removes a tenant that has no schools.
func (s *TenantService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountSchools(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check tenant dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "tenant has schools associated")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete tenant")
	}
	return nil
}
