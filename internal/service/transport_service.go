package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

type transportRouteRepository interface {
	List(ctx context.Context, filter models.TransportRouteFilter) ([]models.TransportRoute, int, error)
	FindByID(ctx context.Context, id string) (*models.TransportRoute, error)
	ExistsByVehicle(ctx context.Context, schoolID, vehicleNo, excludeID string) (bool, error)
	Create(ctx context.Context, route *models.TransportRoute) error
	Update(ctx context.Context, route *models.TransportRoute) error
	Delete(ctx context.Context, id string) error
}

// CreateTransportRouteRequest registers a bus route for a school.
type CreateTransportRouteRequest struct {
	SchoolID  string `json:"school_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	VehicleNo string `json:"vehicle_no" validate:"required"`
	Capacity  int    `json:"capacity" validate:"required,min=1"`
	FarePaise int64  `json:"fare_paise" validate:"required,min=1"`
}

// UpdateTransportRouteRequest updates mutable fields on a route.
type UpdateTransportRouteRequest struct {
	Name      string `json:"name" validate:"required"`
	VehicleNo string `json:"vehicle_no" validate:"required"`
	Capacity  int    `json:"capacity" validate:"required,min=1"`
	FarePaise int64  `json:"fare_paise" validate:"required,min=1"`
	Active    *bool  `json:"active"`
}

// TransportRouteService orchestrates transport route workflows.
type TransportRouteService struct {
	repo      transportRouteRepository
	schools   schoolLoader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTransportRouteService creates a new transport route service instance.
func NewTransportRouteService(repo transportRouteRepository, schools schoolLoader, validate *validator.Validate, logger *zap.Logger) *TransportRouteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransportRouteService{repo: repo, schools: schools, validator: validate, logger: logger}
}

// List returns paginated routes.
func (s *TransportRouteService) List(ctx context.Context, filter models.TransportRouteFilter) ([]models.TransportRoute, *models.Pagination, error) {
	routes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transport routes")
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
	return routes, pagination, nil
}

// Get returns a route by ID.
func (s *TransportRouteService) Get(ctx context.Context, id string) (*models.TransportRoute, error) {
	route, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "transport route not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transport route")
	}
	return route, nil
}

// Create registers a route. Vehicle numbers are unique within a school.
func (s *TransportRouteService) Create(ctx context.Context, req CreateTransportRouteRequest) (*models.TransportRoute, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transport route payload")
	}

	if _, err := s.schools.FindByID(ctx, req.SchoolID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}

	exists, err := s.repo.ExistsByVehicle(ctx, req.SchoolID, req.VehicleNo, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check vehicle number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "vehicle number already assigned to a route")
	}

	route := &models.TransportRoute{
		SchoolID:  req.SchoolID,
		Name:      req.Name,
		VehicleNo: req.VehicleNo,
		Capacity:  req.Capacity,
		FarePaise: req.FarePaise,
		Active:    true,
	}

	if err := s.repo.Create(ctx, route); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create transport route")
	}
	return route, nil
}

// Update modifies a route record.
func (s *TransportRouteService) Update(ctx context.Context, id string, req UpdateTransportRouteRequest) (*models.TransportRoute, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transport route payload")
	}

	route, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "transport route not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transport route")
	}

	exists, err := s.repo.ExistsByVehicle(ctx, route.SchoolID, req.VehicleNo, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check vehicle number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "vehicle number already assigned to a route")
	}

	route.Name = req.Name
	route.VehicleNo = req.VehicleNo
	route.Capacity = req.Capacity
	route.FarePaise = req.FarePaise
	if req.Active != nil {
		route.Active = *req.Active
	}

	if err := s.repo.Update(ctx, route); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update transport route")
	}
	return route, nil
}

// Delete removes a route permanently.
func (s *TransportRouteService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete transport route")
	}
	return nil
}
