package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shikshahub/shiksha-api/internal/models"
)

// TransportRouteRepository handles persistence for transport routes.
type TransportRouteRepository struct {
	db *sqlx.DB
}

// NewTransportRouteRepository instantiates a transport route repository.
func NewTransportRouteRepository(db *sqlx.DB) *TransportRouteRepository {
	return &TransportRouteRepository{db: db}
}

const transportColumns = "id, school_id, name, vehicle_no, capacity, fare_paise, active, created_at, updated_at"

// List returns routes matching provided filters.
func (r *TransportRouteRepository) List(ctx context.Context, filter models.TransportRouteFilter) ([]models.TransportRoute, int, error) {
	base := "FROM transport_routes WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "vehicle_no": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "name"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", transportColumns, base, sortBy, order, size, offset)

	var routes []models.TransportRoute
	if err := r.db.SelectContext(ctx, &routes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list transport routes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count transport routes: %w", err)
	}

	return routes, total, nil
}

// FindByID loads a route by identifier.
func (r *TransportRouteRepository) FindByID(ctx context.Context, id string) (*models.TransportRoute, error) {
	query := fmt.Sprintf("SELECT %s FROM transport_routes WHERE id = $1", transportColumns)
	var route models.TransportRoute
	if err := r.db.GetContext(ctx, &route, query, id); err != nil {
		return nil, err
	}
	return &route, nil
}

// ExistsByVehicle checks vehicle number uniqueness within a school.
func (r *TransportRouteRepository) ExistsByVehicle(ctx context.Context, schoolID, vehicleNo, excludeID string) (bool, error) {
	base := "SELECT 1 FROM transport_routes WHERE school_id = $1 AND vehicle_no = $2"
	args := []interface{}{schoolID, vehicleNo}
	if excludeID != "" {
		base += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check vehicle number: %w", err)
	}
	return true, nil
}

// Create inserts a new route record.
func (r *TransportRouteRepository) Create(ctx context.Context, route *models.TransportRoute) error {
	if route.ID == "" {
		route.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if route.CreatedAt.IsZero() {
		route.CreatedAt = now
	}
	route.UpdatedAt = now

	const query = `INSERT INTO transport_routes (id, school_id, name, vehicle_no, capacity, fare_paise, active, created_at, updated_at)
		VALUES (:id, :school_id, :name, :vehicle_no, :capacity, :fare_paise, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, route); err != nil {
		return fmt.Errorf("create transport route: %w", err)
	}
	return nil
}

// Update modifies an existing route.
func (r *TransportRouteRepository) Update(ctx context.Context, route *models.TransportRoute) error {
	route.UpdatedAt = time.Now().UTC()
	const query = `UPDATE transport_routes SET name = :name, vehicle_no = :vehicle_no, capacity = :capacity, fare_paise = :fare_paise, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, route); err != nil {
		return fmt.Errorf("update transport route: %w", err)
	}
	return nil
}

// Delete removes a route permanently.
func (r *TransportRouteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transport_routes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete transport route: %w", err)
	}
	return nil
}
