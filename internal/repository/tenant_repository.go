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

// TenantRepository handles persistence for tenants.
type TenantRepository struct {
	db *sqlx.DB
}

// NewTenantRepository instantiates a tenant repository.
func NewTenantRepository(db *sqlx.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

const tenantColumns = "id, name, slug, active, created_at, updated_at"

// List returns tenants matching provided filters.
func (r *TenantRepository) List(ctx context.Context, filter models.TenantFilter) ([]models.Tenant, int, error) {
	base := "FROM tenants WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR slug ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "slug": true, "created_at": true}
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", tenantColumns, base, sortBy, order, size, offset)

	var tenants []models.Tenant
	if err := r.db.SelectContext(ctx, &tenants, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tenants: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tenants: %w", err)
	}

	return tenants, total, nil
}

// FindByID loads a tenant by identifier.
func (r *TenantRepository) FindByID(ctx context.Context, id string) (*models.Tenant, error) {
	query := fmt.Sprintf("SELECT %s FROM tenants WHERE id = $1", tenantColumns)
	var tenant models.Tenant
	if err := r.db.GetContext(ctx, &tenant, query, id); err != nil {
		return nil, err
	}
	return &tenant, nil
}

// ExistsBySlug checks slug uniqueness.
func (r *TenantRepository) ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error) {
	base := "SELECT 1 FROM tenants WHERE slug = $1"
	args := []interface{}{slug}
	if excludeID != "" {
		base += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check tenant slug: %w", err)
	}
	return true, nil
}

// Create inserts a new tenant record.
func (r *TenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = now
	}
	tenant.UpdatedAt = now

	const query = `INSERT INTO tenants (id, name, slug, active, created_at, updated_at) VALUES (:id, :name, :slug, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tenant); err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

// Update modifies an existing tenant.
func (r *TenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	tenant.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tenants SET name = :name, slug = :slug, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, tenant); err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	return nil
}

// Delete removes a tenant permanently.
func (r *TenantRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	return nil
}

// CountSchools returns how many schools the tenant owns.
func (r *TenantRepository) CountSchools(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM schools WHERE tenant_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count tenant schools: %w", err)
	}
	return count, nil
}
