package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shikshahub/shiksha-api/internal/models"
)

// HolidayRepository handles persistence for holidays within sessions.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository instantiates a holiday repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

const holidayColumns = "id, academic_session_id, name, date, description, created_at, updated_at"

// List returns holidays matching provided filters.
func (r *HolidayRepository) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, int, error) {
	base := "FROM holidays WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.AcademicSessionID != "" {
		conditions = append(conditions, fmt.Sprintf("academic_session_id = $%d", len(args)+1))
		args = append(args, filter.AcademicSessionID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"date":       true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "date"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", holidayColumns, base, sortBy, order, size, offset)

	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list holidays: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count holidays: %w", err)
	}

	return holidays, total, nil
}

// ListBySession returns all holidays of a session ordered by date.
func (r *HolidayRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Holiday, error) {
	query := fmt.Sprintf("SELECT %s FROM holidays WHERE academic_session_id = $1 ORDER BY date ASC", holidayColumns)
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, sessionID); err != nil {
		return nil, fmt.Errorf("list session holidays: %w", err)
	}
	return holidays, nil
}

// FindByID loads a holiday by identifier.
func (r *HolidayRepository) FindByID(ctx context.Context, id string) (*models.Holiday, error) {
	query := fmt.Sprintf("SELECT %s FROM holidays WHERE id = $1", holidayColumns)
	var holiday models.Holiday
	if err := r.db.GetContext(ctx, &holiday, query, id); err != nil {
		return nil, err
	}
	return &holiday, nil
}

// Create inserts a new holiday record.
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if holiday.CreatedAt.IsZero() {
		holiday.CreatedAt = now
	}
	holiday.UpdatedAt = now

	const query = `INSERT INTO holidays (id, academic_session_id, name, date, description, created_at, updated_at) VALUES (:id, :academic_session_id, :name, :date, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// Update modifies an existing holiday.
func (r *HolidayRepository) Update(ctx context.Context, holiday *models.Holiday) error {
	holiday.UpdatedAt = time.Now().UTC()
	const query = `UPDATE holidays SET name = :name, date = :date, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		return fmt.Errorf("update holiday: %w", err)
	}
	return nil
}

// Delete removes a holiday permanently.
func (r *HolidayRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	return nil
}
