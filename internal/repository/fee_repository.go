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

// FeeStructureRepository handles persistence for fee structures.
type FeeStructureRepository struct {
	db *sqlx.DB
}

// NewFeeStructureRepository instantiates a fee structure repository.
func NewFeeStructureRepository(db *sqlx.DB) *FeeStructureRepository {
	return &FeeStructureRepository{db: db}
}

const feeColumns = "id, school_id, academic_session_id, grade_id, name, amount_paise, frequency, active, created_at, updated_at"

// List returns fee structures matching provided filters.
func (r *FeeStructureRepository) List(ctx context.Context, filter models.FeeStructureFilter) ([]models.FeeStructure, int, error) {
	base := "FROM fee_structures WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.AcademicSessionID != "" {
		conditions = append(conditions, fmt.Sprintf("academic_session_id = $%d", len(args)+1))
		args = append(args, filter.AcademicSessionID)
	}
	if filter.GradeID != "" {
		conditions = append(conditions, fmt.Sprintf("grade_id = $%d", len(args)+1))
		args = append(args, filter.GradeID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "amount_paise": true, "created_at": true}
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", feeColumns, base, sortBy, order, size, offset)

	var fees []models.FeeStructure
	if err := r.db.SelectContext(ctx, &fees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fee structures: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fee structures: %w", err)
	}

	return fees, total, nil
}

// FindByID loads a fee structure by identifier.
func (r *FeeStructureRepository) FindByID(ctx context.Context, id string) (*models.FeeStructure, error) {
	query := fmt.Sprintf("SELECT %s FROM fee_structures WHERE id = $1", feeColumns)
	var fee models.FeeStructure
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		return nil, err
	}
	return &fee, nil
}

// Create inserts a new fee structure record.
func (r *FeeStructureRepository) Create(ctx context.Context, fee *models.FeeStructure) error {
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if fee.CreatedAt.IsZero() {
		fee.CreatedAt = now
	}
	fee.UpdatedAt = now

	const query = `INSERT INTO fee_structures (id, school_id, academic_session_id, grade_id, name, amount_paise, frequency, active, created_at, updated_at)
		VALUES (:id, :school_id, :academic_session_id, :grade_id, :name, :amount_paise, :frequency, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("create fee structure: %w", err)
	}
	return nil
}

// Update modifies an existing fee structure.
func (r *FeeStructureRepository) Update(ctx context.Context, fee *models.FeeStructure) error {
	fee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fee_structures SET name = :name, amount_paise = :amount_paise, frequency = :frequency, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("update fee structure: %w", err)
	}
	return nil
}

// Delete removes a fee structure permanently.
func (r *FeeStructureRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM fee_structures WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete fee structure: %w", err)
	}
	return nil
}
