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

// EnrollmentRepository handles persistence for section enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository instantiates an enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentDetailSelect = `SELECT e.id, e.section_id, e.student_id, e.academic_session_id, e.enrolled_at, e.left_at, e.status,
	st.full_name AS student_name, st.admission_no, sec.name AS section_name, g.name AS grade_name`

const enrollmentDetailBase = `FROM enrollments e
	JOIN students st ON st.id = e.student_id
	JOIN sections sec ON sec.id = e.section_id
	JOIN grades g ON g.id = sec.grade_id`

// List returns enrollments with student and section context.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := enrollmentDetailBase + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("e.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.AcademicSessionID != "" {
		conditions = append(conditions, fmt.Sprintf("e.academic_session_id = $%d", len(args)+1))
		args = append(args, filter.AcademicSessionID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"enrolled_at": true,
		"status":      true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "enrolled_at"
	}
	sortBy = "e." + sortBy

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("%s %s ORDER BY %s %s LIMIT %d OFFSET %d", enrollmentDetailSelect, base, sortBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}

	return enrollments, total, nil
}

// FindByID loads an enrollment by identifier.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, section_id, student_id, academic_session_id, enrolled_at, left_at, status FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID loads an enrollment with student and section context.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := fmt.Sprintf("%s %s WHERE e.id = $1", enrollmentDetailSelect, enrollmentDetailBase)
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsActive checks for an active enrollment of the student in the
// section. The DB carries a matching partial unique index; this check gives
// callers a friendly conflict before the write.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, sectionID, excludeID string) (bool, error) {
	base := "SELECT 1 FROM enrollments WHERE student_id = $1 AND section_id = $2 AND status = $3"
	args := []interface{}{studentID, sectionID, models.EnrollmentStatusActive}
	if excludeID != "" {
		base += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// ListActiveBySection returns the active roster of a section.
func (r *EnrollmentRepository) ListActiveBySection(ctx context.Context, sectionID string) ([]models.EnrollmentDetail, error) {
	query := fmt.Sprintf("%s %s WHERE e.section_id = $1 AND e.status = $2 ORDER BY st.full_name ASC", enrollmentDetailSelect, enrollmentDetailBase)
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, sectionID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list section roster: %w", err)
	}
	return enrollments, nil
}

// Create inserts a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	const query = `INSERT INTO enrollments (id, section_id, student_id, academic_session_id, enrolled_at, left_at, status)
		VALUES (:id, :section_id, :student_id, :academic_session_id, :enrolled_at, :left_at, :status)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateStatus moves an enrollment into a terminal state.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, leftAt *time.Time) error {
	const query = `UPDATE enrollments SET status = $1, left_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, leftAt, id); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// Transfer closes the enrollment as TRANSFERRED and opens the successor in
// the target section inside one transaction, so the student's placement
// never disappears or doubles mid-move.
func (r *EnrollmentRepository) Transfer(ctx context.Context, id string, successor *models.Enrollment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE enrollments SET status = $1, left_at = $2 WHERE id = $3`,
		models.EnrollmentStatusTransferred, now, id); err != nil {
		return fmt.Errorf("close transferred enrollment: %w", err)
	}

	if successor.ID == "" {
		successor.ID = uuid.NewString()
	}
	if _, err = tx.NamedExecContext(ctx, `INSERT INTO enrollments (id, section_id, student_id, academic_session_id, enrolled_at, left_at, status)
		VALUES (:id, :section_id, :student_id, :academic_session_id, :enrolled_at, :left_at, :status)`, successor); err != nil {
		return fmt.Errorf("create successor enrollment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer tx: %w", err)
	}
	return nil
}
