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

// AdmissionRepository handles persistence for student admissions.
type AdmissionRepository struct {
	db *sqlx.DB
}

// NewAdmissionRepository instantiates an admission repository.
func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

const admissionColumns = "id, student_id, school_id, grade_id, admission_date, status, remarks, decided_at, decided_by, created_at, updated_at"

// List returns admissions with student, school and grade context.
func (r *AdmissionRepository) List(ctx context.Context, filter models.AdmissionFilter) ([]models.AdmissionDetail, int, error) {
	base := `FROM student_admissions a
		JOIN students st ON st.id = a.student_id
		JOIN schools sc ON sc.id = a.school_id
		JOIN grades g ON g.id = a.grade_id
		WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("a.school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.GradeID != "" {
		conditions = append(conditions, fmt.Sprintf("a.grade_id = $%d", len(args)+1))
		args = append(args, filter.GradeID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"admission_date": true,
		"status":         true,
		"created_at":     true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "admission_date"
	}
	sortBy = "a." + sortBy

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

	query := fmt.Sprintf(`SELECT a.id, a.student_id, a.school_id, a.grade_id, a.admission_date, a.status, a.remarks,
		a.decided_at, a.decided_by, a.created_at, a.updated_at,
		st.full_name AS student_name, sc.name AS school_name, g.name AS grade_name
		%s ORDER BY %s %s LIMIT %d OFFSET %d`, base, sortBy, order, size, offset)

	var admissions []models.AdmissionDetail
	if err := r.db.SelectContext(ctx, &admissions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list admissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count admissions: %w", err)
	}

	return admissions, total, nil
}

// FindByID loads an admission by identifier.
func (r *AdmissionRepository) FindByID(ctx context.Context, id string) (*models.StudentAdmission, error) {
	query := fmt.Sprintf("SELECT %s FROM student_admissions WHERE id = $1", admissionColumns)
	var admission models.StudentAdmission
	if err := r.db.GetContext(ctx, &admission, query, id); err != nil {
		return nil, err
	}
	return &admission, nil
}

// FindDetailByID loads an admission with student, school and grade names.
func (r *AdmissionRepository) FindDetailByID(ctx context.Context, id string) (*models.AdmissionDetail, error) {
	const query = `SELECT a.id, a.student_id, a.school_id, a.grade_id, a.admission_date, a.status, a.remarks,
		a.decided_at, a.decided_by, a.created_at, a.updated_at,
		st.full_name AS student_name, sc.name AS school_name, g.name AS grade_name
		FROM student_admissions a
		JOIN students st ON st.id = a.student_id
		JOIN schools sc ON sc.id = a.school_id
		JOIN grades g ON g.id = a.grade_id
		WHERE a.id = $1`
	var detail models.AdmissionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsPending checks whether the student already has a pending admission
// for the school.
func (r *AdmissionRepository) ExistsPending(ctx context.Context, studentID, schoolID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM student_admissions WHERE student_id = $1 AND school_id = $2 AND status = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID, schoolID, models.AdmissionStatusPending); err != nil {
		return false, fmt.Errorf("check pending admission: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new admission record.
func (r *AdmissionRepository) Create(ctx context.Context, admission *models.StudentAdmission) error {
	if admission.ID == "" {
		admission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if admission.CreatedAt.IsZero() {
		admission.CreatedAt = now
	}
	admission.UpdatedAt = now

	const query = `INSERT INTO student_admissions (id, student_id, school_id, grade_id, admission_date, status, remarks, decided_at, decided_by, created_at, updated_at)
		VALUES (:id, :student_id, :school_id, :grade_id, :admission_date, :status, :remarks, :decided_at, :decided_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, admission); err != nil {
		return fmt.Errorf("create admission: %w", err)
	}
	return nil
}

// Decide records the admission decision. Approval also assigns the student
// to the admission's school; both writes share one transaction so the
// status and the student assignment cannot diverge.
func (r *AdmissionRepository) Decide(ctx context.Context, id string, status models.AdmissionStatus, decidedBy string, remarks string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin decide tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE student_admissions SET status = $1, remarks = $2, decided_at = $3, decided_by = $4, updated_at = $3 WHERE id = $5`,
		status, remarks, now, decidedBy, id); err != nil {
		return fmt.Errorf("update admission status: %w", err)
	}

	if status == models.AdmissionStatusApproved {
		if _, err = tx.ExecContext(ctx, `UPDATE students SET school_id = (SELECT school_id FROM student_admissions WHERE id = $1), updated_at = $2 WHERE id = (SELECT student_id FROM student_admissions WHERE id = $1)`,
			id, now); err != nil {
			return fmt.Errorf("assign student school: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit decide tx: %w", err)
	}
	return nil
}
