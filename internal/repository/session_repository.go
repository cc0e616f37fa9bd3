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

// SessionRepository handles persistence for academic sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository instantiates a session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = "id, tenant_id, name, start_date, end_date, is_active, created_at, updated_at"

// List returns sessions matching provided filters.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.AcademicSession, int, error) {
	base := "FROM academic_sessions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TenantID != "" {
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", len(args)+1))
		args = append(args, filter.TenantID)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"start_date": true,
		"end_date":   true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "start_date"
	}

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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", sessionColumns, base, sortBy, order, size, offset)

	var sessions []models.AcademicSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// FindByID loads a session by identifier.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.AcademicSession, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_sessions WHERE id = $1", sessionColumns)
	var session models.AcademicSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindActiveByTenant returns the tenant's currently active session.
func (r *SessionRepository) FindActiveByTenant(ctx context.Context, tenantID string) (*models.AcademicSession, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_sessions WHERE tenant_id = $1 AND is_active = TRUE LIMIT 1", sessionColumns)
	var session models.AcademicSession
	if err := r.db.GetContext(ctx, &session, query, tenantID); err != nil {
		return nil, err
	}
	return &session, nil
}

// ExistsByName checks if the tenant already has a session with the name.
func (r *SessionRepository) ExistsByName(ctx context.Context, tenantID, name, excludeID string) (bool, error) {
	base := "SELECT 1 FROM academic_sessions WHERE tenant_id = $1 AND name = $2"
	args := []interface{}{tenantID, name}
	if excludeID != "" {
		base += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check session uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new session record.
func (r *SessionRepository) Create(ctx context.Context, session *models.AcademicSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO academic_sessions (id, tenant_id, name, start_date, end_date, is_active, created_at, updated_at) VALUES (:id, :tenant_id, :name, :start_date, :end_date, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update modifies an existing session.
func (r *SessionRepository) Update(ctx context.Context, session *models.AcademicSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE academic_sessions SET name = :name, start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Activate marks the session as the tenant's active one and deactivates all
// siblings. Both writes run inside a single transaction so there is no
// observable window with zero or two active sessions for the tenant.
func (r *SessionRepository) Activate(ctx context.Context, tenantID, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE academic_sessions SET is_active = FALSE, updated_at = $1 WHERE tenant_id = $2 AND is_active = TRUE AND id <> $3`, now, tenantID, id); err != nil {
		return fmt.Errorf("deactivate sibling sessions: %w", err)
	}

	var res sql.Result
	if res, err = tx.ExecContext(ctx, `UPDATE academic_sessions SET is_active = TRUE, updated_at = $1 WHERE id = $2 AND tenant_id = $3`, now, id, tenantID); err != nil {
		return fmt.Errorf("activate session: %w", err)
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit activate tx: %w", err)
	}
	return nil
}

// Delete removes a session permanently.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM academic_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SubPeriodBounds returns the envelope spanned by the session's terms and
// holidays, or nil when the session has none.
func (r *SessionRepository) SubPeriodBounds(ctx context.Context, id string) (*models.PeriodBounds, error) {
	const query = `SELECT MIN(start_date) AS start_date, MAX(end_date) AS end_date FROM (
		SELECT start_date, end_date FROM terms WHERE academic_session_id = $1
		UNION ALL
		SELECT date AS start_date, date AS end_date FROM holidays WHERE academic_session_id = $1) sub`
	var row struct {
		Start sql.NullTime `db:"start_date"`
		End   sql.NullTime `db:"end_date"`
	}
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, fmt.Errorf("session sub-period bounds: %w", err)
	}
	if !row.Start.Valid || !row.End.Valid {
		return nil, nil
	}
	return &models.PeriodBounds{Start: row.Start.Time, End: row.End.Time}, nil
}

// CountSubPeriods returns the number of terms and holidays under a session.
func (r *SessionRepository) CountSubPeriods(ctx context.Context, id string) (int, error) {
	const query = `SELECT (SELECT COUNT(*) FROM terms WHERE academic_session_id = $1) + (SELECT COUNT(*) FROM holidays WHERE academic_session_id = $1)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count session sub-periods: %w", err)
	}
	return count, nil
}
