package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shikshahub/shiksha-api/internal/academic"
	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

type admissionRepository interface {
	List(ctx context.Context, filter models.AdmissionFilter) ([]models.AdmissionDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentAdmission, error)
	ExistsPending(ctx context.Context, studentID, schoolID string) (bool, error)
	Create(ctx context.Context, admission *models.StudentAdmission) error
	Decide(ctx context.Context, id string, status models.AdmissionStatus, decidedBy, remarks string) error
}

type studentLoader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type schoolLoader interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
}

type gradeLoader interface {
	FindByID(ctx context.Context, id string) (*models.Grade, error)
}

// CreateAdmissionRequest describes payload for requesting a school place.
type CreateAdmissionRequest struct {
	StudentID     string `json:"student_id" validate:"required"`
	SchoolID      string `json:"school_id" validate:"required"`
	GradeID       string `json:"grade_id" validate:"required"`
	AdmissionDate string `json:"admission_date" validate:"required,datetime=2006-01-02"`
	Remarks       string `json:"remarks"`
}

// DecideAdmissionRequest carries the reviewer's note on a decision.
type DecideAdmissionRequest struct {
	Remarks string `json:"remarks"`
}

// AdmissionService orchestrates the admission lifecycle. Decisions follow
// the explicit transition table in the academic package, so an already
// decided admission can never be decided again.
type AdmissionService struct {
	repo      admissionRepository
	students  studentLoader
	schools   schoolLoader
	grades    gradeLoader
	audits    auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdmissionService creates a new admission service instance.
func NewAdmissionService(repo admissionRepository, students studentLoader, schools schoolLoader, grades gradeLoader, audits auditWriter, validate *validator.Validate, logger *zap.Logger) *AdmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionService{repo: repo, students: students, schools: schools, grades: grades, audits: audits, validator: validate, logger: logger}
}

// List returns paginated admissions with student and school details.
func (s *AdmissionService) List(ctx context.Context, filter models.AdmissionFilter) ([]models.AdmissionDetail, *models.Pagination, error) {
	admissions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admissions")
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
	return admissions, pagination, nil
}

// Get returns an admission by ID.
func (s *AdmissionService) Get(ctx context.Context, id string) (*models.StudentAdmission, error) {
	admission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admission")
	}
	return admission, nil
}

// Create registers a pending admission. A student may hold at most one
// pending admission per school at a time.
func (s *AdmissionService) Create(ctx context.Context, req CreateAdmissionRequest) (*models.StudentAdmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admission payload")
	}

	admissionDate, err := academic.ParseDate(req.AdmissionDate)
	if err != nil {
		return nil, err
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.schools.FindByID(ctx, req.SchoolID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	grade, err := s.grades.FindByID(ctx, req.GradeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if grade.SchoolID != req.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade does not belong to school")
	}

	pending, err := s.repo.ExistsPending(ctx, req.StudentID, req.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending admissions")
	}
	if pending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already has a pending admission for this school")
	}

	admission := &models.StudentAdmission{
		StudentID:     req.StudentID,
		SchoolID:      req.SchoolID,
		GradeID:       req.GradeID,
		AdmissionDate: academic.DateOnly(admissionDate),
		Status:        models.AdmissionStatusPending,
		Remarks:       req.Remarks,
	}

	if err := s.repo.Create(ctx, admission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admission")
	}
	return admission, nil
}

// Approve moves a pending admission to APPROVED and assigns the student to
// the school. Both writes happen in one transaction at the repository.
func (s *AdmissionService) Approve(ctx context.Context, id, actorID string, req DecideAdmissionRequest) (*models.StudentAdmission, error) {
	return s.decide(ctx, id, actorID, academic.AdmissionActionApprove, req.Remarks)
}

// Reject moves a pending admission to REJECTED.
func (s *AdmissionService) Reject(ctx context.Context, id, actorID string, req DecideAdmissionRequest) (*models.StudentAdmission, error) {
	return s.decide(ctx, id, actorID, academic.AdmissionActionReject, req.Remarks)
}

func (s *AdmissionService) decide(ctx context.Context, id, actorID string, action academic.AdmissionAction, remarks string) (*models.StudentAdmission, error) {
	admission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admission")
	}

	next, err := academic.NextAdmissionStatus(admission.Status, action)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Decide(ctx, id, next, actorID, remarks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record admission decision")
	}

	previous := admission.Status
	admission.Status = next
	admission.Remarks = remarks
	if actorID != "" {
		admission.DecidedBy = &actorID
	}

	s.recordDecision(ctx, admission, previous, actorID)
	return admission, nil
}

func (s *AdmissionService) recordDecision(ctx context.Context, admission *models.StudentAdmission, previous models.AdmissionStatus, actorID string) {
	if s.audits == nil {
		return
	}
	oldPayload, _ := json.Marshal(map[string]string{"status": string(previous)})
	newPayload, _ := json.Marshal(map[string]string{"status": string(admission.Status)})
	entry := &models.AuditLog{
		Action:     models.AuditActionAdmissionDecision,
		Resource:   "student_admission",
		ResourceID: &admission.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record admission decision audit", zap.Error(err), zap.String("admission_id", admission.ID))
	}
}
