package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shikshahub/shiksha-api/internal/academic"
	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ExistsActive(ctx context.Context, studentID, sectionID, excludeID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, leftAt *time.Time) error
	Transfer(ctx context.Context, id string, successor *models.Enrollment) error
}

type sectionLoader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

// EnrollStudentRequest places a student into a section for a session.
type EnrollStudentRequest struct {
	StudentID         string `json:"student_id" validate:"required"`
	SectionID         string `json:"section_id" validate:"required"`
	AcademicSessionID string `json:"academic_session_id" validate:"required"`
}

// TransferEnrollmentRequest moves an active enrollment to another section.
type TransferEnrollmentRequest struct {
	TargetSectionID string `json:"target_section_id" validate:"required"`
}

// EnrollmentService orchestrates the enrollment lifecycle. Status changes
// follow the explicit transition table in the academic package; WITHDRAWN
// and TRANSFERRED enrollments stay closed for good.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentLoader
	sections  sectionLoader
	sessions  sessionLoader
	audits    auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService creates a new enrollment service instance.
func NewEnrollmentService(repo enrollmentRepository, students studentLoader, sections sectionLoader, sessions sessionLoader, audits auditWriter, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, sections: sections, sessions: sessions, audits: audits, validator: validate, logger: logger}
}

// List returns paginated enrollments with student and section details.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
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
	return enrollments, pagination, nil
}

// Get returns an enrollment with context by ID.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

func (s *EnrollmentService) checkSection(ctx context.Context, sectionID string) (*models.Section, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if !section.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "section is not accepting enrollments")
	}
	return section, nil
}

// Enroll places a student into a section. The student must be active and
// assigned to a school, the section must be active, and the student must not
// already hold an active enrollment in the same section.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollStudentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student is inactive")
	}
	if student.SchoolID == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student has no approved admission")
	}

	if _, err := s.checkSection(ctx, req.SectionID); err != nil {
		return nil, err
	}

	if _, err := s.sessions.FindByID(ctx, req.AcademicSessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	exists, err := s.repo.ExistsActive(ctx, req.StudentID, req.SectionID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active enrollments")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in this section")
	}

	enrollment := &models.Enrollment{
		SectionID:         req.SectionID,
		StudentID:         req.StudentID,
		AcademicSessionID: req.AcademicSessionID,
		EnrolledAt:        time.Now().UTC(),
		Status:            models.EnrollmentStatusActive,
	}

	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.recordChange(ctx, enrollment.ID, "", enrollment.Status, "")
	return enrollment, nil
}

// Withdraw moves an active enrollment to WITHDRAWN.
func (s *EnrollmentService) Withdraw(ctx context.Context, id, actorID string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	next, err := academic.NextEnrollmentStatus(enrollment.Status, academic.EnrollmentActionWithdraw)
	if err != nil {
		return nil, err
	}

	leftAt := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, next, &leftAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw enrollment")
	}

	previous := enrollment.Status
	enrollment.Status = next
	enrollment.LeftAt = &leftAt

	s.recordChange(ctx, enrollment.ID, previous, next, actorID)
	return enrollment, nil
}

// Transfer closes an active enrollment as TRANSFERRED and opens a successor
// in the target section. Both writes run in one transaction at the
// repository, so the student never holds zero or two active placements
// mid-move.
func (s *EnrollmentService) Transfer(ctx context.Context, id, actorID string, req TransferEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}

	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if req.TargetSectionID == enrollment.SectionID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target section matches current section")
	}

	if _, err := academic.NextEnrollmentStatus(enrollment.Status, academic.EnrollmentActionTransfer); err != nil {
		return nil, err
	}

	if _, err := s.checkSection(ctx, req.TargetSectionID); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsActive(ctx, enrollment.StudentID, req.TargetSectionID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active enrollments")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in target section")
	}

	successor := &models.Enrollment{
		SectionID:         req.TargetSectionID,
		StudentID:         enrollment.StudentID,
		AcademicSessionID: enrollment.AcademicSessionID,
		EnrolledAt:        time.Now().UTC(),
		Status:            models.EnrollmentStatusActive,
	}

	if err := s.repo.Transfer(ctx, id, successor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transfer enrollment")
	}

	s.recordChange(ctx, id, enrollment.Status, models.EnrollmentStatusTransferred, actorID)
	return successor, nil
}

func (s *EnrollmentService) recordChange(ctx context.Context, enrollmentID string, previous, next models.EnrollmentStatus, actorID string) {
	if s.audits == nil {
		return
	}
	var oldPayload []byte
	if previous != "" {
		oldPayload, _ = json.Marshal(map[string]string{"status": string(previous)})
	}
	newPayload, _ := json.Marshal(map[string]string{"status": string(next)})
	entry := &models.AuditLog{
		Action:     models.AuditActionEnrollmentChange,
		Resource:   "enrollment",
		ResourceID: &enrollmentID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record enrollment change audit", zap.Error(err), zap.String("enrollment_id", enrollmentID))
	}
}
