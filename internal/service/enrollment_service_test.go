package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	active      map[string]bool
	created     *models.Enrollment
	transfers   []string
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := m.enrollments[id]; ok {
		return &models.EnrollmentDetail{Enrollment: e}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ExistsActive(ctx context.Context, studentID, sectionID, excludeID string) (bool, error) {
	return m.active[studentID+"/"+sectionID], nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if enrollment.ID == "" {
		enrollment.ID = "new-enrollment"
	}
	m.enrollments[enrollment.ID] = *enrollment
	m.created = enrollment
	return nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, leftAt *time.Time) error {
	e := m.enrollments[id]
	e.Status = status
	e.LeftAt = leftAt
	m.enrollments[id] = e
	return nil
}

func (m *mockEnrollmentRepo) Transfer(ctx context.Context, id string, successor *models.Enrollment) error {
	old := m.enrollments[id]
	now := time.Now().UTC()
	old.Status = models.EnrollmentStatusTransferred
	old.LeftAt = &now
	m.enrollments[id] = old

	if successor.ID == "" {
		successor.ID = "successor"
	}
	m.enrollments[successor.ID] = *successor
	m.transfers = append(m.transfers, id)
	return nil
}

type mockSectionLoader struct {
	sections map[string]models.Section
}

func (m *mockSectionLoader) FindByID(ctx context.Context, id string) (*models.Section, error) {
	if s, ok := m.sections[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func enrollmentFixtures() (*mockStudentLoader, *mockSectionLoader, *mockSessionLoader) {
	schoolID := "sch-1"
	students := &mockStudentLoader{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", TenantID: "ten-1", SchoolID: &schoolID, FullName: "Asha Verma", Active: true},
	}}
	sections := &mockSectionLoader{sections: map[string]models.Section{
		"sec-a": {ID: "sec-a", GradeID: "grd-1", Name: "A", Active: true},
		"sec-b": {ID: "sec-b", GradeID: "grd-1", Name: "B", Active: true},
	}}
	sessions := &mockSessionLoader{sessions: map[string]models.AcademicSession{"ses-1": schoolYearSession("ses-1")}}
	return students, sections, sessions
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students, sections, sessions := enrollmentFixtures()
	svc := NewEnrollmentService(repo, students, sections, sessions, nil, nil, nil)

	enrollment, err := svc.Enroll(context.Background(), EnrollStudentRequest{
		StudentID:         "stu-1",
		SectionID:         "sec-a",
		AcademicSessionID: "ses-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.Nil(t, enrollment.LeftAt)
}

func TestEnrollmentServiceEnrollRejectsDuplicateActive(t *testing.T) {
	repo := &mockEnrollmentRepo{active: map[string]bool{"stu-1/sec-a": true}}
	students, sections, sessions := enrollmentFixtures()
	svc := NewEnrollmentService(repo, students, sections, sessions, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{
		StudentID:         "stu-1",
		SectionID:         "sec-a",
		AcademicSessionID: "ses-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestEnrollmentServiceEnrollRequiresApprovedAdmission(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students, sections, sessions := enrollmentFixtures()
	students.students["stu-2"] = models.Student{ID: "stu-2", TenantID: "ten-1", FullName: "Rohan Iyer", Active: true}
	svc := NewEnrollmentService(repo, students, sections, sessions, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{
		StudentID:         "stu-2",
		SectionID:         "sec-a",
		AcademicSessionID: "ses-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceWithdrawActive(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", SectionID: "sec-a", Status: models.EnrollmentStatusActive},
	}}
	students, sections, sessions := enrollmentFixtures()
	audits := &mockAuditWriter{}
	svc := NewEnrollmentService(repo, students, sections, sessions, audits, nil, nil)

	enrollment, err := svc.Withdraw(context.Background(), "enr-1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusWithdrawn, enrollment.Status)
	require.NotNil(t, enrollment.LeftAt)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionEnrollmentChange, audits.entries[0].Action)
}

func TestEnrollmentServiceClosedEnrollmentsStayClosed(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"withdrawn":   {ID: "withdrawn", StudentID: "stu-1", SectionID: "sec-a", Status: models.EnrollmentStatusWithdrawn},
		"transferred": {ID: "transferred", StudentID: "stu-1", SectionID: "sec-a", Status: models.EnrollmentStatusTransferred},
	}}
	students, sections, sessions := enrollmentFixtures()
	svc := NewEnrollmentService(repo, students, sections, sessions, nil, nil, nil)

	_, err := svc.Withdraw(context.Background(), "withdrawn", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	_, err = svc.Transfer(context.Background(), "transferred", "admin-1", TransferEnrollmentRequest{TargetSectionID: "sec-b"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.transfers)
}

func TestEnrollmentServiceTransferOpensSuccessor(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", SectionID: "sec-a", AcademicSessionID: "ses-1", Status: models.EnrollmentStatusActive},
	}}
	students, sections, sessions := enrollmentFixtures()
	svc := NewEnrollmentService(repo, students, sections, sessions, nil, nil, nil)

	successor, err := svc.Transfer(context.Background(), "enr-1", "admin-1", TransferEnrollmentRequest{TargetSectionID: "sec-b"})
	require.NoError(t, err)
	assert.Equal(t, "sec-b", successor.SectionID)
	assert.Equal(t, models.EnrollmentStatusActive, successor.Status)
	assert.Equal(t, "ses-1", successor.AcademicSessionID)

	old := repo.enrollments["enr-1"]
	assert.Equal(t, models.EnrollmentStatusTransferred, old.Status)
	require.NotNil(t, old.LeftAt)
}

func TestEnrollmentServiceTransferRejectsSameSection(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", SectionID: "sec-a", Status: models.EnrollmentStatusActive},
	}}
	students, sections, sessions := enrollmentFixtures()
	svc := NewEnrollmentService(repo, students, sections, sessions, nil, nil, nil)

	_, err := svc.Transfer(context.Background(), "enr-1", "admin-1", TransferEnrollmentRequest{TargetSectionID: "sec-a"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
