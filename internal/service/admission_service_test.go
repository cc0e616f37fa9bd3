package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

type mockAdmissionRepo struct {
	admissions map[string]models.StudentAdmission
	pending    map[string]bool
	created    *models.StudentAdmission
	decisions  []models.AdmissionStatus
}

func (m *mockAdmissionRepo) List(ctx context.Context, filter models.AdmissionFilter) ([]models.AdmissionDetail, int, error) {
	return nil, 0, nil
}

func (m *mockAdmissionRepo) FindByID(ctx context.Context, id string) (*models.StudentAdmission, error) {
	if a, ok := m.admissions[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdmissionRepo) ExistsPending(ctx context.Context, studentID, schoolID string) (bool, error) {
	return m.pending[studentID+"/"+schoolID], nil
}

func (m *mockAdmissionRepo) Create(ctx context.Context, admission *models.StudentAdmission) error {
	if m.admissions == nil {
		m.admissions = make(map[string]models.StudentAdmission)
	}
	if admission.ID == "" {
		admission.ID = "new-admission"
	}
	m.admissions[admission.ID] = *admission
	m.created = admission
	return nil
}

func (m *mockAdmissionRepo) Decide(ctx context.Context, id string, status models.AdmissionStatus, decidedBy, remarks string) error {
	a := m.admissions[id]
	a.Status = status
	a.Remarks = remarks
	m.admissions[id] = a
	m.decisions = append(m.decisions, status)
	return nil
}

type mockStudentLoader struct {
	students map[string]models.Student
}

func (m *mockStudentLoader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockSchoolLoader struct {
	schools map[string]models.School
}

func (m *mockSchoolLoader) FindByID(ctx context.Context, id string) (*models.School, error) {
	if s, ok := m.schools[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockGradeLoader struct {
	grades map[string]models.Grade
}

func (m *mockGradeLoader) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	if g, ok := m.grades[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func admissionFixtures() (*mockStudentLoader, *mockSchoolLoader, *mockGradeLoader) {
	students := &mockStudentLoader{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", TenantID: "ten-1", FullName: "Asha Verma", Active: true},
	}}
	schools := &mockSchoolLoader{schools: map[string]models.School{
		"sch-1": {ID: "sch-1", TenantID: "ten-1", Name: "Green Valley", Active: true},
	}}
	grades := &mockGradeLoader{grades: map[string]models.Grade{
		"grd-1": {ID: "grd-1", SchoolID: "sch-1", Name: "Grade 5", Level: 5},
	}}
	return students, schools, grades
}

func TestAdmissionServiceCreateStartsPending(t *testing.T) {
	repo := &mockAdmissionRepo{}
	students, schools, grades := admissionFixtures()
	svc := NewAdmissionService(repo, students, schools, grades, nil, nil, nil)

	admission, err := svc.Create(context.Background(), CreateAdmissionRequest{
		StudentID:     "stu-1",
		SchoolID:      "sch-1",
		GradeID:       "grd-1",
		AdmissionDate: "2025-04-10",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionStatusPending, admission.Status)
}

func TestAdmissionServiceCreateRejectsDuplicatePending(t *testing.T) {
	repo := &mockAdmissionRepo{pending: map[string]bool{"stu-1/sch-1": true}}
	students, schools, grades := admissionFixtures()
	svc := NewAdmissionService(repo, students, schools, grades, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateAdmissionRequest{
		StudentID:     "stu-1",
		SchoolID:      "sch-1",
		GradeID:       "grd-1",
		AdmissionDate: "2025-04-10",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAdmissionServiceCreateRejectsForeignGrade(t *testing.T) {
	repo := &mockAdmissionRepo{}
	students, schools, grades := admissionFixtures()
	grades.grades["grd-2"] = models.Grade{ID: "grd-2", SchoolID: "sch-9", Name: "Grade 6", Level: 6}
	svc := NewAdmissionService(repo, students, schools, grades, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateAdmissionRequest{
		StudentID:     "stu-1",
		SchoolID:      "sch-1",
		GradeID:       "grd-2",
		AdmissionDate: "2025-04-10",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAdmissionServiceApprovePending(t *testing.T) {
	repo := &mockAdmissionRepo{admissions: map[string]models.StudentAdmission{
		"adm-1": {ID: "adm-1", StudentID: "stu-1", SchoolID: "sch-1", Status: models.AdmissionStatusPending},
	}}
	students, schools, grades := admissionFixtures()
	audits := &mockAuditWriter{}
	svc := NewAdmissionService(repo, students, schools, grades, audits, nil, nil)

	admission, err := svc.Approve(context.Background(), "adm-1", "admin-1", DecideAdmissionRequest{Remarks: "seat available"})
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionStatusApproved, admission.Status)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionAdmissionDecision, audits.entries[0].Action)
}

func TestAdmissionServiceDecisionIsFinal(t *testing.T) {
	repo := &mockAdmissionRepo{admissions: map[string]models.StudentAdmission{
		"approved": {ID: "approved", Status: models.AdmissionStatusApproved},
		"rejected": {ID: "rejected", Status: models.AdmissionStatusRejected},
	}}
	students, schools, grades := admissionFixtures()
	svc := NewAdmissionService(repo, students, schools, grades, nil, nil, nil)

	_, err := svc.Reject(context.Background(), "approved", "admin-1", DecideAdmissionRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	_, err = svc.Approve(context.Background(), "rejected", "admin-1", DecideAdmissionRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	assert.Empty(t, repo.decisions)
}
